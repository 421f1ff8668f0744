package pipeline

import "sync"

// Stage is a state of a pipeline run.
type Stage string

// Run states in order. Failed is reachable from any non-terminal stage.
const (
	StagePlanning     Stage = "planning"
	StageExtracting   Stage = "extracting"
	StageTranscribing Stage = "transcribing"
	StageSynthesizing Stage = "synthesizing"
	StageFinalizing   Stage = "finalizing"
	StageDone         Stage = "done"
	StageFailed       Stage = "failed"
)

// ProgressFunc receives a percentage in [0, 100] and a human-readable message.
type ProgressFunc func(percent int, message string)

// band is the percentage range owned by a stage.
type band struct{ lo, hi int }

var bands = map[Stage]band{
	StagePlanning:     {0, 10},
	StageExtracting:   {10, 30},
	StageTranscribing: {31, 65},
	StageSynthesizing: {66, 90},
	StageFinalizing:   {91, 100},
	StageDone:         {100, 100},
}

// at maps a done/total fraction into the stage's band.
func (b band) at(done, total int) int {
	if total <= 0 {
		return b.lo
	}
	done = min(max(done, 0), total)
	return b.lo + (b.hi-b.lo)*done/total
}

// reporter forwards progress, never letting the percentage go backwards.
type reporter struct {
	mu    sync.Mutex
	fn    ProgressFunc
	last  int
	stage Stage
	hook  func(Stage)
}

func newReporter(fn ProgressFunc, hook func(Stage)) *reporter {
	return &reporter{fn: fn, hook: hook}
}

// enter moves the run to stage s and reports the start of its band.
func (r *reporter) enter(s Stage, msg string) {
	r.mu.Lock()
	r.stage = s
	hook := r.hook
	r.mu.Unlock()

	if hook != nil {
		hook(s)
	}
	if b, ok := bands[s]; ok {
		r.report(b.lo, msg)
	}
}

// current returns the stage the run is in.
func (r *reporter) current() Stage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stage
}

// step reports done/total progress through the current stage.
func (r *reporter) step(done, total int, msg string) {
	r.report(bands[r.current()].at(done, total), msg)
}

// finish reports the end of the current stage's band.
func (r *reporter) finish(msg string) {
	r.report(bands[r.current()].hi, msg)
}

func (r *reporter) report(pct int, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pct = min(max(pct, r.last), 100)
	r.last = pct
	if r.fn != nil {
		r.fn(pct, msg)
	}
}

// fail marks the run failed without reporting progress.
func (r *reporter) fail() {
	r.mu.Lock()
	hook := r.hook
	r.stage = StageFailed
	r.mu.Unlock()
	if hook != nil {
		hook(StageFailed)
	}
}
