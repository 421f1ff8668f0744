// Package pipeline sequences duration probing, sampling, audio extraction,
// transcription and chapter synthesis for one video, reporting monotonic
// progress and releasing every extracted clip on every exit path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alnah/go-chapters/internal/captions"
	"github.com/alnah/go-chapters/internal/chapters"
	"github.com/alnah/go-chapters/internal/extract"
	"github.com/alnah/go-chapters/internal/id"
	"github.com/alnah/go-chapters/internal/lang"
	"github.com/alnah/go-chapters/internal/logger"
	"github.com/alnah/go-chapters/internal/sample"
	"github.com/alnah/go-chapters/internal/transcribe"
)

// Source names where a result's transcript came from.
const (
	SourceAudio    = "audio"
	SourceCaptions = "captions"
	SourceText     = "text"
)

// Result is the terminal artifact of a run.
type Result struct {
	Chapters         []chapters.Chapter `json:"chapters"`
	Language         string             `json:"language"`
	ProcessedSeconds float64            `json:"processedSeconds"`
	Source           string             `json:"source"`
}

// TextInput is a transcript that is already available.
type TextInput struct {
	Transcript string
	Language   string  // ISO 639-1; detected when empty
	Seconds    float64 // declared video duration, 0 if unknown
}

// Pipeline runs chapter generation jobs. It holds no per-run state and may
// be reused, but runs are expected one at a time.
type Pipeline struct {
	prober      durationProber
	extractor   clipExtractor
	transcriber batchTranscriber
	synth       chapterSynthesizer
	captions    captionFetcher

	maxSamples   int
	sampleLength float64
	stageHook    func(Stage)
	log          *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithMaxSamples caps the number of sampled intervals.
func WithMaxSamples(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.maxSamples = n
		}
	}
}

// WithSampleLength sets the length of each sampled interval in seconds.
func WithSampleLength(secs float64) Option {
	return func(p *Pipeline) {
		if secs > 0 {
			p.sampleLength = secs
		}
	}
}

// WithCaptions enables RunCaptions.
func WithCaptions(f captionFetcher) Option {
	return func(p *Pipeline) { p.captions = f }
}

// WithStageHook observes every state transition, including Done and Failed.
func WithStageHook(fn func(Stage)) Option {
	return func(p *Pipeline) { p.stageHook = fn }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.log = l
		}
	}
}

// New creates a Pipeline from its stages.
func New(prober durationProber, extractor clipExtractor, transcriber batchTranscriber, synth chapterSynthesizer, opts ...Option) *Pipeline {
	p := &Pipeline{
		prober:       prober,
		extractor:    extractor,
		transcriber:  transcriber,
		synth:        synth,
		maxSamples:   sample.DefaultMaxSamples,
		sampleLength: sample.DefaultSampleLength,
		log:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// run carries the state of one invocation.
type run struct {
	*reporter
	log   *slog.Logger
	clips []*extract.Clip
}

func (p *Pipeline) newRun(progress ProgressFunc, attrs ...any) *run {
	runID := id.MustGenerate("run")
	return &run{
		reporter: newReporter(progress, p.stageHook),
		log:      p.log.With(append([]any{"run_id", runID}, attrs...)...),
	}
}

// wrap records the failing stage.
func (r *run) wrap(err error) error {
	var se *StageError
	if errors.As(err, &se) {
		return err
	}
	return &StageError{Stage: r.current(), Err: err}
}

// end sweeps every clip acquired during the run and settles the final state.
func (r *run) end(errp *error) {
	if cerr := extract.CleanupAll(r.clips); cerr != nil {
		r.log.Warn("clip cleanup failed", "error", cerr)
	}
	if *errp != nil {
		*errp = r.wrap(*errp)
		r.log.Error("run failed", "stage", r.current(), "error", *errp)
		r.fail()
		return
	}
	r.enter(StageDone, "Done")
}

// Run generates chapters for videoID from sampled audio.
func (p *Pipeline) Run(ctx context.Context, videoID string, progress ProgressFunc) (res Result, err error) {
	r := p.newRun(progress, "video_id", videoID, "source", SourceAudio)
	defer r.end(&err)
	return p.runAudio(ctx, r, videoID)
}

func (p *Pipeline) runAudio(ctx context.Context, r *run, videoID string) (Result, error) {
	r.enter(StagePlanning, "Resolving video duration")
	total, err := p.prober.Duration(ctx, videoID)
	if err != nil {
		return Result{}, err
	}
	intervals := sample.Plan(total, p.maxSamples, p.sampleLength)
	if len(intervals) == 0 {
		return Result{}, fmt.Errorf("%.1fs: %w", total, ErrVideoTooShort)
	}
	r.log.Info("samples planned", "duration", total, "clips", len(intervals))
	r.finish(fmt.Sprintf("Planned %d samples", len(intervals)))

	r.enter(StageExtracting, "Extracting audio")
	clips, err := p.extractor.ExtractBatch(ctx, videoID, intervals, func(done, total int) {
		r.step(done, total, fmt.Sprintf("Extracting audio %d/%d", done, total))
	})
	r.clips = append(r.clips, clips...)
	if err != nil {
		return Result{}, err
	}

	r.enter(StageTranscribing, fmt.Sprintf("Transcribing %d clips", len(clips)))
	samples := make([]transcribe.Sample, len(clips))
	for i, c := range clips {
		samples[i] = transcribe.Sample{Path: c.Path, Start: c.Start}
	}
	tr, err := p.transcriber.TranscribeBatch(ctx, samples)
	if cerr := extract.CleanupAll(clips); cerr != nil {
		r.log.Warn("clip cleanup failed", "error", cerr)
	}
	if err != nil {
		return Result{}, err
	}
	if len(tr.Segments) == 0 {
		return Result{}, fmt.Errorf("%d clips: %w", len(clips), transcribe.ErrNoSpeechDetected)
	}
	language := tr.Language
	if language == "" {
		language = detectSegments(tr.Segments)
	}
	r.log.Info("transcription complete", "segments", len(tr.Segments), "language", language)
	r.finish(fmt.Sprintf("Transcribed %d segments", len(tr.Segments)))

	r.enter(StageSynthesizing, "Generating chapters")
	chs, err := p.synth.Synthesize(ctx, tr.Segments, language)
	if err != nil {
		return Result{}, err
	}
	r.finish(fmt.Sprintf("Generated %d chapters", len(chs)))

	r.enter(StageFinalizing, "Finalizing")
	r.log.Info("run complete", "chapters", len(chs))
	return Result{
		Chapters:         chs,
		Language:         language,
		ProcessedSeconds: total,
		Source:           SourceAudio,
	}, nil
}

// RunText generates chapters from an existing transcript, skipping audio.
func (p *Pipeline) RunText(ctx context.Context, in TextInput, progress ProgressFunc) (res Result, err error) {
	r := p.newRun(progress, "source", SourceText)
	defer r.end(&err)
	return p.runText(ctx, r, in, SourceText)
}

func (p *Pipeline) runText(ctx context.Context, r *run, in TextInput, source string) (Result, error) {
	r.enter(StagePlanning, "Reading transcript")
	language := lang.BaseCode(in.Language)
	if language == "" {
		language, _ = lang.Detect(in.Transcript)
	}
	r.finish("Transcript ready")

	r.enter(StageSynthesizing, "Generating chapters")
	chs, err := p.synth.SynthesizeFromText(ctx, in.Transcript, language)
	if err != nil {
		return Result{}, err
	}
	r.finish(fmt.Sprintf("Generated %d chapters", len(chs)))

	r.enter(StageFinalizing, "Finalizing")
	r.log.Info("run complete", "chapters", len(chs), "language", language)
	return Result{
		Chapters:         chs,
		Language:         language,
		ProcessedSeconds: max(in.Seconds, 0),
		Source:           source,
	}, nil
}

// RunCaptions generates chapters from the video's published captions and
// falls back to Run when the video has none. language selects the caption
// track; empty picks the video's own.
func (p *Pipeline) RunCaptions(ctx context.Context, videoID, language string, progress ProgressFunc) (res Result, err error) {
	if p.captions == nil {
		return p.Run(ctx, videoID, progress)
	}

	r := p.newRun(progress, "video_id", videoID, "source", SourceCaptions)
	defer r.end(&err)

	r.enter(StagePlanning, "Fetching captions")
	tr, err := p.captions.Fetch(ctx, videoID, language)
	if errors.Is(err, captions.ErrUnavailable) {
		r.log.Info("no captions, using audio", "reason", err)
		return p.runAudio(ctx, r, videoID)
	}
	if err != nil {
		return Result{}, err
	}
	return p.runText(ctx, r, TextInput{
		Transcript: tr.Text,
		Language:   tr.Language,
		Seconds:    tr.Seconds,
	}, SourceCaptions)
}

// detectSegments guesses the language from transcribed text.
func detectSegments(segs []transcribe.Segment) string {
	var b strings.Builder
	for _, s := range segs {
		b.WriteString(s.Text)
		b.WriteByte(' ')
	}
	code, _ := lang.Detect(b.String())
	return code
}
