// Package sample plans which windows of a video are sent for transcription.
package sample

import "math"

// Defaults for Plan.
const (
	DefaultMaxSamples   = 15
	DefaultSampleLength = 40.0 // seconds

	// shortVideo is the duration below which fewer samples are taken,
	// one per started minute.
	shortVideo = 600.0
	// minUseful is the shortest interval worth extracting; anything at or
	// below it is dropped.
	minUseful = 5.0
)

// Interval is a window of the source video, in seconds.
type Interval struct {
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns Start + Duration.
func (iv Interval) End() float64 {
	return iv.Start + iv.Duration
}

// Plan partitions [0, total) into equal slots and samples the head of each.
// maxSamples <= 0 and sampleLength <= 0 fall back to the defaults.
// Videos shorter than ten minutes get min(maxSamples, ceil(total/60)) slots.
// The result is sorted by Start and deterministic for the same inputs.
func Plan(total float64, maxSamples int, sampleLength float64) []Interval {
	if total <= 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return nil
	}
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	if sampleLength <= 0 {
		sampleLength = DefaultSampleLength
	}

	n := maxSamples
	if total < shortVideo {
		n = min(maxSamples, int(math.Ceil(total/60)))
	}

	slot := total / float64(n)
	intervals := make([]Interval, 0, n)
	for i := range n {
		start := float64(i) * slot
		d := min(sampleLength, total-start)
		if d <= minUseful {
			continue
		}
		intervals = append(intervals, Interval{Start: start, Duration: d})
	}
	return intervals
}
