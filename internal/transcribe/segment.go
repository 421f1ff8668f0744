package transcribe

import (
	"cmp"
	"slices"
	"strings"
)

// Segment is a piece of transcribed text anchored at an absolute time in the
// source video.
type Segment struct {
	Time float64 `json:"time"`
	Text string  `json:"text"`
}

// Sample is one clip to transcribe and where it sits in the source video.
type Sample struct {
	Path  string
	Start float64
}

// Result is the merged output of a batch.
type Result struct {
	Segments []Segment
	Language string // ISO 639-1, empty if unknown
}

// Merge flattens per-clip segments in clip order, sorts them by time and
// drops a segment whose time equals the one before it. Sorting is stable so
// the earlier segment in clip order wins. Segments with blank text are
// dropped so they never become chapter anchors.
func Merge(perClip [][]Segment) []Segment {
	n := 0
	for _, segs := range perClip {
		n += len(segs)
	}
	flat := make([]Segment, 0, n)
	for _, segs := range perClip {
		for _, s := range segs {
			s.Text = strings.TrimSpace(s.Text)
			if s.Text == "" {
				continue
			}
			flat = append(flat, s)
		}
	}

	slices.SortStableFunc(flat, func(a, b Segment) int {
		return cmp.Compare(a.Time, b.Time)
	})

	return slices.CompactFunc(flat, func(a, b Segment) bool {
		return a.Time == b.Time
	})
}
