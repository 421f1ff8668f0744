package chapters

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/alnah/go-chapters/internal/format"
	"github.com/alnah/go-chapters/internal/transcribe"
)

// FromCandidates anchors candidates to the time of the segment they reference
// and returns the final chapter list: ascending, first chapter at 0:00, unique
// titles and at most MaxChapters entries. Out-of-range indexes and generic
// titles are dropped.
func FromCandidates(segments []transcribe.Segment, cands []Candidate) ([]Chapter, error) {
	chs := make([]Chapter, 0, len(cands)+1)
	for _, c := range cands {
		if c.SegmentIndex < 0 || c.SegmentIndex >= len(segments) {
			continue
		}
		title := cleanTitle(c.Title)
		if IsGenericTitle(title) {
			continue
		}
		chs = append(chs, Chapter{Title: title, Seconds: int(segments[c.SegmentIndex].Time)})
	}
	if len(chs) == 0 {
		return nil, fmt.Errorf("all %d candidates dropped: %w", len(cands), ErrNoChaptersProduced)
	}

	sortBySeconds(chs)
	if chs[0].Seconds > introThreshold {
		chs = slices.Insert(chs, 0, Chapter{Title: IntroductionTitle})
	} else {
		chs[0].Seconds = 0
	}

	chs = finalize(chs)
	for i := range chs {
		chs[i].Time = format.Timestamp(chs[i].Seconds)
	}
	return chs, nil
}

// fromTimedTitles builds chapters from model-formatted times. The time strings
// are kept as the model wrote them; unparseable ones are dropped and the first
// chapter is forced to 0:00, the same style FromCandidates uses.
func fromTimedTitles(items []timedTitle) ([]Chapter, error) {
	chs := make([]Chapter, 0, len(items))
	for _, it := range items {
		secs, err := format.ParseTimestamp(it.Time)
		if err != nil {
			continue
		}
		title := cleanTitle(it.Title)
		if IsGenericTitle(title) {
			continue
		}
		chs = append(chs, Chapter{Time: strings.TrimSpace(it.Time), Title: title, Seconds: secs})
	}
	if len(chs) == 0 {
		return nil, fmt.Errorf("all %d chapters dropped: %w", len(items), ErrNoChaptersProduced)
	}

	sortBySeconds(chs)
	chs[0].Seconds = 0
	chs[0].Time = format.Timestamp(0)
	return finalize(chs), nil
}

func sortBySeconds(chs []Chapter) {
	slices.SortStableFunc(chs, func(a, b Chapter) int {
		return cmp.Compare(a.Seconds, b.Seconds)
	})
}

// finalize drops repeated titles, then repeated times, and caps the list.
// Input must be sorted by Seconds.
func finalize(chs []Chapter) []Chapter {
	seen := make(map[string]bool, len(chs))
	out := chs[:0]
	for _, ch := range chs {
		if seen[ch.Title] {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Seconds == ch.Seconds {
			continue
		}
		seen[ch.Title] = true
		out = append(out, ch)
	}
	if len(out) > MaxChapters {
		out = out[:MaxChapters]
	}
	return out
}
