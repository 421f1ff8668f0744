package chapters

// Post-processing limits.
const (
	// MaxChapters caps the final list.
	MaxChapters = 15

	// MaxTitleLength is the longest title kept, in runes.
	MaxTitleLength = 100

	// IntroductionTitle names the chapter injected at 0:00 when the earliest
	// real chapter starts after introThreshold.
	IntroductionTitle = "Introduction"

	introThreshold = 10
)

// Candidate is a chapter proposed by the model: a title anchored to a
// segment of the transcript it was given.
type Candidate struct {
	SegmentIndex int    `json:"segmentIndex"`
	Title        string `json:"title"`
}

// Chapter is a final (time, title) pair.
type Chapter struct {
	Time    string `json:"time"`
	Title   string `json:"title"`
	Seconds int    `json:"-"`
}
