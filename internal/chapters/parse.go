package chapters

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractJSONArray returns the text between the first '[' and the last ']'.
// Models wrap JSON in prose or code fences despite instructions, so only that
// substring is parsed.
func extractJSONArray(raw string) (string, error) {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON array found: %w", ErrMalformedAIResponse)
	}
	return raw[start : end+1], nil
}

// decodeElements parses the array strictly at the top level but leaves each
// element raw so that one bad element can be dropped without failing the rest.
func decodeElements(raw string) ([]json.RawMessage, error) {
	arr, err := extractJSONArray(raw)
	if err != nil {
		return nil, err
	}
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(arr), &elems); err != nil {
		return nil, fmt.Errorf("parse JSON array: %v: %w", err, ErrMalformedAIResponse)
	}
	return elems, nil
}

// ParseCandidates extracts segment-indexed chapter candidates from a model
// response. Elements without an integer segmentIndex or a string title are
// dropped. An array that parses but yields nothing returns ErrNoChaptersProduced.
func ParseCandidates(raw string) ([]Candidate, error) {
	elems, err := decodeElements(raw)
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(elems))
	for _, e := range elems {
		var c struct {
			SegmentIndex *int   `json:"segmentIndex"`
			Title        string `json:"title"`
		}
		if err := json.Unmarshal(e, &c); err != nil || c.SegmentIndex == nil {
			continue
		}
		out = append(out, Candidate{SegmentIndex: *c.SegmentIndex, Title: c.Title})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%d elements, none usable: %w", len(elems), ErrNoChaptersProduced)
	}
	return out, nil
}

// timedTitle is an element of the text path's response.
type timedTitle struct {
	Time  string `json:"time"`
	Title string `json:"title"`
}

// parseTimedTitles extracts {time, title} elements from a model response.
// Elements that do not decode are dropped.
func parseTimedTitles(raw string) ([]timedTitle, error) {
	elems, err := decodeElements(raw)
	if err != nil {
		return nil, err
	}

	out := make([]timedTitle, 0, len(elems))
	for _, e := range elems {
		var t timedTitle
		if err := json.Unmarshal(e, &t); err != nil {
			continue
		}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%d elements, none usable: %w", len(elems), ErrNoChaptersProduced)
	}
	return out, nil
}
