// Package videoid parses YouTube video identifiers.
package videoid

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalid indicates the input is neither a video ID nor a recognized URL.
var ErrInvalid = errors.New("invalid video identifier")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Parse accepts a bare 11-character ID or a watch, youtu.be, shorts, embed
// or live URL and returns the ID.
func Parse(s string) (string, error) {
	s = strings.TrimSpace(s)
	if idPattern.MatchString(s) {
		return s, nil
	}

	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%q: %w", s, ErrInvalid)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	var candidate string
	switch host {
	case "youtu.be":
		candidate = strings.Trim(u.Path, "/")
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); v != "" {
			candidate = v
			break
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		if len(parts) == 2 && (parts[0] == "shorts" || parts[0] == "embed" || parts[0] == "live") {
			candidate = parts[1]
		}
	}

	if !idPattern.MatchString(candidate) {
		return "", fmt.Errorf("%q: %w", s, ErrInvalid)
	}
	return candidate, nil
}

// URL returns the canonical watch URL for id.
func URL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
