package chapters

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var genericPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^chapter\s+\d+$`),
	regexp.MustCompile(`(?i)^chapter\s+(one|two|three|four|five|six|seven|eight|nine|ten)$`),
	regexp.MustCompile(`(?i)^part\s+\d+$`),
	regexp.MustCompile(`(?i)^part\s+(one|two|three|four|five|six|seven|eight|nine|ten)$`),
	regexp.MustCompile(`(?i)^(section|segment|topic)\s+\d+$`),
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^\d+\.\s*$`),
	regexp.MustCompile(`^\d+\s*-\s*$`),
}

// IsGenericTitle reports whether title is a placeholder such as "Chapter 3",
// "Part two" or a bare number. Empty titles are generic.
func IsGenericTitle(title string) bool {
	title = strings.TrimSpace(title)
	if title == "" {
		return true
	}
	for _, pattern := range genericPatterns {
		if pattern.MatchString(title) {
			return true
		}
	}
	return false
}

// cleanTitle trims whitespace and truncates to MaxTitleLength runes.
func cleanTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if utf8.RuneCountInString(title) <= MaxTitleLength {
		return title
	}
	r := []rune(title)
	return strings.TrimSpace(string(r[:MaxTitleLength]))
}
