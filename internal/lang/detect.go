package lang

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
)

// minDetectRunes is the shortest text worth running detection on.
const minDetectRunes = 20

var (
	detector     lingua.LanguageDetector
	detectorOnce sync.Once
)

func getDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			WithLowAccuracyMode().
			Build()
	})
	return detector
}

// Detect guesses the ISO 639-1 code of text.
// Returns false when the text is too short or no language is reliable.
func Detect(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minDetectRunes {
		return "", false
	}
	language, ok := getDetector().DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(language.IsoCode639_1().String()), true
}

// FromName maps a language as reported by a speech-to-text model to an
// ISO 639-1 code. Whisper reports full English names ("english", "french");
// codes are passed through normalized. Unknown names return "".
func FromName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	if Validate(name) == nil {
		return Normalize(name)
	}
	for code, n := range names {
		if strings.EqualFold(n, name) {
			return code
		}
	}
	return ""
}
