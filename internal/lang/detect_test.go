package lang_test

import (
	"testing"

	"github.com/alnah/go-chapters/internal/lang"
)

// ---------------------------------------------------------------------------
// TestFromName - Maps model language names to ISO 639-1 codes
// ---------------------------------------------------------------------------

func TestFromName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "whisper lowercase name", input: "english", want: "en"},
		{name: "capitalized name", input: "French", want: "fr"},
		{name: "upper name", input: "GERMAN", want: "de"},
		{name: "already a code", input: "es", want: "es"},
		{name: "locale code", input: "pt_BR", want: "pt-br"},
		{name: "surrounding space", input: " japanese ", want: "ja"},
		{name: "name without a detector model", input: "norwegian", want: "no"},
		{name: "empty", input: "", want: ""},
		{name: "unknown", input: "klingon", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := lang.FromName(tt.input); got != tt.want {
				t.Errorf("FromName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDetect - Guesses the language of transcript text
// ---------------------------------------------------------------------------

func TestDetect(t *testing.T) {
	t.Parallel()

	t.Run("english sentence", func(t *testing.T) {
		t.Parallel()

		got, ok := lang.Detect("Welcome back to the channel, today we are going to talk about sourdough bread and how to keep a starter alive.")
		if !ok || got != "en" {
			t.Errorf("Detect() = %q, %v, want \"en\", true", got, ok)
		}
	})

	t.Run("french sentence", func(t *testing.T) {
		t.Parallel()

		got, ok := lang.Detect("Bonjour à tous et bienvenue sur la chaîne, aujourd'hui nous allons parler de la cuisine française traditionnelle.")
		if !ok || got != "fr" {
			t.Errorf("Detect() = %q, %v, want \"fr\", true", got, ok)
		}
	})

	t.Run("too short", func(t *testing.T) {
		t.Parallel()

		if got, ok := lang.Detect("hi"); ok {
			t.Errorf("Detect(\"hi\") = %q, true, want false", got)
		}
	})
}
