package jobs

import (
	"context"
	"errors"

	"github.com/alnah/go-chapters/internal/apierr"
	"github.com/alnah/go-chapters/internal/chapters"
	"github.com/alnah/go-chapters/internal/extract"
	"github.com/alnah/go-chapters/internal/llm"
	"github.com/alnah/go-chapters/internal/pipeline"
	"github.com/alnah/go-chapters/internal/probe"
	"github.com/alnah/go-chapters/internal/tools"
	"github.com/alnah/go-chapters/internal/transcribe"
)

// UserMessage maps an error to a short message safe to show end users.
// Raw provider payloads and model output never reach this text.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "The job was canceled."
	case errors.Is(err, probe.ErrDurationUnavailable):
		return "We couldn't read this video. Check that it is public and the link is correct."
	case errors.Is(err, pipeline.ErrVideoTooShort):
		return "This video is too short to generate chapters."
	case errors.Is(err, extract.ErrExtractionFailed):
		return "We couldn't download the audio for this video. Please try again later."
	case errors.Is(err, transcribe.ErrNoSpeechDetected):
		return "No speech was detected in this video."
	case errors.Is(err, chapters.ErrMalformedAIResponse):
		return "Chapter generation returned an unexpected answer. Please try again."
	case errors.Is(err, chapters.ErrNoChaptersProduced):
		return "No chapters could be generated for this content."
	case errors.Is(err, chapters.ErrEmptyInput):
		return "The transcript is empty."
	case errors.Is(err, llm.ErrInputTooLong):
		return "The transcript is too long to process."
	case errors.Is(err, llm.ErrBlocked):
		return "The content was rejected by the AI provider."
	case errors.Is(err, apierr.ErrRateLimit), errors.Is(err, apierr.ErrTimeout):
		return "The AI service is busy. Please try again in a few minutes."
	case errors.Is(err, apierr.ErrQuotaExceeded), errors.Is(err, apierr.ErrAuthFailed),
		errors.Is(err, transcribe.ErrAPIKeyMissing), errors.Is(err, llm.ErrEmptyAPIKey):
		return "The service is misconfigured. Please contact support."
	case errors.Is(err, tools.ErrNotFound):
		return "The service is missing a required media tool. Please contact support."
	default:
		return "Something went wrong while generating chapters."
	}
}
