package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/alnah/go-chapters/internal/apierr"
	"github.com/alnah/go-chapters/internal/captions"
	"github.com/alnah/go-chapters/internal/chapters"
	"github.com/alnah/go-chapters/internal/config"
	"github.com/alnah/go-chapters/internal/extract"
	"github.com/alnah/go-chapters/internal/lang"
	"github.com/alnah/go-chapters/internal/llm"
	"github.com/alnah/go-chapters/internal/pipeline"
	"github.com/alnah/go-chapters/internal/probe"
	"github.com/alnah/go-chapters/internal/tools"
	"github.com/alnah/go-chapters/internal/transcribe"
	"github.com/alnah/go-chapters/internal/videoid"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitGeneral    = 1
	ExitUsage      = 2
	ExitSetup      = 3
	ExitValidation = 4
	ExitMedia      = 5
	ExitSynthesis  = 6
	ExitInterrupt  = 130
)

var (
	setupErrors = []error{
		tools.ErrNotFound, ErrAPIKeyMissing, ErrSetupIncomplete,
		llm.ErrInvalidProvider, llm.ErrEmptyAPIKey,
	}
	validationErrors = []error{
		videoid.ErrInvalid, lang.ErrInvalid, ErrInvalidFlag, ErrFileNotFound,
		ErrEmptyTranscript, ErrOutputExists,
		config.ErrInvalidKey, config.ErrUnknownKey, config.ErrInvalidSyntax,
		config.ErrNotDirectory, config.ErrNotWritable,
	}
	mediaErrors = []error{
		probe.ErrDurationUnavailable, extract.ErrExtractionFailed,
		transcribe.ErrNoSpeechDetected, pipeline.ErrVideoTooShort, captions.ErrUnavailable,
	}
	synthesisErrors = []error{
		chapters.ErrMalformedAIResponse, chapters.ErrNoChaptersProduced, chapters.ErrEmptyInput,
		llm.ErrBlocked, llm.ErrEmptyResponse, llm.ErrInputTooLong,
	}
	apiErrors = []error{
		apierr.ErrRateLimit, apierr.ErrQuotaExceeded, apierr.ErrTimeout,
		apierr.ErrAuthFailed, apierr.ErrBadRequest,
	}
)

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, context.Canceled):
		return ExitInterrupt
	case isCobraUsageError(err):
		return ExitUsage
	case isAny(err, setupErrors):
		return ExitSetup
	case isAny(err, validationErrors):
		return ExitValidation
	case isAny(err, mediaErrors):
		return ExitMedia
	case isAny(err, synthesisErrors):
		return ExitSynthesis
	case isAny(err, apiErrors):
		// API failures are charged to the stage that made the call.
		var se *pipeline.StageError
		if errors.As(err, &se) && se.Stage == pipeline.StageSynthesizing {
			return ExitSynthesis
		}
		return ExitMedia
	}
	return ExitGeneral
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// cobraUsageErrorPatterns contains error message substrings that indicate Cobra usage errors.
// Cobra doesn't expose typed errors, so string matching is the only reliable approach.
var cobraUsageErrorPatterns = []string{
	"required flag",
	"unknown flag",
	"unknown shorthand",
	"unknown command",
	"flag needs an argument",
	"invalid argument",
	"if any flags in the group",
	"accepts ",
	"requires at least",
	"requires at most",
}

// isCobraUsageError checks if an error is a Cobra usage/parsing error.
func isCobraUsageError(err error) bool {
	msg := err.Error()
	for _, pattern := range cobraUsageErrorPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
