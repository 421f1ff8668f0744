package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chapters/internal/lang"
	"github.com/alnah/go-chapters/internal/pipeline"
)

// maxTranscriptBytes bounds how much transcript text is read from a file or stdin.
const maxTranscriptBytes = 5 << 20

// textOptions holds the parsed flags of the text command.
type textOptions struct {
	modelFlags
	output   string
	asJSON   bool
	language string
	seconds  float64
}

// TextCmd creates the text command.
// The env parameter provides injectable dependencies for testing.
func TextCmd(env *Env) *cobra.Command {
	var opts textOptions

	cmd := &cobra.Command{
		Use:   "text <file|->",
		Short: "Generate chapters from a transcript",
		Long: `Generate chapters from an existing transcript.

The whole transcript is sent to the synthesis provider, which returns chapter
timestamps directly. Use "-" to read the transcript from stdin.

When --language is omitted, the language is detected from the text.`,
		Example: `  go-chapters text transcript.txt
  go-chapters text transcript.txt --language fr --seconds 3600
  cat transcript.txt | go-chapters text - --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runText(cmd.Context(), env, cmd, args[0], opts)
		},
	}

	opts.register(cmd, "warn")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full result as JSON")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Transcript language (ISO 639-1 code; default: detected)")
	cmd.Flags().Float64Var(&opts.seconds, "seconds", 0, "Video length in seconds, reported as processed duration")

	return cmd
}

// runText executes the transcript fallback path.
// Validation order: language -> seconds -> input -> output -> provider -> API key
func runText(ctx context.Context, env *Env, cmd *cobra.Command, input string, opts textOptions) error {
	if err := lang.Validate(opts.language); err != nil {
		return err
	}
	if opts.seconds < 0 {
		return fmt.Errorf("--seconds must not be negative, got %g: %w", opts.seconds, ErrInvalidFlag)
	}

	transcript, err := readTranscript(env, input)
	if err != nil {
		return err
	}

	cfg := loadConfig(env)

	output, err := resolveOutput(opts.output, cfg.OutputDir)
	if err != nil {
		return err
	}

	settings, err := synthesisSettings(env, opts.modelFlags, cfg)
	if err != nil {
		return err
	}
	settings.Log = newLogger(env, cmd, opts.logLevel, "", cfg)

	runner, closeFn, err := env.PipelineFactory.NewPipeline(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	res, err := runner.RunText(ctx, pipeline.TextInput{
		Transcript: transcript,
		Language:   lang.Normalize(opts.language),
		Seconds:    opts.seconds,
	}, progressPrinter(env.Stderr))
	if err != nil {
		return err
	}

	return emitResult(env, res, output, opts.asJSON)
}

// readTranscript reads the transcript from a file, or from stdin for "-".
func readTranscript(env *Env, input string) (string, error) {
	var r io.Reader
	if input == "-" {
		r = env.Stdin
	} else {
		f, err := os.Open(input) // #nosec G304 -- user-specified input file
		if err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: %s", ErrFileNotFound, input)
			}
			return "", fmt.Errorf("cannot open transcript: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, maxTranscriptBytes))
	if err != nil {
		return "", fmt.Errorf("cannot read transcript: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}
