package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chapters/internal/lang"
	"github.com/alnah/go-chapters/internal/llm"
	"github.com/alnah/go-chapters/internal/pipeline"
	"github.com/alnah/go-chapters/internal/videoid"
)

// videoOptions holds the parsed flags of the video command.
type videoOptions struct {
	modelFlags
	output       string
	asJSON       bool
	captions     bool
	language     string
	maxSamples    int
	sampleLength  float64
	transcribeRPS float64
}

// VideoCmd creates the video command.
// The env parameter provides injectable dependencies for testing.
func VideoCmd(env *Env) *cobra.Command {
	var opts videoOptions

	cmd := &cobra.Command{
		Use:   "video <id|url>",
		Short: "Generate chapters for a YouTube video",
		Long: `Generate chapters for a YouTube video.

Short audio windows are sampled across the video, transcribed with OpenAI
Whisper, and turned into chapters by the synthesis provider (Gemini by default).

With --captions, the video's own captions are used when available and the
audio path is the fallback.

Requires yt-dlp and ffmpeg, OPENAI_API_KEY, and the provider's API key.`,
		Example: `  go-chapters video dQw4w9WgXcQ
  go-chapters video https://youtu.be/dQw4w9WgXcQ --json -o chapters.json
  go-chapters video dQw4w9WgXcQ --captions --language fr
  go-chapters video dQw4w9WgXcQ --provider openai --max-samples 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVideo(cmd.Context(), env, cmd, args[0], opts)
		},
	}

	opts.register(cmd, "warn")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().BoolVar(&opts.asJSON, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&opts.captions, "captions", false, "Prefer the video's captions over audio sampling")
	cmd.Flags().StringVarP(&opts.language, "language", "l", "", "Spoken language (ISO 639-1 code, e.g., en, fr, pt-BR)")
	cmd.Flags().IntVar(&opts.maxSamples, "max-samples", 0, "Maximum number of sampled windows (default 15)")
	cmd.Flags().Float64Var(&opts.sampleLength, "sample-length", 0, "Length of each sampled window in seconds (default 40)")
	cmd.Flags().Float64Var(&opts.transcribeRPS, "transcribe-rps", 0, "Max transcription requests per second (default: config or unlimited)")

	return cmd
}

// runVideo executes the video pipeline.
// Validation order: video ID -> language -> sampling flags -> transcribe rate -> output -> provider -> API keys
func runVideo(ctx context.Context, env *Env, cmd *cobra.Command, input string, opts videoOptions) error {
	id, err := videoid.Parse(input)
	if err != nil {
		return err
	}
	if err := lang.Validate(opts.language); err != nil {
		return err
	}
	if opts.maxSamples < 0 {
		return fmt.Errorf("--max-samples must be positive, got %d: %w", opts.maxSamples, ErrInvalidFlag)
	}
	if opts.sampleLength < 0 {
		return fmt.Errorf("--sample-length must be positive, got %g: %w", opts.sampleLength, ErrInvalidFlag)
	}

	cfg := loadConfig(env)

	rps, err := resolveTranscribeRPS(cmd, opts.transcribeRPS, cfg)
	if err != nil {
		return err
	}

	output, err := resolveOutput(opts.output, cfg.OutputDir)
	if err != nil {
		return err
	}

	settings, err := synthesisSettings(env, opts.modelFlags, cfg)
	if err != nil {
		return err
	}
	if settings.OpenAIKey, err = requireKey(env, llm.OpenAI.APIKeyEnv()); err != nil {
		return err
	}
	settings.Language = lang.Normalize(opts.language)
	settings.MaxSamples = opts.maxSamples
	settings.SampleLength = opts.sampleLength
	settings.TranscribeRPS = rps
	settings.Log = newLogger(env, cmd, opts.logLevel, "", cfg)

	runner, closeFn, err := env.PipelineFactory.NewPipeline(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	_, _ = fmt.Fprintf(env.Stderr, "Generating chapters for %s (provider: %s)\n", videoid.URL(id), settings.Provider)

	progress := progressPrinter(env.Stderr)
	var res pipeline.Result
	if opts.captions {
		res, err = runner.RunCaptions(ctx, id, settings.Language, progress)
	} else {
		res, err = runner.Run(ctx, id, progress)
	}
	if err != nil {
		return err
	}

	return emitResult(env, res, output, opts.asJSON)
}
