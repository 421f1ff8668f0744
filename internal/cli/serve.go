package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chapters/internal/llm"
	"github.com/alnah/go-chapters/internal/logger"
)

// DefaultAddr is the listen address of the serve command.
const DefaultAddr = ":8080"

// serveOptions holds the parsed flags of the serve command.
type serveOptions struct {
	modelFlags
	addr          string
	logFormat     string
	transcribeRPS float64
}

// ServeCmd creates the serve command.
// The env parameter provides injectable dependencies for testing.
func ServeCmd(env *Env) *cobra.Command {
	var opts serveOptions

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the chapter job API over HTTP",
		Long: `Serve the chapter job API over HTTP.

Endpoints:
  POST /v1/jobs        Start a job: {"videoId": "..."} or {"transcript": "..."}
  GET  /v1/jobs/{id}   Poll a job's status, progress and result
  GET  /healthz        Liveness probe

One job runs at a time; a second submission is rejected with 409 until it ends.`,
		Example: `  go-chapters serve
  go-chapters serve --addr 127.0.0.1:9000 --log-format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), env, cmd, opts)
		},
	}

	opts.register(cmd, "info")
	cmd.Flags().StringVar(&opts.addr, "addr", DefaultAddr, "Listen address")
	cmd.Flags().StringVar(&opts.logFormat, "log-format", logger.FormatPretty, "Log format: pretty, json")
	cmd.Flags().Float64Var(&opts.transcribeRPS, "transcribe-rps", 0, "Max transcription requests per second (default: config or unlimited)")

	return cmd
}

// runServe assembles the pipeline once and serves jobs until ctx is canceled.
func runServe(ctx context.Context, env *Env, cmd *cobra.Command, opts serveOptions) error {
	if opts.addr == "" {
		return fmt.Errorf("--addr cannot be empty: %w", ErrInvalidFlag)
	}
	if opts.logFormat != logger.FormatPretty && opts.logFormat != logger.FormatJSON {
		return fmt.Errorf("unknown --log-format %q (use %s or %s): %w",
			opts.logFormat, logger.FormatPretty, logger.FormatJSON, ErrInvalidFlag)
	}

	cfg := loadConfig(env)

	rps, err := resolveTranscribeRPS(cmd, opts.transcribeRPS, cfg)
	if err != nil {
		return err
	}

	settings, err := synthesisSettings(env, opts.modelFlags, cfg)
	if err != nil {
		return err
	}
	settings.TranscribeRPS = rps
	if settings.OpenAIKey, err = requireKey(env, llm.OpenAI.APIKeyEnv()); err != nil {
		return err
	}
	settings.Log = newLogger(env, cmd, opts.logLevel, opts.logFormat, cfg)

	runner, closeFn, err := env.PipelineFactory.NewPipeline(ctx, settings)
	if err != nil {
		return err
	}
	defer func() { _ = closeFn() }()

	settings.Log.Info("starting server", "addr", opts.addr, "provider", settings.Provider.String())
	return env.ServerRunner.Serve(ctx, opts.addr, runner, settings.Log)
}
