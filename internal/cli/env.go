package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/alnah/go-chapters/internal/captions"
	"github.com/alnah/go-chapters/internal/chapters"
	"github.com/alnah/go-chapters/internal/config"
	"github.com/alnah/go-chapters/internal/extract"
	"github.com/alnah/go-chapters/internal/jobs"
	"github.com/alnah/go-chapters/internal/llm"
	"github.com/alnah/go-chapters/internal/pipeline"
	"github.com/alnah/go-chapters/internal/probe"
	"github.com/alnah/go-chapters/internal/server"
	"github.com/alnah/go-chapters/internal/tools"
	"github.com/alnah/go-chapters/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
//
// Env must not be nil when passed to command functions. Use DefaultEnv()
// or NewEnv() to create a valid instance.
type Env struct {
	// I/O and environment
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
	Now    func() time.Time

	// Factories for domain objects
	ConfigLoader    ConfigLoader
	ToolChecker     ToolChecker
	PipelineFactory PipelineFactory
	ServerRunner    ServerRunner
}

// ConfigLoader loads and provides access to configuration.
type ConfigLoader interface {
	Load() (config.Config, error)
}

// ToolChecker locates external binaries and reports their versions.
type ToolChecker interface {
	Resolve(t tools.Tool) (string, error)
	Version(ctx context.Context, t tools.Tool, path string) (string, error)
}

// Runner produces chapters from a video or a transcript.
type Runner interface {
	Run(ctx context.Context, videoID string, progress pipeline.ProgressFunc) (pipeline.Result, error)
	RunText(ctx context.Context, in pipeline.TextInput, progress pipeline.ProgressFunc) (pipeline.Result, error)
	RunCaptions(ctx context.Context, videoID, language string, progress pipeline.ProgressFunc) (pipeline.Result, error)
}

// PipelineSettings carries everything needed to assemble a Runner.
type PipelineSettings struct {
	OpenAIKey    string
	Provider     llm.Provider
	SynthesisKey string
	Model        string
	Language     string
	TempDir      string
	MaxSamples   int
	SampleLength float64
	// TranscribeRPS caps Whisper requests per second; zero is unlimited.
	TranscribeRPS float64
	Log           *slog.Logger
}

// PipelineFactory assembles a Runner. The returned close function releases
// the model client and is never nil on success.
type PipelineFactory interface {
	NewPipeline(ctx context.Context, s PipelineSettings) (Runner, func() error, error)
}

// ServerRunner serves the HTTP API until ctx is canceled.
type ServerRunner interface {
	Serve(ctx context.Context, addr string, r Runner, log *slog.Logger) error
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdin sets the stdin reader.
func WithStdin(r io.Reader) EnvOption {
	return func(e *Env) {
		e.Stdin = r
	}
}

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stdout = w
	}
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) {
		e.Stderr = w
	}
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) {
		e.Getenv = fn
	}
}

// WithNow sets the time provider.
func WithNow(fn func() time.Time) EnvOption {
	return func(e *Env) {
		e.Now = fn
	}
}

// WithConfigLoader sets the config loader.
func WithConfigLoader(l ConfigLoader) EnvOption {
	return func(e *Env) {
		e.ConfigLoader = l
	}
}

// WithToolChecker sets the binary checker.
func WithToolChecker(c ToolChecker) EnvOption {
	return func(e *Env) {
		e.ToolChecker = c
	}
}

// WithPipelineFactory sets the pipeline factory.
func WithPipelineFactory(f PipelineFactory) EnvOption {
	return func(e *Env) {
		e.PipelineFactory = f
	}
}

// WithServerRunner sets the HTTP server runner.
func WithServerRunner(r ServerRunner) EnvOption {
	return func(e *Env) {
		e.ServerRunner = r
	}
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdin:           os.Stdin,
		Stdout:          os.Stdout,
		Stderr:          os.Stderr,
		Getenv:          os.Getenv,
		Now:             time.Now,
		ConfigLoader:    &defaultConfigLoader{},
		ToolChecker:     &defaultToolChecker{resolver: tools.NewResolver(), exec: tools.NewExecutor()},
		PipelineFactory: &defaultPipelineFactory{},
		ServerRunner:    &defaultServerRunner{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultConfigLoader implements ConfigLoader using the config package.
type defaultConfigLoader struct{}

func (defaultConfigLoader) Load() (config.Config, error) {
	return config.Load()
}

// defaultToolChecker implements ToolChecker using the tools package.
type defaultToolChecker struct {
	resolver *tools.Resolver
	exec     *tools.Executor
}

func (c *defaultToolChecker) Resolve(t tools.Tool) (string, error) {
	return c.resolver.Resolve(t)
}

func (c *defaultToolChecker) Version(ctx context.Context, t tools.Tool, path string) (string, error) {
	return c.exec.Version(ctx, t, path)
}

// defaultPipelineFactory wires the production stages: yt-dlp/ffmpeg extraction,
// Whisper transcription and the configured synthesis provider.
type defaultPipelineFactory struct{}

func (defaultPipelineFactory) NewPipeline(ctx context.Context, s PipelineSettings) (Runner, func() error, error) {
	genOpts := []llm.Option{llm.WithLogger(s.Log)}
	if s.Model != "" {
		genOpts = append(genOpts, llm.WithModel(s.Model))
	}
	gen, closeGen, err := llm.New(ctx, s.Provider, s.SynthesisKey, genOpts...)
	if err != nil {
		return nil, nil, err
	}

	trOpts := []transcribe.Option{
		transcribe.WithLanguage(s.Language),
		transcribe.WithLogger(s.Log),
	}
	if l := transcribeLimiter(s.TranscribeRPS); l != nil {
		trOpts = append(trOpts, transcribe.WithRateLimit(l))
	}
	transcriber := transcribe.NewOpenAITranscriber(openai.NewClient(s.OpenAIKey), trOpts...)

	p := pipeline.New(
		probe.New(probe.WithLogger(s.Log)),
		extract.New(extract.WithTempDir(s.TempDir), extract.WithLogger(s.Log)),
		transcriber,
		chapters.NewSynthesizer(gen, chapters.WithLogger(s.Log)),
		pipeline.WithMaxSamples(s.MaxSamples),
		pipeline.WithSampleLength(s.SampleLength),
		pipeline.WithCaptions(captions.NewFetcher(captions.WithLogger(s.Log))),
		pipeline.WithLogger(s.Log),
	)
	return p, closeGen, nil
}

// transcribeLimiter paces transcription at rps requests per second with no
// burst. It returns nil when rps is not positive.
func transcribeLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// defaultServerRunner serves the job API backed by an in-process job manager.
type defaultServerRunner struct{}

func (defaultServerRunner) Serve(ctx context.Context, addr string, r Runner, log *slog.Logger) error {
	mgr := jobs.NewManager(ctx, r, jobs.WithLogger(log))
	err := server.New(mgr, log).ListenAndServe(ctx, addr)
	mgr.Wait()
	return err
}

// Compile-time interface verification.
var (
	_ ConfigLoader    = (*defaultConfigLoader)(nil)
	_ ToolChecker     = (*defaultToolChecker)(nil)
	_ PipelineFactory = (*defaultPipelineFactory)(nil)
	_ ServerRunner    = (*defaultServerRunner)(nil)
	_ Runner          = (*pipeline.Pipeline)(nil)
)
