package cli

import (
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chapters/internal/config"
	"github.com/alnah/go-chapters/internal/llm"
	"github.com/alnah/go-chapters/internal/logger"
)

// modelFlags are the synthesis and logging flags shared by video, text and serve.
type modelFlags struct {
	provider string
	model    string
	logLevel string
}

func (f *modelFlags) register(cmd *cobra.Command, defaultLevel string) {
	cmd.Flags().StringVar(&f.provider, "provider", "", "Synthesis provider: gemini, openai, deepseek (default: config or gemini)")
	cmd.Flags().StringVar(&f.model, "model", "", "Synthesis model (default: provider's default)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", defaultLevel, "Log level: debug, info, warn, error")
}

// loadConfig loads the config, warning instead of failing so a broken
// config file never blocks a run.
func loadConfig(env *Env) config.Config {
	cfg, err := env.ConfigLoader.Load()
	if err != nil {
		_, _ = fmt.Fprintf(env.Stderr, "Warning: failed to load config: %v\n", err)
	}
	return cfg
}

// resolveProvider picks the flag, then the config, then Gemini.
func resolveProvider(flag string, cfg config.Config) (llm.Provider, error) {
	name := flag
	if name == "" {
		name = cfg.Provider
	}
	if name == "" {
		return llm.Gemini, nil
	}
	return llm.ParseProvider(name)
}

// resolveModel picks the flag, then the config. Empty means the provider default.
func resolveModel(flag string, cfg config.Config) string {
	if flag != "" {
		return flag
	}
	return cfg.Model
}

// requireKey reads an API key from the environment.
func requireKey(env *Env, name string) (string, error) {
	v := strings.TrimSpace(env.Getenv(name))
	if v == "" {
		return "", fmt.Errorf("%w: %s (set it with: export %s=...)", ErrAPIKeyMissing, name, name)
	}
	return v, nil
}

// newLogger builds the run logger. An explicit --log-level wins over the config.
func newLogger(env *Env, cmd *cobra.Command, level, format string, cfg config.Config) *slog.Logger {
	if cmd != nil && !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
		level = cfg.LogLevel
	}
	return logger.New(logger.Config{
		Writer: env.Stderr,
		Format: format,
		Level:  logger.ParseLevel(level),
	})
}

// synthesisSettings resolves the provider, model and key shared by every command.
func synthesisSettings(env *Env, f modelFlags, cfg config.Config) (PipelineSettings, error) {
	provider, err := resolveProvider(f.provider, cfg)
	if err != nil {
		return PipelineSettings{}, err
	}
	key, err := requireKey(env, provider.APIKeyEnv())
	if err != nil {
		return PipelineSettings{}, err
	}
	return PipelineSettings{
		Provider:     provider,
		SynthesisKey: key,
		Model:        resolveModel(f.model, cfg),
		TempDir:      config.ExpandPath(cfg.TempDir),
	}, nil
}

// parseRPS parses a requests-per-second cap. Zero means unlimited.
func parseRPS(v string) (float64, error) {
	rps, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, fmt.Errorf("transcribe-rps %q is not a number: %w", v, ErrInvalidFlag)
	}
	return checkRPS(rps)
}

func checkRPS(rps float64) (float64, error) {
	if rps < 0 || math.IsNaN(rps) || math.IsInf(rps, 0) {
		return 0, fmt.Errorf("transcribe-rps must be zero or positive, got %g: %w", rps, ErrInvalidFlag)
	}
	return rps, nil
}

// resolveTranscribeRPS picks an explicit --transcribe-rps, then the config.
func resolveTranscribeRPS(cmd *cobra.Command, flag float64, cfg config.Config) (float64, error) {
	if cmd != nil && cmd.Flags().Changed("transcribe-rps") {
		return checkRPS(flag)
	}
	if cfg.TranscribeRPS == "" {
		return 0, nil
	}
	return parseRPS(cfg.TranscribeRPS)
}
