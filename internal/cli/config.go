package cli

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chapters/internal/config"
	"github.com/alnah/go-chapters/internal/llm"
)

// validLogLevels lists the accepted log-level values.
var validLogLevels = []string{"debug", "info", "warn", "error"}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/go-chapters/config.
Settings can also be overridden via environment variables.

Supported settings:
  output-dir    Directory relative -o paths are written to (env: CHAPTERS_OUTPUT_DIR)
  provider      Synthesis provider: gemini, openai, deepseek (env: CHAPTERS_PROVIDER)
  model         Synthesis model override (env: CHAPTERS_MODEL)
  temp-dir      Directory for transient audio clips (env: CHAPTERS_TEMP_DIR)
  log-level     debug, info, warn, error (env: CHAPTERS_LOG_LEVEL)`,
		Example: `  go-chapters config set provider openai
  go-chapters config set output-dir ~/Videos/chapters
  go-chapters config get provider
  go-chapters config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Directories (output-dir, temp-dir) are created if they don't exist.`,
		Example: `  go-chapters config set output-dir ~/Videos/chapters
  go-chapters config set log-level debug`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  go-chapters config get provider`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows both values from the config file and environment variable overrides.`,
		Example: `  go-chapters config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if !config.IsKnownKey(key) {
		return unknownKeyError(key)
	}

	value = strings.TrimSpace(value)
	switch key {
	case config.KeyOutputDir, config.KeyTempDir:
		expanded := config.ExpandPath(value)
		if err := config.EnsureOutputDir(expanded); err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		value = expanded
	case config.KeyProvider:
		p, err := llm.ParseProvider(value)
		if err != nil {
			return err
		}
		value = p.String()
	case config.KeyModel:
		if value == "" {
			return fmt.Errorf("model cannot be empty: %w", ErrInvalidFlag)
		}
	case config.KeyTranscribeRPS:
		rps, err := parseRPS(value)
		if err != nil {
			return err
		}
		value = strconv.FormatFloat(rps, 'f', -1, 64)
	case config.KeyLogLevel:
		value = strings.ToLower(value)
		if !slices.Contains(validLogLevels, value) {
			return fmt.Errorf("unknown log-level %q (use %s): %w",
				value, strings.Join(validLogLevels, ", "), ErrInvalidFlag)
		}
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	_, _ = fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !config.IsKnownKey(key) {
		return unknownKeyError(key)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}
	if value == "" {
		value = env.Getenv(config.EnvFor(key))
	}

	if value != "" {
		_, _ = fmt.Fprintln(env.Stdout, value)
	}
	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	for _, key := range config.Keys() {
		if _, ok := data[key]; ok {
			continue
		}
		if envVal := env.Getenv(config.EnvFor(key)); envVal != "" {
			data[key] = envVal + " (from env)"
		}
	}

	if len(data) == 0 {
		_, _ = fmt.Fprintln(env.Stdout, "No configuration set.")
		_, _ = fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range config.Keys() {
			_, _ = fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	for _, key := range slices.Sorted(maps.Keys(data)) {
		_, _ = fmt.Fprintf(env.Stdout, "%s=%s\n", key, data[key])
	}
	return nil
}

func unknownKeyError(key string) error {
	return fmt.Errorf("%w %q (valid keys: %s)", config.ErrUnknownKey, key, strings.Join(config.Keys(), ", "))
}
