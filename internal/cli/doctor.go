package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alnah/go-chapters/internal/llm"
	"github.com/alnah/go-chapters/internal/tools"
)

// DoctorCmd creates the doctor command.
// The env parameter provides injectable dependencies for testing.
func DoctorCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check external binaries and API keys",
		Long: `Check that yt-dlp and ffmpeg can be found and run, and that the API
keys for transcription and the configured synthesis provider are set.

Binaries are looked up in YTDLP_PATH / FFMPEG_PATH, then ~/.go-chapters/bin,
then the system PATH.`,
		Example: `  go-chapters doctor`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context(), env)
		},
	}
}

// runDoctor prints one line per check and fails if any check failed.
func runDoctor(ctx context.Context, env *Env) error {
	problems := 0

	for _, t := range []tools.Tool{tools.YTDLP, tools.FFmpeg} {
		path, err := env.ToolChecker.Resolve(t)
		if err != nil {
			problems++
			_, _ = fmt.Fprintf(env.Stdout, "FAIL  %-8s %v\n", t.Name, err)
			continue
		}
		version, err := env.ToolChecker.Version(ctx, t, path)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			problems++
			_, _ = fmt.Fprintf(env.Stdout, "FAIL  %-8s %s: %v\n", t.Name, path, err)
			continue
		}
		_, _ = fmt.Fprintf(env.Stdout, "ok    %-8s %s (%s)\n", t.Name, path, version)
	}

	cfg := loadConfig(env)
	provider, err := resolveProvider("", cfg)
	if err != nil {
		problems++
		_, _ = fmt.Fprintf(env.Stdout, "FAIL  provider %v\n", err)
		provider = llm.Gemini
	}

	keys := []string{llm.OpenAI.APIKeyEnv()}
	if k := provider.APIKeyEnv(); k != keys[0] {
		keys = append(keys, k)
	}
	for _, k := range keys {
		if _, err := requireKey(env, k); err != nil {
			problems++
			_, _ = fmt.Fprintf(env.Stdout, "FAIL  %s not set\n", k)
			continue
		}
		_, _ = fmt.Fprintf(env.Stdout, "ok    %s set\n", k)
	}

	if problems > 0 {
		return fmt.Errorf("%d problem(s) found: %w", problems, ErrSetupIncomplete)
	}
	_, _ = fmt.Fprintln(env.Stdout, "All checks passed.")
	return nil
}
