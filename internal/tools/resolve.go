// Package tools locates the external media binaries (yt-dlp, ffmpeg) and runs them.
package tools

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

// Tool describes an external binary and how it is named on each platform.
type Tool struct {
	// Name is the generic binary name used in messages.
	Name string
	// EnvVar, when set in the environment, overrides every other lookup.
	EnvVar string
	// names returns candidate file names for a GOOS, most specific first.
	names func(goos string) []string
	// install is the hint shown when nothing is found.
	install string
}

// YTDLP is the media downloader. Release builds ship per-platform binaries
// (yt-dlp_macos, yt-dlp_linux, yt-dlp.exe) next to the generic script.
var YTDLP = Tool{
	Name:   "yt-dlp",
	EnvVar: "YTDLP_PATH",
	names: func(goos string) []string {
		switch goos {
		case "windows":
			return []string{"yt-dlp.exe", "yt-dlp"}
		case "darwin":
			return []string{"yt-dlp_macos", "yt-dlp"}
		case "linux":
			return []string{"yt-dlp_linux", "yt-dlp"}
		default:
			return []string{"yt-dlp"}
		}
	},
	install: "https://github.com/yt-dlp/yt-dlp#installation",
}

// FFmpeg is the audio transcoder.
var FFmpeg = Tool{
	Name:   "ffmpeg",
	EnvVar: "FFMPEG_PATH",
	names: func(goos string) []string {
		if goos == "windows" {
			return []string{"ffmpeg.exe"}
		}
		return []string{"ffmpeg"}
	},
	install: "https://ffmpeg.org/download.html",
}

// Names returns the candidate binary names of t on goos.
func (t Tool) Names(goos string) []string {
	if t.names == nil {
		return []string{t.Name}
	}
	return t.names(goos)
}

// ---------------------------------------------------------------------------
// Resolver - testable binary resolution with dependency injection
// ---------------------------------------------------------------------------

// Resolver finds external binaries. Resolution happens on every call so a
// binary installed while the server runs is picked up without a restart.
type Resolver struct {
	stat statter
	env  envProvider
	goos string
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStatter sets the file existence checker.
func WithStatter(s statter) ResolverOption {
	return func(r *Resolver) { r.stat = s }
}

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) ResolverOption {
	return func(r *Resolver) { r.env = e }
}

// WithPlatform sets the target OS (for testing cross-platform behavior).
func WithPlatform(goos string) ResolverOption {
	return func(r *Resolver) { r.goos = goos }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		stat: osStatter{},
		env:  osEnvProvider{},
		goos: runtime.GOOS,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds t using the following precedence:
//  1. t.EnvVar environment variable (error if set but invalid)
//  2. ~/.go-chapters/bin/<name> for each platform name
//  3. System PATH for each platform name
func (r *Resolver) Resolve(t Tool) (string, error) {
	if t.EnvVar != "" {
		if p := r.env.Getenv(t.EnvVar); p != "" {
			if _, err := r.stat.Stat(p); err != nil {
				return "", fmt.Errorf("%s is set to %q but binary not found: %w", t.EnvVar, p, ErrNotFound)
			}
			return p, nil
		}
	}

	names := t.Names(r.goos)

	if dir, err := r.installDir(); err == nil {
		for _, n := range names {
			p := filepath.Join(dir, n)
			if _, err := r.stat.Stat(p); err == nil {
				return p, nil
			}
		}
	}

	for _, n := range names {
		if p, err := r.env.LookPath(n); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("%s (looked for %s on %s)\n\n%s: %w",
		t.Name, strings.Join(names, ", "), r.goos, r.installHint(t), ErrNotFound)
}

// installDir returns the per-user directory searched before PATH.
func (r *Resolver) installDir() (string, error) {
	home, err := r.env.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".go-chapters", "bin"), nil
}

func (r *Resolver) installHint(t Tool) string {
	hint := fmt.Sprintf("Install %s (%s) or set %s to its path", t.Name, t.install, t.EnvVar)
	switch r.goos {
	case "darwin":
		hint += fmt.Sprintf(", e.g. brew install %s", t.Name)
	case "windows":
		hint += fmt.Sprintf(", e.g. winget install %s", t.Name)
	}
	return hint
}
