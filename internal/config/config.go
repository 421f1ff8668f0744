package config

import (
	"bufio"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Config keys.
const (
	KeyOutputDir = "output-dir"
	KeyProvider  = "provider"
	KeyModel     = "model"
	KeyTempDir   = "temp-dir"
	KeyLogLevel  = "log-level"

	KeyTranscribeRPS = "transcribe-rps"
)

// Environment variable fallbacks.
const (
	EnvOutputDir = "CHAPTERS_OUTPUT_DIR"
	EnvProvider  = "CHAPTERS_PROVIDER"
	EnvModel     = "CHAPTERS_MODEL"
	EnvTempDir   = "CHAPTERS_TEMP_DIR"
	EnvLogLevel  = "CHAPTERS_LOG_LEVEL"

	EnvTranscribeRPS = "CHAPTERS_TRANSCRIBE_RPS"
)

const appName = "go-chapters"

// Sentinel errors.
var (
	ErrInvalidKey    = errors.New("invalid config key")
	ErrUnknownKey    = errors.New("unknown config key")
	ErrInvalidSyntax = errors.New("invalid config syntax")
	ErrNotDirectory  = errors.New("path is not a directory")
	ErrNotWritable   = errors.New("directory is not writable")
)

// envFallbacks maps each known key to its environment variable.
var envFallbacks = map[string]string{
	KeyOutputDir: EnvOutputDir,
	KeyProvider:  EnvProvider,
	KeyModel:     EnvModel,
	KeyTempDir:   EnvTempDir,
	KeyLogLevel:  EnvLogLevel,

	KeyTranscribeRPS: EnvTranscribeRPS,
}

// Config holds user configuration loaded from ~/.config/go-chapters/config.
type Config struct {
	OutputDir string
	Provider  string
	Model     string
	TempDir   string
	LogLevel  string

	// TranscribeRPS caps transcription requests per second; empty means unlimited.
	TranscribeRPS string
}

// Keys returns the known configuration keys in sorted order.
func Keys() []string {
	return slices.Sorted(maps.Keys(envFallbacks))
}

// IsKnownKey reports whether key is one of the recognized configuration keys.
func IsKnownKey(key string) bool {
	_, ok := envFallbacks[key]
	return ok
}

// EnvFor returns the environment variable consulted when key is absent from the file.
func EnvFor(key string) string {
	return envFallbacks[key]
}

// dir returns the configuration directory path.
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config/go-chapters.
func dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", appName), nil
}

// path returns the full path to the config file.
func path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, "config"), nil
}

// Load reads the configuration file and environment variables.
// Precedence: config file values, then environment variable fallbacks.
// Returns an empty Config if the file doesn't exist (not an error).
func Load() (Config, error) {
	var cfg Config

	p, err := path()
	if err != nil {
		return cfg, err
	}

	data, err := parseFile(p)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("failed to read config: %w", err)
		}
		data = make(map[string]string)
	}

	lookup := func(key string) string {
		if v := data[key]; v != "" {
			return v
		}
		return os.Getenv(envFallbacks[key])
	}

	cfg.OutputDir = lookup(KeyOutputDir)
	cfg.Provider = lookup(KeyProvider)
	cfg.Model = lookup(KeyModel)
	cfg.TempDir = lookup(KeyTempDir)
	cfg.LogLevel = lookup(KeyLogLevel)
	cfg.TranscribeRPS = lookup(KeyTranscribeRPS)

	return cfg, nil
}

// parseFile reads a key=value config file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- config path is constructed from home dir
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w at line %d: %q", ErrInvalidSyntax, lineNum, line)
		}

		data[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	return data, nil
}

// validKey rejects keys that cannot round-trip through the file format.
func validKey(key string) error {
	if strings.TrimSpace(key) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if strings.ContainsAny(key, "=\n\r#") {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return nil
}

// Save writes a single key=value to the config file.
// Creates the config directory and file if they don't exist.
// Preserves existing key=value pairs but discards comments.
func Save(key, value string) error {
	if err := validKey(key); err != nil {
		return err
	}
	if strings.ContainsAny(value, "\n\r") {
		return fmt.Errorf("%w: value for %q contains a newline", ErrInvalidSyntax, key)
	}

	p, err := path()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0750); err != nil { // #nosec G301 -- user config dir
		return fmt.Errorf("cannot create config directory: %w", err)
	}

	existing, err := parseFile(p)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		existing = make(map[string]string)
	}

	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the config map to a file, keys sorted.
func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- config file with standard permissions, path from home dir
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("cannot write config file: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, key := range slices.Sorted(maps.Keys(data)) {
		if _, err := fmt.Fprintf(w, "%s=%s\n", key, data[key]); err != nil {
			_ = f.Close()
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write config: %w", err)
	}

	return f.Close()
}

// Get reads a single value from the config file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	p, err := path()
	if err != nil {
		return "", err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}

	return data[key], nil
}

// List returns all config values as a map.
func List() (map[string]string, error) {
	p, err := path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}

	return data, nil
}

// ResolveOutputPath resolves the final output path using the following precedence:
//  1. If output is absolute, use it as-is
//  2. If output is relative and outputDir is set, join them
//  3. If output is empty, use defaultName in outputDir (or cwd if no outputDir)
//
// All paths are cleaned using filepath.Clean.
func ResolveOutputPath(output, outputDir, defaultName string) string {
	if output != "" && filepath.IsAbs(output) {
		return filepath.Clean(output)
	}

	if output != "" {
		if outputDir != "" {
			return filepath.Clean(filepath.Join(outputDir, output))
		}
		return filepath.Clean(output)
	}

	if outputDir != "" {
		return filepath.Clean(filepath.Join(outputDir, defaultName))
	}
	return filepath.Clean(defaultName)
}

// EnsureOutputDir checks that d is usable as an output directory,
// creating it when missing. A leading ~ is expanded.
func EnsureOutputDir(d string) error {
	if d == "" {
		return fmt.Errorf("%s cannot be empty", KeyOutputDir)
	}
	d = ExpandPath(d)

	info, err := os.Stat(d)
	if err != nil {
		if os.IsNotExist(err) {
			if err := os.MkdirAll(d, 0750); err != nil { // #nosec G301 -- user output dir
				return fmt.Errorf("cannot create directory: %w", err)
			}
			return nil
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrNotDirectory, d)
	}

	testFile := filepath.Join(d, ".go-chapters-write-test")
	f, err := os.Create(testFile) // #nosec G304 -- path is constructed from validated dir
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNotWritable, err)
	}
	closeErr := f.Close()
	_ = os.Remove(testFile)
	if closeErr != nil {
		return fmt.Errorf("%w: %w", ErrNotWritable, closeErr)
	}

	return nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}

// Dir returns the configuration directory path.
func Dir() (string, error) {
	return dir()
}
