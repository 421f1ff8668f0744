package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// Notes:
// - White-box tests so parseFile and dir can be checked directly.
// - Tests touching the config file redirect it with t.Setenv("XDG_CONFIG_HOME")
//   and therefore do not run in parallel.
// - Every env fallback is cleared by isolate so a developer's shell cannot leak in.

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// isolate points the config file at a fresh directory and clears env fallbacks.
func isolate(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	for _, k := range Keys() {
		t.Setenv(EnvFor(k), "")
	}
	return tmpDir
}

func writeConfigFile(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "go-chapters")
	if err := os.MkdirAll(configDir, 0750); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
}

func readConfigFile(t *testing.T, dir string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, "go-chapters", "config"))
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// Keys
// ---------------------------------------------------------------------------

func TestKeys(t *testing.T) {
	t.Parallel()

	want := []string{KeyLogLevel, KeyModel, KeyOutputDir, KeyProvider, KeyTempDir, KeyTranscribeRPS}
	got := Keys()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}

	envs := map[string]string{
		KeyOutputDir:     "CHAPTERS_OUTPUT_DIR",
		KeyProvider:      "CHAPTERS_PROVIDER",
		KeyModel:         "CHAPTERS_MODEL",
		KeyTempDir:       "CHAPTERS_TEMP_DIR",
		KeyLogLevel:      "CHAPTERS_LOG_LEVEL",
		KeyTranscribeRPS: "CHAPTERS_TRANSCRIBE_RPS",
	}
	for k, env := range envs {
		if !IsKnownKey(k) {
			t.Errorf("IsKnownKey(%q) = false, want true", k)
		}
		if EnvFor(k) != env {
			t.Errorf("EnvFor(%q) = %q, want %q", k, EnvFor(k), env)
		}
	}
	for _, k := range []string{"", "nope", "OUTPUT-DIR", "output_dir"} {
		if IsKnownKey(k) {
			t.Errorf("IsKnownKey(%q) = true, want false", k)
		}
	}
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

func TestLoad(t *testing.T) {
	t.Run("missing file is an empty config", func(t *testing.T) {
		isolate(t)

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg != (Config{}) {
			t.Errorf("Load() = %+v, want zero Config", cfg)
		}
	})

	t.Run("reads every key from file", func(t *testing.T) {
		dir := isolate(t)
		writeConfigFile(t, dir, "# chapters\noutput-dir=/out\nprovider=openai\nmodel=gpt-4o\n\ntemp-dir=/scratch\nlog-level=debug\ntranscribe-rps=2.5\n")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := Config{
			OutputDir:     "/out",
			Provider:      "openai",
			Model:         "gpt-4o",
			TempDir:       "/scratch",
			LogLevel:      "debug",
			TranscribeRPS: "2.5",
		}
		if cfg != want {
			t.Errorf("Load() = %+v, want %+v", cfg, want)
		}
	})

	t.Run("file wins, env fills the gaps", func(t *testing.T) {
		dir := isolate(t)
		t.Setenv(EnvProvider, "deepseek")
		t.Setenv(EnvModel, "deepseek-chat")
		t.Setenv(EnvTempDir, "/env/tmp")
		t.Setenv(EnvLogLevel, "warn")
		t.Setenv(EnvTranscribeRPS, "1")
		writeConfigFile(t, dir, "provider=gemini\nmodel=\n")

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		want := Config{
			Provider:      "gemini",
			Model:         "deepseek-chat",
			TempDir:       "/env/tmp",
			LogLevel:      "warn",
			TranscribeRPS: "1",
		}
		if cfg != want {
			t.Errorf("Load() = %+v, want %+v", cfg, want)
		}
	})

	t.Run("invalid syntax is reported", func(t *testing.T) {
		dir := isolate(t)
		writeConfigFile(t, dir, "provider=gemini\nno-equals-here\n")

		_, err := Load()
		if !errors.Is(err, ErrInvalidSyntax) {
			t.Errorf("Load() error = %v, want ErrInvalidSyntax", err)
		}
		if err != nil && !strings.Contains(err.Error(), "line 2") {
			t.Errorf("Load() error = %v, want line number", err)
		}
	})
}

// ---------------------------------------------------------------------------
// Save / Get / List
// ---------------------------------------------------------------------------

func TestSave(t *testing.T) {
	t.Run("creates the file and keeps other keys sorted", func(t *testing.T) {
		dir := isolate(t)

		for _, kv := range [][2]string{
			{KeyTranscribeRPS, "3"},
			{KeyProvider, "gemini"},
			{KeyLogLevel, "info"},
			{KeyProvider, "openai"},
		} {
			if err := Save(kv[0], kv[1]); err != nil {
				t.Fatalf("Save(%q, %q) error = %v", kv[0], kv[1], err)
			}
		}

		want := "log-level=info\nprovider=openai\ntranscribe-rps=3\n"
		if got := readConfigFile(t, dir); got != want {
			t.Errorf("config file = %q, want %q", got, want)
		}
	})

	t.Run("drops comments on rewrite", func(t *testing.T) {
		dir := isolate(t)
		writeConfigFile(t, dir, "# hand written\nmodel=gemini-1.5-pro\n")

		if err := Save(KeyTempDir, "/scratch"); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		if got := readConfigFile(t, dir); got != "model=gemini-1.5-pro\ntemp-dir=/scratch\n" {
			t.Errorf("config file = %q", got)
		}
	})

	tests := []struct {
		name       string
		key, value string
		wantErr    error
	}{
		{"empty key", "", "x", ErrInvalidKey},
		{"blank key", "  ", "x", ErrInvalidKey},
		{"key with equals", "a=b", "x", ErrInvalidKey},
		{"key with comment marker", "#model", "x", ErrInvalidKey},
		{"key with newline", "model\nprovider", "x", ErrInvalidKey},
		{"value with newline", KeyModel, "a\nprovider=openai", ErrInvalidSyntax},
		{"value with carriage return", KeyModel, "a\rb", ErrInvalidSyntax},
	}
	for _, tt := range tests {
		t.Run("rejects "+tt.name, func(t *testing.T) {
			isolate(t)

			if err := Save(tt.key, tt.value); !errors.Is(err, tt.wantErr) {
				t.Errorf("Save(%q, %q) error = %v, want %v", tt.key, tt.value, err, tt.wantErr)
			}
		})
	}

	t.Run("refuses to clobber an unreadable file", func(t *testing.T) {
		dir := isolate(t)
		writeConfigFile(t, dir, "garbage\n")

		if err := Save(KeyModel, "x"); !errors.Is(err, ErrInvalidSyntax) {
			t.Errorf("Save() error = %v, want ErrInvalidSyntax", err)
		}
		if got := readConfigFile(t, dir); got != "garbage\n" {
			t.Errorf("config file rewritten to %q", got)
		}
	})
}

func TestGetAndList(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		isolate(t)

		v, err := Get(KeyProvider)
		if err != nil || v != "" {
			t.Errorf("Get() = %q, %v; want empty, nil", v, err)
		}
		m, err := List()
		if err != nil || len(m) != 0 {
			t.Errorf("List() = %v, %v; want empty, nil", m, err)
		}
	})

	t.Run("reads file values only", func(t *testing.T) {
		dir := isolate(t)
		t.Setenv(EnvModel, "from-env")
		writeConfigFile(t, dir, "provider = deepseek\ntranscribe-rps=0.5\n")

		if v, err := Get(KeyProvider); err != nil || v != "deepseek" {
			t.Errorf("Get(provider) = %q, %v; want deepseek", v, err)
		}
		if v, err := Get(KeyModel); err != nil || v != "" {
			t.Errorf("Get(model) = %q, %v; want empty (env is not a file value)", v, err)
		}

		m, err := List()
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(m) != 2 || m[KeyProvider] != "deepseek" || m[KeyTranscribeRPS] != "0.5" {
			t.Errorf("List() = %v", m)
		}
	})

	t.Run("invalid syntax", func(t *testing.T) {
		dir := isolate(t)
		writeConfigFile(t, dir, "broken\n")

		if _, err := Get(KeyProvider); !errors.Is(err, ErrInvalidSyntax) {
			t.Errorf("Get() error = %v, want ErrInvalidSyntax", err)
		}
		if _, err := List(); !errors.Is(err, ErrInvalidSyntax) {
			t.Errorf("List() error = %v, want ErrInvalidSyntax", err)
		}
	})
}

// ---------------------------------------------------------------------------
// parseFile
// ---------------------------------------------------------------------------

func TestParseFile(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "config")
	content := "  # comment\n\nmodel = gpt-4o \noutput-dir=/a=b\nprovider=\n"
	if err := os.WriteFile(p, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := parseFile(p)
	if err != nil {
		t.Fatalf("parseFile() error = %v", err)
	}
	want := map[string]string{"model": "gpt-4o", "output-dir": "/a=b", "provider": ""}
	if len(got) != len(want) {
		t.Fatalf("parseFile() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("parseFile()[%q] = %q, want %q", k, got[k], v)
		}
	}

	if _, err := parseFile(filepath.Join(t.TempDir(), "missing")); !os.IsNotExist(err) {
		t.Errorf("parseFile(missing) error = %v, want not-exist", err)
	}
}

// ---------------------------------------------------------------------------
// Paths
// ---------------------------------------------------------------------------

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, output, outputDir, defaultName, want string
	}{
		{"absolute output ignores dir", "/abs/chapters.txt", "/dir", "default.txt", "/abs/chapters.txt"},
		{"relative output joins dir", "video.json", "/dir", "default.txt", "/dir/video.json"},
		{"relative output without dir", "video.json", "", "default.txt", "video.json"},
		{"empty output uses default in dir", "", "/dir", "default.txt", "/dir/default.txt"},
		{"empty output without dir", "", "", "default.txt", "default.txt"},
		{"paths are cleaned", "../x/./c.txt", "/dir/sub", "d", "/dir/x/c.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ResolveOutputPath(tt.output, tt.outputDir, tt.defaultName)
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("ResolveOutputPath(%q, %q, %q) = %q, want %q",
					tt.output, tt.outputDir, tt.defaultName, got, tt.want)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Parallel()

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("cannot get home dir: %v", err)
	}

	tests := []struct {
		path, want string
	}{
		{"~/chapters", filepath.Join(home, "chapters")},
		{"~", home},
		{"/abs/path", "/abs/path"},
		{"rel/path", "rel/path"},
		{"/path/~/x", "/path/~/x"},
		{"~user/x", "~user/x"},
	}

	for _, tt := range tests {
		if got := ExpandPath(tt.path); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestDir(t *testing.T) {
	t.Run("XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")

		got, err := Dir()
		if err != nil || got != filepath.Join("/custom/config", "go-chapters") {
			t.Errorf("Dir() = %q, %v", got, err)
		}
	})

	t.Run("home fallback", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Skipf("cannot get home dir: %v", err)
		}

		got, err := Dir()
		if err != nil || got != filepath.Join(home, ".config", "go-chapters") {
			t.Errorf("Dir() = %q, %v", got, err)
		}
	})
}

// ---------------------------------------------------------------------------
// EnsureOutputDir
// ---------------------------------------------------------------------------

func TestEnsureOutputDir(t *testing.T) {
	t.Parallel()

	base := t.TempDir()
	file := filepath.Join(base, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("existing directory leaves no probe file behind", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := EnsureOutputDir(dir); err != nil {
			t.Fatalf("EnsureOutputDir() error = %v", err)
		}
		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("directory not empty after check: %v", entries)
		}
	})

	t.Run("creates nested missing directory", func(t *testing.T) {
		t.Parallel()
		dir := filepath.Join(t.TempDir(), "a", "b")
		if err := EnsureOutputDir(dir); err != nil {
			t.Fatalf("EnsureOutputDir() error = %v", err)
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Errorf("directory not created: %v", err)
		}
	})

	t.Run("rejects empty path", func(t *testing.T) {
		t.Parallel()
		if err := EnsureOutputDir(""); err == nil {
			t.Error("EnsureOutputDir(\"\") = nil, want error")
		}
	})

	t.Run("rejects a file", func(t *testing.T) {
		t.Parallel()
		if err := EnsureOutputDir(file); !errors.Is(err, ErrNotDirectory) {
			t.Errorf("EnsureOutputDir(file) error = %v, want ErrNotDirectory", err)
		}
	})
}

func TestEnsureOutputDir_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("chmod semantics differ on Windows")
	}
	if os.Geteuid() == 0 {
		t.Skip("root ignores directory permissions")
	}
	t.Parallel()

	dir := t.TempDir()
	readOnly := filepath.Join(dir, "ro")
	if err := os.Mkdir(readOnly, 0500); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chmod(readOnly, 0750) })

	if err := EnsureOutputDir(readOnly); !errors.Is(err, ErrNotWritable) {
		t.Errorf("EnsureOutputDir(read-only) error = %v, want ErrNotWritable", err)
	}
	if err := EnsureOutputDir(filepath.Join(readOnly, "child")); err == nil {
		t.Error("EnsureOutputDir(child of read-only) = nil, want error")
	}
}
