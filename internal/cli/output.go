package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alnah/go-chapters/internal/config"
	"github.com/alnah/go-chapters/internal/format"
	"github.com/alnah/go-chapters/internal/pipeline"
)

// progressPrinter returns a pipeline progress callback that writes
// "[ 30%] message" lines to w.
func progressPrinter(w io.Writer) pipeline.ProgressFunc {
	return func(percent int, message string) {
		_, _ = fmt.Fprintf(w, "[%3d%%] %s\n", percent, message)
	}
}

// renderResult formats chapters as description lines ("0:00 Introduction"),
// or as indented JSON when asJSON is set.
func renderResult(res pipeline.Result, asJSON bool) (string, error) {
	if asJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return "", fmt.Errorf("cannot encode result: %w", err)
		}
		return string(data) + "\n", nil
	}

	var b strings.Builder
	for _, ch := range res.Chapters {
		fmt.Fprintf(&b, "%s %s\n", ch.Time, ch.Title)
	}
	return b.String(), nil
}

// resolveOutput returns the path -o points at, joined with output-dir when
// relative. Empty output means stdout. An existing file is rejected up front
// so no API call is spent on a run whose result cannot be written.
func resolveOutput(output, outputDir string) (string, error) {
	if output == "" {
		return "", nil
	}
	p := config.ResolveOutputPath(config.ExpandPath(output), config.ExpandPath(outputDir), "")
	if _, err := os.Stat(p); err == nil {
		return "", fmt.Errorf("%s: %w", p, ErrOutputExists)
	}
	return p, nil
}

// summary describes a result in one line, e.g. "3 chapters (en, 15m from audio)".
func summary(res pipeline.Result) string {
	var details []string
	if res.Language != "" {
		details = append(details, res.Language)
	}
	if res.ProcessedSeconds > 0 {
		d := time.Duration(res.ProcessedSeconds * float64(time.Second))
		details = append(details, format.DurationHuman(d)+" from "+res.Source)
	} else if res.Source != "" {
		details = append(details, "from "+res.Source)
	}
	noun := "chapters"
	if len(res.Chapters) == 1 {
		noun = "chapter"
	}
	line := fmt.Sprintf("%d %s", len(res.Chapters), noun)
	if len(details) > 0 {
		line += " (" + strings.Join(details, ", ") + ")"
	}
	return line
}

// emitResult writes the rendered result to path, or to env.Stdout when path is
// empty. A one-line summary always goes to env.Stderr.
func emitResult(env *Env, res pipeline.Result, path string, asJSON bool) error {
	content, err := renderResult(res, asJSON)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(env.Stderr, summary(res))
	if path == "" {
		_, err := io.WriteString(env.Stdout, content)
		return err
	}
	if err := writeFileAtomic(path, content); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(env.Stderr, "Done: %s\n", path)
	return nil
}

// writeFileAtomic writes content to path atomically.
// It fails if the file already exists (O_EXCL), preventing accidental overwrites.
// On write failure, the partial file is removed.
func writeFileAtomic(path, content string) error {
	// #nosec G302 G304 -- user-specified output file with standard permissions
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("output file already exists: %s: %w", path, ErrOutputExists)
		}
		return fmt.Errorf("cannot create output file: %w", err)
	}

	writeErr := func() error {
		defer func() { _ = f.Close() }()
		if _, err := f.WriteString(content); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}()

	if writeErr != nil {
		_ = os.Remove(path)
		return writeErr
	}

	return nil
}
