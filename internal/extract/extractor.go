// Package extract cuts short speech clips out of a remote video by streaming
// the downloader's output straight into the transcoder.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/alnah/go-chapters/internal/id"
	"github.com/alnah/go-chapters/internal/logger"
	"github.com/alnah/go-chapters/internal/sample"
	"github.com/alnah/go-chapters/internal/tools"
	"github.com/alnah/go-chapters/internal/videoid"
)

// DefaultBatchSize is the number of extractions run together. A batch
// finishes completely before the next one starts.
const DefaultBatchSize = 5

// wavHeaderSize is the size of an empty RIFF/WAVE header; a clip no larger
// than this holds no audio.
const wavHeaderSize = 44

// maxStderr bounds process output embedded in errors.
const maxStderr = 600

// Extractor produces Clips for sample intervals of a video.
type Extractor struct {
	resolver  binaryResolver
	pipe      pipeRunner
	files     fileOps
	tempDir   string
	batchSize int
	newName   func() (string, error)
	log       *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithResolver sets the binary resolver.
func WithResolver(r binaryResolver) Option {
	return func(e *Extractor) { e.resolver = r }
}

// WithPipeRunner sets the process pipe runner.
func WithPipeRunner(p pipeRunner) Option {
	return func(e *Extractor) { e.pipe = p }
}

// WithFileOps sets the filesystem implementation.
func WithFileOps(f fileOps) Option {
	return func(e *Extractor) { e.files = f }
}

// WithTempDir sets the directory clips are written to. Defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(e *Extractor) {
		if dir != "" {
			e.tempDir = dir
		}
	}
}

// WithBatchSize sets how many extractions run concurrently.
func WithBatchSize(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.batchSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) { e.log = l }
}

// New creates an Extractor with production defaults.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		resolver:  tools.NewResolver(),
		pipe:      osPipeRunner{},
		files:     osFileOps{},
		tempDir:   os.TempDir(),
		batchSize: DefaultBatchSize,
		newName:   func() (string, error) { return id.Generate("clip") },
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// BatchSize returns the configured concurrency limit.
func (e *Extractor) BatchSize() int {
	return e.batchSize
}

// ExtractOne streams videoID through the downloader into the transcoder and
// writes [start, start+duration) as a mono 16kHz PCM16 WAV clip.
// On failure no file is left behind.
func (e *Extractor) ExtractOne(ctx context.Context, videoID string, start, duration float64) (*Clip, error) {
	ytdlp, err := e.resolver.Resolve(tools.YTDLP)
	if err != nil {
		return nil, err
	}
	ffmpeg, err := e.resolver.Resolve(tools.FFmpeg)
	if err != nil {
		return nil, err
	}

	name, err := e.newName()
	if err != nil {
		return nil, err
	}
	out := filepath.Join(e.tempDir, name+".wav")

	res := e.pipe.RunPipe(ctx,
		command{Path: ytdlp, Args: downloaderArgs(videoID)},
		command{Path: ffmpeg, Args: transcoderArgs(start, duration, out)},
	)

	if ctx.Err() != nil {
		e.discard(out)
		return nil, ctx.Err()
	}
	if res.ConsumerErr != nil {
		e.discard(out)
		msg := fmt.Sprintf("interval %s: ffmpeg: %v: %s", span(start, duration), res.ConsumerErr,
			tools.Tail(res.ConsumerStderr, maxStderr))
		if res.ProducerErr != nil || res.ProducerStderr != "" {
			msg += fmt.Sprintf("; yt-dlp: %v: %s", res.ProducerErr, tools.Tail(res.ProducerStderr, maxStderr))
		}
		return nil, fmt.Errorf("%s: %w", msg, ErrExtractionFailed)
	}

	info, err := e.files.Stat(out)
	if err != nil || info.Size() <= wavHeaderSize {
		e.discard(out)
		msg := fmt.Sprintf("interval %s: no audio written", span(start, duration))
		if res.ProducerStderr != "" {
			msg += ": yt-dlp: " + tools.Tail(res.ProducerStderr, maxStderr)
		}
		return nil, fmt.Errorf("%s: %w", msg, ErrExtractionFailed)
	}

	return NewClip(out, start, duration, e.files.Remove), nil
}

// ExtractBatch extracts every interval, batchSize at a time, and returns the
// clips in interval order. On error it still returns the clips acquired so
// far so the caller can release them.
func (e *Extractor) ExtractBatch(ctx context.Context, videoID string, intervals []sample.Interval, onDone func(done, total int)) ([]*Clip, error) {
	clips := make([]*Clip, 0, len(intervals))

	for lo := 0; lo < len(intervals); lo += e.batchSize {
		hi := min(lo+e.batchSize, len(intervals))
		batch := make([]*Clip, hi-lo)

		g, gctx := errgroup.WithContext(ctx)
		for i := lo; i < hi; i++ {
			iv := intervals[i]
			g.Go(func() error {
				c, err := e.ExtractOne(gctx, videoID, iv.Start, iv.Duration)
				if err != nil {
					return err
				}
				batch[i-lo] = c
				return nil
			})
		}
		err := g.Wait()

		for _, c := range batch {
			if c != nil {
				clips = append(clips, c)
			}
		}
		if err != nil {
			return clips, err
		}

		e.log.Debug("extracted batch", "video_id", videoID, "from", lo, "to", hi)
		if onDone != nil {
			onDone(hi, len(intervals))
		}
	}

	return clips, nil
}

func (e *Extractor) discard(path string) {
	if err := e.files.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		e.log.Warn("remove partial clip", "path", path, "error", err)
	}
}

// downloaderArgs streams the best audio-only format to stdout.
func downloaderArgs(videoID string) []string {
	return []string{
		"-f", "bestaudio",
		"--no-playlist",
		"--quiet",
		"--no-warnings",
		"-o", "-",
		videoid.URL(videoID),
	}
}

// transcoderArgs trims the piped stream and writes mono 16kHz PCM16 WAV.
func transcoderArgs(start, duration float64, out string) []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-ss", ffmpegTime(start),
		"-t", ffmpegTime(duration),
		"-i", "pipe:0",
		"-vn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		"-f", "wav",
		"-y",
		out,
	}
}

// ffmpegTime formats seconds for -ss/-t arguments.
func ffmpegTime(secs float64) string {
	if secs < 0 {
		secs = 0
	}
	h := int(secs) / 3600
	m := (int(secs) % 3600) / 60
	s := secs - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

func span(start, duration float64) string {
	return ffmpegTime(start) + "+" + fmt.Sprintf("%.1fs", duration)
}
