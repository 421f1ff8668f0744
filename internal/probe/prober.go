// Package probe resolves the total duration of a video.
package probe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"strconv"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/alnah/go-chapters/internal/logger"
	"github.com/alnah/go-chapters/internal/tools"
	"github.com/alnah/go-chapters/internal/videoid"
)

// DefaultTimeout bounds the downloader fallback.
const DefaultTimeout = 120 * time.Second

// Prober resolves video durations: a metadata fetch first, then the
// downloader in print-only mode.
type Prober struct {
	meta     videoMetadata
	resolver binaryResolver
	exec     outputRunner
	timeout  time.Duration
	goos     string
	log      *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithMetadataClient sets the in-process metadata client.
func WithMetadataClient(m videoMetadata) Option {
	return func(p *Prober) { p.meta = m }
}

// WithResolver sets the binary resolver for the fallback path.
func WithResolver(r binaryResolver) Option {
	return func(p *Prober) { p.resolver = r }
}

// WithExecutor sets the command runner for the fallback path.
func WithExecutor(e outputRunner) Option {
	return func(p *Prober) { p.exec = e }
}

// WithTimeout sets the fallback timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prober) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Prober) { p.log = l }
}

// New creates a Prober with production defaults.
func New(opts ...Option) *Prober {
	p := &Prober{
		meta:     &youtube.Client{},
		resolver: tools.NewResolver(),
		exec:     tools.NewExecutor(),
		timeout:  DefaultTimeout,
		goos:     runtime.GOOS,
		log:      logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Duration returns the total duration of videoID in seconds.
func (p *Prober) Duration(ctx context.Context, videoID string) (float64, error) {
	secs, err := p.fromMetadata(ctx, videoID)
	if err == nil {
		return secs, nil
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	p.log.Debug("metadata duration failed, falling back to downloader",
		"video_id", videoID, "error", err)

	secs, fbErr := p.fromDownloader(ctx, videoID)
	if fbErr != nil {
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		return 0, fmt.Errorf("%s: metadata: %v; downloader: %v: %w",
			videoID, err, fbErr, ErrDurationUnavailable)
	}
	return secs, nil
}

func (p *Prober) fromMetadata(ctx context.Context, videoID string) (float64, error) {
	v, err := p.meta.GetVideoContext(ctx, videoID)
	if err != nil {
		return 0, err
	}
	if v == nil || v.Duration <= 0 {
		return 0, errors.New("no duration in metadata")
	}
	return v.Duration.Seconds(), nil
}

func (p *Prober) fromDownloader(ctx context.Context, videoID string) (float64, error) {
	bin, err := p.resolver.Resolve(tools.YTDLP)
	if err != nil {
		return 0, err
	}

	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.exec.Output(tctx, bin,
		"--print", "duration",
		"--no-playlist",
		"--no-warnings",
		"--skip-download",
		videoid.URL(videoID),
	)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return 0, fmt.Errorf("%s timed out after %s on %s (binary %s)", tools.YTDLP.Name, p.timeout, p.goos, bin)
		}
		return 0, err
	}

	secs, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected duration output %q", out)
	}
	if secs <= 0 {
		return 0, fmt.Errorf("non-positive duration %v", secs)
	}
	return secs, nil
}
