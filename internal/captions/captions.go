// Package captions fetches a video's published captions as a timestamped
// transcript so chapters can be synthesized without extracting audio.
package captions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kkdai/youtube/v2"

	"github.com/alnah/go-chapters/internal/format"
	"github.com/alnah/go-chapters/internal/lang"
	"github.com/alnah/go-chapters/internal/logger"
)

// defaultLanguage is requested when neither the caller nor the video names one.
const defaultLanguage = "en"

// transcriptClient is the slice of *youtube.Client the fetcher needs.
type transcriptClient interface {
	GetVideoContext(ctx context.Context, id string) (*youtube.Video, error)
	GetTranscriptCtx(ctx context.Context, video *youtube.Video, lang string) (youtube.VideoTranscript, error)
}

var _ transcriptClient = (*youtube.Client)(nil)

// Transcript is a caption track rendered as "M:SS text" lines.
type Transcript struct {
	Text     string
	Language string  // ISO 639-1
	Seconds  float64 // video duration, 0 if unknown
	Lines    int
}

// Fetcher downloads caption tracks.
type Fetcher struct {
	client transcriptClient
	log    *slog.Logger
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the YouTube client.
func WithClient(c transcriptClient) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(f *Fetcher) {
		if l != nil {
			f.log = l
		}
	}
}

// NewFetcher creates a Fetcher backed by the YouTube innertube API.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{client: &youtube.Client{}, log: logger.Discard()}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the caption transcript of videoID. language selects the
// track; empty picks the video's first track. Missing, disabled or empty
// captions return ErrUnavailable.
func (f *Fetcher) Fetch(ctx context.Context, videoID, language string) (Transcript, error) {
	video, err := f.client.GetVideoContext(ctx, videoID)
	if err != nil {
		if ctx.Err() != nil {
			return Transcript{}, ctx.Err()
		}
		return Transcript{}, fmt.Errorf("fetch video %s: %w", videoID, err)
	}

	track := pickLanguage(video.CaptionTracks, language)
	if track == "" {
		if language != "" {
			return Transcript{}, fmt.Errorf("video %s has no %q caption track: %w", videoID, language, ErrUnavailable)
		}
		return Transcript{}, fmt.Errorf("video %s has no caption tracks: %w", videoID, ErrUnavailable)
	}

	segs, err := f.client.GetTranscriptCtx(ctx, video, track)
	if err != nil {
		if errors.Is(err, youtube.ErrTranscriptDisabled) {
			return Transcript{}, fmt.Errorf("video %s: %v: %w", videoID, err, ErrUnavailable)
		}
		if ctx.Err() != nil {
			return Transcript{}, ctx.Err()
		}
		return Transcript{}, fmt.Errorf("fetch captions for %s: %w", videoID, err)
	}

	text, lines := render(segs)
	if lines == 0 {
		return Transcript{}, fmt.Errorf("video %s captions are empty: %w", videoID, ErrUnavailable)
	}

	f.log.Debug("captions fetched", "video_id", videoID, "language", track, "lines", lines)
	return Transcript{
		Text:     text,
		Language: lang.BaseCode(track),
		Seconds:  video.Duration.Seconds(),
		Lines:    lines,
	}, nil
}

// pickLanguage returns the track code to request, or "" when the video has no
// usable track. A requested language must match a track exactly or by base
// code ("pt" matches "pt-BR"). Otherwise it prefers a human-authored track
// over auto-generated ("asr") ones.
func pickLanguage(tracks []youtube.CaptionTrack, requested string) string {
	if len(tracks) == 0 {
		return ""
	}
	if requested != "" {
		return matchTrack(tracks, lang.Normalize(requested))
	}
	for _, t := range tracks {
		if t.Kind != "asr" && t.LanguageCode != "" {
			return strings.ToLower(t.LanguageCode)
		}
	}
	if code := tracks[0].LanguageCode; code != "" {
		return strings.ToLower(code)
	}
	return defaultLanguage
}

func matchTrack(tracks []youtube.CaptionTrack, want string) string {
	for _, t := range tracks {
		if lang.Normalize(t.LanguageCode) == want {
			return want
		}
	}
	base := lang.BaseCode(want)
	for _, t := range tracks {
		if t.LanguageCode != "" && lang.BaseCode(t.LanguageCode) == base {
			return lang.Normalize(t.LanguageCode)
		}
	}
	return ""
}

// render writes one "M:SS text" line per non-empty segment.
func render(segs youtube.VideoTranscript) (string, int) {
	var b strings.Builder
	n := 0
	for _, s := range segs {
		text := strings.Join(strings.Fields(s.Text), " ")
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "%s %s\n", format.Timestamp(s.StartMs/1000), text)
		n++
	}
	return b.String(), n
}
