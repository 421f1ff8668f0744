package transcribe_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/alnah/go-chapters/internal/apierr"
	"github.com/alnah/go-chapters/internal/transcribe"
)

// Notes:
// - Black-box testing via package transcribe_test.
// - Uses export_test.go to inject mock audioTranscriber.
// - Retry delays are set to 1ms to exercise backoff without slowing tests.
//
// Coverage gaps (intentional):
// - Network I/O with real OpenAI client - requires integration tests.

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

// mockAudioTranscriber answers by file path and records every request.
type mockAudioTranscriber struct {
	mu        sync.Mutex
	calls     []openai.AudioRequest
	responses map[string]openai.AudioResponse
	// errs returns an error for the n-th call of a path (0-based), if any.
	errs    map[string][]error
	perPath map[string]int
	delay   map[string]time.Duration
}

func newMockAudio() *mockAudioTranscriber {
	return &mockAudioTranscriber{
		responses: make(map[string]openai.AudioResponse),
		errs:      make(map[string][]error),
		perPath:   make(map[string]int),
		delay:     make(map[string]time.Duration),
	}
}

func (m *mockAudioTranscriber) CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	n := m.perPath[req.FilePath]
	m.perPath[req.FilePath]++
	var err error
	if errs := m.errs[req.FilePath]; n < len(errs) {
		err = errs[n]
	}
	resp := m.responses[req.FilePath]
	d := m.delay[req.FilePath]
	m.mu.Unlock()

	if d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return openai.AudioResponse{}, ctx.Err()
		}
	}
	if err != nil {
		return openai.AudioResponse{}, err
	}
	return resp, nil
}

func (m *mockAudioTranscriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockAudioTranscriber) LastRequest() openai.AudioRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return openai.AudioRequest{}
	}
	return m.calls[len(m.calls)-1]
}

type seg = struct {
	ID               int     `json:"id"`
	Seek             int     `json:"seek"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	Tokens           []int   `json:"tokens"`
	Temperature      float64 `json:"temperature"`
	AvgLogprob       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
	Transient        bool    `json:"transient"`
}

func response(language string, segs ...seg) openai.AudioResponse {
	var r openai.AudioResponse
	r.Language = language
	r.Segments = segs
	return r
}

func fast(opts ...transcribe.Option) []transcribe.Option {
	return append([]transcribe.Option{transcribe.WithRetryDelays(time.Millisecond, time.Millisecond)}, opts...)
}

// ---------------------------------------------------------------------------
// TestTranscribe - single clip
// ---------------------------------------------------------------------------

func TestTranscribe_ShiftsOffsets(t *testing.T) {
	t.Parallel()

	mock := newMockAudio()
	mock.responses["/tmp/clip-a.wav"] = response("english",
		seg{Start: 0, Text: " Hello there."},
		seg{Start: 4.5, Text: " Welcome back."},
	)
	tr := transcribe.NewTestTranscriber(mock, fast()...)

	segs, language, err := tr.Transcribe(context.Background(), transcribe.Sample{Path: "/tmp/clip-a.wav", Start: 120})
	if err != nil {
		t.Fatalf("Transcribe() unexpected error: %v", err)
	}
	if language != "english" {
		t.Errorf("language = %q, want english", language)
	}
	if len(segs) != 2 || segs[0].Time != 120 || segs[1].Time != 124.5 {
		t.Errorf("segments = %+v, want times 120 and 124.5", segs)
	}

	req := mock.LastRequest()
	if req.Format != openai.AudioResponseFormatVerboseJSON {
		t.Errorf("Format = %q, want verbose_json", req.Format)
	}
	if req.Model != openai.Whisper1 {
		t.Errorf("Model = %q, want %q", req.Model, openai.Whisper1)
	}
}

func TestTranscribe_TextOnlyFallback(t *testing.T) {
	t.Parallel()

	mock := newMockAudio()
	resp := openai.AudioResponse{Text: "just text"}
	mock.responses["/c.wav"] = resp
	tr := transcribe.NewTestTranscriber(mock, fast()...)

	segs, _, err := tr.Transcribe(context.Background(), transcribe.Sample{Path: "/c.wav", Start: 60})
	if err != nil {
		t.Fatalf("Transcribe() unexpected error: %v", err)
	}
	if len(segs) != 1 || segs[0].Time != 60 || segs[0].Text != "just text" {
		t.Errorf("segments = %+v, want one segment at 60", segs)
	}
}

func TestTranscribe_LanguageHint(t *testing.T) {
	t.Parallel()

	mock := newMockAudio()
	tr := transcribe.NewTestTranscriber(mock, fast(transcribe.WithLanguage("pt-BR"), transcribe.WithModel("whisper-large"))...)

	_, _, _ = tr.Transcribe(context.Background(), transcribe.Sample{Path: "/c.wav"})

	req := mock.LastRequest()
	if req.Language != "pt" {
		t.Errorf("Language = %q, want pt", req.Language)
	}
	if req.Model != "whisper-large" {
		t.Errorf("Model = %q, want whisper-large", req.Model)
	}
}

func TestTranscribe_Retry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		errs      []error
		wantErr   error
		wantCalls int
	}{
		{
			name:      "rate limit then success",
			errs:      []error{&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}},
			wantCalls: 2,
		},
		{
			name: "server errors then success",
			errs: []error{
				&openai.APIError{HTTPStatusCode: http.StatusBadGateway, Message: "bad gateway"},
				&openai.APIError{HTTPStatusCode: http.StatusServiceUnavailable, Message: "overloaded"},
			},
			wantCalls: 3,
		},
		{
			name:      "auth failure is not retried",
			errs:      []error{&openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}},
			wantErr:   apierr.ErrAuthFailed,
			wantCalls: 1,
		},
		{
			name:      "quota is not retried",
			errs:      []error{&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "You exceeded your current quota"}},
			wantErr:   apierr.ErrQuotaExceeded,
			wantCalls: 1,
		},
		{
			name: "gives up after max retries",
			errs: []error{
				&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
				&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
				&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests},
			},
			wantErr:   apierr.ErrRateLimit,
			wantCalls: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mock := newMockAudio()
			mock.errs["/c.wav"] = tt.errs
			mock.responses["/c.wav"] = response("english", seg{Start: 1, Text: "ok"})
			tr := transcribe.NewTestTranscriber(mock, fast(transcribe.WithMaxRetries(2))...)

			_, _, err := tr.Transcribe(context.Background(), transcribe.Sample{Path: "/c.wav"})
			if tt.wantErr == nil && err != nil {
				t.Fatalf("Transcribe() unexpected error: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("Transcribe() error = %v, want %v", err, tt.wantErr)
			}
			if got := mock.CallCount(); got != tt.wantCalls {
				t.Errorf("call count = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestTranscribe_RateLimiterHonorsContext(t *testing.T) {
	t.Parallel()

	// A limiter with no burst never admits a request.
	limiter := rate.NewLimiter(rate.Every(time.Hour), 0)
	mock := newMockAudio()
	tr := transcribe.NewTestTranscriber(mock, fast(transcribe.WithRateLimit(limiter), transcribe.WithMaxRetries(0))...)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, _, err := tr.Transcribe(ctx, transcribe.Sample{Path: "/c.wav"})
	if err == nil {
		t.Fatal("Transcribe() error = nil, want limiter error")
	}
	if mock.CallCount() != 0 {
		t.Errorf("call count = %d, want 0", mock.CallCount())
	}
}

// ---------------------------------------------------------------------------
// TestTranscribeBatch
// ---------------------------------------------------------------------------

func TestTranscribeBatch_MergesInTimeOrder(t *testing.T) {
	t.Parallel()

	mock := newMockAudio()
	// Later clip answers first.
	mock.delay["/a.wav"] = 20 * time.Millisecond
	mock.responses["/a.wav"] = response("french", seg{Start: 0, Text: "un"}, seg{Start: 10, Text: "deux"})
	mock.responses["/b.wav"] = response("french", seg{Start: 0, Text: "trois"}, seg{Start: 5, Text: "quatre"})
	tr := transcribe.NewTestTranscriber(mock, fast()...)

	res, err := tr.TranscribeBatch(context.Background(), []transcribe.Sample{
		{Path: "/a.wav", Start: 0},
		{Path: "/b.wav", Start: 60},
	})
	if err != nil {
		t.Fatalf("TranscribeBatch() unexpected error: %v", err)
	}

	var texts []string
	for _, s := range res.Segments {
		texts = append(texts, s.Text)
	}
	if got := strings.Join(texts, ","); got != "un,deux,trois,quatre" {
		t.Errorf("segments = %s, want un,deux,trois,quatre", got)
	}
	if res.Language != "fr" {
		t.Errorf("Language = %q, want fr", res.Language)
	}
}

func TestTranscribeBatch_AnyFailureFailsBatch(t *testing.T) {
	t.Parallel()

	mock := newMockAudio()
	mock.responses["/a.wav"] = response("english", seg{Text: "ok"})
	mock.errs["/b.wav"] = []error{&openai.APIError{HTTPStatusCode: http.StatusBadRequest, Message: "invalid file"}}
	tr := transcribe.NewTestTranscriber(mock, fast()...)

	_, err := tr.TranscribeBatch(context.Background(), []transcribe.Sample{
		{Path: "/a.wav", Start: 0},
		{Path: "/b.wav", Start: 60},
	})
	if !errors.Is(err, apierr.ErrBadRequest) {
		t.Fatalf("TranscribeBatch() error = %v, want ErrBadRequest", err)
	}
	if !strings.Contains(err.Error(), "clip 1") {
		t.Errorf("error = %q, want mention of clip 1", err)
	}
}

func TestTranscribeBatch_Empty(t *testing.T) {
	t.Parallel()

	tr := transcribe.NewTestTranscriber(newMockAudio())
	res, err := tr.TranscribeBatch(context.Background(), nil)
	if err != nil || len(res.Segments) != 0 {
		t.Errorf("TranscribeBatch(nil) = %+v, %v", res, err)
	}
}

func TestTranscribeBatch_NoSegmentsIsNotAnError(t *testing.T) {
	t.Parallel()

	mock := newMockAudio()
	mock.responses["/a.wav"] = response("english")
	tr := transcribe.NewTestTranscriber(mock, fast(transcribe.WithLanguage("en"))...)

	res, err := tr.TranscribeBatch(context.Background(), []transcribe.Sample{{Path: "/a.wav"}})
	if err != nil {
		t.Fatalf("TranscribeBatch() unexpected error: %v", err)
	}
	if len(res.Segments) != 0 || res.Language != "en" {
		t.Errorf("result = %+v, want no segments and hint language", res)
	}
}

// ---------------------------------------------------------------------------
// TestMerge - ordering and deduplication
// ---------------------------------------------------------------------------

func TestMerge(t *testing.T) {
	t.Parallel()

	got := transcribe.Merge([][]transcribe.Segment{
		{{Time: 60, Text: "b"}, {Time: 62, Text: "c"}},
		{{Time: 0, Text: "a"}, {Time: 60, Text: "dup"}},
		{{Time: 62, Text: "dup2"}, {Time: 90, Text: "  "}, {Time: 100, Text: " d "}},
	})

	want := []transcribe.Segment{
		{Time: 0, Text: "a"},
		{Time: 60, Text: "b"},
		{Time: 62, Text: "c"},
		{Time: 100, Text: "d"},
	}
	if len(got) != len(want) {
		t.Fatalf("Merge() = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Merge()[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestMerge_Properties(t *testing.T) {
	t.Parallel()

	perClip := [][]transcribe.Segment{
		{{Time: 5, Text: "x"}, {Time: 3, Text: "y"}, {Time: 5, Text: "z"}},
		{{Time: 1, Text: "p"}, {Time: 3, Text: "q"}},
		{},
		{{Time: 8, Text: "r"}, {Time: 1, Text: "s"}},
	}
	got := transcribe.Merge(perClip)
	for i := 1; i < len(got); i++ {
		if got[i-1].Time >= got[i].Time {
			t.Errorf("Merge() not strictly ascending at %d: %+v", i, got)
		}
	}
	if got[0].Text != "p" || got[1].Text != "y" || got[2].Text != "x" {
		t.Errorf("Merge() kept the wrong duplicate: %+v", got)
	}
}

// ---------------------------------------------------------------------------
// TestClassifyError
// ---------------------------------------------------------------------------

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"api 429", &openai.APIError{HTTPStatusCode: 429, Message: "rate"}, apierr.ErrRateLimit},
		{"api 500", &openai.APIError{HTTPStatusCode: 500, Message: "oops"}, apierr.ErrTimeout},
		{"request 503", &openai.RequestError{HTTPStatusCode: 503, Err: errors.New("unavailable")}, apierr.ErrTimeout},
		{"deadline", context.DeadlineExceeded, apierr.ErrTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := transcribe.ClassifyError(tt.err); !errors.Is(got, tt.want) {
				t.Errorf("ClassifyError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}

	plain := errors.New("plain")
	if got := transcribe.ClassifyError(plain); got != plain {
		t.Errorf("ClassifyError(plain) = %v, want unchanged", got)
	}
}
