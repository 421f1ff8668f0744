package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alnah/go-chapters/internal/chapters"
	"github.com/alnah/go-chapters/internal/config"
	"github.com/alnah/go-chapters/internal/llm"
	"github.com/alnah/go-chapters/internal/pipeline"
	"github.com/alnah/go-chapters/internal/tools"
)

// ---------------------------------------------------------------------------
// syncBuffer - thread-safe bytes.Buffer for concurrent test output
// ---------------------------------------------------------------------------

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (n int, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

var _ io.Writer = (*syncBuffer)(nil)

// ---------------------------------------------------------------------------
// Mock ConfigLoader
// ---------------------------------------------------------------------------

type mockConfigLoader struct {
	cfg config.Config
	err error
}

func (m *mockConfigLoader) Load() (config.Config, error) {
	return m.cfg, m.err
}

// ---------------------------------------------------------------------------
// Mock ToolChecker
// ---------------------------------------------------------------------------

type mockToolChecker struct {
	paths      map[string]string
	versions   map[string]string
	versionErr error
}

func (m *mockToolChecker) Resolve(t tools.Tool) (string, error) {
	if p, ok := m.paths[t.Name]; ok {
		return p, nil
	}
	return "", tools.ErrNotFound
}

func (m *mockToolChecker) Version(_ context.Context, t tools.Tool, _ string) (string, error) {
	if m.versionErr != nil {
		return "", m.versionErr
	}
	return m.versions[t.Name], nil
}

// ---------------------------------------------------------------------------
// Mock Runner + PipelineFactory
// ---------------------------------------------------------------------------

type runCall struct {
	method   string
	videoID  string
	language string
	text     pipeline.TextInput
}

type mockRunner struct {
	result pipeline.Result
	err    error

	mu    sync.Mutex
	calls []runCall
}

func (m *mockRunner) record(c runCall, progress pipeline.ProgressFunc) (pipeline.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, c)
	m.mu.Unlock()
	progress(0, "Planning samples")
	if m.err != nil {
		return pipeline.Result{}, m.err
	}
	progress(100, "Done")
	return m.result, nil
}

func (m *mockRunner) Run(_ context.Context, videoID string, progress pipeline.ProgressFunc) (pipeline.Result, error) {
	return m.record(runCall{method: "Run", videoID: videoID}, progress)
}

func (m *mockRunner) RunText(_ context.Context, in pipeline.TextInput, progress pipeline.ProgressFunc) (pipeline.Result, error) {
	return m.record(runCall{method: "RunText", text: in}, progress)
}

func (m *mockRunner) RunCaptions(_ context.Context, videoID, language string, progress pipeline.ProgressFunc) (pipeline.Result, error) {
	return m.record(runCall{method: "RunCaptions", videoID: videoID, language: language}, progress)
}

func (m *mockRunner) Calls() []runCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]runCall(nil), m.calls...)
}

type mockPipelineFactory struct {
	runner *mockRunner
	err    error

	mu       sync.Mutex
	settings []PipelineSettings
	closed   int
}

func (m *mockPipelineFactory) NewPipeline(_ context.Context, s PipelineSettings) (Runner, func() error, error) {
	m.mu.Lock()
	m.settings = append(m.settings, s)
	m.mu.Unlock()
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.runner, func() error {
		m.mu.Lock()
		m.closed++
		m.mu.Unlock()
		return nil
	}, nil
}

func (m *mockPipelineFactory) LastSettings() PipelineSettings {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.settings) == 0 {
		return PipelineSettings{}
	}
	return m.settings[len(m.settings)-1]
}

func (m *mockPipelineFactory) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ---------------------------------------------------------------------------
// Mock ServerRunner
// ---------------------------------------------------------------------------

type mockServerRunner struct {
	addr   string
	runner Runner
	log    *slog.Logger
	err    error
}

func (m *mockServerRunner) Serve(_ context.Context, addr string, r Runner, log *slog.Logger) error {
	m.addr, m.runner, m.log = addr, r, log
	return m.err
}

// ---------------------------------------------------------------------------
// testEnv - creates a fully mocked Env for testing
// ---------------------------------------------------------------------------

type testMocks struct {
	stdout   *syncBuffer
	stderr   *syncBuffer
	config   *mockConfigLoader
	tools    *mockToolChecker
	factory  *mockPipelineFactory
	runner   *mockRunner
	server   *mockServerRunner
	getenv   map[string]string
	stdinTxt string
}

// testEnv creates a test Env with all dependencies mocked.
// Every API key is set unless a test overrides getenv.
func testEnv(configure ...func(*testMocks)) (*Env, *testMocks) {
	runner := &mockRunner{result: sampleResult()}
	m := &testMocks{
		stdout:  &syncBuffer{},
		stderr:  &syncBuffer{},
		config:  &mockConfigLoader{},
		tools:   &mockToolChecker{},
		factory: &mockPipelineFactory{runner: runner},
		runner:  runner,
		server:  &mockServerRunner{},
		getenv: map[string]string{
			llm.OpenAI.APIKeyEnv():   "test-openai-key",
			llm.Gemini.APIKeyEnv():   "test-gemini-key",
			llm.DeepSeek.APIKeyEnv(): "test-deepseek-key",
		},
	}
	for _, fn := range configure {
		fn(m)
	}

	env := &Env{
		Stdin:           strings.NewReader(m.stdinTxt),
		Stdout:          m.stdout,
		Stderr:          m.stderr,
		Getenv:          staticEnv(m.getenv),
		Now:             fixedTime(time.Date(2026, 1, 26, 14, 30, 52, 0, time.UTC)),
		ConfigLoader:    m.config,
		ToolChecker:     m.tools,
		PipelineFactory: m.factory,
		ServerRunner:    m.server,
	}
	return env, m
}

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

// fixedTime returns a function that always returns the given time.
func fixedTime(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// staticEnv returns a getenv function that returns values from the given map.
func staticEnv(env map[string]string) func(string) string {
	return func(key string) string {
		return env[key]
	}
}

// sampleResult is the canned pipeline result returned by mockRunner.
func sampleResult() pipeline.Result {
	return pipeline.Result{
		Chapters: []chapters.Chapter{
			{Time: "0:00", Title: "Introduction", Seconds: 0},
			{Time: "2:05", Title: "Setting up the project", Seconds: 125},
			{Time: "10:42", Title: "Deploying", Seconds: 642},
		},
		Language:         "en",
		ProcessedSeconds: 900,
		Source:           pipeline.SourceAudio,
	}
}
