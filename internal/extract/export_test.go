package extract

import "context"

// Command exposes command for black-box tests.
type Command = command

// PipeResult exposes pipeResult for black-box tests.
type PipeResult = pipeResult

// FFmpegTime exposes ffmpegTime for testing.
func FFmpegTime(secs float64) string { return ffmpegTime(secs) }

// WithNameFunc overrides clip name generation.
func WithNameFunc(fn func() (string, error)) Option {
	return func(e *Extractor) { e.newName = fn }
}

// RunPipe runs producer into consumer with the OS pipe runner.
func RunPipe(ctx context.Context, producer, consumer Command) PipeResult {
	return osPipeRunner{}.RunPipe(ctx, producer, consumer)
}
