package probe

import (
	"context"

	"github.com/kkdai/youtube/v2"

	"github.com/alnah/go-chapters/internal/tools"
)

// videoMetadata fetches video metadata in-process.
type videoMetadata interface {
	GetVideoContext(ctx context.Context, id string) (*youtube.Video, error)
}

// binaryResolver locates an external binary at call time.
type binaryResolver interface {
	Resolve(t tools.Tool) (string, error)
}

// outputRunner runs a binary and returns its stdout.
type outputRunner interface {
	Output(ctx context.Context, path string, args ...string) (string, error)
}

var (
	_ videoMetadata  = (*youtube.Client)(nil)
	_ binaryResolver = (*tools.Resolver)(nil)
	_ outputRunner   = (*tools.Executor)(nil)
)
