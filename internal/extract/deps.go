package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/alnah/go-chapters/internal/tools"
)

// command is an external process invocation.
type command struct {
	Path string
	Args []string
}

// pipeResult reports how both ends of a pipe exited.
type pipeResult struct {
	ProducerErr    error
	ProducerStderr string
	ConsumerErr    error
	ConsumerStderr string
}

// pipeRunner runs producer with its stdout connected to consumer's stdin.
type pipeRunner interface {
	RunPipe(ctx context.Context, producer, consumer command) pipeResult
}

// binaryResolver locates an external binary at call time.
type binaryResolver interface {
	Resolve(t tools.Tool) (string, error)
}

// fileOps abstracts the filesystem operations on clip files.
type fileOps interface {
	Stat(name string) (os.FileInfo, error)
	Remove(name string) error
}

var (
	_ pipeRunner     = osPipeRunner{}
	_ binaryResolver = (*tools.Resolver)(nil)
	_ fileOps        = osFileOps{}
)

// ---------------------------------------------------------------------------
// Default implementations
// ---------------------------------------------------------------------------

// osPipeRunner connects two processes with an OS pipe. Nothing is staged on
// disk: the transcoder reads the downloader's stream as it arrives.
type osPipeRunner struct{}

func (osPipeRunner) RunPipe(ctx context.Context, producer, consumer command) pipeResult {
	var res pipeResult

	pr, pw, err := os.Pipe()
	if err != nil {
		res.ConsumerErr = fmt.Errorf("create pipe: %w", err)
		return res
	}

	var prodStderr, consStderr bytes.Buffer

	// #nosec G204 -- paths come from tools.Resolver, args are built by the extractor
	prod := exec.CommandContext(ctx, producer.Path, producer.Args...)
	prod.Stdout = pw
	prod.Stderr = &prodStderr

	// #nosec G204 -- see above
	cons := exec.CommandContext(ctx, consumer.Path, consumer.Args...)
	cons.Stdin = pr
	cons.Stderr = &consStderr

	if err := cons.Start(); err != nil {
		_ = pr.Close()
		_ = pw.Close()
		res.ConsumerErr = fmt.Errorf("start %s: %w", consumer.Path, err)
		return res
	}
	_ = pr.Close()

	if err := prod.Start(); err != nil {
		_ = pw.Close()
		_ = cons.Wait()
		res.ProducerErr = fmt.Errorf("start %s: %w", producer.Path, err)
		res.ConsumerErr = res.ProducerErr
		res.ConsumerStderr = consStderr.String()
		return res
	}
	_ = pw.Close()

	res.ConsumerErr = cons.Wait()

	// The transcoder stops reading once it has its window; the downloader
	// would otherwise keep streaming the rest of the video.
	_ = prod.Process.Kill()
	res.ProducerErr = prod.Wait()

	res.ProducerStderr = prodStderr.String()
	res.ConsumerStderr = consStderr.String()
	return res
}

type osFileOps struct{}

func (osFileOps) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

func (osFileOps) Remove(name string) error {
	return os.Remove(name)
}
