package extract

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// Clip is a transient mono 16kHz WAV file holding one sampled interval.
// The holder must call Cleanup; it is safe to call more than once and from
// several goroutines.
type Clip struct {
	Path     string
	Start    float64 // seconds into the source video
	Duration float64

	once   sync.Once
	err    error
	remove func(string) error
}

// NewClip wraps an existing file as a Clip. remove deletes the file on
// Cleanup; nil uses os.Remove.
func NewClip(path string, start, duration float64, remove func(string) error) *Clip {
	if remove == nil {
		remove = os.Remove
	}
	return &Clip{Path: path, Start: start, Duration: duration, remove: remove}
}

// Cleanup deletes the clip file. Only the first call does any work.
func (c *Clip) Cleanup() error {
	c.once.Do(func() {
		if c.remove == nil {
			return
		}
		if err := c.remove(c.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			c.err = fmt.Errorf("remove clip %s: %w", c.Path, err)
		}
	})
	return c.err
}

// String returns a human-readable representation for logging.
func (c *Clip) String() string {
	return fmt.Sprintf("clip %.1fs+%.1fs", c.Start, c.Duration)
}

// CleanupAll releases every clip and joins the errors.
func CleanupAll(clips []*Clip) error {
	var errs []error
	for _, c := range clips {
		if c == nil {
			continue
		}
		if err := c.Cleanup(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
