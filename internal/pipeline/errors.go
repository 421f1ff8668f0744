package pipeline

import (
	"errors"
	"fmt"
)

// ErrVideoTooShort indicates the video is too short to yield any sample.
var ErrVideoTooShort = errors.New("video too short to sample")

// StageError records the stage a run failed in. It unwraps to the stage's
// sentinel, so errors.Is(err, extract.ErrExtractionFailed) still holds.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
