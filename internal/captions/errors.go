package captions

import "errors"

// ErrUnavailable indicates the video has no usable captions.
// Callers fall back to the audio path.
var ErrUnavailable = errors.New("captions unavailable")
