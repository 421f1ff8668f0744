package tools

import "errors"

// ErrNotFound indicates an external binary could not be located.
var ErrNotFound = errors.New("binary not found")

// ErrCommandFailed indicates an external binary exited with an error.
var ErrCommandFailed = errors.New("command failed")
