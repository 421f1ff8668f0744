package jobs

import "errors"

var (
	// ErrBusy indicates a job is already running. Only one runs at a time.
	ErrBusy = errors.New("a job is already running")

	// ErrInvalidRequest indicates a request names neither or both of a video
	// and a transcript, or carries an unusable value.
	ErrInvalidRequest = errors.New("invalid job request")

	// ErrNotFound indicates no job has the given ID.
	ErrNotFound = errors.New("job not found")
)
