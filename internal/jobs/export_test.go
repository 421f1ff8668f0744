package jobs

import "time"

// Runner exposes the runner seam for test doubles.
type Runner = runner

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDFunc overrides job ID generation.
func WithIDFunc(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

var Normalize = normalize
