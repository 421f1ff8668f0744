package probe

import "errors"

// ErrDurationUnavailable indicates neither the metadata fetch nor the
// downloader could report a positive duration.
var ErrDurationUnavailable = errors.New("duration unavailable")
