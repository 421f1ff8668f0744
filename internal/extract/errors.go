package extract

import "errors"

// ErrExtractionFailed indicates the downloader/transcoder pipe produced no usable clip.
var ErrExtractionFailed = errors.New("audio extraction failed")
