package sensor

import "codeberg.org/mutker/energyd/internal/errors"

const (
	// Initialization Errors
	ErrLineRequest = errors.ErrorCode("sensor_line_request_failed")
	ErrLineClose   = errors.ErrorCode("sensor_line_close_failed")
	ErrNotWatching = errors.ErrorCode("sensor_not_watching")
)
