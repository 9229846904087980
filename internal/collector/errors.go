package collector

import "codeberg.org/mutker/energyd/internal/errors"

const (
	ErrInvalidConfig = errors.ErrorCode("collector_invalid_config")
	ErrFlushFailed   = errors.ErrorCode("collector_flush_failed")
)
