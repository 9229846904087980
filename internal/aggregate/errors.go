package aggregate

import "codeberg.org/mutker/energyd/internal/errors"

const (
	ErrInvalidConfig = errors.ErrorCode("aggregate_invalid_config")
)
