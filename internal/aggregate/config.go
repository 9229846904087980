package aggregate

import "codeberg.org/mutker/energyd/internal/errors"

type Config struct {
	GlitchThresholdUs uint32
	MinWindowSec      int64
	MaxWindowSec      int64 // 0 disables the ceiling
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.MinWindowSec < 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			Field string
			Value int64
		}{"minwindow", c.MinWindowSec})
	}

	if c.MaxWindowSec < 0 || (c.MaxWindowSec > 0 && c.MaxWindowSec <= c.MinWindowSec) {
		return errFactory.WithData(ErrInvalidConfig, struct {
			Field string
			Value int64
		}{"maxwindow", c.MaxWindowSec})
	}

	return nil
}
