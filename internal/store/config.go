package store

import "codeberg.org/mutker/energyd/internal/errors"

const (
	defaultDirPerm = 0o755
	defaultDBPath  = "/var/lib/energyd/energy.db"
)

type Config struct {
	DBPath string
}

func DefaultConfig() Config {
	return Config{
		DBPath: defaultDBPath,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()
	if c.DBPath == "" {
		return errFactory.New(ErrInvalidDBPath)
	}
	return nil
}
