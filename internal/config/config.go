package config

import (
	"os"
	"strings"

	"codeberg.org/mutker/energyd/internal/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const DefaultLogLevel = "info"

// Defaults match the original meter installation: a 1000 imp/kWh meter
// on GPIO 18 with 50ms contact-bounce suppression.
const (
	defaultGPIOChip     = "gpiochip0"
	defaultGPIOPin      = 18
	defaultGlitchUs     = 50000
	defaultMinWindowSec = 5
	defaultMaxWindowSec = 300
	defaultFlushSec     = 60
	defaultMaxBatch     = 5000
	defaultDatabasePath = "/var/lib/energyd/energy.db"
)

type Config struct {
	GPIOChip      string `mapstructure:"gpiochip"`
	GPIOPin       int    `mapstructure:"gpiopin"`
	Glitch        int    `mapstructure:"glitch"`        // microseconds
	MinWindow     int    `mapstructure:"minwindow"`     // seconds
	MaxWindow     int    `mapstructure:"maxwindow"`     // seconds, 0 disables
	FlushInterval int    `mapstructure:"flushinterval"` // seconds
	MaxBatch      int    `mapstructure:"maxbatch"`      // records
	Database      string `mapstructure:"database"`
	LogLevel      string `mapstructure:"log_level"`
}

// Load reads configuration from /etc/energyd.toml (or the file named by
// ENERGYD_CONFIG), then overrides file values with any flags given on
// the command line.
func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	v.SetDefault("gpiochip", defaultGPIOChip)
	v.SetDefault("gpiopin", defaultGPIOPin)
	v.SetDefault("glitch", defaultGlitchUs)
	v.SetDefault("minwindow", defaultMinWindowSec)
	v.SetDefault("maxwindow", defaultMaxWindowSec)
	v.SetDefault("flushinterval", defaultFlushSec)
	v.SetDefault("maxbatch", defaultMaxBatch)
	v.SetDefault("database", defaultDatabasePath)
	v.SetDefault("log_level", DefaultLogLevel)

	fs := pflag.NewFlagSet("energyd", pflag.ContinueOnError)
	fs.String("gpiochip", defaultGPIOChip, "GPIO character device name")
	fs.Int("gpiopin", defaultGPIOPin, "GPIO line offset of the pulse input")
	fs.Int("glitch", defaultGlitchUs, "Glitch threshold in microseconds")
	fs.Int("minwindow", defaultMinWindowSec, "Minimum aggregation window in seconds")
	fs.Int("maxwindow", defaultMaxWindowSec, "Maximum window ceiling in seconds (0 disables)")
	fs.Int("flushinterval", defaultFlushSec, "Seconds between database flushes")
	fs.Int("maxbatch", defaultMaxBatch, "Maximum buffered records before a forced flush")
	fs.String("database", defaultDatabasePath, "Path to the energy database")
	fs.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	if path := os.Getenv("ENERGYD_CONFIG"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("energyd")
		v.SetConfigType("toml")
		v.AddConfigPath("/etc")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err).
				WithMessage("Failed to read config file")
		}
	}

	// Flags given on the command line win over file values
	fs.Visit(func(f *pflag.Flag) {
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) Validate() error {
	errFactory := errors.New()

	switch c.LogLevel {
	case "debug", "info", "warning", "error":
	default:
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	if c.GPIOPin < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value int
		}{"gpiopin", c.GPIOPin})
	}

	if c.Glitch < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value int
		}{"glitch", c.Glitch})
	}

	if c.MinWindow < 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value int
		}{"minwindow", c.MinWindow})
	}

	if c.FlushInterval <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value int
		}{"flushinterval", c.FlushInterval})
	}

	if c.MaxBatch <= 0 {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value int
		}{"maxbatch", c.MaxBatch})
	}

	if c.Database == "" {
		return errFactory.WithData(errors.ErrInvalidConfig, struct {
			Field string
			Value string
		}{"database", c.Database})
	}

	return nil
}
