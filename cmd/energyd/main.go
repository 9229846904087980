package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/mutker/energyd/internal/aggregate"
	"codeberg.org/mutker/energyd/internal/collector"
	"codeberg.org/mutker/energyd/internal/config"
	"codeberg.org/mutker/energyd/internal/logger"
	"codeberg.org/mutker/energyd/internal/pid"
	"codeberg.org/mutker/energyd/internal/pulse"
	"codeberg.org/mutker/energyd/internal/sensor"
	"codeberg.org/mutker/energyd/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(cfg.LogLevel, logger.IsService())
	logger.Debug().Msg("Config loaded")

	if err := run(cfg); err != nil {
		logger.Error().Err(err).Msg("Collector terminated")
		os.Exit(1)
	}

	logger.Info().Msg("Exiting...")
}

func run(cfg *config.Config) error {
	if err := pid.Write(); err != nil {
		return err
	}
	defer func() {
		if err := pid.Remove(); err != nil {
			logger.Error().Err(err).Msg("Failed to remove PID file")
		}
	}()

	repo, err := store.NewRepository(store.Config{DBPath: cfg.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close repository")
		}
	}()

	agg, err := aggregate.New(aggregate.Config{
		GlitchThresholdUs: uint32(cfg.Glitch),
		MinWindowSec:      int64(cfg.MinWindow),
		MaxWindowSec:      int64(cfg.MaxWindow),
	})
	if err != nil {
		return err
	}

	queue := pulse.NewQueue()
	decoder := sensor.NewDecoder()

	// The watch handler runs on the event delivery goroutine: decode
	// and enqueue only, everything else happens on the collector loop.
	line := sensor.NewLine(cfg.GPIOChip, cfg.GPIOPin)
	if err := line.Watch(func(e sensor.Event) {
		if o, ok := decoder.Decode(e); ok {
			queue.Push(o)
		}
	}); err != nil {
		return err
	}
	defer func() {
		if err := line.Close(); err != nil {
			logger.Error().Err(err).Msg("Failed to close pulse line")
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleSignals(cancel)

	c, err := collector.New(collector.Config{
		FlushInterval: time.Duration(cfg.FlushInterval) * time.Second,
		MaxBatch:      cfg.MaxBatch,
	}, queue, agg, repo)
	if err != nil {
		return err
	}

	return c.Run(ctx)
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal.")
	cancel()
}
