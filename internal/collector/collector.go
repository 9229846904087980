package collector

import (
	"context"
	"time"

	"codeberg.org/mutker/energyd/internal/aggregate"
	"codeberg.org/mutker/energyd/internal/errors"
	"codeberg.org/mutker/energyd/internal/logger"
	"codeberg.org/mutker/energyd/internal/pulse"
	"codeberg.org/mutker/energyd/internal/store"
)

const defaultIdleSleep = 200 * time.Millisecond

type Config struct {
	FlushInterval time.Duration
	MaxBatch      int
	IdleSleep     time.Duration
}

func (c Config) Validate() error {
	errFactory := errors.New()

	if c.FlushInterval <= 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			Field string
			Value time.Duration
		}{"flushinterval", c.FlushInterval})
	}

	if c.MaxBatch <= 0 {
		return errFactory.WithData(ErrInvalidConfig, struct {
			Field string
			Value int
		}{"maxbatch", c.MaxBatch})
	}

	return nil
}

// Collector is the control loop. It exclusively owns the aggregator,
// the pending batch and the repository connection; the queue is the
// only structure shared with the edge callback goroutine.
type Collector struct {
	cfg   Config
	queue *pulse.Queue
	agg   *aggregate.Aggregator
	repo  store.Repository

	batch     []aggregate.Record
	lastFlush time.Time
	clock     func() time.Time

	// inputs processed since the last flush, for the per-flush summary
	blockInputs int64
}

func New(cfg Config, queue *pulse.Queue, agg *aggregate.Aggregator, repo store.Repository) (*Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	if cfg.IdleSleep <= 0 {
		cfg.IdleSleep = defaultIdleSleep
	}

	return &Collector{
		cfg:   cfg,
		queue: queue,
		agg:   agg,
		repo:  repo,
		batch: make([]aggregate.Record, 0, cfg.MaxBatch),
		clock: time.Now,
	}, nil
}

// Run consumes the queue until ctx is cancelled, then drains the queue,
// the open window and the batch before returning. It returns an error
// only when a flush fails; persistence failure is fatal by design.
// Stop is cooperative: ctx only gates the loop, never an in-flight
// write, so a flush that has started always runs to completion.
func (c *Collector) Run(ctx context.Context) error {
	c.lastFlush = c.clock()

	for {
		select {
		case <-ctx.Done():
			return c.shutdown()
		default:
		}

		// The window ceiling is checked every pass: a sustained glitch
		// stream keeps the queue non-empty without ever closing the
		// window on its own.
		if rec, ok := c.agg.Expire(); ok {
			c.buffer(rec)
		}

		o, ok := c.queue.Pop()
		if !ok {
			// Time-based flush must fire even during input silence.
			if err := c.maybeFlush(); err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return c.shutdown()
			case <-time.After(c.cfg.IdleSleep):
			}

			continue
		}

		c.observe(o)

		if err := c.maybeFlush(); err != nil {
			return err
		}
	}
}

// shutdown drains whatever is already queued, emits the open window and
// performs one final unconditional flush.
func (c *Collector) shutdown() error {
	for {
		o, ok := c.queue.Pop()
		if !ok {
			break
		}
		c.observe(o)
	}

	if rec, ok := c.agg.Drain(); ok {
		c.buffer(rec)
	}

	if err := c.flush(); err != nil {
		return err
	}

	counters := c.agg.Counters()
	logger.Info().
		Int64("inputs", counters.Inputs).
		Int64("glitches", counters.Glitches).
		Int64("windows", counters.Emitted).
		Msg("Collector stopped")

	return nil
}

func (c *Collector) observe(o pulse.Observation) {
	c.blockInputs++

	logger.Debug().
		Int64("timestamp", o.Timestamp).
		Uint32("interval_us", o.IntervalUs).
		Msg("Input")

	if rec, ok := c.agg.Observe(o); ok {
		c.buffer(rec)
	}
}

func (c *Collector) buffer(rec aggregate.Record) {
	c.batch = append(c.batch, rec)

	logger.Info().
		Int64("epoch", rec.Epoch).
		Int64("dt_ms", rec.ElapsedMillis).
		Int64("pulses", rec.PulseCount).
		Float64("load_w", rec.Watts()).
		Msg("Window closed")
}

func (c *Collector) maybeFlush() error {
	if len(c.batch) >= c.cfg.MaxBatch || c.clock().Sub(c.lastFlush) >= c.cfg.FlushInterval {
		return c.flush()
	}

	return nil
}

// flush writes on a fresh context rather than the run context: a stop
// signal arriving mid-write must let the write complete, not abort it.
func (c *Collector) flush() error {
	errFactory := errors.New()

	if len(c.batch) == 0 {
		c.lastFlush = c.clock()
		return nil
	}

	if err := c.repo.Store(context.Background(), c.batch); err != nil {
		return errFactory.Wrap(ErrFlushFailed, err)
	}

	logger.Info().
		Int("records", len(c.batch)).
		Int64("inputs", c.blockInputs).
		Msg("Flushed records to database")

	c.batch = c.batch[:0]
	c.lastFlush = c.clock()
	c.blockInputs = 0

	return nil
}
