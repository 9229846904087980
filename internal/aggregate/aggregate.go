package aggregate

import (
	"time"

	"codeberg.org/mutker/energyd/internal/errors"
	"codeberg.org/mutker/energyd/internal/pulse"
)

const microsPerMilli = 1000

// Record is one closed aggregation window, keyed by the wall-clock
// second the window opened at.
type Record struct {
	Epoch         int64
	ElapsedMillis int64
	PulseCount    int64
}

// Watts returns the average load over the window for a 1000 imp/kWh
// meter: one pulse is one watt-hour.
func (r Record) Watts() float64 {
	if r.ElapsedMillis <= 0 {
		return 0
	}

	return float64(r.PulseCount) * 3600000.0 / float64(r.ElapsedMillis)
}

// Counters are lifetime diagnostics over everything the aggregator has
// seen.
type Counters struct {
	Inputs   int64
	Glitches int64
	Emitted  int64
}

// window is the single live accumulator. It exists only between seed
// and close.
type window struct {
	start      int64
	intervalUs uint64
	count      int64
}

// Aggregator folds an ordered stream of pulse observations into
// variable-length windows. A window opens at the first observation that
// survives the glitch filter and closes at the first observation whose
// timestamp is past the window's minimum length; every observation in
// between is folded in. Not safe for concurrent use; it belongs to the
// collector loop.
type Aggregator struct {
	cfg      Config
	open     bool
	win      window
	openedAt time.Time
	counters Counters
	clock    func() time.Time
}

func New(cfg Config) (*Aggregator, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	return &Aggregator{
		cfg:   cfg,
		clock: time.Now,
	}, nil
}

// Observe processes one observation in arrival order. The returned bool
// is true when the observation closed a window, in which case the
// record for that window is returned and the observation has seeded the
// next one.
func (a *Aggregator) Observe(o pulse.Observation) (Record, bool) {
	a.counters.Inputs++

	if o.IntervalUs < a.cfg.GlitchThresholdUs {
		a.counters.Glitches++

		return Record{}, false
	}

	if !a.open {
		a.seed(o)

		return Record{}, false
	}

	if o.Timestamp <= a.win.start+a.cfg.MinWindowSec {
		a.fold(o)

		return Record{}, false
	}

	rec := a.close()
	a.seed(o)

	return rec, true
}

// Drain closes and returns the open window, if any. Called once at
// shutdown so no partial window is lost.
func (a *Aggregator) Drain() (Record, bool) {
	if !a.open {
		return Record{}, false
	}

	return a.close(), true
}

// Expire force-closes a window that has been open longer than the
// configured ceiling, measured against the monotonic clock. This bounds
// window length under sparse input and clock steps, where the normal
// close condition might not fire for a long time or at all.
func (a *Aggregator) Expire() (Record, bool) {
	if !a.open || a.cfg.MaxWindowSec <= 0 {
		return Record{}, false
	}

	if a.clock().Sub(a.openedAt) <= time.Duration(a.cfg.MaxWindowSec)*time.Second {
		return Record{}, false
	}

	return a.close(), true
}

// Counters returns a snapshot of the lifetime diagnostics.
func (a *Aggregator) Counters() Counters {
	return a.counters
}

func (a *Aggregator) seed(o pulse.Observation) {
	a.win = window{
		start:      o.Timestamp,
		intervalUs: uint64(o.IntervalUs),
		count:      1,
	}
	a.openedAt = a.clock()
	a.open = true
}

func (a *Aggregator) fold(o pulse.Observation) {
	a.win.intervalUs += uint64(o.IntervalUs)
	a.win.count++
}

func (a *Aggregator) close() Record {
	rec := Record{
		Epoch:         a.win.start,
		ElapsedMillis: int64((a.win.intervalUs + microsPerMilli/2) / microsPerMilli),
		PulseCount:    a.win.count,
	}

	a.win = window{}
	a.open = false
	a.counters.Emitted++

	return rec
}
