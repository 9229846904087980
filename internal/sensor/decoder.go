package sensor

import (
	"time"

	"codeberg.org/mutker/energyd/internal/pulse"
)

// Decoder turns raw edge events into pulse observations. Only falling
// edges count; the S0 output pulls the line low for each pulse, so the
// rising edge is just the release. The very first falling edge seeds the
// previous-tick state and yields no observation.
type Decoder struct {
	previousTick uint32
	seeded       bool
	now          func() int64
}

func NewDecoder() *Decoder {
	return &Decoder{
		now: func() int64 { return time.Now().Unix() },
	}
}

// Decode filters and timestamps an edge event. The returned bool is
// false when the event produced no observation (wrong polarity or the
// seeding edge). Not safe for concurrent use; it belongs to the event
// delivery goroutine.
func (d *Decoder) Decode(e Event) (pulse.Observation, bool) {
	if e.Level != 0 {
		return pulse.Observation{}, false
	}

	if !d.seeded {
		d.previousTick = e.Tick
		d.seeded = true

		return pulse.Observation{}, false
	}

	// uint32 subtraction wraps, which is exactly the modular difference
	// the tick counter requires.
	interval := e.Tick - d.previousTick
	d.previousTick = e.Tick

	return pulse.Observation{
		Timestamp:  d.now(),
		IntervalUs: interval,
	}, true
}
