package sensor_test

import (
	"testing"

	"codeberg.org/mutker/energyd/internal/sensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fallingEdge(tick uint32) sensor.Event {
	return sensor.Event{Tick: tick, Level: 0}
}

func risingEdge(tick uint32) sensor.Event {
	return sensor.Event{Tick: tick, Level: 1}
}

func TestDecoderFirstEdgeSeeds(t *testing.T) {
	d := sensor.NewDecoder()

	_, ok := d.Decode(fallingEdge(1000))
	assert.False(t, ok, "Seeding edge must not produce an observation")

	o, ok := d.Decode(fallingEdge(61000))
	require.True(t, ok)
	assert.Equal(t, uint32(60000), o.IntervalUs)
}

func TestDecoderIgnoresRisingEdges(t *testing.T) {
	d := sensor.NewDecoder()

	_, ok := d.Decode(risingEdge(500))
	assert.False(t, ok)

	// Rising edges must not seed or advance the previous tick either.
	_, ok = d.Decode(fallingEdge(1000))
	assert.False(t, ok)

	_, ok = d.Decode(risingEdge(30000))
	assert.False(t, ok)

	o, ok := d.Decode(fallingEdge(61000))
	require.True(t, ok)
	assert.Equal(t, uint32(60000), o.IntervalUs)
}

func TestDecoderTickWraparound(t *testing.T) {
	d := sensor.NewDecoder()

	_, ok := d.Decode(fallingEdge(0xFFFFFFF0))
	require.False(t, ok)

	o, ok := d.Decode(fallingEdge(0x00000010))
	require.True(t, ok)
	assert.Equal(t, uint32(0x20), o.IntervalUs, "Interval across a counter wrap must be the modular difference")
}
