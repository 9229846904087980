package sensor

// Event is one raw edge transition of the meter's pulse line, stamped
// with the 32-bit microsecond hardware tick. The tick counter wraps
// roughly every 72 minutes.
type Event struct {
	Tick  uint32
	Level int
}

// Source delivers edge events from its own goroutine. The handler runs
// on the delivery path and must not block or perform I/O.
type Source interface {
	Watch(handler func(Event)) error
	Close() error
}
