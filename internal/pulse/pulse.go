package pulse

import "sync"

// Observation is one debounce-candidate meter pulse: the wall-clock second
// it was recorded at and the elapsed hardware ticks since the previous
// pulse. The interval is a modular difference over the 32-bit microsecond
// tick counter, so it stays correct across a counter wrap.
type Observation struct {
	Timestamp  int64
	IntervalUs uint32
}

// Queue is a FIFO hand-off of observations from the edge callback
// goroutine to the collector loop. Push never blocks; the queue grows as
// needed so the callback path is free of waits. Single producer, single
// consumer.
type Queue struct {
	mu    sync.Mutex
	items []Observation
}

func NewQueue() *Queue {
	return &Queue{}
}

// Push appends an observation in arrival order.
func (q *Queue) Push(o Observation) {
	q.mu.Lock()
	q.items = append(q.items, o)
	q.mu.Unlock()
}

// Pop removes and returns the oldest observation. It never blocks; the
// second return value is false when the queue is empty.
func (q *Queue) Pop() (Observation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return Observation{}, false
	}

	o := q.items[0]
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}

	return o, true
}

// Len returns the number of pending observations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.items)
}
