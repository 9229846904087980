package sensor

import (
	"codeberg.org/mutker/energyd/internal/errors"
	"codeberg.org/mutker/energyd/internal/logger"
	"github.com/warthog618/go-gpiocdev"
)

// Line is a Source backed by the kernel GPIO character device. The S0
// pulse output is open-collector, so the line is requested with an
// internal pull-up and watched on both edges; polarity selection is the
// Decoder's job.
type Line struct {
	chip   string
	offset int
	line   *gpiocdev.Line
}

func NewLine(chip string, offset int) *Line {
	return &Line{
		chip:   chip,
		offset: offset,
	}
}

func (l *Line) Watch(handler func(Event)) error {
	errFactory := errors.New()

	line, err := gpiocdev.RequestLine(l.chip, l.offset,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			level := 1
			if evt.Type == gpiocdev.LineEventFallingEdge {
				level = 0
			}
			handler(Event{
				Tick:  uint32(evt.Timestamp.Microseconds()),
				Level: level,
			})
		}))
	if err != nil {
		return errFactory.WithData(ErrLineRequest, struct {
			Chip   string
			Offset int
			Error  string
		}{
			Chip:   l.chip,
			Offset: l.offset,
			Error:  err.Error(),
		})
	}

	l.line = line

	logger.Info().
		Str("chip", l.chip).
		Int("offset", l.offset).
		Msg("Watching pulse line")

	return nil
}

func (l *Line) Close() error {
	errFactory := errors.New()

	if l.line == nil {
		return errFactory.New(ErrNotWatching)
	}

	if err := l.line.Close(); err != nil {
		return errFactory.Wrap(ErrLineClose, err)
	}

	return nil
}
