package sim

import (
	"math"
	"time"
)

const defaultMaxDt = 0.05

// Clock sanitises frame deltas from an untrusted time source.
type Clock struct {
	// MaxDt caps deltas inflated by a stall. Zero means the default cap.
	MaxDt float64
}

func DefaultClock() Clock {
	return Clock{MaxDt: defaultMaxDt}
}

// Sanitize returns the delta to integrate with, or false when the frame must
// be skipped (zero, negative or non-finite delta).
func (c Clock) Sanitize(raw float64) (float64, bool) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw <= 0 {
		return 0, false
	}
	limit := c.MaxDt
	if math.IsNaN(limit) || math.IsInf(limit, 0) || limit <= 0 {
		limit = defaultMaxDt
	}
	if raw > limit {
		return limit, true
	}
	return raw, true
}

// TimeSource delivers the elapsed time for each frame tick in seconds.
type TimeSource interface {
	Next() float64
}

// FixedStep always reports the same delta.
type FixedStep float64

func (f FixedStep) Next() float64 { return float64(f) }

// Sequence replays a fixed list of deltas, then repeats the last one.
type Sequence struct {
	deltas []float64
	i      int
}

func NewSequence(deltas ...float64) *Sequence {
	return &Sequence{deltas: deltas}
}

func (s *Sequence) Next() float64 {
	if len(s.deltas) == 0 {
		return 0
	}
	if s.i >= len(s.deltas) {
		return s.deltas[len(s.deltas)-1]
	}
	d := s.deltas[s.i]
	s.i++
	return d
}

// WallClock measures real elapsed time between calls. The first call
// reports zero.
type WallClock struct {
	last time.Time
	now  func() time.Time
}

func NewWallClock() *WallClock {
	return &WallClock{now: time.Now}
}

func (w *WallClock) Next() float64 {
	t := w.now()
	if w.last.IsZero() {
		w.last = t
		return 0
	}
	d := t.Sub(w.last).Seconds()
	w.last = t
	return d
}
