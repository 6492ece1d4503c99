package sim

import "github.com/go-gl/mathgl/mgl64"

// Input is the discrete signal set consumed from the input collaborator for
// one frame.
type Input struct {
	Impulse bool
	Quit    bool
}

// InputSource reports the input state at the start of a frame.
type InputSource interface {
	Poll() Input
}

// NoInput never requests an impulse or quit.
type NoInput struct{}

func (NoInput) Poll() Input { return Input{} }

// Metric accumulates a scalar over resolved frames.
type Metric interface {
	Name() string
	Observe(s *Snapshot)
	Value() float64
	Reset()
}

// Observer is notified after every resolved frame. The snapshot is only valid
// for the duration of the call.
type Observer interface {
	OnFrame(s *Snapshot)
}

// DefaultImpulse is the per-vertex velocity nudge applied when Input.Impulse
// is set.
var DefaultImpulse = mgl64.Vec3{0, 0.1, 0}

// FrameReport describes one Step call.
type FrameReport struct {
	Frame          int
	Time           float64
	Dt             float64
	Skipped        bool
	Contacts       int
	Iterations     int
	Penetration    float64
	StaticContacts int
}

// Result summarises a Run.
type Result struct {
	Frames  int
	Skipped int
	Time    float64
	Metrics map[string]float64
	Final   *Snapshot
}
