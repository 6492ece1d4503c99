package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates malformed initial geometry or parameters.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrNonFinite indicates a NaN or Inf entered a vertex or particle.
	ErrNonFinite = errors.New("dynamo: non-finite state (NaN or Inf detected)")

	// ErrTopology indicates a body references a vertex index it does not own.
	ErrTopology = errors.New("dynamo: vertex index out of range")

	// ErrWorkerFault indicates a parallel task panicked.
	ErrWorkerFault = errors.New("dynamo: worker task faulted")

	// ErrHalted indicates the simulator refused a frame after an earlier failure.
	ErrHalted = errors.New("dynamo: simulation halted after a failed frame")

	// ErrQuit indicates the frame loop stopped because quit was requested.
	ErrQuit = errors.New("dynamo: quit requested")
)

// Phase names the part of a frame in which an error happened.
type Phase string

const (
	PhaseSetup       Phase = "setup"
	PhaseIntegrating Phase = "integrating"
	PhaseParticles   Phase = "particles"
	PhaseResolving   Phase = "resolving"
)

// SimulationError wraps an error with frame context.
type SimulationError struct {
	Frame   int
	Time    float64
	Phase   Phase
	Entity  string
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("frame %d (t=%.4f) %s %s: %v", e.Frame, e.Time, e.Phase, e.Entity, e.Wrapped)
	}
	return fmt.Sprintf("frame %d (t=%.4f) %s: %v", e.Frame, e.Time, e.Phase, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
