package metrics

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/polarsim/internal/sim"
)

// Row is one recorded frame.
type Row struct {
	Time        float64
	Kinetic     float64
	Momentum    mgl64.Vec3
	MaxSpeed    float64
	Penetration float64
}

// Recorder is a sim.Observer that keeps one Row per resolved frame, sampling
// every Every-th frame when Every > 1.
type Recorder struct {
	Every int
	Rows  []Row
}

func NewRecorder(every int) *Recorder {
	return &Recorder{Every: every}
}

func (r *Recorder) OnFrame(s *sim.Snapshot) {
	if r.Every > 1 && s.Frame%r.Every != 0 {
		return
	}
	r.Rows = append(r.Rows, Row{
		Time:        s.Time,
		Kinetic:     Kinetic(s),
		Momentum:    ParticleMomentum(s),
		MaxSpeed:    PeakSpeed(s),
		Penetration: Overlap(s),
	})
}

// Series extracts one column for plotting.
func (r *Recorder) Series(col func(Row) float64) []float64 {
	out := make([]float64, len(r.Rows))
	for i, row := range r.Rows {
		out[i] = col(row)
	}
	return out
}
