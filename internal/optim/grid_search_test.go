package optim

import (
	"context"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/san-kum/polarsim/internal/config"
)

func quiet() *log.Logger { return log.New(io.Discard) }

func pair(frames int) *config.Config {
	cfg := config.GetPreset("pair")
	cfg.Frames = frames
	return cfg
}

func TestGridSearchPicksWeakestAttraction(t *testing.T) {
	g, err := NewGridSearch(
		[]string{"k", "restitution"},
		[][]float64{{1e-2, 1e-3}, {0, 0.5}},
		quiet(),
	)
	if err != nil {
		t.Fatal(err)
	}

	best, trials, err := g.Search(context.Background(), pair(30), "max_speed")
	if err != nil {
		t.Fatal(err)
	}
	if len(trials) != 4 {
		t.Fatalf("trials = %d, want 4", len(trials))
	}
	if best.Params["k"] != 1e-3 {
		t.Errorf("best k = %v, want 1e-3", best.Params["k"])
	}
	if best.Value <= 0 {
		t.Errorf("best max_speed = %v, want > 0", best.Value)
	}
	for _, tr := range trials {
		if tr.Err != nil {
			t.Errorf("trial %v failed: %v", tr.Params, tr.Err)
		}
	}
}

func TestGridSearchBaseUntouched(t *testing.T) {
	base := pair(5)
	g, _ := NewGridSearch([]string{"damping"}, [][]float64{{0.5}}, quiet())
	if _, _, err := g.Search(context.Background(), base, "kinetic_energy"); err != nil {
		t.Fatal(err)
	}
	if base.Law.Damping != 0 {
		t.Errorf("base damping = %v, want 0", base.Law.Damping)
	}
}

func TestGridSearchRejectedTrials(t *testing.T) {
	g, _ := NewGridSearch([]string{"dt"}, [][]float64{{-1}}, quiet())
	_, trials, err := g.Search(context.Background(), pair(5), "max_speed")
	if err == nil {
		t.Fatal("expected error when every trial is rejected")
	}
	if len(trials) != 1 || trials[0].Err == nil {
		t.Errorf("trials = %+v, want one rejected trial", trials)
	}
}

func TestGridSearchErrors(t *testing.T) {
	if _, err := NewGridSearch([]string{"bogus"}, [][]float64{{1}}, nil); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if _, err := NewGridSearch([]string{"k"}, nil, nil); err == nil {
		t.Error("expected error for missing range")
	}
	if _, err := NewGridSearch([]string{"k"}, [][]float64{{}}, nil); err == nil {
		t.Error("expected error for empty range")
	}

	g, _ := NewGridSearch([]string{"k"}, [][]float64{{1e-3}}, quiet())
	if _, _, err := g.Search(context.Background(), pair(5), "no_such_metric"); err == nil {
		t.Error("expected error for unknown metric")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := g.Search(ctx, pair(5), "max_speed"); err != context.Canceled {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestParamNamesSorted(t *testing.T) {
	names := ParamNames()
	if len(names) != len(Setters) {
		t.Fatalf("len = %d, want %d", len(names), len(Setters))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("not sorted at %d: %v", i, names)
		}
	}
}
