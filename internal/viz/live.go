package viz

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/polarsim/internal/dynamo"
	"github.com/san-kum/polarsim/internal/metrics"
	"github.com/san-kum/polarsim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	tickRate        = time.Second / 100
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Keys turns terminal key presses into the simulator's input signals.
// Signals latch until the next Poll.
type Keys struct {
	impulse bool
	quit    bool
}

func (k *Keys) Poll() sim.Input {
	in := sim.Input{Impulse: k.impulse, Quit: k.quit}
	k.impulse = false
	return in
}

// Model drives a Simulator from bubbletea ticks and renders each resolved
// frame. Rendering only reads a snapshot taken after the frame returned.
type Model struct {
	sim     *sim.Simulator
	clock   sim.TimeSource
	keys    *Keys
	canvas  *Canvas
	camera  *Camera
	snap    *sim.Snapshot
	report  sim.FrameReport
	energy  []float64
	overlap []float64
	err     error
	paused  bool
	done    bool
	help    bool
	title   string
}

func NewModel(s *sim.Simulator, title string) Model {
	m := Model{
		sim:     s,
		clock:   sim.NewWallClock(),
		keys:    &Keys{},
		canvas:  NewCanvas(width, height),
		camera:  NewCamera(),
		snap:    s.Snapshot(),
		energy:  make([]float64, 0, historyCapacity),
		overlap: make([]float64, 0, historyCapacity),
		title:   title,
	}
	m.camera.Fit(m.snap)
	m.draw()
	return m
}

// WithTimeSource replaces the wall clock, mainly for tests.
func (m Model) WithTimeSource(ts sim.TimeSource) Model {
	m.clock = ts
	return m
}

// Err reports the failure that halted the simulator, if any.
func (m Model) Err() error { return m.err }

func (m Model) Snapshot() *sim.Snapshot { return m.snap }

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.keys.quit = true
			if m.paused || m.err != nil {
				m.done = true
				return m, tea.Quit
			}
		case "u":
			m.keys.impulse = true
		case " ":
			m.paused = !m.paused
		case "left", "h":
			m.camera.RotateYaw(-0.1)
		case "right", "l":
			m.camera.RotateYaw(0.1)
		case "up", "k":
			m.camera.RotatePitch(0.1)
		case "down", "j":
			m.camera.RotatePitch(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "f":
			m.camera.Fit(m.snap)
		case "t":
			NextTheme()
		case "?":
			m.help = !m.help
		}
		m.draw()
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		if m.paused || m.err != nil {
			return m, tick()
		}
		return m.step()
	}
	return m, nil
}

func (m Model) step() (tea.Model, tea.Cmd) {
	rep, err := m.sim.Step(m.clock.Next(), m.keys.Poll())
	switch {
	case errors.Is(err, dynamo.ErrQuit):
		m.done = true
		return m, tea.Quit
	case err != nil:
		m.err = err
		m.draw()
		return m, tick()
	}

	m.report = rep
	if !rep.Skipped {
		m.snap = m.sim.Snapshot()
		m.energy = appendCapped(m.energy, metrics.Kinetic(m.snap))
		m.overlap = appendCapped(m.overlap, rep.Penetration)
		m.draw()
	}
	return m, tick()
}

func appendCapped(xs []float64, v float64) []float64 {
	if len(xs) == historyCapacity {
		copy(xs, xs[1:])
		xs = xs[:len(xs)-1]
	}
	return append(xs, v)
}

func (m *Model) draw() {
	DrawSnapshot(m.canvas, m.camera, m.snap)
}

func (m Model) View() string {
	left := canvasStyle.Render(m.canvas.Render(PenStyles()))
	right := statsStyle.Render(m.stats())
	view := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	if len(m.energy) > 1 {
		plot := asciigraph.Plot(m.energy,
			asciigraph.Height(6),
			asciigraph.Width(width),
			asciigraph.Caption("kinetic energy"))
		view = lipgloss.JoinVertical(lipgloss.Left, view, graphStyle.Render(plot))
	}

	if m.help {
		view = lipgloss.JoinVertical(lipgloss.Left, view, helpStyle.Render(helpText))
	} else {
		view = lipgloss.JoinVertical(lipgloss.Left, view, helpStyle.Render("u impulse · space pause · ←→↑↓ orbit · +/- zoom · ? help · q quit"))
	}
	return view
}

const helpText = `u          upward impulse on every body vertex
space      pause / resume
arrows     orbit camera (hjkl also work)
+ / -      zoom
f          refit camera to the scene
t          cycle theme
q, esc     quit`

func (m Model) stats() string {
	var b strings.Builder
	b.WriteString(headerStyle().Render(m.title))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}

	switch {
	case m.err != nil:
		row("status", statusStyle(CurrentTheme.Error).Render("halted"))
	case m.paused:
		row("status", statusStyle(CurrentTheme.Warning).Render("paused"))
	default:
		row("status", statusStyle(CurrentTheme.Primary).Render("running"))
	}

	row("frame", fmt.Sprintf("%d", m.snap.Frame))
	row("time", fmt.Sprintf("%.3f s", m.snap.Time))
	row("dt", fmt.Sprintf("%.4f", m.report.Dt))
	row("particles", fmt.Sprintf("%d", len(m.snap.Particles)))
	row("bodies", fmt.Sprintf("%d", len(m.snap.Bodies)))
	row("contacts", fmt.Sprintf("%d", m.report.Contacts))
	row("iterations", fmt.Sprintf("%d", m.report.Iterations))
	row("penetration", fmt.Sprintf("%.2e", m.report.Penetration))
	row("static hits", fmt.Sprintf("%d", m.report.StaticContacts))
	if len(m.energy) > 0 {
		row("kinetic", fmt.Sprintf("%.5f", m.energy[len(m.energy)-1]))
	}
	row("max speed", fmt.Sprintf("%.3f", metrics.PeakSpeed(m.snap)))

	b.WriteString("\n" + labelStyle.Render("overlap") + SparklineChart(m.overlap, 24) + "\n")

	if m.err != nil {
		b.WriteString("\n" + statusStyle(CurrentTheme.Error).Width(36).Render(m.err.Error()) + "\n")
	}
	return b.String()
}
