package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/polarsim/internal/sim"
)

// Builder creates a fresh simulator for a named scene.
type Builder func(name string) (*sim.Simulator, error)

// Picker lists scenes and switches to a live Model for the chosen one.
type Picker struct {
	names  []string
	info   map[string]string
	build  Builder
	cursor int
	err    error
	live   *Model
}

func NewPicker(names []string, info map[string]string, build Builder) Picker {
	return Picker{names: names, info: info, build: build}
}

func (p Picker) Init() tea.Cmd { return nil }

// Live returns the running model once a scene has been chosen.
func (p Picker) Live() (Model, bool) {
	if p.live == nil {
		return Model{}, false
	}
	return *p.live, true
}

func (p Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.live != nil {
		next, cmd := p.live.Update(msg)
		live := next.(Model)
		p.live = &live
		return p, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "esc", "ctrl+c":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.names)-1 {
			p.cursor++
		}
	case "enter", " ":
		if len(p.names) == 0 {
			return p, nil
		}
		name := p.names[p.cursor]
		s, err := p.build(name)
		if err != nil {
			p.err = fmt.Errorf("%s: %w", name, err)
			return p, nil
		}
		live := NewModel(s, name)
		p.live = &live
		p.err = nil
		return p, live.Init()
	}
	return p, nil
}

func (p Picker) View() string {
	if p.live != nil {
		return p.live.View()
	}

	var (
		b      strings.Builder
		h      = lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true)
		sub    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
		cursor = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
		active = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
		accent = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
		idle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
		key    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	)

	b.WriteString("\n\n    " + h.Render("POLARSIM") + "\n    " + sub.Render("polarity particles and soft bodies") + "\n    " + sub.Render("─────────────────────────") + "\n\n")
	for i, name := range p.names {
		desc := p.info[name]
		if i == p.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", cursor.Render("▸"), active.Render(fmt.Sprintf("%-10s", name)), accent.Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", idle.Render(fmt.Sprintf("  %-10s", name)), sub.Render(desc)))
		}
	}
	if p.err != nil {
		b.WriteString("\n    " + statusStyle(CurrentTheme.Error).Render(p.err.Error()) + "\n")
	}
	b.WriteString("\n    " + key.Render("j/k") + idle.Render(" navigate  ") + key.Render("enter") + idle.Render(" select  ") + key.Render("q") + idle.Render(" quit") + "\n")
	return b.String()
}
