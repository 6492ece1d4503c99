package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the TUI
type Theme struct {
	Name     string
	Primary  lipgloss.Color
	Muted    lipgloss.Color
	Body     lipgloss.Color
	Static   lipgloss.Color
	Positive lipgloss.Color
	Negative lipgloss.Color
	Warning  lipgloss.Color
	Error    lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:     "cyberpunk",
		Primary:  lipgloss.Color("#00ffff"),
		Muted:    lipgloss.Color("#666666"),
		Body:     lipgloss.Color("#ffff00"),
		Static:   lipgloss.Color("#444466"),
		Positive: lipgloss.Color("#ff00ff"),
		Negative: lipgloss.Color("#00ff88"),
		Warning:  lipgloss.Color("#ff8800"),
		Error:    lipgloss.Color("#ff0000"),
	}

	ThemeRetroGreen = Theme{
		Name:     "retro",
		Primary:  lipgloss.Color("#00ff00"), // Green phosphor
		Muted:    lipgloss.Color("#005500"),
		Body:     lipgloss.Color("#88ff88"),
		Static:   lipgloss.Color("#003300"),
		Positive: lipgloss.Color("#ccffcc"),
		Negative: lipgloss.Color("#00aa00"),
		Warning:  lipgloss.Color("#ffff00"),
		Error:    lipgloss.Color("#ff0000"),
	}

	ThemeOcean = Theme{
		Name:     "ocean",
		Primary:  lipgloss.Color("#00a8cc"),
		Muted:    lipgloss.Color("#4488aa"),
		Body:     lipgloss.Color("#e0f0ff"),
		Static:   lipgloss.Color("#0077be"),
		Positive: lipgloss.Color("#ffd700"),
		Negative: lipgloss.Color("#00ff88"),
		Warning:  lipgloss.Color("#ffcc00"),
		Error:    lipgloss.Color("#ff4444"),
	}

	CurrentTheme = ThemeCyberpunk

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeRetroGreen,
		ThemeOcean,
	}
)

func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeCyberpunk
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	names := ThemeNames()
	for i, name := range names {
		if name == CurrentTheme.Name {
			SetTheme(names[(i+1)%len(names)])
			return
		}
	}
}

// PenStyles maps canvas pens to the current theme.
func PenStyles() map[Pen]lipgloss.Style {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	return map[Pen]lipgloss.Style{
		PenBody:     fg(CurrentTheme.Body),
		PenStatic:   fg(CurrentTheme.Static),
		PenPositive: fg(CurrentTheme.Positive),
		PenNegative: fg(CurrentTheme.Negative),
	}
}

// PenColors maps canvas pens to the current theme's hex colours.
func PenColors() map[Pen]string {
	return map[Pen]string{
		PenBody:     string(CurrentTheme.Body),
		PenStatic:   string(CurrentTheme.Static),
		PenPositive: string(CurrentTheme.Positive),
		PenNegative: string(CurrentTheme.Negative),
	}
}
