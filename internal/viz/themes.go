package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the color scheme of the explorer chrome. The fractal itself keeps
// its own palette.
type Theme struct {
	Name      string
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Text      lipgloss.Color
	Muted     lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
}

var (
	ThemeCyberpunk = Theme{
		Name:      "cyberpunk",
		Primary:   lipgloss.Color("#ff00ff"),
		Secondary: lipgloss.Color("#00ffff"),
		Accent:    lipgloss.Color("#ffff00"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#666688"),
		Success:   lipgloss.Color("#00ff88"),
		Warning:   lipgloss.Color("#ffaa00"),
		Error:     lipgloss.Color("#ff4444"),
	}

	ThemeRetroGreen = Theme{
		Name:      "retro",
		Primary:   lipgloss.Color("#00ff00"),
		Secondary: lipgloss.Color("#00cc00"),
		Accent:    lipgloss.Color("#88ff88"),
		Text:      lipgloss.Color("#00ff00"),
		Muted:     lipgloss.Color("#005500"),
		Success:   lipgloss.Color("#88ff88"),
		Warning:   lipgloss.Color("#ffff00"),
		Error:     lipgloss.Color("#ff0000"),
	}

	ThemeMinimal = Theme{
		Name:      "minimal",
		Primary:   lipgloss.Color("#ffffff"),
		Secondary: lipgloss.Color("#cccccc"),
		Accent:    lipgloss.Color("#0088ff"),
		Text:      lipgloss.Color("#ffffff"),
		Muted:     lipgloss.Color("#888888"),
		Success:   lipgloss.Color("#00ff00"),
		Warning:   lipgloss.Color("#ffaa00"),
		Error:     lipgloss.Color("#ff0000"),
	}

	ThemeOcean = Theme{
		Name:      "ocean",
		Primary:   lipgloss.Color("#0077be"),
		Secondary: lipgloss.Color("#00a8cc"),
		Accent:    lipgloss.Color("#ffd700"),
		Text:      lipgloss.Color("#e0f0ff"),
		Muted:     lipgloss.Color("#4488aa"),
		Success:   lipgloss.Color("#00ff88"),
		Warning:   lipgloss.Color("#ffcc00"),
		Error:     lipgloss.Color("#ff4444"),
	}

	// ThemeCopper matches the default fractal palette.
	ThemeCopper = Theme{
		Name:      "copper",
		Primary:   lipgloss.Color("#ff9f5a"),
		Secondary: lipgloss.Color("#c87533"),
		Accent:    lipgloss.Color("#ffd9b0"),
		Text:      lipgloss.Color("#fff5ee"),
		Muted:     lipgloss.Color("#8b6b5c"),
		Success:   lipgloss.Color("#5fd068"),
		Warning:   lipgloss.Color("#ffc048"),
		Error:     lipgloss.Color("#ff4757"),
	}

	Themes = []Theme{
		ThemeCyberpunk,
		ThemeCopper,
		ThemeRetroGreen,
		ThemeMinimal,
		ThemeOcean,
	}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}

// styles are the lipgloss styles derived from one theme.
type styles struct {
	title, subtle, selected, item, value, label, key, status, warn, err lipgloss.Style
}

func (t Theme) styles() styles {
	return styles{
		title:    lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		subtle:   lipgloss.NewStyle().Foreground(t.Muted),
		selected: lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		item:     lipgloss.NewStyle().Foreground(t.Muted),
		value:    lipgloss.NewStyle().Foreground(t.Primary).Bold(true),
		label:    lipgloss.NewStyle().Foreground(t.Muted),
		key:      lipgloss.NewStyle().Foreground(t.Secondary).Bold(true),
		status:   lipgloss.NewStyle().Foreground(t.Success).Bold(true),
		warn:     lipgloss.NewStyle().Foreground(t.Warning).Bold(true),
		err:      lipgloss.NewStyle().Foreground(t.Error).Bold(true),
	}
}
