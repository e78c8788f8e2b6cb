package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is a named palette. Colors are hex strings understood by lipgloss.
type Theme struct {
	Name string

	Background string
	Surface    string // header, tabs and footer
	SurfaceAlt string // column headings

	SelectionBg   string
	SelectionText string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string

	// StatusColors maps a row badge (running, archived, billable...) to a
	// background color.
	StatusColors map[string]string
}

// Styles contains the lipgloss styles derived from a Theme.
type Styles struct {
	Surface lipgloss.Style
	Heading lipgloss.Style

	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Logo      lipgloss.Style
	Selected  lipgloss.Style
	ActiveTab lipgloss.Style

	statusColors map[string]string
	background   string
	muted        string
}

func fg(color string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// Styles builds the lipgloss styles for t.
func (t Theme) Styles() Styles {
	return Styles{
		Surface:     fg(t.Text).Background(lipgloss.Color(t.Surface)),
		Heading:     fg(t.Muted).Background(lipgloss.Color(t.SurfaceAlt)).Bold(true),
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),
		Logo:        fg(t.Warning).Bold(true),
		Selected:    fg(t.SelectionText).Background(lipgloss.Color(t.SelectionBg)),
		ActiveTab:   fg(t.Accent).Bold(true).Underline(true),

		statusColors: t.StatusColors,
		background:   t.Background,
		muted:        t.Muted,
	}
}

// StatusStyle returns the badge style for status, falling back to the muted
// color for unknown badges.
func (s Styles) StatusStyle(status string) lipgloss.Style {
	color, ok := s.statusColors[status]
	if !ok || color == "" {
		color = s.muted
	}
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.background)).
		Background(lipgloss.Color(color)).
		Padding(0, 1)
}

// badges derives the status palette from a theme's semantic colors. stale
// is the only badge that needs a color of its own.
func badges(t Theme, public, stale string) map[string]string {
	return map[string]string{
		"running":  t.Success,
		"archived": t.Faint,
		"public":   public,
		"billable": t.Warning,
		"offline":  t.Danger,
		"stale":    stale,
	}
}

// themeList is ordered; the first entry is the default.
var themeList = func() []Theme {
	nightfox := Theme{
		Name:       "Nightfox",
		Background: "#131a24", Surface: "#192330", SurfaceAlt: "#212e3f",
		SelectionBg: "#2b3b51", SelectionText: "#cdcecf",
		Text: "#cdcecf", Muted: "#738091", Faint: "#71839b", Accent: "#719cd6",
		Success: "#81b29a", Warning: "#dbc074", Danger: "#c94f6d",
	}
	nightfox.StatusColors = badges(nightfox, "#63cdcf", "#f4a261")

	kanagawa := Theme{
		Name:       "Kanagawa",
		Background: "#16161D", Surface: "#1F1F28", SurfaceAlt: "#2A2A37",
		SelectionBg: "#2D4F67", SelectionText: "#DCD7BA",
		Text: "#DCD7BA", Muted: "#C8C093", Faint: "#727169", Accent: "#7E9CD8",
		Success: "#98BB6C", Warning: "#E6C384", Danger: "#E46876",
	}
	kanagawa.StatusColors = badges(kanagawa, "#7FB4CA", "#FFA066")

	slate := Theme{
		Name:       "Slate",
		Background: "#020617", Surface: "#0f172a", SurfaceAlt: "#1e293b",
		SelectionBg: "#0284c7", SelectionText: "#f8fafc",
		Text: "#f1f5f9", Muted: "#94a3b8", Faint: "#64748b", Accent: "#38bdf8",
		Success: "#22c55e", Warning: "#f59e0b", Danger: "#ef4444",
	}
	slate.StatusColors = badges(slate, "#06b6d4", "#fb923c")

	return []Theme{nightfox, kanagawa, slate}
}()

// GetTheme returns the named theme, or the default one for unknown names.
func GetTheme(name string) Theme {
	for _, t := range themeList {
		if t.Name == name {
			return t
		}
	}
	return themeList[0]
}

// NextTheme returns the theme after current in cycle order.
func NextTheme(current string) string {
	for i, t := range themeList {
		if t.Name == current {
			return themeList[(i+1)%len(themeList)].Name
		}
	}
	return themeList[0].Name
}

// ThemeNames lists the available themes in cycle order.
func ThemeNames() []string {
	names := make([]string, len(themeList))
	for i, t := range themeList {
		names[i] = t.Name
	}
	return names
}
