package ui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
)

const badgeWidth = 10

// renderMain renders header, tab bar, the current table and the footer.
func (m Model) renderMain() string {
	t := m.tables[m.current]
	l := t.list(t.view(m.archived[m.current]), m.now())

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderTabs())
	b.WriteString("\n")
	b.WriteString(m.renderTable(t, l))
	b.WriteString(m.renderFooter(l))
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{
		bg.Render("stint", styles.Logo),
		bg.Render(m.organizationName(), styles.AccentText),
		bg.Render(m.user.Name, styles.MutedText),
	}

	clock := bg.Render("○ "+m.timerDisplay, styles.MutedText)
	if current := m.ws.Timer.Current(); current != nil {
		clock = bg.Render("● "+m.timerDisplay, styles.SuccessText)
		if current.Description != "" {
			clock += bg.Render("  "+current.Description, styles.Text)
		}
	}
	parts = append(parts, clock)

	return bg.FillLine(" "+bg.Join(parts, "  │  "), m.width)
}

func (m Model) renderTabs() string {
	styles := m.theme.Styles()
	tabs := make([]string, 0, len(m.tables))
	for i, t := range m.tables {
		title := t.title
		if t.archivable && m.archived[i] {
			title += " (archived)"
		}
		if i == m.current {
			tabs = append(tabs, styles.ActiveTab.Render(title))
		} else {
			tabs = append(tabs, styles.MutedText.Render(title))
		}
	}
	return " " + strings.Join(tabs, "   ")
}

func (m Model) renderTable(t table, l listing) string {
	styles := m.theme.Styles()
	cols := visibleColumns(t.columns, m.width)
	widths := columnWidths(cols, m.width)

	var b strings.Builder
	headings := make([]string, len(cols))
	for i, c := range cols {
		headings[i] = c.title
	}
	b.WriteString(styles.Heading.Width(m.width).Render(" " + formatRow(headings, widths)))
	b.WriteString("\n")

	body := max(1, m.height-chromeHeight)
	switch {
	case !l.loaded && l.lastError != nil:
		b.WriteString(styles.DangerText.Render(" " + l.lastError.Error()))
		b.WriteString("\n")
		body--
	case !l.loaded:
		b.WriteString(styles.FaintText.Render(" loading…"))
		b.WriteString("\n")
		body--
	case len(l.ids) == 0:
		b.WriteString(styles.FaintText.Render(" nothing here"))
		b.WriteString("\n")
		body--
	}

	for i, row := range l.rows {
		if i >= body {
			break
		}
		cells := pickCells(row, t.columns, cols)
		line := " " + formatRow(cells, widths)
		badge := ""
		if l.badges[i] != "" {
			badge = styles.StatusStyle(l.badges[i]).Render(l.badges[i])
		}
		if i == m.selected {
			line = styles.Selected.Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		b.WriteString(line + " " + badge)
		b.WriteString("\n")
		body--
	}
	for ; body > 0; body-- {
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) renderFooter(l listing) string {
	styles := m.theme.Styles()
	bg := NewBgStyle(m.theme.Surface)

	parts := []string{bg.Render(pageLabel(l), styles.MutedText)}
	if l.offline() {
		parts = append(parts, bg.Render(fmt.Sprintf("offline (%d failures)", l.failures), styles.DangerText))
	} else if l.loaded && l.lastError != nil {
		parts = append(parts, bg.Render("last refresh failed", styles.WarningText))
	}
	if m.status != "" {
		style := styles.MutedText
		if m.statusErr {
			style = styles.DangerText
		}
		parts = append(parts, bg.Render(m.status, style))
	}
	parts = append(parts, bg.Render("h help", styles.FaintText))
	return bg.FillLine(" "+bg.Join(parts, "  ·  "), m.width)
}

// visibleColumns drops secondary columns on narrow terminals.
func visibleColumns(cols []column, width int) []column {
	if width >= LayoutCompactWidth {
		return cols
	}
	out := make([]column, 0, len(cols))
	for _, c := range cols {
		if !c.wide {
			out = append(out, c)
		}
	}
	return out
}

// columnWidths gives fixed columns their width and splits what remains
// between flexible ones.
func columnWidths(cols []column, width int) []int {
	widths := make([]int, len(cols))
	remaining := width - badgeWidth - 2 - len(cols)
	flexible := 0
	for i, c := range cols {
		if c.width > 0 {
			widths[i] = c.width
			remaining -= c.width
		} else {
			flexible++
		}
	}
	if flexible > 0 {
		share := max(8, remaining/flexible)
		for i, c := range cols {
			if c.width == 0 {
				widths[i] = share
			}
		}
	}
	return widths
}

func pickCells(row []string, all, visible []column) []string {
	if len(all) == len(visible) {
		return row
	}
	out := make([]string, 0, len(visible))
	v := 0
	for i, c := range all {
		if v < len(visible) && c.title == visible[v].title {
			out = append(out, row[i])
			v++
		}
	}
	return out
}

func formatRow(cells []string, widths []int) string {
	var b strings.Builder
	for i, cell := range cells {
		if i > 0 {
			b.WriteString(" ")
		}
		w := widths[i]
		b.WriteString(runewidth.FillRight(runewidth.Truncate(cell, w, "…"), w))
	}
	return b.String()
}

// singular names one record of a tab.
func singular(title string) string {
	switch title {
	case "Time entries":
		return "time entry"
	case "Projects":
		return "project"
	case "Clients":
		return "client"
	case "Members":
		return "member"
	case "Invitations":
		return "invitation"
	case "Reports":
		return "report"
	}
	return strings.ToLower(title)
}
