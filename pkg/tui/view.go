package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/utkarsh5026/tangleview/pkg/layout"
	"github.com/utkarsh5026/tangleview/pkg/render"
	"github.com/utkarsh5026/tangleview/pkg/tangle"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#f8fafc")).
			Background(lipgloss.Color("#3b82f6")).
			Padding(0, 1)

	statStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#cbd5e1"))
	subtleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#64748b"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ef4444"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#10b981"))
	pausedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f59e0b"))

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#334155")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#94a3b8")).Width(8)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "\n  Loading tangle..."
	}

	canvas := m.frame
	if canvas == "" {
		canvas = m.emptyCanvas()
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top, canvas, " ", m.panelView())

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		body,
		m.statusView(),
		m.help.View(keys),
	)
}

func (m Model) headerView() string {
	stats := m.scene.Stats()
	parts := []string{
		titleStyle.Render("tangleview"),
		statStyle.Render(fmt.Sprintf("blocks %d", stats.Blocks)),
		statStyle.Render(fmt.Sprintf("connections %d", stats.Connections)),
		statStyle.Render(fmt.Sprintf("health %.0f%%", stats.Health*100)),
		statStyle.Render(fmt.Sprintf("active %d", stats.Active)),
	}
	if !m.scene.Running() {
		parts = append(parts, pausedStyle.Render("PAUSED"))
	}
	return strings.Join(parts, "  ")
}

func (m Model) emptyCanvas() string {
	msg := "waiting for blocks"
	if m.fetching {
		msg = "fetching..."
	}
	return lipgloss.Place(m.cols, m.rows, lipgloss.Center, lipgloss.Center, subtleStyle.Render(msg))
}

func (m Model) panelView() string {
	inner := panelWidth - 4
	sections := []string{m.detailView(inner), "", legendView()}
	return panelStyle.Width(panelWidth - 2).Render(strings.Join(sections, "\n"))
}

func (m Model) detailView(width int) string {
	node, ok := m.scene.Selected()
	if !ok {
		return subtleStyle.Render("click a node for details")
	}

	rec := node.Record
	lines := []string{
		lipgloss.NewStyle().Bold(true).Render("Block " + rec.ShortID()),
		field("hash", truncate(rec.ID, width-8)),
		field("time", formatCreated(rec)),
		field("parents", fmt.Sprintf("%d", len(rec.ParentIDs))),
	}

	readings := []struct {
		label string
		key   string
		unit  string
	}{
		{"pm2.5", tangle.KeyPM25, " µg/m³"},
		{"co2", tangle.KeyCO2, " ppm"},
		{"temp", tangle.KeyTemperature, "°C"},
		{"humid", tangle.KeyHumidity, "%"},
	}
	for _, r := range readings {
		if v, ok := rec.Payload.Number(r.key); ok {
			lines = append(lines, field(r.label, fmt.Sprintf("%.1f%s", v, r.unit)))
		}
	}

	q := layout.QualityOf(rec.Payload)
	lines = append(lines, field("air", swatch(q)+" "+q.String()))
	if node.IsNew {
		lines = append(lines, okStyle.Render("new"))
	}
	return strings.Join(lines, "\n")
}

func legendView() string {
	lines := []string{subtleStyle.Render("Air quality (PM2.5)")}
	for _, q := range layout.Legend() {
		lines = append(lines, swatch(q)+" "+q.String())
	}
	return strings.Join(lines, "\n")
}

func (m Model) statusView() string {
	zoom, pan := render.HUDLines(m.scene.View())
	parts := []string{zoom, pan, m.fetchStatus()}
	if m.mergeCount > 0 {
		parts = append(parts, fmt.Sprintf("last merge +%d", len(m.lastMerge.Added)))
	}
	return subtleStyle.Render(strings.Join(parts[:2], "  ")) + "  " + strings.Join(parts[2:], "  ")
}

func (m Model) fetchStatus() string {
	if m.fetching {
		return subtleStyle.Render("fetching...")
	}
	at, err := m.scene.LastFetch()
	if at.IsZero() {
		return ""
	}
	if err != nil {
		return errorStyle.Render("fetch failed: " + truncate(err.Error(), 48))
	}
	return okStyle.Render("updated " + at.Format("15:04:05"))
}

func field(label, value string) string {
	return labelStyle.Render(label) + value
}

func swatch(q layout.AirQuality) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(render.Hex(q.Color()))).Render("●")
}

func formatCreated(rec tangle.Record) string {
	if rec.CreatedAt == 0 {
		return "unknown"
	}
	return rec.Created().Local().Format(time.DateTime)
}

func truncate(s string, n int) string {
	if n <= 1 || len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}
