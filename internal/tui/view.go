package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"connwatch/internal/analysis"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7DB")).
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1).
			Margin(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	tabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFB000")).Bold(true)

	tierStyles = map[analysis.Tier]lipgloss.Style{
		analysis.TierLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
		analysis.TierMedium: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF9800")),
		analysis.TierHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F44336")).Bold(true),
	}
)

func (m Model) View() string {
	state := "stopped"
	if m.deps.Monitor.Running() {
		state = "monitoring"
	}
	header := titleStyle.Render(fmt.Sprintf("ConnWatch - %s", state))
	if m.hasSnap {
		src := fmt.Sprintf(" pass %d via %s", m.snap.Batch.Pass, m.snap.Batch.Source)
		if m.snap.Batch.Degraded {
			header += warnStyle.Render(src + " (degraded: placeholder data)")
		} else {
			header += statusStyle.Render(src)
		}
	}

	var body string
	switch m.active {
	case tabConnections:
		body = m.conns.View()
	case tabSuspicious:
		body = m.filterBar() + "\n" + m.susp.View()
	case tabAnalysis:
		body = m.analysisView()
	case tabLogs:
		body = m.logsView()
	}

	help := "s start  x stop  r refresh  e export  v lookup  c copy pid  i copy ip  k kill  1-3 filters  tab switch  q quit"
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.tabBar(),
		body,
		statusStyle.Render(m.status),
		statusStyle.Render(help),
	)
}

func (m Model) tabBar() string {
	parts := make([]string, 0, tabCount)
	for i, name := range tabNames {
		if tab(i) == m.active {
			parts = append(parts, activeTabStyle.Render(name))
		} else {
			parts = append(parts, tabStyle.Render(name))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m Model) filterBar() string {
	parts := make([]string, 0, filterCount)
	for i, name := range filterNames {
		mark := "[ ]"
		if m.filters[i] {
			mark = "[x]"
		}
		parts = append(parts, fmt.Sprintf("%d %s %s", i+1, mark, name))
	}
	return statusStyle.Render(strings.Join(parts, "   "))
}

func (m Model) analysisView() string {
	if !m.hasSnap {
		return infoStyle.Render("Waiting for data...")
	}
	st := m.snap.Stats

	summary := fmt.Sprintf(
		"Total connections: %d\nSuspicious: %d\nUnique processes: %d\nExternal: %d\nLocal: %d\nAverage risk: %.1f/%d",
		st.TotalConnections, st.TotalSuspicious, st.UniqueProcesses,
		st.ExternalConnections, st.LocalConnections, st.AverageRisk, analysis.MaxRisk)
	summaryBox := infoStyle.Render("Statistics\n" + summary)

	levels := []struct {
		label string
		tier  analysis.Tier
		count int
	}{
		{"Low   ", analysis.TierLow, st.Threats.Low},
		{"Medium", analysis.TierMedium, st.Threats.Medium},
		{"High  ", analysis.TierHigh, st.Threats.High},
	}
	var bars []string
	for _, l := range levels {
		bars = append(bars, fmt.Sprintf("%s %s %d", l.label, tierStyles[l.tier].Render(bar(l.count, st.TotalSuspicious, 30)), l.count))
	}
	threatBox := infoStyle.Render("Threat activity\n" + strings.Join(bars, "\n"))

	var regions []string
	for _, c := range st.ByCountry {
		regions = append(regions, fmt.Sprintf("%-8s %d", c.Country, c.Count))
	}
	if len(regions) == 0 {
		regions = append(regions, "No connections")
	}
	regionBox := infoStyle.Render("By region\n" + strings.Join(regions, "\n"))

	return lipgloss.JoinHorizontal(lipgloss.Top, summaryBox, threatBox, regionBox)
}

// bar renders n out of total as a fixed-width block bar.
func bar(n, total, width int) string {
	if total <= 0 || n <= 0 {
		return strings.Repeat("░", width)
	}
	filled := n * width / total
	if filled == 0 {
		filled = 1
	}
	if filled > width {
		filled = width
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func (m Model) logsView() string {
	if m.deps.Logs == nil {
		return infoStyle.Render("Log capture disabled")
	}
	n := m.height - 8
	if n < 10 {
		n = 10
	}
	lines := m.deps.Logs.Tail(n)
	if len(lines) == 0 {
		return infoStyle.Render("No log entries yet")
	}
	return strings.Join(lines, "\n")
}
