package tui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"

	"connwatch/internal/analysis"
	"connwatch/internal/models"
)

// ruleFilter maps a rule to the display filter that controls it. Rules
// without an entry are always shown.
var ruleFilter = map[models.RuleID]int{
	models.RuleUnknownProcess: filterUnknown,
	models.RuleExternal:       filterExternal,
	models.RuleSuspiciousPort: filterPorts,
}

// visible reports whether a scored connection is shown under filters: it is
// hidden only when every rule it triggered belongs to a disabled filter.
func visible(s models.ScoredConnection, filters [filterCount]bool) bool {
	if len(s.Risk.Rules) == 0 {
		return true
	}
	for _, id := range s.Risk.Rules {
		f, ok := ruleFilter[id]
		if !ok || filters[f] {
			return true
		}
	}
	return false
}

func filterSuspicious(items []models.ScoredConnection, filters [filterCount]bool) []models.ScoredConnection {
	out := make([]models.ScoredConnection, 0, len(items))
	for _, s := range items {
		if visible(s, filters) {
			out = append(out, s)
		}
	}
	return out
}

func riskIndex(items []models.ScoredConnection) map[models.ConnectionRecord]int {
	idx := make(map[models.ConnectionRecord]int, len(items))
	for _, s := range items {
		idx[s.Connection] = s.Risk.RiskLevel
	}
	return idx
}

func tierLabel(risk int) string {
	switch analysis.TierOf(risk) {
	case analysis.TierHigh:
		return "HIGH"
	case analysis.TierMedium:
		return "MED"
	case analysis.TierLow:
		return "LOW"
	default:
		return ""
	}
}

func riskCell(risk int) string {
	if risk <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d %s", risk, analysis.MaxRisk, tierLabel(risk))
}

func connectionRows(conns []models.ConnectionRecord, suspicious []models.ScoredConnection) []table.Row {
	risks := riskIndex(suspicious)
	rows := make([]table.Row, len(conns))
	for i, c := range conns {
		rows[i] = table.Row{
			c.PID,
			c.ProcessName,
			c.Protocol,
			c.LocalEndpoint(),
			c.RemoteEndpoint(),
			analysis.GetServiceName(c.RemotePort),
			c.State,
			analysis.Country(c.RemoteAddress),
			riskCell(risks[c]),
		}
	}
	return rows
}

func suspiciousRows(items []models.ScoredConnection) []table.Row {
	rows := make([]table.Row, len(items))
	for i, s := range items {
		rows[i] = table.Row{
			riskCell(s.Risk.RiskLevel),
			s.Connection.PID,
			s.Connection.ProcessName,
			s.Connection.RemoteAddress,
			strconv.Itoa(s.Connection.RemotePort),
			s.Risk.Reason(),
		}
	}
	return rows
}
