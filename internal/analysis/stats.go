package analysis

import (
	"sort"

	"connwatch/internal/models"
)

// Tier buckets a risk level for display.
type Tier string

const (
	TierNone   Tier = "none"
	TierLow    Tier = "low"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// TierOf maps a risk level to its display tier: >=3 high, >=2 medium, else low.
func TierOf(risk int) Tier {
	switch {
	case risk <= 0:
		return TierNone
	case risk >= 3:
		return TierHigh
	case risk >= 2:
		return TierMedium
	default:
		return TierLow
	}
}

// CountryStat holds the connection count for one region label.
type CountryStat struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// ThreatLevels is the activity histogram over the suspicious subset.
type ThreatLevels struct {
	Low    int `json:"low"`    // risk 1-2
	Medium int `json:"medium"` // risk 3-4
	High   int `json:"high"`   // risk 5
}

// Statistics are the display aggregates for one batch.
type Statistics struct {
	TotalConnections    int           `json:"total_connections"`
	TotalSuspicious     int           `json:"total_suspicious"`
	UniqueProcesses     int           `json:"unique_processes"`
	ExternalConnections int           `json:"external_connections"`
	LocalConnections    int           `json:"local_connections"`
	AverageRisk         float64       `json:"average_risk"`
	Threats             ThreatLevels  `json:"threats"`
	ByCountry           []CountryStat `json:"by_country"`
}

// Summarize computes the statistics for a batch from scratch.
func Summarize(batch models.SampleBatch) Statistics {
	stats := Statistics{
		TotalConnections: len(batch.Connections),
		TotalSuspicious:  len(batch.Suspicious),
	}

	processes := make(map[string]struct{})
	countries := make(map[string]int)
	for _, c := range batch.Connections {
		processes[c.ProcessName] = struct{}{}
		if IsExternal(c.RemoteAddress) {
			stats.ExternalConnections++
		} else {
			stats.LocalConnections++
		}
		countries[Country(c.RemoteAddress)]++
	}
	stats.UniqueProcesses = len(processes)

	total := 0
	for _, s := range batch.Suspicious {
		risk := s.Risk.RiskLevel
		total += risk
		switch {
		case risk >= MaxRisk:
			stats.Threats.High++
		case risk >= 3:
			stats.Threats.Medium++
		default:
			stats.Threats.Low++
		}
	}
	if len(batch.Suspicious) > 0 {
		stats.AverageRisk = float64(total) / float64(len(batch.Suspicious))
	}

	stats.ByCountry = make([]CountryStat, 0, len(countries))
	for country, count := range countries {
		stats.ByCountry = append(stats.ByCountry, CountryStat{Country: country, Count: count})
	}
	// Sort descending by count, then by name for a stable display
	sort.Slice(stats.ByCountry, func(i, j int) bool {
		if stats.ByCountry[i].Count != stats.ByCountry[j].Count {
			return stats.ByCountry[i].Count > stats.ByCountry[j].Count
		}
		return stats.ByCountry[i].Country < stats.ByCountry[j].Country
	})

	return stats
}
