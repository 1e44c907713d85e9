package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"connwatch/internal/models"
)

func TestIsPrivate(t *testing.T) {
	tests := map[string]bool{
		"10.0.0.5":    true,
		"172.20.1.1":  true,
		"172.16.0.1":  true,
		"172.31.9.9":  true,
		"172.40.1.1":  false,
		"172.15.1.1":  false,
		"192.168.1.1": true,
		"192.169.1.1": false,
		"8.8.8.8":     false,
		"127.0.0.1":   false,
		"::1":         false,
		"10.0.0":      false,
		"a.b.c.d":     false,
		"":            false,
	}
	for ip, want := range tests {
		assert.Equal(t, want, IsPrivate(ip), ip)
	}
}

func TestIsExternal(t *testing.T) {
	assert.False(t, IsExternal("::1"))
	assert.False(t, IsExternal("127.0.0.1"))
	assert.False(t, IsExternal("192.168.0.10"))
	assert.True(t, IsExternal("8.8.8.8"))
	assert.True(t, IsExternal("2606:4700::1111"))
}

func TestCountry(t *testing.T) {
	assert.Equal(t, "Local", Country("10.1.1.1"))
	assert.Equal(t, "Local", Country("::1"))
	assert.Equal(t, "USA", Country("8.8.8.8"))
	assert.Equal(t, "Europe", Country("80.1.1.1"))
	assert.Equal(t, "Asia", Country("120.1.1.1"))
	assert.Equal(t, "Other", Country("185.12.0.1"))
	assert.Equal(t, "Unknown", Country("2606:4700::1111"))
}

func TestTierOf(t *testing.T) {
	assert.Equal(t, TierNone, TierOf(0))
	assert.Equal(t, TierLow, TierOf(1))
	assert.Equal(t, TierMedium, TierOf(2))
	assert.Equal(t, TierHigh, TierOf(3))
	assert.Equal(t, TierHigh, TierOf(5))
}

func TestSummarize(t *testing.T) {
	conns := []models.ConnectionRecord{
		conn("svc.exe", "185.12.0.1", 4444),
		conn("chrome.exe", "192.168.1.1", 443),
		conn("chrome.exe", "8.8.8.8", 443),
		conn("notepad", "::1", 80),
	}
	c := NewClassifier(DefaultConfig())
	batch := models.SampleBatch{Connections: conns, Suspicious: c.Suspicious(conns)}

	stats := Summarize(batch)
	assert.Equal(t, 4, stats.TotalConnections)
	// svc 4, chrome external 1, notepad (loopback) 4
	assert.Equal(t, 3, stats.TotalSuspicious)
	assert.Equal(t, 3, stats.UniqueProcesses)
	assert.Equal(t, 2, stats.ExternalConnections)
	assert.Equal(t, 2, stats.LocalConnections)
	assert.InDelta(t, 3.0, stats.AverageRisk, 0.0001)
	assert.Equal(t, ThreatLevels{Low: 1, Medium: 2, High: 0}, stats.Threats)
	assert.Equal(t, []CountryStat{{"Local", 2}, {"Other", 1}, {"USA", 1}}, stats.ByCountry)
}

func TestSummarize_EmptySuspicious(t *testing.T) {
	stats := Summarize(models.SampleBatch{
		Connections: []models.ConnectionRecord{conn("chrome.exe", "10.0.0.1", 443)},
	})
	assert.Equal(t, 0.0, stats.AverageRisk)
	assert.False(t, math.IsNaN(stats.AverageRisk))
	assert.Equal(t, 0, stats.TotalSuspicious)

	empty := Summarize(models.SampleBatch{})
	assert.Equal(t, 0, empty.TotalConnections)
	assert.Equal(t, 0.0, empty.AverageRisk)
	assert.Empty(t, empty.ByCountry)
}

func TestGetServiceName(t *testing.T) {
	assert.Equal(t, "HTTPS", GetServiceName(443))
	assert.Equal(t, "Metasploit", GetServiceName(4444))
	assert.Equal(t, "0", GetServiceName(0))
	assert.Equal(t, "70000", GetServiceName(70000))
}
