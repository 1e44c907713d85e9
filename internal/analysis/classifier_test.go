package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"connwatch/internal/models"
)

func conn(name, remote string, port int) models.ConnectionRecord {
	return models.ConnectionRecord{
		PID:           "100",
		ProcessName:   name,
		Protocol:      "TCP",
		LocalAddress:  "192.168.1.5",
		LocalPort:     50000,
		RemoteAddress: remote,
		RemotePort:    port,
		State:         "ESTABLISHED",
	}
}

func TestClassify_SuspiciousPortExternal(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	rec := models.ConnectionRecord{
		PID:           "2200",
		ProcessName:   "svc.exe",
		Protocol:      "TCP",
		LocalAddress:  "192.168.1.5",
		LocalPort:     50000,
		RemoteAddress: "185.12.0.1",
		RemotePort:    4444,
		State:         "ESTABLISHED",
	}

	risk := c.Classify(rec)
	assert.Equal(t, 4, risk.RiskLevel)
	assert.Equal(t, "Suspicious port (4444); External connection", risk.Reason())
	assert.Equal(t, []models.RuleID{models.RuleSuspiciousPort, models.RuleExternal}, risk.Rules)
}

func TestClassify_UnusualProcess(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	risk := c.Classify(conn("notepad", "93.184.216.34", 443))
	assert.Equal(t, 5, risk.RiskLevel)
	assert.Equal(t, "External connection; Unusual process with external connection", risk.Reason())
}

func TestClassify_CapsAtMax(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	// unknown (temp) 2 + port 3 + external 1 + unusual 4 = 10
	risk := c.Classify(conn("C:\\Temp\\calc.exe", "8.8.8.8", 31337))
	assert.Equal(t, MaxRisk, risk.RiskLevel)
	assert.Len(t, risk.Reasons, 4)
	assert.Equal(t, []string{
		"Unknown process",
		"Suspicious port (31337)",
		"External connection",
		"Unusual process with external connection",
	}, risk.Reasons)
}

func TestClassify_UnknownProcessVariants(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	for _, name := range []string{"", "Unknown", "UNKNOWN", "tempsvc", "MyTEMPfile.exe"} {
		risk := c.Classify(conn(name, "10.0.0.1", 443))
		assert.Equal(t, 2, risk.RiskLevel, name)
		assert.Equal(t, "Unknown process", risk.Reason(), name)
	}
}

func TestClassify_NoRules(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	risk := c.Classify(conn("chrome.exe", "192.168.1.1", 443))
	assert.Equal(t, 0, risk.RiskLevel)
	assert.Empty(t, risk.Reason())

	risk = c.Classify(conn("chrome.exe", "::1", 8080))
	assert.Equal(t, 0, risk.RiskLevel)
}

func TestClassify_Monotonic(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	steps := []models.ConnectionRecord{
		conn("chrome.exe", "10.0.0.1", 443),
		conn("chrome.exe", "8.8.8.8", 443),
		conn("chrome.exe", "8.8.8.8", 4444),
		conn("unknown", "8.8.8.8", 4444),
		conn("unknown notepad", "8.8.8.8", 4444),
	}

	prev := -1
	for _, s := range steps {
		risk := c.Classify(s).RiskLevel
		assert.GreaterOrEqual(t, risk, prev)
		assert.LessOrEqual(t, risk, MaxRisk)
		prev = risk
	}
}

func TestClassify_CustomTables(t *testing.T) {
	c := NewClassifier(Config{SuspiciousPorts: []int{6667}, UnusualProcesses: []string{"Paint"}})

	assert.Equal(t, 3, c.Classify(conn("irc", "10.0.0.1", 6667)).RiskLevel)
	assert.Equal(t, 0, c.Classify(conn("irc", "10.0.0.1", 4444)).RiskLevel)
	assert.Equal(t, 4, c.Classify(conn("mspaint.exe", "10.0.0.1", 80)).RiskLevel)
}

func TestSuspicious_StableDescending(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	conns := []models.ConnectionRecord{
		conn("chrome.exe", "10.0.0.1", 443), // 0, excluded
		conn("unknown", "10.0.0.2", 443),    // 2
		conn("notepad", "8.8.8.8", 443),     // 5
		conn("svc", "10.0.0.3", 4444),       // 3
		conn("", "10.0.0.4", 443),           // 2
		conn("svc", "10.0.0.5", 5555),       // 3
	}

	out := c.Suspicious(conns)
	require.Len(t, out, 5)

	levels := make([]int, len(out))
	addrs := make([]string, len(out))
	for i, s := range out {
		levels[i] = s.Risk.RiskLevel
		addrs[i] = s.Connection.RemoteAddress
	}
	assert.Equal(t, []int{5, 3, 3, 2, 2}, levels)
	assert.Equal(t, []string{"8.8.8.8", "10.0.0.3", "10.0.0.5", "10.0.0.2", "10.0.0.4"}, addrs)
}

func TestSuspicious_Empty(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	out := c.Suspicious(nil)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}
