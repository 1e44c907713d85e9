package analysis

import (
	"fmt"
	"sort"
	"strings"

	"connwatch/internal/models"
)

// MaxRisk is the ceiling applied to the summed rule weights.
const MaxRisk = 5

// Rule weights.
const (
	WeightUnknownProcess = 2
	WeightSuspiciousPort = 3
	WeightExternal       = 1
	WeightUnusualProcess = 4
)

// Config holds the rule tables for the classifier.
type Config struct {
	SuspiciousPorts  []int    // Remote ports commonly used by backdoors and RATs
	UnusualProcesses []string // Substrings of processes that should not talk to the network
}

// DefaultConfig returns the default rule tables.
func DefaultConfig() Config {
	return Config{
		SuspiciousPorts:  []int{1337, 31337, 4444, 5555, 6666, 7777, 8888, 9999},
		UnusualProcesses: []string{"notepad", "calc", "mspaint", "wordpad"},
	}
}

// Classifier maps a connection to a risk assessment. It holds no mutable
// state after construction and is safe for concurrent use.
type Classifier struct {
	ports     map[int]bool
	processes []string
}

// NewClassifier builds a classifier from cfg. Empty tables fall back to the defaults.
func NewClassifier(cfg Config) *Classifier {
	def := DefaultConfig()
	if len(cfg.SuspiciousPorts) == 0 {
		cfg.SuspiciousPorts = def.SuspiciousPorts
	}
	if len(cfg.UnusualProcesses) == 0 {
		cfg.UnusualProcesses = def.UnusualProcesses
	}

	c := &Classifier{ports: make(map[int]bool, len(cfg.SuspiciousPorts))}
	for _, p := range cfg.SuspiciousPorts {
		c.ports[p] = true
	}
	for _, name := range cfg.UnusualProcesses {
		c.processes = append(c.processes, strings.ToLower(name))
	}
	return c
}

// Classify evaluates every rule independently, in table order.
func (c *Classifier) Classify(conn models.ConnectionRecord) models.RiskAssessment {
	var a models.RiskAssessment
	name := strings.ToLower(conn.ProcessName)

	// Rule 1: Unknown process
	if name == "" || name == "unknown" || strings.Contains(name, "temp") {
		addRule(&a, models.RuleUnknownProcess, WeightUnknownProcess, "Unknown process")
	}

	// Rule 2: Suspicious remote port
	if c.ports[conn.RemotePort] {
		addRule(&a, models.RuleSuspiciousPort, WeightSuspiciousPort, fmt.Sprintf("Suspicious port (%d)", conn.RemotePort))
	}

	// Rule 3: External address
	if IsExternal(conn.RemoteAddress) {
		addRule(&a, models.RuleExternal, WeightExternal, "External connection")
	}

	// Rule 4: Processes that should not reach the network
	for _, p := range c.processes {
		if strings.Contains(name, p) {
			addRule(&a, models.RuleUnusualProcess, WeightUnusualProcess, "Unusual process with external connection")
			break
		}
	}

	if a.RiskLevel > MaxRisk {
		a.RiskLevel = MaxRisk
	}
	return a
}

// Suspicious classifies every record and returns those with risk > 0,
// ordered by descending risk. Ties keep discovery order.
func (c *Classifier) Suspicious(conns []models.ConnectionRecord) []models.ScoredConnection {
	out := make([]models.ScoredConnection, 0)
	for _, conn := range conns {
		risk := c.Classify(conn)
		if risk.RiskLevel > 0 {
			out = append(out, models.ScoredConnection{Connection: conn, Risk: risk})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Risk.RiskLevel > out[j].Risk.RiskLevel
	})
	return out
}

func addRule(a *models.RiskAssessment, id models.RuleID, weight int, reason string) {
	a.RiskLevel += weight
	a.Reasons = append(a.Reasons, reason)
	a.Rules = append(a.Rules, id)
}
