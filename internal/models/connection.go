package models

import (
	"fmt"
	"strings"
	"time"
)

// UnknownProcess is the process name used when a pid cannot be resolved.
const UnknownProcess = "Unknown"

// ConnectionRecord holds one observed TCP connection at sample time.
type ConnectionRecord struct {
	PID           string `json:"pid"`
	ProcessName   string `json:"process_name"`
	Protocol      string `json:"protocol"`
	LocalAddress  string `json:"local_address"`
	LocalPort     int    `json:"local_port"`
	RemoteAddress string `json:"remote_address"`
	RemotePort    int    `json:"remote_port"`
	State         string `json:"state"`
}

// LocalEndpoint returns "addr:port" for the local side.
func (c ConnectionRecord) LocalEndpoint() string {
	return fmt.Sprintf("%s:%d", c.LocalAddress, c.LocalPort)
}

// RemoteEndpoint returns "addr:port" for the remote side.
func (c ConnectionRecord) RemoteEndpoint() string {
	return fmt.Sprintf("%s:%d", c.RemoteAddress, c.RemotePort)
}

// RuleID identifies a classifier rule.
type RuleID string

const (
	RuleUnknownProcess RuleID = "unknown_process"
	RuleSuspiciousPort RuleID = "suspicious_port"
	RuleExternal       RuleID = "external"
	RuleUnusualProcess RuleID = "unusual_process"
)

// RiskAssessment is the classifier output for one ConnectionRecord.
type RiskAssessment struct {
	RiskLevel int      `json:"risk_level"`
	Reasons   []string `json:"reasons,omitempty"`
	Rules     []RuleID `json:"rules,omitempty"` // parallel to Reasons
}

// Reason joins the triggered reasons for display.
func (r RiskAssessment) Reason() string {
	return strings.Join(r.Reasons, "; ")
}

// ScoredConnection pairs a record with its assessment.
type ScoredConnection struct {
	Connection ConnectionRecord `json:"connection"`
	Risk       RiskAssessment   `json:"risk"`
}

// SampleBatch is the result of one sampling pass.
type SampleBatch struct {
	Pass        uint64             `json:"pass"`
	CapturedAt  time.Time          `json:"captured_at"`
	Source      string             `json:"source"`
	Degraded    bool               `json:"degraded"`
	Connections []ConnectionRecord `json:"connections"`
	Suspicious  []ScoredConnection `json:"suspicious"`
}
