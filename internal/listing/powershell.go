package listing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"connwatch/internal/models"
)

// DefaultFallbackTimeout bounds the structured listing methods.
const DefaultFallbackTimeout = 15 * time.Second

const psQuery = "Get-NetTCPConnection -State Established | " +
	"Select-Object LocalAddress,LocalPort,RemoteAddress,RemotePort," +
	"@{n='State';e={$_.State.ToString()}},OwningProcess | ConvertTo-Json"

// PowerShellSource queries Get-NetTCPConnection and decodes its JSON.
type PowerShellSource struct {
	Timeout time.Duration
	Run     Runner
}

// NewPowerShellSource returns the Windows structured listing method.
func NewPowerShellSource(timeout time.Duration) *PowerShellSource {
	return &PowerShellSource{Timeout: timeout, Run: ExecRunner}
}

func (s *PowerShellSource) Name() string { return "powershell" }

func (s *PowerShellSource) List(ctx context.Context) ([]models.ConnectionRecord, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultFallbackTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := s.Run
	if run == nil {
		run = ExecRunner
	}

	out, err := run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", psQuery)
	if err != nil {
		return nil, err
	}
	return ParsePowerShellJSON(out)
}

// ParsePowerShellJSON decodes ConvertTo-Json output, which is a single
// object when one connection exists and an array otherwise.
func ParsePowerShellJSON(data []byte) ([]models.ConnectionRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrNoOutput
	}

	var conns []psConnection
	if data[0] == '{' {
		var one psConnection
		if err := json.Unmarshal(data, &one); err != nil {
			return nil, fmt.Errorf("decode powershell output: %w", err)
		}
		conns = append(conns, one)
	} else if err := json.Unmarshal(data, &conns); err != nil {
		return nil, fmt.Errorf("decode powershell output: %w", err)
	}

	records := make([]models.ConnectionRecord, 0, len(conns))
	for _, c := range conns {
		state := strings.ToUpper(c.State)
		if state == "" {
			state = "UNKNOWN"
		}
		records = append(records, models.ConnectionRecord{
			PID:           strconv.Itoa(c.OwningProcess),
			Protocol:      "TCP",
			LocalAddress:  c.LocalAddress,
			LocalPort:     c.LocalPort,
			RemoteAddress: c.RemoteAddress,
			RemotePort:    c.RemotePort,
			State:         state,
		})
	}
	return records, nil
}
