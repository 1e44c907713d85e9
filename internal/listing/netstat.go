package listing

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"connwatch/internal/models"
)

const (
	// DefaultHeaderLines matches the banner printed by `netstat -ano`.
	DefaultHeaderLines = 4
	// DefaultPrimaryTimeout bounds the text listing command.
	DefaultPrimaryTimeout = 10 * time.Second

	stateEstablished = "ESTABLISHED"
)

// Runner executes an external command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// ExecRunner runs the command with os/exec. A non-zero exit is an error.
func ExecRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.Output()
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%s: %w", name, ctx.Err())
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return out, nil
}

// NetstatSource is the primary, line-oriented listing method.
type NetstatSource struct {
	Command     string
	Args        []string
	HeaderLines int
	Timeout     time.Duration
	Run         Runner
}

// NewNetstatSource returns a source running `netstat -ano`.
func NewNetstatSource(timeout time.Duration, headerLines int) *NetstatSource {
	return &NetstatSource{
		Command:     "netstat",
		Args:        []string{"-ano"},
		HeaderLines: headerLines,
		Timeout:     timeout,
		Run:         ExecRunner,
	}
}

func (s *NetstatSource) Name() string { return "netstat" }

// List runs the command under its timeout and parses the output.
func (s *NetstatSource) List(ctx context.Context) ([]models.ConnectionRecord, error) {
	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultPrimaryTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	run := s.Run
	if run == nil {
		run = ExecRunner
	}

	out, err := run(ctx, s.Command, s.Args...)
	if err != nil {
		return nil, err
	}
	return ParseNetstat(string(out), s.HeaderLines), nil
}

// ParseNetstat extracts ESTABLISHED connections from netstat text output.
// The first headerLines lines are skipped; malformed lines are dropped.
func ParseNetstat(output string, headerLines int) []models.ConnectionRecord {
	var records []models.ConnectionRecord

	scanner := bufio.NewScanner(strings.NewReader(output))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo <= headerLines {
			continue
		}

		rec, ok := ParseLine(scanner.Text())
		if !ok {
			continue
		}
		records = append(records, rec)
	}

	return records
}

// ParseLine parses one "proto local remote state pid" line.
// It reports false for non-established or malformed lines.
func ParseLine(line string) (models.ConnectionRecord, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return models.ConnectionRecord{}, false
	}
	if fields[3] != stateEstablished {
		return models.ConnectionRecord{}, false
	}

	pid := fields[4]
	if n, err := strconv.Atoi(pid); err != nil || n < 0 {
		return models.ConnectionRecord{}, false
	}

	localAddr, localPort, ok := parseEndpoint(fields[1])
	if !ok {
		return models.ConnectionRecord{}, false
	}
	remoteAddr, remotePort, ok := parseEndpoint(fields[2])
	if !ok {
		return models.ConnectionRecord{}, false
	}

	return models.ConnectionRecord{
		PID:           pid,
		Protocol:      fields[0],
		LocalAddress:  localAddr,
		LocalPort:     localPort,
		RemoteAddress: remoteAddr,
		RemotePort:    remotePort,
		State:         fields[3],
	}, true
}

// SplitEndpoint splits "addr:port" on the last colon. Without a colon the
// whole string is the address and the port is "0". Brackets around IPv6
// addresses are removed.
func SplitEndpoint(s string) (string, string) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return s, "0"
	}
	addr := s[:idx]
	if strings.HasPrefix(addr, "[") && strings.HasSuffix(addr, "]") {
		addr = addr[1 : len(addr)-1]
	}
	return addr, s[idx+1:]
}

func parseEndpoint(s string) (string, int, bool) {
	addr, portStr := SplitEndpoint(s)
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 0 || port > 65535 {
		return "", 0, false
	}
	return addr, port, true
}
