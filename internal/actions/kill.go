package actions

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ErrInvalidPID is returned for pids that cannot name a real process.
var ErrInvalidPID = errors.New("invalid pid")

// KillTimeout bounds a termination attempt.
const KillTimeout = 10 * time.Second

// Killer terminates a process by pid.
type Killer interface {
	Kill(ctx context.Context, pid int) error
}

// KillerFunc adapts a function to Killer.
type KillerFunc func(ctx context.Context, pid int) error

func (f KillerFunc) Kill(ctx context.Context, pid int) error { return f(ctx, pid) }

// ParsePID validates a pid string as shown in the tables.
func ParsePID(s string) (int, error) {
	pid, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPID, s)
	}
	return pid, nil
}

// DefaultKiller uses taskkill on Windows and gopsutil elsewhere.
func DefaultKiller() Killer {
	if runtime.GOOS == "windows" {
		return KillerFunc(taskkill)
	}
	return KillerFunc(signalKill)
}

// KillProcess forcibly terminates pid with the platform default killer.
func KillProcess(ctx context.Context, pid int) error {
	return Terminate(ctx, DefaultKiller(), pid)
}

// Terminate validates pid and runs k under KillTimeout.
func Terminate(ctx context.Context, k Killer, pid int) error {
	if pid <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}

	ctx, cancel := context.WithTimeout(ctx, KillTimeout)
	defer cancel()

	if err := k.Kill(ctx, pid); err != nil {
		return fmt.Errorf("terminate process %d: %w", pid, err)
	}
	return nil
}

func taskkill(ctx context.Context, pid int) error {
	cmd := exec.CommandContext(ctx, "taskkill", "/PID", strconv.Itoa(pid), "/F")
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("taskkill: %v (%s)", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func signalKill(ctx context.Context, pid int) error {
	p, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return fmt.Errorf("open process: %w", err)
	}
	if err := p.KillWithContext(ctx); err != nil {
		return fmt.Errorf("kill: %w", err)
	}
	return nil
}
