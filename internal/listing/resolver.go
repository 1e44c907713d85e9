package listing

import (
	"context"
	"encoding/csv"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"

	"connwatch/internal/models"
)

// DefaultResolveTimeout bounds a single pid lookup.
const DefaultResolveTimeout = 2 * time.Second

// TasklistResolver looks a pid up with `tasklist /FI "PID eq n" /FO CSV /NH`.
type TasklistResolver struct {
	Timeout time.Duration
	Run     Runner
}

func (r *TasklistResolver) Resolve(ctx context.Context, pid string) string {
	if _, err := strconv.Atoi(pid); err != nil {
		return models.UnknownProcess
	}

	ctx, cancel := context.WithTimeout(ctx, orDefault(r.Timeout, DefaultResolveTimeout))
	defer cancel()

	run := r.Run
	if run == nil {
		run = ExecRunner
	}

	out, err := run(ctx, "tasklist", "/FI", "PID eq "+pid, "/FO", "CSV", "/NH")
	if err != nil {
		return models.UnknownProcess
	}
	return parseTasklistName(string(out))
}

// parseTasklistName returns the image name from the first CSV row.
// tasklist prints an "INFO:" line instead of CSV when nothing matches.
func parseTasklistName(out string) string {
	out = strings.TrimSpace(out)
	if out == "" || strings.HasPrefix(out, "INFO:") {
		return models.UnknownProcess
	}

	r := csv.NewReader(strings.NewReader(out))
	r.FieldsPerRecord = -1
	record, err := r.Read()
	if err != nil || len(record) == 0 {
		return models.UnknownProcess
	}

	name := strings.TrimSpace(record[0])
	if name == "" {
		return models.UnknownProcess
	}
	return name
}

// ProcessResolver resolves names through gopsutil.
type ProcessResolver struct {
	Timeout time.Duration
}

func (r *ProcessResolver) Resolve(ctx context.Context, pid string) string {
	n, err := strconv.ParseInt(pid, 10, 32)
	if err != nil || n <= 0 {
		return models.UnknownProcess
	}

	ctx, cancel := context.WithTimeout(ctx, orDefault(r.Timeout, DefaultResolveTimeout))
	defer cancel()

	p, err := process.NewProcessWithContext(ctx, int32(n))
	if err != nil {
		return models.UnknownProcess
	}
	name, err := p.NameWithContext(ctx)
	if err != nil || name == "" {
		return models.UnknownProcess
	}
	return name
}

// DefaultResolver picks tasklist on Windows and gopsutil elsewhere.
func DefaultResolver(timeout time.Duration) Resolver {
	if runtime.GOOS == "windows" {
		return &TasklistResolver{Timeout: timeout, Run: ExecRunner}
	}
	return &ProcessResolver{Timeout: timeout}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
