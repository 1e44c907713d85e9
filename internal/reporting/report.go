package reporting

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"connwatch/internal/monitor"
)

const (
	reportTitle  = "CONNWATCH - SECURITY REPORT"
	headerRule   = 60
	sectionRule  = 30
	filePrefix   = "connwatch_export_"
	fileStampFmt = "20060102_150405"
)

// Filename returns the export file name for a report generated at t.
func Filename(t time.Time) string {
	return filePrefix + t.Format(fileStampFmt) + ".txt"
}

// WriteReport writes the snapshot as a plain-text report into dir and
// returns the path of the created file.
func WriteReport(dir string, snap monitor.Snapshot) (string, error) {
	return writeReportAt(dir, snap, time.Now())
}

func writeReportAt(dir string, snap monitor.Snapshot, now time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	path := filepath.Join(dir, Filename(now))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report: %w", err)
	}

	if err := Render(file, snap, now); err != nil {
		file.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	return path, nil
}

// Render writes the report body to w.
func Render(w io.Writer, snap monitor.Snapshot, now time.Time) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, reportTitle)
	fmt.Fprintf(bw, "Generated: %s\n", now.Format("2006-01-02 15:04:05"))
	if snap.SessionID != "" {
		fmt.Fprintf(bw, "Session: %s\n", snap.SessionID)
	}
	if snap.Batch.Source != "" {
		fmt.Fprintf(bw, "Source: %s", snap.Batch.Source)
		if snap.Batch.Degraded {
			fmt.Fprint(bw, " (degraded)")
		}
		fmt.Fprintln(bw)
	}
	fmt.Fprintln(bw, strings.Repeat("=", headerRule))
	fmt.Fprintln(bw)

	fmt.Fprintln(bw, "ACTIVE CONNECTIONS:")
	fmt.Fprintln(bw, strings.Repeat("-", sectionRule))
	for _, c := range snap.Batch.Connections {
		fmt.Fprintf(bw, "PID: %s | Process: %s | Remote: %s\n", c.PID, c.ProcessName, c.RemoteEndpoint())
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "SUSPICIOUS PROCESSES:")
	fmt.Fprintln(bw, strings.Repeat("-", sectionRule))
	for _, s := range snap.Batch.Suspicious {
		fmt.Fprintf(bw, "Risk: %d/5 | PID: %s | Process: %s | Reason: %s\n",
			s.Risk.RiskLevel, s.Connection.PID, s.Connection.ProcessName, s.Risk.Reason())
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "SUMMARY:")
	fmt.Fprintln(bw, strings.Repeat("-", sectionRule))
	st := snap.Stats
	fmt.Fprintf(bw, "Total connections: %d\n", st.TotalConnections)
	fmt.Fprintf(bw, "Suspicious: %d\n", st.TotalSuspicious)
	fmt.Fprintf(bw, "Unique processes: %d\n", st.UniqueProcesses)
	fmt.Fprintf(bw, "External: %d\n", st.ExternalConnections)
	fmt.Fprintf(bw, "Average risk: %.1f/5\n", st.AverageRisk)

	return bw.Flush()
}
