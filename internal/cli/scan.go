package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"connwatch/internal/analysis"
	"connwatch/internal/models"
	"connwatch/internal/monitor"
)

func newScanCmd(opts *globalOptions) *cobra.Command {
	var (
		jsonOut        bool
		suspiciousOnly bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run one sampling pass and print the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newCLIApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			snap := a.monitor.RunOnce(cmd.Context())
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), snap)
			}
			return writeTable(cmd.OutOrStdout(), snap, suspiciousOnly)
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the batch and statistics as JSON")
	cmd.Flags().BoolVar(&suspiciousOnly, "suspicious", false, "print only connections with risk above zero")
	return cmd
}

type scanOutput struct {
	Session string              `json:"session"`
	Batch   models.SampleBatch  `json:"batch"`
	Stats   analysis.Statistics `json:"stats"`
}

func writeJSON(w io.Writer, snap monitor.Snapshot) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(scanOutput{
		Session: snap.SessionID,
		Batch:   snap.Batch,
		Stats:   snap.Stats,
	})
}

func writeTable(w io.Writer, snap monitor.Snapshot, suspiciousOnly bool) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if snap.Batch.Degraded {
		fmt.Fprintln(tw, "WARNING: all listing strategies failed; showing placeholder data")
	}

	if !suspiciousOnly {
		fmt.Fprintln(tw, "PID\tPROCESS\tLOCAL\tREMOTE\tSERVICE\tSTATE")
		for _, c := range snap.Batch.Connections {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
				c.PID, c.ProcessName, c.LocalEndpoint(), c.RemoteEndpoint(),
				analysis.GetServiceName(c.RemotePort), c.State)
		}
		fmt.Fprintln(tw)
	}

	fmt.Fprintln(tw, "RISK\tPID\tPROCESS\tREMOTE IP\tPORT\tREASON")
	for _, s := range snap.Batch.Suspicious {
		fmt.Fprintf(tw, "%d/%d\t%s\t%s\t%s\t%s\t%s\n",
			s.Risk.RiskLevel, analysis.MaxRisk, s.Connection.PID, s.Connection.ProcessName,
			s.Connection.RemoteAddress, strconv.Itoa(s.Connection.RemotePort), s.Risk.Reason())
	}

	st := snap.Stats
	fmt.Fprintf(tw, "\n%d connections, %d suspicious, %d processes, %d external, average risk %.1f (source: %s)\n",
		st.TotalConnections, st.TotalSuspicious, st.UniqueProcesses, st.ExternalConnections, st.AverageRisk, snap.Batch.Source)

	return tw.Flush()
}
