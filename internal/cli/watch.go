package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"connwatch/internal/logging"
	"connwatch/internal/metrics"
	"connwatch/internal/monitor"
	"connwatch/internal/tui"
)

const logRingSize = 500

func newWatchCmd(opts *globalOptions) *cobra.Command {
	var autoStart bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Open the interactive connection monitor",
		Long: `Open the terminal UI. Press s to start polling, x to stop, r for a
single pass while stopped. Select a row to copy its pid or address,
look the address up, or terminate the owning process.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatchWith(cmd, opts, autoStart)
		},
	}
	cmd.Flags().BoolVar(&autoStart, "start", false, "start polling immediately")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *globalOptions) error {
	return runWatchWith(cmd, opts, false)
}

func runWatchWith(cmd *cobra.Command, opts *globalOptions, autoStart bool) error {
	ring := logging.NewRing(logRingSize)
	a, err := newApp(opts, ring, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	snapshots := make(chan monitor.Snapshot, 1)
	a.monitor.Subscribe(tui.ChannelSink(snapshots))

	mc := a.cfg.ConnWatch.Metrics
	if mc.Enabled {
		exporter := metrics.NewExporter()
		a.monitor.Subscribe(exporter.Observe)
		go func() {
			if err := exporter.Serve(ctx, mc.Listen, mc.Path, a.logger); err != nil {
				a.logger.Error().Err(err).Msg("Metrics endpoint failed")
			}
		}()
	}

	if autoStart {
		if err := a.monitor.Start(ctx); err != nil {
			return err
		}
	}

	model := tui.NewModel(ctx, tui.Deps{
		Monitor:   a.monitor,
		Snapshots: snapshots,
		Logs:      ring,
		Logger:    a.logger,
		ExportDir: a.cfg.ConnWatch.Export.Dir,
	})

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	a.monitor.Stop()
	a.monitor.Wait()
	return nil
}
