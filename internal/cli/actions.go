package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"connwatch/internal/actions"
	"connwatch/internal/logging"
	"connwatch/internal/reporting"
)

func newKillCmd(opts *globalOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "kill <pid>",
		Short: "Forcibly terminate a process by pid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := actions.ParsePID(args[0])
			if err != nil {
				return err
			}
			if !yes {
				return fmt.Errorf("refusing to terminate pid %d without --yes", pid)
			}

			cfg, _, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger := logging.New(logging.Config{Level: cfg.ConnWatch.Logging.Level, Pretty: true, Output: cmd.ErrOrStderr()})

			if err := actions.KillProcess(cmd.Context(), pid); err != nil {
				logger.Error().Err(err).Int("pid", pid).Msg("Kill failed")
				return err
			}
			logger.Info().Int("pid", pid).Msg("Process terminated")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm termination")
	return cmd
}

func newLookupCmd() *cobra.Command {
	var open bool

	cmd := &cobra.Command{
		Use:   "lookup <ip>",
		Short: "Print (or open) the reputation lookup URL for an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if open {
				u, err := actions.OpenLookup(args[0], nil)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), u)
				return nil
			}

			u, err := actions.LookupURL(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}

	cmd.Flags().BoolVar(&open, "open", false, "open the URL in the default browser")
	return cmd
}

func newExportCmd(opts *globalOptions) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Run one sampling pass and write a text report",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newCLIApp(opts)
			if err != nil {
				return err
			}
			defer a.Close()

			if dir == "" {
				dir = a.cfg.ConnWatch.Export.Dir
			}

			snap := a.monitor.RunOnce(cmd.Context())
			path, err := reporting.WriteReport(dir, snap)
			if err != nil {
				return fmt.Errorf("export failed: %w", err)
			}
			a.logger.Info().Str("path", path).Int("connections", snap.Stats.TotalConnections).Msg("Report exported")
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default from config)")
	return cmd
}
