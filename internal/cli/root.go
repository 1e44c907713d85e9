package cli

import (
	"runtime"
	"time"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X connwatch/internal/cli.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalOptions holds the persistent flags shared by every command.
type globalOptions struct {
	configPath  string
	logLevel    string
	interval    time.Duration
	metricsAddr string
}

// NewRootCmd builds the command tree. Running the root command without a
// subcommand starts the interactive monitor.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "connwatch",
		Short: "ConnWatch - live TCP connection monitor with risk scoring",
		Long: `Watch the established TCP connections of this host, attribute each one
to its owning process, and score it against a small rule table
(unknown process, backdoor ports, external address, processes that
should not use the network).

Run without a subcommand to open the interactive monitor.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "path to connwatch.yml")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.DurationVar(&opts.interval, "interval", 0, "polling interval (default from config, 5s)")
	flags.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(newWatchCmd(opts))
	rootCmd.AddCommand(newScanCmd(opts))
	rootCmd.AddCommand(newKillCmd(opts))
	rootCmd.AddCommand(newLookupCmd())
	rootCmd.AddCommand(newExportCmd(opts))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("ConnWatch version %s\n", Version)
			cmd.Printf("Git commit: %s\n", GitCommit)
			cmd.Printf("Build date: %s\n", BuildDate)
			cmd.Printf("Go version: %s\n", runtime.Version())
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
