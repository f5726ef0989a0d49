// Newtcheck - network state assertions over device command output
//
// A catalog lists test kinds with their inputs; an inventory lists devices.
// For each device, every applicable test registers the commands it needs,
// identical commands are sent once, and each test evaluates the shared
// replies into Success, Failure, Error or Skipped.
//
// Examples:
//
//	newtcheck run -i inventory.yaml -c catalog.yaml
//	newtcheck run -i inventory.yaml -c catalog.yaml --tags leaf --timeout 10s
//	newtcheck record -i inventory.yaml -c catalog.yaml --redis 127.0.0.1:6379
//	newtcheck run -i inventory.yaml -c catalog.yaml --replay 127.0.0.1:6379
//	newtcheck list
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/newtron-network/newtcheck/pkg/settings"
	"github.com/newtron-network/newtcheck/pkg/util"
	"github.com/newtron-network/newtcheck/pkg/version"
)

var (
	verbose      bool
	logLevel     string
	jsonLogs     bool
	userSettings *settings.Settings
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newtcheck",
		Short: "Network state assertions",
		Long: `Newtcheck runs a catalog of state assertions against an inventory of devices.

  newtcheck list                              # show available tests
  newtcheck run -i inv.yaml -c catalog.yaml   # run the catalog over SSH
  newtcheck record -i inv.yaml -c cat.yaml    # run and store replies in Redis
  newtcheck run ... --replay 127.0.0.1:6379   # run against stored replies
  newtcheck history --device leaf1            # past results`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := settings.Load()
			if err != nil {
				return fmt.Errorf("loading settings: %w", err)
			}
			userSettings = s

			level := "warn"
			switch {
			case verbose:
				level = "debug"
			case cmd.Flags().Changed("log-level"):
				level = logLevel
			case s.LogLevel != "":
				level = s.LogLevel
			}
			if err := util.SetLogLevel(level); err != nil {
				return fmt.Errorf("invalid log level %q: %w", level, err)
			}
			if jsonLogs {
				util.SetJSONFormat()
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (debug logging, per-test progress)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "log-json", false, "Log in JSON format")

	rootCmd.AddCommand(
		newRunCmd(),
		newRecordCmd(),
		newListCmd(),
		newHistoryCmd(),
		settingsCmd,
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				if version.Version == "dev" {
					fmt.Println("newtcheck dev build (use 'make build' for version info)")
				} else {
					fmt.Printf("newtcheck %s\n", version.Info())
				}
			},
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
