package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newtron-network/newtcheck/pkg/metrics"
	"github.com/newtron-network/newtcheck/pkg/runner"
	"github.com/newtron-network/newtcheck/pkg/transport"
	"github.com/newtron-network/newtcheck/pkg/util"
)

func newRunCmd() *cobra.Command {
	var flags runFlags
	var replay string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the catalog against the inventory",
		Long: `Run every catalog test on every applicable device and print the results.

Tests are sent over SSH unless --replay names a Redis store of replies
captured by 'newtcheck record'. Exit status is 1 when any test reports
failure or error.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.resolve(cmd); err != nil {
				return err
			}
			inv, cat, err := flags.load()
			if err != nil {
				return err
			}
			opts := flags.options()

			var tr transport.Transport
			if replay != "" {
				store := transport.NewStore(replay, 0)
				defer store.Close()
				tr = &transport.Replay{Store: store}
			} else {
				if err := promptPasswords(inv.Filter(opts.Tags)); err != nil {
					return err
				}
				tr = transport.NewSSH()
			}

			if flags.metricsFile != "" {
				opts.Metrics = metrics.NewCollector()
			}
			report, err := runner.New(inv, cat, tr, opts).Run(cmd.Context())
			if err != nil {
				return err
			}
			printResults(report)
			flags.appendHistory(report)

			if opts.Metrics != nil {
				if err := opts.Metrics.Write(flags.metricsFile); err != nil {
					util.Logger.Warnf("Writing metrics to %s: %v", flags.metricsFile, err)
				}
			}
			if !report.Summary.OK() {
				return fmt.Errorf("%w: %d failed, %d errored", errChecksFailed, report.Summary.Failure, report.Summary.Error)
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&replay, "replay", "", "answer commands from the Redis store at this address instead of SSH")
	return cmd
}
