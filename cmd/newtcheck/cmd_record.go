package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/newtron-network/newtcheck/pkg/runner"
	"github.com/newtron-network/newtcheck/pkg/transport"
)

func newRecordCmd() *cobra.Command {
	var flags runFlags
	var redisAddr string
	var clearFirst bool

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Run the catalog over SSH and store every reply in Redis",
		Long: `Run the catalog against live devices, storing each successful reply in
Redis so the same run can later be repeated with 'newtcheck run --replay'.

Examples:
  newtcheck record -i inventory.yaml -c catalog.yaml
  newtcheck record -i inventory.yaml -c catalog.yaml --redis 10.0.0.5:6379 --clear`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := flags.resolve(cmd); err != nil {
				return err
			}
			if redisAddr == "" {
				redisAddr = userSettings.GetRedisAddr()
			}
			inv, cat, err := flags.load()
			if err != nil {
				return err
			}
			opts := flags.options()
			devices := inv.Filter(opts.Tags)
			if err := promptPasswords(devices); err != nil {
				return err
			}

			store := transport.NewStore(redisAddr, 0)
			defer store.Close()
			if err := store.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("redis %s: %w", redisAddr, err)
			}
			if clearFirst {
				for _, d := range devices {
					n, err := store.Clear(cmd.Context(), d.Name)
					if err != nil {
						return fmt.Errorf("clearing %s: %w", d.Name, err)
					}
					fmt.Printf("Cleared %d stored replies for %s\n", n, d.Name)
				}
			}

			rec := &transport.Recorder{Inner: transport.NewSSH(), Store: store}
			report, err := runner.New(inv, cat, rec, opts).Run(cmd.Context())
			if err != nil {
				return err
			}
			flags.appendHistory(report)
			fmt.Printf("\nRecorded replies for %d devices (run %s) in %s\n", report.Summary.Devices, report.RunID, redisAddr)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&redisAddr, "redis", "", "Redis address (default from settings, else 127.0.0.1:6379)")
	cmd.Flags().BoolVar(&clearFirst, "clear", false, "delete the devices' stored replies before recording")
	return cmd
}
