package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/newtcheck/pkg/cli"
	"github.com/newtron-network/newtcheck/pkg/history"
	"github.com/newtron-network/newtcheck/pkg/unit"
)

func newHistoryCmd() *cobra.Command {
	var (
		file   string
		filter history.Filter
		status string
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show results of past runs",
		Long: `Show results recorded in the history file by earlier runs.

Examples:
  newtcheck history --device leaf1
  newtcheck history --status failure --since 24h
  newtcheck history --run 0b6c2f1e-... --limit 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if file == "" {
				file = userSettings.HistoryFile
			}
			if file == "" {
				return fmt.Errorf("no history file (--file or 'newtcheck settings set history_file <path>')")
			}
			filter.Status = unit.Status(status)
			if since > 0 {
				filter.StartTime = time.Now().Add(-since)
			}

			l, err := history.NewFileLogger(file, history.RotationConfig{})
			if err != nil {
				return err
			}
			defer l.Close()
			events, err := l.Query(filter)
			if err != nil {
				return err
			}
			if len(events) == 0 {
				fmt.Println("No matching results")
				return nil
			}

			t := cli.NewTable("TIME", "RUN", "DEVICE", "TEST", "STATUS", "MESSAGE")
			for _, e := range events {
				t.Row(e.Timestamp.Local().Format("2006-01-02 15:04:05"), shortID(e.RunID), e.Device, e.Test,
					cli.Status(string(e.Status)), strings.Join(e.Messages, "; "))
			}
			t.Flush()
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "history file (default from settings)")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "only this run ID")
	cmd.Flags().StringVar(&filter.Device, "device", "", "only this device")
	cmd.Flags().StringVar(&filter.Test, "test", "", "only this test name")
	cmd.Flags().StringVar(&status, "status", "", "only this status (success, failure, error, skipped)")
	cmd.Flags().DurationVar(&since, "since", 0, "only results newer than this")
	cmd.Flags().IntVar(&filter.Limit, "limit", 0, "maximum number of results")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
