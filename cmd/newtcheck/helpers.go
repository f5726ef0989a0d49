package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/newtron-network/newtcheck/pkg/catalog"
	"github.com/newtron-network/newtcheck/pkg/cli"
	"github.com/newtron-network/newtcheck/pkg/history"
	"github.com/newtron-network/newtcheck/pkg/inventory"
	"github.com/newtron-network/newtcheck/pkg/runner"
	"github.com/newtron-network/newtcheck/pkg/util"
)

// errChecksFailed is returned when the run completed with at least one
// Failure or Error result.
var errChecksFailed = errors.New("one or more checks did not pass")

// exitCode maps a command error to the process exit status:
// 1 for failed checks, 2 for anything that kept the run from completing.
func exitCode(err error) int {
	if errors.Is(err, errChecksFailed) {
		return 1
	}
	return 2
}

// runFlags are shared by run and record.
type runFlags struct {
	inventory   string
	catalog     string
	tags        string
	concurrency int
	timeout     time.Duration
	metricsFile string
	historyFile string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.inventory, "inventory", "i", "", "inventory YAML file (default from settings)")
	cmd.Flags().StringVarP(&f.catalog, "catalog", "c", "", "catalog YAML file (default from settings)")
	cmd.Flags().StringVar(&f.tags, "tags", "", "comma-separated tags restricting devices and tests")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, fmt.Sprintf("devices checked in parallel (default %d)", runner.DefaultConcurrency))
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, fmt.Sprintf("per-command timeout (default %s)", runner.DefaultCommandTimeout))
	cmd.Flags().StringVar(&f.metricsFile, "metrics-file", "", "write Prometheus text metrics to this file")
	cmd.Flags().StringVar(&f.historyFile, "history", "", "append results to this JSON-lines history file (default from settings)")
}

// resolve fills unset flags from settings.
func (f *runFlags) resolve(cmd *cobra.Command) error {
	if f.inventory == "" {
		f.inventory = userSettings.Inventory
	}
	if f.catalog == "" {
		f.catalog = userSettings.Catalog
	}
	if f.historyFile == "" {
		f.historyFile = userSettings.HistoryFile
	}
	if !cmd.Flags().Changed("concurrency") {
		f.concurrency = userSettings.Concurrency
	}
	if !cmd.Flags().Changed("timeout") {
		f.timeout = userSettings.GetCommandTimeout()
	}
	v := &util.ValidationBuilder{}
	v.Add(f.inventory != "", "inventory file is required (-i or 'newtcheck settings set inventory <file>')")
	v.Add(f.catalog != "", "catalog file is required (-c or 'newtcheck settings set catalog <file>')")
	v.Add(f.concurrency >= 0, "--concurrency must not be negative")
	return v.Build()
}

func (f *runFlags) options() runner.Options {
	return runner.Options{
		Concurrency:    f.concurrency,
		CommandTimeout: f.timeout,
		Tags:           util.SplitCommaSeparated(f.tags),
		Progress:       runner.NewConsoleProgress(verbose),
	}
}

func (f *runFlags) load() (*inventory.Inventory, *catalog.Catalog, error) {
	inv, err := inventory.Load(f.inventory)
	if err != nil {
		return nil, nil, err
	}
	cat, err := catalog.Load(f.catalog)
	if err != nil {
		return nil, nil, err
	}
	return inv, cat, nil
}

// appendHistory logs report to the history file, when one is configured.
func (f *runFlags) appendHistory(report *runner.Report) {
	if f.historyFile == "" {
		return
	}
	l, err := history.NewFileLogger(f.historyFile, history.RotationConfig{MaxSize: 64 << 20, MaxBackups: 5})
	if err != nil {
		util.Logger.Warnf("History: %v", err)
		return
	}
	defer l.Close()
	if err := l.Log(history.FromReport(report)...); err != nil {
		util.Logger.Warnf("Writing history to %s: %v", f.historyFile, err)
	}
}

// promptPasswords asks for the password of every selected device that has
// none, once per username.
func promptPasswords(devices []*inventory.Device) error {
	asked := map[string]string{}
	for _, d := range devices {
		if d.Password != "" {
			continue
		}
		if pw, ok := asked[d.Username]; ok {
			d.Password = pw
			continue
		}
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("device %s: no password in inventory and stdin is not a terminal", d.Name)
		}
		fmt.Fprintf(os.Stderr, "Password for %s@%s: ", d.Username, d.Name)
		pw, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		d.Password = string(pw)
		asked[d.Username] = d.Password
	}
	return nil
}

// printResults prints one row per result, with each message on its own
// continuation row.
func printResults(report *runner.Report) {
	t := cli.NewTable("DEVICE", "TEST", "CATEGORIES", "STATUS", "MESSAGE")
	for _, rec := range report.Records {
		msgs := rec.Messages
		first := ""
		if len(msgs) > 0 {
			first = msgs[0]
		}
		t.Row(rec.Device, rec.Test, strings.Join(rec.Categories, ","), cli.Status(string(rec.Status)), first)
		for _, m := range msgs[min(1, len(msgs)):] {
			t.Row("", "", "", "", m)
		}
	}
	for _, rec := range report.Skipped {
		t.Row(rec.Device, rec.Test, strings.Join(rec.Categories, ","), cli.Status(string(rec.Status)), strings.Join(rec.Messages, "; "))
	}
	fmt.Println()
	t.Flush()
}
