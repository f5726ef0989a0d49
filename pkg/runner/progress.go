package runner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/newtron-network/newtcheck/pkg/cli"
	"github.com/newtron-network/newtcheck/pkg/inventory"
	"github.com/newtron-network/newtcheck/pkg/unit"
)

// ProgressReporter receives lifecycle callbacks during a run. DeviceStart
// and DeviceEnd are called from the device goroutines.
type ProgressReporter interface {
	RunStart(runID string, devices []*inventory.Device, tests int)
	DeviceStart(device string, index, total int)
	DeviceEnd(result *DeviceResult, index, total int)
	RunEnd(report *Report)
}

// ConsoleProgress is an append-only terminal progress reporter.
// It never uses ANSI cursor rewriting, so output is safe for pipes, CI,
// and scrollback buffers.
type ConsoleProgress struct {
	W       io.Writer
	Verbose bool

	mu       sync.Mutex
	done     int
	dotWidth int
}

// NewConsoleProgress creates a ConsoleProgress writing to stdout.
func NewConsoleProgress(verbose bool) *ConsoleProgress {
	return &ConsoleProgress{
		W:       os.Stdout,
		Verbose: verbose,
	}
}

func (p *ConsoleProgress) RunStart(runID string, devices []*inventory.Device, tests int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	maxName := 0
	for _, d := range devices {
		if len(d.Name) > maxName {
			maxName = len(d.Name)
		}
	}
	p.dotWidth = maxName + 6
	p.done = 0

	fmt.Fprintf(p.W, "\nnewtcheck: %d devices, %d tests, run %s\n\n", len(devices), tests, runID)
}

func (p *ConsoleProgress) DeviceStart(device string, index, total int) {
	if !p.Verbose {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.W, "  %s  %s\n", cli.Dim("start"), device)
}

// DeviceEnd prints one line per device in completion order; the counter
// shows how many devices have finished.
func (p *ConsoleProgress) DeviceEnd(result *DeviceResult, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.done++

	tag := fmt.Sprintf("[%d/%d]", p.done, total)
	padded := cli.DotPad(result.Device, p.dotWidth)
	fmt.Fprintf(p.W, "  %-7s %s %s  (%s)\n", tag, padded, countParts(result.Records, len(result.Skipped)), formatDuration(result.Duration))

	if result.Fault != nil {
		fmt.Fprintf(p.W, "          %s\n", cli.Dim(result.Fault.Error()))
	}
	if !p.Verbose {
		return
	}
	for _, rec := range result.Records {
		if rec.Status == unit.StatusSuccess {
			continue
		}
		fmt.Fprintf(p.W, "          %s %s\n", cli.Badge(string(rec.Status)), rec.Test)
		for _, m := range rec.Messages {
			fmt.Fprintf(p.W, "               %s\n", cli.Dim(m))
		}
	}
}

func (p *ConsoleProgress) RunEnd(report *Report) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := report.Summary
	fmt.Fprintf(p.W, "\n---\n")
	fmt.Fprintf(p.W, "newtcheck: %d results", s.Total())
	if parts := summaryParts(s); len(parts) > 0 {
		fmt.Fprintf(p.W, ": %s", strings.Join(parts, ", "))
	}
	fmt.Fprintf(p.W, "  (%s)\n", formatDuration(s.Duration))
	fmt.Fprintf(p.W, "  %d transport calls, %d served from cache\n", s.Commands, s.CacheHits)

	failed := report.Failed()
	if len(failed) == 0 {
		return
	}
	fmt.Fprintf(p.W, "\n  FAILED:\n")
	for i, rec := range failed {
		fmt.Fprintf(p.W, "    [%d]  %s %s (%s)\n", i+1, rec.Device, rec.Test, rec.Status)
		for _, m := range rec.Messages {
			fmt.Fprintf(p.W, "         %s\n", m)
		}
	}
}

func countParts(records []Record, skipped int) string {
	var s Summary
	for _, rec := range records {
		switch rec.Status {
		case unit.StatusSuccess:
			s.Success++
		case unit.StatusFailure:
			s.Failure++
		default:
			s.Error++
		}
	}
	s.Skipped = skipped
	parts := summaryParts(s)
	if len(parts) == 0 {
		return cli.Dim("no tests")
	}
	return strings.Join(parts, ", ")
}

func summaryParts(s Summary) []string {
	var parts []string
	if s.Success > 0 {
		parts = append(parts, cli.Green(fmt.Sprintf("%d passed", s.Success)))
	}
	if s.Failure > 0 {
		parts = append(parts, cli.Red(fmt.Sprintf("%d failed", s.Failure)))
	}
	if s.Error > 0 {
		parts = append(parts, cli.Red(fmt.Sprintf("%d errored", s.Error)))
	}
	if s.Skipped > 0 {
		parts = append(parts, cli.Yellow(fmt.Sprintf("%d skipped", s.Skipped)))
	}
	return parts
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm%02ds", m, s)
}
