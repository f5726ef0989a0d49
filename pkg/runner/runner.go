// Package runner schedules test units across an inventory. For each device
// it collects every unit's commands into one cache, resolves the cache in a
// single pass, then evaluates the units against the shared replies.
package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/newtron-network/newtcheck/pkg/catalog"
	"github.com/newtron-network/newtcheck/pkg/command"
	"github.com/newtron-network/newtcheck/pkg/inventory"
	"github.com/newtron-network/newtcheck/pkg/metrics"
	"github.com/newtron-network/newtcheck/pkg/transport"
	"github.com/newtron-network/newtcheck/pkg/unit"
	"github.com/newtron-network/newtcheck/pkg/util"
)

// Defaults applied to zero-valued Options fields.
const (
	DefaultConcurrency        = 10
	DefaultCommandConcurrency = 20
	DefaultCommandTimeout     = 30 * time.Second
)

// Options bounds a run.
type Options struct {
	// Concurrency is the number of devices processed in parallel.
	Concurrency int
	// CommandConcurrency is the number of commands in flight per device.
	CommandConcurrency int
	// CommandTimeout applies to each transport call.
	CommandTimeout time.Duration
	// Tags restricts the run to devices and catalog entries carrying one of
	// them. Empty runs everything.
	Tags []string

	Progress ProgressReporter
	Metrics  *metrics.Collector
}

func (o Options) withDefaults() Options {
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	if o.CommandConcurrency <= 0 {
		o.CommandConcurrency = DefaultCommandConcurrency
	}
	if o.CommandTimeout <= 0 {
		o.CommandTimeout = DefaultCommandTimeout
	}
	return o
}

// Runner runs one catalog against one inventory.
type Runner struct {
	Inventory *inventory.Inventory
	Catalog   *catalog.Catalog
	Transport transport.Transport
	Options   Options
}

// New returns a Runner with defaults applied to opts.
func New(inv *inventory.Inventory, cat *catalog.Catalog, tr transport.Transport, opts Options) *Runner {
	return &Runner{
		Inventory: inv,
		Catalog:   cat,
		Transport: tr,
		Options:   opts.withDefaults(),
	}
}

// Run evaluates every applicable unit on every selected device. Device and
// command faults are recorded as Error results; Run only returns an error
// when it cannot start.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.Inventory == nil || r.Catalog == nil || r.Transport == nil {
		return nil, errors.New("runner: inventory, catalog and transport are required")
	}
	opts := r.Options.withDefaults()
	report := &Report{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}
	log := util.WithRun(report.RunID)

	devices := r.Inventory.Filter(opts.Tags)
	log.Infof("Starting run: %d devices, %d catalog entries", len(devices), len(r.Catalog.Tests))
	if opts.Progress != nil {
		opts.Progress.RunStart(report.RunID, devices, len(r.Catalog.Tests))
	}

	results := make([]*DeviceResult, len(devices))
	sem := semaphore.NewWeighted(int64(opts.Concurrency))
	var wg sync.WaitGroup
	for i, dev := range devices {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Cancelled: remaining devices still get a result, with every
			// command failing on the cancelled context.
			results[i] = r.runDevice(ctx, log, opts, dev, i, len(devices))
			continue
		}
		wg.Add(1)
		go func(i int, dev *inventory.Device) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = r.runDevice(ctx, log, opts, dev, i, len(devices))
		}(i, dev)
	}
	wg.Wait()

	for _, dr := range results {
		report.add(dr)
	}
	report.Summary.Duration = time.Since(report.Started)

	for _, rec := range report.Records {
		opts.Metrics.ObserveResult(string(rec.Status))
	}
	for range report.Skipped {
		opts.Metrics.ObserveResult(string(unit.StatusSkipped))
	}
	opts.Metrics.ObserveRun(report.Summary.Duration)

	log.WithFields(logrus.Fields{
		"success": report.Summary.Success,
		"failure": report.Summary.Failure,
		"error":   report.Summary.Error,
		"skipped": report.Summary.Skipped,
	}).Infof("Run complete in %s", report.Summary.Duration.Round(time.Millisecond))
	if opts.Progress != nil {
		opts.Progress.RunEnd(report)
	}
	return report, nil
}

// runDevice drives one device through collect, resolve and evaluate.
func (r *Runner) runDevice(ctx context.Context, runLog *logrus.Entry, opts Options, dev *inventory.Device, index, total int) *DeviceResult {
	start := time.Now()
	log := runLog.WithField("device", dev.Name)
	if opts.Progress != nil {
		opts.Progress.DeviceStart(dev.Name, index, total)
	}
	log.Infof("Checking device %s (%s)", dev.Name, dev.Platform)

	dr := &DeviceResult{Device: dev.Name}
	target := unit.Target{Device: dev.Name, Platform: dev.Platform}
	units := r.Catalog.Units(target, dev.AllTags(), opts.Tags)

	cache := command.NewCache(dev.Name)
	var active []*unit.Unit
	for _, u := range units {
		switch {
		case u.State() == unit.StateErrored:
			log.WithField("test", u.Name).Debugf("Not requesting commands: %v", u.Result.Messages())
		case u.Guard():
			log.WithField("test", u.Name).Debugf("Skipped: %v", u.Result.Messages())
		default:
			if err := u.Request(cache); err != nil {
				log.WithField("test", u.Name).Debugf("Request failed: %v", err)
				continue
			}
			active = append(active, u)
		}
	}
	dr.CacheHits = cache.Hits()
	opts.Metrics.ObserveCacheHits(dev.Name, dr.CacheHits)
	if dr.CacheHits > 0 {
		log.Debugf("%d shared command requests served from cache", dr.CacheHits)
	}

	if cache.Len() > 0 {
		dr.Commands, dr.Fault = r.resolve(ctx, log, opts, dev, cache)
		if dr.Fault != nil {
			opts.Metrics.ObserveDeviceFault(dev.Name)
			log.Warnf("Device fault: %v", dr.Fault)
		}
	}

	var g errgroup.Group
	for _, u := range active {
		u := u
		g.Go(func() error {
			u.Evaluate()
			return nil
		})
	}
	_ = g.Wait()

	for _, u := range units {
		rec := newRecord(u)
		if rec.Status == unit.StatusSkipped {
			dr.Skipped = append(dr.Skipped, rec)
		} else {
			dr.Records = append(dr.Records, rec)
		}
	}
	dr.Duration = time.Since(start)
	log.Infof("Device %s done: %d results, %d skipped, %d transport calls (%s)",
		dev.Name, len(dr.Records), len(dr.Skipped), dr.Commands, dr.Duration.Round(time.Millisecond))
	if opts.Progress != nil {
		opts.Progress.DeviceEnd(dr, index, total)
	}
	return dr
}

// resolve connects when the transport holds sessions, then resolves every
// pending command. It returns the number of transport calls made and the
// device-level fault, if any.
func (r *Runner) resolve(ctx context.Context, log *logrus.Entry, opts Options, dev *inventory.Device, cache *command.Cache) (int, error) {
	var calls int64
	send := r.instrument(dev, transport.Bind(r.Transport, dev), &calls)

	if c, ok := r.Transport.(transport.Connector); ok {
		if err := c.Connect(ctx, dev); err != nil {
			connErr := &InfraError{Op: "connect", Device: dev.Name, Err: err}
			// Every command fails with the connect error; nothing is sent.
			send = func(context.Context, command.Identity) (any, error) {
				return nil, connErr
			}
		} else {
			defer func() {
				if err := c.Close(dev); err != nil {
					log.Debugf("Close: %v", err)
				}
			}()
		}
	}

	err := cache.ResolveAll(ctx, send, command.ResolveOptions{
		Concurrency: opts.CommandConcurrency,
		Timeout:     opts.CommandTimeout,
		OnResolve: func(cmd *command.Command) {
			if err := cmd.Err(); err != nil {
				log.Debugf("Command %s failed: %v", cmd, err)
				return
			}
			log.Debugf("Command %s resolved in %s", cmd, cmd.Duration().Round(time.Millisecond))
		},
	})
	n := int(atomic.LoadInt64(&calls))

	var infra *InfraError
	if errors.As(err, &infra) {
		return n, infra
	}
	if err != nil {
		return n, &InfraError{Op: "resolve", Device: dev.Name, Err: err}
	}
	// A connect failure that is not device-level fails each command on its
	// own without aborting the pass.
	for _, cmd := range cache.Commands() {
		if errors.As(cmd.Err(), &infra) {
			return n, infra
		}
	}
	return n, nil
}

// instrument counts and times transport calls for metrics.
func (r *Runner) instrument(dev *inventory.Device, send command.SendFunc, calls *int64) command.SendFunc {
	return func(ctx context.Context, id command.Identity) (any, error) {
		atomic.AddInt64(calls, 1)
		start := time.Now()
		out, err := send(ctx, id)
		r.Options.Metrics.ObserveCommand(dev.Name, time.Since(start), err)
		return out, err
	}
}
