package command

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/newtron-network/newtcheck/pkg/util"
)

// SendFunc performs one transport call for id.
type SendFunc func(ctx context.Context, id Identity) (any, error)

// ResolveOptions bounds a ResolveAll pass.
type ResolveOptions struct {
	// Concurrency caps parallel transport calls (0 means unbounded).
	Concurrency int
	// Timeout applies to each transport call (0 means none).
	Timeout time.Duration
	// OnResolve, when set, is called once per Command this pass resolved.
	OnResolve func(cmd *Command)
}

// Cache holds every Command requested for one device during one run.
// GetOrCreate hands out the same *Command for the same Identity; ResolveAll
// issues each pending Command exactly once.
type Cache struct {
	device string

	mu       sync.Mutex
	commands map[string]*Command
	order    []*Command
	hits     int

	flights singleflight.Group
}

// NewCache creates an empty cache for device.
func NewCache(device string) *Cache {
	return &Cache{
		device:   device,
		commands: make(map[string]*Command),
	}
}

// Device returns the device the cache belongs to.
func (c *Cache) Device() string {
	return c.device
}

// GetOrCreate returns the registered Command for id, registering a new one
// on first request. created is false when an existing Command was returned.
func (c *Cache) GetOrCreate(id Identity) (cmd *Command, created bool) {
	if id.Format == "" {
		id.Format = FormatJSON
	}
	key := id.Key()

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.commands[key]; ok {
		c.hits++
		return existing, false
	}
	cmd = New(id)
	c.commands[key] = cmd
	c.order = append(c.order, cmd)
	return cmd, true
}

// Len returns the number of distinct Commands registered.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.order)
}

// Hits returns how many GetOrCreate calls were served by an existing Command.
func (c *Cache) Hits() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits
}

// Commands returns every registered Command in registration order.
func (c *Cache) Commands() []*Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Command, len(c.order))
	copy(out, c.order)
	return out
}

// Pending returns the registered Commands whose response slot is empty,
// in registration order.
func (c *Cache) Pending() []*Command {
	var pending []*Command
	for _, cmd := range c.Commands() {
		if !cmd.Resolved() {
			pending = append(pending, cmd)
		}
	}
	return pending
}

// Resolve issues cmd through send unless it is already resolved. Concurrent
// callers for the same Command share one transport call.
func (c *Cache) Resolve(ctx context.Context, cmd *Command, send SendFunc, timeout time.Duration) error {
	_, err, _ := c.flights.Do(cmd.Key(), func() (any, error) {
		if cmd.Resolved() {
			return nil, cmd.Err()
		}
		cctx := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		start := time.Now()
		out, err := send(cctx, cmd.Identity)
		if err != nil {
			if errors.Is(cctx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				err = fmt.Errorf("%w after %s", util.ErrTimeout, timeout)
			}
			err = &ResolveError{Device: c.device, Command: cmd.String(), Err: err}
			out = nil
		}
		cmd.complete(out, err, time.Since(start))
		return nil, cmd.Err()
	})
	return err
}

// ResolveAll resolves every pending Command. Faults on one Command are
// recorded on that Command only. A device-level fault (one wrapping
// util.ErrDeviceUnreachable) stops the pass: every Command still unresolved
// is failed with that fault, and the fault is returned.
func (c *Cache) ResolveAll(ctx context.Context, send SendFunc, opts ResolveOptions) error {
	pending := c.Pending()
	if len(pending) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu        sync.Mutex
		deviceErr error
	)
	fault := func() error {
		mu.Lock()
		defer mu.Unlock()
		return deviceErr
	}
	// Once the device has faulted, calls cut short by the abort report the
	// device fault rather than a cancellation.
	guarded := func(ctx context.Context, id Identity) (any, error) {
		out, err := send(ctx, id)
		if err != nil {
			if derr := fault(); derr != nil {
				return nil, derr
			}
			if errors.Is(err, util.ErrDeviceUnreachable) {
				mu.Lock()
				if deviceErr == nil {
					deviceErr = err
				}
				mu.Unlock()
				cancel()
			}
		}
		return out, err
	}

	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for _, cmd := range pending {
		if ctx.Err() != nil {
			break
		}
		cmd := cmd
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			_ = c.Resolve(ctx, cmd, guarded, opts.Timeout)
			if opts.OnResolve != nil {
				opts.OnResolve(cmd)
			}
			return nil
		})
	}
	_ = g.Wait()

	derr := fault()
	if derr == nil {
		return nil
	}
	for _, cmd := range pending {
		failed := &ResolveError{Device: c.device, Command: cmd.String(), Err: derr}
		if cmd.complete(nil, failed, 0) && opts.OnResolve != nil {
			opts.OnResolve(cmd)
		}
	}
	return fmt.Errorf("device %s: %w", c.device, derr)
}
