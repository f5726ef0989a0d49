package testutil

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/newtron-network/newtcheck/pkg/inventory"
	"github.com/newtron-network/newtcheck/pkg/transport"
	"github.com/newtron-network/newtcheck/pkg/util"
)

// FakeTransport answers requests from canned replies keyed by command text.
// It records every call so tests can assert how often each identity was
// sent to each device.
type FakeTransport struct {
	mu        sync.Mutex
	replies   map[string]any
	perDevice map[string]map[string]any
	faults    map[string]error
	delays    map[string]time.Duration
	down      map[string]error
	connects  map[string]int
	calls     []Call
}

// Call is one recorded Send.
type Call struct {
	Device string
	Key    string
}

// NewFakeTransport returns an empty fake.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{
		replies:   make(map[string]any),
		perDevice: make(map[string]map[string]any),
		faults:    make(map[string]error),
		delays:    make(map[string]time.Duration),
		down:      make(map[string]error),
		connects:  make(map[string]int),
	}
}

// Reply sets the reply for text on every device.
func (f *FakeTransport) Reply(text string, reply any) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[text] = reply
	return f
}

// ReplyOn sets the reply for text on one device, overriding Reply.
func (f *FakeTransport) ReplyOn(device, text string, reply any) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.perDevice[device] == nil {
		f.perDevice[device] = make(map[string]any)
	}
	f.perDevice[device][text] = reply
	return f
}

// Fail makes text fail with err on device ("" for every device).
func (f *FakeTransport) Fail(device, text string, err error) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.faults[device+"\x00"+text] = err
	return f
}

// Delay holds the reply for text on device ("" for every device) for d, or
// until the request's context is done.
func (f *FakeTransport) Delay(device, text string, d time.Duration) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delays[device+"\x00"+text] = d
	return f
}

// Down makes every request and connect to device fail at device level.
func (f *FakeTransport) Down(device string, cause error) *FakeTransport {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.down[device] = transport.NewDeviceError(device, cause)
	return f
}

func (f *FakeTransport) lookup(m map[string]error, device, text string) error {
	if err, ok := m[device+"\x00"+text]; ok {
		return err
	}
	return m["\x00"+text]
}

// Connect fails for devices marked Down.
func (f *FakeTransport) Connect(_ context.Context, dev *inventory.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connects[dev.Name]++
	return f.down[dev.Name]
}

func (f *FakeTransport) Close(*inventory.Device) error { return nil }

// Send returns the canned reply for req.Text.
func (f *FakeTransport) Send(ctx context.Context, dev *inventory.Device, req transport.Request) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Device: dev.Name, Key: req.Key()})
	downErr := f.down[dev.Name]
	fault := f.lookup(f.faults, dev.Name, req.Text)
	delay, ok := f.delays[dev.Name+"\x00"+req.Text]
	if !ok {
		delay = f.delays["\x00"+req.Text]
	}
	reply, found := f.perDevice[dev.Name][req.Text]
	if !found {
		reply, found = f.replies[req.Text]
	}
	f.mu.Unlock()

	if downErr != nil {
		return nil, downErr
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if fault != nil {
		return nil, fault
	}
	if !found {
		return nil, fmt.Errorf("%w: no reply for '%s'", util.ErrCommandFailed, req.Text)
	}
	return reply, nil
}

// Calls returns how many times key was sent to device.
func (f *FakeTransport) Calls(device, key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.Device == device && c.Key == key {
			n++
		}
	}
	return n
}

// TotalCalls returns the number of Send calls to device ("" for all).
func (f *FakeTransport) TotalCalls(device string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	if device == "" {
		return len(f.calls)
	}
	n := 0
	for _, c := range f.calls {
		if c.Device == device {
			n++
		}
	}
	return n
}

// Connects returns how many times device was connected.
func (f *FakeTransport) Connects(device string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects[device]
}
