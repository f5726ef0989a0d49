// Package transport carries command requests to devices and returns decoded
// replies: over SSH to live devices, or from a Redis store of recorded
// replies.
package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newtron-network/newtcheck/pkg/command"
	"github.com/newtron-network/newtcheck/pkg/inventory"
	"github.com/newtron-network/newtcheck/pkg/util"
)

// Request is one command as sent to a device.
type Request struct {
	Text     string
	Revision int
	Version  string
	Format   command.Format
}

// RequestFor converts a command identity into a request.
func RequestFor(id command.Identity) Request {
	return Request{Text: id.Text, Revision: id.Revision, Version: id.Version, Format: id.Format}
}

// Identity returns the command identity the request was built from.
func (r Request) Identity() command.Identity {
	return command.Identity{Text: r.Text, Revision: r.Revision, Version: r.Version, Format: r.Format}
}

// Key is the identity key of the request.
func (r Request) Key() string {
	return r.Identity().Key()
}

// CLI renders the request as a device command line.
func (r Request) CLI() string {
	if r.Format == command.FormatText {
		return r.Text
	}
	line := r.Text + " | json"
	switch {
	case r.Revision > 0:
		line += fmt.Sprintf(" revision %d", r.Revision)
	case r.Version != "":
		line += " version " + r.Version
	}
	return line
}

// Transport sends one request to one device. Errors wrapping
// util.ErrDeviceUnreachable mean the device itself cannot be reached; any
// other error affects only this request.
type Transport interface {
	Send(ctx context.Context, dev *inventory.Device, req Request) (any, error)
}

// Connector is implemented by transports holding a per-device session.
type Connector interface {
	Connect(ctx context.Context, dev *inventory.Device) error
	Close(dev *inventory.Device) error
}

// Bind adapts t to the send function of one device's command cache.
func Bind(t Transport, dev *inventory.Device) command.SendFunc {
	return func(ctx context.Context, id command.Identity) (any, error) {
		return t.Send(ctx, dev, RequestFor(id))
	}
}

// DeviceError is a device-level failure: the device could not be reached or
// the session broke. It matches util.ErrDeviceUnreachable.
type DeviceError struct {
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device %s unreachable: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() []error {
	return []error{util.ErrDeviceUnreachable, e.Err}
}

// NewDeviceError wraps err as a device-level failure.
func NewDeviceError(device string, err error) error {
	return &DeviceError{Device: device, Err: err}
}

// decodeReply turns raw device output into the value a command stores:
// a decoded JSON object for JSON requests, the text otherwise. Output
// beginning with '%' is a CLI rejection.
func decodeReply(req Request, raw []byte) (any, error) {
	out := strings.TrimRight(string(raw), "\r\n")
	if trimmed := strings.TrimSpace(out); strings.HasPrefix(trimmed, "%") {
		return nil, rejection(req, trimmed)
	}
	if req.Format == command.FormatText {
		return out, nil
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(out), &v); err != nil {
		return nil, fmt.Errorf("%w: decoding JSON reply: %v", util.ErrCommandFailed, err)
	}
	return v, nil
}

func rejection(req Request, msg string) error {
	lower := strings.ToLower(msg)
	if (req.Revision > 0 || req.Version != "") && (strings.Contains(lower, "revision") || strings.Contains(lower, "version")) {
		return fmt.Errorf("%w: %s", util.ErrUnsupportedRevision, msg)
	}
	return fmt.Errorf("%w: %s", util.ErrCommandFailed, msg)
}
