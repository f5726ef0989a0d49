// Package command describes the device-facing requests test units depend on:
// Commands with a schema revision or version, Templates that expand into
// Commands, and the per-device Cache that deduplicates and resolves them.
package command

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/newtron-network/newtcheck/pkg/util"
)

// Format is the encoding requested from the device.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Version values accepted besides the empty string.
const (
	VersionLatest = "latest"
	VersionOne    = "1"
)

// maxRevision is the highest schema revision a device can be asked for.
const maxRevision = 99

// Identity distinguishes one cacheable request from another. Revision 0 and
// an empty Version both mean "whatever the device returns".
type Identity struct {
	Text     string
	Revision int
	Version  string
	Format   Format
}

// format returns the effective format (JSON when unset).
func (id Identity) format() Format {
	if id.Format == "" {
		return FormatJSON
	}
	return id.Format
}

// Key returns the cache key for id.
func (id Identity) Key() string {
	return id.Text + "|" + string(id.format()) + "|r" + strconv.Itoa(id.Revision) + "|v" + id.Version
}

// Validate checks revision and version bounds.
func (id Identity) Validate() error {
	vb := &util.ValidationBuilder{}
	vb.Add(id.Text != "", "command text is empty")
	vb.Add(id.Revision >= 0 && id.Revision <= maxRevision, fmt.Sprintf("revision %d out of range [0, %d]", id.Revision, maxRevision))
	vb.Add(id.Version == "" || id.Version == VersionLatest || id.Version == VersionOne, fmt.Sprintf("version %q must be %q or %q", id.Version, VersionOne, VersionLatest))
	vb.Add(id.format() == FormatJSON || id.format() == FormatText, fmt.Sprintf("unknown format %q", id.Format))
	vb.Add(id.format() == FormatJSON || (id.Revision == 0 && id.Version == ""), "text commands cannot request a revision or version")
	return vb.Build()
}

func (id Identity) String() string {
	s := id.Text
	if id.Revision > 0 {
		s += " (revision " + strconv.Itoa(id.Revision) + ")"
	} else if id.Version != "" {
		s += " (version " + id.Version + ")"
	}
	return s
}

// Command is one request plus the slot for its decoded response. A Command
// is created by a Cache and shared by every unit that requires it; the
// response slot is written at most once.
type Command struct {
	Identity

	mu       sync.RWMutex
	resolved bool
	output   any
	err      error
	took     time.Duration
}

// New returns an unresolved Command for id.
func New(id Identity) *Command {
	if id.Format == "" {
		id.Format = FormatJSON
	}
	return &Command{Identity: id}
}

// NewResolved returns a Command whose slot already holds output or err.
// Replayed responses and fixtures are built this way.
func NewResolved(id Identity, output any, err error) *Command {
	c := New(id)
	c.complete(output, err, 0)
	return c
}

// complete fills the response slot. It reports false when the slot was
// already written, in which case nothing changes.
func (c *Command) complete(output any, err error, took time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resolved {
		return false
	}
	c.resolved = true
	c.output = output
	c.err = err
	c.took = took
	return true
}

// Resolved reports whether the slot has been written (with data or a fault).
func (c *Command) Resolved() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolved
}

// Err returns the resolution fault, or ErrNotResolved when the command has
// not been resolved yet.
func (c *Command) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.resolved {
		return util.ErrNotResolved
	}
	return c.err
}

// Output returns the decoded response (nil until resolved).
func (c *Command) Output() any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.output
}

// Duration returns how long the transport call took.
func (c *Command) Duration() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.took
}

// JSON returns the response as a JSON object.
func (c *Command) JSON() (map[string]any, error) {
	if err := c.Err(); err != nil {
		return nil, err
	}
	m, ok := c.Output().(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: response is %T, want a JSON object", c.Text, c.Output())
	}
	return m, nil
}

// TextOutput returns the response as plain text.
func (c *Command) TextOutput() (string, error) {
	if err := c.Err(); err != nil {
		return "", err
	}
	s, ok := c.Output().(string)
	if !ok {
		return "", fmt.Errorf("%s: response is %T, want text", c.Text, c.Output())
	}
	return s, nil
}

// ResolveError is the fault recorded on a Command that could not be resolved.
type ResolveError struct {
	Device  string
	Command string
	Err     error
}

func (e *ResolveError) Error() string {
	return fmt.Sprintf("device %s: command '%s': %v", e.Device, e.Command, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}
