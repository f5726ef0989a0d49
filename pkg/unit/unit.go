// Package unit defines the test unit: a self-contained check that declares
// the commands it needs, validates its own input, and evaluates resolved
// command output into a Result.
package unit

import (
	"fmt"
	"strings"

	"github.com/newtron-network/newtcheck/pkg/command"
)

// Test is the per-kind input (decoded from the catalog) together with the
// evaluation routine. Evaluate reads only the resolved commands, in the
// order the unit requested them, and records findings on r. A returned error
// means the check could not be evaluated and becomes an Error result.
type Test interface {
	Evaluate(out []*command.Command, r *Result) error
}

// Validator is implemented by tests whose input needs checks beyond decoding.
type Validator interface {
	Validate() error
}

// Renderer is implemented by tests whose kind declares templates; it expands
// a template against values from the validated input.
type Renderer interface {
	Render(tpl command.Template) ([]*command.Command, error)
}

// Kind describes one kind of test unit.
type Kind struct {
	Name        string
	Description string
	Categories  []string
	Commands    []command.Identity
	Templates   []command.Template
	Guards      []Guard
	// New returns a Test with its input defaults applied.
	New func() Test
}

// State is a unit's position in its lifecycle.
type State string

const (
	StateConstructed State = "constructed"
	StateSkipped     State = "skipped"
	StateRequested   State = "requested"
	StateEvaluated   State = "evaluated"
	StateErrored     State = "errored"
)

// Target identifies the device a unit runs against.
type Target struct {
	Device   string
	Platform string
}

// Unit is one catalog entry bound to one device.
type Unit struct {
	Name   string
	Kind   *Kind
	Target Target
	Test   Test
	Result *Result

	state    State
	commands []*command.Command
}

// New constructs a unit and validates its input. decode fills the Test
// returned by kind.New from raw catalog input; it may be nil for tests
// without input. Decoding or validation failures leave the unit errored.
func New(kind *Kind, name string, target Target, decode func(Test) error) *Unit {
	if name == "" {
		name = kind.Name
	}
	u := &Unit{
		Name:   name,
		Kind:   kind,
		Target: target,
		Result: NewResult(),
		state:  StateConstructed,
	}

	t := kind.New()
	if decode != nil {
		if err := decode(t); err != nil {
			u.errored(fmt.Sprintf("invalid input for %s: %v", kind.Name, err))
			return u
		}
	}
	if v, ok := t.(Validator); ok {
		if err := v.Validate(); err != nil {
			u.errored(fmt.Sprintf("invalid input for %s: %v", kind.Name, err))
			return u
		}
	}
	u.Test = t
	return u
}

// State returns the current lifecycle state.
func (u *Unit) State() State {
	return u.state
}

// Categories returns the kind's categories.
func (u *Unit) Categories() []string {
	return u.Kind.Categories
}

// Commands returns the commands the unit requested, in request order.
func (u *Unit) Commands() []*command.Command {
	return u.commands
}

func (u *Unit) errored(msg string) {
	u.Result.IsError(msg)
	u.state = StateErrored
}

// Guard runs the kind's guards. It returns true, leaving the unit skipped,
// when any guard excludes the target.
func (u *Unit) Guard() bool {
	if u.state != StateConstructed {
		return false
	}
	for _, g := range u.Kind.Guards {
		if skip, reason := g(u.Target.Platform); skip {
			u.Result.IsSkipped(reason)
			u.state = StateSkipped
			return true
		}
	}
	return false
}

// Registrar hands out the device's canonical Command for an identity.
type Registrar interface {
	GetOrCreate(id command.Identity) (*command.Command, bool)
}

// Request registers every command the unit needs with reg: fixed commands
// first, then template expansions in template order.
func (u *Unit) Request(reg Registrar) error {
	if u.state != StateConstructed {
		return nil
	}

	var wanted []*command.Command
	for _, id := range u.Kind.Commands {
		wanted = append(wanted, command.New(id))
	}
	for _, tpl := range u.Kind.Templates {
		var (
			cmds []*command.Command
			err  error
		)
		if r, ok := u.Test.(Renderer); ok {
			cmds, err = r.Render(tpl)
		} else {
			var cmd *command.Command
			cmd, err = tpl.Render(nil)
			cmds = []*command.Command{cmd}
		}
		if err != nil {
			u.errored(fmt.Sprintf("cannot render commands: %v", err))
			return err
		}
		wanted = append(wanted, cmds...)
	}

	u.commands = make([]*command.Command, 0, len(wanted))
	for _, cmd := range wanted {
		canonical, _ := reg.GetOrCreate(cmd.Identity)
		u.commands = append(u.commands, canonical)
	}
	u.state = StateRequested
	return nil
}

// Evaluate runs the evaluation routine once every requested command has
// been resolved. Unresolved or failed commands, a returned error, a panic,
// or a routine that never sets a status all produce an Error result.
func (u *Unit) Evaluate() {
	if u.state != StateRequested {
		return
	}

	var faults []string
	for _, cmd := range u.commands {
		if err := cmd.Err(); err != nil {
			faults = appendUnique(faults, err.Error())
		}
	}
	if len(faults) > 0 {
		for _, f := range faults {
			u.Result.IsError(f)
		}
		u.state = StateErrored
		return
	}

	if err := u.run(); err != nil {
		u.errored(err.Error())
		return
	}
	if u.Result.Status() == StatusUnset {
		u.errored("evaluation did not report a result")
		return
	}
	u.state = StateEvaluated
}

func (u *Unit) run() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("evaluation panicked: %v", p)
		}
	}()
	return u.Test.Evaluate(u.commands, u.Result)
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

// Describe returns "<name> on <device>" for log lines.
func (u *Unit) Describe() string {
	return strings.TrimSpace(u.Name + " on " + u.Target.Device)
}
