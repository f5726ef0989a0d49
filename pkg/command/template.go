package command

import (
	"fmt"
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Template is a parameterized command such as "show ip interface {interface}".
// It is stateless; rendering never executes anything.
type Template struct {
	Pattern  string
	Revision int
	Version  string
	Format   Format
}

// Params returns the placeholder names in the order they appear.
func (t Template) Params() []string {
	var names []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(t.Pattern, -1) {
		names = append(names, m[1])
	}
	return names
}

// Render substitutes params into the pattern. Every placeholder must have a
// value; extra params are ignored.
func (t Template) Render(params map[string]string) (*Command, error) {
	var missing []string
	text := placeholderPattern.ReplaceAllStringFunc(t.Pattern, func(ph string) string {
		name := ph[1 : len(ph)-1]
		v, ok := params[name]
		if !ok {
			missing = append(missing, name)
			return ph
		}
		return v
	})
	if len(missing) > 0 {
		return nil, fmt.Errorf("template '%s': missing parameter(s) %s", t.Pattern, strings.Join(missing, ", "))
	}
	id := Identity{Text: text, Revision: t.Revision, Version: t.Version, Format: t.Format}
	if err := id.Validate(); err != nil {
		return nil, fmt.Errorf("template '%s': %w", t.Pattern, err)
	}
	return New(id), nil
}

// Expand renders one Command per target, binding each target to param.
// Order follows targets and duplicates are kept; deduplication is the
// Cache's job.
func (t Template) Expand(param string, targets []string) ([]*Command, error) {
	cmds := make([]*Command, 0, len(targets))
	for _, target := range targets {
		cmd, err := t.Render(map[string]string{param: target})
		if err != nil {
			return nil, err
		}
		cmds = append(cmds, cmd)
	}
	return cmds, nil
}
