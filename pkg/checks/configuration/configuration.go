// Package configuration holds the device configuration assertions.
package configuration

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/newtron-network/newtcheck/pkg/command"
	"github.com/newtron-network/newtcheck/pkg/query"
	"github.com/newtron-network/newtcheck/pkg/unit"
	"github.com/newtron-network/newtcheck/pkg/util"
)

const category = "configuration"

// Kinds returns every configuration kind in registration order.
func Kinds() []*unit.Kind {
	return []*unit.Kind{ZeroTouch, RunningConfigDiffs, RunningConfigLines}
}

// ZeroTouch verifies zero-touch provisioning is disabled.
var ZeroTouch = &unit.Kind{
	Name:        "VerifyZeroTouch",
	Description: "Verifies ZeroTouch is disabled.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show zerotouch", Revision: 1}},
	New:         func() unit.Test { return &ZeroTouchTest{} },
}

type ZeroTouchTest struct{}

func (t *ZeroTouchTest) Evaluate(out []*command.Command, r *unit.Result) error {
	data, err := out[0].JSON()
	if err != nil {
		return err
	}
	mode, ok := query.String(data, "mode")
	if !ok {
		return fmt.Errorf("%s: response has no 'mode'", out[0].Text)
	}
	if mode == "disabled" {
		r.IsSuccess()
	} else {
		r.IsFailure("ZTP is NOT disabled")
	}
	return nil
}

// RunningConfigDiffs verifies the running configuration matches the
// startup configuration.
var RunningConfigDiffs = &unit.Kind{
	Name:        "VerifyRunningConfigDiffs",
	Description: "Verifies there is no difference between the running-config and the startup-config.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show running-config diffs", Format: command.FormatText}},
	New:         func() unit.Test { return &RunningConfigDiffsTest{} },
}

type RunningConfigDiffsTest struct{}

func (t *RunningConfigDiffsTest) Evaluate(out []*command.Command, r *unit.Result) error {
	diff, err := out[0].TextOutput()
	if err != nil {
		return err
	}
	if diff == "" {
		r.IsSuccess()
	} else {
		r.IsFailure(diff)
	}
	return nil
}

// RunningConfigLines verifies each pattern matches at least one line of the
// running configuration. Patterns are matched per line (multiline mode).
var RunningConfigLines = &unit.Kind{
	Name:        "VerifyRunningConfigLines",
	Description: "Search the Running-Config for the given RegEx patterns.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show running-config", Format: command.FormatText}},
	New:         func() unit.Test { return &RunningConfigLinesTest{} },
}

type RunningConfigLinesTest struct {
	RegexPatterns []string `yaml:"regex_patterns"`

	compiled []*regexp.Regexp
}

func (t *RunningConfigLinesTest) Validate() error {
	v := &util.ValidationBuilder{}
	t.compiled = t.compiled[:0]
	for i, p := range t.RegexPatterns {
		re, err := regexp.Compile("(?m)" + p)
		if err != nil {
			v.AddErrorf("regex_patterns[%d]: invalid regex: %v", i, err)
			continue
		}
		t.compiled = append(t.compiled, re)
	}
	return v.Build()
}

func (t *RunningConfigLinesTest) Evaluate(out []*command.Command, r *unit.Result) error {
	config, err := out[0].TextOutput()
	if err != nil {
		return err
	}
	var missing []string
	for i, re := range t.compiled {
		if !re.MatchString(config) {
			missing = append(missing, "'"+t.RegexPatterns[i]+"'")
		}
	}
	if len(missing) > 0 {
		r.IsFailure("Following patterns were not found: " + strings.Join(missing, ","))
		return nil
	}
	r.IsSuccess()
	return nil
}
