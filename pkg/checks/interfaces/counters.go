package interfaces

import (
	"fmt"
	"strings"

	"github.com/newtron-network/newtcheck/pkg/command"
	"github.com/newtron-network/newtcheck/pkg/query"
	"github.com/newtron-network/newtcheck/pkg/scalar"
	"github.com/newtron-network/newtcheck/pkg/unit"
	"github.com/newtron-network/newtcheck/pkg/util"
)

const duplexFull = "duplexFull"

// Utilization verifies interface utilization stays below a threshold.
// Only full-duplex interfaces are supported; the load interval comes from
// the device configuration.
var Utilization = &unit.Kind{
	Name:        "VerifyInterfaceUtilization",
	Description: "Verifies that the utilization of interfaces is below a certain threshold.",
	Categories:  []string{category},
	Commands: []command.Identity{
		{Text: "show interfaces counters rates", Revision: 1},
		{Text: "show interfaces", Revision: 1},
	},
	New: func() unit.Test { return &UtilizationTest{Threshold: 75} },
}

// UtilizationTest is the input of VerifyInterfaceUtilization.
type UtilizationTest struct {
	Threshold scalar.Percent `yaml:"threshold"`
}

func (t *UtilizationTest) Validate() error {
	v := &util.ValidationBuilder{}
	v.AddField("threshold", t.Threshold.Validate())
	return v.Build()
}

func (t *UtilizationTest) Evaluate(out []*command.Command, r *unit.Result) error {
	rates, err := objectAt(out[0], "interfaces")
	if err != nil {
		return err
	}
	details, err := objectAt(out[1], "interfaces")
	if err != nil {
		return err
	}

	r.IsSuccess()
	for _, intf := range query.Keys(rates) {
		detail, ok := query.Map(details, intf)
		if !ok {
			return fmt.Errorf("interface %s has rates but no details", intf)
		}
		full, err := isFullDuplex(intf, detail)
		if err != nil {
			return err
		}
		if !full {
			r.IsFailure(fmt.Sprintf("Interface %s or one of its member interfaces is not Full-Duplex. VerifyInterfaceUtilization has not been implemented.", intf))
			return nil
		}
		bandwidth, _ := query.Float(detail, "bandwidth")
		if bandwidth == 0 {
			util.WithField("interface", intf).Debug("Ignoring interface with null bandwidth")
			continue
		}
		for _, counter := range []string{"inBpsRate", "outBpsRate"} {
			rate, ok := query.Float(rates, intf, counter)
			if !ok {
				return fmt.Errorf("interface %s has no %s", intf, counter)
			}
			usage := rate / bandwidth * 100
			if usage > float64(t.Threshold) {
				r.IsFailure(fmt.Sprintf("Interface: %s BPS Rate: %s - Usage exceeds the threshold - Expected: < %s%% Actual: %s%%",
					intf, counter, formatNumber(float64(t.Threshold)), formatNumber(usage)))
			}
		}
	}
	return nil
}

// isFullDuplex reports false when the interface or any member reports a
// duplex other than full. An absent duplex on the interface itself counts
// as full; a member without one is malformed output.
func isFullDuplex(intf string, detail map[string]any) (bool, error) {
	if duplex, ok := query.String(detail, "duplex"); ok && duplex != duplexFull {
		return false, nil
	}
	members, ok := query.Map(detail, "memberInterfaces")
	if !ok {
		return true, nil
	}
	for _, name := range query.Keys(members) {
		duplex, ok := query.String(members, name, "duplex")
		if !ok {
			return false, fmt.Errorf("member %s of interface %s has no duplex", name, intf)
		}
		if duplex != duplexFull {
			return false, nil
		}
	}
	return true, nil
}

// Errors verifies all interface error counters are zero.
var Errors = &unit.Kind{
	Name:        "VerifyInterfaceErrors",
	Description: "Verifies that the interfaces error counters are equal to zero.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show interfaces counters errors", Revision: 1}},
	New:         func() unit.Test { return &ErrorsTest{} },
}

type ErrorsTest struct{}

func (t *ErrorsTest) Evaluate(out []*command.Command, r *unit.Result) error {
	counters, err := objectAt(out[0], "interfaceErrorCounters")
	if err != nil {
		return err
	}
	r.IsSuccess()
	for _, intf := range query.Keys(counters) {
		c, _ := query.Map(counters, intf)
		if bad := nonZero(c); len(bad) > 0 {
			r.IsFailure(fmt.Sprintf("Interface: %s - Non-zero error counter(s) - %s", intf, strings.Join(bad, ", ")))
		}
	}
	return nil
}

// Discards verifies all interface discard counters are zero.
var Discards = &unit.Kind{
	Name:        "VerifyInterfaceDiscards",
	Description: "Verifies that the interfaces packet discard counters are equal to zero.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show interfaces counters discards", Revision: 1}},
	New:         func() unit.Test { return &DiscardsTest{} },
}

type DiscardsTest struct{}

func (t *DiscardsTest) Evaluate(out []*command.Command, r *unit.Result) error {
	intfs, err := objectAt(out[0], "interfaces")
	if err != nil {
		return err
	}
	r.IsSuccess()
	for _, intf := range query.Keys(intfs) {
		c, _ := query.Map(intfs, intf)
		if bad := nonZero(c); len(bad) > 0 {
			r.IsFailure(fmt.Sprintf("Interface: %s - Non-zero discard counter(s): %s", intf, strings.Join(bad, ", ")))
		}
	}
	return nil
}

// ErrDisabled verifies no interface is error-disabled.
var ErrDisabled = &unit.Kind{
	Name:        "VerifyInterfaceErrDisabled",
	Description: "Verifies there are no interfaces in the errdisabled state.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show interfaces status", Revision: 1}},
	New:         func() unit.Test { return &ErrDisabledTest{} },
}

type ErrDisabledTest struct{}

func (t *ErrDisabledTest) Evaluate(out []*command.Command, r *unit.Result) error {
	statuses, err := objectAt(out[0], "interfaceStatuses")
	if err != nil {
		return err
	}
	r.IsSuccess()
	for _, intf := range query.Keys(statuses) {
		if link, _ := query.String(statuses, intf, "linkStatus"); link == "errdisabled" {
			r.IsFailure(fmt.Sprintf("Interface: %s - Link status Error disabled", intf))
		}
	}
	return nil
}

// StormControlDrops verifies no storm-control drops were counted. Virtual
// lab platforms do not implement storm-control and are skipped.
var StormControlDrops = &unit.Kind{
	Name:        "VerifyStormControlDrops",
	Description: "Verifies there are no interface storm-control drop counters.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show storm-control", Revision: 1}},
	Guards:      []unit.Guard{unit.SkipOnPlatforms("cEOSLab", "vEOS-lab", "cEOSCloudLab")},
	New:         func() unit.Test { return &StormControlDropsTest{} },
}

type StormControlDropsTest struct{}

func (t *StormControlDropsTest) Evaluate(out []*command.Command, r *unit.Result) error {
	intfs, err := objectAt(out[0], "interfaces")
	if err != nil {
		return err
	}
	r.IsSuccess()
	for _, intf := range query.Keys(intfs) {
		types, _ := query.Map(intfs, intf, "trafficTypes")
		var drops []string
		for _, tt := range query.Keys(types) {
			if d, ok := query.Float(types, tt, "drop"); ok && d != 0 {
				drops = append(drops, tt+": "+formatNumber(d))
			}
		}
		if len(drops) > 0 {
			r.IsFailure(fmt.Sprintf("Interface: %s - Non-zero storm-control drop counter(s) - %s", intf, strings.Join(drops, ", ")))
		}
	}
	return nil
}
