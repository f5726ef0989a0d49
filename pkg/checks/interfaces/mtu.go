package interfaces

import (
	"fmt"
	"strings"

	"github.com/newtron-network/newtcheck/pkg/command"
	"github.com/newtron-network/newtcheck/pkg/query"
	"github.com/newtron-network/newtcheck/pkg/unit"
	"github.com/newtron-network/newtcheck/pkg/util"
)

var defaultIgnored = []string{"Management", "Loopback", "Vxlan", "Tunnel"}

// MTUTest is the input shared by the L2 and L3 MTU kinds. Interfaces are
// ignored by family ("Vxlan") or by full name ("Vxlan1").
type MTUTest struct {
	MTU               int              `yaml:"mtu"`
	IgnoredInterfaces []string         `yaml:"ignored_interfaces"`
	SpecificMTU       []map[string]int `yaml:"specific_mtu"`

	forwarding string
}

func (t *MTUTest) Validate() error {
	v := &util.ValidationBuilder{}
	v.Add(t.MTU > 0, fmt.Sprintf("mtu: value %d must be a positive integer", t.MTU))
	for i, m := range t.SpecificMTU {
		for name, mtu := range m {
			v.Add(mtu > 0, fmt.Sprintf("specific_mtu[%d].%s: value %d must be a positive integer", i, name, mtu))
		}
	}
	return v.Build()
}

// ignored matches intf by full name or by family. A hyphenated family also
// matches on its first word, so both Port and Port-Channel skip Port-Channel10.
func (t *MTUTest) ignored(intf string) bool {
	family := interfaceFamily(intf)
	short, _, _ := strings.Cut(family, "-")
	return util.Contains(t.IgnoredInterfaces, intf) ||
		util.Contains(t.IgnoredInterfaces, family) ||
		util.Contains(t.IgnoredInterfaces, short)
}

// expected returns the MTU intf must carry.
func (t *MTUTest) expected(intf string) int {
	for _, m := range t.SpecificMTU {
		if mtu, ok := m[intf]; ok {
			return mtu
		}
	}
	return t.MTU
}

// mismatches lists "intf: actual" for every interface of the test's
// forwarding model whose MTU differs from the expected one.
func (t *MTUTest) mismatches(out *command.Command, eligible func(string) bool) ([]string, []string, error) {
	intfs, err := objectAt(out, "interfaces")
	if err != nil {
		return nil, nil, err
	}
	var names, msgs []string
	for _, intf := range query.Keys(intfs) {
		if t.ignored(intf) || !eligible(intf) {
			continue
		}
		if model, _ := query.String(intfs, intf, "forwardingModel"); model != t.forwarding {
			continue
		}
		mtu, _ := query.Float(intfs, intf, "mtu")
		if want := t.expected(intf); int(mtu) != want {
			names = append(names, fmt.Sprintf("%s: %d", intf, int(mtu)))
			msgs = append(msgs, fmt.Sprintf("Interface: %s - Incorrect MTU - Expected: %d Actual: %d", intf, want, int(mtu)))
		}
	}
	return names, msgs, nil
}

// L3MTU verifies the MTU of routed interfaces.
var L3MTU = &unit.Kind{
	Name:        "VerifyL3MTU",
	Description: "Verifies the global L3 MTU of all L3 interfaces.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show interfaces", Revision: 1}},
	New: func() unit.Test {
		return &L3MTUTest{MTUTest{MTU: 1500, IgnoredInterfaces: defaultIgnored, forwarding: "routed"}}
	},
}

type L3MTUTest struct {
	MTUTest `yaml:",inline"`
}

func (t *L3MTUTest) Evaluate(out []*command.Command, r *unit.Result) error {
	_, msgs, err := t.mismatches(out[0], func(string) bool { return true })
	if err != nil {
		return err
	}
	r.IsSuccess()
	for _, m := range msgs {
		r.IsFailure(m)
	}
	return nil
}

// L2MTU verifies the MTU of bridged Ethernet and Port-Channel interfaces.
var L2MTU = &unit.Kind{
	Name:        "VerifyL2MTU",
	Description: "Verifies the global L2 MTU of all L2 interfaces.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show interfaces", Revision: 1}},
	New: func() unit.Test {
		return &L2MTUTest{MTUTest{MTU: 9214, IgnoredInterfaces: defaultIgnored, forwarding: "bridged"}}
	},
}

type L2MTUTest struct {
	MTUTest `yaml:",inline"`
}

func isSwitchport(intf string) bool {
	family := interfaceFamily(intf)
	return family == "Ethernet" || family == "Port-Channel"
}

func (t *L2MTUTest) Evaluate(out []*command.Command, r *unit.Result) error {
	wrong, _, err := t.mismatches(out[0], isSwitchport)
	if err != nil {
		return err
	}
	if len(wrong) > 0 {
		r.IsFailure("Some L2 interfaces do not have correct MTU configured:\n" + strings.Join(wrong, ", "))
		return nil
	}
	r.IsSuccess()
	return nil
}
