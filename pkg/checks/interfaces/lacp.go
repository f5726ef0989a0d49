package interfaces

import (
	"fmt"
	"strings"

	"github.com/newtron-network/newtcheck/pkg/command"
	"github.com/newtron-network/newtcheck/pkg/query"
	"github.com/newtron-network/newtcheck/pkg/unit"
)

// PortChannels verifies no port-channel has inactive members.
var PortChannels = &unit.Kind{
	Name:        "VerifyPortChannels",
	Description: "Verifies there are no inactive ports in all port channels.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show port-channel", Revision: 1}},
	New:         func() unit.Test { return &PortChannelsTest{} },
}

type PortChannelsTest struct{}

func (t *PortChannelsTest) Evaluate(out []*command.Command, r *unit.Result) error {
	pcs, err := objectAt(out[0], "portChannels")
	if err != nil {
		return err
	}
	r.IsSuccess()
	for _, pc := range query.Keys(pcs) {
		if inactive, _ := query.Map(pcs, pc, "inactivePorts"); len(inactive) > 0 {
			r.IsFailure(fmt.Sprintf("%s - Inactive port(s) - %s", pc, strings.Join(query.Keys(inactive), ", ")))
		}
	}
	return nil
}

// IllegalLACP verifies no illegal LACP packets were received.
var IllegalLACP = &unit.Kind{
	Name:        "VerifyIllegalLACP",
	Description: "Verifies there are no illegal LACP packets in all port channels.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show lacp counters all-ports", Revision: 1}},
	New:         func() unit.Test { return &IllegalLACPTest{} },
}

type IllegalLACPTest struct{}

func (t *IllegalLACPTest) Evaluate(out []*command.Command, r *unit.Result) error {
	pcs, err := objectAt(out[0], "portChannels")
	if err != nil {
		return err
	}
	r.IsSuccess()
	for _, pc := range query.Keys(pcs) {
		members, _ := query.Map(pcs, pc, "interfaces")
		for _, intf := range query.Keys(members) {
			if n, _ := query.Float(members, intf, "illegalRxCount"); n != 0 {
				r.IsFailure(fmt.Sprintf("%s Interface: %s - Illegal LACP packets found", pc, intf))
			}
		}
	}
	return nil
}

// lacpStateFields are compared on both actor and partner; every one is
// expected true except timeout, which is true only with fast LACP rate.
var lacpStateFields = []string{"activity", "aggregation", "synchronization", "collecting", "distributing", "timeout"}

// LACPInterfacesStatus verifies members are bundled with the expected LACP
// actor and partner states.
var LACPInterfacesStatus = &unit.Kind{
	Name:        "VerifyLACPInterfacesStatus",
	Description: "Verifies the Link Aggregation Control Protocol (LACP) status of the interface.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show lacp interface", Revision: 1}},
	New:         func() unit.Test { return &LACPInterfacesStatusTest{} },
}

type LACPInterfacesStatusTest struct {
	Interfaces []InterfaceState `yaml:"interfaces"`
}

func (t *LACPInterfacesStatusTest) Validate() error {
	return validateStates(t.Interfaces, "portchannel")
}

// portState renders the compared fields and reports whether they all match.
func portState(state map[string]any, fast bool) (string, bool) {
	match := true
	parts := make([]string, 0, len(lacpStateFields))
	for _, f := range lacpStateFields {
		want := f != "timeout" || fast
		v, ok := state[f].(bool)
		if !ok {
			match = false
			parts = append(parts, f+": NotFound")
			continue
		}
		if v != want {
			match = false
		}
		parts = append(parts, fmt.Sprintf("%s: %t", f, v))
	}
	return strings.Join(parts, ", "), match
}

func (t *LACPInterfacesStatusTest) Evaluate(out []*command.Command, r *unit.Result) error {
	data, err := out[0].JSON()
	if err != nil {
		return err
	}
	r.IsSuccess()
	for _, want := range t.Interfaces {
		detail, ok := query.Map(data, "portChannels", want.PortChannel.String(), "interfaces", want.Name.String())
		if !ok || len(detail) == 0 {
			r.IsFailure(fmt.Sprintf("%s - Not configured", want))
			continue
		}
		if status, _ := query.String(detail, "actorPortStatus"); status != "bundled" {
			r.IsFailure(fmt.Sprintf("%s - Not bundled - Port Status: %s", want, status))
			continue
		}
		actor, _ := query.Map(detail, "actorPortState")
		if s, ok := portState(actor, want.LACPRateFast); !ok {
			r.IsFailure(fmt.Sprintf("%s - Actor port details mismatch - %s", want, s))
		}
		partner, _ := query.Map(detail, "partnerPortState")
		if s, ok := portState(partner, want.LACPRateFast); !ok {
			r.IsFailure(fmt.Sprintf("%s - Partner port details mismatch - %s", want, s))
		}
	}
	return nil
}
