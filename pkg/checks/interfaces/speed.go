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

const bpsPerGbps = 1_000_000_000

// Speed verifies speed, lanes, auto-negotiation and full duplex. Auto
// negotiation is only compared when auto is true, lanes only when given.
var Speed = &unit.Kind{
	Name:        "VerifyInterfacesSpeed",
	Description: "Verifies the speed, lanes, auto-negotiation status, and mode as full duplex for interfaces.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show interfaces"}},
	New:         func() unit.Test { return &SpeedTest{} },
}

// SpeedInterface is one interface's expected link parameters. Speed is in
// Gbps.
type SpeedInterface struct {
	Name  scalar.EthernetInterface `yaml:"name"`
	Auto  *bool                    `yaml:"auto"`
	Speed float64                  `yaml:"speed"`
	Lanes *int                     `yaml:"lanes,omitempty"`
}

type SpeedTest struct {
	Interfaces []SpeedInterface `yaml:"interfaces"`
}

func (t *SpeedTest) Validate() error {
	v := &util.ValidationBuilder{}
	v.Add(len(t.Interfaces) > 0, "interfaces: at least one interface is required")
	for i, intf := range t.Interfaces {
		path := fmt.Sprintf("interfaces[%d]", i)
		v.AddField(path+".name", intf.Name.Validate())
		v.Require(path+".auto", intf.Auto == nil)
		v.Add(intf.Speed >= 1 && intf.Speed <= 1000,
			fmt.Sprintf("%s.speed: %s out of range [1, 1000]", path, formatNumber(intf.Speed)))
		if intf.Lanes != nil {
			v.Add(*intf.Lanes >= 1 && *intf.Lanes <= 8,
				fmt.Sprintf("%s.lanes: %d out of range [1, 8]", path, *intf.Lanes))
		}
	}
	return v.Build()
}

func gbps(v any) string {
	f, ok := query.ToFloat(v)
	if !ok {
		return fmt.Sprint(v)
	}
	return formatNumber(f/bpsPerGbps) + "Gbps"
}

func (t *SpeedTest) Evaluate(out []*command.Command, r *unit.Result) error {
	data, err := out[0].JSON()
	if err != nil {
		return err
	}
	r.IsSuccess()
	for _, want := range t.Interfaces {
		name := want.Name.String()
		actual, ok := query.Map(data, "interfaces", name)
		if !ok || len(actual) == 0 {
			r.IsFailure(fmt.Sprintf("Interface `%s` is not found.", name))
			continue
		}

		var diffs []string
		mismatch := func(field, expected string, found any) {
			diffs = append(diffs, fmt.Sprintf("\nExpected `%s` as the %s, but found `%v` instead.", expected, field, found))
		}
		if *want.Auto {
			if an, _ := query.String(actual, "autoNegotiate"); an != "success" {
				mismatch("auto negotiation", "success", orNone(actual["autoNegotiate"]))
			}
		}
		if d, _ := query.String(actual, "duplex"); d != duplexFull {
			mismatch("duplex mode", duplexFull, orNone(actual["duplex"]))
		}
		if bw, ok := query.Float(actual, "bandwidth"); !ok || bw != want.Speed*bpsPerGbps {
			found := "None"
			if ok {
				found = gbps(bw)
			}
			mismatch("speed", gbps(want.Speed*bpsPerGbps), found)
		}
		if want.Lanes != nil {
			if lanes, ok := query.Float(actual, "lanes"); !ok || int(lanes) != *want.Lanes {
				mismatch("lanes", fmt.Sprint(*want.Lanes), orNone(actual["lanes"]))
			}
		}
		if len(diffs) > 0 {
			r.IsFailure(fmt.Sprintf("For interface %s:%s\n", name, strings.Join(diffs, "")))
		}
	}
	return nil
}

func orNone(v any) any {
	if v == nil {
		return "None"
	}
	if f, ok := query.ToFloat(v); ok {
		return formatNumber(f)
	}
	return v
}
