package interfaces

import (
	"fmt"
	"sort"
	"strings"

	"github.com/newtron-network/newtcheck/pkg/command"
	"github.com/newtron-network/newtcheck/pkg/query"
	"github.com/newtron-network/newtcheck/pkg/scalar"
	"github.com/newtron-network/newtcheck/pkg/unit"
	"github.com/newtron-network/newtcheck/pkg/util"
)

// Status verifies the operational state of the listed interfaces.
//
// When line_protocol_status is given both status and protocol are compared.
// Otherwise an expected status of "up" implies an up line protocol, and any
// other expected status is compared on its own. "connected" is reported as
// "up" on both fields.
var Status = &unit.Kind{
	Name:        "VerifyInterfacesStatus",
	Description: "Verifies the operational states of specified interfaces to ensure they match expected configurations.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show interfaces description", Revision: 1}},
	New:         func() unit.Test { return &StatusTest{} },
}

type StatusTest struct {
	Interfaces []InterfaceState `yaml:"interfaces"`
}

func (t *StatusTest) Validate() error {
	return validateStates(t.Interfaces, "status")
}

func normalizeStatus(s string) string {
	if s == "up" || s == "connected" {
		return "up"
	}
	return s
}

func (t *StatusTest) Evaluate(out []*command.Command, r *unit.Result) error {
	descriptions, err := objectAt(out[0], "interfaceDescriptions")
	if err != nil {
		return err
	}
	r.IsSuccess()
	for _, want := range t.Interfaces {
		name := want.Name.String()
		actual, ok := query.Map(descriptions, name)
		if !ok {
			r.IsFailure(fmt.Sprintf("%s - Not configured", name))
			continue
		}
		rawStatus, _ := query.String(actual, "interfaceStatus")
		rawProto, _ := query.String(actual, "lineProtocolStatus")
		status, proto := normalizeStatus(rawStatus), normalizeStatus(rawProto)

		switch {
		case want.LineProtocolStatus != "":
			if want.Status != status || want.LineProtocolStatus != proto {
				r.IsFailure(fmt.Sprintf("%s - Status mismatch - Expected: %s/%s, Actual: %s/%s",
					name, want.Status, want.LineProtocolStatus, status, proto))
			}
		case want.Status == "up":
			if status != "up" || proto != "up" {
				r.IsFailure(fmt.Sprintf("%s - Status mismatch - Expected: up/up, Actual: %s/%s", name, status, proto))
			}
		case want.Status != status:
			r.IsFailure(fmt.Sprintf("%s - Status mismatch - Expected: %s, Actual: %s", name, want.Status, status))
		}
	}
	return nil
}

// LoopbackCount verifies the number of loopbacks and that all are up.
var LoopbackCount = &unit.Kind{
	Name:        "VerifyLoopbackCount",
	Description: "Verifies the number of loopback interfaces and their status.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show ip interface brief", Revision: 1}},
	New:         func() unit.Test { return &LoopbackCountTest{} },
}

type LoopbackCountTest struct {
	Number scalar.PositiveInteger `yaml:"number"`
}

func (t *LoopbackCountTest) Validate() error {
	v := &util.ValidationBuilder{}
	v.AddField("number", t.Number.Validate())
	return v.Build()
}

func (t *LoopbackCountTest) Evaluate(out []*command.Command, r *unit.Result) error {
	intfs, err := objectAt(out[0], "interfaces")
	if err != nil {
		return err
	}
	r.IsSuccess()
	count := 0
	for _, intf := range query.Keys(intfs) {
		if !strings.Contains(intf, "Loopback") {
			continue
		}
		count++
		if s, _ := query.String(intfs, intf, "lineProtocolStatus"); s != "up" {
			r.IsFailure(fmt.Sprintf("Interface: %s - Invalid line protocol status - Expected: up Actual: %s", intf, s))
		}
		if s, _ := query.String(intfs, intf, "interfaceStatus"); s != "connected" {
			r.IsFailure(fmt.Sprintf("Interface: %s - Invalid interface status - Expected: connected Actual: %s", intf, s))
		}
	}
	if count != int(t.Number) {
		r.IsFailure(fmt.Sprintf("Loopback interface(s) count mismatch: Expected %d Actual: %d", t.Number, count))
	}
	return nil
}

// SVI verifies every VLAN interface is up.
var SVI = &unit.Kind{
	Name:        "VerifySVI",
	Description: "Verifies the status of all SVIs.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show ip interface brief", Revision: 1}},
	New:         func() unit.Test { return &SVITest{} },
}

type SVITest struct{}

func (t *SVITest) Evaluate(out []*command.Command, r *unit.Result) error {
	intfs, err := objectAt(out[0], "interfaces")
	if err != nil {
		return err
	}
	r.IsSuccess()
	for _, intf := range query.Keys(intfs) {
		if !strings.Contains(intf, "Vlan") {
			continue
		}
		if s, _ := query.String(intfs, intf, "lineProtocolStatus"); s != "up" {
			r.IsFailure(fmt.Sprintf("SVI: %s - Invalid line protocol status - Expected: up Actual: %s", intf, s))
		}
		if s, _ := query.String(intfs, intf, "interfaceStatus"); s != "connected" {
			r.IsFailure(fmt.Sprintf("SVI: %s - Invalid interface status - Expected: connected Actual: %s", intf, s))
		}
	}
	return nil
}

// perInterface is the template shared by the kinds that inspect single
// interfaces; one command is rendered per configured interface.
var perInterface = command.Template{Pattern: "show ip interface {interface}", Revision: 2}

// IPProxyARP verifies proxy-ARP is enabled on the listed interfaces.
var IPProxyARP = &unit.Kind{
	Name:        "VerifyIPProxyARP",
	Description: "Verifies if Proxy ARP is enabled.",
	Categories:  []string{category},
	Templates:   []command.Template{perInterface},
	New:         func() unit.Test { return &IPProxyARPTest{} },
}

type IPProxyARPTest struct {
	Interfaces []scalar.Interface `yaml:"interfaces"`
}

func (t *IPProxyARPTest) Validate() error {
	v := &util.ValidationBuilder{}
	v.Add(len(t.Interfaces) > 0, "interfaces: at least one interface is required")
	for i, intf := range t.Interfaces {
		v.AddField(fmt.Sprintf("interfaces[%d]", i), intf.Validate())
	}
	return v.Build()
}

func (t *IPProxyARPTest) Render(tpl command.Template) ([]*command.Command, error) {
	names := make([]string, len(t.Interfaces))
	for i, intf := range t.Interfaces {
		names[i] = intf.String()
	}
	return tpl.Expand("interface", names)
}

func (t *IPProxyARPTest) Evaluate(out []*command.Command, r *unit.Result) error {
	r.IsSuccess()
	for i, intf := range t.Interfaces {
		intfs, err := objectAt(out[i], "interfaces")
		if err != nil {
			return err
		}
		detail, ok := query.Map(intfs, intf.String())
		if !ok {
			r.IsFailure(fmt.Sprintf("Interface: %s - Not found", intf))
			continue
		}
		if enabled, _ := query.Bool(detail, "proxyArp"); !enabled {
			r.IsFailure(fmt.Sprintf("Interface: %s - Proxy-ARP disabled", intf))
		}
	}
	return nil
}

// InterfaceIPv4 verifies primary and secondary IPv4 addresses.
var InterfaceIPv4 = &unit.Kind{
	Name:        "VerifyInterfaceIPv4",
	Description: "Verifies the interface IPv4 addresses.",
	Categories:  []string{category},
	Templates:   []command.Template{perInterface},
	New:         func() unit.Test { return &InterfaceIPv4Test{} },
}

type InterfaceIPv4Test struct {
	Interfaces []InterfaceState `yaml:"interfaces"`
}

func (t *InterfaceIPv4Test) Validate() error {
	return validateStates(t.Interfaces, "primary_ip")
}

func (t *InterfaceIPv4Test) Render(tpl command.Template) ([]*command.Command, error) {
	names := make([]string, len(t.Interfaces))
	for i, intf := range t.Interfaces {
		names[i] = intf.Name.String()
	}
	return tpl.Expand("interface", names)
}

func addressOf(v any) string {
	addr, _ := query.String(v, "address")
	mask, _ := query.Float(v, "maskLen")
	return addr + "/" + formatNumber(mask)
}

func (t *InterfaceIPv4Test) Evaluate(out []*command.Command, r *unit.Result) error {
	r.IsSuccess()
	for i, want := range t.Interfaces {
		intfs, err := objectAt(out[i], "interfaces")
		if err != nil {
			return err
		}
		detail, ok := query.Map(intfs, want.Name.String())
		if !ok {
			r.IsFailure(fmt.Sprintf("%s - Not found", want))
			continue
		}
		primary, ok := query.Map(detail, "interfaceAddress", "primaryIp")
		if !ok {
			r.IsFailure(fmt.Sprintf("%s - IP address is not configured", want))
			continue
		}
		if actual := addressOf(primary); actual != want.PrimaryIP.String() {
			r.IsFailure(fmt.Sprintf("%s - IP address mismatch - Expected: %s Actual: %s", want, want.PrimaryIP, actual))
		}
		if len(want.SecondaryIPs) == 0 {
			continue
		}
		raw, _ := query.Lookup(detail, "interfaceAddress", "secondaryIpsOrderedList")
		list, _ := raw.([]any)
		if len(list) == 0 {
			r.IsFailure(fmt.Sprintf("%s - Secondary IP address is not configured", want))
			continue
		}
		actual := make([]string, 0, len(list))
		for _, item := range list {
			actual = append(actual, addressOf(item))
		}
		expected := make([]string, 0, len(want.SecondaryIPs))
		for _, ip := range want.SecondaryIPs {
			expected = append(expected, ip.String())
		}
		sort.Strings(actual)
		sort.Strings(expected)
		if strings.Join(actual, ",") != strings.Join(expected, ",") {
			r.IsFailure(fmt.Sprintf("%s - Secondary IP address mismatch - Expected: %s Actual: %s",
				want, strings.Join(expected, ", "), strings.Join(actual, ", ")))
		}
	}
	return nil
}

// IPVirtualRouterMAC verifies the virtual router MAC address is configured.
var IPVirtualRouterMAC = &unit.Kind{
	Name:        "VerifyIpVirtualRouterMac",
	Description: "Verifies the IP virtual router MAC address.",
	Categories:  []string{category},
	Commands:    []command.Identity{{Text: "show ip virtual-router", Revision: 2}},
	New:         func() unit.Test { return &IPVirtualRouterMACTest{} },
}

type IPVirtualRouterMACTest struct {
	MACAddress scalar.MACAddress `yaml:"mac_address"`
}

func (t *IPVirtualRouterMACTest) Validate() error {
	v := &util.ValidationBuilder{}
	v.Require("mac_address", t.MACAddress == "")
	if t.MACAddress != "" {
		v.AddField("mac_address", t.MACAddress.Validate())
	}
	return v.Build()
}

func (t *IPVirtualRouterMACTest) Evaluate(out []*command.Command, r *unit.Result) error {
	data, err := out[0].JSON()
	if err != nil {
		return err
	}
	raw, ok := query.Lookup(data, "virtualMacs")
	if !ok {
		return fmt.Errorf("%s: response has no 'virtualMacs'", out[0].Text)
	}
	macs, _ := raw.([]any)
	for _, m := range macs {
		if addr, _ := query.String(m, "macAddress"); scalar.NormalizeMAC(addr) == t.MACAddress.String() {
			r.IsSuccess()
			return nil
		}
	}
	r.IsFailure(fmt.Sprintf("IP virtual router MAC address `%s` is not configured.", t.MACAddress))
	return nil
}
