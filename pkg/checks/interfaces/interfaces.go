// Package interfaces holds the interface assertions: counters, operational
// state, MTU, LACP and addressing.
package interfaces

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/newtron-network/newtcheck/pkg/command"
	"github.com/newtron-network/newtcheck/pkg/query"
	"github.com/newtron-network/newtcheck/pkg/scalar"
	"github.com/newtron-network/newtcheck/pkg/unit"
	"github.com/newtron-network/newtcheck/pkg/util"
)

const category = "interfaces"

// Kinds returns every interface kind in registration order.
func Kinds() []*unit.Kind {
	return []*unit.Kind{
		Utilization,
		Errors,
		Discards,
		ErrDisabled,
		Status,
		StormControlDrops,
		PortChannels,
		IllegalLACP,
		LoopbackCount,
		SVI,
		L3MTU,
		L2MTU,
		IPProxyARP,
		InterfaceIPv4,
		IPVirtualRouterMAC,
		Speed,
		LACPInterfacesStatus,
	}
}

// InterfaceState is the expected state of one interface. Each kind using it
// requires a different subset of the fields.
type InterfaceState struct {
	Name               scalar.Interface       `yaml:"name"`
	Status             string                 `yaml:"status,omitempty"`
	LineProtocolStatus string                 `yaml:"line_protocol_status,omitempty"`
	PortChannel        scalar.Interface       `yaml:"portchannel,omitempty"`
	LACPRateFast       bool                   `yaml:"lacp_rate_fast,omitempty"`
	PrimaryIP          scalar.IPv4Interface   `yaml:"primary_ip,omitempty"`
	SecondaryIPs       []scalar.IPv4Interface `yaml:"secondary_ips,omitempty"`
}

func (s InterfaceState) String() string {
	out := "Interface: " + s.Name.String()
	if s.PortChannel != "" {
		out += " Port-Channel: " + s.PortChannel.String()
	}
	return out
}

// validateStates checks names and the field each kind requires.
func validateStates(states []InterfaceState, require string) error {
	v := &util.ValidationBuilder{}
	v.Add(len(states) > 0, "interfaces: at least one interface is required")
	for i, s := range states {
		path := fmt.Sprintf("interfaces[%d]", i)
		v.AddField(path+".name", s.Name.Validate())
		switch require {
		case "status":
			v.Require(path+".status", s.Status == "")
		case "portchannel":
			v.Require(path+".portchannel", s.PortChannel == "")
			if s.PortChannel != "" {
				v.AddField(path+".portchannel", s.PortChannel.Validate())
			}
		case "primary_ip":
			v.Require(path+".primary_ip", s.PrimaryIP == "")
			if s.PrimaryIP != "" {
				v.AddField(path+".primary_ip", s.PrimaryIP.Validate())
			}
		}
		for j, ip := range s.SecondaryIPs {
			v.AddField(fmt.Sprintf("%s.secondary_ips[%d]", path, j), ip.Validate())
		}
	}
	return v.Build()
}

// objectAt returns the JSON object under key in cmd's response.
func objectAt(cmd *command.Command, path ...string) (map[string]any, error) {
	data, err := cmd.JSON()
	if err != nil {
		return nil, err
	}
	m, err := query.RequireMap(data, path...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmd.Text, err)
	}
	return m, nil
}

// formatNumber prints integral values without a fraction.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// nonZero lists "name: value" for every positive counter in sorted order.
func nonZero(counters map[string]any) []string {
	var out []string
	for _, name := range query.Keys(counters) {
		if v, ok := query.ToFloat(counters[name]); ok && v > 0 {
			out = append(out, name+": "+formatNumber(v))
		}
	}
	return out
}

// interfaceFamily returns the leading letters of an interface name, e.g.
// "Ethernet" for Ethernet1/1 and "Port-Channel" for Port-Channel10.
func interfaceFamily(name string) string {
	i := strings.IndexFunc(name, func(r rune) bool { return r >= '0' && r <= '9' })
	if i < 0 {
		return name
	}
	return name[:i]
}
