// Package scalar provides typed wrappers for the domain primitives used in
// test inputs. Values normalize themselves when decoded from YAML and are
// checked with Validate, so inputs can report field-qualified errors before
// any command is sent.
package scalar

import (
	"fmt"
	"net"
	"net/netip"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validatable is implemented by every scalar type in this package.
type Validatable interface {
	Validate() error
}

var (
	interfacePattern = regexp.MustCompile(`^(Dps|Ethernet|Fabric|Loopback|Management|Port-Channel|Recirc-Channel|Tunnel|Vlan|Vxlan)\d+(/\d+)*(\.\d+)?$`)
	ethernetPattern  = regexp.MustCompile(`^Ethernet\d+(/\d+)*$`)
)

// interfaceAliases maps the short forms operators type to canonical prefixes.
var interfaceAliases = []struct {
	short string
	long  string
}{
	{"port-channel", "Port-Channel"},
	{"ethernet", "Ethernet"},
	{"eth", "Ethernet"},
	{"et", "Ethernet"},
	{"po", "Port-Channel"},
	{"lo", "Loopback"},
}

// NormalizeInterface expands short interface names ("et1", "po10") and fixes
// the case of the prefix ("ethernet1" becomes "Ethernet1"). Unknown prefixes
// are returned with only the first letter upper-cased.
func NormalizeInterface(name string) string {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)
	for _, a := range interfaceAliases {
		if strings.HasPrefix(lower, a.short) && len(name) > len(a.short) && isDigit(name[len(a.short)]) {
			return a.long + name[len(a.short):]
		}
	}
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// Interface is any device interface name, e.g. Ethernet1/1 or Port-Channel10.
type Interface string

// UnmarshalYAML normalizes the decoded name.
func (i *Interface) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	*i = Interface(NormalizeInterface(s))
	return nil
}

// Validate checks the name against the known interface families.
func (i Interface) Validate() error {
	if !interfacePattern.MatchString(string(i)) {
		return fmt.Errorf("invalid interface name %q", string(i))
	}
	return nil
}

func (i Interface) String() string { return string(i) }

// EthernetInterface is an Ethernet interface name, e.g. Ethernet3/1.
type EthernetInterface string

// UnmarshalYAML normalizes the decoded name.
func (e *EthernetInterface) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	*e = EthernetInterface(NormalizeInterface(s))
	return nil
}

// Validate checks that the name is an Ethernet interface.
func (e EthernetInterface) Validate() error {
	if !ethernetPattern.MatchString(string(e)) {
		return fmt.Errorf("invalid Ethernet interface name %q", string(e))
	}
	return nil
}

func (e EthernetInterface) String() string { return string(e) }

// MACAddress is a 48-bit MAC address kept in lower-case colon notation.
type MACAddress string

// UnmarshalYAML normalizes any notation accepted by net.ParseMAC.
func (m *MACAddress) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	*m = MACAddress(NormalizeMAC(s))
	return nil
}

// NormalizeMAC returns s in lower-case colon notation, or s unchanged when it
// does not parse as a 48-bit MAC address.
func NormalizeMAC(s string) string {
	hw, err := net.ParseMAC(strings.TrimSpace(s))
	if err != nil || len(hw) != 6 {
		return s
	}
	return hw.String()
}

// Validate checks that the value is a 48-bit MAC address.
func (m MACAddress) Validate() error {
	hw, err := net.ParseMAC(string(m))
	if err != nil || len(hw) != 6 {
		return fmt.Errorf("invalid MAC address %q", string(m))
	}
	return nil
}

func (m MACAddress) String() string { return string(m) }

// Percent is a value between 0 and 100 inclusive.
type Percent float64

// Validate checks the range.
func (p Percent) Validate() error {
	if p < 0 || p > 100 {
		return fmt.Errorf("percentage %v out of range [0, 100]", float64(p))
	}
	return nil
}

// PositiveInteger is an integer greater than zero.
type PositiveInteger int

// Validate checks the value is strictly positive.
func (n PositiveInteger) Validate() error {
	if n <= 0 {
		return fmt.Errorf("value %d must be a positive integer", int(n))
	}
	return nil
}

// IPv4Interface is an IPv4 interface address in CIDR notation (host bits are
// kept, e.g. 172.30.11.1/31).
type IPv4Interface string

// Validate checks the value is an IPv4 address with prefix length.
func (a IPv4Interface) Validate() error {
	p, err := netip.ParsePrefix(string(a))
	if err != nil || !p.Addr().Is4() {
		return fmt.Errorf("invalid IPv4 interface address %q", string(a))
	}
	return nil
}

func (a IPv4Interface) String() string { return string(a) }
