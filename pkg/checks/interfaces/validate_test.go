package interfaces

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/newtcheck/pkg/unit"
)

func TestInputValidation(t *testing.T) {
	tests := []struct {
		name    string
		kind    *unit.Kind
		input   string
		wantErr string
	}{
		{"status ok", Status, "interfaces: [{name: Ethernet1, status: up}]", ""},
		{"status empty", Status, "interfaces: []", "at least one interface is required"},
		{"status missing field", Status, "interfaces: [{name: Ethernet1}]", "interfaces[0].status: field is required"},
		{"proxy arp ok", IPProxyARP, "interfaces: [Ethernet1]", ""},
		{"proxy arp empty", IPProxyARP, "interfaces: []", "at least one interface is required"},
		{"mtu defaults", L3MTU, "", ""},
		{"mtu zero", L3MTU, "mtu: 0", "mtu: value 0 must be a positive integer"},
		{"mtu negative specific", L2MTU, "specific_mtu: [{Ethernet1: -1}]", "specific_mtu[0].Ethernet1: value -1"},
		{"speed ok", Speed, "interfaces: [{name: Ethernet1, auto: false, speed: 100, lanes: 4}]", ""},
		{"speed empty", Speed, "interfaces: []", "at least one interface is required"},
		{"speed too high", Speed, "interfaces: [{name: Ethernet1, auto: false, speed: 1001}]", "speed: 1001 out of range [1, 1000]"},
		{"lanes too high", Speed, "interfaces: [{name: Ethernet1, auto: true, speed: 10, lanes: 9}]", "lanes: 9 out of range [1, 8]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tst := tt.kind.New()
			if tt.input != "" {
				if err := yaml.Unmarshal([]byte(tt.input), tst); err != nil {
					t.Fatalf("Unmarshal() error = %v", err)
				}
			}
			v, ok := tst.(unit.Validator)
			if !ok {
				t.Fatalf("%s input has no Validate method", tt.kind.Name)
			}
			err := v.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
