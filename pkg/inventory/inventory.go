// Package inventory loads the list of devices a run targets.
package inventory

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/newtcheck/pkg/util"
)

const defaultPort = 22

// Device is one target device.
type Device struct {
	Name     string   `yaml:"name"`
	Host     string   `yaml:"host,omitempty"`
	Port     int      `yaml:"port,omitempty"`
	Username string   `yaml:"username,omitempty"`
	Password string   `yaml:"password,omitempty"`
	Platform string   `yaml:"platform,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
}

// Address returns host:port for dialing.
func (d *Device) Address() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// AllTags returns the device's tags plus its name, which is an implicit tag.
func (d *Device) AllTags() []string {
	return append([]string{d.Name}, d.Tags...)
}

// Defaults fill fields a device leaves empty.
type Defaults struct {
	Port     int    `yaml:"port,omitempty"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	Platform string `yaml:"platform,omitempty"`
}

// Inventory is the ordered device list.
type Inventory struct {
	Defaults Defaults  `yaml:"defaults,omitempty"`
	Devices  []*Device `yaml:"devices"`
}

// Load reads and validates an inventory file.
func Load(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading inventory: %w", err)
	}
	inv, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("inventory %s: %w", path, err)
	}
	return inv, nil
}

// Parse decodes YAML inventory data, applies defaults and validates it.
func Parse(data []byte) (*Inventory, error) {
	var inv Inventory
	if err := yaml.Unmarshal(data, &inv); err != nil {
		return nil, err
	}
	inv.applyDefaults()
	if err := inv.Validate(); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (inv *Inventory) applyDefaults() {
	for _, d := range inv.Devices {
		if d.Host == "" {
			d.Host = d.Name
		}
		if d.Port == 0 {
			d.Port = inv.Defaults.Port
		}
		if d.Port == 0 {
			d.Port = defaultPort
		}
		if d.Username == "" {
			d.Username = inv.Defaults.Username
		}
		if d.Password == "" {
			d.Password = inv.Defaults.Password
		}
		if d.Platform == "" {
			d.Platform = inv.Defaults.Platform
		}
	}
}

// Validate checks device names are present and unique.
func (inv *Inventory) Validate() error {
	v := &util.ValidationBuilder{}
	v.Add(len(inv.Devices) > 0, "devices: at least one device is required")
	seen := make(map[string]bool)
	for i, d := range inv.Devices {
		path := fmt.Sprintf("devices[%d]", i)
		if d == nil {
			v.AddErrorf("%s: empty device", path)
			continue
		}
		v.Require(path+".name", d.Name == "")
		if d.Name != "" {
			v.Add(!seen[d.Name], fmt.Sprintf("%s.name: duplicate device %q", path, d.Name))
			seen[d.Name] = true
		}
		v.Add(d.Port >= 0 && d.Port <= 65535, fmt.Sprintf("%s.port: %d out of range", path, d.Port))
	}
	return v.Build()
}

// Get returns the named device.
func (inv *Inventory) Get(name string) (*Device, error) {
	for _, d := range inv.Devices {
		if d.Name == name {
			return d, nil
		}
	}
	return nil, fmt.Errorf("device %s: %w", name, util.ErrNotFound)
}

// Filter returns the devices carrying at least one of tags, in inventory
// order. No tags selects every device.
func (inv *Inventory) Filter(tags []string) []*Device {
	if len(tags) == 0 {
		return inv.Devices
	}
	var out []*Device
	for _, d := range inv.Devices {
		if util.Intersects(d.AllTags(), tags) {
			out = append(out, d)
		}
	}
	return out
}
