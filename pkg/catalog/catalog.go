// Package catalog turns a YAML list of test entries into test units bound to
// devices.
//
//	tests:
//	  - test: VerifyInterfaceUtilization
//	    tags: [leaf]
//	    inputs:
//	      threshold: 70
package catalog

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/newtron-network/newtcheck/pkg/checks"
	"github.com/newtron-network/newtcheck/pkg/unit"
	"github.com/newtron-network/newtcheck/pkg/util"
)

// Entry is one catalog line: a kind, optional display name and tags, and
// the raw input decoded per unit.
type Entry struct {
	Test   string    `yaml:"test"`
	Name   string    `yaml:"name,omitempty"`
	Tags   []string  `yaml:"tags,omitempty"`
	Inputs yaml.Node `yaml:"inputs,omitempty"`

	kind *unit.Kind
}

// Kind returns the registered kind of the entry.
func (e *Entry) Kind() *unit.Kind {
	return e.kind
}

// Catalog is the ordered list of entries.
type Catalog struct {
	Tests []*Entry `yaml:"tests"`
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes catalog data and resolves every entry's kind. Input is not
// decoded here; bad input surfaces as an Error result on each unit.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, err
	}

	v := &util.ValidationBuilder{}
	for i, e := range c.Tests {
		path := fmt.Sprintf("tests[%d]", i)
		if e == nil {
			v.AddErrorf("%s: empty entry", path)
			continue
		}
		if e.Test == "" {
			v.Require(path+".test", true)
			continue
		}
		kind, err := checks.Lookup(e.Test)
		if err != nil {
			v.AddField(path+".test", err)
			continue
		}
		e.kind = kind
		if hasInputs(&e.Inputs) && e.Inputs.Kind != yaml.MappingNode {
			v.AddErrorf("%s.inputs: must be a mapping", path)
		}
	}
	if err := v.Build(); err != nil {
		return nil, err
	}
	return &c, nil
}

// New builds a catalog from entries already bound to kinds; used when tests
// are assembled in code rather than read from a file.
func New(entries ...*Entry) (*Catalog, error) {
	for _, e := range entries {
		if e.kind == nil {
			k, err := checks.Lookup(e.Test)
			if err != nil {
				return nil, err
			}
			e.kind = k
		}
	}
	return &Catalog{Tests: entries}, nil
}

func hasInputs(n *yaml.Node) bool {
	return n.Kind != 0 && !(n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// decode fills t from the entry's raw input. Unknown fields are rejected.
func (e *Entry) decode(t unit.Test) error {
	if !hasInputs(&e.Inputs) {
		return nil
	}
	raw, err := yaml.Marshal(&e.Inputs)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	return dec.Decode(t)
}

// Unit constructs a fresh unit for target.
func (e *Entry) Unit(target unit.Target) *unit.Unit {
	return unit.New(e.kind, e.Name, target, e.decode)
}

// Applies reports whether the entry runs on a device carrying deviceTags
// under the run-level filter runTags. Untagged entries run everywhere;
// tagged entries need a tag shared with the device, and with runTags when
// those are set.
func (e *Entry) Applies(deviceTags, runTags []string) bool {
	if len(e.Tags) == 0 {
		return true
	}
	if !util.Intersects(e.Tags, deviceTags) {
		return false
	}
	return len(runTags) == 0 || util.Intersects(e.Tags, runTags)
}

// Units constructs every applicable unit for one device, in catalog order.
func (c *Catalog) Units(target unit.Target, deviceTags, runTags []string) []*unit.Unit {
	var units []*unit.Unit
	for _, e := range c.Tests {
		if e.Applies(deviceTags, runTags) {
			units = append(units, e.Unit(target))
		}
	}
	return units
}
