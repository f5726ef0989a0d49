// Package checks is the closed registry of test kinds.
package checks

import (
	"fmt"
	"sort"

	"github.com/newtron-network/newtcheck/pkg/checks/configuration"
	"github.com/newtron-network/newtcheck/pkg/checks/interfaces"
	"github.com/newtron-network/newtcheck/pkg/unit"
	"github.com/newtron-network/newtcheck/pkg/util"
)

var registry = map[string]*unit.Kind{}

func init() {
	for _, group := range [][]*unit.Kind{interfaces.Kinds(), configuration.Kinds()} {
		for _, k := range group {
			if _, dup := registry[k.Name]; dup {
				panic("duplicate test kind " + k.Name)
			}
			registry[k.Name] = k
		}
	}
}

// Lookup returns the kind registered under name.
func Lookup(name string) (*unit.Kind, error) {
	k, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", util.ErrUnknownTest, name)
	}
	return k, nil
}

// All returns every registered kind sorted by name.
func All() []*unit.Kind {
	kinds := make([]*unit.Kind, 0, len(registry))
	for _, k := range registry {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Name < kinds[j].Name })
	return kinds
}

// ByCategory returns the registered kinds carrying category, sorted by name.
func ByCategory(category string) []*unit.Kind {
	var kinds []*unit.Kind
	for _, k := range All() {
		if util.Contains(k.Categories, category) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}
