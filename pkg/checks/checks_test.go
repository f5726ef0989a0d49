package checks

import (
	"errors"
	"testing"

	"github.com/newtron-network/newtcheck/pkg/util"
)

func TestLookup(t *testing.T) {
	k, err := Lookup("VerifyInterfaceUtilization")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if k.Name != "VerifyInterfaceUtilization" {
		t.Errorf("Name = %q", k.Name)
	}
	if _, err := Lookup("VerifyNothing"); !errors.Is(err, util.ErrUnknownTest) {
		t.Errorf("Lookup(unknown) error = %v, want ErrUnknownTest", err)
	}
}

func TestAll_WellFormed(t *testing.T) {
	kinds := All()
	if len(kinds) < 20 {
		t.Fatalf("len(All()) = %d, want at least 20", len(kinds))
	}
	for i, k := range kinds {
		if i > 0 && kinds[i-1].Name >= k.Name {
			t.Errorf("All() not sorted at %q", k.Name)
		}
		if k.New == nil {
			t.Errorf("%s: New is nil", k.Name)
			continue
		}
		if len(k.Commands) == 0 && len(k.Templates) == 0 {
			t.Errorf("%s: declares no commands", k.Name)
		}
		for _, id := range k.Commands {
			if err := id.Validate(); err != nil {
				t.Errorf("%s: command %q invalid: %v", k.Name, id.Text, err)
			}
		}
		if len(k.Categories) == 0 {
			t.Errorf("%s: no categories", k.Name)
		}
		if k.New() == nil {
			t.Errorf("%s: New() returned nil", k.Name)
		}
	}
}

func TestByCategory(t *testing.T) {
	if got := len(ByCategory("configuration")); got != 3 {
		t.Errorf("len(ByCategory(configuration)) = %d, want 3", got)
	}
	if got := ByCategory("nope"); len(got) != 0 {
		t.Errorf("ByCategory(nope) = %v, want empty", got)
	}
}
