package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/newtron-network/newtcheck/pkg/checks"
	"github.com/newtron-network/newtcheck/pkg/settings"
)

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: 1 failed, 0 errored", errChecksFailed), 1},
		{errors.New("reading catalog: no such file"), 2},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRunFlagsResolve(t *testing.T) {
	userSettings = &settings.Settings{
		Inventory:      "lab.yaml",
		Catalog:        "checks.yaml",
		Concurrency:    3,
		CommandTimeout: "12s",
	}
	defer func() { userSettings = nil }()

	cmd := &cobra.Command{Use: "run"}
	var f runFlags
	f.register(cmd)
	if err := cmd.Flags().Parse([]string{"-c", "other.yaml", "--tags", "leaf, spine"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if err := f.resolve(cmd); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if f.inventory != "lab.yaml" || f.catalog != "other.yaml" {
		t.Errorf("inventory/catalog = %q/%q, want lab.yaml/other.yaml", f.inventory, f.catalog)
	}
	opts := f.options()
	if opts.Concurrency != 3 || opts.CommandTimeout != 12*time.Second {
		t.Errorf("options = %d/%v, want 3/12s", opts.Concurrency, opts.CommandTimeout)
	}
	if len(opts.Tags) != 2 || opts.Tags[0] != "leaf" || opts.Tags[1] != "spine" {
		t.Errorf("Tags = %q, want [leaf spine]", opts.Tags)
	}
}

func TestRunFlagsResolveMissing(t *testing.T) {
	userSettings = &settings.Settings{}
	defer func() { userSettings = nil }()

	cmd := &cobra.Command{Use: "run"}
	var f runFlags
	f.register(cmd)
	if err := f.resolve(cmd); err == nil {
		t.Error("resolve() with no inventory or catalog should error")
	}
}

func TestKindCommands(t *testing.T) {
	k, err := checks.Lookup("VerifyIPProxyARP")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	got := kindCommands(k)
	if len(got) != 1 || got[0] != "show ip interface {interface} (revision 2)" {
		t.Errorf("kindCommands(VerifyIPProxyARP) = %q", got)
	}
}
