package runner

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/newtron-network/newtcheck/internal/testutil"
	"github.com/newtron-network/newtcheck/pkg/catalog"
	"github.com/newtron-network/newtcheck/pkg/command"
	"github.com/newtron-network/newtcheck/pkg/inventory"
	"github.com/newtron-network/newtcheck/pkg/metrics"
	"github.com/newtron-network/newtcheck/pkg/unit"
)

const testInventory = `
defaults:
  platform: DCS-7280SR3-48YC8
devices:
  - name: leaf1
    tags: [leaf]
  - name: leaf2
    tags: [leaf]
  - name: lab1
    platform: cEOSLab
    tags: [lab]
`

var showInterfaces = map[string]any{
	"interfaces": map[string]any{
		"Ethernet1":     map[string]any{"forwardingModel": "routed", "mtu": 1500},
		"Ethernet2":     map[string]any{"forwardingModel": "bridged", "mtu": 9214},
		"Port-Channel1": map[string]any{"forwardingModel": "bridged", "mtu": 9214},
	},
}

var showStormControl = map[string]any{
	"interfaces": map[string]any{
		"Ethernet1": map[string]any{
			"trafficTypes": map[string]any{"broadcast": map[string]any{"drop": 0}},
		},
	},
}

func mustInventory(t *testing.T, data string) *inventory.Inventory {
	t.Helper()
	inv, err := inventory.Parse([]byte(data))
	if err != nil {
		t.Fatalf("inventory.Parse: %v", err)
	}
	return inv
}

func mustCatalog(t *testing.T, data string) *catalog.Catalog {
	t.Helper()
	cat, err := catalog.Parse([]byte(data))
	if err != nil {
		t.Fatalf("catalog.Parse: %v", err)
	}
	return cat
}

func run(t *testing.T, inv, cat string, fake *testutil.FakeTransport, opts Options) *Report {
	t.Helper()
	r := New(mustInventory(t, inv), mustCatalog(t, cat), fake, opts)
	report, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return report
}

func find(t *testing.T, report *Report, device, test string) Record {
	t.Helper()
	for _, rec := range append(report.Records, report.Skipped...) {
		if rec.Device == device && rec.Test == test {
			return rec
		}
	}
	t.Fatalf("no record for %s/%s", device, test)
	return Record{}
}

func TestSharedCommandSentOnce(t *testing.T) {
	fake := testutil.NewFakeTransport().Reply("show interfaces", showInterfaces)
	report := run(t, testInventory, `
tests:
  - test: VerifyL3MTU
  - test: VerifyL2MTU
`, fake, Options{})

	key := command.Identity{Text: "show interfaces", Revision: 1, Format: command.FormatJSON}.Key()
	for _, dev := range []string{"leaf1", "leaf2", "lab1"} {
		if got := fake.Calls(dev, key); got != 1 {
			t.Errorf("Calls(%s) = %d, want 1", dev, got)
		}
		for _, test := range []string{"VerifyL3MTU", "VerifyL2MTU"} {
			if rec := find(t, report, dev, test); rec.Status != unit.StatusSuccess {
				t.Errorf("%s/%s status = %s, want success (%q)", dev, test, rec.Status, rec.Messages)
			}
		}
	}
	if report.Summary.Success != 6 {
		t.Errorf("Summary.Success = %d, want 6", report.Summary.Success)
	}
	if report.Summary.Commands != 3 {
		t.Errorf("Summary.Commands = %d, want 3", report.Summary.Commands)
	}
	if report.Summary.CacheHits != 3 {
		t.Errorf("Summary.CacheHits = %d, want 3", report.Summary.CacheHits)
	}
	if report.RunID == "" {
		t.Error("RunID is empty")
	}
}

func TestTimeoutIsolatedToDevice(t *testing.T) {
	fake := testutil.NewFakeTransport().
		Reply("show interfaces", showInterfaces).
		Delay("leaf1", "show interfaces", 5*time.Second)
	report := run(t, testInventory, `
tests:
  - test: VerifyL3MTU
`, fake, Options{CommandTimeout: 50 * time.Millisecond})

	slow := find(t, report, "leaf1", "VerifyL3MTU")
	if slow.Status != unit.StatusError {
		t.Fatalf("leaf1 status = %s, want error", slow.Status)
	}
	if len(slow.Messages) != 1 || !strings.Contains(slow.Messages[0], "timed out") {
		t.Errorf("leaf1 messages = %q, want a timeout cause", slow.Messages)
	}
	for _, dev := range []string{"leaf2", "lab1"} {
		if rec := find(t, report, dev, "VerifyL3MTU"); rec.Status != unit.StatusSuccess {
			t.Errorf("%s status = %s, want success", dev, rec.Status)
		}
	}
	for _, dr := range report.Devices {
		if dr.Fault != nil {
			t.Errorf("device %s fault = %v, want none for a command timeout", dr.Device, dr.Fault)
		}
	}
}

func TestInvalidInputRequestsNothing(t *testing.T) {
	fake := testutil.NewFakeTransport().Reply("show ip interface brief", map[string]any{"interfaces": map[string]any{}})
	report := run(t, testInventory, `
tests:
  - test: VerifyLoopbackCount
    inputs:
      number: 0
`, fake, Options{})

	for _, rec := range report.Records {
		if rec.Status != unit.StatusError {
			t.Errorf("%s status = %s, want error", rec.Device, rec.Status)
		}
		if len(rec.Commands) != 0 {
			t.Errorf("%s commands = %q, want none", rec.Device, rec.Commands)
		}
	}
	if got := fake.TotalCalls(""); got != 0 {
		t.Errorf("TotalCalls = %d, want 0", got)
	}
	if got := fake.Connects("leaf1"); got != 0 {
		t.Errorf("Connects(leaf1) = %d, want 0", got)
	}
}

func TestGuardSkipsWithoutCommands(t *testing.T) {
	fake := testutil.NewFakeTransport().Reply("show storm-control", showStormControl)
	report := run(t, testInventory, `
tests:
  - test: VerifyStormControlDrops
`, fake, Options{})

	rec := find(t, report, "lab1", "VerifyStormControlDrops")
	if rec.Status != unit.StatusSkipped {
		t.Fatalf("lab1 status = %s, want skipped", rec.Status)
	}
	if got := fake.TotalCalls("lab1"); got != 0 {
		t.Errorf("TotalCalls(lab1) = %d, want 0", got)
	}
	if report.Summary.Skipped != 1 || report.Summary.Total() != 2 {
		t.Errorf("Summary = %+v, want 1 skipped and 2 evaluated", report.Summary)
	}
	for _, r := range report.Records {
		if r.Device == "lab1" {
			t.Errorf("skipped unit listed in Records: %+v", r)
		}
	}
}

func TestDeviceDown(t *testing.T) {
	fake := testutil.NewFakeTransport().
		Reply("show interfaces", showInterfaces).
		Reply("show storm-control", showStormControl).
		Down("leaf2", context.DeadlineExceeded)
	m := metrics.NewCollector()
	report := run(t, testInventory, `
tests:
  - test: VerifyL3MTU
  - test: VerifyStormControlDrops
`, fake, Options{Metrics: m})

	for _, test := range []string{"VerifyL3MTU", "VerifyStormControlDrops"} {
		rec := find(t, report, "leaf2", test)
		if rec.Status != unit.StatusError {
			t.Errorf("leaf2/%s status = %s, want error", test, rec.Status)
		}
		if len(rec.Messages) == 0 || !strings.Contains(rec.Messages[0], "unreachable") {
			t.Errorf("leaf2/%s messages = %q, want an unreachable cause", test, rec.Messages)
		}
		if rec := find(t, report, "leaf1", test); rec.Status != unit.StatusSuccess {
			t.Errorf("leaf1/%s status = %s, want success", test, rec.Status)
		}
	}
	if got := fake.TotalCalls("leaf2"); got != 0 {
		t.Errorf("TotalCalls(leaf2) = %d, want 0", got)
	}

	var fault *InfraError
	for _, dr := range report.Devices {
		if dr.Device == "leaf2" {
			fault, _ = dr.Fault.(*InfraError)
		}
	}
	if fault == nil || fault.Op != "connect" {
		t.Errorf("leaf2 fault = %v, want a connect InfraError", fault)
	}
	if report.Summary.OK() {
		t.Error("Summary.OK() = true with a device down")
	}
}

func TestRecordOrder(t *testing.T) {
	fake := testutil.NewFakeTransport().
		Reply("show interfaces", showInterfaces).
		Reply("show interfaces status", map[string]any{"interfaceStatuses": map[string]any{}}).
		Delay("leaf1", "show interfaces", 50*time.Millisecond)
	report := run(t, testInventory, `
tests:
  - test: VerifyInterfaceErrDisabled
  - test: VerifyL3MTU
    name: routed-mtu
`, fake, Options{})

	var got []string
	for _, rec := range report.Records {
		got = append(got, rec.Device+"/"+rec.Test)
	}
	want := []string{
		"leaf1/VerifyInterfaceErrDisabled", "leaf1/routed-mtu",
		"leaf2/VerifyInterfaceErrDisabled", "leaf2/routed-mtu",
		"lab1/VerifyInterfaceErrDisabled", "lab1/routed-mtu",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record order mismatch (-want +got):\n%s", diff)
	}
}

func TestTagFilter(t *testing.T) {
	fake := testutil.NewFakeTransport().
		Reply("show interfaces", showInterfaces).
		Reply("show interfaces status", map[string]any{"interfaceStatuses": map[string]any{}})
	report := run(t, testInventory, `
tests:
  - test: VerifyL3MTU
    tags: [leaf]
  - test: VerifyInterfaceErrDisabled
`, fake, Options{Tags: []string{"lab"}})

	var got []string
	for _, rec := range report.Records {
		got = append(got, rec.Device+"/"+rec.Test)
	}
	want := []string{"lab1/VerifyInterfaceErrDisabled"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestConsoleProgress(t *testing.T) {
	fake := testutil.NewFakeTransport().
		Reply("show interfaces", map[string]any{
			"interfaces": map[string]any{
				"Ethernet1": map[string]any{"forwardingModel": "routed", "mtu": 1400},
			},
		})
	var buf bytes.Buffer
	run(t, `
devices:
  - name: leaf1
`, `
tests:
  - test: VerifyL3MTU
`, fake, Options{Progress: &ConsoleProgress{W: &buf}})

	out := buf.String()
	for _, want := range []string{
		"newtcheck: 1 devices, 1 tests",
		"[1/1]",
		"1 failed",
		"FAILED:",
		"leaf1 VerifyL3MTU (failure)",
		"Interface: Ethernet1 - Incorrect MTU - Expected: 1500 Actual: 1400",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("progress output missing %q:\n%s", want, out)
		}
	}
}

func TestInfraErrorUnwrap(t *testing.T) {
	cause := context.Canceled
	err := &InfraError{Op: "connect", Device: "leaf1", Err: cause}
	if got, want := err.Error(), "newtcheck: connect leaf1: context canceled"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
}
