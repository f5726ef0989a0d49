package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.ObserveCommand("leaf1", 20*time.Millisecond, nil)
	c.ObserveCommand("leaf1", 30*time.Millisecond, errors.New("boom"))
	c.ObserveCacheHits("leaf1", 3)
	c.ObserveCacheHits("leaf1", 0)
	c.ObserveResult("success")
	c.ObserveResult("success")
	c.ObserveResult("failure")
	c.ObserveDeviceFault("spine1")
	c.ObserveRun(2 * time.Second)

	path := filepath.Join(t.TempDir(), "run.prom")
	if err := c.Write(path); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`newtcheck_transport_calls_total{device="leaf1",outcome="ok"} 1`,
		`newtcheck_transport_calls_total{device="leaf1",outcome="error"} 1`,
		`newtcheck_cache_hits_total{device="leaf1"} 3`,
		`newtcheck_results_total{status="success"} 2`,
		`newtcheck_results_total{status="failure"} 1`,
		`newtcheck_device_faults_total{device="spine1"} 1`,
		`newtcheck_run_duration_seconds 2`,
		`newtcheck_command_duration_seconds_count{device="leaf1"} 2`,
	} {
		if !strings.Contains(string(data), want) {
			t.Errorf("metrics file missing %q", want)
		}
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.ObserveCommand("leaf1", time.Second, nil)
	c.ObserveCacheHits("leaf1", 1)
	c.ObserveResult("success")
	c.ObserveDeviceFault("leaf1")
	c.ObserveRun(time.Second)
}
