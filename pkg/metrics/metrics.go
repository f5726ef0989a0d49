// Package metrics records per-run Prometheus metrics and writes them in the
// text exposition format.
package metrics

import (
	"bytes"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Collector captures metrics for one run. A nil *Collector discards
// observations.
type Collector struct {
	registry        *prometheus.Registry
	transportCalls  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	results         *prometheus.CounterVec
	deviceFaults    *prometheus.CounterVec
	runDuration     prometheus.Gauge
}

// NewCollector initializes a new metrics registry.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	c := &Collector{
		registry: registry,
		transportCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "newtcheck_transport_calls_total", Help: "Commands sent to devices"},
			[]string{"device", "outcome"},
		),
		cacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "newtcheck_cache_hits_total", Help: "Command requests served by an already registered command"},
			[]string{"device"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "newtcheck_command_duration_seconds",
				Help:    "Transport call duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"device"},
		),
		results: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "newtcheck_results_total", Help: "Test unit results"},
			[]string{"status"},
		),
		deviceFaults: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "newtcheck_device_faults_total", Help: "Device-level faults that aborted a device's batch"},
			[]string{"device"},
		),
		runDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "newtcheck_run_duration_seconds", Help: "Wall time of the run"},
		),
	}

	registry.MustRegister(c.transportCalls, c.cacheHits, c.commandDuration, c.results, c.deviceFaults, c.runDuration)
	return c
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveCommand records one transport call.
func (c *Collector) ObserveCommand(device string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.transportCalls.WithLabelValues(device, outcome).Inc()
	c.commandDuration.WithLabelValues(device).Observe(duration.Seconds())
}

// ObserveCacheHits adds n cache hits for device.
func (c *Collector) ObserveCacheHits(device string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.cacheHits.WithLabelValues(device).Add(float64(n))
}

// ObserveResult records one unit outcome.
func (c *Collector) ObserveResult(status string) {
	if c == nil {
		return
	}
	c.results.WithLabelValues(status).Inc()
}

// ObserveDeviceFault records a device-level fault.
func (c *Collector) ObserveDeviceFault(device string) {
	if c == nil {
		return
	}
	c.deviceFaults.WithLabelValues(device).Inc()
}

// ObserveRun records the run's wall time.
func (c *Collector) ObserveRun(duration time.Duration) {
	if c == nil {
		return
	}
	c.runDuration.Set(duration.Seconds())
}

// Write writes all metrics to a Prometheus text file.
func (c *Collector) Write(path string) error {
	metricFamilies, err := c.registry.Gather()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := expfmt.NewEncoder(&buf, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, family := range metricFamilies {
		if err := enc.Encode(family); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}
