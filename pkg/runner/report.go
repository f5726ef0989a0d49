package runner

import (
	"time"

	"github.com/newtron-network/newtcheck/pkg/unit"
)

// Record is the outcome of one unit on one device.
type Record struct {
	Device     string      `json:"device"`
	Test       string      `json:"test"`
	Kind       string      `json:"kind"`
	Categories []string    `json:"categories,omitempty"`
	Status     unit.Status `json:"status"`
	Messages   []string    `json:"messages,omitempty"`
	Commands   []string    `json:"commands,omitempty"`
}

func newRecord(u *unit.Unit) Record {
	rec := Record{
		Device:     u.Target.Device,
		Test:       u.Name,
		Kind:       u.Kind.Name,
		Categories: u.Categories(),
		Status:     u.Result.Status(),
		Messages:   u.Result.Messages(),
	}
	for _, c := range u.Commands() {
		rec.Commands = append(rec.Commands, c.String())
	}
	return rec
}

// DeviceResult collects one device's records.
type DeviceResult struct {
	Device    string
	Records   []Record
	Skipped   []Record
	Fault     error
	Commands  int
	CacheHits int
	Duration  time.Duration
}

// Summary counts outcomes across a run. Skipped units are counted apart and
// never as Success, Failure or Error.
type Summary struct {
	Devices   int           `json:"devices"`
	Success   int           `json:"success"`
	Failure   int           `json:"failure"`
	Error     int           `json:"error"`
	Skipped   int           `json:"skipped"`
	Commands  int           `json:"commands"`
	CacheHits int           `json:"cache_hits"`
	Duration  time.Duration `json:"duration"`
}

// Total is the number of evaluated (non-skipped) records.
func (s Summary) Total() int {
	return s.Success + s.Failure + s.Error
}

// OK reports whether no record failed or errored.
func (s Summary) OK() bool {
	return s.Failure == 0 && s.Error == 0
}

// Report is the result of one run. Records are ordered by inventory device
// order, then catalog order.
type Report struct {
	RunID   string          `json:"run_id"`
	Started time.Time       `json:"started"`
	Devices []*DeviceResult `json:"-"`
	Records []Record        `json:"records"`
	Skipped []Record        `json:"skipped,omitempty"`
	Summary Summary         `json:"summary"`
}

// Failed returns the records with status Failure or Error.
func (r *Report) Failed() []Record {
	var out []Record
	for _, rec := range r.Records {
		if rec.Status == unit.StatusFailure || rec.Status == unit.StatusError {
			out = append(out, rec)
		}
	}
	return out
}

func (r *Report) add(dr *DeviceResult) {
	r.Devices = append(r.Devices, dr)
	r.Records = append(r.Records, dr.Records...)
	r.Skipped = append(r.Skipped, dr.Skipped...)
	r.Summary.Devices++
	r.Summary.Skipped += len(dr.Skipped)
	r.Summary.Commands += dr.Commands
	r.Summary.CacheHits += dr.CacheHits
	for _, rec := range dr.Records {
		switch rec.Status {
		case unit.StatusSuccess:
			r.Summary.Success++
		case unit.StatusFailure:
			r.Summary.Failure++
		default:
			r.Summary.Error++
		}
	}
}
