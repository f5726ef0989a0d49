// Package history keeps a JSON-lines log of test results across runs, one
// event per device result, so outcomes can be queried after the fact.
package history

import (
	"os/user"
	"time"

	"github.com/google/uuid"

	"github.com/newtron-network/newtcheck/pkg/runner"
	"github.com/newtron-network/newtcheck/pkg/unit"
)

// Event is one recorded test result.
type Event struct {
	ID        string      `json:"id"`
	RunID     string      `json:"run_id"`
	Timestamp time.Time   `json:"timestamp"`
	User      string      `json:"user,omitempty"`
	Device    string      `json:"device"`
	Test      string      `json:"test"`
	Kind      string      `json:"kind"`
	Status    unit.Status `json:"status"`
	Messages  []string    `json:"messages,omitempty"`
}

// Filter defines criteria for querying events. Zero fields match anything.
type Filter struct {
	RunID     string
	Device    string
	Test      string
	Status    unit.Status
	StartTime time.Time
	EndTime   time.Time
	Limit     int
	Offset    int
}

// NewEvent creates an event for rec.
func NewEvent(runID string, rec runner.Record) *Event {
	return &Event{
		ID:        uuid.NewString(),
		RunID:     runID,
		Timestamp: time.Now(),
		Device:    rec.Device,
		Test:      rec.Test,
		Kind:      rec.Kind,
		Status:    rec.Status,
		Messages:  rec.Messages,
	}
}

// WithUser sets the user who started the run
func (e *Event) WithUser(name string) *Event {
	e.User = name
	return e
}

// FromReport converts every record of report, skipped ones included, into
// events stamped with the report's start time.
func FromReport(report *runner.Report) []*Event {
	name := currentUser()
	var events []*Event
	for _, recs := range [][]runner.Record{report.Records, report.Skipped} {
		for _, rec := range recs {
			e := NewEvent(report.RunID, rec).WithUser(name)
			e.Timestamp = report.Started
			events = append(events, e)
		}
	}
	return events
}

func currentUser() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}
