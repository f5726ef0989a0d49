package unit

import "sync"

// Status is the outcome of a test unit.
type Status string

const (
	StatusUnset   Status = "unset"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
	StatusError   Status = "error"
	StatusSkipped Status = "skipped"
)

// Result accumulates the outcome of one test unit.
//
// Transitions:
//   - IsSuccess only moves Unset to Success; it is a no-op otherwise.
//   - IsFailure moves Unset or Success to Failure; Failure is sticky.
//   - IsError is terminal and wins over Success and Failure.
//   - IsSkipped only applies to an Unset result.
//
// Messages are appended in call order; calls that are ignored by the state
// machine do not append.
type Result struct {
	mu       sync.Mutex
	status   Status
	messages []string
}

// NewResult returns an Unset result.
func NewResult() *Result {
	return &Result{status: StatusUnset}
}

// IsSuccess records success unless a failure, error or skip was recorded.
func (r *Result) IsSuccess() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusUnset {
		r.status = StatusSuccess
	}
}

// IsFailure records one violation.
func (r *Result) IsFailure(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.status {
	case StatusError, StatusSkipped:
		return
	}
	r.status = StatusFailure
	if msg != "" {
		r.messages = append(r.messages, msg)
	}
}

// IsError records an engine-level fault.
func (r *Result) IsError(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status == StatusSkipped {
		return
	}
	r.status = StatusError
	if msg != "" {
		r.messages = append(r.messages, msg)
	}
}

// IsSkipped marks the result as skipped.
func (r *Result) IsSkipped(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.status != StatusUnset {
		return
	}
	r.status = StatusSkipped
	if msg != "" {
		r.messages = append(r.messages, msg)
	}
}

// Status returns the current status.
func (r *Result) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Messages returns a copy of the diagnostic messages.
func (r *Result) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.messages))
	copy(out, r.messages)
	return out
}
