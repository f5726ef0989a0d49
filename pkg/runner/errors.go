package runner

import "fmt"

// InfraError is a device-level failure that prevented a device's units from
// being evaluated normally (connect, resolve).
type InfraError struct {
	Op     string // "connect", "resolve"
	Device string
	Err    error
}

func (e *InfraError) Error() string {
	return fmt.Sprintf("newtcheck: %s %s: %v", e.Op, e.Device, e.Err)
}

func (e *InfraError) Unwrap() error {
	return e.Err
}
