package invoker

import (
	"errors"
	"fmt"
)

// ErrTimeout is wrapped by a RunInvocationError when the optimiser exceeded
// its per-invocation timeout.
var ErrTimeout = errors.New("optimiser timed out")

// ErrLeaseReleased is returned when a released lease is used
var ErrLeaseReleased = errors.New("parameter mailbox lease already released")

// RunInvocationError reports an optimiser run that failed, timed out or could
// not be started.
type RunInvocationError struct {
	RunIndex int
	Stage    string
	Err      error
}

func (e *RunInvocationError) Error() string {
	return fmt.Sprintf("run %d failed during %s: %v", e.RunIndex, e.Stage, e.Err)
}

func (e *RunInvocationError) Unwrap() error {
	return e.Err
}
