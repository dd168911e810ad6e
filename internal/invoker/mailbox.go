package invoker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/GoSim-25-26J-441/lca-sweep/pkg/models"
	"github.com/GoSim-25-26J-441/lca-sweep/pkg/utils"
)

// Mailbox guards the parameter file the optimiser reads at start-up. It has
// a single slot: while a Lease is held no other caller can write parameters
// or start an invocation.
type Mailbox struct {
	path string
	slot chan struct{}
}

// NewMailbox creates a mailbox for the parameter file at path
func NewMailbox(path string) *Mailbox {
	return &Mailbox{
		path: path,
		slot: make(chan struct{}, 1),
	}
}

// Path returns the parameter file location
func (m *Mailbox) Path() string {
	return m.path
}

// Acquire blocks until the slot is free or ctx is done
func (m *Mailbox) Acquire(ctx context.Context) (*Lease, error) {
	select {
	case m.slot <- struct{}{}:
		return &Lease{mailbox: m}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryAcquire takes the slot if it is free
func (m *Mailbox) TryAcquire() (*Lease, bool) {
	select {
	case m.slot <- struct{}{}:
		return &Lease{mailbox: m}, true
	default:
		return nil, false
	}
}

// Lease is exclusive ownership of a Mailbox
type Lease struct {
	mailbox  *Mailbox
	released atomic.Bool
}

// WriteParameters replaces the parameter file atomically
func (l *Lease) WriteParameters(params models.LCAParameters) error {
	if l.released.Load() {
		return ErrLeaseReleased
	}

	data, err := json.MarshalIndent(params, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode parameters: %w", err)
	}

	if err := utils.WriteFileAtomic(l.mailbox.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write parameter file: %w", err)
	}
	return nil
}

// Artifacts binds artifact locations to this lease, handing release over to
// whoever consumes them.
func (l *Lease) Artifacts(resultsDir, fitnessDir string) Artifacts {
	return Artifacts{ResultsDir: resultsDir, FitnessDir: fitnessDir, lease: l}
}

// Release frees the slot. Calling it more than once is a no-op.
func (l *Lease) Release() {
	if l == nil {
		return
	}
	if l.released.CompareAndSwap(false, true) {
		<-l.mailbox.slot
	}
}
