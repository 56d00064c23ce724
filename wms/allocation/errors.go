package allocation

import (
	"errors"
	"fmt"

	"wms-app/types"
)

var (
	// ErrNoCandidatePosition is the store's "nothing free" answer. It is a
	// terminal outcome for the pallet, not a transient failure, and is never
	// retried automatically.
	ErrNoCandidatePosition = errors.New("no free storage position available")

	// ErrRetriesExhausted marks a pallet whose proposal kept failing
	// transiently until the retry policy gave up.
	ErrRetriesExhausted = errors.New("proposal retries exhausted")

	ErrWaveInProgress   = errors.New("a wave is already in progress")
	ErrNoActiveWave     = errors.New("no wave in progress")
	ErrEmptySelection   = errors.New("wave selection is empty")
	ErrNothingToConfirm = errors.New("no proposal awaiting confirmation")
	ErrConfirmInFlight  = errors.New("confirmation already in flight")
	ErrScanEvidence     = errors.New("scanner confirmation requires both scanned codes")
	ErrUnknownMethod    = errors.New("unknown confirmation method")
)

// Skip reasons recorded per pallet when the engine parks it and moves on.
const (
	SkipNoPosition = "no free position"
	SkipGaveUp     = "proposal retries exhausted"
)

// ConfirmationError wraps a failed commit. Confirmation failures may reflect
// a physical discrepancy, so they require operator judgment and are never
// retried by the engine.
type ConfirmationError struct {
	PalletID types.SnowflakeID
	Err      error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("confirmation failed for pallet %s: %v", e.PalletID, e.Err)
}

func (e *ConfirmationError) Unwrap() error {
	return e.Err
}
