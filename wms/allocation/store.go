package allocation

import (
	"context"

	"wms-app/types"
)

// Method is how the operator confirmed an allocation.
type Method string

const (
	MethodManual  Method = "manual"
	MethodScanner Method = "scanner"
)

// PendingPallet is a pallet that finished receiving conference and still
// needs a storage position.
type PendingPallet struct {
	ID          types.SnowflakeID `json:"id"`
	PalletCode  string            `json:"pallet_code"`
	ShipmentRef string            `json:"shipment_ref"`
	WhsCode     string            `json:"whs_code"`
}

// Proposal is a tentative position suggested for a pallet. It is advisory:
// another operator may take the position before the confirmation lands.
type Proposal struct {
	PalletID     types.SnowflakeID `json:"pallet_id"`
	PositionID   uint              `json:"position_id"`
	PositionCode string            `json:"position_code"`
}

// Evidence is what the operator attaches to a confirmation. Manual mode may
// override the suggested position with a free-text code; scanner mode must
// carry both scanned codes.
type Evidence struct {
	Method              Method `json:"method"`
	PositionCode        string `json:"position_code,omitempty"`
	ScannedPalletCode   string `json:"scanned_pallet_code,omitempty"`
	ScannedPositionCode string `json:"scanned_position_code,omitempty"`
	AllocatedBy         int    `json:"-"`
}

func (ev Evidence) validate() error {
	switch ev.Method {
	case MethodManual:
		return nil
	case MethodScanner:
		if ev.ScannedPalletCode == "" || ev.ScannedPositionCode == "" {
			return ErrScanEvidence
		}
		return nil
	default:
		return ErrUnknownMethod
	}
}

// Confirmation commits a proposal.
type Confirmation struct {
	PalletID   types.SnowflakeID
	PositionID uint
	Evidence
}

// Store is the persistence collaborator the engine drives. The authoritative
// "which positions are free" state lives behind it; the engine never caches a
// proposal beyond one attempt.
type Store interface {
	ListPendingPallets(ctx context.Context, whsCode string) ([]PendingPallet, error)

	// ProposePosition returns the first free position for the pallet's
	// warehouse, or ErrNoCandidatePosition when none exists. Safe to call
	// repeatedly for the same pallet.
	ProposePosition(ctx context.Context, palletID types.SnowflakeID, whsCode string) (Proposal, error)

	// CommitAllocation makes the allocation final. Re-committing the same
	// pallet/position pair must succeed as a no-op.
	CommitAllocation(ctx context.Context, c Confirmation) error
}

// Notifier is told about wave milestones. Implementations must not block.
type Notifier interface {
	WaveCompleted(whsCode string, completed int)
	PalletParked(whsCode string, palletID types.SnowflakeID, reason string)
}
