package allocation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"wms-app/types"
)

// RetryPolicy bounds the automatic retry of transient proposal failures.
// Confirmation failures are never retried automatically.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// DefaultRetryPolicy: 3 attempts, 1s base delay doubling up to 5s.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 5 * time.Second}

// DefaultSettleDelay gives the store a moment to settle between a confirmed
// allocation and the next proposal request.
const DefaultSettleDelay = 250 * time.Millisecond

// Entry pairs a pallet with its proposed position while it awaits
// confirmation.
type Entry struct {
	Pallet   PendingPallet `json:"pallet"`
	Proposal Proposal      `json:"proposal"`
}

// SkippedPallet is a pallet the wave gave up on, with the reason shown to the
// operator.
type SkippedPallet struct {
	PalletID types.SnowflakeID `json:"pallet_id"`
	Reason   string            `json:"reason"`
}

// Snapshot is the read-only view exposed to the presentation layer.
type Snapshot struct {
	Active    bool            `json:"active"`
	Method    Method          `json:"method,omitempty"`
	Completed int             `json:"completed"`
	Total     int             `json:"total"`
	Current   *Entry          `json:"current,omitempty"`
	Skipped   []SkippedPallet `json:"skipped,omitempty"`
}

// Config wires an Engine.
type Config struct {
	Store       Store
	WhsCode     string
	Retry       RetryPolicy   // zero value -> DefaultRetryPolicy
	SettleDelay time.Duration // zero -> DefaultSettleDelay
	Notifier    Notifier      // optional

	// Sleep is swapped out in tests. Nil means a context-aware real sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Engine runs single and wave allocations for one warehouse, strictly
// sequentially. Positions are a shared mutable resource, so two proposals are
// never in flight at once; every suspension point is guarded so duplicate
// triggers from the HTTP layer cannot double-book a pallet.
type Engine struct {
	store    Store
	whsCode  string
	retry    RetryPolicy
	settle   time.Duration
	notifier Notifier
	sleep    func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	generation uint64
	active     bool
	method     Method
	selected   []types.SnowflakeID
	processed  map[types.SnowflakeID]bool
	attempts   map[types.SnowflakeID]int
	skipped    map[types.SnowflakeID]string
	results    []Entry
	completed  int
	total      int
	proposing  bool
	confirming bool
}

func NewEngine(cfg Config) *Engine {
	e := &Engine{
		store:    cfg.Store,
		whsCode:  cfg.WhsCode,
		retry:    cfg.Retry,
		settle:   cfg.SettleDelay,
		notifier: cfg.Notifier,
		sleep:    cfg.Sleep,
	}
	if e.retry.MaxAttempts <= 0 {
		e.retry = DefaultRetryPolicy
	}
	if e.settle <= 0 {
		e.settle = DefaultSettleDelay
	}
	if e.sleep == nil {
		e.sleep = ctxSleep
	}
	return e
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (e *Engine) WhsCode() string { return e.whsCode }

// StartSingle allocates one pallet with the same machinery as a wave.
func (e *Engine) StartSingle(ctx context.Context, palletID types.SnowflakeID, method Method) (Snapshot, error) {
	return e.StartWave(ctx, []types.SnowflakeID{palletID}, method)
}

// StartWave begins a guided allocation session for the selected pallets.
// Selection order is processing order. A second start while a wave is active
// is rejected, not queued.
func (e *Engine) StartWave(ctx context.Context, palletIDs []types.SnowflakeID, method Method) (Snapshot, error) {
	if method != MethodManual && method != MethodScanner {
		return e.Snapshot(), ErrUnknownMethod
	}

	e.mu.Lock()
	if e.active {
		e.mu.Unlock()
		return e.Snapshot(), ErrWaveInProgress
	}

	seen := make(map[types.SnowflakeID]bool, len(palletIDs))
	selected := make([]types.SnowflakeID, 0, len(palletIDs))
	for _, id := range palletIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, id)
	}
	if len(selected) == 0 {
		e.mu.Unlock()
		return e.Snapshot(), ErrEmptySelection
	}

	e.active = true
	e.method = method
	e.selected = selected
	e.processed = make(map[types.SnowflakeID]bool, len(selected))
	e.attempts = make(map[types.SnowflakeID]int, len(selected))
	e.skipped = make(map[types.SnowflakeID]string)
	e.results = nil
	e.completed = 0
	e.total = len(selected)
	gen := e.generation
	e.mu.Unlock()

	if err := e.processNext(ctx, gen); err != nil {
		return e.Snapshot(), err
	}
	return e.Snapshot(), nil
}

// Resume re-attempts the propose loop after a failure surfaced to the
// operator, e.g. a pending-list fetch error or a confirmation failure that
// unparked the pallet.
func (e *Engine) Resume(ctx context.Context) (Snapshot, error) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return e.Snapshot(), ErrNoActiveWave
	}
	gen := e.generation
	e.mu.Unlock()

	if err := e.processNext(ctx, gen); err != nil {
		return e.Snapshot(), err
	}
	return e.Snapshot(), nil
}

// processNext attempts pallets in selection order until a proposal is
// awaiting confirmation, the wave completes, or nothing attemptable remains.
// It is the only place proposals are requested; the proposing flag and the
// mark-before-ask ordering make double-firing triggers harmless. The flag is
// cleared in the same critical section as each exit's state change, so a
// confirm landing right after a proposal never sees it stale.
func (e *Engine) processNext(ctx context.Context, gen uint64) error {
	e.mu.Lock()
	if !e.active || e.generation != gen || e.proposing || e.confirming {
		e.mu.Unlock()
		return nil
	}
	if len(e.results) > 0 {
		// A proposal is already awaiting confirmation.
		e.mu.Unlock()
		return nil
	}
	e.proposing = true
	e.mu.Unlock()

	for {
		// Refresh the pending list each round so a pallet cancelled
		// out-of-band is skipped, not failed.
		pending, err := e.store.ListPendingPallets(ctx, e.whsCode)
		if err != nil {
			e.clearProposing()
			return fmt.Errorf("refresh pending pallets: %w", err)
		}
		pendingByID := make(map[types.SnowflakeID]PendingPallet, len(pending))
		for _, p := range pending {
			pendingByID[p.ID] = p
		}

		e.mu.Lock()
		if !e.active || e.generation != gen {
			e.proposing = false
			e.mu.Unlock()
			return nil
		}
		var current *PendingPallet
		for _, id := range e.selected {
			if e.processed[id] {
				continue
			}
			p, ok := pendingByID[id]
			if !ok {
				continue
			}
			current = &p
			break
		}
		if current == nil {
			if e.completed >= e.total {
				whs, n := e.whsCode, e.completed
				e.resetLocked()
				e.proposing = false
				e.mu.Unlock()
				if e.notifier != nil {
					e.notifier.WaveCompleted(whs, n)
				}
				return nil
			}
			// Nothing left to attempt but not everything confirmed: some
			// pallets vanished or were parked. Stall, do not crash.
			e.proposing = false
			e.mu.Unlock()
			return nil
		}
		pallet := *current
		// Mark before asking: a second trigger arriving while the request
		// is in flight must not pick the same pallet.
		e.processed[pallet.ID] = true
		e.mu.Unlock()

		prop, perr := e.propose(ctx, pallet.ID)

		e.mu.Lock()
		if !e.active || e.generation != gen {
			// Stale response after a cancel. Drop it.
			e.proposing = false
			e.mu.Unlock()
			return nil
		}
		switch {
		case perr == nil:
			entry := Entry{Pallet: pallet, Proposal: prop}
			replaced := false
			for i := range e.results {
				if e.results[i].Pallet.ID == pallet.ID {
					e.results[i] = entry
					replaced = true
					break
				}
			}
			if !replaced {
				e.results = append(e.results, entry)
			}
			e.proposing = false
			e.mu.Unlock()
			return nil

		case errors.Is(perr, context.Canceled) || errors.Is(perr, context.DeadlineExceeded):
			// The caller went away mid-request; unmark so the pallet can be
			// attempted again on resume.
			delete(e.processed, pallet.ID)
			e.proposing = false
			e.mu.Unlock()
			return perr

		case errors.Is(perr, ErrNoCandidatePosition):
			e.skipped[pallet.ID] = SkipNoPosition
			e.mu.Unlock()
			if e.notifier != nil {
				e.notifier.PalletParked(e.whsCode, pallet.ID, SkipNoPosition)
			}

		default:
			// Retries exhausted. Park the pallet terminally and keep the
			// wave moving; one bad pallet must not block the rest.
			e.skipped[pallet.ID] = SkipGaveUp
			e.mu.Unlock()
			if e.notifier != nil {
				e.notifier.PalletParked(e.whsCode, pallet.ID, SkipGaveUp)
			}
		}
	}
}

// propose requests a position with bounded exponential backoff on transient
// failures. ErrNoCandidatePosition passes through untouched.
func (e *Engine) propose(ctx context.Context, palletID types.SnowflakeID) (Proposal, error) {
	var lastErr error
	for attempt := 1; attempt <= e.retry.MaxAttempts; attempt++ {
		e.mu.Lock()
		e.attempts[palletID] = attempt
		e.mu.Unlock()

		prop, err := e.store.ProposePosition(ctx, palletID, e.whsCode)
		if err == nil {
			return prop, nil
		}
		if errors.Is(err, ErrNoCandidatePosition) {
			return Proposal{}, err
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Proposal{}, err
		}
		lastErr = err
		if attempt < e.retry.MaxAttempts {
			if serr := e.sleep(ctx, e.retry.backoff(attempt)); serr != nil {
				return Proposal{}, serr
			}
		}
	}
	return Proposal{}, fmt.Errorf("%w: %v", ErrRetriesExhausted, lastErr)
}

// ConfirmCurrent commits the proposal currently awaiting confirmation and
// moves the wave forward. Commit failures leave progress untouched, unpark
// the pallet for a manual re-attempt, and are surfaced, never auto-retried.
func (e *Engine) ConfirmCurrent(ctx context.Context, ev Evidence) (Snapshot, error) {
	e.mu.Lock()
	if !e.active {
		e.mu.Unlock()
		return e.Snapshot(), ErrNoActiveWave
	}
	if e.confirming {
		e.mu.Unlock()
		return e.Snapshot(), ErrConfirmInFlight
	}
	if len(e.results) == 0 {
		e.mu.Unlock()
		return e.Snapshot(), ErrNothingToConfirm
	}
	entry := e.results[len(e.results)-1]
	if ev.Method == "" {
		ev.Method = e.method
	}
	if err := ev.validate(); err != nil {
		e.mu.Unlock()
		return e.Snapshot(), err
	}
	gen := e.generation
	e.confirming = true
	e.mu.Unlock()

	err := e.store.CommitAllocation(ctx, Confirmation{
		PalletID:   entry.Pallet.ID,
		PositionID: entry.Proposal.PositionID,
		Evidence:   ev,
	})

	e.mu.Lock()
	if !e.active || e.generation != gen {
		e.confirming = false
		e.mu.Unlock()
		return e.Snapshot(), nil
	}
	if err != nil {
		delete(e.processed, entry.Pallet.ID)
		e.confirming = false
		e.mu.Unlock()
		return e.Snapshot(), &ConfirmationError{PalletID: entry.Pallet.ID, Err: err}
	}

	e.completed++
	for i := range e.results {
		if e.results[i].Pallet.ID == entry.Pallet.ID {
			e.results = append(e.results[:i], e.results[i+1:]...)
			break
		}
	}
	if e.completed >= e.total {
		whs, n := e.whsCode, e.completed
		e.resetLocked()
		e.confirming = false
		e.mu.Unlock()
		if e.notifier != nil {
			e.notifier.WaveCompleted(whs, n)
		}
		return e.Snapshot(), nil
	}
	e.confirming = false
	e.mu.Unlock()

	// Let the store settle before re-reading the pending list, so the pallet
	// just confirmed is not re-offered.
	if serr := e.sleep(ctx, e.settle); serr != nil {
		return e.Snapshot(), serr
	}
	if perr := e.processNext(ctx, gen); perr != nil {
		return e.Snapshot(), perr
	}
	return e.Snapshot(), nil
}

// CancelWave resets all wave state immediately. It does not chase in-flight
// store requests; bumping the generation makes their responses no-ops.
// Already-confirmed allocations stay final.
func (e *Engine) CancelWave() Snapshot {
	e.mu.Lock()
	e.resetLocked()
	e.mu.Unlock()
	return e.Snapshot()
}

func (e *Engine) resetLocked() {
	e.generation++
	e.active = false
	e.method = ""
	e.selected = nil
	e.processed = nil
	e.attempts = nil
	e.skipped = nil
	e.results = nil
	e.completed = 0
	e.total = 0
}

func (e *Engine) clearProposing() {
	e.mu.Lock()
	e.proposing = false
	e.mu.Unlock()
}

// Snapshot returns a copy of the operator-visible state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{
		Active:    e.active,
		Method:    e.method,
		Completed: e.completed,
		Total:     e.total,
	}
	if n := len(e.results); n > 0 {
		entry := e.results[n-1]
		snap.Current = &entry
	}
	// Selection order, so the operator sees skips in the order the wave
	// walked the pallets.
	for _, id := range e.selected {
		if reason, ok := e.skipped[id]; ok {
			snap.Skipped = append(snap.Skipped, SkippedPallet{PalletID: id, Reason: reason})
		}
	}
	return snap
}
