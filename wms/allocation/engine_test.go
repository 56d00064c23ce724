package allocation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wms-app/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu           sync.Mutex
	pending      []PendingPallet
	listErrs     []error
	proposeErrs  map[types.SnowflakeID][]error
	noCandidate  map[types.SnowflakeID]bool
	commitErrs   map[types.SnowflakeID][]error
	committed    []Confirmation
	proposeCalls map[types.SnowflakeID]int
	nextPos      uint
}

func newFakeStore(pallets ...PendingPallet) *fakeStore {
	return &fakeStore{
		pending:      pallets,
		proposeErrs:  make(map[types.SnowflakeID][]error),
		noCandidate:  make(map[types.SnowflakeID]bool),
		commitErrs:   make(map[types.SnowflakeID][]error),
		proposeCalls: make(map[types.SnowflakeID]int),
	}
}

func (s *fakeStore) ListPendingPallets(ctx context.Context, whsCode string) ([]PendingPallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.listErrs) > 0 {
		err := s.listErrs[0]
		s.listErrs = s.listErrs[1:]
		return nil, err
	}
	out := make([]PendingPallet, len(s.pending))
	copy(out, s.pending)
	return out, nil
}

func (s *fakeStore) ProposePosition(ctx context.Context, palletID types.SnowflakeID, whsCode string) (Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposeCalls[palletID]++
	if s.noCandidate[palletID] {
		return Proposal{}, ErrNoCandidatePosition
	}
	if errs := s.proposeErrs[palletID]; len(errs) > 0 {
		s.proposeErrs[palletID] = errs[1:]
		return Proposal{}, errs[0]
	}
	s.nextPos++
	return Proposal{
		PalletID:     palletID,
		PositionID:   s.nextPos,
		PositionCode: fmt.Sprintf("R01-M01-A%02d", s.nextPos),
	}, nil
}

func (s *fakeStore) CommitAllocation(ctx context.Context, c Confirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if errs := s.commitErrs[c.PalletID]; len(errs) > 0 {
		s.commitErrs[c.PalletID] = errs[1:]
		return errs[0]
	}
	s.committed = append(s.committed, c)
	for i, p := range s.pending {
		if p.ID == c.PalletID {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			break
		}
	}
	return nil
}

type parkedCall struct {
	palletID types.SnowflakeID
	reason   string
}

type fakeNotifier struct {
	mu        sync.Mutex
	completed []int
	parked    []parkedCall
}

func (n *fakeNotifier) WaveCompleted(whsCode string, completed int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.completed = append(n.completed, completed)
}

func (n *fakeNotifier) PalletParked(whsCode string, palletID types.SnowflakeID, reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.parked = append(n.parked, parkedCall{palletID: palletID, reason: reason})
}

type sleepSpy struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (s *sleepSpy) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.durations = append(s.durations, d)
	return nil
}

func pallet(id int64, code string) PendingPallet {
	return PendingPallet{ID: types.SnowflakeID(id), PalletCode: code, WhsCode: "WH01"}
}

func newTestEngine(fs *fakeStore, fn *fakeNotifier, spy *sleepSpy) *Engine {
	return NewEngine(Config{
		Store:       fs,
		WhsCode:     "WH01",
		Retry:       RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: 4 * time.Millisecond},
		SettleDelay: time.Millisecond,
		Notifier:    fn,
		Sleep:       spy.sleep,
	})
}

func TestStartWaveProposesInSelectionOrder(t *testing.T) {
	p1, p2 := pallet(1, "PLT-000001"), pallet(2, "PLT-000002")
	fs := newFakeStore(p1, p2)
	e := newTestEngine(fs, &fakeNotifier{}, &sleepSpy{})

	snap, err := e.StartWave(context.Background(), []types.SnowflakeID{p2.ID, p1.ID}, MethodManual)
	require.NoError(t, err)

	assert.True(t, snap.Active)
	assert.Equal(t, MethodManual, snap.Method)
	assert.Equal(t, 2, snap.Total)
	assert.Equal(t, 0, snap.Completed)
	require.NotNil(t, snap.Current)
	assert.Equal(t, p2.ID, snap.Current.Pallet.ID)
	assert.NotEmpty(t, snap.Current.Proposal.PositionCode)
}

func TestWaveCompletesAfterAllConfirms(t *testing.T) {
	p1, p2, p3 := pallet(1, "PLT-000001"), pallet(2, "PLT-000002"), pallet(3, "PLT-000003")
	fs := newFakeStore(p1, p2, p3)
	fn := &fakeNotifier{}
	spy := &sleepSpy{}
	e := newTestEngine(fs, fn, spy)
	ctx := context.Background()

	_, err := e.StartWave(ctx, []types.SnowflakeID{p1.ID, p2.ID, p3.ID}, MethodManual)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		snap, cerr := e.ConfirmCurrent(ctx, Evidence{Method: MethodManual})
		require.NoError(t, cerr)
		if i < 2 {
			assert.True(t, snap.Active)
			assert.Equal(t, i+1, snap.Completed)
		}
	}

	snap := e.Snapshot()
	assert.False(t, snap.Active)
	assert.Equal(t, 0, snap.Completed)
	assert.Equal(t, 0, snap.Total)
	assert.Nil(t, snap.Current)

	require.Len(t, fs.committed, 3)
	assert.Equal(t, p1.ID, fs.committed[0].PalletID)
	assert.Equal(t, p2.ID, fs.committed[1].PalletID)
	assert.Equal(t, p3.ID, fs.committed[2].PalletID)
	assert.NotEqual(t, fs.committed[0].PositionID, fs.committed[1].PositionID)

	assert.Equal(t, []int{3}, fn.completed)
	// A settle delay between confirms, none after the last.
	assert.Equal(t, []time.Duration{time.Millisecond, time.Millisecond}, spy.durations)
}

func TestStartWaveRejectsConcurrentWave(t *testing.T) {
	p1 := pallet(1, "PLT-000001")
	fs := newFakeStore(p1)
	e := newTestEngine(fs, &fakeNotifier{}, &sleepSpy{})
	ctx := context.Background()

	_, err := e.StartWave(ctx, []types.SnowflakeID{p1.ID}, MethodManual)
	require.NoError(t, err)

	_, err = e.StartWave(ctx, []types.SnowflakeID{p1.ID}, MethodManual)
	assert.ErrorIs(t, err, ErrWaveInProgress)
	assert.Equal(t, 1, e.Snapshot().Total)
}

func TestStartWaveDeduplicatesSelection(t *testing.T) {
	p1, p2 := pallet(1, "PLT-000001"), pallet(2, "PLT-000002")
	fs := newFakeStore(p1, p2)
	e := newTestEngine(fs, &fakeNotifier{}, &sleepSpy{})

	snap, err := e.StartWave(context.Background(), []types.SnowflakeID{p1.ID, p2.ID, p1.ID}, MethodManual)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Total)
}

func TestStartWaveGuards(t *testing.T) {
	fs := newFakeStore(pallet(1, "PLT-000001"))
	e := newTestEngine(fs, &fakeNotifier{}, &sleepSpy{})
	ctx := context.Background()

	_, err := e.StartWave(ctx, nil, MethodManual)
	assert.ErrorIs(t, err, ErrEmptySelection)

	_, err = e.StartWave(ctx, []types.SnowflakeID{1}, Method("voice"))
	assert.ErrorIs(t, err, ErrUnknownMethod)

	assert.False(t, e.Snapshot().Active)
}

func TestNoCandidateParksPalletAndContinues(t *testing.T) {
	p1, p2 := pallet(1, "PLT-000001"), pallet(2, "PLT-000002")
	fs := newFakeStore(p1, p2)
	fs.noCandidate[p1.ID] = true
	fn := &fakeNotifier{}
	e := newTestEngine(fs, fn, &sleepSpy{})
	ctx := context.Background()

	snap, err := e.StartWave(ctx, []types.SnowflakeID{p1.ID, p2.ID}, MethodManual)
	require.NoError(t, err)

	require.NotNil(t, snap.Current)
	assert.Equal(t, p2.ID, snap.Current.Pallet.ID)
	require.Len(t, snap.Skipped, 1)
	assert.Equal(t, p1.ID, snap.Skipped[0].PalletID)
	assert.Equal(t, SkipNoPosition, snap.Skipped[0].Reason)
	require.Len(t, fn.parked, 1)
	assert.Equal(t, parkedCall{palletID: p1.ID, reason: SkipNoPosition}, fn.parked[0])

	// The skipped pallet is terminal for this wave, so confirming the rest
	// leaves the wave open for the operator to review and cancel.
	snap, err = e.ConfirmCurrent(ctx, Evidence{Method: MethodManual})
	require.NoError(t, err)
	assert.True(t, snap.Active)
	assert.Equal(t, 1, snap.Completed)
	assert.Nil(t, snap.Current)
	assert.Equal(t, 1, fs.proposeCalls[p1.ID])
}

func TestTransientFailuresRetryWithBackoff(t *testing.T) {
	p1 := pallet(1, "PLT-000001")
	fs := newFakeStore(p1)
	transient := errors.New("deadlock victim")
	fs.proposeErrs[p1.ID] = []error{transient, transient}
	spy := &sleepSpy{}
	e := newTestEngine(fs, &fakeNotifier{}, spy)

	snap, err := e.StartWave(context.Background(), []types.SnowflakeID{p1.ID}, MethodManual)
	require.NoError(t, err)

	require.NotNil(t, snap.Current)
	assert.Equal(t, p1.ID, snap.Current.Pallet.ID)
	assert.Equal(t, 3, fs.proposeCalls[p1.ID])
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond}, spy.durations)
}

func TestRetriesExhaustedSkipsPallet(t *testing.T) {
	p1, p2 := pallet(1, "PLT-000001"), pallet(2, "PLT-000002")
	fs := newFakeStore(p1, p2)
	transient := errors.New("timeout")
	fs.proposeErrs[p1.ID] = []error{transient, transient, transient}
	fn := &fakeNotifier{}
	e := newTestEngine(fs, fn, &sleepSpy{})

	snap, err := e.StartWave(context.Background(), []types.SnowflakeID{p1.ID, p2.ID}, MethodManual)
	require.NoError(t, err)

	assert.Equal(t, 3, fs.proposeCalls[p1.ID])
	require.NotNil(t, snap.Current)
	assert.Equal(t, p2.ID, snap.Current.Pallet.ID)
	require.Len(t, snap.Skipped, 1)
	assert.Equal(t, SkipGaveUp, snap.Skipped[0].Reason)
	require.Len(t, fn.parked, 1)
	assert.Equal(t, SkipGaveUp, fn.parked[0].reason)
}

func TestConfirmFailureSurfacedNotRetried(t *testing.T) {
	p1 := pallet(1, "PLT-000001")
	fs := newFakeStore(p1)
	fs.commitErrs[p1.ID] = []error{errors.New("position taken")}
	e := newTestEngine(fs, &fakeNotifier{}, &sleepSpy{})
	ctx := context.Background()

	_, err := e.StartWave(ctx, []types.SnowflakeID{p1.ID}, MethodManual)
	require.NoError(t, err)

	snap, err := e.ConfirmCurrent(ctx, Evidence{Method: MethodManual})
	require.Error(t, err)
	var ce *ConfirmationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, p1.ID, ce.PalletID)

	// Progress untouched, the proposal still awaits a manual re-attempt.
	assert.True(t, snap.Active)
	assert.Equal(t, 0, snap.Completed)
	require.NotNil(t, snap.Current)
	assert.Equal(t, p1.ID, snap.Current.Pallet.ID)
	assert.Empty(t, fs.committed)

	snap, err = e.ConfirmCurrent(ctx, Evidence{Method: MethodManual})
	require.NoError(t, err)
	assert.False(t, snap.Active)
	require.Len(t, fs.committed, 1)
}

func TestConfirmScannerRequiresBothCodes(t *testing.T) {
	p1 := pallet(1, "PLT-000001")
	fs := newFakeStore(p1)
	e := newTestEngine(fs, &fakeNotifier{}, &sleepSpy{})
	ctx := context.Background()

	_, err := e.StartWave(ctx, []types.SnowflakeID{p1.ID}, MethodScanner)
	require.NoError(t, err)

	// Empty evidence inherits the wave method and fails validation.
	_, err = e.ConfirmCurrent(ctx, Evidence{})
	assert.ErrorIs(t, err, ErrScanEvidence)

	_, err = e.ConfirmCurrent(ctx, Evidence{ScannedPalletCode: "PLT-000001"})
	assert.ErrorIs(t, err, ErrScanEvidence)

	snap, err := e.ConfirmCurrent(ctx, Evidence{
		ScannedPalletCode:   "PLT-000001",
		ScannedPositionCode: "R01-M01-A01",
	})
	require.NoError(t, err)
	assert.False(t, snap.Active)
	require.Len(t, fs.committed, 1)
	assert.Equal(t, MethodScanner, fs.committed[0].Method)
}

func TestConfirmGuards(t *testing.T) {
	p1 := pallet(1, "PLT-000001")
	fs := newFakeStore(p1)
	fs.noCandidate[p1.ID] = true
	e := newTestEngine(fs, &fakeNotifier{}, &sleepSpy{})
	ctx := context.Background()

	_, err := e.ConfirmCurrent(ctx, Evidence{Method: MethodManual})
	assert.ErrorIs(t, err, ErrNoActiveWave)

	_, err = e.StartWave(ctx, []types.SnowflakeID{p1.ID}, MethodManual)
	require.NoError(t, err)

	// The only pallet was skipped, so nothing is awaiting confirmation.
	_, err = e.ConfirmCurrent(ctx, Evidence{Method: MethodManual})
	assert.ErrorIs(t, err, ErrNothingToConfirm)
}

func TestCancelWaveResetsEverything(t *testing.T) {
	p1, p2 := pallet(1, "PLT-000001"), pallet(2, "PLT-000002")
	fs := newFakeStore(p1, p2)
	e := newTestEngine(fs, &fakeNotifier{}, &sleepSpy{})
	ctx := context.Background()

	_, err := e.StartWave(ctx, []types.SnowflakeID{p1.ID, p2.ID}, MethodManual)
	require.NoError(t, err)
	_, err = e.ConfirmCurrent(ctx, Evidence{Method: MethodManual})
	require.NoError(t, err)

	snap := e.CancelWave()
	assert.False(t, snap.Active)
	assert.Equal(t, 0, snap.Completed)
	assert.Equal(t, 0, snap.Total)
	assert.Nil(t, snap.Current)
	assert.Empty(t, snap.Skipped)

	// Already-confirmed allocations stay final.
	require.Len(t, fs.committed, 1)

	_, err = e.ConfirmCurrent(ctx, Evidence{Method: MethodManual})
	assert.ErrorIs(t, err, ErrNoActiveWave)

	// The engine is immediately reusable.
	snap, err = e.StartWave(ctx, []types.SnowflakeID{p2.ID}, MethodManual)
	require.NoError(t, err)
	assert.True(t, snap.Active)
	assert.Equal(t, 1, snap.Total)
}

func TestVanishedPalletStallsWave(t *testing.T) {
	p1 := pallet(1, "PLT-000001")
	ghost := types.SnowflakeID(99)
	fs := newFakeStore(p1)
	fn := &fakeNotifier{}
	e := newTestEngine(fs, fn, &sleepSpy{})
	ctx := context.Background()

	_, err := e.StartWave(ctx, []types.SnowflakeID{p1.ID, ghost}, MethodManual)
	require.NoError(t, err)

	snap, err := e.ConfirmCurrent(ctx, Evidence{Method: MethodManual})
	require.NoError(t, err)

	// The ghost pallet is no longer pending, so the wave waits on the
	// operator instead of completing or crashing.
	assert.True(t, snap.Active)
	assert.Equal(t, 1, snap.Completed)
	assert.Equal(t, 2, snap.Total)
	assert.Nil(t, snap.Current)
	assert.Empty(t, fn.completed)
	assert.Zero(t, fs.proposeCalls[ghost])

	snap, err = e.Resume(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Active)
	assert.Nil(t, snap.Current)
}

func TestResumeWithoutWave(t *testing.T) {
	e := newTestEngine(newFakeStore(), &fakeNotifier{}, &sleepSpy{})
	_, err := e.Resume(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveWave)
}

func TestResumeAfterPendingListFailure(t *testing.T) {
	p1 := pallet(1, "PLT-000001")
	fs := newFakeStore(p1)
	fs.listErrs = []error{errors.New("connection reset")}
	e := newTestEngine(fs, &fakeNotifier{}, &sleepSpy{})
	ctx := context.Background()

	_, err := e.StartWave(ctx, []types.SnowflakeID{p1.ID}, MethodManual)
	require.Error(t, err)
	assert.True(t, e.Snapshot().Active)

	snap, err := e.Resume(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap.Current)
	assert.Equal(t, p1.ID, snap.Current.Pallet.ID)
}

func TestStartSingle(t *testing.T) {
	p1 := pallet(1, "PLT-000001")
	fs := newFakeStore(p1)
	fn := &fakeNotifier{}
	e := newTestEngine(fs, fn, &sleepSpy{})
	ctx := context.Background()

	snap, err := e.StartSingle(ctx, p1.ID, MethodManual)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Total)
	require.NotNil(t, snap.Current)

	snap, err = e.ConfirmCurrent(ctx, Evidence{})
	require.NoError(t, err)
	assert.False(t, snap.Active)
	require.Len(t, fs.committed, 1)
	assert.Equal(t, MethodManual, fs.committed[0].Method)
	assert.Equal(t, []int{1}, fn.completed)
}

func TestProposingFlagNeverOutlivesProposal(t *testing.T) {
	// A confirm arriving the instant a proposal lands must find the
	// proposing flag already cleared, or its follow-up propose round is
	// silently dropped and the wave hangs until a manual resume. The flag
	// and the result are updated in one critical section; an observer
	// must never see both at once.
	p1 := pallet(1, "PLT-000001")
	fs := newFakeStore(p1)
	e := newTestEngine(fs, &fakeNotifier{}, &sleepSpy{})
	ctx := context.Background()

	done := make(chan struct{})
	var violated atomic.Bool
	go func() {
		for {
			select {
			case <-done:
				return
			default:
			}
			e.mu.Lock()
			if len(e.results) > 0 && e.proposing {
				violated.Store(true)
			}
			e.mu.Unlock()
		}
	}()

	for i := 0; i < 200; i++ {
		_, err := e.StartWave(ctx, []types.SnowflakeID{p1.ID}, MethodManual)
		require.NoError(t, err)
		e.CancelWave()
	}
	close(done)

	assert.False(t, violated.Load())
}

func TestSnapshotSkippedFollowsSelectionOrder(t *testing.T) {
	p1, p2, p3 := pallet(1, "PLT-000001"), pallet(2, "PLT-000002"), pallet(3, "PLT-000003")
	fs := newFakeStore(p1, p2, p3)
	fs.noCandidate[p1.ID] = true
	fs.noCandidate[p3.ID] = true
	e := newTestEngine(fs, &fakeNotifier{}, &sleepSpy{})

	snap, err := e.StartWave(context.Background(), []types.SnowflakeID{p3.ID, p1.ID, p2.ID}, MethodManual)
	require.NoError(t, err)

	require.NotNil(t, snap.Current)
	assert.Equal(t, p2.ID, snap.Current.Pallet.ID)

	want := []SkippedPallet{
		{PalletID: p3.ID, Reason: SkipNoPosition},
		{PalletID: p1.ID, Reason: SkipNoPosition},
	}
	require.Equal(t, want, snap.Skipped)
	// Stable across calls.
	assert.Equal(t, want, e.Snapshot().Skipped)
}

func TestRetryPolicyBackoff(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second, MaxDelay: 5 * time.Second}

	assert.Equal(t, time.Second, p.backoff(1))
	assert.Equal(t, 2*time.Second, p.backoff(2))
	assert.Equal(t, 4*time.Second, p.backoff(3))
	assert.Equal(t, 5*time.Second, p.backoff(4))
	assert.Equal(t, 5*time.Second, p.backoff(5))
}
