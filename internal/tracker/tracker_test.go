package tracker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IntegraLedger/integra-eas-worker/internal/config"
	"github.com/IntegraLedger/integra-eas-worker/internal/db/model"
	"github.com/IntegraLedger/integra-eas-worker/internal/types"
)

// inMemorySnapshotStore keeps the last saved snapshot in memory.
type inMemorySnapshotStore struct {
	mu       sync.Mutex
	snapshot *model.TrackerSnapshotDocument
	saves    int
	saveErr  error
}

func (s *inMemorySnapshotStore) SaveTrackerSnapshot(ctx context.Context, snapshot *model.TrackerSnapshotDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.snapshot = snapshot
	s.saves++
	return nil
}

func (s *inMemorySnapshotStore) GetTrackerSnapshot(ctx context.Context, instanceName string) (*model.TrackerSnapshotDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil || s.snapshot.Id != instanceName {
		return nil, nil
	}
	return s.snapshot, nil
}

func (s *inMemorySnapshotStore) lastSnapshot() *model.TrackerSnapshotDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

func testTrackerConfig() *config.TrackerConfig {
	cfg := &config.TrackerConfig{
		SweepInterval:     30 * time.Second,
		DefaultDeadlineMs: 300000,
		PurgeGracePeriod:  time.Hour,
	}
	return cfg
}

func newTestTracker(t *testing.T, store *inMemorySnapshotStore) *Tracker {
	tr := New(testTrackerConfig(), store)
	err := tr.Load(context.Background())
	require.NoError(t, err)
	t.Cleanup(tr.Stop)
	return tr
}

func pendingRequest(requestId string) *types.PendingRequest {
	return &types.PendingRequest{
		RequestId:   requestId,
		UserId:      "user-1",
		OrgDatabase: "org_acme",
		IntegraHash: "0x9a4b6d9d4b8a4a5edb19cdb0f7e0e2355b0996c1bd8a9063afddb835dbb28e15",
		TokenId:     42,
		Recipient:   "0x1d53b966b54b8f3d6f9e3a1fbb29a1b3e7be49c7",
		Chain:       types.ChainEthereum,
		ChainId:     1,
	}
}

func TestRegisterPendingAppliesDefaults(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	tr.now = func() time.Time { return time.UnixMilli(1000) }

	err := tr.RegisterPending(context.Background(), pendingRequest("req-1"))
	require.NoError(t, err)

	status, err := tr.GetStatus(context.Background(), "req-1")
	require.NoError(t, err)
	assert.Equal(t, types.Pending, status.State, "new request should start pending")
	assert.Equal(t, int64(1000), status.CreatedAt, "created at should default to the clock")
	assert.Equal(t, int64(300000), status.DeadlineMs, "deadline should default from config")
}

func TestRegisterPendingDuplicate(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)

	require.NoError(t, tr.RegisterPending(context.Background(), pendingRequest("req-1")))

	err := tr.RegisterPending(context.Background(), pendingRequest("req-1"))
	require.Error(t, err)
	assert.True(t, IsDuplicateRequestError(err), "second registration of the same id should be a duplicate error")
}

func TestRegisterPendingRollsBackOnPersistFailure(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)

	store.saveErr = errors.New("mongo down")
	err := tr.RegisterPending(context.Background(), pendingRequest("req-1"))
	require.Error(t, err)

	store.saveErr = nil
	_, err = tr.GetStatus(context.Background(), "req-1")
	assert.True(t, IsNotFoundError(err), "failed registration should not leave the request behind")
}

func TestSetTransactionHashAndResolve(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	ctx := context.Background()

	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("req-1")))

	txHash := "0x52fdfc072182654f163f5f0f9a621d729566c74d10037c4d7bbb0407d1e2c649"
	require.NoError(t, tr.SetTransactionHash(ctx, "req-1", txHash))

	resolved, err := tr.ResolveByTxHash(ctx, txHash)
	require.NoError(t, err)
	assert.Equal(t, "req-1", resolved.RequestId)
	assert.Equal(t, txHash, resolved.TxHash)
	assert.Equal(t, "org_acme", resolved.OrgDatabase, "resolution should carry the full request context")
}

func TestSetTransactionHashUnknownRequest(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)

	err := tr.SetTransactionHash(context.Background(), "req-missing", "0xabc")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestSetTransactionHashRepointsConflictingHash(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	ctx := context.Background()

	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("req-1")))
	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("req-2")))

	txHash := "0x52fdfc072182654f163f5f0f9a621d729566c74d10037c4d7bbb0407d1e2c649"
	require.NoError(t, tr.SetTransactionHash(ctx, "req-1", txHash))
	require.NoError(t, tr.SetTransactionHash(ctx, "req-2", txHash))

	resolved, err := tr.ResolveByTxHash(ctx, txHash)
	require.NoError(t, err)
	assert.Equal(t, "req-2", resolved.RequestId, "index should point at the latest binder")

	earlier, err := tr.GetStatus(ctx, "req-1")
	require.NoError(t, err)
	assert.Empty(t, earlier.TxHash, "earlier binder should lose the hash, not share it")
}

func TestRepointedHashResolvesSameAfterRestart(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	ctx := context.Background()

	// The request that sorts last in the snapshot binds first, so a rebuild
	// that trusted request order would flip the binding back.
	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("b-req")))
	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("a-req")))

	txHash := "0x52fdfc072182654f163f5f0f9a621d729566c74d10037c4d7bbb0407d1e2c649"
	require.NoError(t, tr.SetTransactionHash(ctx, "b-req", txHash))
	require.NoError(t, tr.SetTransactionHash(ctx, "a-req", txHash))

	resolved, err := tr.ResolveByTxHash(ctx, txHash)
	require.NoError(t, err)
	require.Equal(t, "a-req", resolved.RequestId)
	tr.Stop()

	restarted := newTestTracker(t, store)
	resolved, err = restarted.ResolveByTxHash(ctx, txHash)
	require.NoError(t, err)
	assert.Equal(t, "a-req", resolved.RequestId, "binding must resolve to the same request after reload")
}

func TestResolveByTxHashUnknown(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)

	_, err := tr.ResolveByTxHash(context.Background(), "0xdeadbeef")
	require.Error(t, err)
	assert.True(t, IsNotFoundError(err))
}

func TestMarkConfirmedTransitionsRequest(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	tr.now = func() time.Time { return time.UnixMilli(150000) }
	ctx := context.Background()

	request := pendingRequest("req-1")
	request.CreatedAt = 100
	require.NoError(t, tr.RegisterPending(ctx, request))

	txHash := "0x52fdfc072182654f163f5f0f9a621d729566c74d10037c4d7bbb0407d1e2c649"
	require.NoError(t, tr.SetTransactionHash(ctx, "req-1", txHash))

	uid := "0x1aa6d575fe0c4a11ceaf6673418a959a2f54b4e2734bab2c3e6e7875b82d570b"
	require.NoError(t, tr.MarkConfirmed(ctx, txHash, uid))

	status, err := tr.GetStatus(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, types.Confirmed, status.State)
	assert.Equal(t, uid, status.AttestationUID)
	assert.Equal(t, int64(150000), status.ConfirmedAt)
}

func TestMarkConfirmedUnknownHashIsNoOp(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)

	err := tr.MarkConfirmed(context.Background(), "0xdeadbeef", "0xuid")
	assert.NoError(t, err, "confirmation for an untracked hash should be swallowed")
}

func TestMarkConfirmedOnTerminalRequestIsNoOp(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	ctx := context.Background()

	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("req-1")))
	txHash := "0x52fdfc072182654f163f5f0f9a621d729566c74d10037c4d7bbb0407d1e2c649"
	require.NoError(t, tr.SetTransactionHash(ctx, "req-1", txHash))

	firstUid := "0x1aa6d575fe0c4a11ceaf6673418a959a2f54b4e2734bab2c3e6e7875b82d570b"
	require.NoError(t, tr.MarkConfirmed(ctx, txHash, firstUid))
	require.NoError(t, tr.MarkConfirmed(ctx, txHash, "0xanother"))

	status, err := tr.GetStatus(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, firstUid, status.AttestationUID, "a second confirmation should not overwrite the first")
}

func TestSweepTimeoutsTransitionsExactlyExpired(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	tr.now = func() time.Time { return time.UnixMilli(1000) }
	ctx := context.Background()

	expired := pendingRequest("req-expired")
	expired.DeadlineMs = 5000
	require.NoError(t, tr.RegisterPending(ctx, expired))

	alive := pendingRequest("req-alive")
	alive.DeadlineMs = 60000
	require.NoError(t, tr.RegisterPending(ctx, alive))

	// Both registered at t=1000; only the 5000ms deadline has elapsed.
	timedOut := tr.SweepTimeouts(ctx, time.UnixMilli(6500))
	assert.Equal(t, []string{"req-expired"}, timedOut)

	status, err := tr.GetStatus(ctx, "req-expired")
	require.NoError(t, err)
	assert.Equal(t, types.Timeout, status.State)
	assert.Contains(t, status.Error, "5000", "timeout reason should mention the deadline")

	status, err = tr.GetStatus(ctx, "req-alive")
	require.NoError(t, err)
	assert.Equal(t, types.Pending, status.State, "requests within deadline must survive the sweep")
}

func TestSweepTimeoutsSkipsTerminalRequests(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	tr.now = func() time.Time { return time.UnixMilli(1000) }
	ctx := context.Background()

	request := pendingRequest("req-1")
	request.DeadlineMs = 1000
	require.NoError(t, tr.RegisterPending(ctx, request))

	txHash := "0x52fdfc072182654f163f5f0f9a621d729566c74d10037c4d7bbb0407d1e2c649"
	require.NoError(t, tr.SetTransactionHash(ctx, "req-1", txHash))
	require.NoError(t, tr.MarkConfirmed(ctx, txHash, "0xuid"))

	timedOut := tr.SweepTimeouts(ctx, time.UnixMilli(10000))
	assert.Empty(t, timedOut, "confirmed requests must not be swept")

	status, err := tr.GetStatus(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, types.Confirmed, status.State)
}

func TestSweepGoesDormantWithoutPending(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	tr.now = func() time.Time { return time.UnixMilli(1000) }
	ctx := context.Background()

	request := pendingRequest("req-1")
	request.DeadlineMs = 1000
	require.NoError(t, tr.RegisterPending(ctx, request))

	tr.SweepTimeouts(ctx, time.UnixMilli(5000))

	tr.mu.Lock()
	armed := tr.sweepArmed
	tr.mu.Unlock()
	assert.False(t, armed, "sweep should go dormant once nothing is pending")

	// Registering again must re-arm the sweep.
	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("req-2")))
	tr.mu.Lock()
	armed = tr.sweepArmed
	tr.mu.Unlock()
	assert.True(t, armed, "registration should re-arm the sweep")
}

func TestConfirmationBeforeDeadline(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	ctx := context.Background()

	// Request registered at t=1s with the default five minute deadline, hash
	// bound right after, receipt arrives at t=150s, sweep runs at t=180s.
	tr.now = func() time.Time { return time.UnixMilli(1000) }
	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("req-1")))

	txHash := "0x52fdfc072182654f163f5f0f9a621d729566c74d10037c4d7bbb0407d1e2c649"
	require.NoError(t, tr.SetTransactionHash(ctx, "req-1", txHash))

	tr.now = func() time.Time { return time.UnixMilli(150000) }
	require.NoError(t, tr.MarkConfirmed(ctx, txHash, "0xuid"))

	timedOut := tr.SweepTimeouts(ctx, time.UnixMilli(180000))
	assert.Empty(t, timedOut)

	status, err := tr.GetStatus(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, types.Confirmed, status.State)
}

func TestGetPendingSortedByCreation(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	ctx := context.Background()

	second := pendingRequest("req-second")
	second.CreatedAt = 2000
	require.NoError(t, tr.RegisterPending(ctx, second))

	first := pendingRequest("req-first")
	first.CreatedAt = 1000
	require.NoError(t, tr.RegisterPending(ctx, first))

	pending := tr.GetPending(ctx)
	require.Len(t, pending, 2)
	assert.Equal(t, "req-first", pending[0].RequestId)
	assert.Equal(t, "req-second", pending[1].RequestId)
}

func TestLoadRebuildsIndexFromRequests(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	ctx := context.Background()

	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("req-1")))
	txHash := "0x52fdfc072182654f163f5f0f9a621d729566c74d10037c4d7bbb0407d1e2c649"
	require.NoError(t, tr.SetTransactionHash(ctx, "req-1", txHash))
	tr.Stop()

	restarted := newTestTracker(t, store)
	resolved, err := restarted.ResolveByTxHash(ctx, txHash)
	require.NoError(t, err)
	assert.Equal(t, "req-1", resolved.RequestId, "index should be rebuilt from the snapshot requests")
}

func TestPersistedSnapshotShape(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	ctx := context.Background()

	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("req-b")))
	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("req-a")))

	snapshot := store.lastSnapshot()
	require.NotNil(t, snapshot)
	assert.Equal(t, GlobalInstanceName, snapshot.Id)
	assert.Equal(t, model.TrackerSnapshotVersion, snapshot.Version)
	require.Len(t, snapshot.Requests, 2)
	assert.Equal(t, "req-a", snapshot.Requests[0].RequestId, "snapshot requests should be ordered deterministically")
	assert.Equal(t, "req-b", snapshot.Requests[1].RequestId)
}

func TestPurgeRemovesConfirmedRequest(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	ctx := context.Background()

	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("req-1")))
	txHash := "0x52fdfc072182654f163f5f0f9a621d729566c74d10037c4d7bbb0407d1e2c649"
	require.NoError(t, tr.SetTransactionHash(ctx, "req-1", txHash))
	require.NoError(t, tr.MarkConfirmed(ctx, txHash, "0xuid"))

	tr.purgeConfirmed("req-1")

	_, err := tr.GetStatus(ctx, "req-1")
	assert.True(t, IsNotFoundError(err), "purge should drop the confirmed request")
	_, err = tr.ResolveByTxHash(ctx, txHash)
	assert.True(t, IsNotFoundError(err), "purge should drop the index entry")
}

func TestPurgeSkipsPendingRequest(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	ctx := context.Background()

	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("req-1")))

	tr.purgeConfirmed("req-1")

	status, err := tr.GetStatus(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, types.Pending, status.State, "purge must never touch a non-confirmed request")
}

func TestClearDropsAllState(t *testing.T) {
	store := &inMemorySnapshotStore{}
	tr := newTestTracker(t, store)
	ctx := context.Background()

	require.NoError(t, tr.RegisterPending(ctx, pendingRequest("req-1")))
	require.NoError(t, tr.Clear(ctx))

	_, err := tr.GetStatus(ctx, "req-1")
	assert.True(t, IsNotFoundError(err))
	assert.Empty(t, tr.GetPending(ctx))
}
