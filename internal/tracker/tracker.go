package tracker

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/IntegraLedger/integra-eas-worker/internal/config"
	"github.com/IntegraLedger/integra-eas-worker/internal/db/model"
	"github.com/IntegraLedger/integra-eas-worker/internal/observability/metrics"
	"github.com/IntegraLedger/integra-eas-worker/internal/types"
)

// GlobalInstanceName identifies the single tracker instance per deployment.
const GlobalInstanceName = "global"

// SnapshotStore is the durable storage for the tracker's full state. Save is
// called after every mutation, Load once on startup. Load returns (nil, nil)
// when no snapshot exists yet.
type SnapshotStore interface {
	SaveTrackerSnapshot(ctx context.Context, snapshot *model.TrackerSnapshotDocument) error
	GetTrackerSnapshot(ctx context.Context, instanceName string) (*model.TrackerSnapshotDocument, error)
}

// Tracker keeps the pending attestation requests of this deployment and the
// transaction-hash index over them. All mutations, the recurring timeout
// sweep and the deferred purge included, are serialized behind one mutex so
// the table and the index are never observed half-updated.
type Tracker struct {
	cfg   *config.TrackerConfig
	store SnapshotStore

	mu         sync.Mutex
	loaded     bool
	requests   map[string]*types.PendingRequest
	txIndex    map[string]string // txHash -> requestId
	sweepTimer *time.Timer
	sweepArmed bool

	// now is replaceable in tests
	now func() time.Time
}

func New(cfg *config.TrackerConfig, store SnapshotStore) *Tracker {
	return &Tracker{
		cfg:      cfg,
		store:    store,
		requests: make(map[string]*types.PendingRequest),
		txIndex:  make(map[string]string),
		now:      time.Now,
	}
}

// Load restores the tracker state from the snapshot store. It must complete
// before any other operation is served. The transaction-hash index is rebuilt
// from the request table; the persisted index copy is never trusted.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	snapshot, err := t.store.GetTrackerSnapshot(ctx, GlobalInstanceName)
	if err != nil {
		return err
	}

	t.requests = make(map[string]*types.PendingRequest)
	t.txIndex = make(map[string]string)
	if snapshot != nil {
		for i := range snapshot.Requests {
			request := snapshot.Requests[i]
			t.requests[request.RequestId] = &request
			if request.TxHash != "" {
				t.txIndex[request.TxHash] = request.RequestId
			}
		}
	}
	t.loaded = true

	if t.hasPendingLocked() {
		t.armSweepLocked()
	}
	metrics.RecordTrackerPendingCount(t.pendingCountLocked())

	log.Ctx(ctx).Info().
		Int("requests", len(t.requests)).
		Int("txIndexSize", len(t.txIndex)).
		Msg("Tracker state loaded from snapshot")
	return nil
}

// RegisterPending inserts a new pending request. It returns a
// DuplicateRequestError if the request id is already registered.
func (t *Tracker) RegisterPending(ctx context.Context, request *types.PendingRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.requests[request.RequestId]; exists {
		return &DuplicateRequestError{
			Key:     request.RequestId,
			Message: "Attestation request already registered",
		}
	}

	record := *request
	record.State = types.Pending
	if record.CreatedAt == 0 {
		record.CreatedAt = t.now().UnixMilli()
	}
	if record.DeadlineMs == 0 {
		record.DeadlineMs = t.cfg.DefaultDeadlineMs
	}

	t.requests[record.RequestId] = &record
	if err := t.persistLocked(ctx); err != nil {
		delete(t.requests, record.RequestId)
		return err
	}

	t.armSweepLocked()
	metrics.RecordTrackerPendingCount(t.pendingCountLocked())

	log.Ctx(ctx).Info().
		Str("requestId", record.RequestId).
		Str("userId", record.UserId).
		Str("chain", record.Chain.ToString()).
		Msg("Registered pending attestation request")
	return nil
}

// SetTransactionHash binds the submitted transaction hash to a registered
// request and updates the index. When the hash is already bound to a different
// request, the index is repointed at the latest caller and the earlier request
// loses its hash; the two requests are never merged.
func (t *Tracker) SetTransactionHash(ctx context.Context, requestId, txHash string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	request, exists := t.requests[requestId]
	if !exists {
		return &NotFoundError{
			Key:     requestId,
			Message: fmt.Sprintf("Attestation request %s not found", requestId),
		}
	}

	if previous, bound := t.txIndex[txHash]; bound && previous != requestId {
		log.Ctx(ctx).Warn().
			Str("txHash", txHash).
			Str("previousRequestId", previous).
			Str("requestId", requestId).
			Msg("Transaction hash already bound to a different request, repointing index")
		// The snapshot index is rebuilt from the requests on load, so the
		// stale binding must not survive on the earlier request.
		if previousRequest, ok := t.requests[previous]; ok {
			previousRequest.TxHash = ""
		}
	}

	request.TxHash = txHash
	t.txIndex[txHash] = requestId
	if err := t.persistLocked(ctx); err != nil {
		return err
	}

	log.Ctx(ctx).Info().
		Str("requestId", requestId).
		Str("txHash", txHash).
		Msg("Transaction hash set")
	return nil
}

// ResolveByTxHash returns a copy of the request context bound to the given
// transaction hash. This is the single lookup path the webhook pipeline uses.
func (t *Tracker) ResolveByTxHash(ctx context.Context, txHash string) (*types.PendingRequest, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	requestId, bound := t.txIndex[txHash]
	if !bound {
		return nil, &NotFoundError{
			Key:     txHash,
			Message: fmt.Sprintf("No request found for transaction hash %s", txHash),
		}
	}

	request, exists := t.requests[requestId]
	if !exists {
		return nil, &NotFoundError{
			Key:     txHash,
			Message: fmt.Sprintf("No request found for transaction hash %s", txHash),
		}
	}

	record := *request
	return &record, nil
}

// MarkConfirmed transitions the request bound to txHash into the confirmed
// state and schedules its purge after the grace period. An unresolved hash or
// an already-terminal request is a no-op with a warning, not an error.
func (t *Tracker) MarkConfirmed(ctx context.Context, txHash, attestationUID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	requestId, bound := t.txIndex[txHash]
	if !bound {
		log.Ctx(ctx).Warn().Str("txHash", txHash).Msg("No request found for transaction hash, skipping confirmation")
		return nil
	}

	request, exists := t.requests[requestId]
	if !exists {
		log.Ctx(ctx).Warn().Str("requestId", requestId).Msg("No request found for request id, skipping confirmation")
		return nil
	}

	if request.State.IsTerminal() {
		log.Ctx(ctx).Warn().
			Str("requestId", requestId).
			Str("state", request.State.ToString()).
			Msg("Request already in a terminal state, skipping confirmation")
		return nil
	}

	request.State = types.Confirmed
	request.AttestationUID = attestationUID
	request.ConfirmedAt = t.now().UnixMilli()
	if err := t.persistLocked(ctx); err != nil {
		return err
	}

	metrics.RecordTrackerConfirmation()
	metrics.RecordTrackerPendingCount(t.pendingCountLocked())

	// Keep the confirmed record around for a grace window, then purge it.
	// The purge deadline is not durable: a restart before it fires extends
	// retention until the record is purged by a later confirmation cycle.
	time.AfterFunc(t.cfg.PurgeGracePeriod, func() {
		t.purgeConfirmed(requestId)
	})

	log.Ctx(ctx).Info().
		Str("requestId", requestId).
		Str("attestationUID", attestationUID).
		Str("userId", request.UserId).
		Msg("Attestation request confirmed")
	return nil
}

// GetStatus returns a copy of the request with the given id.
func (t *Tracker) GetStatus(ctx context.Context, requestId string) (*types.PendingRequest, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	request, exists := t.requests[requestId]
	if !exists {
		return nil, &NotFoundError{
			Key:     requestId,
			Message: fmt.Sprintf("Attestation request %s not found", requestId),
		}
	}

	record := *request
	return &record, nil
}

// GetPending lists all requests still in the pending state.
func (t *Tracker) GetPending(ctx context.Context) []types.PendingRequest {
	t.mu.Lock()
	defer t.mu.Unlock()

	var pending []types.PendingRequest
	for _, request := range t.requests {
		if request.State == types.Pending {
			pending = append(pending, *request)
		}
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt < pending[j].CreatedAt
	})
	return pending
}

// SweepTimeouts transitions every pending request whose deadline elapsed
// before now into the timeout state and returns the transitioned ids. The
// next sweep is re-armed only while pending requests remain; otherwise the
// sweep goes dormant until the next RegisterPending.
func (t *Tracker) SweepTimeouts(ctx context.Context, now time.Time) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	// A manual sweep supersedes any scheduled one.
	if t.sweepTimer != nil {
		t.sweepTimer.Stop()
		t.sweepTimer = nil
	}

	nowMs := now.UnixMilli()
	var timedOut []string
	for requestId, request := range t.requests {
		if request.State != types.Pending {
			continue
		}
		if nowMs-request.CreatedAt > request.DeadlineMs {
			request.State = types.Timeout
			request.Error = fmt.Sprintf("Timeout after %dms", request.DeadlineMs)
			timedOut = append(timedOut, requestId)
		}
	}
	sort.Strings(timedOut)

	if len(timedOut) > 0 {
		if err := t.persistLocked(ctx); err != nil {
			log.Ctx(ctx).Error().Err(err).Msg("Failed to persist tracker snapshot after timeout sweep")
		}
		metrics.RecordTrackerTimeouts(len(timedOut))
		log.Ctx(ctx).Warn().
			Strs("requestIds", timedOut).
			Msg("Attestation requests timed out")
	}

	t.sweepArmed = false
	if t.hasPendingLocked() {
		t.armSweepLocked()
	}
	metrics.RecordTrackerPendingCount(t.pendingCountLocked())

	return timedOut
}

// Clear drops all tracked state. Intended for tests and manual recovery.
func (t *Tracker) Clear(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.requests = make(map[string]*types.PendingRequest)
	t.txIndex = make(map[string]string)
	if err := t.persistLocked(ctx); err != nil {
		return err
	}

	metrics.RecordTrackerPendingCount(0)
	log.Ctx(ctx).Info().Msg("Tracker state cleared")
	return nil
}

// Stop cancels the recurring sweep timer.
func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sweepTimer != nil {
		t.sweepTimer.Stop()
		t.sweepTimer = nil
	}
	t.sweepArmed = false
}

// purgeConfirmed removes a confirmed request after the grace period. A
// request that regained pending state cannot exist (the state machine has no
// backward transitions), so only the confirmed check is needed.
func (t *Tracker) purgeConfirmed(requestId string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	request, exists := t.requests[requestId]
	if !exists || request.State != types.Confirmed {
		return
	}

	delete(t.requests, requestId)
	if request.TxHash != "" {
		delete(t.txIndex, request.TxHash)
	}

	ctx := context.Background()
	if err := t.persistLocked(ctx); err != nil {
		log.Error().Err(err).Str("requestId", requestId).Msg("Failed to persist tracker snapshot after purge")
		return
	}

	log.Debug().Str("requestId", requestId).Msg("Purged confirmed attestation request")
}

// armSweepLocked schedules the next timeout sweep if none is scheduled.
// Callers must hold t.mu.
func (t *Tracker) armSweepLocked() {
	if t.sweepArmed {
		return
	}

	t.sweepArmed = true
	t.sweepTimer = time.AfterFunc(t.cfg.SweepInterval, func() {
		t.SweepTimeouts(context.Background(), t.now())
	})
}

func (t *Tracker) hasPendingLocked() bool {
	for _, request := range t.requests {
		if request.State == types.Pending {
			return true
		}
	}
	return false
}

func (t *Tracker) pendingCountLocked() int {
	count := 0
	for _, request := range t.requests {
		if request.State == types.Pending {
			count++
		}
	}
	return count
}

// persistLocked writes the full state through to the snapshot store. The
// operation that triggered the mutation is not complete until this returns.
// Callers must hold t.mu.
func (t *Tracker) persistLocked(ctx context.Context) error {
	snapshot := &model.TrackerSnapshotDocument{
		Id:        GlobalInstanceName,
		Version:   model.TrackerSnapshotVersion,
		UpdatedAt: t.now().UnixMilli(),
		Requests:  make([]types.PendingRequest, 0, len(t.requests)),
		TxIndex:   make([]model.TxIndexEntry, 0, len(t.txIndex)),
	}

	for _, request := range t.requests {
		snapshot.Requests = append(snapshot.Requests, *request)
	}
	sort.Slice(snapshot.Requests, func(i, j int) bool {
		return snapshot.Requests[i].RequestId < snapshot.Requests[j].RequestId
	})

	for txHash, requestId := range t.txIndex {
		snapshot.TxIndex = append(snapshot.TxIndex, model.TxIndexEntry{TxHash: txHash, RequestId: requestId})
	}
	sort.Slice(snapshot.TxIndex, func(i, j int) bool {
		return snapshot.TxIndex[i].TxHash < snapshot.TxIndex[j].TxHash
	})

	return t.store.SaveTrackerSnapshot(ctx, snapshot)
}
