package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rotisserie/eris"
	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"

	"visitd/internal/documents"
	"visitd/internal/models"
	"visitd/internal/providers"
	"visitd/internal/remote"
	"visitd/internal/structures"
)

const (
	SyncStateDisabled = "disabled"
	SyncStateIdle     = "idle"
	SyncStateOK       = "ok"
	SyncStateFailed   = "failed"
)

type SyncStatus struct {
	State       string     `json:"state"`
	Running     bool       `json:"running"`
	ErrorKind   string     `json:"errorKind,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
	LastAttempt *time.Time `json:"lastAttempt,omitempty"`
	LastSuccess *time.Time `json:"lastSuccess,omitempty"`
	Runs        int64      `json:"runs"`
	Conflicts   int64      `json:"conflicts"`
}

type SyncServiceInterface interface {
	Sync(ctx context.Context) (SyncStatus, error)
	Status() SyncStatus
	Enabled() bool
	Stop()
}

// SyncService runs fetch, merge and push against the remote store. Network
// calls happen outside the visit worker; only the merge itself is enqueued.
// Concurrent Sync calls share one run.
type SyncService struct {
	store   remote.Store
	visits  VisitServiceInterface
	logger  providers.Logger
	metrics providers.MetricsProviderInterface
	conf    structures.SyncConfig
	now     func() time.Time

	group     singleflight.Group
	running   atomic.Bool
	runs      atomic.Int64
	conflicts atomic.Int64

	mu     sync.RWMutex
	status SyncStatus

	base   context.Context
	cancel context.CancelFunc
}

func NewSyncService(store remote.Store, visits VisitServiceInterface, conf *structures.Config, logger providers.Logger, metrics providers.MetricsProviderInterface) SyncServiceInterface {
	sc := conf.Sync
	if sc.MaxAttempts <= 0 {
		sc.MaxAttempts = 5
	}
	if sc.InitialDelay <= 0 {
		sc.InitialDelay = 500 * time.Millisecond
	}
	if sc.MaxDelay <= 0 {
		sc.MaxDelay = 30 * time.Second
	}
	if sc.MaxConflicts <= 0 {
		sc.MaxConflicts = 3
	}
	if sc.Timeout <= 0 {
		sc.Timeout = 10 * time.Second
	}

	state := SyncStateIdle
	if store == nil {
		state = SyncStateDisabled
	}
	base, cancel := context.WithCancel(context.Background())
	return &SyncService{
		store:   store,
		visits:  visits,
		logger:  logger,
		metrics: metrics,
		conf:    sc,
		now:     time.Now,
		status:  SyncStatus{State: state},
		base:    base,
		cancel:  cancel,
	}
}

func (s *SyncService) Enabled() bool {
	return s.store != nil
}

func (s *SyncService) Status() SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.status
	st.Running = s.running.Load()
	st.Runs = s.runs.Load()
	st.Conflicts = s.conflicts.Load()
	return st
}

// Stop abandons any sync in flight. Local state is untouched by an abandoned run.
func (s *SyncService) Stop() {
	s.cancel()
}

// Sync joins the run in flight or starts one. Cancelling ctx stops waiting
// but does not cancel a run other callers share.
func (s *SyncService) Sync(ctx context.Context) (SyncStatus, error) {
	if !s.Enabled() {
		return s.Status(), ErrSyncDisabled
	}
	ch := s.group.DoChan("sync", func() (interface{}, error) {
		return nil, s.run(s.base)
	})
	select {
	case res := <-ch:
		return s.Status(), res.Err
	case <-ctx.Done():
		return s.Status(), ctx.Err()
	}
}

func (s *SyncService) run(ctx context.Context) error {
	s.running.Store(true)
	defer s.running.Store(false)
	s.runs.Inc()

	start := s.now()
	s.mu.Lock()
	attempt := models.NormalizeTime(start)
	s.status.LastAttempt = &attempt
	s.mu.Unlock()

	err := s.reconcile(ctx)
	s.metrics.ObserveSyncDuration(time.Since(start))

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.status.State = SyncStateFailed
		s.status.ErrorKind = errorKind(err)
		s.status.LastError = err.Error()
		s.metrics.IncSyncTotal(s.status.ErrorKind)
		s.logger.Errorf(providers.TypeSync, "Sync failed (%s): %s", s.status.ErrorKind, err)
		return err
	}
	done := models.NormalizeTime(s.now())
	s.status.State = SyncStateOK
	s.status.ErrorKind = ""
	s.status.LastError = ""
	s.status.LastSuccess = &done
	s.metrics.IncSyncTotal(SyncStateOK)
	s.logger.Infof(providers.TypeSync, "Sync finished in %s", time.Since(start))
	return nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrMalformedRemoteDocument):
		return "malformed_remote_document"
	case errors.Is(err, ErrConcurrentMergeConflict):
		return "concurrent_merge_conflict"
	case errors.Is(err, ErrRemoteUnavailable):
		return "remote_unavailable"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}

func (s *SyncService) reconcile(ctx context.Context) error {
	for round := 0; ; round++ {
		blobs, err := s.fetchAll(ctx)
		if err != nil {
			return err
		}
		remoteState, err := decodeRemote(blobs)
		if err != nil {
			return err
		}

		merged, err := s.visits.Reconcile(ctx, remoteState)
		if err != nil {
			return eris.Wrap(err, "merge")
		}
		docs, err := encodeState(merged)
		if err != nil {
			return eris.Wrap(err, "encode")
		}

		changed, err := s.headsChanged(ctx, blobs)
		if err != nil {
			return err
		}
		if changed {
			s.conflicts.Inc()
			if round+1 >= s.conf.MaxConflicts {
				return eris.Wrapf(ErrConcurrentMergeConflict, "gave up after %d re-merges", round+1)
			}
			s.logger.Warnf(providers.TypeSync, "Remote changed during sync, merging again")
			continue
		}
		return s.pushAll(ctx, docs, blobs)
	}
}

// retry runs op with exponential backoff. Each call gets its own timeout.
func (s *SyncService) retry(ctx context.Context, name string, op func(ctx context.Context) error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.conf.InitialDelay
	b.MaxInterval = s.conf.MaxDelay
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(s.conf.MaxAttempts-1)), ctx)

	return backoff.RetryNotify(func() error {
		callCtx, cancel := context.WithTimeout(ctx, s.conf.Timeout)
		defer cancel()
		err := op(callCtx)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(ctx.Err())
		}
		return err
	}, policy, func(err error, wait time.Duration) {
		s.logger.Warnf(providers.TypeSync, "%s failed, retrying in %s: %s", name, wait, err)
	})
}

func (s *SyncService) fetchAll(ctx context.Context) (map[string]*remote.Blob, error) {
	blobs := make(map[string]*remote.Blob, len(remote.Keys))
	for _, key := range remote.Keys {
		var blob *remote.Blob
		err := s.retry(ctx, "fetch "+key, func(ctx context.Context) error {
			var err error
			blob, err = s.store.Fetch(ctx, key)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, eris.Wrapf(ErrRemoteUnavailable, "fetch %s: %v", key, err)
		}
		blobs[key] = blob
	}
	return blobs, nil
}

func (s *SyncService) headsChanged(ctx context.Context, fetched map[string]*remote.Blob) (bool, error) {
	heads, err := s.fetchAll(ctx)
	if err != nil {
		return false, err
	}
	for _, key := range remote.Keys {
		before, after := fetched[key], heads[key]
		switch {
		case before == nil && after == nil:
		case before == nil || after == nil:
			return true, nil
		case !before.LastUpdated.Equal(after.LastUpdated):
			return true, nil
		}
	}
	return false, nil
}

func (s *SyncService) pushAll(ctx context.Context, docs map[string][]byte, fetched map[string]*remote.Blob) error {
	stamp := models.NormalizeTime(s.now())
	for _, blob := range fetched {
		if blob != nil && !stamp.After(blob.LastUpdated) {
			stamp = blob.LastUpdated.Add(time.Nanosecond)
		}
	}
	for _, key := range remote.Keys {
		blob := remote.Blob{Data: docs[key], LastUpdated: stamp}
		err := s.retry(ctx, "push "+key, func(ctx context.Context) error {
			return s.store.Push(ctx, key, blob)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return eris.Wrapf(ErrRemoteUnavailable, "push %s: %v", key, err)
		}
	}
	return nil
}

func decodeRemote(blobs map[string]*remote.Blob) (models.RemoteState, error) {
	var st models.RemoteState
	malformed := func(key string, err error) error {
		return eris.Wrapf(ErrMalformedRemoteDocument, "%s: %v", key, err)
	}

	if b := blobs[remote.KeyRecords]; b != nil {
		rs, _, err := documents.DecodeRecords(b.Data)
		if err != nil {
			return st, malformed(remote.KeyRecords, err)
		}
		st.Records = &rs
	}
	if b := blobs[remote.KeyEvents]; b != nil {
		log, _, err := documents.DecodeEvents(b.Data)
		if err != nil {
			return st, malformed(remote.KeyEvents, err)
		}
		st.Events = log
	}
	if b := blobs[remote.KeyBadges]; b != nil {
		bs, _, err := documents.DecodeBadges(b.Data)
		if err != nil {
			return st, malformed(remote.KeyBadges, err)
		}
		st.Badges = bs
	}
	if b := blobs[remote.KeySettings]; b != nil {
		settings, _, err := documents.DecodeSettings(b.Data)
		if err != nil {
			return st, malformed(remote.KeySettings, err)
		}
		st.Settings = &settings
	}
	return st, nil
}

func encodeState(st models.State) (map[string][]byte, error) {
	out := make(map[string][]byte, len(remote.Keys))
	var err error
	if out[remote.KeyRecords], err = documents.EncodeRecords(st.Records); err != nil {
		return nil, err
	}
	if out[remote.KeyEvents], err = documents.EncodeEvents(st.Events); err != nil {
		return nil, err
	}
	if out[remote.KeyBadges], err = documents.EncodeBadges(st.Badges); err != nil {
		return nil, err
	}
	if out[remote.KeySettings], err = documents.EncodeSettings(st.Settings); err != nil {
		return nil, err
	}
	return out, nil
}
