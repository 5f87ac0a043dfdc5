package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/assetboard/assetboard/internal/config"
	"github.com/assetboard/assetboard/internal/inventory"
	"github.com/assetboard/assetboard/internal/metrics"
	"github.com/assetboard/assetboard/internal/source"
	"github.com/assetboard/assetboard/pkg/types"
)

// ErrNoSnapshot is returned by Current before the first successful refresh,
// or after a failed refresh cleared the snapshot.
var ErrNoSnapshot = errors.New("store: no snapshot loaded")

// Snapshot is one complete parsed record set. It is never modified after it
// is installed; callers must not modify Assets.
type Snapshot struct {
	ID        uuid.UUID
	Assets    []types.Asset
	FetchedAt time.Time
	Origin    string
	Cert      *source.CertStatus

	index map[string]int
}

// Asset returns the asset with the given key (asset tag, else computer name).
func (s *Snapshot) Asset(key string) (types.Asset, bool) {
	i, ok := s.index[key]
	if !ok {
		return types.Asset{}, false
	}
	return s.Assets[i], true
}

func newSnapshot(assets []types.Asset, fetchedAt time.Time, origin string, cert *source.CertStatus) *Snapshot {
	idx := make(map[string]int, len(assets))
	for i, a := range assets {
		// First occurrence wins for duplicate tags.
		if _, dup := idx[a.Key()]; !dup {
			idx[a.Key()] = i
		}
	}
	return &Snapshot{
		ID:        uuid.New(),
		Assets:    assets,
		FetchedAt: fetchedAt,
		Origin:    origin,
		Cert:      cert,
		index:     idx,
	}
}

// Status summarizes the store for the status endpoint.
type Status struct {
	SnapshotID  string
	FetchedAt   time.Time
	Origin      string
	Records     int
	LastError   string
	LastAttempt time.Time
	Refreshing  bool
	Interval    time.Duration
	Cert        *source.CertStatus
}

// Store holds the current snapshot and refreshes it from a Fetcher.
type Store struct {
	fetcher source.Fetcher
	onError string
	metrics *metrics.Metrics
	now     func() time.Time // injectable for deterministic tests

	current    atomic.Pointer[Snapshot]
	refreshing atomic.Bool
	interval   atomic.Int64
	wake       chan struct{}

	// refreshMu serializes installs so notifications arrive in install order.
	refreshMu sync.Mutex

	mu          sync.RWMutex
	lastErr     error
	lastAttempt time.Time
	subs        []func(*Snapshot)
}

// Option configures a Store.
type Option func(*Store)

// WithOnError sets the failure policy: config.OnErrorKeep (default) or
// config.OnErrorClear.
func WithOnError(policy string) Option {
	return func(s *Store) { s.onError = policy }
}

// WithMetrics records refreshes and snapshot gauges into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

// WithRefreshInterval sets the periodic refresh interval used by Run.
// 0 disables periodic refreshes.
func WithRefreshInterval(d time.Duration) Option {
	return func(s *Store) { s.interval.Store(int64(d)) }
}

// New creates a Store that refreshes from f.
func New(f source.Fetcher, opts ...Option) *Store {
	s := &Store{
		fetcher: f,
		onError: config.OnErrorKeep,
		now:     time.Now,
		wake:    make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Current returns the installed snapshot or ErrNoSnapshot.
func (s *Store) Current() (*Snapshot, error) {
	snap := s.current.Load()
	if snap == nil {
		return nil, ErrNoSnapshot
	}
	return snap, nil
}

// Subscribe registers fn to be called with every newly installed snapshot,
// or nil when a failed refresh clears it. fn runs synchronously under the
// install lock and must not call Refresh or Install.
func (s *Store) Subscribe(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Refresh fetches, parses and installs a new snapshot. It returns
// source.ErrNotConfigured without fetching when no source is resolved.
func (s *Store) Refresh(ctx context.Context) (*Snapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	s.refreshing.Store(true)
	defer s.refreshing.Store(false)

	start := s.now()
	payload, err := s.fetcher.Fetch(ctx)
	if err != nil && ctx.Err() != nil {
		// Abandoned by the caller; the source itself did not fail.
		slog.Debug("store: refresh abandoned", "err", err)
		return nil, fmt.Errorf("store: refresh: %w", err)
	}
	if err != nil {
		s.fail(err, start)
		return nil, fmt.Errorf("store: refresh: %w", err)
	}

	assets := inventory.Parse(payload.Body)
	fetchedAt := payload.FetchedAt
	if fetchedAt.IsZero() {
		fetchedAt = s.now()
	}
	snap := newSnapshot(assets, fetchedAt, payload.Origin, payload.Cert)
	s.install(snap, start)
	s.metrics.ObserveRefresh(metrics.ResultOK, s.now().Sub(start))

	slog.Info("store: snapshot replaced",
		"snapshot_id", snap.ID, "records", len(assets), "origin", snap.Origin)
	return snap, nil
}

// Install parses text and installs it as the current snapshot without a
// fetch. origin labels where the text came from.
func (s *Store) Install(text, origin string) *Snapshot {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	now := s.now()
	snap := newSnapshot(inventory.Parse(text), now, origin, nil)
	s.install(snap, now)

	slog.Info("store: snapshot installed",
		"snapshot_id", snap.ID, "records", len(snap.Assets), "origin", origin)
	return snap
}

// install must be called with refreshMu held.
func (s *Store) install(snap *Snapshot, attempt time.Time) {
	s.current.Store(snap)

	s.mu.Lock()
	s.lastErr = nil
	s.lastAttempt = attempt
	subs := s.subs
	s.mu.Unlock()

	s.metrics.SetSnapshot(snap.Assets, snap.FetchedAt)
	for _, fn := range subs {
		fn(snap)
	}
}

// fail must be called with refreshMu held.
func (s *Store) fail(err error, attempt time.Time) {
	s.mu.Lock()
	s.lastErr = err
	s.lastAttempt = attempt
	subs := s.subs
	s.mu.Unlock()

	if errors.Is(err, source.ErrNotConfigured) {
		s.metrics.ObserveRefresh(metrics.ResultNotConfigured, 0)
		slog.Warn("store: refresh skipped, source not configured")
		return
	}
	s.metrics.ObserveRefresh(metrics.ResultError, s.now().Sub(attempt))
	slog.Error("store: refresh failed", "err", err, "on_error", s.onError)

	if s.onError == config.OnErrorClear && s.current.Swap(nil) != nil {
		s.metrics.SetSnapshot(nil, attempt)
		for _, fn := range subs {
			fn(nil)
		}
	}
}

// Status reports the current snapshot and the outcome of the last refresh.
func (s *Store) Status() Status {
	s.mu.RLock()
	st := Status{
		LastAttempt: s.lastAttempt,
		Refreshing:  s.refreshing.Load(),
		Interval:    time.Duration(s.interval.Load()),
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	s.mu.RUnlock()

	if snap := s.current.Load(); snap != nil {
		st.SnapshotID = snap.ID.String()
		st.FetchedAt = snap.FetchedAt
		st.Origin = snap.Origin
		st.Records = len(snap.Assets)
		st.Cert = snap.Cert
	}
	return st
}

// SetRefreshInterval changes the periodic refresh interval. It takes effect
// immediately in a running Run loop.
func (s *Store) SetRefreshInterval(d time.Duration) {
	if time.Duration(s.interval.Swap(int64(d))) == d {
		return
	}
	slog.Info("store: refresh interval changed", "interval", d)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run performs an initial refresh, then refreshes every interval until ctx
// is cancelled. With a zero interval it only waits for interval changes.
// Refresh errors are logged and recorded in Status; Run never returns them.
func (s *Store) Run(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil && ctx.Err() != nil {
		return
	}

	for {
		var tick <-chan time.Time
		var t *time.Timer
		if d := time.Duration(s.interval.Load()); d > 0 {
			t = time.NewTimer(d)
			tick = t.C
		}

		select {
		case <-ctx.Done():
			if t != nil {
				t.Stop()
			}
			return
		case <-s.wake:
			if t != nil {
				t.Stop()
			}
		case <-tick:
			_, _ = s.Refresh(ctx)
		}
	}
}
