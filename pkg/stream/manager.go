package stream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/foldtable/internal/logging"
	"github.com/aretw0/foldtable/pkg/domain"
	"github.com/aretw0/foldtable/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// Folder is the part of a reducer the Manager needs.
// *reducer.Reducer[domain.Document, domain.Record] satisfies it.
type Folder interface {
	Initial() domain.Document
	FoldFrom(state domain.Document, events ...domain.Record) (domain.Document, error)
}

// Observer is notified after a stream has been saved.
// before is the snapshot the events were applied to (version zero for a new stream).
type Observer func(before, after *domain.Snapshot)

// StoreError reports a failure of the store or the lock, as opposed to a handler error.
type StoreError struct {
	Op       string
	StreamID string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("failed to %s stream %q: %v", e.Op, e.StreamID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager applies events to streams, ensuring safe concurrent operations.
// It uses reference counting to garbage collect unused locks.
type Manager struct {
	store  ports.SnapshotStore
	folder Folder

	mu    sync.Mutex
	locks map[string]*lockEntry

	locker    ports.DistributedLocker
	lockTTL   time.Duration
	logger    *slog.Logger
	observers []Observer
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the TTL of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithObserver registers a function called after every successful Apply.
// Observers run while the stream lock is held and must not call back into the Manager.
func WithObserver(obs Observer) Option {
	return func(m *Manager) {
		if obs != nil {
			m.observers = append(m.observers, obs)
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewManager creates a Manager folding events with folder and persisting them in store.
func NewManager(store ports.SnapshotStore, folder Folder, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		folder:  folder,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller must lock entry.mu and call release(streamID) after unlocking.
func (m *Manager) acquire(streamID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[streamID]
	if !exists {
		entry = &lockEntry{}
		m.locks[streamID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(streamID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[streamID]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, streamID)
	}
}

// Apply folds events into the stream and persists the resulting snapshot.
//
// A stream without a snapshot starts from the folder's initial state. The version
// grows by the number of events applied. When a handler fails nothing is saved and
// the handler error is returned unwrapped.
func (m *Manager) Apply(ctx context.Context, streamID string, events ...domain.Record) (*domain.Snapshot, error) {
	var out *domain.Snapshot
	err := m.WithLock(ctx, streamID, func(ctx context.Context) error {
		snap, err := m.store.Load(ctx, streamID)
		if errors.Is(err, domain.ErrStreamNotFound) {
			snap = domain.NewSnapshot(streamID, m.folder.Initial())
		} else if err != nil {
			return &StoreError{Op: "load", StreamID: streamID, Err: err}
		}

		var before *domain.Snapshot
		if len(m.observers) > 0 {
			before = snap.Copy()
		}

		state, err := m.folder.FoldFrom(snap.State, events...)
		if err != nil {
			return err
		}

		snap.State = state
		snap.Version += int64(len(events))
		snap.UpdatedAt = time.Now().UTC()

		if err := m.store.Save(ctx, streamID, snap); err != nil {
			return &StoreError{Op: "save", StreamID: streamID, Err: err}
		}

		m.logger.Debug("stream updated",
			"stream_id", streamID,
			"events", len(events),
			"version", snap.Version,
		)
		out = snap.Copy()
		for _, obs := range m.observers {
			obs(before, snap.Copy())
		}
		return nil
	})
	return out, err
}

// Load retrieves the current snapshot of a stream.
// A missing stream yields an error matching domain.ErrStreamNotFound.
func (m *Manager) Load(ctx context.Context, streamID string) (*domain.Snapshot, error) {
	var snap *domain.Snapshot
	err := m.WithLock(ctx, streamID, func(ctx context.Context) error {
		var err error
		snap, err = m.store.Load(ctx, streamID)
		if err != nil {
			return &StoreError{Op: "load", StreamID: streamID, Err: err}
		}
		return nil
	})
	return snap, err
}

// Delete removes the stream from the store.
func (m *Manager) Delete(ctx context.Context, streamID string) error {
	return m.WithLock(ctx, streamID, func(ctx context.Context) error {
		if err := m.store.Delete(ctx, streamID); err != nil {
			return &StoreError{Op: "delete", StreamID: streamID, Err: err}
		}
		return nil
	})
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying snapshot store.
func (m *Manager) Store() ports.SnapshotStore {
	return m.store
}

// WithLock executes a function while holding the lock for the stream.
func (m *Manager) WithLock(ctx context.Context, streamID string, fn func(context.Context) error) error {
	entry := m.acquire(streamID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(streamID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, streamID, m.lockTTL)
		if err != nil {
			return &StoreError{Op: "lock", StreamID: streamID, Err: err}
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"stream_id", streamID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
