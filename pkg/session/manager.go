package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/ticketflow/internal/logging"
	"github.com/aretw0/ticketflow/pkg/domain"
	"github.com/aretw0/ticketflow/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed ticket lock survives a crashed holder.
const DefaultLockTTL = 30 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager runs tickets through a workflow and records the outcome.
// Runs for the same ticket ID are serialized; different tickets run in parallel.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	runner ports.WorkflowRunner
	store  ports.RunStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	newID   func() string
	logger  *slog.Logger // Logger for internal events (like deferred errors)
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the distributed lock TTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithIDGenerator replaces the UUID run ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager that runs tickets with runner and records
// them in store.
func NewManager(runner ports.WorkflowRunner, store ports.RunStore, opts ...Option) *Manager {
	m := &Manager{
		runner:  runner,
		store:   store,
		locks:   make(map[string]*lockEntry),
		lockTTL: DefaultLockTTL,
		newID:   uuid.NewString,
		logger:  logging.NewNop(), // Default to no-op
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(key) after unlocking.
func (m *Manager) acquire(key string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		entry = &lockEntry{}
		m.locks[key] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[key]
	if !exists {
		return
	}

	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, key)
	}
}

// Resolve runs one ticket to completion under its ticket lock and stores the
// resulting record. The record is returned for aborted runs too, alongside
// the run error.
func (m *Manager) Resolve(ctx context.Context, initial *domain.State) (*domain.RunRecord, error) {
	if initial == nil {
		initial = domain.NewState()
	}
	runID := m.newID()
	key, ok := initial.String(domain.FieldTicketID)
	if !ok || key == "" {
		key = runID
	}

	var rec *domain.RunRecord
	var runErr error
	err := m.WithLock(ctx, key, func(ctx context.Context) error {
		res, err := m.runner.Run(ctx, runID, initial)
		if res == nil {
			res = &domain.RunResult{RunID: runID, State: initial}
		}
		runErr = err
		rec = domain.NewRunRecord(res, err)

		if err := m.store.Save(ctx, rec); err != nil {
			return fmt.Errorf("failed to save run %s: %w", runID, err)
		}
		return nil
	})
	if err != nil {
		return rec, errors.Join(runErr, err)
	}

	m.logger.Info("run recorded",
		"run_id", rec.ID,
		"ticket_id", rec.TicketID,
		"status", rec.Status,
	)
	return rec, runErr
}

// Get loads a stored run.
func (m *Manager) Get(ctx context.Context, runID string) (*domain.RunRecord, error) {
	return m.store.Load(ctx, runID)
}

// List loads every stored run. Runs that vanish between listing and loading
// (expiry, concurrent delete) are skipped.
func (m *Manager) List(ctx context.Context) ([]*domain.RunRecord, error) {
	ids, err := m.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.RunRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := m.store.Load(ctx, id)
		if errors.Is(err, domain.ErrRunNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Delete removes a stored run.
func (m *Manager) Delete(ctx context.Context, runID string) error {
	return m.store.Delete(ctx, runID)
}

// Store returns the underlying run store.
func (m *Manager) Store() ports.RunStore {
	return m.store
}

// WithLock executes a function while holding the lock for key.
func (m *Manager) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	entry := m.acquire(key)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(key)
	}()

	// Distributed Locking
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, key, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"key", key,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}
