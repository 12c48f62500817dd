package leads

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/leadflow/internal/logging"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/google/uuid"
)

// DefaultLockTTL bounds how long a distributed lock survives a crashed holder.
const DefaultLockTTL = 45 * time.Second

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager owns lead records and serializes every mutation of a given lead.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	store ports.LeadStore

	mu    sync.Mutex            // Global lock for the map
	locks map[string]*lockEntry // Map of active locks

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	logger  *slog.Logger

	startStepID string
	newID       func() string
	now         func() time.Time
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiration of distributed locks.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithStartStep sets the step new leads are placed on (default "start").
func WithStartStep(id string) Option {
	return func(m *Manager) {
		if id != "" {
			m.startStepID = id
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithIDGenerator replaces the UUID generator used for new leads.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		m.newID = gen
	}
}

// NewManager creates a lead Manager on top of the given persistence store.
func NewManager(store ports.LeadStore, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		locks:       make(map[string]*lockEntry),
		lockTTL:     DefaultLockTTL,
		logger:      logging.NewNop(),
		startStepID: domain.DefaultStartStepID,
		newID:       uuid.NewString,
		now:         time.Now,
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

// WithLock executes fn while holding the lock for the channel id.
func (m *Manager) WithLock(ctx context.Context, channelID string, fn func(context.Context) error) error {
	entry := m.acquire(channelID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(channelID)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, channelID, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			// The turn context may already be canceled; release with a fresh one.
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"channel_id", channelID,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

// loadOrCreate must be called with the lead lock held.
func (m *Manager) loadOrCreate(ctx context.Context, channelID, displayName string) (*domain.Lead, bool, error) {
	lead, err := m.store.Load(ctx, channelID)
	if err == nil {
		return lead, false, nil
	}
	if !errors.Is(err, domain.ErrLeadNotFound) {
		return nil, false, &domain.PersistenceError{Op: "load", Err: err}
	}

	lead = domain.NewLead(m.newID(), channelID, displayName, m.startStepID, m.now())
	// Persist immediately so a concurrent replica sees the same lead id.
	if err := m.store.Save(ctx, lead); err != nil {
		return nil, false, &domain.PersistenceError{Op: "create", Err: err}
	}
	m.logger.Info("Lead created", "lead_id", lead.ID, "channel_id", channelID)
	return lead, true, nil
}

// GetOrCreate returns the lead of channelID, creating it on the start step if unseen.
// The boolean reports whether the lead was created by this call.
func (m *Manager) GetOrCreate(ctx context.Context, channelID, displayName string) (*domain.Lead, bool, error) {
	var (
		lead    *domain.Lead
		created bool
	)
	err := m.WithLock(ctx, channelID, func(ctx context.Context) error {
		var err error
		lead, created, err = m.loadOrCreate(ctx, channelID, displayName)
		return err
	})
	return lead, created, err
}

// Transact runs fn against a working copy of the lead under its lock.
// The copy is committed with a single Save only if fn returns nil; otherwise
// the stored record is left exactly as it was.
func (m *Manager) Transact(ctx context.Context, channelID, displayName string, fn func(*Tx) error) (*domain.Lead, error) {
	var committed *domain.Lead
	err := m.WithLock(ctx, channelID, func(ctx context.Context) error {
		lead, created, err := m.loadOrCreate(ctx, channelID, displayName)
		if err != nil {
			return err
		}

		tx := &Tx{lead: lead.Clone(), existed: !created, now: m.now}
		if err := fn(tx); err != nil {
			return err
		}

		tx.lead.UpdatedAt = m.now()
		if err := m.store.Save(ctx, tx.lead); err != nil {
			return &domain.PersistenceError{Op: "commit", Err: err}
		}
		committed = tx.lead
		return nil
	})
	if err != nil {
		return nil, err
	}
	return committed, nil
}

// Persist saves a full lead record under its lock.
func (m *Manager) Persist(ctx context.Context, lead *domain.Lead) error {
	return m.WithLock(ctx, lead.ChannelID, func(ctx context.Context) error {
		if err := m.store.Save(ctx, lead.Clone()); err != nil {
			return &domain.PersistenceError{Op: "save", Err: err}
		}
		return nil
	})
}

// Get loads a lead without creating it.
func (m *Manager) Get(ctx context.Context, channelID string) (*domain.Lead, error) {
	return m.store.Load(ctx, channelID)
}

// List delegates to the store.
func (m *Manager) List(ctx context.Context) ([]*domain.Lead, error) {
	return m.store.List(ctx)
}

// Store returns the underlying lead store.
func (m *Manager) Store() ports.LeadStore {
	return m.store
}

// StartStep returns the step new leads are positioned on.
func (m *Manager) StartStep() string {
	return m.startStepID
}
