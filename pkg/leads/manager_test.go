package leads_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/leadflow/pkg/adapters/memory"
	"github.com/aretw0/leadflow/pkg/domain"
	"github.com/aretw0/leadflow/pkg/leads"
	"github.com/aretw0/leadflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	data  map[string]*domain.Lead
	mu    sync.Mutex
	saves atomic.Int32
	fail  error
}

func (s *SlowStore) Save(ctx context.Context, lead *domain.Lead) error {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fail != nil {
		return s.fail
	}
	if s.data == nil {
		s.data = make(map[string]*domain.Lead)
	}
	s.data[lead.ChannelID] = lead.Clone()
	s.saves.Add(1)
	return nil
}

func (s *SlowStore) Load(ctx context.Context, channelID string) (*domain.Lead, error) {
	time.Sleep(5 * time.Millisecond) // Simulate IO
	s.mu.Lock()
	defer s.mu.Unlock()

	if lead, ok := s.data[channelID]; ok {
		return lead.Clone(), nil
	}
	return nil, domain.ErrLeadNotFound
}

func (s *SlowStore) Delete(ctx context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, channelID)
	return nil
}

func (s *SlowStore) List(ctx context.Context) ([]*domain.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Lead, 0, len(s.data))
	for _, l := range s.data {
		out = append(out, l.Clone())
	}
	return out, nil
}

var _ ports.LeadStore = (*SlowStore)(nil)

func TestManager_GetOrCreate_Idempotent(t *testing.T) {
	store := &SlowStore{}
	manager := leads.NewManager(store)
	ctx := context.Background()
	id := "5511999990000"

	var wg sync.WaitGroup
	var created atomic.Int32
	ids := make(chan string, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lead, isNew, err := manager.GetOrCreate(ctx, id, "Ana")
			assert.NoError(t, err)
			if isNew {
				created.Add(1)
			}
			ids <- lead.ID
		}()
	}
	wg.Wait()
	close(ids)

	assert.Equal(t, int32(1), created.Load(), "exactly one call creates the lead")
	first := ""
	for leadID := range ids {
		if first == "" {
			first = leadID
		}
		assert.Equal(t, first, leadID)
	}

	lead, err := manager.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultStartStepID, lead.CurrentStepID)
	assert.Empty(t, lead.Answers)
	assert.Empty(t, lead.History)
}

func TestManager_Transact_NoLostUpdates(t *testing.T) {
	store := &SlowStore{}
	manager := leads.NewManager(store)
	ctx := context.Background()
	id := "race-test"
	concurrentTurns := 10

	var wg sync.WaitGroup
	for i := 0; i < concurrentTurns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := manager.Transact(ctx, id, "Ana", func(tx *leads.Tx) error {
				n, _ := strconv.Atoi(tx.Lead().Answers["count"])
				tx.RecordAnswer("count", strconv.Itoa(n+1))
				tx.AppendMessage(domain.DirectionIn, "msg", time.Time{})
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lead, err := manager.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, strconv.Itoa(concurrentTurns), lead.Answers["count"])
	assert.Len(t, lead.History, concurrentTurns)
}

func TestManager_Transact_RollbackOnError(t *testing.T) {
	store := memory.NewStore()
	manager := leads.NewManager(store)
	ctx := context.Background()

	_, err := manager.Transact(ctx, "c1", "Ana", func(tx *leads.Tx) error {
		tx.SetStep("ask_profile")
		return nil
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = manager.Transact(ctx, "c1", "Ana", func(tx *leads.Tx) error {
		assert.True(t, tx.Existed())
		tx.SetStep("elsewhere")
		tx.RecordAnswer("ask_profile", "casal")
		tx.AppendMessage(domain.DirectionIn, "2", time.Now())
		return boom
	})
	assert.ErrorIs(t, err, boom)

	lead, err := manager.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "ask_profile", lead.CurrentStepID)
	assert.Empty(t, lead.Answers)
	assert.Empty(t, lead.History)
}

func TestManager_Transact_NewLeadFlag(t *testing.T) {
	manager := leads.NewManager(memory.NewStore(), leads.WithStartStep("hello"))
	ctx := context.Background()

	lead, err := manager.Transact(ctx, "c2", "Bia", func(tx *leads.Tx) error {
		assert.False(t, tx.Existed())
		assert.Equal(t, "hello", tx.Lead().CurrentStepID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "Bia", lead.DisplayName)
	assert.NotEmpty(t, lead.ID)
}

func TestManager_Transact_PersistenceError(t *testing.T) {
	store := &SlowStore{}
	manager := leads.NewManager(store)
	ctx := context.Background()

	_, _, err := manager.GetOrCreate(ctx, "c3", "Caio")
	require.NoError(t, err)

	diskFull := errors.New("disk full")
	store.fail = diskFull
	_, err = manager.Transact(ctx, "c3", "Caio", func(tx *leads.Tx) error {
		tx.SetStep("x")
		return nil
	})

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "commit", perr.Op)
	assert.ErrorIs(t, err, diskFull)
}

func TestManager_Persist_RoundTrip(t *testing.T) {
	store := memory.NewStore()
	manager := leads.NewManager(store)
	ctx := context.Background()

	lead, _, err := manager.GetOrCreate(ctx, "c4", "Duda")
	require.NoError(t, err)
	lead.CurrentStepID = "result"
	lead.Answers["ask_profile"] = "familia"
	require.NoError(t, manager.Persist(ctx, lead))

	// A fresh manager over the same store plays the role of a restarted process.
	reloaded, err := leads.NewManager(store).Get(ctx, "c4")
	require.NoError(t, err)
	assert.Equal(t, "result", reloaded.CurrentStepID)
	assert.Equal(t, map[string]string{"ask_profile": "familia"}, reloaded.Answers)
}

type recordingLocker struct {
	mu       sync.Mutex
	locked   []string
	unlocked []string
}

func (l *recordingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	l.mu.Lock()
	l.locked = append(l.locked, key)
	l.mu.Unlock()
	return func(ctx context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.unlocked = append(l.unlocked, key)
		return nil
	}, nil
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &recordingLocker{}
	manager := leads.NewManager(memory.NewStore(), leads.WithLocker(locker))

	_, err := manager.Transact(context.Background(), "c5", "Eva", func(tx *leads.Tx) error { return nil })
	require.NoError(t, err)

	assert.Equal(t, []string{"c5"}, locker.locked)
	assert.Equal(t, []string{"c5"}, locker.unlocked)
}
