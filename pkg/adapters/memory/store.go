package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/leadflow/pkg/domain"
)

// Store implements ports.LeadStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Lead
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Lead),
	}
}

// Save swaps in a deep copy of the lead, so the stored record changes all at once.
func (s *Store) Save(ctx context.Context, lead *domain.Lead) error {
	copied := lead.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[lead.ChannelID] = copied
	return nil
}

// Load retrieves the lead from memory.
func (s *Store) Load(ctx context.Context, channelID string) (*domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lead, ok := s.data[channelID]
	if !ok {
		return nil, domain.ErrLeadNotFound
	}

	// Copy on read so callers can't mutate store state through the pointer
	return lead.Clone(), nil
}

// Delete removes the lead.
func (s *Store) Delete(ctx context.Context, channelID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, channelID)
	return nil
}

// List returns every lead ordered by creation time.
func (s *Store) List(ctx context.Context) ([]*domain.Lead, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	leads := make([]*domain.Lead, 0, len(s.data))
	for _, lead := range s.data {
		leads = append(leads, lead.Clone())
	}
	sort.Slice(leads, func(i, j int) bool {
		return leads[i].CreatedAt.Before(leads[j].CreatedAt)
	})
	return leads, nil
}
