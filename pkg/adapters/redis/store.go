package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aretw0/leadflow/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces every key written by this package.
const DefaultPrefix = "leadflow:lead:"

// farFuture is the index score of records without TTL (2100-01-01).
const farFuture = 4102444800

// Store implements ports.LeadStore using Redis.
// Each lead is a single JSON value, so a write replaces the whole record.
type Store struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

type Option func(*Store)

// WithTTL sets the expiration for lead records.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for lead records.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		prefix: DefaultPrefix,
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

// Client exposes the underlying connection, e.g. to build a Locker on it.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Prefix returns the key namespace in use.
func (s *Store) Prefix() string {
	return s.prefix
}

func (s *Store) key(channelID string) string {
	return s.prefix + channelID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save writes the record and its index entry in one MULTI/EXEC transaction.
func (s *Store) Save(ctx context.Context, lead *domain.Lead) error {
	data, err := json.Marshal(lead)
	if err != nil {
		return fmt.Errorf("failed to marshal lead: %w", err)
	}

	// Score = Now + TTL, used for lazy index cleanup in List.
	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = farFuture
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.Set(ctx, s.key(lead.ChannelID), data, s.ttl)
		pipe.ZAdd(ctx, s.indexKey(), backend.Z{
			Score:  score,
			Member: lead.ChannelID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}

	return nil
}

// Load retrieves the lead from Redis.
func (s *Store) Load(ctx context.Context, channelID string) (*domain.Lead, error) {
	val, err := s.client.Get(ctx, s.key(channelID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	return decode(val)
}

// Delete removes the lead and its index entry.
func (s *Store) Delete(ctx context.Context, channelID string) error {
	pipe := s.client.Pipeline()

	pipe.Del(ctx, s.key(channelID))
	pipe.ZRem(ctx, s.indexKey(), channelID)

	_, err := pipe.Exec(ctx)
	return err
}

// List returns every live lead, pruning expired index entries first.
func (s *Store) List(ctx context.Context) ([]*domain.Lead, error) {
	now := float64(time.Now().Unix())
	err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to prune expired leads: %w", err)
	}

	channels, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}
	if len(channels) == 0 {
		return []*domain.Lead{}, nil
	}

	keys := make([]string, len(channels))
	for i, c := range channels {
		keys[i] = s.key(c)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leads: %w", err)
	}

	leads := make([]*domain.Lead, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // expired between ZRANGE and MGET
		}
		lead, err := decode([]byte(raw))
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	sort.Slice(leads, func(i, j int) bool {
		return leads[i].CreatedAt.Before(leads[j].CreatedAt)
	})
	return leads, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}

func decode(data []byte) (*domain.Lead, error) {
	var lead domain.Lead
	if err := json.Unmarshal(data, &lead); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lead: %w", err)
	}
	if lead.Answers == nil {
		lead.Answers = make(map[string]string)
	}
	return &lead, nil
}
