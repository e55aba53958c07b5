// Package cache keeps recent tool responses in a Badger-backed store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/hsi-mcp/internal/interfaces"
	"github.com/ternarybob/hsi-mcp/internal/storage/badger"
)

const (
	DefaultTTL      = 60 * time.Second
	DefaultMaxItems = 100
)

// Entry is one cached response
type Entry struct {
	Key      string
	Value    string
	StoredAt time.Time `badgerholdIndex:"StoredAt"`
}

// Service implements interfaces.ResponseCache. Entries expire after ttl
// and the oldest entries are evicted once maxItems is exceeded.
type Service struct {
	db       *badger.BadgerDB
	ttl      time.Duration
	maxItems int
	now      func() time.Time
	mu       sync.Mutex // Serializes writes so eviction sees a consistent count
	logger   arbor.ILogger
}

var _ interfaces.ResponseCache = (*Service)(nil)

// NewService creates a cache over db
func NewService(db *badger.BadgerDB, ttl time.Duration, maxItems int, logger arbor.ILogger) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Service{
		db:       db,
		ttl:      ttl,
		maxItems: maxItems,
		now:      time.Now,
		logger:   logger,
	}
}

// Get returns a fresh cached value. Expired entries are removed.
func (s *Service) Get(ctx context.Context, key string) (string, bool) {
	var entry Entry
	err := s.db.Store().Get(key, &entry)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return "", false
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		return "", false
	}

	if age := s.now().Sub(entry.StoredAt); age >= s.ttl {
		s.logger.Debug().Str("key", key).Dur("age", age).Msg("Cache entry expired")
		s.delete(key)
		return "", false
	}

	s.logger.Debug().Str("key", key).Msg("Cache hit")
	return entry.Value, true
}

// Set stores value under key and evicts the oldest entries beyond maxItems
func (s *Service) Set(ctx context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{Key: key, Value: value, StoredAt: s.now()}
	if err := s.db.Store().Upsert(key, &entry); err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}

	return s.evict()
}

// Len returns the number of stored entries, expired or not
func (s *Service) Len() (int, error) {
	count, err := s.db.Store().Count(&Entry{}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return int(count), nil
}

// Close closes the underlying store
func (s *Service) Close() error {
	return s.db.Close()
}

func (s *Service) evict() error {
	count, err := s.Len()
	if err != nil {
		return err
	}
	excess := count - s.maxItems
	if excess <= 0 {
		return nil
	}

	var oldest []Entry
	query := badgerhold.Where("Key").Ne("").SortBy("StoredAt").Limit(excess)
	if err := s.db.Store().Find(&oldest, query); err != nil {
		return fmt.Errorf("failed to find oldest cache entries: %w", err)
	}
	for _, entry := range oldest {
		s.delete(entry.Key)
	}

	s.logger.Debug().Int("evicted", len(oldest)).Msg("Cache entries evicted")
	return nil
}

func (s *Service) delete(key string) {
	err := s.db.Store().Delete(key, &Entry{})
	if err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
		s.logger.Warn().Err(err).Str("key", key).Msg("Cache delete failed")
	}
}
