package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/clickpot/internal/model"
	"github.com/mcoot/clickpot/internal/storage"
)

// Storage is an in-memory implementation of the store. Nothing survives the
// process, which matches a browser tab without durable storage.
type Storage struct {
	mu    sync.RWMutex
	cache model.Cache
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) Load(ctx context.Context) (*model.Cache, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cache.IsEmpty() {
		return nil, model.ErrCacheNotFound
	}
	c := s.cache
	c.Cookies = slices.Clone(s.cache.Cookies)
	return &c, nil
}

func (s *Storage) SaveCredential(ctx context.Context, raw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Credential = raw
	return nil
}

func (s *Storage) SaveIdentity(ctx context.Context, identity model.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Identity = storage.PersistedIdentity(identity)
	return nil
}

func (s *Storage) SaveLanguage(ctx context.Context, language string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Language = language
	return nil
}

func (s *Storage) SaveCookies(ctx context.Context, cookies []model.StoredCookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Cookies = slices.Clone(cookies)
	return nil
}

func (s *Storage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = model.Cache{}
	return nil
}
