package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mcoot/clickpot/internal/model"
	"github.com/mcoot/clickpot/internal/storage"
)

// Storage keeps the cache in a single JSON file readable only by the owner
type Storage struct {
	path string
	mu   sync.Mutex
}

// New creates a file store at path. The file is created on first write.
func New(path string) *Storage {
	return &Storage{path: path}
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

// DefaultPath returns ~/.clickpot/session.json, falling back to a relative path
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".clickpot", "session.json")
	}
	return filepath.Join(home, ".clickpot", "session.json")
}

// Path returns the file backing this store
func (s *Storage) Path() string {
	return s.path
}

func (s *Storage) Load(ctx context.Context) (*model.Cache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, err := s.read()
	if err != nil {
		return nil, err
	}
	if cache.IsEmpty() {
		return nil, model.ErrCacheNotFound
	}
	return cache, nil
}

func (s *Storage) SaveCredential(ctx context.Context, raw string) error {
	return s.update(func(c *model.Cache) { c.Credential = raw })
}

func (s *Storage) SaveIdentity(ctx context.Context, identity model.Identity) error {
	return s.update(func(c *model.Cache) { c.Identity = storage.PersistedIdentity(identity) })
}

func (s *Storage) SaveLanguage(ctx context.Context, language string) error {
	return s.update(func(c *model.Cache) { c.Language = language })
}

func (s *Storage) SaveCookies(ctx context.Context, cookies []model.StoredCookie) error {
	return s.update(func(c *model.Cache) { c.Cookies = cookies })
}

func (s *Storage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove cache file: %w", err)
	}
	return nil
}

func (s *Storage) update(mutate func(*model.Cache)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache, err := s.read()
	if err != nil {
		return err
	}
	mutate(cache)
	return s.write(cache)
}

// read returns an empty cache when the file does not exist yet
func (s *Storage) read() (*model.Cache, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &model.Cache{}, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}

	var cache model.Cache
	if err := json.Unmarshal(data, &cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	return &cache, nil
}

func (s *Storage) write(cache *model.Cache) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create cache dir: %w", err)
	}

	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode cache: %w", err)
	}

	// Write then rename so a crash never leaves a half-written file
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	return os.Rename(tmp, s.path)
}
