package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/clickpot/internal/model"
	"github.com/mcoot/clickpot/internal/storage"
)

// Storage is a Redis-backed implementation of the store.
// The whole cache lives in one HASH so Clear is a single DEL.
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Store = (*Storage)(nil)

func (s *Storage) key() string {
	return cacheKey(s.cfg.Profile)
}

func (s *Storage) Load(ctx context.Context) (*model.Cache, error) {
	fields, err := s.client.HGetAll(ctx, s.key()).Result()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, model.ErrCacheNotFound
	}

	cache := &model.Cache{
		Credential: fields[fieldCredential],
		Language:   fields[fieldLanguage],
	}
	if raw, ok := fields[fieldIdentity]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &cache.Identity); err != nil {
			return nil, fmt.Errorf("failed to decode cached identity: %w", err)
		}
	}
	if raw, ok := fields[fieldCookies]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &cache.Cookies); err != nil {
			return nil, fmt.Errorf("failed to decode cached cookies: %w", err)
		}
	}
	if cache.IsEmpty() {
		return nil, model.ErrCacheNotFound
	}
	return cache, nil
}

func (s *Storage) SaveCredential(ctx context.Context, raw string) error {
	return s.set(ctx, fieldCredential, raw)
}

func (s *Storage) SaveIdentity(ctx context.Context, identity model.Identity) error {
	data, err := json.Marshal(storage.PersistedIdentity(identity))
	if err != nil {
		return err
	}
	return s.set(ctx, fieldIdentity, string(data))
}

func (s *Storage) SaveLanguage(ctx context.Context, language string) error {
	return s.set(ctx, fieldLanguage, language)
}

func (s *Storage) SaveCookies(ctx context.Context, cookies []model.StoredCookie) error {
	data, err := json.Marshal(cookies)
	if err != nil {
		return err
	}
	return s.set(ctx, fieldCookies, string(data))
}

func (s *Storage) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key()).Err()
}

// set writes one field and refreshes the record TTL in a single round trip
func (s *Storage) set(ctx context.Context, field, value string) error {
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.key(), field, value)
	if s.cfg.TTL > 0 {
		pipe.Expire(ctx, s.key(), s.cfg.TTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}
