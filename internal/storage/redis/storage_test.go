package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/clickpot/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.Profile = "test"
	cfg.TTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) TestLoadEmpty() {
	_, err := s.storage.Load(s.ctx)
	s.ErrorIs(err, model.ErrCacheNotFound)
}

func (s *StorageSuite) TestSaveAndLoad() {
	s.Require().NoError(s.storage.SaveCredential(s.ctx, "tok"))
	s.Require().NoError(s.storage.SaveIdentity(s.ctx, model.Identity{
		Username:     "alice",
		Email:        "alice@example.com",
		Role:         model.RoleUser,
		PaypalEmail:  "pay@example.com",
		AdminBalance: 12,
	}))
	s.Require().NoError(s.storage.SaveLanguage(s.ctx, "es"))
	s.Require().NoError(s.storage.SaveCookies(s.ctx, []model.StoredCookie{{Name: "refreshToken", Value: "r1", Path: "/"}}))

	cache, err := s.storage.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal("tok", cache.Credential)
	s.Equal("alice", cache.Identity.Username)
	s.Equal("alice@example.com", cache.Identity.Email)
	s.Equal(model.RoleUser, cache.Identity.Role)
	s.Empty(cache.Identity.PaypalEmail)
	s.Zero(cache.Identity.AdminBalance)
	s.Equal("es", cache.Language)
	s.Require().Len(cache.Cookies, 1)
	s.Equal("r1", cache.Cookies[0].Value)
}

func (s *StorageSuite) TestSaveCredentialOverwrites() {
	s.Require().NoError(s.storage.SaveCredential(s.ctx, "old"))
	s.Require().NoError(s.storage.SaveCredential(s.ctx, "new"))

	cache, err := s.storage.Load(s.ctx)
	s.Require().NoError(err)
	s.Equal("new", cache.Credential)
}

func (s *StorageSuite) TestClearRemovesEverything() {
	s.Require().NoError(s.storage.SaveCredential(s.ctx, "tok"))
	s.Require().NoError(s.storage.SaveLanguage(s.ctx, "en"))

	s.Require().NoError(s.storage.Clear(s.ctx))

	_, err := s.storage.Load(s.ctx)
	s.ErrorIs(err, model.ErrCacheNotFound)
	s.False(s.mini.Exists(cacheKey("test")))
}

func (s *StorageSuite) TestWritesRefreshTTL() {
	s.Require().NoError(s.storage.SaveCredential(s.ctx, "tok"))
	s.Equal(time.Hour, s.mini.TTL(cacheKey("test")))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.Load(s.ctx)
	s.ErrorIs(err, model.ErrCacheNotFound)
}

func (s *StorageSuite) TestProfilesAreIsolated() {
	other := NewWithClient(redis.NewClient(&redis.Options{Addr: s.mini.Addr()}), Config{Profile: "other"})
	defer func() { _ = other.Close() }()

	s.Require().NoError(s.storage.SaveCredential(s.ctx, "tok"))

	_, err := other.Load(s.ctx)
	s.ErrorIs(err, model.ErrCacheNotFound)
}

func (s *StorageSuite) TestCorruptIdentity() {
	s.mini.HSet(cacheKey("test"), fieldIdentity, "{not json")

	_, err := s.storage.Load(s.ctx)
	s.Error(err)
}
