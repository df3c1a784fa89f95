package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/clickpot/internal/model"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	return New(filepath.Join(t.TempDir(), "nested", "session.json"))
}

func TestLoadMissingFile(t *testing.T) {
	s := newTestStorage(t)
	_, err := s.Load(context.Background())
	assert.ErrorIs(t, err, model.ErrCacheNotFound)
}

func TestSaveCreatesPrivateFile(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, s.SaveCredential(context.Background(), "tok"))

	info, err := os.Stat(s.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	dir, err := os.Stat(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0700), dir.Mode().Perm())
}

func TestSavesMergeIntoOneRecord(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	require.NoError(t, s.SaveCredential(ctx, "tok"))
	require.NoError(t, s.SaveIdentity(ctx, model.Identity{Username: "carol", Email: "c@x", Role: model.RoleUser, AdminBalance: 5}))
	require.NoError(t, s.SaveLanguage(ctx, "de"))
	require.NoError(t, s.SaveCookies(ctx, []model.StoredCookie{{Name: "refreshToken", Value: "r"}}))

	// A fresh instance sees what the first one wrote
	cache, err := New(s.Path()).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "tok", cache.Credential)
	assert.Equal(t, "carol", cache.Identity.Username)
	assert.Zero(t, cache.Identity.AdminBalance)
	assert.Equal(t, "de", cache.Language)
	require.Len(t, cache.Cookies, 1)
	assert.Equal(t, "refreshToken", cache.Cookies[0].Name)
}

func TestClearRemovesFile(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)
	require.NoError(t, s.SaveCredential(ctx, "tok"))

	require.NoError(t, s.Clear(ctx))

	_, err := os.Stat(s.Path())
	assert.ErrorIs(t, err, os.ErrNotExist)
	_, err = s.Load(ctx)
	assert.ErrorIs(t, err, model.ErrCacheNotFound)

	// Clearing twice is fine
	assert.NoError(t, s.Clear(ctx))
}

func TestCorruptFile(t *testing.T) {
	s := newTestStorage(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0700))
	require.NoError(t, os.WriteFile(s.Path(), []byte("{"), 0600))

	_, err := s.Load(context.Background())
	assert.Error(t, err)
	assert.NotErrorIs(t, err, model.ErrCacheNotFound)
}
