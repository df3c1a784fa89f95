package storage

import (
	"context"

	"github.com/mcoot/clickpot/internal/model"
)

// Store is the durable client-side cache. It holds at most one session:
// the credential, the identity fields shown in the UI, the reuse cookies
// and the language preference.
type Store interface {
	// Load returns the cached record, or model.ErrCacheNotFound if nothing is stored
	Load(ctx context.Context) (*model.Cache, error)

	SaveCredential(ctx context.Context, raw string) error
	SaveIdentity(ctx context.Context, identity model.Identity) error
	SaveLanguage(ctx context.Context, language string) error
	SaveCookies(ctx context.Context, cookies []model.StoredCookie) error

	// Clear invalidates everything at once
	Clear(ctx context.Context) error
}

// PersistedIdentity drops the identity fields that are never written to
// durable storage (payout address, admin balance)
func PersistedIdentity(identity model.Identity) model.Identity {
	return model.Identity{
		Username: identity.Username,
		Email:    identity.Email,
		Role:     identity.Role,
	}
}
