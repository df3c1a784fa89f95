package testserver

import (
	"time"

	"github.com/mcoot/clickpot/internal/testutil"
)

// Config holds the rules of the stand-in service
type Config struct {
	// Secret signs access tokens (HS256)
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// StartingClicks is the free click budget of a new account
	StartingClicks int64
	// PotPerClick is added to the pot on every click
	PotPerClick float64
	// AdminCut is added to the admin balance on every click
	AdminCut float64
	// Rewards grants free clicks to whoever reaches a global count
	Rewards map[int64]int64
	// WinAt is the global count that awards the pot and restarts the round
	WinAt int64

	// BcryptCost is lowered in tests to keep them fast
	BcryptCost int
}

// DefaultConfig returns the rules used by tests and the e2e suite
func DefaultConfig() Config {
	return Config{
		Secret:         testutil.TokenSecret,
		AccessTTL:      15 * time.Minute,
		RefreshTTL:     7 * 24 * time.Hour,
		StartingClicks: 10,
		PotPerClick:    0.5,
		AdminCut:       0.1,
		Rewards:        map[int64]int64{10: 100, 50: 500},
		WinAt:          100,
		BcryptCost:     4,
	}
}
