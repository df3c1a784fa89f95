package credential

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/clickpot/internal/testutil"
)

var now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestParseReadsExpiry(t *testing.T) {
	exp := now.Add(time.Hour)
	cred := Parse(testutil.MintToken("alice", exp))

	require.NoError(t, cred.Err())
	got, ok := cred.ExpiresAt()
	assert.True(t, ok)
	assert.True(t, exp.Equal(got))
	assert.Equal(t, "alice", cred.Subject())
	assert.False(t, cred.IsExpired(now))
}

func TestParseIgnoresSignature(t *testing.T) {
	// A token signed with some other key still decodes
	raw := testutil.MintToken("bob", now.Add(time.Hour))
	tampered := raw[:len(raw)-4] + "AAAA"

	cred := Parse(tampered)
	assert.NoError(t, cred.Err())
	assert.False(t, cred.IsExpired(now))
}

func TestIsExpiredFailsClosed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "not a jwt", raw: "not-a-token"},
		{name: "garbage payload", raw: "aaa.!!!.bbb"},
		{name: "no exp claim", raw: testutil.MintTokenWithoutExpiry("carol")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred := Parse(tt.raw)
			assert.Error(t, cred.Err())
			assert.True(t, cred.IsExpired(now))
			assert.Equal(t, time.Duration(0), cred.RenewIn(now))
			assert.Equal(t, time.Duration(0), cred.Remaining(now))
		})
	}
}

func TestIsExpiredAfterExpiry(t *testing.T) {
	cred := Parse(testutil.MintToken("alice", now.Add(time.Minute)))

	assert.False(t, cred.IsExpired(now))
	assert.False(t, cred.IsExpired(now.Add(time.Minute)))
	assert.True(t, cred.IsExpired(now.Add(time.Minute+time.Second)))
}

func TestRenewIn(t *testing.T) {
	tests := []struct {
		name     string
		lifetime time.Duration
		want     time.Duration
	}{
		{name: "long lived", lifetime: time.Hour, want: 55 * time.Minute},
		{name: "exactly guard window", lifetime: GuardWindow, want: 0},
		{name: "inside guard window", lifetime: time.Minute, want: -4 * time.Minute},
		{name: "already expired", lifetime: -time.Minute, want: -6 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred := Parse(testutil.MintToken("alice", now.Add(tt.lifetime)))
			assert.Equal(t, tt.want, cred.RenewIn(now))
		})
	}
}

func TestIsZero(t *testing.T) {
	assert.True(t, Parse("").IsZero())
	assert.False(t, Parse("x.y.z").IsZero())
}
