package push

import (
	"context"
	"strings"
)

// Source yields events from one connection until it fails or is closed
type Source interface {
	Next(ctx context.Context) (Event, error)
	Close() error
}

// Dialer opens a new connection to the push channel
type Dialer interface {
	Dial(ctx context.Context) (Source, error)
}

// TokenSource supplies an optional bearer credential for the handshake
type TokenSource func() string

func joinURL(base, path string) string {
	return strings.TrimSuffix(base, "/") + path
}
