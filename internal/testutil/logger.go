package testutil

import (
	"log/slog"
)

// NopLogger returns a logger that drops every record, for tests that do
// not assert on logs.
func NopLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
