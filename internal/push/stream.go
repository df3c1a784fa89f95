package push

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/clickpot/internal/dependencies/clock"
)

// Handler receives every event read from the channel
type Handler func(ctx context.Context, ev Event)

// Config holds stream settings
type Config struct {
	// ReconnectDelay is how long to wait before redialing after a drop
	ReconnectDelay time.Duration
}

// DefaultConfig returns sensible defaults for the stream
func DefaultConfig() Config {
	return Config{
		ReconnectDelay: 2 * time.Second,
	}
}

// Stream keeps a push connection open. It is owned by the application and
// torn down by cancelling the context passed to Run.
type Stream struct {
	dialer Dialer
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger

	mu        sync.Mutex
	connected bool
	dials     int
}

// NewStream creates a stream over dialer
func NewStream(dialer Dialer, clk clock.Clock, cfg Config, logger *slog.Logger) *Stream {
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = DefaultConfig().ReconnectDelay
	}
	return &Stream{
		dialer: dialer,
		clock:  clk,
		cfg:    cfg,
		logger: logger.With(slog.String("component", "push")),
	}
}

// Connected reports whether a connection is currently open
func (s *Stream) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Dials returns how many connection attempts have been made
func (s *Stream) Dials() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dials
}

// Run reads events into h until ctx is done, redialing after every failure
func (s *Stream) Run(ctx context.Context, h Handler) error {
	for {
		err := s.runOnce(ctx, h)
		if ctx.Err() != nil {
			return nil
		}

		s.logger.Warn("push channel disconnected",
			slog.String("error", errString(err)),
			slog.Duration("retry_in", s.cfg.ReconnectDelay))

		select {
		case <-ctx.Done():
			return nil
		case <-s.clock.After(s.cfg.ReconnectDelay):
		}
	}
}

func (s *Stream) runOnce(ctx context.Context, h Handler) error {
	s.mu.Lock()
	s.dials++
	s.mu.Unlock()

	src, err := s.dialer.Dial(ctx)
	if err != nil {
		return err
	}

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		_ = src.Close()
	}()

	s.setConnected(true)
	defer s.setConnected(false)
	s.logger.Info("push channel connected")

	for {
		ev, err := src.Next(connCtx)
		if err != nil {
			return err
		}
		h(connCtx, ev)
	}
}

func (s *Stream) setConnected(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = v
}

// DispatchTo returns a handler that dispatches into sink, logging and
// skipping events it cannot apply
func DispatchTo(sink Sink, logger *slog.Logger) Handler {
	return func(ctx context.Context, ev Event) {
		if err := Dispatch(ctx, ev, sink); err != nil {
			logger.Warn("skipping push event",
				slog.String("event", string(ev.Name)),
				slog.String("error", err.Error()))
		}
	}
}

func errString(err error) string {
	if err == nil {
		return "closed"
	}
	if errors.Is(err, context.Canceled) {
		return "cancelled"
	}
	return err.Error()
}
