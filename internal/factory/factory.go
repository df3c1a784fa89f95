package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/clickpot/internal/api"
	"github.com/mcoot/clickpot/internal/dependencies/clock"
	"github.com/mcoot/clickpot/internal/dependencies/random"
	"github.com/mcoot/clickpot/internal/game"
	"github.com/mcoot/clickpot/internal/model"
	"github.com/mcoot/clickpot/internal/push"
	"github.com/mcoot/clickpot/internal/session"
	"github.com/mcoot/clickpot/internal/storage"
	filestorage "github.com/mcoot/clickpot/internal/storage/file"
	"github.com/mcoot/clickpot/internal/storage/memory"
	redisstorage "github.com/mcoot/clickpot/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeFile   = "file"
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// Push transport constants
const (
	PushModeSSE       = "sse"
	PushModeWebSocket = "ws"
)

// App contains all wired client components. It owns the push stream and,
// through the session manager, the renewal timer.
type App struct {
	Store   storage.Store
	Client  *api.Client
	Session *session.Manager
	Sync    *game.Synchronizer
	Stream  *push.Stream

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	logger  *slog.Logger
	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// API holds the service address and request timeout.
	// If BaseURL is empty, defaults to api.DefaultConfig()
	API api.Config
	// Session, Game and Push default to their packages' DefaultConfig when zero
	Session session.Config
	Game    game.Config
	Push    push.Config
	// PushMode selects the push transport ("sse" or "ws").
	// If empty, defaults to "sse"
	PushMode string
	// StorageType selects the cache backend ("file", "memory" or "redis").
	// If empty, defaults to "file"
	StorageType string
	// FilePath is the cache file used by the file backend (optional)
	FilePath string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// Logger is the application logger (optional).
	// If nil, a no-op logger is used
	Logger *slog.Logger
}

func (cfg Config) withDefaults() Config {
	if cfg.API.BaseURL == "" {
		cfg.API = api.DefaultConfig()
	}
	if cfg.Session.RenewTimeout == 0 {
		cfg.Session = session.DefaultConfig()
	}
	if len(cfg.Game.Milestones) == 0 {
		cfg.Game = game.DefaultConfig()
	}
	if cfg.Push.ReconnectDelay == 0 {
		cfg.Push = push.DefaultConfig()
	}
	if cfg.PushMode == "" {
		cfg.PushMode = PushModeSSE
	}
	if cfg.StorageType == "" {
		cfg.StorageType = StorageTypeFile
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return cfg
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	cfg = cfg.withDefaults()

	var store storage.Store
	var closers []io.Closer
	switch cfg.StorageType {
	case StorageTypeFile:
		path := cfg.FilePath
		if path == "" {
			path = filestorage.DefaultPath()
		}
		store = filestorage.New(path)
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'file', 'memory' or 'redis'")
	}

	client, err := api.New(cfg.API, cfg.Logger)
	if err != nil {
		return nil, err
	}

	app, err := newWithDependencies(store, client, clock.New(), random.New(), cfg)
	if err != nil {
		return nil, err
	}
	app.closers = closers
	return app, nil
}

// newWithDependencies wires an App around the given dependencies (useful for testing)
func newWithDependencies(store storage.Store, client *api.Client, clk clock.Clock, rnd random.Random, cfg Config) (*App, error) {
	cfg = cfg.withDefaults()
	logger := cfg.Logger

	manager := session.New(store, client, clk, cfg.Session, logger)
	client.SetTokenSource(manager.Token)

	synchronizer := game.New(client, manager, rnd, cfg.Game, logger)
	manager.Subscribe(synchronizer.OnSession)

	var dialer push.Dialer
	switch cfg.PushMode {
	case PushModeSSE:
		dialer = &push.SSEDialer{BaseURL: client.BaseURL(), Tokens: manager.Token}
	case PushModeWebSocket:
		dialer = &push.WebSocketDialer{BaseURL: client.BaseURL(), Tokens: manager.Token}
	default:
		return nil, fmt.Errorf("invalid PushMode %q: must be 'sse' or 'ws'", cfg.PushMode)
	}

	return &App{
		Store:   store,
		Client:  client,
		Session: manager,
		Sync:    synchronizer,
		Stream:  push.NewStream(dialer, clk, cfg.Push, logger),
		Clock:   clk,
		Random:  rnd,
		logger:  logger,
	}, nil
}

// Start restores the cached session and loads the game state. A cached
// credential that can no longer be renewed leaves the app signed out
// rather than failing.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Restore(ctx); err != nil {
		if !errors.Is(err, model.ErrRenewalFailed) {
			return err
		}
		a.logger.Warn("cached session could not be renewed", slog.String("error", err.Error()))
	}

	// Signing in already triggered a resync
	if a.Session.Snapshot().IsAuthenticated() {
		return nil
	}
	return a.Sync.LoadState(ctx)
}

// RunPush feeds push events into the synchronizer until ctx is done
func (a *App) RunPush(ctx context.Context) error {
	return a.Stream.Run(ctx, push.DispatchTo(a.Sync, a.logger))
}

// Close cancels the renewal timer and releases the cache backend
func (a *App) Close() error {
	a.Session.Close()
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
