package cli

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/mcoot/clickpot/internal/api"
	"github.com/mcoot/clickpot/internal/factory"
	"github.com/mcoot/clickpot/internal/game"
	redisstorage "github.com/mcoot/clickpot/internal/storage/redis"
)

// Config holds CLI configuration
type Config struct {
	ServerURL  string
	Store      string
	StorePath  string
	RedisURL   string
	Push       string
	Milestones string
	Output     string
	Verbose    bool
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:  getEnvOrDefault("CLICKPOT_SERVER", api.DefaultConfig().BaseURL),
		Store:      getEnvOrDefault("CLICKPOT_STORE", factory.StorageTypeFile),
		StorePath:  os.Getenv("CLICKPOT_STORE_PATH"),
		RedisURL:   getEnvOrDefault("CLICKPOT_REDIS_URL", redisstorage.DefaultConfig().URL),
		Push:       getEnvOrDefault("CLICKPOT_PUSH", factory.PushModeSSE),
		Milestones: os.Getenv("CLICKPOT_MILESTONES"),
		Output:     "text",
		Verbose:    false,
	}
}

// Logger returns the JSON logger written to stderr. Only warnings are shown
// unless verbose output is on.
func (c *Config) Logger() *slog.Logger {
	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// FactoryConfig translates the CLI settings into an application config
func (c *Config) FactoryConfig(logger *slog.Logger) (factory.Config, error) {
	fc := factory.Config{
		API:         api.Config{BaseURL: c.ServerURL, Timeout: 30 * time.Second},
		PushMode:    c.Push,
		StorageType: c.Store,
		FilePath:    c.StorePath,
		Logger:      logger,
	}

	if c.Store == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		fc.RedisConfig = &redisCfg
	}

	if c.Milestones != "" {
		milestones, err := game.LoadMilestones(c.Milestones)
		if err != nil {
			return factory.Config{}, fmt.Errorf("failed to load milestones: %w", err)
		}
		fc.Game = game.Config{Milestones: milestones}
	}

	return fc, nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
