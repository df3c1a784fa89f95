package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mcoot/clickpot/internal/factory"
)

var (
	cfg    *Config
	app    *factory.App
	out    *Output
	logger *slog.Logger
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "clickpot",
		Short: "Terminal client for the clickpot game",
		Long: `clickpot is a terminal client for the clickpot click-counter game.

Every click grows the shared pot; whoever lands the winning click takes it.
The session is cached between runs and renewed in the background while
long-running commands (play, events) are open.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			out = NewOutput(cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())
			logger = cfg.Logger()

			factoryCfg, err := cfg.FactoryConfig(logger)
			if err != nil {
				return err
			}
			app, err = factory.New(factoryCfg)
			if err != nil {
				return err
			}

			// The service being down should not block offline commands like logout
			if err := app.Start(cmd.Context()); err != nil {
				logger.Warn("failed to load game state", slog.String("error", err.Error()))
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: CLICKPOT_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Store, "store", cfg.Store, "Session cache: file, redis, memory (env: CLICKPOT_STORE)")
	rootCmd.PersistentFlags().StringVar(&cfg.StorePath, "store-path", cfg.StorePath, "Session cache file (env: CLICKPOT_STORE_PATH)")
	rootCmd.PersistentFlags().StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "Redis URL for the redis cache (env: CLICKPOT_REDIS_URL)")
	rootCmd.PersistentFlags().StringVar(&cfg.Push, "push", cfg.Push, "Push transport: sse, ws (env: CLICKPOT_PUSH)")
	rootCmd.PersistentFlags().StringVar(&cfg.Milestones, "milestones", cfg.Milestones, "YAML milestone table (env: CLICKPOT_MILESTONES)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newGuestCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newWhoamiCmd())
	rootCmd.AddCommand(newLanguageCmd())
	rootCmd.AddCommand(newDeleteAccountCmd())
	rootCmd.AddCommand(newStateCmd())
	rootCmd.AddCommand(newClickCmd())
	rootCmd.AddCommand(newWinnersCmd())
	rootCmd.AddCommand(newCollectCmd())
	rootCmd.AddCommand(newPayoutCmd())
	rootCmd.AddCommand(newAdminCmd())
	rootCmd.AddCommand(newEventsCmd())
	rootCmd.AddCommand(newPlayCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()

	if app != nil {
		_ = app.Close()
	}
	if err != nil {
		if out == nil {
			out = NewOutput(cfg.Output, os.Stdout, os.Stderr)
		}
		out.PrintError(err)
		os.Exit(1)
	}
}
