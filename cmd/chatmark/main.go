package main

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MrSnakeDoc/chatmark/internal/app"
	"github.com/MrSnakeDoc/chatmark/internal/config"
	"github.com/MrSnakeDoc/chatmark/internal/logger"
	"github.com/MrSnakeDoc/chatmark/internal/version"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "chatmark",
		Short:         "Bookmarks for passages of AI chat conversations",
		Version:       version.String(),
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.ReadFile(viper.GetViper(), cfgFile)
		},
	}

	setupFlags(rootCmd)
	rootCmd.AddCommand(
		newServeCmd(),
		newCaptureCmd(),
		newResolveCmd(),
		newExportCmd(),
		newImportCmd(),
	)
	return rootCmd
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "Path to configuration file (default ./chatmark.yaml if present)")
	flags.String("listen", defaults.GetString("http.listen"), "HTTP listen address")
	flags.String("backend", defaults.GetString("store.backend"), "Storage backend (memory, redis, sqlite)")
	flags.String("sqlite-path", defaults.GetString("store.sqlite_path"), "SQLite database path")
	flags.String("redis-addr", defaults.GetString("redis.addr"), "Redis address")
	flags.Int("redis-db", defaults.GetInt("redis.db"), "Redis DB number")
	flags.String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	flags.Bool("pretty-log", defaults.GetBool("log.pretty"), "Human readable colored logs")

	bindFlag(cmd, "http.listen", "listen")
	bindFlag(cmd, "store.backend", "backend")
	bindFlag(cmd, "store.sqlite_path", "sqlite-path")
	bindFlag(cmd, "redis.addr", "redis-addr")
	bindFlag(cmd, "redis.db", "redis-db")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "log.pretty", "pretty-log")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

// loadConfig builds the validated config and a logger for it.
func loadConfig() (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.LogLevel, cfg.PrettyLog), nil
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync() //nolint:errcheck

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			a, err := app.New(ctx, cfg, log)
			if err != nil {
				log.Errorf("chatmark failed to start: %v", err)
				return err
			}
			if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("chatmark stopped with error: %v", err)
				return err
			}
			return nil
		},
	}
}
