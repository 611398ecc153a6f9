package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/komiyunity/relay-server/internal/app"
	"github.com/komiyunity/relay-server/internal/config"
	"github.com/komiyunity/relay-server/internal/log"
)

var (
	cfgFile  string
	addr     string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "relay-server",
	Short: "Presence-aware chat message relay",
	Long: `relay-server accepts authenticated WebSocket connections, tracks room
membership, and fans chat messages out to room members. It also serves the
directory REST API for user profiles and room metadata.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := log.New(logLevel)

		cfg, path, err := config.Load(logger, cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if addr != "" {
			cfg.Addr = addr
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		logger = log.New(cfg.LogLevel)
		logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting relay server")

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		application, err := app.New(&cfg, logger)
		if err != nil {
			return err
		}
		if err := application.Run(ctx); err != nil {
			return err
		}
		logger.Info().Msg("server stopped")
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
