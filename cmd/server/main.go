package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gatechat/gatechat-server/internal/app"
	"github.com/gatechat/gatechat-server/internal/config"
	"github.com/gatechat/gatechat-server/internal/log"
)

func main() {
	var (
		configPath string
		addr       string
		logLevel   string
	)

	root := &cobra.Command{
		Use:           "gatechat-server",
		Short:         "Gated group chat server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Start the chat server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			bootLogger := log.New(logLevel)

			cfg, path, err := config.Load(bootLogger, configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting gatechat server")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			application, err := app.New(ctx, cfg, logger)
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

	serve.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	serve.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides config)")
	serve.Flags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(serve)

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
