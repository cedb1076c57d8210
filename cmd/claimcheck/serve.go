package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bionicotaku/lingo-utils-claimcheck"
	"github.com/bionicotaku/lingo-utils-claimcheck/internal/config"
	"github.com/bionicotaku/lingo-utils-claimcheck/internal/logger"
	"github.com/bionicotaku/lingo-utils-claimcheck/internal/server"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve POST /api/validate",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()
			return serve(ctx, configPath)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", os.Getenv("CLAIMCHECK_CONFIG"), "Optional YAML config file (env CLAIMCHECK_CONFIG)")
	return cmd
}

func serve(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Config{
		Env:         cfg.LogFormat,
		Level:       cfg.LogLevel,
		ServiceName: "claimcheck",
		Version:     version,
	})
	defer func() { _ = log.Sync() }()

	validator, err := claimcheck.NewValidator(claimcheck.Config{
		Decoder: claimcheck.DecoderKind(cfg.Validator.Decoder),
		Logger:  log.Named("validator"),
	})
	if err != nil {
		return fmt.Errorf("create validator: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := server.New(server.Params{
		Config:    cfg,
		Validator: validator,
		Logger:    log.Named("http"),
		Registry:  reg,
	})
	if err != nil {
		return err
	}
	log.Info("claimcheck starting",
		zap.String("decoder", cfg.Validator.Decoder),
		zap.Bool("metrics", cfg.Metrics.Enabled),
	)
	return srv.Run(ctx, nil)
}
