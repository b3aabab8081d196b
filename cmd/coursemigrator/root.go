package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"course-migrator/pkg/config"
	"course-migrator/pkg/dataset"
	"course-migrator/pkg/logger"
	"course-migrator/pkg/service"
)

const closeTimeout = 10 * time.Second

type rootOptions struct {
	configFile string
	debug      bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "coursemigrator",
		Short:         "Scrape courses from source sites and publish them to Tutor LMS",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		newScrapeCommand(opts),
		newScrapeFeedCommand(opts),
		newPublishCommand(opts),
		newThumbnailCommand(opts),
		newCheckLoginCommand(opts),
		newServeCommand(opts),
	)
	return cmd
}

// app bundles what every command needs
type app struct {
	cfg *config.Config
	log logger.Logger
	svc *service.Service
}

func (a *app) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	if err := a.svc.Close(ctx); err != nil {
		a.log.Warn("failed to close connections", logger.Error(err))
	}
	_ = a.log.Sync()
}

func loadApp(ctx context.Context, opts *rootOptions, forPublish bool, reg prometheus.Registerer) (*app, error) {
	cfg, err := config.Load(opts.configFile)
	if err != nil {
		return nil, err
	}
	if opts.debug {
		cfg.Logger.Level = "debug"
		cfg.Logger.Development = true
	}
	validate := cfg.Validate
	if forPublish {
		validate = cfg.ValidateForPublish
	}
	if err := validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, err
	}
	svc, err := service.FromConfig(ctx, cfg, log, reg)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return &app{cfg: cfg, log: log, svc: svc}, nil
}

func printJSON(w io.Writer, v any) error {
	data, err := dataset.Encode(v)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
