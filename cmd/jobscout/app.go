package main

import (
	"fmt"

	"github.com/jonathan/job-scout/internal/config"
	"github.com/jonathan/job-scout/internal/db"
	"github.com/jonathan/job-scout/internal/ingest"
	"github.com/jonathan/job-scout/internal/match"
	"github.com/jonathan/job-scout/internal/notify"
	"github.com/jonathan/job-scout/internal/pipeline"
	"github.com/jonathan/job-scout/internal/source"
)

// loadAppConfig loads the optional JSON config file, fills in defaults, and
// overlays environment variables.
func loadAppConfig(path string) (config.Config, error) {
	cfg := config.Defaults()
	if path != "" {
		loaded, err := config.LoadConfig(path)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded.MergeWithDefaults(config.Defaults())
	}

	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// buildRegistry assembles the enabled job board adapters.
func buildRegistry(cfg config.Config) (*source.Registry, error) {
	srcCfg := source.DefaultConfig()
	srcCfg.MaxRetries = cfg.MaxRetries
	srcCfg.RequestDelay = cfg.RequestDelay()

	registry := source.NewRegistry()
	if cfg.IndeedEnabled {
		if err := registry.Register(source.NewIndeed(srcCfg)); err != nil {
			return nil, err
		}
	}
	if cfg.LinkedInEnabled {
		if err := registry.Register(source.NewLinkedIn(srcCfg, cfg.LinkedInUseBrowser)); err != nil {
			return nil, err
		}
	}
	if len(registry.Names()) == 0 {
		return nil, fmt.Errorf("no job board sources enabled")
	}
	return registry, nil
}

// buildPipeline wires the ingestion, matching, and notification components
// around the database.
func buildPipeline(database *db.DB, cfg config.Config) (*pipeline.Pipeline, error) {
	registry, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}

	engine := ingest.NewEngine(database, registry, cfg.FetchConcurrency)
	matcher := match.NewMatcher(database)
	sender := notify.NewSMTPSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	dispatcher := notify.NewDispatcher(database, sender)

	return pipeline.New(database, engine, matcher, dispatcher, pipeline.Options{
		ScrapeInterval:      cfg.ScrapeInterval(),
		NotifyInterval:      cfg.NotifyInterval(),
		SweepInterval:       cfg.SweepInterval(),
		Lookback:            cfg.Lookback(),
		PostingHorizon:      cfg.PostingRetention(),
		NotificationHorizon: cfg.NotificationRetention(),
	}), nil
}
