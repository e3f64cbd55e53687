package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-scout/internal/db"
	"github.com/jonathan/job-scout/internal/scheduler"
	"github.com/jonathan/job-scout/internal/server"
)

var (
	serveConfigPath string
	serveAddr       string
	serveNoSched    bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server and background pipeline",
	Long:  `Start the HTTP server and the periodic scrape/match/notify scheduler. The scheduler can also be controlled at runtime through the /scheduler endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveConfigPath, "config", "", "Path to config.json file")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveNoSched, "no-scheduler", false, "Start the API without the background scheduler")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadAppConfig(serveConfigPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.ServerAddr = serveAddr
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}

	pipe, err := buildPipeline(database, cfg)
	if err != nil {
		return err
	}

	sched := scheduler.New(pipe.Tasks()...)
	if !serveNoSched {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	srv, err := server.New(server.Config{Addr: cfg.ServerAddr}, database, pipe, sched)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	log.Printf("[serve] scrape every %s, notify every %s, sweep every %s",
		cfg.ScrapeInterval(), cfg.NotifyInterval(), cfg.SweepInterval())
	return srv.Start()
}
