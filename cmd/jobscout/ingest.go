package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jonathan/job-scout/internal/db"
	"github.com/jonathan/job-scout/internal/ingest"
	"github.com/jonathan/job-scout/internal/source"
)

var (
	ingestConfigPath string
	ingestKeywords   []string
	ingestLocation   string
	ingestJobType    string
	ingestLevel      string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Run one ingestion batch for an ad-hoc search",
	Long:  `Scrape all enabled job boards once for the given search and commit the results, without starting the server or scheduler.`,
	RunE:  runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestConfigPath, "config", "", "Path to config.json file")
	ingestCmd.Flags().StringSliceVarP(&ingestKeywords, "keyword", "k", nil, "Search keyword (repeatable)")
	ingestCmd.Flags().StringVarP(&ingestLocation, "location", "l", "", "Search location")
	ingestCmd.Flags().StringVar(&ingestJobType, "job-type", "", "Job type filter: remote, hybrid, onsite")
	ingestCmd.Flags().StringVar(&ingestLevel, "experience", "", "Experience level filter: entry, mid, senior")
	_ = ingestCmd.MarkFlagRequired("keyword")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(_ *cobra.Command, _ []string) error {
	ctx := context.Background()

	cfg, err := loadAppConfig(ingestConfigPath)
	if err != nil {
		return err
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

	registry, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	engine := ingest.NewEngine(database, registry, cfg.FetchConcurrency)

	summary, err := engine.Run(ctx, source.SearchParams{
		Keywords:        ingestKeywords,
		Location:        ingestLocation,
		JobType:         ingestJobType,
		ExperienceLevel: ingestLevel,
	})
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	printSummary(summary)
	return nil
}

func printSummary(summary ingest.Summary) {
	fmt.Printf("Sources attempted: %d\n", summary.SourcesAttempted)
	fmt.Printf("Postings found:    %d\n", summary.FoundTotal)
	fmt.Printf("New postings:      %d\n", summary.NewTotal)
	fmt.Printf("Updated postings:  %d\n", summary.UpdatedTotal)

	if len(summary.SourceErrors) > 0 {
		names := make([]string, 0, len(summary.SourceErrors))
		for name := range summary.SourceErrors {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(os.Stderr, "Source errors:")
		for _, name := range names {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", name, summary.SourceErrors[name])
		}
	}
}
