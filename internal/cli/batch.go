package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/typeindex/internal/logger"
	"github.com/ppiankov/typeindex/internal/pipeline"
	"github.com/ppiankov/typeindex/internal/worker"
)

var (
	batchHTTP    httpFlags
	batchQuery   extractorFlags
	concurrency  int
	batchTimeout time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Extract type index links for many seeds in parallel",
	Long: `Batch reads seed URLs from a file (one per line, # comments, "-" for stdin),
extracts each with a pool of workers and prints one JSON line per seed, in
input order. Seeds on the same provider share one rate limit.

Example:
  typeindex batch webids.txt --type http://schema.org/Event
  typeindex batch webids.txt --all-types --concurrency 8 --timeout 10m`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	addExtractorFlags(batchCmd, &batchQuery)
	addHTTPFlags(batchCmd, &batchHTTP)
	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	batchHTTP.apply(cmd, cfg)
	if err := batchQuery.apply(cfg); err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m, flushMetrics := runMetrics(cfg)

	p, err := pipeline.NewPipeline(cfg, pipeline.Options{Classes: batchQuery.types, Logger: log, Metrics: m})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), batchTimeout)
	defer cancel()

	log.Info("batch started",
		logger.String("file", args[0]),
		logger.Int("workers", cfg.Concurrency.Workers),
	)

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	if cfg.Output.Verbose {
		processor.WithProgress(func(r *worker.SeedResult) {
			if r.Error != nil {
				fmt.Fprintf(os.Stderr, "✗ %s: %v\n", r.URL, r.Error)
				return
			}
			fmt.Fprintf(os.Stderr, "✓ %s (%d links)\n", r.URL, len(r.Report.Links))
		})
	}
	results, err := processSeeds(ctx, cmd, processor, args[0])
	if err != nil {
		return err
	}

	renderer := pipeline.NewRenderer(false)
	failures := 0
	for _, result := range results {
		if result.Error != nil {
			failures++
		}
		if err := renderer.RenderSeedLine(cmd.OutOrStdout(), result); err != nil {
			return fmt.Errorf("write result: %w", err)
		}
	}

	log.Info("batch complete",
		logger.Int("seeds", len(results)),
		logger.Int("failures", failures),
	)
	if err := flushMetrics(); err != nil {
		return err
	}
	return nil
}

// processSeeds extracts the seeds listed in path, or read from stdin for "-"
func processSeeds(ctx context.Context, cmd *cobra.Command, processor *worker.BatchProcessor, path string) ([]*worker.SeedResult, error) {
	if path != "-" {
		return processor.ProcessFile(ctx, path)
	}
	seeds, err := worker.ReadURLs(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return processor.ProcessURLs(ctx, seeds), nil
}
