// Command indexer builds every retrieval artifact from a cleaned document
// collection in one batch run.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/metrics"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("indexer", pflag.ContinueOnError)
	configPath := flags.String("config", "configs/development.yaml", "path to config file")
	collectionDir := flags.String("collection", "", "collection directory (overrides config)")
	docList := flags.String("doc-list", "", "document list file (default <collection>/<basename of collection>)")
	outputDir := flags.String("output", "", "artifact output directory (overrides config)")
	extension := flags.String("extension", "", "token file extension, e.g. .stp (overrides config)")
	workers := flags.Int("workers", 0, "concurrent document workers (overrides config)")
	summaryTerms := flags.StringSlice("summary-terms", nil, "terms to report in the term summary file")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}
	if *collectionDir != "" {
		cfg.Collection.Dir = *collectionDir
		cfg.Collection.DocList = *docList
	} else if *docList != "" {
		cfg.Collection.DocList = *docList
	}
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *extension != "" {
		cfg.Collection.Extension = *extension
	}
	if *workers > 0 {
		cfg.Indexer.Workers = *workers
	}
	if len(*summaryTerms) > 0 {
		cfg.Indexer.SummaryTerms = *summaryTerms
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		return 2
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "creating output directory: %v\n", err)
		return 1
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting index build",
		"collection", cfg.Collection.Dir,
		"doc_list", cfg.Collection.DocListPath(),
		"output", cfg.Output.Dir,
		"workers", cfg.Indexer.Workers,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(nil)
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(shutdownCtx)
		}()
	}

	res, err := indexer.NewEngine(cfg, m).Build(ctx)
	if err != nil {
		slog.Error("index build failed", "error", err)
		fmt.Fprintf(os.Stderr, "index build failed: %v\n", err)
		return apperrors.ExitCode(err)
	}

	if cfg.Kafka.Enabled {
		publishBuild(ctx, cfg.Kafka, res)
	}

	fmt.Printf("indexed %d documents (%d skipped), %d terms, %d postings in %s\n",
		res.Collection.Len(), len(res.Collection.Skipped), res.Vocabulary.Size(),
		res.Index.NumPostings(), res.Duration.Round(time.Millisecond))
	for _, s := range res.Collection.Skipped {
		fmt.Printf("  skipped %s: %s\n", s.Name, s.Path)
	}
	return 0
}

func publishBuild(ctx context.Context, cfg config.KafkaConfig, res *indexer.Result) {
	producer := kafka.NewProducer(cfg)
	defer producer.Close()
	collector := analytics.NewCollector(producer, nil, analytics.CollectorConfig{BufferSize: 1, BatchSize: 1})
	collector.Start(ctx)
	collector.TrackBuild(analytics.BuildEvent{
		Type:       analytics.EventBuild,
		Documents:  res.Collection.Len(),
		Skipped:    res.Collection.SkippedNames(),
		Terms:      res.Vocabulary.Size(),
		Postings:   res.Index.NumPostings(),
		DurationMs: res.Duration.Milliseconds(),
		Timestamp:  time.Now().UTC(),
	})
	collector.Close()
}
