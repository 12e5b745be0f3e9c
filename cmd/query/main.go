// Command query answers free-text queries interactively against the
// artifacts written by the indexer.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/model"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/repl"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := pflag.NewFlagSet("query", pflag.ContinueOnError)
	configPath := flags.String("config", "configs/development.yaml", "path to config file")
	outputDir := flags.String("output", "", "artifact directory (overrides config)")
	modelName := flags.String("model", "", "ranking model: cosine or proximity (overrides config)")
	k := flags.IntP("k", "k", 0, "proximity influence width (overrides config)")
	limit := flags.IntP("limit", "n", 0, "maximum results per query (overrides config)")
	tokens := flags.Bool("tokens", true, "load token files so the proximity model is available")
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
	if *outputDir != "" {
		cfg.Output.Dir = *outputDir
	}
	if *modelName != "" {
		cfg.Search.DefaultModel = *modelName
	}
	if *k > 0 {
		cfg.Search.ProximityK = *k
	}
	if *limit > 0 {
		cfg.Search.DefaultLimit = *limit
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		return 2
	}
	// Log to stderr so the loop's output stays readable.
	logger.SetupWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m, err := model.Load(ctx, cfg, model.Options{Tokens: *tokens, Workers: cfg.Indexer.Workers}, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading search model: %v\n", err)
		return apperrors.ExitCode(err)
	}
	exec := executor.New(m, executor.Config{
		Partitions:   cfg.Search.Partitions,
		DefaultModel: ranker.Model(cfg.Search.DefaultModel),
		DefaultLimit: cfg.Search.DefaultLimit,
		DefaultK:     cfg.Search.ProximityK,
	}, nil)
	opts, err := exec.Resolve(executor.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return apperrors.ExitCode(err)
	}

	if err := repl.New(exec, os.Stdin, os.Stdout, opts).Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "query loop: %v\n", err)
		return apperrors.ExitCode(err)
	}
	return 0
}
