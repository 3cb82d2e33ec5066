package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/codecritic/internal/analysis"
	"github.com/dshills/codecritic/internal/batch"
	"github.com/dshills/codecritic/internal/cache"
	"github.com/dshills/codecritic/internal/llm"
	"github.com/dshills/codecritic/internal/prompt"
	"github.com/dshills/codecritic/internal/render"
	"github.com/dshills/codecritic/internal/repair"
	"github.com/dshills/codecritic/internal/review"
	"github.com/dshills/codecritic/internal/source"
)

type reviewFlags struct {
	format        string
	out           string
	model         string
	maxIterations int
	timeout       time.Duration
	cacheDir      string
	noCache       bool
	cacheTTL      time.Duration
	task          string
	framework     string
	dataset       string
	workers       int
	rateLimit     time.Duration
	failOnIssues  bool
	verbose       bool
}

func newReviewCmd() *cobra.Command {
	f := &reviewFlags{}

	cmd := &cobra.Command{
		Use:   "review <file.py> [file.py ...]",
		Short: "Review Python files and attempt automatic fixes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReview(args, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.format, "format", "json", "Output format: json or md")
	flags.StringVar(&f.out, "out", "", "Output file path (default: stdout)")
	flags.StringVar(&f.model, "model", "", "Model ID (e.g., claude-sonnet-4-6, gpt-4o, ollama:qwen2.5-coder:7b)")
	flags.IntVar(&f.maxIterations, "max-iterations", repair.DefaultMaxIterations, "Max review-fix iterations per file")
	flags.DurationVar(&f.timeout, "timeout", 5*time.Minute, "Overall deadline for the run")
	flags.StringVar(&f.cacheDir, "cache-dir", "", "Cache directory (default: ~/.codecritic)")
	flags.BoolVar(&f.noCache, "no-cache", false, "Disable the review cache")
	flags.DurationVar(&f.cacheTTL, "cache-ttl", cache.DefaultTTL, "How long cached reviews stay valid")
	flags.StringVar(&f.task, "task", "", "Project task for review context")
	flags.StringVar(&f.framework, "framework", "", "Framework for review context")
	flags.StringVar(&f.dataset, "dataset", "", "Dataset for review context")
	flags.IntVar(&f.workers, "workers", batch.DefaultWorkers, "Concurrent file reviews")
	flags.DurationVar(&f.rateLimit, "rate-limit", 0, "Minimum interval between model calls")
	flags.BoolVar(&f.failOnIssues, "fail-on-issues", false, "Exit non-zero when issues remain after fixing")
	flags.BoolVar(&f.verbose, "verbose", false, "Log progress to stderr")

	return cmd
}

func runReview(paths []string, f *reviewFlags) error {
	logger, err := newLogger(f.verbose)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	analyzer, err := analysis.New()
	if err != nil {
		return exitError(3, "load detector catalog: %v", err)
	}

	store := openCache(f, logger)
	if store != nil {
		defer store.Close()
	}

	provider, err := llm.ResolveProvider(f.model)
	if err != nil {
		return exitError(4, "model provider error: %v", err)
	}
	provider = llm.WithRateLimit(provider, f.rateLimit)
	logger.Info("provider resolved", zap.String("provider", provider.Name()))

	pctx := prompt.Context{Task: f.task, Framework: f.framework, Dataset: f.dataset}
	reviewer := repair.NewReviewer(provider, analyzer, repair.ReviewerOptions{
		Cache:  store,
		Logger: logger,
		Prompt: pctx,
	})
	loop := repair.NewLoop(reviewer, provider, repair.LoopOptions{
		MaxIterations: f.maxIterations,
		Prompt:        pctx,
		Logger:        logger,
		Observer:      progressObserver{logger: logger},
	})

	units := make([]*source.Unit, len(paths))
	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return exitError(3, "read %s: %v", path, err)
		}
		units[i] = source.New(string(data))
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.timeout)
	defer cancel()

	results, err := batch.New(loop, f.workers).Process(ctx, units)
	if err != nil {
		return exitError(4, "review failed: %v", err)
	}

	output, err := formatResults(results, paths, f.format)
	if err != nil {
		return err
	}

	if f.out != "" {
		if err := os.WriteFile(f.out, []byte(output), 0o644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	} else {
		fmt.Print(output)
	}

	if f.failOnIssues {
		for i, res := range results {
			if !res.Success {
				return exitError(2, "issues remain in %s after %d iterations", paths[i], res.Iterations)
			}
		}
	}
	return nil
}

// formatResults renders every result in the requested format. Multiple files
// get a file header in md and one JSON document per line in json.
func formatResults(results []*repair.Result, paths []string, format string) (string, error) {
	var b strings.Builder
	for i, res := range results {
		switch format {
		case "json":
			out, err := render.JSON(res)
			if err != nil {
				return "", err
			}
			b.WriteString(out)
		case "md":
			if len(results) > 1 {
				fmt.Fprintf(&b, "**File:** %s\n\n", paths[i])
			}
			b.WriteString(render.Markdown(res))
			if i < len(results)-1 {
				b.WriteString("\n---\n\n")
			}
		default:
			return "", exitError(3, "unknown format: %s", format)
		}
	}
	return b.String(), nil
}

func openCache(f *reviewFlags, logger *zap.Logger) *cache.Store {
	if f.noCache {
		return nil
	}
	dir := f.cacheDir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			logger.Warn("cache disabled, no home directory", zap.Error(err))
			return nil
		}
		dir = filepath.Join(home, ".codecritic")
	}
	store, err := cache.Open(filepath.Join(dir, "cache.db"), f.cacheTTL, logger)
	if err != nil {
		logger.Warn("cache disabled", zap.Error(err))
		return nil
	}
	return store
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	return cfg.Build()
}

// progressObserver logs loop progress through zap.
type progressObserver struct {
	logger *zap.Logger
}

func (o progressObserver) ReviewDone(iteration int, j *review.Judgement) {
	o.logger.Info("review pass finished",
		zap.Int("iteration", iteration),
		zap.Bool("valid", j.Valid),
		zap.Int("issues", len(j.Issues)),
		zap.Int("static_issues", len(j.StaticIssues)))
}

func (o progressObserver) FixDone(iteration int, ok bool) {
	o.logger.Info("fix attempt finished",
		zap.Int("iteration", iteration),
		zap.Bool("applied", ok))
}
