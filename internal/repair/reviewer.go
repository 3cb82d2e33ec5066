// Package repair reviews code and iteratively fixes what the review finds.
package repair

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/codecritic/internal/analysis"
	"github.com/dshills/codecritic/internal/cache"
	"github.com/dshills/codecritic/internal/interpret"
	"github.com/dshills/codecritic/internal/llm"
	"github.com/dshills/codecritic/internal/metrics"
	"github.com/dshills/codecritic/internal/prompt"
	"github.com/dshills/codecritic/internal/redact"
	"github.com/dshills/codecritic/internal/review"
	"github.com/dshills/codecritic/internal/source"
)

const reviewTemperature = 0.2

const cacheCategory = "validation"

// ReviewerOptions configures a Reviewer. The zero value is usable: no cache,
// no logging, provider defaults for the model.
type ReviewerOptions struct {
	Cache          *cache.Store
	Logger         *zap.Logger
	Model          string
	Prompt         prompt.Context
	MaxIssues      int
	MaxSuggestions int
}

// Reviewer runs one full review pass over a unit: cached result if one
// exists, otherwise static analysis, metrics, and a model judgement merged
// into one normalized result. A Reviewer never fails; when the model is
// unreachable it degrades to the static findings alone.
type Reviewer struct {
	provider llm.Provider
	analyzer *analysis.Analyzer
	opts     ReviewerOptions
	logger   *zap.Logger
}

// NewReviewer builds a reviewer over a provider and analyzer.
func NewReviewer(provider llm.Provider, analyzer *analysis.Analyzer, opts ReviewerOptions) *Reviewer {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reviewer{provider: provider, analyzer: analyzer, opts: opts, logger: logger}
}

// Review judges a unit. The result is always non-nil and normalized.
func (r *Reviewer) Review(ctx context.Context, u *source.Unit) *review.Judgement {
	key := r.cacheKey(u)
	if j := r.cached(key); j != nil {
		return j
	}

	static := r.analyzer.Analyze(u)
	m := metrics.Collect(u)

	j := r.judge(ctx, u)
	j.StaticIssues = static
	j.Metrics = &m
	j.Normalize()
	review.Truncate(j, r.opts.MaxIssues, r.opts.MaxSuggestions)

	r.store(key, j)
	return j
}

// judge asks the model for its verdict. Model failures degrade to an empty
// valid judgement so the static findings still stand on their own.
func (r *Reviewer) judge(ctx context.Context, u *source.Unit) *review.Judgement {
	masked := source.New(redact.Mask(u.Raw))
	p := prompt.BuildReview(masked, r.opts.Prompt)

	raw, err := r.provider.Generate(ctx, p, llm.Settings{
		Model:       r.opts.Model,
		System:      prompt.ReviewSystem,
		Temperature: reviewTemperature,
	})
	if err != nil {
		r.logger.Warn("model review unavailable, using static analysis only",
			zap.String("provider", r.provider.Name()), zap.Error(err))
		return &review.Judgement{Valid: true, Source: review.ProvenanceStatic}
	}
	return interpret.Parse(raw)
}

// cacheKey derives the cache key from the code and every parameter that
// shapes a review. Reviews made under a different model or prompt context
// never replay each other's judgements.
func (r *Reviewer) cacheKey(u *source.Unit) string {
	p := r.opts.Prompt
	params := fmt.Sprintf("%s|%s|%s|%s|%s|", r.opts.Model, p.Task, p.Framework, p.Dataset, p.FileType)
	return cache.Key("review", params+u.Raw)
}

// cacheEntry wraps a judgement with its provenance, which the judgement wire
// shape deliberately leaves out.
type cacheEntry struct {
	Source    review.Provenance `json:"source"`
	Judgement *review.Judgement `json:"judgement"`
}

func (r *Reviewer) cached(key string) *review.Judgement {
	if r.opts.Cache == nil {
		return nil
	}
	value, ok, err := r.opts.Cache.Get(key)
	if err != nil {
		r.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	var e cacheEntry
	if err := json.Unmarshal([]byte(value), &e); err != nil || e.Judgement == nil {
		r.logger.Warn("cache entry corrupt", zap.String("key", key), zap.Error(err))
		return nil
	}
	j := e.Judgement
	j.Source = e.Source
	if !j.Source.Valid() {
		j.Source = review.ProvenanceModel
	}
	j.Normalize()
	r.logger.Debug("using cached review", zap.String("key", key))
	return j
}

func (r *Reviewer) store(key string, j *review.Judgement) {
	if r.opts.Cache == nil {
		return
	}
	data, err := json.Marshal(cacheEntry{Source: j.Source, Judgement: j})
	if err != nil {
		r.logger.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := r.opts.Cache.Set(key, string(data), cacheCategory); err != nil {
		r.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
