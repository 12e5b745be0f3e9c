// Package handler exposes search over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/cache"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/middleware"
)

type SearchExecutor interface {
	Resolve(opts executor.Options) (executor.Options, error)
	Execute(ctx context.Context, q *parser.Query, opts executor.Options) (*executor.SearchResult, error)
}

type Handler struct {
	executor   SearchExecutor
	cache      *cache.QueryCache
	collector  *analytics.Collector
	maxResults int
	logger     *slog.Logger
}

// New creates a Handler. queryCache and collector may be nil.
func New(exec SearchExecutor, queryCache *cache.QueryCache, collector *analytics.Collector, maxResults int) *Handler {
	return &Handler{
		executor:   exec,
		cache:      queryCache,
		collector:  collector,
		maxResults: maxResults,
		logger:     slog.Default().With("component", "search-handler"),
	}
}

// Search handles GET /api/v1/search?q=&model=&k=&limit=. A blank q is a valid
// query with no results; a missing q is a client error.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	log := logger.FromContext(ctx)
	params := r.URL.Query()

	if !params.Has("q") {
		h.writeError(w, http.StatusBadRequest, "query parameter 'q' is required")
		return
	}
	query := params.Get("q")

	opts, err := h.parseOptions(params.Get("model"), params.Get("k"), params.Get("limit"))
	if err == nil {
		opts, err = h.executor.Resolve(opts)
	}
	if err != nil {
		h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
		return
	}

	q := parser.Parse(query)
	var result *executor.SearchResult
	cacheHit := false
	if h.cache != nil && !q.Empty() {
		result, cacheHit, err = h.cache.GetOrCompute(ctx, q, opts, func(ctx context.Context) (*executor.SearchResult, error) {
			return h.executor.Execute(ctx, q, opts)
		})
	} else {
		result, err = h.executor.Execute(ctx, q, opts)
	}
	if err != nil {
		log.Error("search execution failed", "query", query, "error", err)
		status := apperrors.HTTPStatusCode(err)
		msg := "search failed"
		if status < http.StatusInternalServerError {
			msg = err.Error()
		}
		h.writeError(w, status, msg)
		return
	}
	if cacheHit {
		cached := *result
		cached.Query = query
		result = &cached
	}

	latency := time.Since(start)
	log.Info("search completed",
		"query", query,
		"model", result.Model,
		"total_hits", result.TotalHits,
		"returned", len(result.Results),
		"cache_hit", cacheHit,
		"latency_ms", latency.Milliseconds(),
	)
	if h.collector != nil {
		h.collector.TrackSearch(analytics.NewSearchEvent(
			query, string(result.Model), result.K, q.Terms, result.UnknownTerms,
			result.TotalHits, len(result.Results), latency, cacheHit, middleware.GetRequestID(ctx),
		))
	}

	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) parseOptions(model, k, limit string) (executor.Options, error) {
	var opts executor.Options
	if model != "" {
		m, err := ranker.ParseModel(model)
		if err != nil {
			return opts, apperrors.InvalidInput("%v", err)
		}
		opts.Model = m
	}
	if k != "" {
		n, err := strconv.Atoi(k)
		if err != nil || n < 1 {
			return opts, apperrors.InvalidInput("k must be a positive integer")
		}
		opts.K = n
	}
	if limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 1 {
			return opts, apperrors.InvalidInput("limit must be a positive integer")
		}
		opts.Limit = n
	}
	if h.maxResults > 0 && opts.Limit > h.maxResults {
		opts.Limit = h.maxResults
	}
	return opts, nil
}

func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}

	hits, misses := h.cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": fmt.Sprintf("%.1f%%", hitRate),
	})
}

func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	if h.cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}

	if err := h.cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
