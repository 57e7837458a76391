package core

import (
	"context"

	"github.com/huangsam/fragscan/internal/contract"
)

// Context keys for pipeline options
type contextKey string

const (
	alignOnlyKey    contextKey = "alignOnly"
	cacheManagerKey contextKey = "cacheManager"
	runIDKey        contextKey = "runID"
	suppressKey     contextKey = "suppressHeader"
)

// WithSuppressHeader keeps run headers off stderr, for callers that own the output
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressKey, true)
}

// shouldSuppressHeader returns whether the run header is skipped
func shouldSuppressHeader(ctx context.Context) bool {
	suppress, _ := ctx.Value(suppressKey).(bool)
	return suppress
}

// withAlignOnly stops the pipeline after the ladder is aligned
func withAlignOnly(ctx context.Context) context.Context {
	return context.WithValue(ctx, alignOnlyKey, true)
}

// shouldAlignOnly returns whether allele channels are skipped
func shouldAlignOnly(ctx context.Context) bool {
	val := ctx.Value(alignOnlyKey)
	if val == nil {
		return false // default: size every channel
	}
	only, ok := val.(bool)
	return ok && only
}

// contextWithCacheManager makes the stores available to workers
func contextWithCacheManager(ctx context.Context, mgr contract.CacheManager) context.Context {
	if mgr == nil {
		return ctx
	}
	return context.WithValue(ctx, cacheManagerKey, mgr)
}

// cacheManagerFromContext returns the stores or nil
func cacheManagerFromContext(ctx context.Context) contract.CacheManager {
	mgr, _ := ctx.Value(cacheManagerKey).(contract.CacheManager)
	return mgr
}

// withRunID tags the context with the tracked run
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// getRunID returns the tracked run, if any
func getRunID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(runIDKey).(int64)
	return id, ok
}
