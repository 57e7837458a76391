package core

import (
	"context"
	"sync"
	"testing"

	"github.com/huangsam/fragscan/internal/iocache"
	"github.com/stretchr/testify/assert"
)

func TestContextDefaults(t *testing.T) {
	ctx := context.Background()
	assert.False(t, shouldAlignOnly(ctx))
	assert.Nil(t, cacheManagerFromContext(ctx))
	_, ok := getRunID(ctx)
	assert.False(t, ok)

	// A nil manager leaves the context untouched.
	assert.Equal(t, ctx, contextWithCacheManager(ctx, nil))
}

// TestContextConcurrentAccess tests that context values can be safely read by many workers.
func TestContextConcurrentAccess(t *testing.T) {
	mgr := &iocache.MockCacheManager{}
	ctx := withRunID(contextWithCacheManager(withAlignOnly(context.Background()), mgr), 42)

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			assert.True(t, shouldAlignOnly(ctx))
			assert.Same(t, mgr, cacheManagerFromContext(ctx))
			id, ok := getRunID(ctx)
			assert.True(t, ok)
			assert.Equal(t, int64(42), id)
		})
	}
	wg.Wait()
}

func TestSuppressHeader(t *testing.T) {
	assert.False(t, shouldSuppressHeader(context.Background()))
	assert.True(t, shouldSuppressHeader(WithSuppressHeader(context.Background())))
}
