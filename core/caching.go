package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/huangsam/fragscan/core/signal"
	"github.com/huangsam/fragscan/internal/contract"
	"github.com/huangsam/fragscan/schema"
)

// currentCacheVersion defines the version of the cached trace layout
const currentCacheVersion = 1

// traceMaxAge is how long a normalized trace stays valid.
const traceMaxAge = contract.DefaultTraceMaxAge * 24 * time.Hour

// cachedNormalize returns the normalized trace from store or computes and stores it.
func cachedNormalize(store contract.CacheStore, raw []float64, opts signal.Options) (schema.NormalizedTrace, error) {
	if store == nil {
		return signal.Normalize(raw, opts)
	}

	key := traceCacheKey(raw, opts)
	if nt, ok := checkCacheHit(store, key, len(raw)); ok {
		return nt, nil
	}

	nt, err := signal.Normalize(raw, opts)
	if err != nil {
		return nt, err
	}
	if data, err := json.Marshal(nt); err == nil {
		_ = store.Set(key, data, currentCacheVersion, time.Now().Unix())
	}
	return nt, nil
}

// checkCacheHit attempts to retrieve and validate a cached trace
func checkCacheHit(store contract.CacheStore, key string, n int) (schema.NormalizedTrace, bool) {
	data, version, ts, err := store.Get(key)
	if err != nil || version != currentCacheVersion {
		return schema.NormalizedTrace{}, false
	}
	if time.Since(time.Unix(ts, 0)) > traceMaxAge {
		return schema.NormalizedTrace{}, false
	}
	var nt schema.NormalizedTrace
	if err := json.Unmarshal(data, &nt); err != nil || len(nt.Signal) != n || len(nt.Baseline) != n {
		return schema.NormalizedTrace{}, false
	}
	return nt, true
}

// traceCacheKey hashes the raw samples together with every normalizer option.
func traceCacheKey(raw []float64, opts signal.Options) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "%s:%d:%d:%d:%g:%d:", opts.Method, opts.Window, opts.SmoothOrder, opts.SmoothWindow, opts.TophatFactor, len(raw))
	var buf [8]byte
	for _, v := range raw {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
