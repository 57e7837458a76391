// Package iocache persists normalized traces and pipeline runs in SQL databases.
package iocache

import (
	"sync"

	"github.com/huangsam/fragscan/internal/contract"
)

// CacheStoreManager manages the trace cache and the run store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	traces       contract.CacheStore
	runs         contract.RunStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetTraceStore returns the normalized trace CacheStore.
func (mgr *CacheStoreManager) GetTraceStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.traces
}

// GetRunStore returns the RunStore.
func (mgr *CacheStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
