// Package iocache is for persisting I/O results: raw upstream responses on
// disk and scrape runs in SQL.
package iocache

import (
	"sync"

	"github.com/huangsam/devhealth/internal/contract"
)

// RunStoreManager holds the process-wide run store.
type RunStoreManager struct {
	sync.RWMutex // Protects the store pointer during initialization
	runs         contract.RunStore
}

var _ contract.StoreManager = &RunStoreManager{} // Compile-time check

// GetRunStore returns the RunStore.
func (mgr *RunStoreManager) GetRunStore() contract.RunStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.runs
}
