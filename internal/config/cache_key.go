package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// RecordLockKey returns the lock key guarding writes to one record
func (r *CacheKeyStruct) RecordLockKey(collection, recordID string) string {
	return fmt.Sprintf("cleanup:lock:%s:%s", collection, recordID)
}

// PlanKey returns the cache key for a computed cleanup plan
func (r *CacheKeyStruct) PlanKey(planID string) string {
	return fmt.Sprintf("cleanup:plan:%s", planID)
}

// RunKey returns the hash key holding the counters of an apply run
func (r *CacheKeyStruct) RunKey(runID string) string {
	return fmt.Sprintf("cleanup:run:%s", runID)
}

var CacheKey = NewCacheKeyStruct()
