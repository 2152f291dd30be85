package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamSnapshotKey returns the cache key for a sanitized exam snapshot.
func (r *CacheKeyStruct) ExamSnapshotKey(examID string) string {
	return fmt.Sprintf("exam:%s:snapshot", examID)
}

var CacheKey = NewCacheKeyStruct()
