// Package cache provides a key-value store with per-entry expiry, used to
// avoid redundant upstream calls for identical requests within a short window.
// The cache stores opaque payloads; TTLs are chosen by the caller per key
// category.
package cache

import "time"

type Cache interface {
	Set(key string, value []byte, ttl time.Duration)
	Get(key string) ([]byte, bool)
	Has(key string) bool
	Delete(key string)
	Clear()
	Stop()
}
