package store

import "sync"

// keyPool provides reusable byte slices for building database keys.
var keyPool = sync.Pool{
	New: func() any {
		// Namespace (~25 bytes) plus cache keys such as "pokemon-list:1025:0".
		return make([]byte, 0, 128)
	},
}

// buildKey joins the namespace parts with ':' using a pooled buffer.
// The returned slice is valid until releaseKey is called.
//
// Usage:
//
//	key := buildKey(s.name, s.version, string(cacheKey))
//	defer releaseKey(key)
//	item, err := txn.Get(key)
func buildKey(parts ...string) []byte {
	buf, _ := keyPool.Get().([]byte)
	buf = buf[:0]
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, ':')
		}
		buf = append(buf, p...)
	}
	return buf
}

// releaseKey returns a key buffer to the pool for reuse.
// After calling this, the key slice must not be used.
func releaseKey(key []byte) {
	if cap(key) <= 512 {
		keyPool.Put(key[:0])
	}
}
