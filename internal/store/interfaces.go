package store

import "context"

// KV is a string-keyed, string-valued blob store. The progress engine keeps one
// JSON document per key and treats the backend as opaque.
//
// Get reports a missing key as ("", false, nil).
type KV interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Verify at compile time that every backend implements KV.
var (
	_ KV = (*MemoryKV)(nil)
	_ KV = (*SQLiteKV)(nil)
	_ KV = (*PostgresKV)(nil)
)
