package db

import (
	"context"
	"time"
)

// Store is the knowledge-store facade. Consumers depend on the narrow
// sub-interfaces; the facade exists for wiring in main.
type Store interface {
	Pinger
	KVStore
	JSONStore
	KeyScanner
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks store connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations (embedding cache).
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// JSONStore provides JSON document operations. The query pipeline only reads;
// JSONSet exists for the ingestion side (seeding tools).
type JSONStore interface {
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	JSONSet(ctx context.Context, key, path string, data []byte) error
}

// KeyScanner iterates keys by pattern.
type KeyScanner interface {
	Scan(ctx context.Context, pattern string) ([]string, error)
}
