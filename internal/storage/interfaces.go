package storage

import "context"

// Backend is a string-keyed document store. It is the injectable seam
// between the room store and whatever actually holds the bytes, so the
// higher layers can run against an in-memory fake in tests.
//
// Get reports found=false when the key has never been written; a fresh
// backend must tolerate being empty at first use.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Close() error
}
