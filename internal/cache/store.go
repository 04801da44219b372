// Package cache provides the small byte-value cache used for short-lived
// process-wide state, currently the token-verification signing keys.
// Concurrent refreshes may race; the last write wins, which is harmless for
// idempotent content like a JWKS document.
package cache

import (
	"context"
	"time"
)

type Store interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
