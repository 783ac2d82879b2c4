// File path: internal/cache/store.go
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrMiss signals that a key holds no live value. Callers cannot tell a
	// never-written key from an expired one; both report ErrMiss.
	ErrMiss = errors.New("cache miss")

	// ErrDisabled is returned by Ping when no store backend is configured.
	ErrDisabled = errors.New("cache store disabled")
)

// Store is the uniform adapter over the remote key-value backend. Any error
// other than ErrMiss from Get means the backend itself failed; callers must
// not confuse that with an ordinary miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	// Set upserts the value and resets its expiration. A zero ttl stores
	// the entry without expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	// DeleteMatching removes every key matching the glob pattern and
	// reports how many were deleted. The scan is best-effort under
	// concurrent writes: entries created mid-scan may survive, entries not
	// matching the pattern are never touched.
	DeleteMatching(ctx context.Context, pattern string) (int, error)
	Ping(ctx context.Context) error
	Close() error
}

// Noop is the null-object store used when no backend is configured or the
// configured backend failed at startup. Every lookup misses and every write
// succeeds silently, so the rest of the system degrades to compute-always.
type Noop struct{}

var _ Store = Noop{}

func (Noop) Get(ctx context.Context, key string) ([]byte, error) { return nil, ErrMiss }

func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error { return nil }

func (Noop) Delete(ctx context.Context, keys ...string) error { return nil }

func (Noop) DeleteMatching(ctx context.Context, pattern string) (int, error) { return 0, nil }

func (Noop) Ping(ctx context.Context) error { return ErrDisabled }

func (Noop) Close() error { return nil }
