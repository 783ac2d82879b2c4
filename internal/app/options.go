// File path: internal/app/options.go
package app

import (
	"github.com/raglinehq/ragline/internal/cache"
	"github.com/raglinehq/ragline/internal/llm"
	"github.com/raglinehq/ragline/internal/sqldb"
	"github.com/raglinehq/ragline/internal/vector"
)

type Option func(*options)

type options struct {
	store    cache.Store
	provider llm.Provider
	vector   vector.Store
	executor *sqldb.Executor
}

// WithCacheStore injects a cache store implementation. Primarily used in
// tests with miniredis.
func WithCacheStore(store cache.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithProvider injects a language model provider.
func WithProvider(provider llm.Provider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithVectorStore injects a vector store implementation.
func WithVectorStore(store vector.Store) Option {
	return func(o *options) {
		o.vector = store
	}
}

// WithExecutor injects a database executor.
func WithExecutor(executor *sqldb.Executor) Option {
	return func(o *options) {
		o.executor = executor
	}
}
