// File path: internal/app/app.go
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/raglinehq/ragline/internal/artifact"
	"github.com/raglinehq/ragline/internal/cache"
	"github.com/raglinehq/ragline/internal/common"
	"github.com/raglinehq/ragline/internal/embed"
	"github.com/raglinehq/ragline/internal/ingest"
	"github.com/raglinehq/ragline/internal/ledger"
	"github.com/raglinehq/ragline/internal/llm"
	"github.com/raglinehq/ragline/internal/pipeline"
	"github.com/raglinehq/ragline/internal/sqldb"
	"github.com/raglinehq/ragline/internal/vector"
)

type closer interface {
	Close() error
}

// App wires the cache engine, stores, and pipelines together and exposes
// accessors for the API layer.
type App struct {
	cfg Config

	engine      *cache.Engine
	invalidator *cache.Coordinator
	artifacts   *artifact.Cache
	approvals   *ledger.Ledger
	provider    llm.Provider
	vector      vector.Store
	executor    *sqldb.Executor

	dispatcher *pipeline.Dispatcher
	sqlPipe    *pipeline.SQLPipeline
	ingestor   *ingest.Service

	closers []closer
}

// New constructs the application container from configuration and optional
// overrides. Missing backends disable their features instead of failing.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	logger := common.Logger()
	settings := options{}
	for _, opt := range opts {
		if opt != nil {
			opt(&settings)
		}
	}

	store := settings.store
	if store == nil {
		redisCfg, err := cache.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("load cache config: %w", err)
		}
		if redisCfg.Enabled() {
			redisStore, err := cache.OpenRedis(ctx, redisCfg)
			if err != nil {
				logger.Warn("app: cache backend unreachable, starting degraded", "error", err)
			}
			store = redisStore
		} else {
			logger.Info("app: no cache backend configured, running pass-through")
		}
	}
	engine := cache.NewEngine(store)
	invalidator := cache.NewCoordinator(engine.Store())

	provider := settings.provider
	if provider == nil {
		provider = llm.NewProvider()
	}

	vec := settings.vector
	if vec == nil && shouldEnableVector() {
		client, err := vector.NewFromEnv(ctx)
		if err != nil {
			return nil, fmt.Errorf("init vector client: %w", err)
		}
		vec = client
	}

	executor := settings.executor
	if executor == nil {
		dbCfg, err := sqldb.LoadConfig()
		if err != nil {
			return nil, fmt.Errorf("load database config: %w", err)
		}
		if dbCfg.Enabled() {
			executor, err = sqldb.Open(ctx, dbCfg)
			if err != nil {
				return nil, fmt.Errorf("init database executor: %w", err)
			}
		} else {
			logger.Info("app: no database configured, SQL execution disabled")
		}
	}

	artifacts, err := artifact.OpenFromEnv(ctx, cfg.ArtifactRoot)
	if err != nil {
		return nil, fmt.Errorf("init artifact cache: %w", err)
	}

	embedModel := strings.TrimSpace(os.Getenv("OPENAI_EMBED_MODEL"))
	if embedModel == "" {
		embedModel = "text-embedding-3-small"
	}
	embedder := embed.New(provider, engine, embedModel)
	approvals := ledger.New()

	sqlPipe := pipeline.NewSQLPipeline(engine, provider, executor, approvals, cfg.AutoApproveSQL)
	docPipe := pipeline.NewDocumentPipeline(engine, embedder, vec, provider)

	a := &App{
		cfg:         cfg,
		engine:      engine,
		invalidator: invalidator,
		artifacts:   artifacts,
		approvals:   approvals,
		provider:    provider,
		vector:      vec,
		executor:    executor,
		dispatcher:  pipeline.NewDispatcher(sqlPipe, docPipe),
		sqlPipe:     sqlPipe,
		ingestor:    ingest.NewService(artifacts, embedder, vec, invalidator),
	}
	if engine.Enabled() {
		a.closers = append(a.closers, engine.Store())
	}
	if executor != nil {
		a.closers = append(a.closers, executor)
	}
	if client, ok := vec.(*vector.Client); ok && client != nil {
		a.closers = append(a.closers, client)
	}
	return a, nil
}

// Engine exposes the cache engine for stats reporting.
func (a *App) Engine() *cache.Engine {
	if a == nil {
		return nil
	}
	return a.engine
}

// Invalidator exposes the cache invalidation coordinator.
func (a *App) Invalidator() *cache.Coordinator {
	if a == nil {
		return nil
	}
	return a.invalidator
}

// Approvals exposes the pending statement ledger.
func (a *App) Approvals() *ledger.Ledger {
	if a == nil {
		return nil
	}
	return a.approvals
}

// Dispatcher exposes the routed query entry point.
func (a *App) Dispatcher() *pipeline.Dispatcher {
	if a == nil {
		return nil
	}
	return a.dispatcher
}

// SQL exposes the SQL pipeline for approved-statement execution.
func (a *App) SQL() *pipeline.SQLPipeline {
	if a == nil {
		return nil
	}
	return a.sqlPipe
}

// Ingestor exposes the document ingestion service.
func (a *App) Ingestor() *ingest.Service {
	if a == nil {
		return nil
	}
	return a.ingestor
}

// Capabilities reports which optional features this instance can serve.
// Pure over the wired collaborators; handlers use it for health output.
type Capabilities struct {
	Cache       bool   `json:"cache"`
	Database    bool   `json:"database"`
	VectorStore bool   `json:"vector_store"`
	Provider    string `json:"provider"`
}

func (a *App) Capabilities() Capabilities {
	if a == nil {
		return Capabilities{}
	}
	caps := Capabilities{
		Cache:    a.engine.Enabled(),
		Database: a.executor != nil,
		Provider: a.provider.Name(),
	}
	if a.vector != nil && a.vector.Available() {
		caps.VectorStore = true
	}
	return caps
}

// Close releases resources in reverse construction order.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if a.closers[i] == nil {
			continue
		}
		if cerr := a.closers[i].Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}

func shouldEnableVector() bool {
	keys := []string{
		"CHROMADB_CONFIG_FILE",
		"CHROMADB_HOST",
		"CHROMADB_PORT",
		"CHROMADB_SCHEME",
		"CHROMADB_COLLECTION",
		"CHROMADB_API_KEY",
		"CHROMADB_TIMEOUT",
	}
	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok && strings.TrimSpace(value) != "" {
			return true
		}
	}
	return false
}
