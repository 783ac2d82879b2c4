// File path: internal/cache/engine.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/raglinehq/ragline/internal/common"
	"github.com/raglinehq/ragline/internal/common/telemetry"
	"github.com/raglinehq/ragline/internal/fingerprint"
)

// Engine is the central tier registry bound to one store. Lookups and writes
// are best-effort: a failing store degrades the engine to compute-always and
// is logged and counted, never surfaced to the primary request.
type Engine struct {
	store    Store
	enabled  bool
	counters map[string]*tierCounters
}

type tierCounters struct {
	hits        atomic.Int64
	misses      atomic.Int64
	storeErrors atomic.Int64
	lookups     atomic.Int64
	lookupNanos atomic.Int64
}

// NewEngine builds an engine over the given store. A nil store yields the
// pass-through engine (noop store, every lookup misses).
func NewEngine(store Store) *Engine {
	enabled := true
	if store == nil {
		store = Noop{}
		enabled = false
	}
	if _, isNoop := store.(Noop); isNoop {
		enabled = false
	}
	counters := make(map[string]*tierCounters, len(Tiers()))
	for _, tier := range Tiers() {
		counters[tier.Prefix] = &tierCounters{}
	}
	return &Engine{store: store, enabled: enabled, counters: counters}
}

// Store exposes the underlying adapter for the invalidation coordinator and
// health reporting.
func (e *Engine) Store() Store {
	if e == nil {
		return Noop{}
	}
	return e.store
}

// Enabled reports whether a real backend is wired in.
func (e *Engine) Enabled() bool {
	return e != nil && e.enabled
}

// Lookup fetches the raw tier entry for a canonical input. The boolean
// reports a hit. Store failures count as misses for the caller but are
// logged and tracked separately so degradation stays visible.
func (e *Engine) Lookup(ctx context.Context, tier Tier, canonical []byte) ([]byte, bool) {
	counters := e.counters[tier.Prefix]
	start := time.Now()
	key := tier.Key(fingerprint.Sum(canonical))
	payload, err := e.store.Get(ctx, key)
	elapsed := time.Since(start)
	if counters != nil {
		counters.lookups.Add(1)
		counters.lookupNanos.Add(elapsed.Nanoseconds())
	}
	if err != nil {
		if errors.Is(err, ErrMiss) {
			e.recordMiss(tier)
			return nil, false
		}
		e.recordStoreError(tier, "get", err)
		return nil, false
	}
	e.recordHit(tier)
	return payload, true
}

// StoreValue writes a raw tier entry with the tier's TTL. Failures are
// logged and counted; caching is best-effort and never aborts the caller.
func (e *Engine) StoreValue(ctx context.Context, tier Tier, canonical, payload []byte) {
	key := tier.Key(fingerprint.Sum(canonical))
	if err := e.store.Set(ctx, key, payload, tier.TTL); err != nil {
		e.recordStoreError(tier, "set", err)
	}
}

// LookupOrCompute resolves a tier entry, invoking compute on a miss and
// writing the result back under the tier's TTL. compute runs at most once
// per call; concurrent calls for the same fingerprint may still race, which
// is accepted because writes are idempotent upserts. Collaborator errors
// surface unchanged and nothing is cached for them.
func LookupOrCompute[T any](ctx context.Context, e *Engine, tier Tier, canonical []byte, compute func(context.Context) (T, error)) (T, bool, error) {
	var value T
	if payload, ok := e.Lookup(ctx, tier, canonical); ok {
		if err := json.Unmarshal(payload, &value); err == nil {
			return value, true, nil
		}
		// Undecodable entries are treated as misses and overwritten below.
		common.Logger().Warn("cache: discarding undecodable entry", "tier", tier.Name)
	}
	value, err := compute(ctx)
	if err != nil {
		return value, false, err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		common.Logger().Warn("cache: value not serializable, skipping write-back", "tier", tier.Name, "error", err)
		return value, false, nil
	}
	e.StoreValue(ctx, tier, canonical, payload)
	return value, false, nil
}

// StoreRecord JSON-encodes a record and writes it under the tier's TTL.
func (e *Engine) StoreRecord(ctx context.Context, tier Tier, canonical []byte, record any) {
	payload, err := json.Marshal(record)
	if err != nil {
		common.Logger().Warn("cache: record not serializable, skipping write-back", "tier", tier.Name, "error", err)
		return
	}
	e.StoreValue(ctx, tier, canonical, payload)
}

// DecodeRecord unmarshals a raw tier entry into the given record.
func DecodeRecord(payload []byte, record any) error {
	return json.Unmarshal(payload, record)
}

func (e *Engine) recordHit(tier Tier) {
	if counters := e.counters[tier.Prefix]; counters != nil {
		counters.hits.Add(1)
	}
	telemetry.RecordCacheLookup(tier.Prefix, true)
}

func (e *Engine) recordMiss(tier Tier) {
	if counters := e.counters[tier.Prefix]; counters != nil {
		counters.misses.Add(1)
	}
	telemetry.RecordCacheLookup(tier.Prefix, false)
}

func (e *Engine) recordStoreError(tier Tier, op string, err error) {
	if counters := e.counters[tier.Prefix]; counters != nil {
		counters.misses.Add(1)
		counters.storeErrors.Add(1)
	}
	telemetry.RecordCacheLookup(tier.Prefix, false)
	telemetry.RecordCacheStoreError()
	common.Logger().Warn("cache: store unavailable, degrading to compute", "tier", tier.Name, "op", op, "error", err)
}
