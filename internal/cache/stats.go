// File path: internal/cache/stats.go
package cache

import "time"

// TierStats is one tier's hit/miss accounting since process start.
type TierStats struct {
	Tier        string  `json:"tier"`
	Prefix      string  `json:"prefix"`
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Total       int64   `json:"total"`
	HitRate     float64 `json:"hit_rate"`
	StoreErrors int64   `json:"store_errors"`
	AvgLookupMS float64 `json:"avg_lookup_ms"`
}

// StatsSnapshot is the process-wide statistics surface. Counters accumulate
// from process start and reset only on restart.
type StatsSnapshot struct {
	Enabled bool        `json:"enabled"`
	Tiers   []TierStats `json:"tiers"`
}

// Stats returns a point-in-time copy of the per-tier counters.
func (e *Engine) Stats() StatsSnapshot {
	snapshot := StatsSnapshot{Enabled: e.Enabled()}
	for _, tier := range Tiers() {
		counters := e.counters[tier.Prefix]
		if counters == nil {
			continue
		}
		stats := TierStats{
			Tier:        tier.Name,
			Prefix:      tier.Prefix,
			Hits:        counters.hits.Load(),
			Misses:      counters.misses.Load(),
			StoreErrors: counters.storeErrors.Load(),
		}
		stats.Total = stats.Hits + stats.Misses
		if stats.Total > 0 {
			stats.HitRate = float64(stats.Hits) / float64(stats.Total)
		}
		if lookups := counters.lookups.Load(); lookups > 0 {
			avg := time.Duration(counters.lookupNanos.Load() / lookups)
			stats.AvgLookupMS = float64(avg.Microseconds()) / 1000.0
		}
		snapshot.Tiers = append(snapshot.Tiers, stats)
	}
	return snapshot
}
