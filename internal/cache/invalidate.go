// File path: internal/cache/invalidate.go
package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/raglinehq/ragline/internal/common"
	"github.com/raglinehq/ragline/internal/common/telemetry"
)

// TargetAll purges every registered tier.
const TargetAll = "all"

// ErrUnknownTier reports an invalidation target that names no tier.
var ErrUnknownTier = fmt.Errorf("unknown cache tier")

// Coordinator performs pattern-scoped bulk deletion across tier namespaces.
// Deletion inherits the store's best-effort scan semantics; entries written
// during a purge may survive until the next one.
type Coordinator struct {
	store Store
}

func NewCoordinator(store Store) *Coordinator {
	if store == nil {
		store = Noop{}
	}
	return &Coordinator{store: store}
}

// Invalidate purges one tier by prefix, or every tier when target is "all",
// and reports the number of keys deleted. A store failure here leaves the
// system serving stale entries with no other signal, so it is always
// returned to the caller rather than swallowed.
func (c *Coordinator) Invalidate(ctx context.Context, target string) (int, error) {
	logger := common.Logger()
	target = strings.ToLower(strings.TrimSpace(target))
	if target == "" {
		return 0, fmt.Errorf("invalidation target required")
	}

	var tiers []Tier
	if target == TargetAll {
		tiers = Tiers()
	} else {
		tier, ok := TierByPrefix(target)
		if !ok {
			return 0, fmt.Errorf("%w %q", ErrUnknownTier, target)
		}
		tiers = []Tier{tier}
	}

	deleted := 0
	for _, tier := range tiers {
		count, err := c.store.DeleteMatching(ctx, tier.Pattern())
		deleted += count
		if err != nil {
			logger.Error("cache: invalidation failed", "tier", tier.Name, "deleted", deleted, "error", err)
			return deleted, fmt.Errorf("invalidate %s: %w", tier.Prefix, err)
		}
		logger.Info("cache: tier invalidated", "tier", tier.Name, "deleted", count)
	}
	telemetry.RecordInvalidation(deleted)
	return deleted, nil
}
