package checks

import (
	"context"
	"fmt"
	"time"

	"github.com/charlesng35/hvacquote/internal/cache"
	"github.com/charlesng35/hvacquote/internal/monitoring"
)

const defaultStoreTimeout = time.Second

// CacheStore returns a readiness probe for the local cache backend. Stores that cannot
// report liveness are assumed up.
func CacheStore(backend string, store cache.Store, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("cache_store", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if store == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDown,
				Details:  "cache store not configured",
				Duration: time.Since(start),
			}
		}

		pinger, ok := store.(cache.Pinger)
		if !ok {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusUp,
				Details:  backend,
				Duration: time.Since(start),
			}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultStoreTimeout))
		defer cancel()

		if err := pinger.Ping(probeCtx); err != nil {
			return monitoring.ResultFromError("cache_store", fmt.Errorf("%s: %w", backend, err), time.Since(start))
		}
		return monitoring.ProbeResult{
			Status:   monitoring.StatusUp,
			Details:  backend,
			Duration: time.Since(start),
		}
	})
}
