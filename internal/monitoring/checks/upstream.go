package checks

import (
	"context"
	"time"

	"github.com/charlesng35/hvacquote/internal/monitoring"
)

const defaultUpstreamTimeout = 3 * time.Second

// Pinger reports whether the remote quoting API is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Upstream probes the remote API. An unreachable upstream is reported as degraded, never
// down: the agent keeps serving cached data while offline.
func Upstream(client Pinger, timeout time.Duration) monitoring.Check {
	return monitoring.NewCheck("upstream", func(ctx context.Context) monitoring.ProbeResult {
		start := time.Now()
		if client == nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  "upstream not configured",
				Duration: time.Since(start),
			}
		}

		probeCtx, cancel := context.WithTimeout(ctx, chooseTimeout(timeout, defaultUpstreamTimeout))
		defer cancel()

		if err := client.Ping(probeCtx); err != nil {
			return monitoring.ProbeResult{
				Status:   monitoring.StatusDegraded,
				Details:  err.Error(),
				Duration: time.Since(start),
			}
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp, Duration: time.Since(start)}
	})
}

// OnlineSource exposes the current connectivity view.
type OnlineSource interface {
	IsOnline() bool
}

// Network reports the monitor's connectivity state without touching the network.
func Network(source OnlineSource) monitoring.Check {
	return monitoring.NewCheck("network", func(context.Context) monitoring.ProbeResult {
		if source == nil || !source.IsOnline() {
			return monitoring.ProbeResult{Status: monitoring.StatusDegraded, Details: "offline"}
		}
		return monitoring.ProbeResult{Status: monitoring.StatusUp, Details: "online"}
	})
}
