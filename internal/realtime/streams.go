package realtime

// Named realtime streams.
const (
	// StreamNetwork carries connectivity transitions from the network monitor.
	StreamNetwork = "network"
	// StreamCache carries cache metadata changes (refreshes, staleness, clears).
	StreamCache = "cache"
)

// Events published on the streams.
const (
	EventSnapshot = "snapshot"
	EventStatus   = "status"
	EventMetadata = "metadata"
)

// Known reports whether stream is one the hub publishes.
func Known(stream string) bool {
	switch normalizeStream(stream) {
	case StreamNetwork, StreamCache:
		return true
	default:
		return false
	}
}
