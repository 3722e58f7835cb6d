package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability without external dependencies.
// Uses atomic operations for thread-safety.
type Metrics struct {
	// Counters
	fetchesTotal     atomic.Uint64
	fetchErrors      atomic.Uint64
	watchlistToggles atomic.Uint64
	iconsDownloaded  atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	streamClients  atomic.Int32
	snapshotSize   atomic.Int64
	lastFetchUnixS atomic.Int64
}

// GlobalMetrics is the singleton metrics instance.
var GlobalMetrics = &Metrics{}

// RecordFetch records a successful listing fetch with its latency and size.
func (m *Metrics) RecordFetch(latency time.Duration, currencies int) {
	m.fetchesTotal.Add(1)
	m.latencySumNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)
	m.snapshotSize.Store(int64(currencies))
	m.lastFetchUnixS.Store(time.Now().Unix())
}

// RecordFetchError records a failed listing fetch.
func (m *Metrics) RecordFetchError() {
	m.fetchErrors.Add(1)
}

// RecordToggle records a watchlist toggle.
func (m *Metrics) RecordToggle() {
	m.watchlistToggles.Add(1)
}

// RecordIconDownload records a freshly downloaded (not cached) icon.
func (m *Metrics) RecordIconDownload() {
	m.iconsDownloaded.Add(1)
}

// IncrementClients increments connected stream clients by 1.
func (m *Metrics) IncrementClients() {
	m.streamClients.Add(1)
}

// DecrementClients decrements connected stream clients by 1.
func (m *Metrics) DecrementClients() {
	m.streamClients.Add(-1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	FetchesTotal     uint64    `json:"fetches_total"`
	FetchErrors      uint64    `json:"fetch_errors"`
	WatchlistToggles uint64    `json:"watchlist_toggles"`
	IconsDownloaded  uint64    `json:"icons_downloaded"`
	AvgFetchLatency  string    `json:"avg_fetch_latency"`
	StreamClients    int32     `json:"stream_clients"`
	SnapshotSize     int64     `json:"snapshot_size"`
	LastFetch        time.Time `json:"last_fetch"`
	Timestamp        time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency time.Duration
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = time.Duration(m.latencySumNs.Load() / int64(count))
	}

	var lastFetch time.Time
	if ts := m.lastFetchUnixS.Load(); ts > 0 {
		lastFetch = time.Unix(ts, 0)
	}

	return MetricsSnapshot{
		FetchesTotal:     m.fetchesTotal.Load(),
		FetchErrors:      m.fetchErrors.Load(),
		WatchlistToggles: m.watchlistToggles.Load(),
		IconsDownloaded:  m.iconsDownloaded.Load(),
		AvgFetchLatency:  avgLatency.String(),
		StreamClients:    m.streamClients.Load(),
		SnapshotSize:     m.snapshotSize.Load(),
		LastFetch:        lastFetch,
		Timestamp:        time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.fetchesTotal.Store(0)
	m.fetchErrors.Store(0)
	m.watchlistToggles.Store(0)
	m.iconsDownloaded.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.streamClients.Store(0)
	m.snapshotSize.Store(0)
	m.lastFetchUnixS.Store(0)
}
