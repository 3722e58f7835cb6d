package infra

import (
	"testing"
	"time"
)

func TestMetrics_RecordFetch(t *testing.T) {
	m := &Metrics{}

	m.RecordFetch(10*time.Millisecond, 100)
	m.RecordFetch(20*time.Millisecond, 100)
	m.RecordFetch(30*time.Millisecond, 120)

	snap := m.Snapshot()

	if snap.FetchesTotal != 3 {
		t.Errorf("Expected 3 fetches, got %d", snap.FetchesTotal)
	}
	if snap.AvgFetchLatency != "20ms" {
		t.Errorf("Expected avg latency 20ms, got %s", snap.AvgFetchLatency)
	}
	if snap.SnapshotSize != 120 {
		t.Errorf("Expected snapshot size 120, got %d", snap.SnapshotSize)
	}
	if snap.LastFetch.IsZero() {
		t.Error("LastFetch should be set")
	}
}

func TestMetrics_Clients(t *testing.T) {
	m := &Metrics{}

	m.IncrementClients()
	m.IncrementClients()
	m.DecrementClients()

	if got := m.Snapshot().StreamClients; got != 1 {
		t.Errorf("Expected 1 client, got %d", got)
	}
}

func TestMetrics_Reset(t *testing.T) {
	m := &Metrics{}

	m.RecordFetch(time.Millisecond, 1)
	m.RecordFetchError()
	m.RecordToggle()
	m.IncrementClients()

	m.Reset()
	snap := m.Snapshot()

	if snap.FetchesTotal != 0 || snap.FetchErrors != 0 || snap.WatchlistToggles != 0 {
		t.Errorf("Expected zeroed counters after reset: %+v", snap)
	}
	if snap.StreamClients != 0 {
		t.Error("Expected 0 clients after reset")
	}
	if !snap.LastFetch.IsZero() {
		t.Error("Expected zero LastFetch after reset")
	}
}
