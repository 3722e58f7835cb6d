package coinmarketcap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"coinwatch/internal/domain"
	"coinwatch/internal/infra"
)

const listingBody = `{
  "data": {
    "cryptoCurrencyList": [
      {"id": 1, "name": "Bitcoin", "symbol": "BTC", "slug": "bitcoin", "cmcRank": 1,
       "quotes": [{"name": "USD", "price": 64123.4567, "volume24h": 1.5e10, "marketCap": 1.2e12,
                   "percentChange1h": 0.1, "percentChange24h": 2.75, "percentChange7d": -1.2, "percentChange30d": 8}]},
      {"id": 1027, "name": "Ethereum", "symbol": "ETH", "slug": "ethereum", "cmcRank": 2,
       "quotes": [{"name": "USD", "price": 3012.5, "percentChange24h": -3.5}]},
      {"id": 99, "name": "Ghost", "symbol": "GST", "slug": "ghost", "cmcRank": 3, "quotes": []}
    ],
    "totalCount": "3"
  },
  "status": {"timestamp": "2026-10-17T00:00:00Z", "error_code": "0", "error_message": "SUCCESS"}
}`

func newTestClient(url string, maxRetries int) *Client {
	c := NewClient(url, 500, 5, maxRetries)
	c.backoff = func(int) time.Duration { return time.Millisecond }
	return c
}

func TestClient_FetchListing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != listingPath {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("start") != "1" || r.URL.Query().Get("limit") != "500" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(listingBody))
	}))
	defer server.Close()

	list, err := newTestClient(server.URL+"/", 0).FetchListing(context.Background())
	if err != nil {
		t.Fatalf("FetchListing failed: %v", err)
	}

	// Entry without quotes is dropped
	if len(list) != 2 {
		t.Fatalf("Expected 2 currencies, got %d", len(list))
	}

	btc := list[0]
	if btc.Symbol != "BTC" || btc.ID != 1 || btc.Rank != 1 {
		t.Errorf("unexpected BTC fields: %+v", btc)
	}
	if btc.Current().Price.String() != "64123.4567" {
		t.Errorf("price = %s", btc.Current().Price)
	}
	if btc.Current().PercentChange24h.String() != "2.75" {
		t.Errorf("change = %s", btc.Current().PercentChange24h)
	}
	if !list[1].Current().Volume24h.IsZero() {
		t.Error("missing volume should decode as zero")
	}
}

func TestClient_RetryOnServerError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(listingBody))
	}))
	defer server.Close()

	list, err := newTestClient(server.URL, 2).FetchListing(context.Background())
	if err != nil {
		t.Fatalf("FetchListing should succeed after retries: %v", err)
	}
	if len(list) != 2 {
		t.Errorf("Expected 2 currencies, got %d", len(list))
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 calls, got %d", calls.Load())
	}
}

func TestClient_NoRetryByDefault(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 0).FetchListing(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !domain.IsTransient(err) {
		t.Error("5xx should be reported as transient")
	}
	if calls.Load() != 1 {
		t.Errorf("Expected a single attempt, got %d", calls.Load())
	}
}

func TestClient_FatalErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		stage  string
	}{
		{"client error", http.StatusForbidden, "", "status"},
		{"malformed json", http.StatusOK, "{not json", "decode"},
		{"empty listing", http.StatusOK, `{"data":{"cryptoCurrencyList":[]},"status":{"error_message":"SUCCESS"}}`, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL, 3).FetchListing(context.Background())
			var listErr *domain.ListingError
			if !errors.As(err, &listErr) {
				t.Fatalf("expected ListingError, got %v", err)
			}
			if listErr.Transient {
				t.Error("error should not be transient")
			}
			if listErr.Stage != tt.stage {
				t.Errorf("Stage = %q, want %q", listErr.Stage, tt.stage)
			}
			if calls.Load() != 1 {
				t.Errorf("Expected 1 call, got %d", calls.Load())
			}
		})
	}
}

func TestClient_Cancellation(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := newTestClient(server.URL, 3).FetchListing(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewClientFromConfig_UsesConfiguredBackoff(t *testing.T) {
	cfg := infra.DefaultConfig()
	cfg.API.CoinMarketCap.RetryBaseMs = 40
	cfg.API.CoinMarketCap.RetryMaxMs = 100
	cfg.API.CoinMarketCap.RetryJitter = 0

	c := NewClientFromConfig(cfg)
	if got := c.backoff(0); got != 40*time.Millisecond {
		t.Errorf("backoff(0) = %s, want 40ms", got)
	}
	if got := c.backoff(3); got != 100*time.Millisecond {
		t.Errorf("backoff(3) = %s, want 100ms cap", got)
	}
}
