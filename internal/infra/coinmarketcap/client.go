package coinmarketcap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"coinwatch/internal/domain"
	"coinwatch/internal/infra"
)

const listingPath = "/data-api/v3/cryptocurrency/listing"

// Client fetches the currency listing from the CoinMarketCap data API.
type Client struct {
	baseURL    string
	limit      int
	maxRetries int
	httpClient *http.Client
	backoff    func(retryCount int) time.Duration
}

// NewClient creates a listing client with the default retry backoff.
// maxRetries=0 means a single attempt.
func NewClient(baseURL string, limit, timeoutSec, maxRetries int) *Client {
	defaults := infra.DefaultConfig()
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		limit:      limit,
		maxRetries: maxRetries,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
		backoff: infra.BackoffFromConfig(defaults).Delay,
	}
}

// NewClientFromConfig builds a client from the coinmarketcap config section.
func NewClientFromConfig(cfg *infra.Config) *Client {
	cmc := cfg.API.CoinMarketCap
	c := NewClient(cmc.RestURL, cmc.Limit, cmc.TimeoutSec, cmc.MaxRetries)
	c.backoff = infra.BackoffFromConfig(cfg).Delay
	return c
}

// FetchListing fetches the listing, retrying transient failures with backoff.
func (c *Client) FetchListing(ctx context.Context) ([]domain.Currency, error) {
	var lastErr error
	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			delay := c.backoff(i - 1)
			slog.Info("Retrying listing fetch", slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		list, err := c.doFetch(ctx)
		if err == nil {
			return list, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		slog.Warn("Listing fetch attempt failed", slog.Int("attempt", i+1), slog.Any("error", err))
		if !domain.IsTransient(err) {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) listingURL() string {
	return fmt.Sprintf("%s%s?start=1&limit=%d", c.baseURL, listingPath, c.limit)
}

func (c *Client) doFetch(ctx context.Context) ([]domain.Currency, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.listingURL(), nil)
	if err != nil {
		return nil, domain.PermanentListingError("request", err)
	}

	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, domain.TransientListingError("request", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, domain.ListingStatusError(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.TransientListingError("read", err)
	}

	var data listingResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, domain.PermanentListingError("decode", err)
	}

	if len(data.Data.CryptoCurrencyList) == 0 {
		msg := data.Status.ErrorMessage
		if msg == "" {
			msg = "empty listing"
		}
		return nil, domain.PermanentListingError("decode", errors.New(msg))
	}

	list, dropped := toDomain(data.Data.CryptoCurrencyList)
	if dropped > 0 {
		slog.Debug("Dropped currencies without quotes", slog.Int("count", dropped))
	}
	return list, nil
}
