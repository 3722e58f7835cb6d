package domain

import (
	"context"
)

// MarketDataSource fetches the full currency listing from the market-data provider.
type MarketDataSource interface {
	FetchListing(ctx context.Context) ([]Currency, error)
}

// PreferenceStore is a key-value store for small user preferences.
// Get reports ok=false when the key has never been written.
type PreferenceStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// CoinRepository persists synced coin metadata.
type CoinRepository interface {
	UpsertCoin(ctx context.Context, coin *CoinInfo) error
	GetCoin(ctx context.Context, coinID int64) (*CoinInfo, error)
}

// IconCache resolves a currency thumbnail to a local file.
type IconCache interface {
	DownloadIcon(ctx context.Context, coinID int64) (string, error)
}
