package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"coinwatch/internal/domain"
)

// AssetSync records coin metadata and caches thumbnails for listed currencies.
type AssetSync struct {
	repo        domain.CoinRepository
	icons       domain.IconCache // nil disables icon downloads
	concurrency int
	deactivate  func(ctx context.Context, activeIDs []int64) error

	running sync.Mutex
}

// NewAssetSync creates an AssetSync. icons may be nil.
func NewAssetSync(repo domain.CoinRepository, icons domain.IconCache, concurrency int) *AssetSync {
	if concurrency <= 0 {
		concurrency = 5
	}
	a := &AssetSync{repo: repo, icons: icons, concurrency: concurrency}
	if d, ok := repo.(interface {
		DeactivateMissing(ctx context.Context, activeIDs []int64) error
	}); ok {
		a.deactivate = d.DeactivateMissing
	}
	return a
}

// Sync upserts every currency and downloads missing icons. Overlapping
// calls are skipped rather than queued.
func (a *AssetSync) Sync(ctx context.Context, list []domain.Currency) {
	if !a.running.TryLock() {
		slog.Debug("Asset sync already running, skipping")
		return
	}
	defer a.running.Unlock()

	slog.Info("🔄 Starting asset synchronization...", slog.Int("currencies", len(list)))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, a.concurrency) // Limit concurrent downloads

	ids := make([]int64, 0, len(list))
	for _, c := range list {
		ids = append(ids, c.ID)

		wg.Add(1)
		go func(c domain.Currency) {
			defer wg.Done()
			select {
			case <-ctx.Done():
				return
			case semaphore <- struct{}{}: // Acquire
			}
			defer func() { <-semaphore }() // Release

			a.syncOne(ctx, c)
		}(c)
	}

	wg.Wait()

	if a.deactivate != nil && ctx.Err() == nil {
		if err := a.deactivate(ctx, ids); err != nil {
			slog.Warn("Failed to deactivate delisted coins", slog.Any("error", err))
		}
	}
	slog.Info("✨ Asset synchronization completed")
}

func (a *AssetSync) syncOne(ctx context.Context, c domain.Currency) {
	coin := &domain.CoinInfo{
		CoinID:    c.ID,
		Symbol:    c.Symbol,
		Name:      c.Name,
		IsActive:  true,
		UpdatedAt: time.Now(),
	}

	// Preserve icon state from a previous sync
	existing, err := a.repo.GetCoin(ctx, c.ID)
	if err != nil {
		slog.Warn("Failed to read coin", slog.Int64("coin_id", c.ID), slog.Any("error", err))
	}
	if existing != nil {
		coin.IconPath = existing.IconPath
		coin.LastSyncedAt = existing.LastSyncedAt
		coin.CreatedAt = existing.CreatedAt
	}

	if a.icons != nil && coin.IconPath == "" {
		path, err := a.icons.DownloadIcon(ctx, c.ID)
		if err != nil {
			slog.Warn("Failed to download icon", slog.String("symbol", c.Symbol), slog.Any("error", err))
		} else {
			coin.IconPath = path
			coin.LastSyncedAt = time.Now()
		}
	}

	if err := a.repo.UpsertCoin(ctx, coin); err != nil {
		slog.Error("Failed to upsert coin", slog.String("symbol", c.Symbol), slog.Any("error", err))
	}
}
