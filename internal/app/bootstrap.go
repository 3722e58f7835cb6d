package app

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"coinwatch/internal/domain"
	"coinwatch/internal/infra"
	"coinwatch/internal/infra/cache"
	"coinwatch/internal/infra/coinmarketcap"
	"coinwatch/internal/infra/storage"
	"coinwatch/internal/service"
	"coinwatch/internal/watchlist"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	ConfigPath string

	Config     *infra.Config
	Storage    *storage.Storage
	Prefs      domain.PreferenceStore
	Downloader *infra.IconDownloader
	Market     *service.MarketService
	Assets     *service.AssetSync

	syncs   sync.WaitGroup
	closers []func() error
}

// NewBootstrap creates a new Bootstrap instance. An empty configPath
// falls back to the usual lookup locations.
func NewBootstrap(configPath string) *Bootstrap {
	return &Bootstrap{ConfigPath: configPath}
}

// Initialize loads configuration and wires storage, the market data
// client and the services on top of them.
func (b *Bootstrap) Initialize(ctx context.Context) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(infra.ResolveConfigPath(b.ConfigPath))
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	slog.SetDefault(infra.NewLogger(cfg))
	slog.Info("🚀 Bootstrapping coinwatch...", slog.String("version", cfg.App.Version))

	// 3. Initialize Storage (DB). Coin metadata always lives in SQLite.
	dbPath := cfg.Storage.SQLite.Path
	if dbPath == "" {
		dbPath = storage.DefaultDBPath(infra.GetDataDir())
	}
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return err
	}
	b.Storage = store
	b.closers = append(b.closers, store.Close)
	b.Prefs = store
	slog.Info("✅ Database initialized", slog.String("path", dbPath))

	// 4. Preferences backend
	if cfg.Storage.Backend == infra.BackendRedis {
		r := cfg.Storage.Redis
		rs, err := cache.NewRedisStore(ctx, r.Addr, r.Password, r.DB, r.Prefix)
		if err != nil {
			return err
		}
		b.Prefs = rs
		b.closers = append(b.closers, rs.Close)
		slog.Info("✅ Redis preference store connected", slog.String("addr", r.Addr))
	}

	// 5. Initialize Icon Downloader
	var icons domain.IconCache
	if cfg.API.Icons.Enabled {
		downloader, err := infra.NewIconDownloader(infra.IconsDir(), cfg.API.Icons.URLFormat, cfg.API.Icons.Size)
		if err != nil {
			return err
		}
		b.Downloader = downloader
		icons = downloader
		slog.Info("✅ Icon downloader ready")
	}

	// 6. Services
	client := coinmarketcap.NewClientFromConfig(cfg)
	b.Market = service.NewMarketService(client, watchlist.NewStore(b.Prefs), cfg.UI.TopMoversCount)
	b.Assets = service.NewAssetSync(store, icons, cfg.API.Icons.Concurrency)

	return nil
}

// Icons returns the icon cache, or nil when icons are disabled.
func (b *Bootstrap) Icons() domain.IconCache {
	if b.Downloader == nil {
		return nil
	}
	return b.Downloader
}

// SyncAssets records coin metadata for every new snapshot in the background.
// Close waits for syncs still running.
func (b *Bootstrap) SyncAssets(ctx context.Context) func() {
	return b.Market.Subscribe(func(snap *domain.Snapshot) {
		b.syncs.Add(1)
		go func() {
			defer b.syncs.Done()
			b.Assets.Sync(ctx, snap.Currencies)
		}()
	})
}

// RefreshInterval returns the configured background refresh period.
func (b *Bootstrap) RefreshInterval() time.Duration {
	return time.Duration(b.Config.API.CoinMarketCap.RefreshIntervalSec) * time.Second
}

// Close waits for background asset syncs, then releases storage handles
// in reverse order of creation.
func (b *Bootstrap) Close() {
	b.syncs.Wait()

	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			slog.Warn("Close failed", slog.Any("error", err))
		}
	}
	b.closers = nil
}
