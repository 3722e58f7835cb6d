package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"coinwatch/internal/domain"
	"coinwatch/internal/service"
	"coinwatch/internal/watchlist"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBootstrap_Initialize(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, `
api:
  icons:
    enabled: false
storage:
  backend: sqlite
  sqlite:
    path: `+filepath.Join(dir, "coinwatch.db")+`
logging:
  level: debug
  dir: `+filepath.Join(dir, "logs")+`
`)

	b := NewBootstrap(path)
	if err := b.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer b.Close()

	if b.Market == nil || b.Assets == nil || b.Storage == nil {
		t.Fatal("services not wired")
	}
	if b.Icons() != nil {
		t.Error("icons should be disabled")
	}
	if b.Prefs != b.Storage {
		t.Error("sqlite backend should serve preferences")
	}
	if got := b.RefreshInterval().Seconds(); got != 60 {
		t.Errorf("RefreshInterval = %vs, want default 60s", got)
	}

	// Watchlist round trip through the wired preference store
	if watched, err := b.Market.ToggleWatch(context.Background(), "BTC"); err != nil || !watched {
		t.Errorf("ToggleWatch = %v, %v", watched, err)
	}
}

func TestBootstrap_MissingConfig(t *testing.T) {
	b := NewBootstrap(filepath.Join(t.TempDir(), "absent.yaml"))
	if err := b.Initialize(context.Background()); !errors.Is(err, domain.ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestBootstrap_InvalidConfig(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: etcd\n")
	err := NewBootstrap(path).Initialize(context.Background())

	var cfgErr *domain.ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Field != "storage.backend" {
		t.Errorf("expected storage.backend ConfigError, got %v", err)
	}
}

type staticSource struct {
	list []domain.Currency
}

func (s staticSource) FetchListing(context.Context) ([]domain.Currency, error) {
	return s.list, nil
}

type mapPrefs struct {
	mu     sync.Mutex
	values map[string]string
}

func (m *mapPrefs) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *mapPrefs) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// slowRepo records upserts that land after the store was closed.
type slowRepo struct {
	closed   atomic.Bool
	upserts  atomic.Int32
	lateHits atomic.Int32
}

func (r *slowRepo) UpsertCoin(context.Context, *domain.CoinInfo) error {
	time.Sleep(30 * time.Millisecond)
	if r.closed.Load() {
		r.lateHits.Add(1)
	}
	r.upserts.Add(1)
	return nil
}

func (r *slowRepo) GetCoin(context.Context, int64) (*domain.CoinInfo, error) {
	return nil, nil
}

func TestBootstrap_CloseWaitsForAssetSync(t *testing.T) {
	list := []domain.Currency{
		{ID: 1, Symbol: "BTC", Quotes: []domain.Quote{{}}},
		{ID: 2, Symbol: "ETH", Quotes: []domain.Quote{{}}},
		{ID: 3, Symbol: "SOL", Quotes: []domain.Quote{{}}},
	}
	repo := &slowRepo{}

	b := &Bootstrap{
		Market: service.NewMarketService(staticSource{list: list}, watchlist.NewStore(&mapPrefs{values: map[string]string{}}), 10),
		Assets: service.NewAssetSync(repo, nil, 1),
	}
	b.closers = append(b.closers, func() error {
		repo.closed.Store(true)
		return nil
	})

	unsubscribe := b.SyncAssets(context.Background())
	if _, err := b.Market.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	unsubscribe()
	b.Close()

	if got := repo.upserts.Load(); got != int32(len(list)) {
		t.Errorf("expected %d upserts before Close returned, got %d", len(list), got)
	}
	if got := repo.lateHits.Load(); got != 0 {
		t.Errorf("%d upserts ran after the store was closed", got)
	}
}
