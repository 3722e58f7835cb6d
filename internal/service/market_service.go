package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"coinwatch/internal/domain"
	"coinwatch/internal/infra"
	"coinwatch/internal/market"
	"coinwatch/internal/task"
	"coinwatch/internal/watchlist"

	"golang.org/x/sync/singleflight"
)

// MarketService owns the current market snapshot and serves the
// list, movers, watchlist and detail views derived from it.
type MarketService struct {
	source      domain.MarketDataSource
	watchlist   *watchlist.Store
	moversCount int

	mu       sync.RWMutex
	snapshot *domain.Snapshot

	subMu       sync.Mutex
	subscribers map[int]func(*domain.Snapshot)
	nextSubID   int

	fetchGroup singleflight.Group

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewMarketService creates a MarketService instance.
func NewMarketService(source domain.MarketDataSource, store *watchlist.Store, moversCount int) *MarketService {
	if moversCount <= 0 {
		moversCount = market.DefaultMoversCount
	}
	return &MarketService{
		source:      source,
		watchlist:   store,
		moversCount: moversCount,
		subscribers: make(map[int]func(*domain.Snapshot)),
	}
}

// Snapshot returns the current snapshot, or nil before the first successful fetch.
func (s *MarketService) Snapshot() *domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Refresh fetches the listing and replaces the snapshot. On failure the
// previous snapshot stays in place and the error is returned.
func (s *MarketService) Refresh(ctx context.Context) (*domain.Snapshot, error) {
	start := time.Now()
	list, err := s.source.FetchListing(ctx)
	if err != nil {
		infra.GlobalMetrics.RecordFetchError()
		slog.Warn("Market fetch failed, keeping previous snapshot", slog.Any("error", err))
		return nil, fmt.Errorf("refresh market: %w", err)
	}
	// A listing that arrives after cancellation is discarded
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	snap := &domain.Snapshot{Currencies: list, FetchedAt: time.Now()}
	infra.GlobalMetrics.RecordFetch(time.Since(start), len(list))

	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()

	slog.Info("Market snapshot updated", slog.Int("currencies", len(list)), slog.Duration("took", time.Since(start)))
	s.publish(snap)
	return snap, nil
}

// StartFetch runs Refresh as a cancellable task bound to ctx.
func (s *MarketService) StartFetch(ctx context.Context) *task.Task[*domain.Snapshot] {
	return task.Go(ctx, s.Refresh)
}

// Ensure returns the current snapshot, fetching one if none exists yet.
// Concurrent callers share a single in-flight fetch; each caller stops
// waiting when its own ctx is done.
func (s *MarketService) Ensure(ctx context.Context) (*domain.Snapshot, error) {
	if snap := s.Snapshot(); snap != nil {
		return snap, nil
	}

	ch := s.fetchGroup.DoChan("listing", func() (interface{}, error) {
		fetch := s.StartFetch(context.WithoutCancel(ctx))
		return fetch.Wait()
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrNoSnapshot, res.Err)
		}
		return res.Val.(*domain.Snapshot), nil
	}
}

// Markets returns the currencies matching query (all when query is empty).
func (s *MarketService) Markets(ctx context.Context, query string) ([]domain.Currency, error) {
	snap, err := s.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	return market.Search(snap.Currencies, query), nil
}

// Movers returns the top gainers and losers of the current snapshot.
func (s *MarketService) Movers(ctx context.Context) (market.Movers, error) {
	snap, err := s.Ensure(ctx)
	if err != nil {
		return market.Movers{}, err
	}
	return market.TopMovers(snap.Currencies, s.moversCount), nil
}

// Watched returns the watched currencies in watchlist order.
func (s *MarketService) Watched(ctx context.Context) ([]domain.Currency, error) {
	snap, err := s.Ensure(ctx)
	if err != nil {
		return nil, err
	}
	return market.FilterWatched(snap.Currencies, s.watchlist.Load(ctx).Symbols()), nil
}

// Detail returns the detail view for symbol.
func (s *MarketService) Detail(ctx context.Context, symbol string) (domain.DetailView, error) {
	snap, err := s.Ensure(ctx)
	if err != nil {
		return domain.DetailView{}, err
	}
	c, ok := market.FindBySymbol(snap.Currencies, symbol)
	if !ok {
		return domain.DetailView{}, fmt.Errorf("%w: %s", domain.ErrCurrencyNotFound, symbol)
	}
	return c.Detail(s.watchlist.Contains(ctx, symbol)), nil
}

// Find returns the currency with symbol from the current snapshot.
func (s *MarketService) Find(ctx context.Context, symbol string) (domain.Currency, error) {
	snap, err := s.Ensure(ctx)
	if err != nil {
		return domain.Currency{}, err
	}
	c, ok := market.FindBySymbol(snap.Currencies, symbol)
	if !ok {
		return domain.Currency{}, fmt.Errorf("%w: %s", domain.ErrCurrencyNotFound, symbol)
	}
	return c, nil
}

// ToggleWatch flips symbol's watchlist membership and returns the new state.
func (s *MarketService) ToggleWatch(ctx context.Context, symbol string) (bool, error) {
	watched, err := s.watchlist.Toggle(ctx, symbol)
	if err != nil {
		return watched, err
	}
	infra.GlobalMetrics.RecordToggle()
	return watched, nil
}

// WatchedSymbols returns the persisted watchlist.
func (s *MarketService) WatchedSymbols(ctx context.Context) []string {
	return s.watchlist.Load(ctx).Symbols()
}

// Subscribe registers fn to receive every new snapshot. The returned
// function removes the subscription.
func (s *MarketService) Subscribe(fn func(*domain.Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, id)
		s.subMu.Unlock()
	}
}

func (s *MarketService) publish(snap *domain.Snapshot) {
	s.subMu.Lock()
	fns := make([]func(*domain.Snapshot), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// Start fetches immediately and then refreshes every interval until Stop
// or ctx cancellation. interval <= 0 performs only the initial fetch.
func (s *MarketService) Start(ctx context.Context, interval time.Duration) {
	ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("Market polling panic recovered", slog.Any("panic", r))
			}
		}()

		// Failures are already logged by Refresh
		s.Refresh(ctx)

		if interval <= 0 {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				slog.Info("Market polling stopped")
				return
			case <-ticker.C:
				s.Refresh(ctx)
			}
		}
	}()
}

// Stop stops the polling loop and waits for it to exit.
func (s *MarketService) Stop() {
	if s.cancel != nil {
		s.cancel()
		s.wg.Wait()
	}
}
