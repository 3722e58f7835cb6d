package watchlist

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"coinwatch/internal/domain"
)

// PreferenceKey is the key the watched symbols are stored under.
const PreferenceKey = "watchList"

// Watchlist is an ordered set of watched symbols.
type Watchlist struct {
	symbols []string
}

// New builds a watchlist from symbols, dropping empty entries and duplicates.
func New(symbols ...string) Watchlist {
	w := Watchlist{symbols: make([]string, 0, len(symbols))}
	for _, s := range symbols {
		if s != "" && !w.Contains(s) {
			w.symbols = append(w.symbols, s)
		}
	}
	return w
}

// Contains reports whether symbol is watched.
func (w Watchlist) Contains(symbol string) bool {
	return slices.Contains(w.symbols, symbol)
}

// Len returns the number of watched symbols.
func (w Watchlist) Len() int {
	return len(w.symbols)
}

// Symbols returns a copy of the watched symbols in insertion order.
func (w Watchlist) Symbols() []string {
	return slices.Clone(w.symbols)
}

// toggled returns a new watchlist with symbol removed if present, appended otherwise.
func (w Watchlist) toggled(symbol string) (Watchlist, bool) {
	if i := slices.Index(w.symbols, symbol); i >= 0 {
		return Watchlist{symbols: slices.Delete(slices.Clone(w.symbols), i, i+1)}, false
	}
	next := make([]string, 0, len(w.symbols)+1)
	next = append(next, w.symbols...)
	return Watchlist{symbols: append(next, symbol)}, true
}

// Store persists the watchlist as a JSON array in a PreferenceStore.
type Store struct {
	mu    sync.Mutex
	prefs domain.PreferenceStore
}

// NewStore creates a Store over prefs.
func NewStore(prefs domain.PreferenceStore) *Store {
	return &Store{prefs: prefs}
}

// Load reads the persisted watchlist. A missing, unreadable or malformed
// value yields an empty watchlist; the cause is logged, never returned.
func (s *Store) Load(ctx context.Context) Watchlist {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, err := s.load(ctx)
	if err != nil {
		slog.Warn("Watchlist read failed, using empty watchlist", slog.Any("error", err))
		return New()
	}
	return w
}

// load returns the stored watchlist. Only a failed read is an error;
// a malformed value reads as empty so the next write replaces it.
func (s *Store) load(ctx context.Context) (Watchlist, error) {
	raw, ok, err := s.prefs.Get(ctx, PreferenceKey)
	if err != nil {
		return Watchlist{}, fmt.Errorf("failed to read watchlist: %w", err)
	}
	if !ok {
		return New(), nil
	}

	var symbols []string
	if err := json.Unmarshal([]byte(raw), &symbols); err != nil {
		slog.Warn("Malformed watchlist value, resetting to empty", slog.Any("error", err))
		return New(), nil
	}
	return New(symbols...), nil
}

// Contains reports whether symbol is in the persisted watchlist.
func (s *Store) Contains(ctx context.Context, symbol string) bool {
	return s.Load(ctx).Contains(symbol)
}

// Toggle adds symbol if absent or removes it if present, then persists the
// result with a single write. It returns whether symbol is now watched.
// Nothing is written when the current value cannot be read.
func (s *Store) Toggle(ctx context.Context, symbol string) (bool, error) {
	if symbol == "" {
		return false, domain.ErrInvalidSymbol
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	next, watched := current.toggled(symbol)
	if err := s.save(ctx, next); err != nil {
		return !watched, err
	}

	slog.Debug("Watchlist toggled", slog.String("symbol", symbol), slog.Bool("watched", watched))
	return watched, nil
}

// Save overwrites the persisted watchlist with w.
func (s *Store) Save(ctx context.Context, w Watchlist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, w)
}

func (s *Store) save(ctx context.Context, w Watchlist) error {
	symbols := w.symbols
	if symbols == nil {
		symbols = []string{}
	}
	data, err := json.Marshal(symbols)
	if err != nil {
		return fmt.Errorf("failed to encode watchlist: %w", err)
	}
	if err := s.prefs.Set(ctx, PreferenceKey, string(data)); err != nil {
		return fmt.Errorf("failed to persist watchlist: %w", err)
	}
	return nil
}
