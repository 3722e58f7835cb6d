// Package market holds the pure list transformations behind the market views:
// top movers, search and watchlist filtering. None of them mutate their input.
package market

import (
	"sort"

	"coinwatch/internal/domain"
)

// DefaultMoversCount is the size of each movers list.
const DefaultMoversCount = 10

// Movers holds the top gainers and losers by 24h percent change.
type Movers struct {
	Gainers []domain.Currency `json:"gainers"`
	Losers  []domain.Currency `json:"losers"`
}

// TopMovers sorts a copy of list by 24h percent change, descending, and
// returns the first n as gainers and the last n, most negative first, as losers.
//
// The comparison uses the change truncated toward zero to an integer, so
// entries within the same integer band keep their input order (stable sort).
// n is clamped to len(list).
func TopMovers(list []domain.Currency, n int) Movers {
	if n > len(list) {
		n = len(list)
	}
	if n <= 0 {
		return Movers{Gainers: []domain.Currency{}, Losers: []domain.Currency{}}
	}

	sorted := SortByChange(list)

	gainers := make([]domain.Currency, n)
	copy(gainers, sorted[:n])

	losers := make([]domain.Currency, 0, n)
	for i := 0; i < n; i++ {
		losers = append(losers, sorted[len(sorted)-1-i])
	}

	return Movers{Gainers: gainers, Losers: losers}
}

// SortByChange returns a copy of list ordered by integer-truncated 24h change, descending.
func SortByChange(list []domain.Currency) []domain.Currency {
	sorted := make([]domain.Currency, len(list))
	copy(sorted, list)

	keys := make([]int64, len(sorted))
	for i, c := range sorted {
		keys[i] = changeKey(c)
	}

	sort.Stable(byChange{items: sorted, keys: keys})
	return sorted
}

// changeKey truncates the 24h change toward zero (e.g. -3.9 -> -3).
func changeKey(c domain.Currency) int64 {
	return c.Current().PercentChange24h.IntPart()
}

type byChange struct {
	items []domain.Currency
	keys  []int64
}

func (b byChange) Len() int           { return len(b.items) }
func (b byChange) Less(i, j int) bool { return b.keys[i] > b.keys[j] }
func (b byChange) Swap(i, j int) {
	b.items[i], b.items[j] = b.items[j], b.items[i]
	b.keys[i], b.keys[j] = b.keys[j], b.keys[i]
}
