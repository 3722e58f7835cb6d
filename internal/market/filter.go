package market

import (
	"strings"

	"coinwatch/internal/domain"
)

// Search returns the currencies whose name or symbol contains query,
// case-insensitively, in input order. An empty query matches everything.
func Search(list []domain.Currency, query string) []domain.Currency {
	q := strings.ToLower(query)

	result := make([]domain.Currency, 0, len(list))
	for _, c := range list {
		if q == "" ||
			strings.Contains(strings.ToLower(c.Name), q) ||
			strings.Contains(strings.ToLower(c.Symbol), q) {
			result = append(result, c)
		}
	}
	return result
}

// FilterWatched returns the currencies whose symbol is in symbols,
// ordered by watchlist position, then by list position.
func FilterWatched(list []domain.Currency, symbols []string) []domain.Currency {
	bySymbol := make(map[string][]domain.Currency, len(symbols))
	for _, s := range symbols {
		bySymbol[s] = nil
	}
	for _, c := range list {
		if matches, ok := bySymbol[c.Symbol]; ok {
			bySymbol[c.Symbol] = append(matches, c)
		}
	}

	result := make([]domain.Currency, 0, len(symbols))
	for _, s := range symbols {
		result = append(result, bySymbol[s]...)
		delete(bySymbol, s) // guard against duplicate symbols
	}
	return result
}

// FindBySymbol returns the first currency with the given symbol (exact match).
func FindBySymbol(list []domain.Currency, symbol string) (domain.Currency, bool) {
	for _, c := range list {
		if c.Symbol == symbol {
			return c, true
		}
	}
	return domain.Currency{}, false
}
