package market

import (
	"testing"

	"coinwatch/internal/domain"
)

func listing() []domain.Currency {
	return []domain.Currency{
		{Name: "Bitcoin", Symbol: "BTC"},
		{Name: "Ethereum", Symbol: "ETH"},
		{Name: "Bitcoin Cash", Symbol: "BCH"},
		{Name: "Wrapped Bitcoin", Symbol: "WBTC"},
		{Name: "Solana", Symbol: "SOL"},
	}
}

func TestSearch(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"empty query returns all in order", "", []string{"BTC", "ETH", "BCH", "WBTC", "SOL"}},
		{"symbol substring", "btc", []string{"BTC", "WBTC"}},
		{"name substring", "bitcoin", []string{"BTC", "BCH", "WBTC"}},
		{"mixed case", "SoLa", []string{"SOL"}},
		{"no match", "doge", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := symbols(Search(listing(), tt.query)); !equal(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.query, got, tt.want)
			}
		})
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	upper := symbols(Search(listing(), "BTC"))
	lower := symbols(Search(listing(), "btc"))
	if !equal(upper, lower) {
		t.Errorf("BTC=%v btc=%v", upper, lower)
	}
}

func TestFilterWatched(t *testing.T) {
	list := append(listing(), domain.Currency{Name: "Other Sol", Symbol: "SOL"})

	got := symbols(FilterWatched(list, []string{"SOL", "BTC", "NOPE"}))
	want := []string{"SOL", "SOL", "BTC"}
	if !equal(got, want) {
		t.Errorf("FilterWatched = %v, want %v", got, want)
	}

	if len(FilterWatched(list, nil)) != 0 {
		t.Error("empty watchlist should yield no currencies")
	}
}

func TestFindBySymbol(t *testing.T) {
	c, ok := FindBySymbol(listing(), "ETH")
	if !ok || c.Name != "Ethereum" {
		t.Errorf("FindBySymbol(ETH) = %+v, %v", c, ok)
	}
	if _, ok := FindBySymbol(listing(), "eth"); ok {
		t.Error("FindBySymbol should be exact")
	}
}
