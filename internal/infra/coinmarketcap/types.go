package coinmarketcap

import (
	"github.com/shopspring/decimal"

	"coinwatch/internal/domain"
)

// listingResponse represents the data-api v3 cryptocurrency listing response
type listingResponse struct {
	Data struct {
		CryptoCurrencyList []cryptoCurrency `json:"cryptoCurrencyList"`
		TotalCount         string           `json:"totalCount"`
	} `json:"data"`
	Status struct {
		Timestamp    string `json:"timestamp"`
		ErrorMessage string `json:"error_message"`
	} `json:"status"`
}

type cryptoCurrency struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Symbol  string  `json:"symbol"`
	Slug    string  `json:"slug"`
	CmcRank int     `json:"cmcRank"`
	Quotes  []quote `json:"quotes"`
}

type quote struct {
	Name             string          `json:"name"`
	Price            decimal.Decimal `json:"price"`
	Volume24h        decimal.Decimal `json:"volume24h"`
	MarketCap        decimal.Decimal `json:"marketCap"`
	PercentChange1h  decimal.Decimal `json:"percentChange1h"`
	PercentChange24h decimal.Decimal `json:"percentChange24h"`
	PercentChange7d  decimal.Decimal `json:"percentChange7d"`
	PercentChange30d decimal.Decimal `json:"percentChange30d"`
}

// toDomain converts the wire list, dropping entries without any quote
// so that Currency.Quotes[0] is always present downstream.
func toDomain(list []cryptoCurrency) ([]domain.Currency, int) {
	out := make([]domain.Currency, 0, len(list))
	dropped := 0
	for _, c := range list {
		quotes := make([]domain.Quote, len(c.Quotes))
		for i, q := range c.Quotes {
			quotes[i] = domain.Quote{
				Name:             q.Name,
				Price:            q.Price,
				Volume24h:        q.Volume24h,
				MarketCap:        q.MarketCap,
				PercentChange1h:  q.PercentChange1h,
				PercentChange24h: q.PercentChange24h,
				PercentChange7d:  q.PercentChange7d,
				PercentChange30d: q.PercentChange30d,
			}
		}
		cur := domain.Currency{
			ID:     c.ID,
			Name:   c.Name,
			Symbol: c.Symbol,
			Slug:   c.Slug,
			Rank:   c.CmcRank,
			Quotes: quotes,
		}
		if !cur.HasQuote() {
			dropped++
			continue
		}
		out = append(out, cur)
	}
	return out, dropped
}
