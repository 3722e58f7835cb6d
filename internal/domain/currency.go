package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// IconURLFormat is the remote thumbnail location keyed by currency ID.
const IconURLFormat = "https://s2.coinmarketcap.com/static/img/coins/64x64/%d.png"

// Quote is a point-in-time price record for a currency in one quote currency.
type Quote struct {
	Name             string          `json:"name"` // Quote currency (e.g., "USD")
	Price            decimal.Decimal `json:"price"`
	Volume24h        decimal.Decimal `json:"volume_24h"`
	MarketCap        decimal.Decimal `json:"market_cap"`
	PercentChange1h  decimal.Decimal `json:"percent_change_1h"`
	PercentChange24h decimal.Decimal `json:"percent_change_24h"`
	PercentChange7d  decimal.Decimal `json:"percent_change_7d"`
	PercentChange30d decimal.Decimal `json:"percent_change_30d"`
}

// Currency is a tradable asset as returned by the market-data source.
// Quotes[0] is treated as the current quote.
type Currency struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	Slug   string  `json:"slug"`
	Rank   int     `json:"rank"`
	Quotes []Quote `json:"quotes"`
}

// HasQuote reports whether the currency carries at least one quote snapshot.
func (c Currency) HasQuote() bool {
	return len(c.Quotes) > 0
}

// Current returns the first quote snapshot, or a zero Quote when none exist.
func (c Currency) Current() Quote {
	if len(c.Quotes) == 0 {
		return Quote{Price: decimal.Zero, PercentChange24h: decimal.Zero}
	}
	return c.Quotes[0]
}

// IconURL returns the remote 64x64 thumbnail URL.
func (c Currency) IconURL() string {
	return fmt.Sprintf(IconURLFormat, c.ID)
}

// PriceText formats the current price for list rows ("$1234.50").
func (c Currency) PriceText() string {
	return "$" + c.Current().Price.StringFixed(2)
}

// DetailPriceText formats the current price for the detail view ("$1234.5000").
func (c Currency) DetailPriceText() string {
	return "$" + c.Current().Price.StringFixed(4)
}

// ChangeText formats the 24h change. Positive values get a "+ " prefix,
// zero and negative values are printed as-is.
func (c Currency) ChangeText() string {
	change := c.Current().PercentChange24h
	if change.IsPositive() {
		return "+ " + change.StringFixed(2) + " %"
	}
	return change.StringFixed(2) + " %"
}

// ChangeDirection returns "up" for a positive 24h change and "down" otherwise.
func (c Currency) ChangeDirection() string {
	if c.Current().PercentChange24h.IsPositive() {
		return DirectionUp
	}
	return DirectionDown
}

const (
	DirectionUp   = "up"
	DirectionDown = "down"
)

// CurrencyView is the display-ready projection of a Currency.
type CurrencyView struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Symbol     string          `json:"symbol"`
	Rank       int             `json:"rank"`
	Price      decimal.Decimal `json:"price"`
	Change24h  decimal.Decimal `json:"change_24h"`
	PriceText  string          `json:"price_text"`
	ChangeText string          `json:"change_text"`
	Direction  string          `json:"direction"`
	IconURL    string          `json:"icon_url"`
}

// View builds the list-row projection.
func (c Currency) View() CurrencyView {
	q := c.Current()
	return CurrencyView{
		ID:         c.ID,
		Name:       c.Name,
		Symbol:     c.Symbol,
		Rank:       c.Rank,
		Price:      q.Price,
		Change24h:  q.PercentChange24h,
		PriceText:  c.PriceText(),
		ChangeText: c.ChangeText(),
		Direction:  c.ChangeDirection(),
		IconURL:    c.IconURL(),
	}
}

// Views projects a list of currencies, preserving order.
func Views(list []Currency) []CurrencyView {
	views := make([]CurrencyView, 0, len(list))
	for _, c := range list {
		views = append(views, c.View())
	}
	return views
}

// DetailView is the per-coin detail projection.
type DetailView struct {
	CurrencyView
	DetailPriceText string `json:"detail_price_text"`
	Quote           Quote  `json:"quote"`
	Watched         bool   `json:"watched"`
	ChartURL        string `json:"chart_url"`
}

// Detail builds the detail projection with the initial daily chart.
func (c Currency) Detail(watched bool) DetailView {
	return DetailView{
		CurrencyView:    c.View(),
		DetailPriceText: c.DetailPriceText(),
		Quote:           c.Current(),
		Watched:         watched,
		ChartURL:        DefaultChartURL(c.Symbol),
	}
}
