package domain

import (
	"fmt"
	"net/url"
)

// Chart intervals accepted by the embedded widget.
const (
	Interval15m = "15"
	Interval1h  = "1H"
	Interval4h  = "4H"
	Interval1d  = "1D"
	Interval1w  = "1W"
	Interval1M  = "1M"

	// initialInterval is what the detail view opens with.
	initialInterval = "D"
)

var chartIntervals = map[string]bool{
	Interval15m: true,
	Interval1h:  true,
	Interval4h:  true,
	Interval1d:  true,
	Interval1w:  true,
	Interval1M:  true,
}

const chartURLFormat = "https://s.tradingview.com/widgetembed/?symbol=%sUSD&interval=%s" +
	"&hidesidetoolbar=1&hidetoptoolbar=1&symboledit=1&saveimage=1&toolbarbg=F1F3F6" +
	"&studies=[]&hideideas=1&theme=Dark&style=1&timezone=Etc%%2FUTC&studies_overrides={}" +
	"&overrides={}&enabled_features=[]&disabled_features=[]&locale=en" +
	"&utm_source=coinmarketcap.com&utm_medium=widget&utm_campaign=chart&utm_term=BTCUSDT"

// IsChartInterval reports whether interval is one of the selectable chart intervals.
func IsChartInterval(interval string) bool {
	return chartIntervals[interval]
}

// ChartURL returns the widget URL for symbol priced in USD at the given interval.
func ChartURL(symbol, interval string) (string, error) {
	if symbol == "" {
		return "", ErrInvalidSymbol
	}
	if !IsChartInterval(interval) {
		return "", fmt.Errorf("%w: %q", ErrInvalidInterval, interval)
	}
	return fmt.Sprintf(chartURLFormat, url.QueryEscape(symbol), interval), nil
}

// DefaultChartURL returns the widget URL the detail view opens with.
func DefaultChartURL(symbol string) string {
	return fmt.Sprintf(chartURLFormat, url.QueryEscape(symbol), initialInterval)
}
