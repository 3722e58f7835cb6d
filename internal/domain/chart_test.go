package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestChartURL(t *testing.T) {
	for _, interval := range []string{"15", "1H", "4H", "1D", "1W", "1M"} {
		t.Run(interval, func(t *testing.T) {
			u, err := ChartURL("BTC", interval)
			if err != nil {
				t.Fatalf("ChartURL failed: %v", err)
			}
			if !strings.HasPrefix(u, "https://s.tradingview.com/widgetembed/?symbol=BTCUSD&interval="+interval+"&") {
				t.Errorf("unexpected URL: %s", u)
			}
			if !strings.Contains(u, "timezone=Etc%2FUTC") {
				t.Errorf("timezone not escaped: %s", u)
			}
		})
	}
}

func TestChartURL_Invalid(t *testing.T) {
	if _, err := ChartURL("BTC", "5m"); !errors.Is(err, ErrInvalidInterval) {
		t.Errorf("expected ErrInvalidInterval, got %v", err)
	}
	if _, err := ChartURL("", "1H"); !errors.Is(err, ErrInvalidSymbol) {
		t.Errorf("expected ErrInvalidSymbol, got %v", err)
	}
}
