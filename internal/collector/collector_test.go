package collector

import (
	"context"
	"errors"
	"strings"
	"testing"

	"TickerBot/internal/model"
)

func TestCollectorStock_SheetFirst(t *testing.T) {
	sheet := &MockSource{Stock: &model.StockInfo{Ticker: "NVDA", Source: model.SourceSheet}}
	market := &MockSource{Price: 100}
	c := NewCollector(sheet, market, market, true, testLog())

	info, err := c.Stock(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if info.Source != model.SourceSheet {
		t.Errorf("source = %s", info.Source)
	}
}

func TestCollectorStock_FallbackComputesIndicators(t *testing.T) {
	sheet := &MockSource{} // no card
	market := &MockSource{Price: 100, Currency: "USD", Name: "Test Corp"}
	c := NewCollector(sheet, market, market, true, testLog())

	info, err := c.Stock(context.Background(), "test")
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if info.Source != model.SourceYahoo || info.Ticker != "TEST" || info.Price != "100.00" {
		t.Errorf("info = %+v", info)
	}
	if len(info.SMADay) != 3 || len(info.SMAWeek) != 2 {
		t.Fatalf("sma = %v / %v", info.SMADay, info.SMAWeek)
	}
	for _, v := range append(info.SMADay, info.SMAWeek...) {
		if v == noData {
			t.Errorf("expected computed SMA, got %v", v)
		}
	}
	if info.RSI == "" || !strings.Contains(info.Suggestion, "score") {
		t.Errorf("rsi %q suggestion %q", info.RSI, info.Suggestion)
	}
	if len(info.Notes) < 2 || !strings.HasPrefix(info.Notes[0], "52W range: ") {
		t.Errorf("notes = %v", info.Notes)
	}
}

func TestCollectorStock_ShortHistoryDegrades(t *testing.T) {
	market := &MockSource{Price: 10, DailyData: generateMockBars(10, 60, 0), WeeklyData: generateMockBars(10, 12, 0)}
	c := NewCollector(nil, market, market, true, testLog())

	info, err := c.Stock(context.Background(), "TINY")
	if err != nil {
		t.Fatalf("Stock: %v", err)
	}
	if info.SMADay[0] == noData || info.SMADay[1] != noData || info.SMADay[2] != noData {
		t.Errorf("daily sma = %v", info.SMADay)
	}
	if info.SMAWeek[0] != noData {
		t.Errorf("weekly sma = %v", info.SMAWeek)
	}
}

func TestCollectorStock_SheetErrorWithoutFallback(t *testing.T) {
	sheet := &MockSource{}
	market := &MockSource{Price: 1}
	c := NewCollector(sheet, market, market, false, testLog())
	if _, err := c.Stock(context.Background(), "NVDA"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCollectorStock_TransportErrorNotMasked(t *testing.T) {
	boom := errors.New("connection reset")
	sheet := &MockSource{Err: boom}
	market := &MockSource{Price: 1}
	c := NewCollector(sheet, market, market, true, testLog())
	if _, err := c.Stock(context.Background(), "NVDA"); !errors.Is(err, boom) {
		t.Errorf("expected transport error, got %v", err)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	tests := map[string]string{"brk.b": "BRK-B", " nvda ": "NVDA", "BF.B": "BF-B", "": ""}
	for in, want := range tests {
		if got := NormalizeSymbol(in); got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, want %q", in, got, want)
		}
	}
}
