package calculator

import (
	"errors"
	"testing"

	"TickerBot/internal/model"
)

func TestSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	got, err := SMA(closes, 3)
	if err != nil || got != 4 {
		t.Errorf("SMA = %v, %v; want 4", got, err)
	}
	if _, err := SMA(closes, 6); !errors.Is(err, ErrShortHistory) {
		t.Errorf("short series err = %v", err)
	}
	if _, err := SMA(closes, 0); err == nil {
		t.Error("expected error for zero period")
	}
}

func TestRSI(t *testing.T) {
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = float64(100 + i)
	}
	if rsi, _ := RSI(rising, 14); rsi != 100 {
		t.Errorf("monotonic rise RSI = %v, want 100", rsi)
	}
	if _, err := RSI(rising[:14], 14); !errors.Is(err, ErrShortHistory) {
		t.Errorf("short series err = %v, want ErrShortHistory", err)
	}
	falling := make([]float64, 30)
	for i := range falling {
		falling[i] = float64(200 - i)
	}
	if rsi, _ := RSI(falling, 14); rsi != 0 {
		t.Errorf("monotonic fall RSI = %v, want 0", rsi)
	}

	zigzag := make([]float64, 40)
	for i := range zigzag {
		zigzag[i] = 100
		if i%2 == 1 {
			zigzag[i] = 101
		}
	}
	rsi, err := RSI(zigzag, 14)
	if err != nil || rsi < 40 || rsi > 60 {
		t.Errorf("zigzag RSI = %v, %v; want near 50", rsi, err)
	}
}

func TestHighLow(t *testing.T) {
	bars := []model.OHLCV{
		{High: 50, Low: 1},
		{High: 12, Low: 8},
		{High: 15, Low: 9},
		{High: 11, Low: 7},
	}
	high, low, err := HighLow(bars, 3)
	if err != nil || high != 15 || low != 7 {
		t.Errorf("HighLow = %v, %v, %v", high, low, err)
	}
	if _, _, err := HighLow(nil, 3); err == nil {
		t.Error("expected error for empty bars")
	}
	if h, l, _ := HighLow(bars, 100); h != 50 || l != 1 {
		t.Errorf("full lookback = %v/%v", h, l)
	}
}
