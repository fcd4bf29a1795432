package collector

import (
	"context"
	"errors"
	"strings"

	"TickerBot/internal/model"
)

var (
	// ErrNotFound means the upstream has no record for the symbol.
	ErrNotFound = errors.New("symbol not found")
	// ErrNotConfigured means the endpoint for this lookup is not set.
	ErrNotConfigured = errors.New("source not configured")
)

// QuoteSource resolves a symbol to its current price.
type QuoteSource interface {
	LookupQuote(ctx context.Context, symbol string) (*model.Quote, error)
}

// BarSource returns historical bars, oldest first.
type BarSource interface {
	FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error)
	FetchWeeklyBars(ctx context.Context, symbol string, weeks int) ([]model.OHLCV, error)
}

// StockSource returns the curated stock card for a ticker.
type StockSource interface {
	LookupStock(ctx context.Context, ticker string) (*model.StockInfo, error)
}

// PortfolioSource returns the gated portfolio table.
type PortfolioSource interface {
	Portfolio(ctx context.Context, secret string) ([]model.PortfolioRow, error)
}

// NormalizeSymbol uppercases a ticker and swaps class separators to Yahoo's dash (BRK.B -> BRK-B).
func NormalizeSymbol(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(symbol)), ".", "-")
}
