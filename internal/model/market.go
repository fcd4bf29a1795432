package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Quote is a point-in-time price snapshot for one symbol.
type Quote struct {
	Symbol      string
	Price       float64
	Currency    string
	DisplayName string
}

// StockSource tells where a StockInfo card came from.
type StockSource string

const (
	SourceSheet StockSource = "sheet"
	SourceYahoo StockSource = "yahoo"
)

// StockInfo is the display card behind /stock.
// Values are kept as the strings the upstream produced; they are display-only.
type StockInfo struct {
	Ticker        string
	LongName      string
	ThumbnailURL  string
	Price         string
	Currency      string
	Suggestion    string
	SupportLevels []string
	SMADay        []string // 50D, 100D, 200D
	SMAWeek       []string // 50W, 100W
	Notes         []string
	RSI           string
	Source        StockSource
}

// PortfolioRow is one line of the gated portfolio table.
type PortfolioRow struct {
	Ticker  string
	Price   string
	Support [4]string
	Note    string
}
