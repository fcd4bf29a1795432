package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"TickerBot/internal/calculator"
	"TickerBot/internal/model"
	"TickerBot/internal/strategy"
)

const (
	dailyHistory  = 300
	weeklyHistory = 110
	rsiPeriod     = 14
	noData        = "-"

	// monthTradingDays approximates 30 calendar days of daily bars.
	monthTradingDays = 21
)

var (
	dayPeriods  = []int{50, 100, 200}
	weekPeriods = []int{50, 100}
)

// MockSource returns controllable fixed data for development and testing.
// It satisfies every source interface in this package.
type MockSource struct {
	Price      float64
	Currency   string
	Name       string
	DailyData  []model.OHLCV
	WeeklyData []model.OHLCV
	Stock      *model.StockInfo
	Rows       []model.PortfolioRow
	Err        error
}

func (m *MockSource) LookupQuote(_ context.Context, symbol string) (*model.Quote, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &model.Quote{Symbol: NormalizeSymbol(symbol), Price: m.Price, Currency: m.Currency, DisplayName: m.Name}, nil
}

func (m *MockSource) FetchDailyBars(_ context.Context, _ string, days int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.DailyData != nil {
		return m.DailyData, nil
	}
	return generateMockBars(m.Price, days, 24*time.Hour), nil
}

func (m *MockSource) FetchWeeklyBars(_ context.Context, _ string, weeks int) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.WeeklyData != nil {
		return m.WeeklyData, nil
	}
	return generateMockBars(m.Price, weeks, 7*24*time.Hour), nil
}

func (m *MockSource) LookupStock(_ context.Context, ticker string) (*model.StockInfo, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Stock == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ticker)
	}
	return m.Stock, nil
}

func (m *MockSource) Portfolio(context.Context, string) ([]model.PortfolioRow, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Rows, nil
}

func generateMockBars(basePrice float64, count int, step time.Duration) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	start := time.Now().Add(-time.Duration(count) * step)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   start.Add(time.Duration(i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}

// Collector builds stock cards: the curated sheet first, market data as a fallback.
type Collector struct {
	Sheet    StockSource // nil when no sheet is configured
	Quotes   QuoteSource
	Bars     BarSource
	Fallback bool
	Log      *logrus.Entry
}

// NewCollector creates a new Collector.
func NewCollector(sheet StockSource, quotes QuoteSource, bars BarSource, fallback bool, log *logrus.Entry) *Collector {
	return &Collector{Sheet: sheet, Quotes: quotes, Bars: bars, Fallback: fallback, Log: log}
}

// Stock returns the card for ticker.
func (c *Collector) Stock(ctx context.Context, ticker string) (*model.StockInfo, error) {
	if c.Sheet != nil {
		info, err := c.Sheet.LookupStock(ctx, ticker)
		if err == nil {
			return info, nil
		}
		if !c.Fallback || !(errors.Is(err, ErrNotFound) || errors.Is(err, ErrNotConfigured)) {
			return nil, err
		}
		c.Log.WithField("ticker", ticker).Infof("sheet has no card, using market data: %v", err)
	}
	return c.fromMarketData(ctx, ticker)
}

// fromMarketData computes the card locally. Missing history degrades to "-" fields, not an error.
func (c *Collector) fromMarketData(ctx context.Context, ticker string) (*model.StockInfo, error) {
	q, err := c.Quotes.LookupQuote(ctx, ticker)
	if err != nil {
		return nil, err
	}
	info := &model.StockInfo{
		Ticker:   q.Symbol,
		LongName: q.DisplayName,
		Price:    calculator.Format2(q.Price),
		Currency: q.Currency,
		Source:   model.SourceYahoo,
	}
	log := c.Log.WithField("ticker", q.Symbol)

	daily, err := c.Bars.FetchDailyBars(ctx, ticker, dailyHistory)
	if err != nil {
		log.Warnf("daily bars unavailable: %v", err)
	}
	weekly, err := c.Bars.FetchWeeklyBars(ctx, ticker, weeklyHistory)
	if err != nil {
		log.Warnf("weekly bars unavailable: %v", err)
	}

	dailyCloses := calculator.Closes(daily)
	weeklyCloses := calculator.Closes(weekly)
	snap := strategy.Snapshot{Price: q.Price}

	for _, p := range dayPeriods {
		v, text := sma(log, dailyCloses, p)
		info.SMADay = append(info.SMADay, text)
		if p == 200 {
			snap.SMA200D = v
		}
	}
	for _, p := range weekPeriods {
		v, text := sma(log, weeklyCloses, p)
		info.SMAWeek = append(info.SMAWeek, text)
		switch p {
		case 50:
			snap.SMA50W = v
		case 100:
			snap.SMA100W = v
		}
	}

	if rsi, err := calculator.RSI(dailyCloses, rsiPeriod); err == nil {
		info.RSI = calculator.Format2(rsi)
		snap.DailyRSI = rsi
	}
	if rsi, err := calculator.RSI(weeklyCloses, rsiPeriod); err == nil {
		snap.WeeklyRSI = rsi
	}
	if h, l, err := calculator.HighLow(daily, calculator.TradingDaysPerYear); err == nil {
		snap.High52W, snap.Low52W = h, l
		info.Notes = append(info.Notes, fmt.Sprintf("52W range: %s - %s", calculator.Format2(l), calculator.Format2(h)))
	}
	if h, l, err := calculator.HighLow(daily, monthTradingDays); err == nil {
		snap.High30D, snap.Low30D = h, l
	}

	verdict := strategy.Evaluate(snap)
	info.Suggestion = verdict.Summary()
	info.Notes = append(info.Notes, verdict.Breakdown()...)
	if verdict.Warning != "" {
		info.Notes = append(info.Notes, verdict.Warning)
	}
	return info, nil
}

// sma returns the average and its display text; "-" when history is too short.
func sma(log *logrus.Entry, closes []float64, period int) (float64, string) {
	ma, err := calculator.SMA(closes, period)
	if err != nil {
		log.Debugf("SMA%d skipped: %v", period, err)
		return 0, noData
	}
	return ma, calculator.Format2(ma)
}
