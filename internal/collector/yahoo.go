package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"TickerBot/internal/fetcher"
	"TickerBot/internal/model"
)

// Yahoo implements QuoteSource and BarSource using the Yahoo Finance chart API.
type Yahoo struct {
	Client     *fetcher.Client
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	MaxRetries int
	SymbolMap  map[string]string // maps user aliases to Yahoo tickers
}

// NewYahoo creates a Yahoo source on top of a shared fetcher client.
func NewYahoo(client *fetcher.Client, baseURL, userAgent string, timeout time.Duration, maxRetries int) *Yahoo {
	return &Yahoo{
		Client:     client,
		BaseURL:    baseURL,
		UserAgent:  userAgent,
		Timeout:    timeout,
		MaxRetries: maxRetries,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
			"NDX":    "^NDX",
		},
	}
}

func (y *Yahoo) yahooSymbol(symbol string) string {
	s := NormalizeSymbol(symbol)
	if mapped, ok := y.SymbolMap[s]; ok {
		return mapped
	}
	return s
}

// yahooChart is the response structure from the chart API. Every field is optional.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string   `json:"symbol"`
				Currency           string   `json:"currency"`
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
				LongName           string   `json:"longName"`
				ShortName          string   `json:"shortName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func (y *Yahoo) fetchChart(ctx context.Context, symbol string, query url.Values) (*yahooChart, error) {
	u := fmt.Sprintf("%s/v8/finance/chart/%s", y.BaseURL, url.PathEscape(symbol))
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req := fetcher.Get(u)
	req.Header = http.Header{"User-Agent": {y.UserAgent}}
	req.Timeout = y.Timeout
	req.MaxRetries = y.MaxRetries

	resp, err := y.Client.Do(ctx, req)
	if err != nil {
		if fetcher.StatusCode(err) == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
		}
		return nil, fmt.Errorf("yahoo fetch %s: %w", symbol, err)
	}
	var chart yahooChart
	if err := resp.Decode(&chart); err != nil {
		return nil, fmt.Errorf("yahoo decode %s: %w", symbol, err)
	}
	if chart.Chart.Error != nil {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotFound, symbol, chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, symbol)
	}
	return &chart, nil
}

// LookupQuote returns the latest price and display metadata for a symbol.
func (y *Yahoo) LookupQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	sym := y.yahooSymbol(symbol)
	if sym == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrNotFound)
	}
	chart, err := y.fetchChart(ctx, sym, nil)
	if err != nil {
		return nil, err
	}

	meta := chart.Chart.Result[0].Meta
	q := &model.Quote{
		Symbol:      sym,
		Currency:    meta.Currency,
		DisplayName: meta.LongName,
	}
	if meta.RegularMarketPrice != nil {
		q.Price = *meta.RegularMarketPrice
	}
	if q.DisplayName == "" {
		q.DisplayName = meta.ShortName
	}
	return q, nil
}

func (y *Yahoo) fetchBars(ctx context.Context, symbol, interval, rng string) ([]model.OHLCV, error) {
	sym := y.yahooSymbol(symbol)
	chart, err := y.fetchChart(ctx, sym, url.Values{"interval": {interval}, "range": {rng}})
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s has no %s history", ErrNotFound, sym, interval)
	}
	quote := result.Indicators.Quote[0]
	n := len(result.Timestamp)
	if len(quote.Open) < n || len(quote.High) < n || len(quote.Low) < n || len(quote.Close) < n {
		return nil, &fetcher.Error{Kind: fetcher.KindDataShape, Err: fmt.Errorf("yahoo %s: indicator arrays shorter than timestamps", sym)}
	}

	bars := make([]model.OHLCV, 0, n)
	for i, ts := range result.Timestamp {
		if quote.Close[i] == nil {
			continue // null bars (holidays, halted sessions)
		}
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0),
			Open:   deref(quote.Open[i]),
			High:   deref(quote.High[i]),
			Low:    deref(quote.Low[i]),
			Close:  *quote.Close[i],
			Volume: derefAt(quote.Volume, i),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// FetchDailyBars returns up to days daily bars.
func (y *Yahoo) FetchDailyBars(ctx context.Context, symbol string, days int) ([]model.OHLCV, error) {
	rng := "2y"
	switch {
	case days <= 30:
		rng = "1mo"
	case days <= 90:
		rng = "3mo"
	case days <= 180:
		rng = "6mo"
	case days <= 250:
		rng = "1y"
	}
	bars, err := y.fetchBars(ctx, symbol, "1d", rng)
	if err != nil {
		return nil, err
	}
	return tail(bars, days), nil
}

// FetchWeeklyBars returns up to weeks weekly bars.
func (y *Yahoo) FetchWeeklyBars(ctx context.Context, symbol string, weeks int) ([]model.OHLCV, error) {
	rng := "5y"
	switch {
	case weeks <= 26:
		rng = "6mo"
	case weeks <= 52:
		rng = "1y"
	case weeks <= 104:
		rng = "2y"
	}
	bars, err := y.fetchBars(ctx, symbol, "1wk", rng)
	if err != nil {
		return nil, err
	}
	return tail(bars, weeks), nil
}

func tail(bars []model.OHLCV, n int) []model.OHLCV {
	if n > 0 && len(bars) > n {
		return bars[len(bars)-n:]
	}
	return bars
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func derefAt(vs []*float64, i int) float64 {
	if i >= len(vs) {
		return 0
	}
	return deref(vs[i])
}
