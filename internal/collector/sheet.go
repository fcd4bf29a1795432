package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"TickerBot/internal/fetcher"
	"TickerBot/internal/model"
)

// Sheet reads the curated stock cards and the portfolio from spreadsheet-backed script endpoints.
type Sheet struct {
	Client       *fetcher.Client
	StockURL     string
	PortfolioURL string
	Timeout      time.Duration
	MaxRetries   int
}

// NewSheet creates a Sheet source. Either URL may be empty.
func NewSheet(client *fetcher.Client, stockURL, portfolioURL string, timeout time.Duration, maxRetries int) *Sheet {
	return &Sheet{
		Client:       client,
		StockURL:     stockURL,
		PortfolioURL: portfolioURL,
		Timeout:      timeout,
		MaxRetries:   maxRetries,
	}
}

// flexString accepts a JSON string or number; spreadsheet cells come back as either.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(n.String())
	return nil
}

// flexList decodes an array of cells. Anything that is not an array decodes as empty.
type flexList []string

func (l *flexList) UnmarshalJSON(b []byte) error {
	var cells []flexString
	if err := json.Unmarshal(b, &cells); err != nil {
		*l = nil
		return nil
	}
	out := make([]string, 0, len(cells))
	for _, c := range cells {
		if c != "" {
			out = append(out, string(c))
		}
	}
	*l = out
	return nil
}

type sheetStock struct {
	Ticker             flexString `json:"ticker"`
	LongName           flexString `json:"longName"`
	ThumbnailURL       flexString `json:"thumbnailUrl"`
	RegularMarketPrice flexString `json:"regularMarketPrice"`
	Currency           flexString `json:"currency"`
	Suggestion         flexString `json:"suggestion"`
	SupportLevels      flexList   `json:"supportLevels"`
	SMADay             flexList   `json:"smaDay"`
	SMAWeek            flexList   `json:"smaWeek"`
	Note               flexList   `json:"note"`
}

type sheetPortfolio struct {
	Data *[]struct {
		Ticker             flexString `json:"ticker"`
		RegularMarketPrice flexString `json:"regularMarketPrice"`
		Support1           flexString `json:"support1"`
		Support2           flexString `json:"support2"`
		Support3           flexString `json:"support3"`
		Support4           flexString `json:"support4"`
		Note               flexString `json:"note"`
	} `json:"data"`
}

func (s *Sheet) post(ctx context.Context, endpoint string, form url.Values, v any) error {
	req := fetcher.PostForm(endpoint, form)
	req.Timeout = s.Timeout
	req.MaxRetries = s.MaxRetries
	req.CheckPayload = true

	resp, err := s.Client.Do(ctx, req)
	if err != nil {
		return err
	}
	return resp.Decode(v)
}

// LookupStock fetches the curated card for ticker. An empty payload or a record without a
// ticker means the sheet does not track it; a body that does not decode stays a data_shape error.
func (s *Sheet) LookupStock(ctx context.Context, ticker string) (*model.StockInfo, error) {
	if s.StockURL == "" {
		return nil, fmt.Errorf("stock sheet: %w", ErrNotConfigured)
	}
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	var rec sheetStock
	err := s.post(ctx, s.StockURL, url.Values{"ticker": {symbol}}, &rec)
	switch {
	case errors.Is(err, fetcher.ErrEmptyPayload):
		return nil, fmt.Errorf("%w: %s not in sheet (%v)", ErrNotFound, symbol, err)
	case err != nil:
		return nil, fmt.Errorf("stock sheet %s: %w", symbol, err)
	case rec.Ticker == "":
		return nil, fmt.Errorf("%w: %s not in sheet", ErrNotFound, symbol)
	}

	return &model.StockInfo{
		Ticker:        string(rec.Ticker),
		LongName:      string(rec.LongName),
		ThumbnailURL:  string(rec.ThumbnailURL),
		Price:         string(rec.RegularMarketPrice),
		Currency:      string(rec.Currency),
		Suggestion:    string(rec.Suggestion),
		SupportLevels: rec.SupportLevels,
		SMADay:        rec.SMADay,
		SMAWeek:       rec.SMAWeek,
		Notes:         rec.Note,
		Source:        model.SourceSheet,
	}, nil
}

// Portfolio fetches the portfolio table; the endpoint checks secret itself as well.
func (s *Sheet) Portfolio(ctx context.Context, secret string) ([]model.PortfolioRow, error) {
	if s.PortfolioURL == "" {
		return nil, fmt.Errorf("portfolio sheet: %w", ErrNotConfigured)
	}

	var body sheetPortfolio
	if err := s.post(ctx, s.PortfolioURL, url.Values{"password": {secret}}, &body); err != nil {
		return nil, fmt.Errorf("portfolio sheet: %w", err)
	}
	if body.Data == nil {
		return nil, fmt.Errorf("%w: portfolio has no data", ErrNotFound)
	}

	rows := make([]model.PortfolioRow, 0, len(*body.Data))
	for _, r := range *body.Data {
		if r.Ticker == "" {
			continue
		}
		rows = append(rows, model.PortfolioRow{
			Ticker:  string(r.Ticker),
			Price:   string(r.RegularMarketPrice),
			Support: [4]string{string(r.Support1), string(r.Support2), string(r.Support3), string(r.Support4)},
			Note:    string(r.Note),
		})
	}
	return rows, nil
}
