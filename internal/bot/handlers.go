package bot

import (
	"context"
	"crypto/subtle"
	"fmt"

	"github.com/sirupsen/logrus"

	"TickerBot/internal/calculator"
	"TickerBot/internal/collector"
	"TickerBot/internal/model"
	"TickerBot/internal/notifier"
)

// StockLookup builds a stock card.
type StockLookup interface {
	Stock(ctx context.Context, ticker string) (*model.StockInfo, error)
}

// ChartRenderer captures a chart image.
type ChartRenderer interface {
	Render(ctx context.Context, req model.ChartRequest) (*model.ChartImage, error)
}

// Deps are the collaborators the command handlers call.
type Deps struct {
	Quotes    collector.QuoteSource
	Stocks    StockLookup
	Charts    ChartRenderer
	Portfolio collector.PortfolioSource // nil disables /portfolio
	// PortfolioSecret is compared in constant time against the key the user sends.
	PortfolioSecret  string
	PortfolioMaxRows int
	Log              *logrus.Entry
}

type handlers struct {
	Deps
	registry *Registry
}

// Register adds every command to reg.
func Register(reg *Registry, deps Deps) error {
	h := &handlers{Deps: deps, registry: reg}
	tickerOpt := Option{Name: "ticker", Description: "Stock symbol, e.g. NVDA", Required: true}
	intervalOpt := Option{Name: "interval", Description: "Chart interval: D, W or M"}
	priceOpt := Option{Name: "price", Description: "Current price; looked up when omitted"}

	cmds := []*Command{
		{
			Name:        "stock",
			Description: "Stock card with moving averages, RSI and support levels",
			Options:     []Option{tickerOpt, intervalOpt},
			Defer:       true,
			Handler:     h.stock,
		},
		{
			Name:        "chart",
			Description: "Chart snapshot",
			Options:     []Option{tickerOpt, intervalOpt},
			Defer:       true,
			Handler:     h.chart,
		},
		{
			Name:        "dcf",
			Description: "Discounted cash flow from earnings per share",
			Options: []Option{
				tickerOpt,
				{Name: "eps", Description: "Earnings per share", Required: true},
				{Name: "growth", Description: "EPS growth rate in percent", Required: true},
				{Name: "pe", Description: "Terminal P/E multiple", Required: true},
				{Name: "return", Description: "Desired annual return in percent", Required: true},
				priceOpt,
			},
			Handler: h.dcf,
		},
		{
			Name:        "dcf_fcf",
			Description: "Discounted cash flow from free cash flow per share",
			Options: []Option{
				tickerOpt,
				{Name: "fcf", Description: "Free cash flow per share", Required: true},
				{Name: "growth", Description: "FCF growth rate in percent", Required: true},
				{Name: "yield", Description: "Terminal FCF yield in percent", Required: true},
				{Name: "return", Description: "Desired annual return in percent", Required: true},
				priceOpt,
			},
			Handler: h.dcfFCF,
		},
		{
			Name:        "graham",
			Description: "Benjamin Graham intrinsic value",
			Options: []Option{
				tickerOpt,
				{Name: "eps", Description: "Trailing 12 month EPS", Required: true},
				{Name: "growth", Description: "Long-term growth rate in percent", Required: true},
				{Name: "yield", Description: "AAA corporate bond yield in percent", Required: true},
			},
			Handler: h.graham,
		},
		{
			Name:        "portfolio",
			Description: "Personal portfolio (key required)",
			Options:     []Option{{Name: "key", Description: "Access key", Required: true}},
			Defer:       true,
			Redact:      true,
			Handler:     h.portfolio,
		},
		{
			Name:        "help",
			Description: "List commands",
			Handler:     h.help,
		},
	}
	for _, cmd := range cmds {
		if err := reg.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (h *handlers) stock(ctx context.Context, args Args) (model.Reply, error) {
	ticker, err := args.Ticker("ticker")
	if err != nil {
		return model.Reply{}, err
	}
	interval, err := args.Interval("interval", "")
	if err != nil {
		return model.Reply{}, err
	}

	info, err := h.Stocks.Stock(ctx, ticker)
	if err != nil {
		return model.Reply{}, fmt.Errorf("stock %s: %w", ticker, err)
	}
	reply := model.Reply{Text: notifier.FormatStock(info)}
	if interval == "" {
		return reply, nil
	}

	req := model.ChartRequest{Ticker: ticker, Interval: interval}
	img, err := h.Charts.Render(ctx, req)
	if err != nil {
		h.Log.WithField("ticker", ticker).Warnf("chart unavailable, sending card only: %v", err)
		return reply, nil
	}
	reply.Photo = &model.Photo{Name: req.FileName(), Data: img.Data}
	return reply, nil
}

func (h *handlers) chart(ctx context.Context, args Args) (model.Reply, error) {
	ticker, err := args.Ticker("ticker")
	if err != nil {
		return model.Reply{}, err
	}
	interval, err := args.Interval("interval", model.IntervalDaily)
	if err != nil {
		return model.Reply{}, err
	}

	req := model.ChartRequest{Ticker: ticker, Interval: interval}
	img, err := h.Charts.Render(ctx, req)
	if err != nil {
		return model.Reply{}, fmt.Errorf("chart %s: %w", ticker, err)
	}
	return model.Reply{
		Text:  notifier.ChartCaption(req, img),
		Photo: &model.Photo{Name: req.FileName(), Data: img.Data},
	}, nil
}

// currentPrice returns the price argument, or the looked-up quote when it is absent.
func (h *handlers) currentPrice(ctx context.Context, ticker string, args Args) (float64, error) {
	if args.Has("price") {
		return args.Positive("price")
	}
	q, err := h.Quotes.LookupQuote(ctx, ticker)
	if err != nil {
		return 0, fmt.Errorf("quote %s: %w", ticker, err)
	}
	if q.Price <= 0 {
		return 0, usagef("no current price for %s, pass price=...", ticker)
	}
	return q.Price, nil
}

// valuationInput parses the arguments shared by both DCF commands.
func (h *handlers) valuationInput(ctx context.Context, args Args, perShare, multiple string) (string, model.ValuationInput, error) {
	var in model.ValuationInput
	ticker, err := args.Ticker("ticker")
	if err != nil {
		return "", in, err
	}
	if in.PerShare, err = args.Float(perShare); err != nil {
		return "", in, err
	}
	if in.GrowthRatePercent, err = args.Float("growth"); err != nil {
		return "", in, err
	}
	if in.YieldOrMultiple, err = args.Positive(multiple); err != nil {
		return "", in, err
	}
	if in.DesiredReturnPercent, err = args.Float("return"); err != nil {
		return "", in, err
	}
	if in.CurrentPrice, err = h.currentPrice(ctx, ticker, args); err != nil {
		return "", in, err
	}
	return ticker, in, nil
}

func (h *handlers) dcf(ctx context.Context, args Args) (model.Reply, error) {
	ticker, in, err := h.valuationInput(ctx, args, "eps", "pe")
	if err != nil {
		return model.Reply{}, err
	}
	return model.Reply{Text: notifier.FormatValuation(ticker, calculator.EarningsDCF(in))}, nil
}

func (h *handlers) dcfFCF(ctx context.Context, args Args) (model.Reply, error) {
	ticker, in, err := h.valuationInput(ctx, args, "fcf", "yield")
	if err != nil {
		return model.Reply{}, err
	}
	return model.Reply{Text: notifier.FormatValuation(ticker, calculator.FreeCashFlowDCF(in))}, nil
}

func (h *handlers) graham(ctx context.Context, args Args) (model.Reply, error) {
	ticker, err := args.Ticker("ticker")
	if err != nil {
		return model.Reply{}, err
	}
	eps, err := args.Float("eps")
	if err != nil {
		return model.Reply{}, err
	}
	growth, err := args.Float("growth")
	if err != nil {
		return model.Reply{}, err
	}
	yield, err := args.Float("yield")
	if err != nil {
		return model.Reply{}, err
	}
	if yield < 0 {
		return model.Reply{}, usagef("yield must not be negative")
	}

	// a zero yield comes back as ErrInvalidInput and is answered with the apology
	g, err := calculator.GrahamValue(eps, growth, yield)
	if err != nil {
		return model.Reply{}, fmt.Errorf("graham %s: %w", ticker, err)
	}

	// The price is context only; the value stands without it.
	q, err := h.Quotes.LookupQuote(ctx, ticker)
	if err != nil {
		h.Log.WithField("ticker", ticker).Warnf("graham without current price: %v", err)
		q = nil
	}
	return model.Reply{Text: notifier.FormatGraham(ticker, q, g)}, nil
}

func (h *handlers) portfolio(ctx context.Context, args Args) (model.Reply, error) {
	if h.Portfolio == nil || h.PortfolioSecret == "" {
		return model.Reply{}, usagef("portfolio is not enabled")
	}
	key := args.String("key")
	if subtle.ConstantTimeCompare([]byte(key), []byte(h.PortfolioSecret)) != 1 {
		h.Log.Warn("portfolio: wrong key")
		return model.Reply{Text: "🔒 Access denied."}, nil
	}

	rows, err := h.Portfolio.Portfolio(ctx, key)
	if err != nil {
		return model.Reply{}, fmt.Errorf("portfolio: %w", err)
	}
	return model.Reply{Text: notifier.FormatPortfolio(rows, h.PortfolioMaxRows)}, nil
}

func (h *handlers) help(context.Context, Args) (model.Reply, error) {
	return model.Reply{Text: notifier.FormatHelp(h.registry.Help())}, nil
}
