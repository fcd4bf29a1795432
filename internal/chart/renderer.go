package chart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"TickerBot/internal/metrics"
	"TickerBot/internal/model"
)

var (
	// ErrRenderTimeout means the widget never drew a full-size canvas in time.
	ErrRenderTimeout = errors.New("chart render timed out")
	// ErrRenderFailure covers browser launch, navigation and capture faults.
	ErrRenderFailure = errors.New("chart render failed")
)

// Browser starts an isolated browser session for one render.
type Browser interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is one page in a launched browser. Close releases the whole browser.
type Session interface {
	Navigate(ctx context.Context, html string) error
	WaitCanvas(ctx context.Context, minWidth int) error
	Capture(ctx context.Context) ([]byte, error)
	Close() error
}

// Options tune the render. Zero values fall back to DefaultOptions.
type Options struct {
	WidgetURL      string
	Theme          string
	Width          int
	Height         int
	ReadyTimeout   time.Duration
	MinCanvasWidth int
	MinBytes       int
	Attempts       int
	AttemptDelay   time.Duration
}

// DefaultOptions returns the production thresholds.
func DefaultOptions() Options {
	return Options{
		WidgetURL:      "https://s.tradingview.com/widgetembed/",
		Theme:          "dark",
		Width:          1280,
		Height:         720,
		ReadyTimeout:   20 * time.Second,
		MinCanvasWidth: 800,
		MinBytes:       10000,
		Attempts:       3,
		AttemptDelay:   time.Second,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.WidgetURL == "" {
		o.WidgetURL = d.WidgetURL
	}
	if o.Theme == "" {
		o.Theme = d.Theme
	}
	if o.Width <= 0 {
		o.Width = d.Width
	}
	if o.Height <= 0 {
		o.Height = d.Height
	}
	if o.ReadyTimeout <= 0 {
		o.ReadyTimeout = d.ReadyTimeout
	}
	if o.MinCanvasWidth <= 0 {
		o.MinCanvasWidth = d.MinCanvasWidth
	}
	if o.MinBytes <= 0 {
		o.MinBytes = d.MinBytes
	}
	if o.Attempts <= 0 {
		o.Attempts = d.Attempts
	}
	if o.AttemptDelay < 0 {
		o.AttemptDelay = 0
	}
	return o
}

// Renderer captures chart screenshots of the embedded widget.
type Renderer struct {
	Browser Browser
	Opts    Options
	Log     *logrus.Entry
}

// NewRenderer creates a Renderer.
func NewRenderer(browser Browser, opts Options, log *logrus.Entry) *Renderer {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Renderer{Browser: browser, Opts: opts.withDefaults(), Log: log}
}

// Render runs Launch, Navigate, WaitCanvas, then up to Opts.Attempts captures.
// A capture error uses up one attempt. When no capture reaches MinBytes the last
// successful one is returned with Complete=false; only when every capture errored
// is the render a failure.
func (r *Renderer) Render(ctx context.Context, req model.ChartRequest) (*model.ChartImage, error) {
	req.Ticker = strings.ToUpper(strings.TrimSpace(req.Ticker))
	req.Interval = model.ChartInterval(strings.ToUpper(string(req.Interval)))
	if req.Interval == "" {
		req.Interval = model.IntervalDaily
	}
	if req.Ticker == "" || !req.Interval.Valid() {
		return nil, fmt.Errorf("%w: bad request %q/%q", ErrRenderFailure, req.Ticker, req.Interval)
	}
	log := r.Log.WithFields(logrus.Fields{"ticker": req.Ticker, "interval": req.Interval})

	sess, err := r.Browser.Launch(ctx)
	if err != nil {
		metrics.ObserveChartCapture("error")
		return nil, fmt.Errorf("%w: launch: %w", ErrRenderFailure, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Warnf("browser close: %v", err)
		}
	}()

	page, err := WidgetPage(r.Opts, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailure, err)
	}
	if err := sess.Navigate(ctx, page); err != nil {
		metrics.ObserveChartCapture("error")
		return nil, fmt.Errorf("%w: navigate: %w", ErrRenderFailure, err)
	}

	wctx, cancel := context.WithTimeout(ctx, r.Opts.ReadyTimeout)
	err = sess.WaitCanvas(wctx, r.Opts.MinCanvasWidth)
	timedOut := wctx.Err() != nil
	cancel()
	if err != nil {
		metrics.ObserveChartCapture("error")
		if timedOut || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: canvas not ready after %v", ErrRenderTimeout, r.Opts.ReadyTimeout)
		}
		return nil, fmt.Errorf("%w: wait canvas: %w", ErrRenderFailure, err)
	}

	var (
		last       []byte
		captured   bool
		captureErr error
	)
	for attempt := 1; attempt <= r.Opts.Attempts; attempt++ {
		if err := pause(ctx, r.Opts.AttemptDelay); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRenderTimeout, err)
		}
		img, err := sess.Capture(ctx)
		if err != nil {
			metrics.ObserveChartCapture("error")
			log.WithField("attempt", attempt).Warnf("capture failed: %v", err)
			captureErr = fmt.Errorf("capture %d: %w", attempt, err)
			continue
		}
		last, captured = img, true
		if len(img) >= r.Opts.MinBytes {
			metrics.ObserveChartCapture("complete")
			log.WithField("attempt", attempt).Debugf("chart captured, %d bytes", len(img))
			return &model.ChartImage{Data: img, Attempts: attempt, Complete: true}, nil
		}
		metrics.ObserveChartCapture("short")
		log.WithField("attempt", attempt).Debugf("capture below threshold: %d < %d bytes", len(img), r.Opts.MinBytes)
	}

	if !captured {
		return nil, fmt.Errorf("%w: %w", ErrRenderFailure, captureErr)
	}
	log.Warnf("no capture reached %d bytes, keeping last (%d bytes)", r.Opts.MinBytes, len(last))
	return &model.ChartImage{Data: last, Attempts: r.Opts.Attempts, Complete: false}, nil
}

func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
