package chart

import (
	"context"
	"errors"
	"fmt"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

// Chrome launches headless Chromium through chromedp, tuned for small containers.
type Chrome struct {
	ExecPath string // empty: look up chrome/chromium on PATH
	Width    int
	Height   int
	Log      *logrus.Entry
}

// NewChrome creates a Chrome browser launcher.
func NewChrome(execPath string, width, height int, log *logrus.Entry) *Chrome {
	return &Chrome{ExecPath: execPath, Width: width, Height: height, Log: log}
}

// Launch starts a fresh browser process and opens one tab.
func (c *Chrome) Launch(ctx context.Context) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("single-process", true),
		chromedp.Flag("no-zygote", true),
		// keep the widget iframe in the page's process so it can be queried and polled
		chromedp.Flag("disable-site-isolation-trials", true),
		chromedp.Flag("disable-features", "site-per-process,IsolateOrigins"),
		chromedp.WindowSize(c.Width, c.Height),
	)
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithErrorf(c.Log.Debugf))

	// The first Run starts the browser; it must use the tab context itself so
	// later per-call deadlines do not tear the browser down.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, err
	}

	s := &chromeSession{ctx: tabCtx, cancelTab: cancelTab, cancelAlloc: cancelAlloc, log: c.Log, width: c.Width, height: c.Height}
	chromedp.ListenTarget(tabCtx, s.onEvent)
	return s, nil
}

type chromeSession struct {
	ctx         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	log         *logrus.Entry
	width       int
	height      int
}

func blockedResource(t network.ResourceType) bool {
	switch t {
	case network.ResourceTypeImage, network.ResourceTypeMedia, network.ResourceTypeFont:
		return true
	}
	return false
}

// onEvent answers paused requests; images, media and fonts are failed.
func (s *chromeSession) onEvent(ev any) {
	e, ok := ev.(*fetch.EventRequestPaused)
	if !ok {
		return
	}
	c := chromedp.FromContext(s.ctx)
	if c == nil || c.Target == nil {
		return
	}
	go func() {
		ctx := cdp.WithExecutor(s.ctx, c.Target)
		var err error
		if blockedResource(e.ResourceType) {
			err = fetch.FailRequest(e.RequestID, network.ErrorReasonBlockedByClient).Do(ctx)
		} else {
			err = fetch.ContinueRequest(e.RequestID).Do(ctx)
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			s.log.Debugf("request %s: %v", e.RequestID, err)
		}
	}()
}

// bind runs tab actions under the caller's deadline and cancellation.
func (s *chromeSession) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	bctx, cancel := context.WithCancel(s.ctx)
	stop := context.AfterFunc(ctx, cancel)
	if d, ok := ctx.Deadline(); ok {
		dctx, dcancel := context.WithDeadline(bctx, d)
		return dctx, func() { stop(); dcancel(); cancel() }
	}
	return bctx, func() { stop(); cancel() }
}

func (s *chromeSession) Navigate(ctx context.Context, html string) error {
	bctx, cancel := s.bind(ctx)
	defer cancel()
	return chromedp.Run(bctx,
		chromedp.EmulateViewport(int64(s.width), int64(s.height)),
		fetch.Enable(),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("#"+WidgetFrameID, chromedp.ByQuery),
	)
}

func (s *chromeSession) WaitCanvas(ctx context.Context, minWidth int) error {
	bctx, cancel := s.bind(ctx)
	defer cancel()

	var frames []*cdp.Node
	if err := chromedp.Run(bctx, chromedp.Nodes("#"+WidgetFrameID, &frames, chromedp.ByQuery)); err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("widget frame #%s missing", WidgetFrameID)
	}

	var ready bool
	expr := fmt.Sprintf(`(() => { const c = document.querySelector('canvas'); return !!c && c.width > %d; })()`, minWidth)
	return chromedp.Run(bctx,
		chromedp.WaitReady("canvas", chromedp.ByQuery, chromedp.FromNode(frames[0])),
		chromedp.Poll(expr, &ready, chromedp.WithPollingInFrame(frames[0])),
	)
}

func (s *chromeSession) Capture(ctx context.Context) ([]byte, error) {
	bctx, cancel := s.bind(ctx)
	defer cancel()
	var buf []byte
	err := chromedp.Run(bctx, chromedp.Screenshot("#"+WidgetFrameID, &buf, chromedp.NodeVisible, chromedp.ByQuery))
	return buf, err
}

func (s *chromeSession) Close() error {
	err := chromedp.Cancel(s.ctx)
	s.cancelTab()
	s.cancelAlloc()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
