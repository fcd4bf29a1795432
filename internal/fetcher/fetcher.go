package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"TickerBot/internal/metrics"
)

const (
	DefaultTimeout = 10 * time.Second
	DefaultBackoff = time.Second
)

// Request describes one logical fetch. Body is a byte slice so every retry can resend it.
type Request struct {
	URL         string
	Method      string
	Header      http.Header
	Body        []byte
	ContentType string
	Timeout     time.Duration
	MaxRetries  int
	// CheckPayload enables the degenerate-JSON check on application/json responses.
	CheckPayload bool
}

// Get builds a GET request with default timeout and no retries.
func Get(rawURL string) Request {
	return Request{URL: rawURL, Method: http.MethodGet}
}

// PostForm builds a form-encoded POST request.
func PostForm(rawURL string, form url.Values) Request {
	return Request{
		URL:         rawURL,
		Method:      http.MethodPost,
		Body:        []byte(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
	}
}

// Response is a successful fetch.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Attempts   int
}

// Decode unmarshals the JSON body into v; failures are DataShape errors.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &Error{Kind: KindDataShape, StatusCode: r.StatusCode, Err: fmt.Errorf("decode body: %w", err)}
	}
	return nil
}

// Client performs requests with a per-attempt timeout and fixed-backoff retries.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	HTTP    *http.Client
	Backoff time.Duration
	Log     *logrus.Entry
}

// New creates a Client with optional proxy support.
func New(proxyURL string, backoff time.Duration, log *logrus.Entry) *Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if backoff < 0 {
		backoff = 0
	}
	return &Client{
		HTTP:    &http.Client{Transport: transport},
		Backoff: backoff,
		Log:     log,
	}
}

// Do runs req until it succeeds or its retries are used up. Every failure kind consumes
// one retry. The returned error is always a *Error describing the last attempt.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := req.MaxRetries
	if retries < 0 {
		retries = 0
	}

	var lastErr *Error
	attempts := 0
	for attempts < retries+1 {
		attempts++
		resp, ferr := c.attempt(ctx, req, timeout)
		if ferr == nil {
			metrics.ObserveFetchAttempt("ok")
			resp.Attempts = attempts
			return resp, nil
		}
		metrics.ObserveFetchAttempt(string(ferr.Kind))
		lastErr = ferr

		if attempts > retries || ctx.Err() != nil {
			break
		}
		c.log().WithFields(logrus.Fields{
			"url":     redact(req.URL),
			"attempt": attempts,
			"of":      retries + 1,
			"kind":    ferr.Kind,
		}).Warnf("fetch attempt failed, retrying in %v: %v", c.Backoff, ferr.Err)
		if !sleep(ctx, c.Backoff) {
			break
		}
	}

	lastErr.Attempts = attempts
	return nil, lastErr
}

// attempt owns its own timeout context; cancelling it never touches other attempts.
func (c *Client) attempt(ctx context.Context, req Request, timeout time.Duration) (*Response, *Error) {
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	hreq, err := http.NewRequestWithContext(actx, req.Method, req.URL, body)
	if err != nil {
		return nil, &Error{Kind: KindTransport, Err: fmt.Errorf("build request: %w", err)}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			hreq.Header.Add(k, v)
		}
	}
	if req.ContentType != "" {
		hreq.Header.Set("Content-Type", req.ContentType)
	}

	resp, err := c.httpClient().Do(hreq)
	if err != nil {
		return nil, classify(actx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(actx, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &Error{
			Kind:       KindHTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("status %d, body: %s", resp.StatusCode, truncate(data, 200)),
		}
	}
	if req.CheckPayload && isJSON(resp.Header.Get("Content-Type")) {
		if err := checkPayload(data); err != nil {
			return nil, &Error{Kind: KindDataShape, StatusCode: resp.StatusCode, Err: err}
		}
	}
	return &Response{StatusCode: resp.StatusCode, Header: resp.Header, Body: data}, nil
}

func classify(actx context.Context, err error) *Error {
	if errors.Is(actx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindTransport, Err: err}
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}

func (c *Client) log() *logrus.Entry {
	if c.Log != nil {
		return c.Log
	}
	return logrus.NewEntry(logrus.StandardLogger())
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// redact drops the query string; sheet endpoints carry deployment ids there.
func redact(raw string) string {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		return raw[:i]
	}
	return raw
}
