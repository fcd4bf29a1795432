package collector

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TickerBot/internal/fetcher"
)

func newTestSheet(t *testing.T, h http.HandlerFunc) *Sheet {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewSheet(fetcher.New("", time.Millisecond, testLog()), srv.URL+"/stock", srv.URL+"/portfolio", time.Second, 1)
}

func jsonReply(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func TestSheetLookupStock(t *testing.T) {
	s := newTestSheet(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.FormValue("ticker") != "NVDA" {
			t.Errorf("request = %s ticker=%q", r.Method, r.FormValue("ticker"))
		}
		jsonReply(w, `{"ticker":"NVDA","longName":"NVIDIA Corp","regularMarketPrice":181.5,"currency":"USD",
			"suggestion":"Accumulate","supportLevels":[170,"160.5",150],"smaDay":[175.2,168,150.1],
			"smaWeek":["140","120"],"note":["Earnings 27 Aug"],"thumbnailUrl":null}`)
	})

	info, err := s.LookupStock(context.Background(), "nvda")
	if err != nil {
		t.Fatalf("LookupStock: %v", err)
	}
	if info.Ticker != "NVDA" || info.Price != "181.5" || info.Currency != "USD" || info.ThumbnailURL != "" {
		t.Errorf("info = %+v", info)
	}
	if len(info.SupportLevels) != 3 || info.SupportLevels[1] != "160.5" {
		t.Errorf("support = %v", info.SupportLevels)
	}
	if len(info.SMADay) != 3 || len(info.SMAWeek) != 2 || info.Notes[0] != "Earnings 27 Aug" {
		t.Errorf("sma/notes = %v %v %v", info.SMADay, info.SMAWeek, info.Notes)
	}
}

func TestSheetLookupStock_NonArrayListsAreEmpty(t *testing.T) {
	s := newTestSheet(t, func(w http.ResponseWriter, r *http.Request) {
		jsonReply(w, `{"ticker":"AMD","supportLevels":"n/a","note":null}`)
	})
	info, err := s.LookupStock(context.Background(), "AMD")
	if err != nil {
		t.Fatalf("LookupStock: %v", err)
	}
	if len(info.SupportLevels) != 0 || len(info.Notes) != 0 {
		t.Errorf("expected empty lists, got %v %v", info.SupportLevels, info.Notes)
	}
}

func TestSheetLookupStock_NotFound(t *testing.T) {
	for _, body := range []string{`{}`, `{"data":[{}]}`, `{"longName":"no ticker"}`} {
		s := newTestSheet(t, func(w http.ResponseWriter, r *http.Request) { jsonReply(w, body) })
		if _, err := s.LookupStock(context.Background(), "ZZZZ"); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", body, err)
		}
	}
}

func TestSheetLookupStock_BrokenBodyIsNotNotFound(t *testing.T) {
	for _, body := range []string{`{"ticker":`, `{"ticker":{"nested":true}}`} {
		s := newTestSheet(t, func(w http.ResponseWriter, r *http.Request) { jsonReply(w, body) })
		_, err := s.LookupStock(context.Background(), "NVDA")
		if errors.Is(err, ErrNotFound) {
			t.Errorf("%s: decode failure reported as not found: %v", body, err)
		}
		if !fetcher.IsKind(err, fetcher.KindDataShape) {
			t.Errorf("%s: expected data_shape, got %v", body, err)
		}
	}
}

func TestSheetLookupStock_NotConfigured(t *testing.T) {
	s := NewSheet(fetcher.New("", 0, testLog()), "", "", time.Second, 0)
	if _, err := s.LookupStock(context.Background(), "NVDA"); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("expected ErrNotConfigured, got %v", err)
	}
}

func TestSheetPortfolio(t *testing.T) {
	s := newTestSheet(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/portfolio" || r.FormValue("password") != "s3cret" {
			t.Errorf("path %s password %q", r.URL.Path, r.FormValue("password"))
		}
		jsonReply(w, `{"data":[
			{"ticker":"NVDA","regularMarketPrice":181.5,"support1":170,"support2":160,"support3":150,"support4":140,"note":"core"},
			{"ticker":"","note":"blank row"}]}`)
	})
	rows, err := s.Portfolio(context.Background(), "s3cret")
	if err != nil {
		t.Fatalf("Portfolio: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].Support != [4]string{"170", "160", "150", "140"} || rows[0].Note != "core" || rows[0].Price != "181.5" {
		t.Errorf("row = %+v", rows[0])
	}
}

func TestSheetPortfolio_NoData(t *testing.T) {
	s := newTestSheet(t, func(w http.ResponseWriter, r *http.Request) { jsonReply(w, `{"error":"denied"}`) })
	if _, err := s.Portfolio(context.Background(), "wrong"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
