package scheduler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"TickerBot/internal/collector"
	"TickerBot/internal/model"
	"TickerBot/internal/recorder"
)

type sent struct {
	chatID  int64
	text    string
	retries int
}

type fakeSender struct {
	msgs []sent
	err  error
}

func (f *fakeSender) SendWithRetry(_ context.Context, chatID int64, text string, maxRetries int) error {
	f.msgs = append(f.msgs, sent{chatID, text, maxRetries})
	return f.err
}

// flakyQuotes fails for the symbols listed in bad.
type flakyQuotes struct {
	bad map[string]bool
}

func (f flakyQuotes) LookupQuote(_ context.Context, symbol string) (*model.Quote, error) {
	if f.bad[symbol] {
		return nil, collector.ErrNotFound
	}
	return &model.Quote{Symbol: collector.NormalizeSymbol(symbol), Price: 101.5, Currency: "USD"}, nil
}

type journal struct {
	recorder.NoopRecorder
	digests []*recorder.DigestEvent
	pruned  []time.Time
}

func (j *journal) RecordDigest(evt *recorder.DigestEvent) error {
	j.digests = append(j.digests, evt)
	return nil
}

func (j *journal) Prune(before time.Time) (int64, error) {
	j.pruned = append(j.pruned, before)
	return 3, nil
}

func newTestScheduler(quotes collector.QuoteSource, sender Sender, rec recorder.Recorder) *Scheduler {
	log, _ := test.NewNullLogger()
	s := NewScheduler(context.Background(), quotes, sender, rec, logrus.NewEntry(log))
	s.now = func() time.Time { return time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC) }
	return s
}

func TestRunDigestNow(t *testing.T) {
	sender := &fakeSender{}
	rec := &journal{}
	s := newTestScheduler(flakyQuotes{bad: map[string]bool{"ZZZZ": true}}, sender, rec)
	if err := s.RegisterDigest("0 0 9 * * 1-5", 42, []string{"NVDA", "brk.b", "ZZZZ"}); err != nil {
		t.Fatalf("RegisterDigest: %v", err)
	}

	if err := s.RunDigestNow(); err != nil {
		t.Fatalf("RunDigestNow: %v", err)
	}
	if len(sender.msgs) != 1 {
		t.Fatalf("sent %d messages, want one digest", len(sender.msgs))
	}
	msg := sender.msgs[0]
	if msg.chatID != 42 || msg.retries != 3 {
		t.Errorf("chat = %d retries = %d", msg.chatID, msg.retries)
	}
	for _, want := range []string{"2026-03-02", "NVDA", "BRK-B", "101.50", "Unavailable: ZZZZ"} {
		if !strings.Contains(msg.text, want) {
			t.Errorf("digest missing %q:\n%s", want, msg.text)
		}
	}
	if len(rec.digests) != 1 || rec.digests[0].Symbols != 3 || rec.digests[0].Failed != 1 || rec.digests[0].Error != "" {
		t.Errorf("journal = %+v", rec.digests)
	}
}

func TestRunDigestNow_SendFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("telegram down")}
	rec := &journal{}
	s := newTestScheduler(flakyQuotes{}, sender, rec)
	if err := s.RegisterDigest("@daily", 7, []string{"MSFT"}); err != nil {
		t.Fatal(err)
	}
	if err := s.RunDigestNow(); err == nil {
		t.Fatal("expected send error")
	}
	if len(rec.digests) != 1 || rec.digests[0].Error == "" {
		t.Errorf("failed send should be journaled: %+v", rec.digests)
	}
}

func TestRegister_Validation(t *testing.T) {
	s := newTestScheduler(flakyQuotes{}, &fakeSender{}, &journal{})
	if err := s.RegisterDigest("0 0 9 * * *", 0, []string{"NVDA"}); err == nil {
		t.Error("digest without chat should fail")
	}
	if err := s.RegisterDigest("not a cron", 1, []string{"NVDA"}); err == nil {
		t.Error("bad cron expression should fail")
	}
	if err := s.RegisterPrune("0 30 3 * * *", 0); err == nil {
		t.Error("prune without retention should fail")
	}
	if err := s.RegisterPrune("0 30 3 * * *", 24*time.Hour); err != nil {
		t.Errorf("RegisterPrune: %v", err)
	}
	if n := len(s.Cron.Entries()); n != 1 {
		t.Errorf("entries = %d, want 1", n)
	}
}

func TestPrune(t *testing.T) {
	rec := &journal{}
	s := newTestScheduler(flakyQuotes{}, &fakeSender{}, rec)
	if err := s.RegisterPrune("0 30 3 * * *", 48*time.Hour); err != nil {
		t.Fatal(err)
	}
	s.prune()
	want := time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)
	if len(rec.pruned) != 1 || !rec.pruned[0].Equal(want) {
		t.Errorf("pruned = %v, want %v", rec.pruned, want)
	}
}
