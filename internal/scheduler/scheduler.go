package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"TickerBot/internal/collector"
	"TickerBot/internal/model"
	"TickerBot/internal/notifier"
	"TickerBot/internal/recorder"
)

// Sender delivers a chat message with retries.
type Sender interface {
	SendWithRetry(ctx context.Context, chatID int64, text string, maxRetries int) error
}

// Scheduler runs the watchlist digest and journal pruning on cron schedules.
type Scheduler struct {
	Cron      *cron.Cron
	Quotes    collector.QuoteSource
	Notifier  Sender
	Recorder  recorder.Recorder
	ChatID    int64
	Watchlist []string
	Retention time.Duration
	Log       *logrus.Entry
	Ctx       context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, quotes collector.QuoteSource, sender Sender, rec recorder.Recorder, log *logrus.Entry) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Quotes:   quotes,
		Notifier: sender,
		Recorder: rec,
		Log:      log,
		Ctx:      ctx,
		now:      time.Now,
	}
}

// RegisterDigest posts the watchlist digest to chatID on digestCron.
func (s *Scheduler) RegisterDigest(digestCron string, chatID int64, watchlist []string) error {
	if len(watchlist) == 0 || chatID == 0 {
		return errors.New("digest needs a chat and at least one symbol")
	}
	s.ChatID = chatID
	s.Watchlist = watchlist
	if _, err := s.Cron.AddFunc(digestCron, func() {
		if err := s.RunDigestNow(); err != nil {
			s.Log.Errorf("digest: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("register digest task: %w", err)
	}
	return nil
}

// RegisterPrune deletes journal rows older than retention on pruneCron.
func (s *Scheduler) RegisterPrune(pruneCron string, retention time.Duration) error {
	if retention <= 0 {
		return errors.New("prune needs a positive retention")
	}
	s.Retention = retention
	if _, err := s.Cron.AddFunc(pruneCron, s.prune); err != nil {
		return fmt.Errorf("register prune task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.WithField("jobs", len(s.Cron.Entries())).Info("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// RunDigestNow looks up every watchlist symbol and sends one digest.
// Symbols that fail are listed as unavailable; the digest fails only when it cannot be sent.
func (s *Scheduler) RunDigestNow() error {
	at := s.now()
	s.Log.WithField("symbols", len(s.Watchlist)).Info("running watchlist digest")

	quotes := make([]*model.Quote, 0, len(s.Watchlist))
	var failed []string
	for _, sym := range s.Watchlist {
		q, err := s.Quotes.LookupQuote(s.Ctx, sym)
		if err != nil {
			s.Log.WithField("symbol", sym).Warnf("digest quote: %v", err)
			failed = append(failed, collector.NormalizeSymbol(sym))
			continue
		}
		quotes = append(quotes, q)
	}

	evt := &recorder.DigestEvent{At: at, ChatID: s.ChatID, Symbols: len(s.Watchlist), Failed: len(failed)}
	err := s.Notifier.SendWithRetry(s.Ctx, s.ChatID, notifier.FormatDigest(at, quotes, failed), 3)
	if err != nil {
		evt.Error = err.Error()
		err = fmt.Errorf("send digest: %w", err)
	}
	if rerr := s.Recorder.RecordDigest(evt); rerr != nil {
		s.Log.Errorf("record digest: %v", rerr)
	}
	return err
}

func (s *Scheduler) prune() {
	before := s.now().Add(-s.Retention)
	n, err := s.Recorder.Prune(before)
	if err != nil {
		s.Log.Errorf("prune journal: %v", err)
		return
	}
	s.Log.WithFields(logrus.Fields{"rows": n, "before": before.Format(time.RFC3339)}).Info("journal pruned")
}
