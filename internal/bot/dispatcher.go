package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"TickerBot/internal/calculator"
	"TickerBot/internal/chart"
	"TickerBot/internal/collector"
	"TickerBot/internal/fetcher"
	"TickerBot/internal/metrics"
	"TickerBot/internal/model"
	"TickerBot/internal/notifier"
	"TickerBot/internal/recorder"
)

const (
	DefaultAckDeadline    = 2 * time.Second
	DefaultCommandTimeout = 60 * time.Second

	// deliverTimeout bounds the final send, which runs even after the command timed out.
	deliverTimeout = 20 * time.Second
	redacted       = "[redacted]"
)

// PanicError carries a recovered handler panic.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string { return fmt.Sprintf("handler panic: %v", e.Value) }

// Dispatcher runs commands with the acknowledge-then-deliver protocol.
type Dispatcher struct {
	Registry    *Registry
	Recorder    recorder.Recorder
	AckDeadline time.Duration
	Timeout     time.Duration
	Log         *logrus.Entry
}

// NewDispatcher creates a Dispatcher. Zero durations take the defaults.
func NewDispatcher(reg *Registry, rec recorder.Recorder, ackDeadline, timeout time.Duration, log *logrus.Entry) *Dispatcher {
	if ackDeadline <= 0 {
		ackDeadline = DefaultAckDeadline
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	return &Dispatcher{Registry: reg, Recorder: rec, AckDeadline: ackDeadline, Timeout: timeout, Log: log}
}

type result struct {
	reply model.Reply
	err   error
}

// Dispatch handles one interaction end to end. Unknown commands are ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, in model.Interaction, resp notifier.Responder) {
	cmd, ok := d.Registry.Lookup(in.Command)
	if !ok {
		d.Log.WithField("command", in.Command).Debug("ignoring unknown command")
		return
	}
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	start := time.Now()
	log := d.Log.WithFields(logrus.Fields{
		"id":      in.ID,
		"command": cmd.Name,
		"user":    in.User,
		"chat_id": in.ChatID,
	})
	if !cmd.Redact {
		log = log.WithField("args", strings.Join(in.Args, " "))
	}

	cmdCtx, cancel := context.WithTimeout(ctx, d.Timeout)
	defer cancel()

	var res result
	args, err := bindArgs(cmd, in.Args)
	if err != nil {
		res.err = err
	} else {
		res = d.run(cmdCtx, cmd, args, resp, log)
	}

	reply, outcome := d.finish(cmd, res, log)
	if cmd.Redact {
		reply.DeleteTrigger = true
	}

	deliverCtx, cancelDeliver := context.WithTimeout(context.WithoutCancel(ctx), deliverTimeout)
	defer cancelDeliver()
	if err := resp.Deliver(deliverCtx, reply); err != nil {
		log.Errorf("deliver failed: %v", err)
	}

	took := time.Since(start)
	metrics.ObserveCommand(cmd.Name, outcome, took)
	log.WithFields(logrus.Fields{"outcome": outcome, "took": took.Round(time.Millisecond)}).Info("command handled")

	evt := &recorder.CommandEvent{
		ID:       in.ID,
		At:       start,
		Command:  cmd.Name,
		User:     in.User,
		ChatID:   in.ChatID,
		Args:     strings.Join(in.Args, " "),
		Outcome:  outcome,
		Duration: took,
	}
	if cmd.Redact {
		evt.Args = redacted
	}
	if res.err != nil {
		evt.ErrorKind = errorKind(res.err)
		evt.Error = res.err.Error()
	}
	if err := d.Recorder.RecordCommand(evt); err != nil {
		log.Warnf("journal write failed: %v", err)
	}
}

// run executes the handler, acknowledging immediately or once the ack deadline passes.
func (d *Dispatcher) run(ctx context.Context, cmd *Command, args Args, resp notifier.Responder, log *logrus.Entry) result {
	ack := func() {
		if err := resp.Defer(ctx); err != nil {
			log.Warnf("acknowledge failed: %v", err)
		}
	}
	if cmd.Defer {
		ack()
	}

	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: &PanicError{Value: r, Stack: debug.Stack()}}
			}
		}()
		reply, err := cmd.Handler(ctx, args)
		done <- result{reply: reply, err: err}
	}()

	var ackC <-chan time.Time
	if !cmd.Defer {
		timer := time.NewTimer(d.AckDeadline)
		defer timer.Stop()
		ackC = timer.C
	}
	for {
		select {
		case res := <-done:
			return res
		case <-ackC:
			ackC = nil
			ack()
		case <-ctx.Done():
			return result{err: fmt.Errorf("command %s: %w", cmd.Name, ctx.Err())}
		}
	}
}

// finish turns a handler result into the reply to deliver and a metrics outcome.
func (d *Dispatcher) finish(cmd *Command, res result, log *logrus.Entry) (model.Reply, string) {
	if res.err == nil {
		return res.reply, "ok"
	}

	var usage *UsageError
	if errors.As(res.err, &usage) {
		log.Infof("usage error: %s", usage.Reason)
		return model.Reply{Text: notifier.FormatUsage(cmd.Usage(), usage.Reason)}, "usage"
	}

	var p *PanicError
	if errors.As(res.err, &p) {
		log.WithField("stack", string(p.Stack)).Errorf("%v", p)
		return model.Reply{Text: notifier.Apology}, "panic"
	}

	log.WithField("kind", errorKind(res.err)).Errorf("command failed: %v", res.err)
	return model.Reply{Text: notifier.Apology}, "error"
}

// errorKind names the taxonomy entry of err for logs and the journal.
func errorKind(err error) string {
	var usage *UsageError
	var p *PanicError
	var fe *fetcher.Error
	switch {
	case errors.As(err, &usage):
		return "usage"
	case errors.As(err, &p):
		return "panic"
	case errors.Is(err, collector.ErrNotFound):
		return "not_found"
	case errors.Is(err, collector.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, chart.ErrRenderTimeout):
		return "render_timeout"
	case errors.Is(err, chart.ErrRenderFailure):
		return "render_failure"
	case errors.Is(err, calculator.ErrInvalidInput):
		return "invalid_input"
	case errors.As(err, &fe):
		return string(fe.Kind)
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	}
	return "internal"
}
