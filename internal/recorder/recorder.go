package recorder

import "time"

// CommandEvent is one handled command, written for operators only.
type CommandEvent struct {
	ID        string
	At        time.Time
	Command   string
	User      string
	ChatID    int64
	Args      string // already redacted by the caller
	Outcome   string // "ok", "usage", "error", "panic"
	ErrorKind string
	Error     string
	Duration  time.Duration
}

// DigestEvent is one scheduled watchlist digest run.
type DigestEvent struct {
	At      time.Time
	ChatID  int64
	Symbols int
	Failed  int
	Error   string
}

// Recorder is the write-only operator journal. Command logic never reads it back.
type Recorder interface {
	RecordCommand(evt *CommandEvent) error
	RecordDigest(evt *DigestEvent) error
	// Prune deletes entries older than before and returns how many rows went.
	Prune(before time.Time) (int64, error)
	Close() error
}
