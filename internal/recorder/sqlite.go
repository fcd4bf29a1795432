package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder journals commands and digests to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *logrus.Entry
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log *logrus.Entry) (*SQLiteRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets an operator query the journal while the bot writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS command_log (
			id          TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			command     TEXT NOT NULL,
			username    TEXT,
			chat_id     INTEGER,
			args        TEXT,
			outcome     TEXT NOT NULL,
			error_kind  TEXT,
			error       TEXT,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_command_ts ON command_log(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_command_outcome ON command_log(command, outcome)`,

		`CREATE TABLE IF NOT EXISTS digest_log (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			chat_id   INTEGER,
			symbols   INTEGER,
			failed    INTEGER,
			error     TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_digest_ts ON digest_log(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCommand(evt *CommandEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO command_log
		(id, timestamp, command, username, chat_id, args, outcome, error_kind, error, duration_ms)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		evt.ID, evt.At.Unix(), evt.Command, evt.User, evt.ChatID, evt.Args,
		evt.Outcome, evt.ErrorKind, evt.Error, evt.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecordDigest(evt *DigestEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO digest_log
		(timestamp, chat_id, symbols, failed, error)
		VALUES (?,?,?,?,?)`,
		evt.At.Unix(), evt.ChatID, evt.Symbols, evt.Failed, evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) Prune(before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var total int64
	for _, table := range []string{"command_log", "digest_log"} {
		res, err := r.db.Exec("DELETE FROM "+table+" WHERE timestamp < ?", before.Unix())
		if err != nil {
			return total, fmt.Errorf("prune %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
