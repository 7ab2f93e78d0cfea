package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"rolls/internal"
)

type DB struct {
	conn *sql.DB
}

type RunRow struct {
	ID         int
	TraceID    string
	Source     string
	Schema     string
	RollDate   string
	Mode       string
	Counts     internal.Statistics
	TimingsMs  map[string]float64
	CreatedAt  string
	NumRecords int
}

type NewRun struct {
	Source    string
	Schema    string
	RollDate  string
	Mode      string
	Result    internal.Result
	TimingsMs map[string]float64
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL UNIQUE,
  source TEXT NOT NULL,
  schemaName TEXT NOT NULL,
  rollDate TEXT NOT NULL,
  mode TEXT NOT NULL,
  countsJson TEXT NOT NULL,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_runs_rollDate ON runs(rollDate);

CREATE TABLE IF NOT EXISTS run_records (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  runId INTEGER NOT NULL,
  position INTEGER NOT NULL,
  rank TEXT NOT NULL,
  surname TEXT NOT NULL,
  firstName TEXT,
  fullName TEXT NOT NULL,
  section TEXT NOT NULL,
  UNIQUE(runId, position),
  FOREIGN KEY(runId) REFERENCES runs(id)
);

CREATE TABLE IF NOT EXISTS mail (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  provider TEXT NOT NULL,
  messageId TEXT NOT NULL,
  subject TEXT,
  fromAddr TEXT,
  receivedAt TEXT,
  sha256 TEXT NOT NULL,
  path TEXT,
  status TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(provider, messageId)
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// InsertRun stores one processed roll and its statistics in a single
// transaction and returns the generated trace id.
func (d *DB) InsertRun(run NewRun) (int64, string, error) {
	traceID := uuid.NewString()
	countsJSON, err := json.Marshal(run.Result.Stats)
	if err != nil {
		return 0, "", err
	}
	timingsJSON, err := json.Marshal(run.TimingsMs)
	if err != nil {
		return 0, "", err
	}

	tx, err := d.conn.Begin()
	if err != nil {
		return 0, "", err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
INSERT INTO runs (traceId, source, schemaName, rollDate, mode, countsJson, timingsJson)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, traceID, run.Source, run.Schema, run.RollDate, run.Mode, string(countsJSON), string(timingsJSON))
	if err != nil {
		return 0, "", err
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, "", err
	}

	stmt, err := tx.Prepare(`
INSERT INTO run_records (runId, position, rank, surname, firstName, fullName, section)
VALUES (?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, "", err
	}
	defer stmt.Close()

	for i, r := range run.Result.Records {
		var firstName *string
		if r.FirstName != "" {
			fn := r.FirstName
			firstName = &fn
		}
		if _, err := stmt.Exec(runID, i+1, r.Rank, r.Surname, firstName, r.FullName, r.Section); err != nil {
			return 0, "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, "", err
	}
	return runID, traceID, nil
}

func (d *DB) ListRuns(limit int) ([]RunRow, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := d.conn.Query(`
SELECT r.id, r.traceId, r.source, r.schemaName, r.rollDate, r.mode, r.countsJson, r.timingsJson, r.createdAt,
       (SELECT COUNT(*) FROM run_records rr WHERE rr.runId = r.id)
FROM runs r ORDER BY r.id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		row, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (d *DB) GetRun(id int) (*RunRow, error) {
	row, err := scanRun(d.conn.QueryRow(`
SELECT r.id, r.traceId, r.source, r.schemaName, r.rollDate, r.mode, r.countsJson, r.timingsJson, r.createdAt,
       (SELECT COUNT(*) FROM run_records rr WHERE rr.runId = r.id)
FROM runs r WHERE r.id = ?
`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (d *DB) GetRunRecords(runID int) ([]internal.OutputRecord, error) {
	rows, err := d.conn.Query(`
SELECT rank, surname, firstName, fullName, section
FROM run_records WHERE runId = ? ORDER BY position ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.OutputRecord
	for rows.Next() {
		var r internal.OutputRecord
		var firstName sql.NullString
		if err := rows.Scan(&r.Rank, &r.Surname, &firstName, &r.FullName, &r.Section); err != nil {
			return nil, err
		}
		r.FirstName = firstName.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) MustRun(id int) (RunRow, error) {
	row, err := d.GetRun(id)
	if err != nil {
		return RunRow{}, err
	}
	if row == nil {
		return RunRow{}, fmt.Errorf("run not found: id=%d", id)
	}
	return *row, nil
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}

// MailRow is one fetched message. Status is "stored" when the raw message was
// dropped into the inbox, or "no_roster" when it carried nothing to process.
type MailRow struct {
	Provider   string
	MessageID  string
	Subject    string
	From       string
	ReceivedAt string
	SHA256     string
	Path       string
	Status     string
}

func (d *DB) HasMail(provider, messageID string) (bool, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM mail WHERE provider = ? AND messageId = ?`, provider, messageID).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RecordMail remembers a message and reports false when it was already known.
func (d *DB) RecordMail(m MailRow) (bool, error) {
	res, err := d.conn.Exec(`
INSERT INTO mail (provider, messageId, subject, fromAddr, receivedAt, sha256, path, status)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(provider, messageId) DO NOTHING
`, m.Provider, m.MessageID, m.Subject, m.From, m.ReceivedAt, m.SHA256, m.Path, m.Status)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *DB) ListMail(limit int) ([]MailRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.conn.Query(`
SELECT provider, messageId, COALESCE(subject, ''), COALESCE(fromAddr, ''), COALESCE(receivedAt, ''), sha256, COALESCE(path, ''), status
FROM mail ORDER BY id DESC LIMIT ?
`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MailRow
	for rows.Next() {
		var m MailRow
		if err := rows.Scan(&m.Provider, &m.MessageID, &m.Subject, &m.From, &m.ReceivedAt, &m.SHA256, &m.Path, &m.Status); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (RunRow, error) {
	var row RunRow
	var countsJSON, timingsJSON string
	if err := s.Scan(&row.ID, &row.TraceID, &row.Source, &row.Schema, &row.RollDate, &row.Mode, &countsJSON, &timingsJSON, &row.CreatedAt, &row.NumRecords); err != nil {
		return RunRow{}, err
	}
	if err := json.Unmarshal([]byte(countsJSON), &row.Counts); err != nil {
		return RunRow{}, fmt.Errorf("run %d counts: %w", row.ID, err)
	}
	if err := json.Unmarshal([]byte(timingsJSON), &row.TimingsMs); err != nil {
		return RunRow{}, fmt.Errorf("run %d timings: %w", row.ID, err)
	}
	return row, nil
}
