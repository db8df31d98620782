// Package sqlite keeps the optional run-history ledger.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"standupbot/internal/domain"
)

type RunRecord = domain.RunRecord

func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS standup_runs (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		run_date       TEXT NOT NULL,
		outcome        TEXT NOT NULL,
		body           TEXT NOT NULL,
		message        TEXT DEFAULT '',
		channel_id     TEXT DEFAULT '',
		delivered      INTEGER NOT NULL DEFAULT 0,
		delivery_error TEXT DEFAULT '',
		created_at     DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_standup_runs_run_date ON standup_runs(run_date);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func InsertRun(ctx context.Context, db *sql.DB, rec RunRecord) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO standup_runs (run_date, outcome, body, message, channel_id, delivered, delivery_error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunDate, rec.Outcome, rec.Body, rec.Message, rec.ChannelID, rec.Delivered, rec.DeliveryError, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// RecentRuns returns up to limit runs, newest first.
func RecentRuns(ctx context.Context, db *sql.DB, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.QueryContext(ctx,
		`SELECT id, run_date, outcome, body, message, channel_id, delivered, delivery_error, created_at
		 FROM standup_runs ORDER BY created_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var r RunRecord
		err := rows.Scan(
			&r.ID, &r.RunDate, &r.Outcome, &r.Body, &r.Message,
			&r.ChannelID, &r.Delivered, &r.DeliveryError, &r.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// RunLog records runs into db.
type RunLog struct {
	db *sql.DB
}

func NewRunLog(db *sql.DB) *RunLog {
	return &RunLog{db: db}
}

func (l *RunLog) RecordRun(ctx context.Context, rec RunRecord) error {
	if _, err := InsertRun(ctx, l.db, rec); err != nil {
		return fmt.Errorf("recording run %s: %w", rec.RunDate, err)
	}
	return nil
}
