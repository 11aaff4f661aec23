package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// AuditLog records served predictions in SQLite.
type AuditLog struct {
	database *sql.DB
	now      func() time.Time
}

type PredictionRow struct {
	Function  string
	Label     int
	RequestID string
	CreatedAt time.Time
}

// Open creates or opens the audit database at path.
func Open(path string) (*AuditLog, error) {
	if path == "" {
		return nil, errors.New("audit database path is required")
	}
	database, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        function VARCHAR(32) NOT NULL,
        predicted_label INTEGER NOT NULL,
        request_id VARCHAR(64),
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_function ON predictions(function, created_at);
    `
	if _, err := database.Exec(query); err != nil {
		database.Close()
		return nil, err
	}
	return &AuditLog{database: database, now: time.Now}, nil
}

func (a *AuditLog) RecordPrediction(ctx context.Context, function string, label int, requestID string) error {
	_, err := a.database.ExecContext(ctx, `
        INSERT INTO predictions (function, predicted_label, request_id, created_at)
        VALUES (?, ?, ?, ?)`, function, label, requestID, a.now().UTC())
	return err
}

// RecentPredictions returns the newest rows for function, newest first.
func (a *AuditLog) RecentPredictions(ctx context.Context, function string, limit int) ([]PredictionRow, error) {
	rows, err := a.database.QueryContext(ctx, `
        SELECT function, predicted_label, request_id, created_at
        FROM predictions
        WHERE function = ?
        ORDER BY id DESC
        LIMIT ?`, function, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PredictionRow
	for rows.Next() {
		var row PredictionRow
		var requestID sql.NullString
		if err := rows.Scan(&row.Function, &row.Label, &requestID, &row.CreatedAt); err != nil {
			return nil, err
		}
		row.RequestID = requestID.String
		result = append(result, row)
	}
	return result, rows.Err()
}

func (a *AuditLog) Close() error {
	return a.database.Close()
}
