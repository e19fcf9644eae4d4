// Package storage persists the ledger snapshot and the export queue in a
// local SQLite database. The snapshot table is a plain key-value store: the
// core never depends on the schema, it only hands over a JSON state tree
// and gets one back on rehydration.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"paisa/internal/ledger"

	_ "modernc.org/sqlite"
)

// SnapshotKey is the row under which the full state tree lives.
const SnapshotKey = "root"

// Export queue statuses.
const (
	ExportPending = "pending"
	ExportDone    = "done"
	ExportError   = "error"
)

type SQLiteRepository struct {
	db *sql.DB
}

// ExportRow is one queued row waiting to be pushed to the spreadsheet.
type ExportRow struct {
	ID        int64
	Kind      string
	EntityID  string
	Payload   string
	Status    string
	Attempts  int
	CreatedAt time.Time
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// SaveSnapshot upserts the JSON state tree under the given key.
func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, key string, snap ledger.Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO snapshots (key, payload, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = CURRENT_TIMESTAMP`,
		key, string(payload))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads the state tree stored under key. A missing row
// rehydrates as an empty snapshot; any valid-shaped prior snapshot is
// accepted and normalized by the caller.
func (r *SQLiteRepository) LoadSnapshot(ctx context.Context, key string) (ledger.Snapshot, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM snapshots WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		slog.InfoContext(ctx, "No persisted snapshot, starting empty", "key", key)
		return ledger.Snapshot{}, nil
	}
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("load snapshot: %w", err)
	}

	var snap ledger.Snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return ledger.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

// Enqueue records an export row for the worker to push out later.
func (r *SQLiteRepository) Enqueue(ctx context.Context, kind, entityID, payload string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO export_queue (kind, entity_id, payload) VALUES (?, ?, ?)`,
		kind, entityID, payload)
	if err != nil {
		return 0, fmt.Errorf("enqueue export row: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("export row id: %w", err)
	}
	return id, nil
}

// Pending returns up to limit rows still waiting to be exported, oldest
// first.
func (r *SQLiteRepository) Pending(ctx context.Context, limit int) ([]ExportRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, entity_id, payload, sync_status, attempts, created_at
		FROM export_queue
		WHERE sync_status = ?
		ORDER BY created_at ASC
		LIMIT ?`, ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("query pending exports: %w", err)
	}
	defer rows.Close()

	var out []ExportRow
	for rows.Next() {
		var row ExportRow
		if err := rows.Scan(&row.ID, &row.Kind, &row.EntityID, &row.Payload, &row.Status, &row.Attempts, &row.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan export row: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// Get returns a single export row by id.
func (r *SQLiteRepository) Get(ctx context.Context, id int64) (ExportRow, error) {
	var row ExportRow
	err := r.db.QueryRowContext(ctx, `
		SELECT id, kind, entity_id, payload, sync_status, attempts, created_at
		FROM export_queue WHERE id = ?`, id).
		Scan(&row.ID, &row.Kind, &row.EntityID, &row.Payload, &row.Status, &row.Attempts, &row.CreatedAt)
	if err != nil {
		return ExportRow{}, fmt.Errorf("get export row %d: %w", id, err)
	}
	return row, nil
}

// MarkExported flags a queue row as successfully pushed out.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE export_queue SET sync_status = ?, exported_at = CURRENT_TIMESTAMP WHERE id = ?`,
		ExportDone, id); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	slog.InfoContext(ctx, "Export row marked done", "id", id)
	return nil
}

// MarkExportError bumps the attempt counter; rows past maxAttempts are
// parked as errored so a poison row cannot wedge the queue.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64, maxAttempts int) error {
	if _, err := r.db.ExecContext(ctx, `
		UPDATE export_queue
		SET attempts = attempts + 1,
		    sync_status = CASE WHEN attempts + 1 >= ? THEN ? ELSE ? END
		WHERE id = ?`,
		maxAttempts, ExportError, ExportPending, id); err != nil {
		return fmt.Errorf("mark export error: %w", err)
	}
	slog.WarnContext(ctx, "Export row marked with error", "id", id)
	return nil
}

// PurgeExported deletes done rows older than the given age.
func (r *SQLiteRepository) PurgeExported(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM export_queue WHERE sync_status = ? AND exported_at < ?`,
		ExportDone, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge exported rows: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
