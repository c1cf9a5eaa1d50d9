package repositories

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	q := `
	CREATE TABLE IF NOT EXISTS snapshots (
		version INTEGER PRIMARY KEY,
		data BLOB NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to create snapshots table: %v", err)
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, version uint64, data []byte) error {
	q := `
	INSERT OR REPLACE INTO snapshots (version, data)
	VALUES (?, ?);
	`
	if _, err := r.db.ExecContext(ctx, q, version, data); err != nil {
		return fmt.Errorf("failed to insert snapshot: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadLatestSnapshot(ctx context.Context) (*SnapshotRecord, error) {
	q := `
	SELECT version, data, created_at FROM snapshots
	ORDER BY version DESC LIMIT 1;
	`
	record := &SnapshotRecord{}
	if err := r.db.QueryRowContext(ctx, q).Scan(&record.Version, &record.Data, &record.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to query snapshot: %v", err)
	}
	return record, nil
}
