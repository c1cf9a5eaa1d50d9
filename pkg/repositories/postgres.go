package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository connects to the database and ensures the snapshots
// table exists. The caller is responsible for calling Close() on the
// repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	q := `
	CREATE TABLE IF NOT EXISTS snapshots (
		version BIGINT PRIMARY KEY,
		data BYTEA NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	if _, err := conn.Exec(ctx, q); err != nil {
		conn.Close(ctx)
		return nil, fmt.Errorf("failed to create snapshots table: %v", err)
	}

	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) SaveSnapshot(ctx context.Context, version uint64, data []byte) error {
	q := `
	INSERT INTO snapshots (version, data)
	VALUES ($1, $2)
	ON CONFLICT (version) DO UPDATE SET data = EXCLUDED.data;
	`
	if _, err := r.conn.Exec(ctx, q, int64(version), data); err != nil {
		return fmt.Errorf("failed to insert snapshot: %v", err)
	}
	return nil
}

func (r *PostgresRepository) LoadLatestSnapshot(ctx context.Context) (*SnapshotRecord, error) {
	q := `
	SELECT version, data, created_at FROM snapshots
	ORDER BY version DESC LIMIT 1;
	`
	record := &SnapshotRecord{}
	var version int64
	if err := r.conn.QueryRow(ctx, q).Scan(&version, &record.Data, &record.CreatedAt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to query snapshot: %v", err)
	}
	record.Version = uint64(version)
	return record, nil
}
