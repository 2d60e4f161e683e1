package reportstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkwroblewski/CBCR-TP-sub001/internal/cbc"
)

// PostgresStore persists reports as JSONB rows. The message_ref_id unique
// index is the final arbiter for duplicate submissions across replicas.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, url string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	cfg.MaxConns = 10
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS reports (
			id             TEXT PRIMARY KEY,
			message_ref_id TEXT,
			file_name      TEXT NOT NULL DEFAULT '',
			received_at    TIMESTAMPTZ NOT NULL,
			is_valid       BOOLEAN NOT NULL,
			payload        JSONB NOT NULL
		);
		CREATE UNIQUE INDEX IF NOT EXISTS reports_message_ref_id_key
			ON reports (message_ref_id) WHERE message_ref_id <> '';
	`)
	return err
}

func (s *PostgresStore) Save(ctx context.Context, report *cbc.ParsedReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	refID := messageRefID(report)
	_, err = s.pool.Exec(ctx, `
		INSERT INTO reports (id, message_ref_id, file_name, received_at, is_valid, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, is_valid = EXCLUDED.is_valid
	`, report.ID, refID, report.File.Name, report.File.Received, report.Report.IsValid, payload)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*cbc.ParsedReport, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM reports WHERE id = $1`, id).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var report cbc.ParsedReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report %s: %w", id, err)
	}
	return &report, nil
}

func (s *PostgresStore) List(ctx context.Context, limit int) ([]*cbc.ParsedReport, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT payload FROM reports ORDER BY received_at DESC, id LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*cbc.ParsedReport
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var report cbc.ParsedReport
		if err := json.Unmarshal(payload, &report); err != nil {
			return nil, err
		}
		out = append(out, &report)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Health reports whether the database is reachable.
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresStore) Close() { s.pool.Close() }
