// Package failedattempts provides a PostgreSQL-backed log of failed
// authentication attempts used by the lockout tracker.
package failedattempts

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ldbvault/internal/dbx"
)

// PostgresRepository stores attempts over dbx.DBTX (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create records one failed attempt at the given time.
func (r *PostgresRepository) Create(ctx context.Context, serverID int64, ip string, at time.Time) error {
	query := `
		INSERT INTO failed_attempts (server_id, ip_address, attempted_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.ExecContext(ctx, query, serverID, ip, at); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Recent counts attempts for the pair strictly newer than since.
func (r *PostgresRepository) Recent(ctx context.Context, serverID int64, ip string, since time.Time) (int, time.Time, error) {
	query := `
		SELECT COUNT(*), MIN(attempted_at)
		FROM failed_attempts
		WHERE server_id = $1 AND ip_address = $2 AND attempted_at > $3
	`
	var (
		count  int
		oldest sql.NullTime
	)
	if err := r.db.QueryRowContext(ctx, query, serverID, ip, since).Scan(&count, &oldest); err != nil {
		return 0, time.Time{}, fmt.Errorf("db error: %w", err)
	}
	if !oldest.Valid {
		return count, time.Time{}, nil
	}
	return count, oldest.Time, nil
}

// DeleteByPair removes every attempt recorded for the pair.
func (r *PostgresRepository) DeleteByPair(ctx context.Context, serverID int64, ip string) (int64, error) {
	query := `
		DELETE FROM failed_attempts
		WHERE server_id = $1 AND ip_address = $2
	`
	return r.exec(ctx, query, serverID, ip)
}

// DeleteOlderThan removes attempts recorded before the cutoff.
func (r *PostgresRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM failed_attempts
		WHERE attempted_at < $1
	`
	return r.exec(ctx, query, before)
}

func (r *PostgresRepository) exec(ctx context.Context, query string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}
