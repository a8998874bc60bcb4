// Package servers provides a PostgreSQL-backed repository for registered
// remote servers and their encrypted API keys.
package servers

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ldbvault/internal/common"
	"github.com/dmitrijs2005/ldbvault/internal/cryptox"
	"github.com/dmitrijs2005/ldbvault/internal/dbx"
	"github.com/dmitrijs2005/ldbvault/internal/server/models"
)

const selectColumns = `SELECT id, name, host, password_hash,
		api_key_ciphertext, api_key_iv, api_key_tag, api_key_salt,
		created_at, updated_at
	 FROM servers`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanServer(row scanner) (*models.Server, error) {
	s := &models.Server{}
	err := row.Scan(&s.ID, &s.Name, &s.Host, &s.PasswordHash,
		&s.Secret.Ciphertext, &s.Secret.IV, &s.Secret.AuthTag, &s.Secret.Salt,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Create inserts s and fills in its id and timestamps. A name or host clash
// yields common.ErrorDuplicate.
func (r *PostgresRepository) Create(ctx context.Context, s *models.Server) (*models.Server, error) {
	query :=
		`INSERT INTO servers (name, host, password_hash,
			api_key_ciphertext, api_key_iv, api_key_tag, api_key_salt)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		s.Name, s.Host, s.PasswordHash,
		s.Secret.Ciphertext, s.Secret.IV, s.Secret.AuthTag, s.Secret.Salt,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorDuplicate
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return s, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.Server, error) {
	s, err := scanServer(r.db.QueryRowContext(ctx, selectColumns+"\n\t WHERE "+where, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Server, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*models.Server, error) {
	return r.getOne(ctx, "name = $1", name)
}

func (r *PostgresRepository) GetByHost(ctx context.Context, host string) (*models.Server, error) {
	return r.getOne(ctx, "host = $1", host)
}

// List returns all servers ordered by id.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.Server, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+"\n\t ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Server
	for rows.Next() {
		s, err := scanServer(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

// UpdateSecret replaces the password hash and all four secret columns at once.
func (r *PostgresRepository) UpdateSecret(ctx context.Context, id int64, passwordHash string, secret cryptox.HexMaterial) error {
	query :=
		`UPDATE servers
		 SET password_hash = $2, api_key_ciphertext = $3, api_key_iv = $4,
		     api_key_tag = $5, api_key_salt = $6, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, passwordHash,
		secret.Ciphertext, secret.IV, secret.AuthTag, secret.Salt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

// Delete removes the server; failed attempts go with it via ON DELETE CASCADE.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM servers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
