// Package postgres implements the users.Repo interface on PostgreSQL.
package postgres

import (
	"context"
	stderrors "errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lotterylot/portal/internal/errors"
	"github.com/lotterylot/portal/users"
)

const uniqueViolationCode = "23505"

var _ users.Repo = (*Repo)(nil)

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, user *users.User) error {
	query := `
		INSERT INTO users (id, username, password_hash, role, display_name, logo_url, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		string(user.Role),
		user.DisplayName,
		user.LogoURL,
		user.IsActive,
		user.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return errors.ErrAlreadyExists
		}
		return errors.Wrapf(err, "[Repo Create] insert user")
	}
	return nil
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	query := `
		SELECT id, username, password_hash, role, display_name, logo_url, is_active, created_at
		FROM users
		WHERE username = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, username))
}

func (r *Repo) GetByID(ctx context.Context, id string) (*users.User, error) {
	query := `
		SELECT id, username, password_hash, role, display_name, logo_url, is_active, created_at
		FROM users
		WHERE id = $1
	`
	return r.scanOne(r.pool.QueryRow(ctx, query, id))
}

func (r *Repo) List(ctx context.Context, offset, limit int) ([]*users.User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, errors.Wrapf(err, "[Repo List] count users")
	}

	query := `
		SELECT id, username, password_hash, role, display_name, logo_url, is_active, created_at
		FROM users
		ORDER BY created_at DESC, username ASC
		OFFSET $1 LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "[Repo List] query users")
	}
	defer rows.Close()

	page := make([]*users.User, 0, limit)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "[Repo List] scan user")
		}
		page = append(page, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrapf(err, "[Repo List] iterate users")
	}
	return page, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repo) scanOne(row pgx.Row) (*users.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func scanUser(row rowScanner) (*users.User, error) {
	user := &users.User{}
	var role string
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&role,
		&user.DisplayName,
		&user.LogoURL,
		&user.IsActive,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Role = users.Role(role)
	return user, nil
}
