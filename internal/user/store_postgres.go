package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"datacustody/internal/domain"
	"datacustody/pkg/platform/sentinel"
	txcontext "datacustody/pkg/platform/tx"
)

// PostgresStore reads and pseudonymizes rows in the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (domain.User, error) {
	query := `
		SELECT id, username, name, email, register_date, last_visit_date, pseudonymized
		FROM users
		WHERE id = $1
	`
	var u domain.User
	var lastVisit sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.Username, &u.Name, &u.Email, &u.RegisterDate, &lastVisit, &u.Pseudonymized,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, fmt.Errorf("user %d: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("query user: %w", err)
	}
	if lastVisit.Valid {
		u.LastVisitDate = lastVisit.Time
	}
	return u, nil
}

func (s *PostgresStore) ListInactiveSince(ctx context.Context, cutoff time.Time) ([]domain.User, error) {
	query := `
		SELECT id, username, name, email, register_date, last_visit_date, pseudonymized
		FROM users
		WHERE pseudonymized = FALSE
		  AND GREATEST(register_date, COALESCE(last_visit_date, register_date)) < $1
		ORDER BY id
	`
	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query inactive users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		var lastVisit sql.NullTime
		if err := rows.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.RegisterDate, &lastVisit, &u.Pseudonymized); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		if lastVisit.Valid {
			u.LastVisitDate = lastVisit.Time
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *PostgresStore) Pseudonymize(ctx context.Context, id int64, now time.Time) error {
	query := `
		UPDATE users
		SET username = 'deleted-' || id,
		    name = 'Deleted User',
		    email = 'deleted-' || id || '@invalid.invalid',
		    pseudonymized = TRUE,
		    last_visit_date = $2
		WHERE id = $1
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, id, now)
	if err != nil {
		return fmt.Errorf("pseudonymize user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pseudonymize user: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user %d: %w", id, sentinel.ErrNotFound)
	}
	return nil
}
