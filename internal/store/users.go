package store

import (
	"context"
	"database/sql"
	"errors"

	"storefront/internal/models"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, password_hash, name, role) VALUES (?, ?, ?, ?)",
		user.Email, user.PasswordHash, user.Name, user.Role,
	)
	if err != nil {
		return nil, translate(err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, translate(err)
	}
	user.ID = id
	return user, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getOne(ctx,
		"SELECT id, email, password_hash, name, role, created_at FROM users WHERE email = ?",
		email,
	)
}

func (s *UserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.getOne(ctx,
		"SELECT id, email, password_hash, name, role, created_at FROM users WHERE id = ?",
		id,
	)
}

func (s *UserStore) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var user models.User
	err := s.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Name, &user.Role, &user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}

func (s *UserStore) SetRole(ctx context.Context, email, role string) error {
	result, err := s.db.ExecContext(ctx, "UPDATE users SET role = ? WHERE email = ?", role, email)
	if err != nil {
		return translate(err)
	}

	// rows affected is 0 both for a missing user and an unchanged role
	n, err := result.RowsAffected()
	if err != nil {
		return translate(err)
	}
	if n == 0 {
		if _, err := s.GetByEmail(ctx, email); err != nil {
			return err
		}
	}
	return nil
}
