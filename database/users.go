package database

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"github.com/mbolis/quick-forms/model"
)

// CreateUser registers an account. The email must not be taken.
func (s *Store) CreateUser(ctx context.Context, name, email string, passwordHash []byte) (*model.User, error) {
	user := model.User{
		ID:        s.newID(),
		Name:      name,
		Email:     strings.ToLower(email),
		CreatedAt: s.now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user (id, name, email, password_hash, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Name, user.Email, passwordHash, user.CreatedAt,
	)
	var sqlErr sqlite3.Error
	if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return nil, &model.ConflictError{Resource: "user", ID: user.Email}
	}
	if err != nil {
		return nil, fail("db.insert_user", err)
	}
	return &user, nil
}

// UserByEmail returns the account registered under email with its password
// hash.
func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, []byte, error) {
	user := model.User{}
	var hash []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, created_at
		FROM user
		WHERE email = ?`,
		strings.ToLower(email),
	).Scan(&user.ID, &user.Name, &user.Email, &hash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, model.NotFound("user", email)
	}
	if err != nil {
		return nil, nil, fail("db.get_user", err)
	}
	return &user, hash, nil
}

func (s *Store) StoreToken(ctx context.Context, username, tokenID, refreshTokenID string, expiration time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO token (username, token_id, refresh_token_id, expiration)
		VALUES (?, ?, ?, ?)`,
		username, tokenID, refreshTokenID, expiration.UTC(),
	)
	if err != nil {
		return fail("db.insert_token", err)
	}
	return nil
}

// ConsumeToken deletes a stored token pair, reporting whether it existed and
// had not yet expired.
func (s *Store) ConsumeToken(ctx context.Context, username, tokenID, refreshTokenID string) (bool, error) {
	var expiration time.Time
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM token
		WHERE	username = ?
			AND token_id = ?
			AND refresh_token_id = ?
		RETURNING expiration`,
		username, tokenID, refreshTokenID,
	).Scan(&expiration)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fail("db.delete_token", err)
	}
	return s.now().Before(expiration), nil
}
