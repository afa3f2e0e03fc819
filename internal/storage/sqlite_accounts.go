package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
)

// CreateUser inserts a user. A taken username yields ErrAlreadyExists.
func (s *SQLiteStorage) CreateUser(ctx context.Context, u *models.User) error {
	u.CreatedAt = time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %q: %w", u.Username, ErrAlreadyExists)
	}
	return err
}

// GetUser returns a user by username.
func (s *SQLiteStorage) GetUser(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		`SELECT username, email, password_hash, created_at FROM users WHERE username = ?`, username,
	).Scan(&u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// DeleteUser removes a user and everything they own in one transaction.
func (s *SQLiteStorage) DeleteUser(ctx context.Context, username string) ([]int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id FROM recipes WHERE author = ? ORDER BY id`, username)
	if err != nil {
		return nil, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recipes WHERE author = ?`, username); err != nil {
		return nil, err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE username = ?`, username)
	if err != nil {
		return nil, err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return ids, nil
}

// CreateSession stores a session.
func (s *SQLiteStorage) CreateSession(ctx context.Context, sess *models.Session) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (token, username, expires_at) VALUES (?, ?, ?)`,
		sess.Token, sess.Username, sess.ExpiresAt,
	)
	return err
}

// GetSession returns a session by token.
func (s *SQLiteStorage) GetSession(ctx context.Context, token string) (*models.Session, error) {
	var sess models.Session
	err := s.db.QueryRowContext(ctx,
		`SELECT token, username, expires_at FROM sessions WHERE token = ?`, token,
	).Scan(&sess.Token, &sess.Username, &sess.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session: %w", ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteSession removes a session. Deleting an unknown token is not an error.
func (s *SQLiteStorage) DeleteSession(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE token = ?`, token)
	return err
}

// AddFavorite marks a recipe as a favorite of username. Adding twice is a no-op.
func (s *SQLiteStorage) AddFavorite(ctx context.Context, username string, recipeID int64) error {
	if _, err := s.GetRecipe(ctx, recipeID); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO favorites (username, recipe_id, created_at) VALUES (?, ?, ?)`,
		username, recipeID, time.Now(),
	)
	return err
}

// RemoveFavorite unmarks a favorite.
func (s *SQLiteStorage) RemoveFavorite(ctx context.Context, username string, recipeID int64) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM favorites WHERE username = ? AND recipe_id = ?`, username, recipeID)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("favorite %d: %w", recipeID, ErrNotFound)
	}
	return nil
}

// ListFavorites returns the user's favorite recipes ordered by recipe ID.
func (s *SQLiteStorage) ListFavorites(ctx context.Context, username string) ([]*recipe.Recipe, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.name, r.ingredients, r.cooking_time, r.description, r.author, r.source, r.created_at, r.updated_at
		 FROM recipes r JOIN favorites f ON f.recipe_id = r.id
		 WHERE f.username = ? ORDER BY r.id`, username)
	if err != nil {
		return nil, err
	}
	return scanRecipes(rows)
}
