package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/recipebox/internal/recipe"
)

// Compile-time interface checks.
var (
	_ RecipeStore        = (*SQLiteStorage)(nil)
	_ IngredientSearcher = (*SQLiteStorage)(nil)
	_ AccountStore       = (*SQLiteStorage)(nil)
)

// SQLiteStorage implements RecipeStore, IngredientSearcher and AccountStore using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS recipes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name VARCHAR(50) NOT NULL,
		ingredients VARCHAR(255) NOT NULL,
		cooking_time INTEGER NOT NULL CHECK (cooking_time > 0),
		difficulty VARCHAR(20) NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		author TEXT NOT NULL DEFAULT '',
		source TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_recipes_author ON recipes(author);
	CREATE INDEX IF NOT EXISTS idx_recipes_difficulty ON recipes(difficulty);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_recipes_source ON recipes(source) WHERE source != '';

	CREATE TABLE IF NOT EXISTS ingredient_ledger (
		position INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS users (
		username VARCHAR(150) PRIMARY KEY,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sessions (
		token TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL,
		FOREIGN KEY (username) REFERENCES users(username) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS favorites (
		username TEXT NOT NULL,
		recipe_id INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (username, recipe_id),
		FOREIGN KEY (username) REFERENCES users(username) ON DELETE CASCADE,
		FOREIGN KEY (recipe_id) REFERENCES recipes(id) ON DELETE CASCADE
	);
	`
	_, err := db.Exec(schema)
	return err
}

const recipeColumns = `id, name, ingredients, cooking_time, description, author, source, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecipe(row rowScanner) (*recipe.Recipe, error) {
	var (
		id          int64
		name        string
		ingredients string
		cookingTime int
		description string
		author      string
		source      string
		createdAt   time.Time
		updatedAt   time.Time
	)
	if err := row.Scan(&id, &name, &ingredients, &cookingTime, &description, &author, &source, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	r, err := recipe.Build(name, cookingTime, recipe.ParseIngredients(ingredients))
	if err != nil {
		return nil, fmt.Errorf("corrupt recipe row %d: %w", id, err)
	}
	r.ID = id
	r.Description = description
	r.Author = author
	r.Source = source
	r.CreatedAt = createdAt
	r.UpdatedAt = updatedAt
	return r, nil
}

func scanRecipes(rows *sql.Rows) ([]*recipe.Recipe, error) {
	defer rows.Close()
	recipes := make([]*recipe.Recipe, 0)
	for rows.Next() {
		r, err := scanRecipe(rows)
		if err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

// CreateRecipe inserts a recipe and sets its ID.
func (s *SQLiteStorage) CreateRecipe(ctx context.Context, r *recipe.Recipe) error {
	ingredients, err := recipe.JoinIngredients(r.Ingredients())
	if err != nil {
		return err
	}
	now := time.Now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO recipes (name, ingredients, cooking_time, difficulty, description, author, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Name, ingredients, r.CookingTime(), string(r.Difficulty()), r.Description, r.Author, r.Source, now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("recipe source %q: %w", r.Source, ErrAlreadyExists)
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	r.ID = id
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// GetRecipe returns a recipe by ID.
func (s *SQLiteStorage) GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE id = ?`, id)
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	return r, err
}

// GetRecipeBySource returns the recipe imported from source.
func (s *SQLiteStorage) GetRecipeBySource(ctx context.Context, source string) (*recipe.Recipe, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recipeColumns+` FROM recipes WHERE source = ? AND source != ''`, source)
	r, err := scanRecipe(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recipe source %q: %w", source, ErrNotFound)
	}
	return r, err
}

// UpdateRecipe updates an existing recipe, including its stored difficulty.
func (s *SQLiteStorage) UpdateRecipe(ctx context.Context, r *recipe.Recipe) error {
	ingredients, err := recipe.JoinIngredients(r.Ingredients())
	if err != nil {
		return err
	}
	r.UpdatedAt = time.Now()
	result, err := s.db.ExecContext(ctx,
		`UPDATE recipes SET name = ?, ingredients = ?, cooking_time = ?, difficulty = ?, description = ?, author = ?, source = ?, updated_at = ?
		 WHERE id = ?`,
		r.Name, ingredients, r.CookingTime(), string(r.Difficulty()), r.Description, r.Author, r.Source, r.UpdatedAt, r.ID,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("recipe %d: %w", r.ID, ErrNotFound)
	}
	return nil
}

// DeleteRecipe removes a recipe by ID.
func (s *SQLiteStorage) DeleteRecipe(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	return nil
}

// ListRecipes returns recipes ordered by ID.
func (s *SQLiteStorage) ListRecipes(ctx context.Context, offset, limit int) ([]*recipe.Recipe, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	return scanRecipes(rows)
}

// CountRecipes returns the total number of recipes.
func (s *SQLiteStorage) CountRecipes(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recipes`).Scan(&count)
	return count, err
}

// SearchByIngredients returns recipes whose ingredient column contains any of
// terms, ignoring case. The SQL LIKE narrows candidates; the result is then
// checked per ingredient so a term never matches across the separator.
// SQLite's lower() and LIKE fold only ASCII, so rows holding any other
// character are always candidates and left to the Go check.
func (s *SQLiteStorage) SearchByIngredients(ctx context.Context, terms []string) ([]*recipe.Recipe, error) {
	if len(terms) == 0 {
		return []*recipe.Recipe{}, nil
	}
	conds := make([]string, len(terms))
	args := make([]any, len(terms))
	for i, t := range terms {
		conds[i] = `lower(ingredients) LIKE ? ESCAPE '\'`
		args[i] = "%" + escapeLike(strings.ToLower(t)) + "%"
	}
	conds = append(conds, nonASCIIIngredients)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recipeColumns+` FROM recipes WHERE `+strings.Join(conds, " OR ")+` ORDER BY id`, args...)
	if err != nil {
		return nil, err
	}
	candidates, err := scanRecipes(rows)
	if err != nil {
		return nil, err
	}
	return recipe.FindByAnyIngredient(candidates, terms, recipe.MatchSubstringFold), nil
}

// LoadLedger returns the ledger in insertion order.
func (s *SQLiteStorage) LoadLedger(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM ingredient_ledger ORDER BY position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// SaveLedger replaces the ledger in a transaction.
func (s *SQLiteStorage) SaveLedger(ctx context.Context, names []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ingredient_ledger`); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO ingredient_ledger (name) VALUES (?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, n := range names {
		if _, err := stmt.ExecContext(ctx, n); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// nonASCIIIngredients matches ingredient columns with a character outside
// printable ASCII.
const nonASCIIIngredients = `ingredients GLOB '*[^ -~]*'`

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
