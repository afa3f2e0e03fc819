// Package storage defines the persistence interfaces for recipes, the
// ingredient ledger, and accounts.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
)

// Sentinel errors returned by every implementation.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// RecipeStore defines recipe and ingredient ledger persistence.
type RecipeStore interface {
	// CreateRecipe assigns r.ID and timestamps and stores r.
	CreateRecipe(ctx context.Context, r *recipe.Recipe) error
	GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error)
	GetRecipeBySource(ctx context.Context, source string) (*recipe.Recipe, error)
	UpdateRecipe(ctx context.Context, r *recipe.Recipe) error
	DeleteRecipe(ctx context.Context, id int64) error
	// ListRecipes returns recipes in ID order. limit <= 0 means all.
	ListRecipes(ctx context.Context, offset, limit int) ([]*recipe.Recipe, error)
	CountRecipes(ctx context.Context) (int64, error)

	// LoadLedger returns the persisted ingredient ledger in first-seen order.
	LoadLedger(ctx context.Context) ([]string, error)
	// SaveLedger replaces the persisted ingredient ledger.
	SaveLedger(ctx context.Context, names []string) error

	Close() error
}

// IngredientSearcher is implemented by stores that can match ingredients
// themselves. Matching is case-insensitive substring, OR across terms.
type IngredientSearcher interface {
	SearchByIngredients(ctx context.Context, terms []string) ([]*recipe.Recipe, error)
}

// AccountStore defines user, session and favorite persistence.
type AccountStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, username string) (*models.User, error)
	// DeleteUser removes the user with their sessions, favorites and authored recipes.
	// It returns the IDs of the removed recipes.
	DeleteUser(ctx context.Context, username string) ([]int64, error)

	CreateSession(ctx context.Context, s *models.Session) error
	GetSession(ctx context.Context, token string) (*models.Session, error)
	DeleteSession(ctx context.Context, token string) error

	AddFavorite(ctx context.Context, username string, recipeID int64) error
	RemoveFavorite(ctx context.Context, username string, recipeID int64) error
	ListFavorites(ctx context.Context, username string) ([]*recipe.Recipe, error)
}
