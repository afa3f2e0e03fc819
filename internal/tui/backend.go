package tui

import (
	"context"

	"github.com/hyperjump/recipebox/internal/indexer"
	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
	"github.com/hyperjump/recipebox/internal/search"
)

// Backend is what the menu needs from the recipe collection.
type Backend interface {
	Create(ctx context.Context, in *models.RecipeInput) (*recipe.Recipe, error)
	List(ctx context.Context) ([]*recipe.Recipe, error)
	Ingredients() []string
	FindByIngredient(ctx context.Context, ingredient string) ([]*recipe.Recipe, error)
	Update(ctx context.Context, id int64, patch *models.RecipePatch) (*recipe.Recipe, error)
	Delete(ctx context.Context, id int64) error
}

// Service adapts the indexer and search engine to Backend.
type Service struct {
	indexer *indexer.Indexer
	engine  *search.Engine
}

var _ Backend = (*Service)(nil)

// NewService returns a Backend over idx and engine.
func NewService(idx *indexer.Indexer, engine *search.Engine) *Service {
	return &Service{indexer: idx, engine: engine}
}

func (s *Service) Create(ctx context.Context, in *models.RecipeInput) (*recipe.Recipe, error) {
	r, err := in.ToRecipe()
	if err != nil {
		return nil, err
	}
	if err := s.indexer.CreateRecipe(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) List(ctx context.Context) ([]*recipe.Recipe, error) {
	recipes, _, err := s.engine.List(ctx, 0, 0)
	return recipes, err
}

func (s *Service) Ingredients() []string {
	return s.engine.Ingredients()
}

func (s *Service) FindByIngredient(ctx context.Context, ingredient string) ([]*recipe.Recipe, error) {
	return s.engine.FindByIngredient(ctx, ingredient)
}

func (s *Service) Update(ctx context.Context, id int64, patch *models.RecipePatch) (*recipe.Recipe, error) {
	return s.indexer.UpdateRecipe(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.indexer.DeleteRecipe(ctx, id)
}
