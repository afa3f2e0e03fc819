// Package indexer is the recipe write path: it keeps the store, the full-text
// index and the ingredient ledger consistent.
package indexer

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/recipebox/internal/extract"
	"github.com/hyperjump/recipebox/internal/keyword"
	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
	"github.com/hyperjump/recipebox/internal/storage"
)

// Indexer serializes recipe writes across the store, the keyword index and the ledger.
type Indexer struct {
	mu           sync.Mutex
	store        storage.RecipeStore
	keywordIndex keyword.RecipeIndex
	ledger       *recipe.Ledger
	extractor    *extract.Extractor
	logger       *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithLogger sets a logger for debug output (recipe created, file imported, etc.).
func WithLogger(l *zap.Logger) IndexerOption {
	return func(idx *Indexer) { idx.logger = l }
}

// WithExtractor sets the decoder used by ImportFile. The default handles
// every format the extract package supports.
func WithExtractor(e *extract.Extractor) IndexerOption {
	return func(idx *Indexer) { idx.extractor = e }
}

// NewIndexer returns an indexer over store and keywordIndex. ledger is owned
// by the indexer from here on; readers should use Ledger().
func NewIndexer(store storage.RecipeStore, keywordIndex keyword.RecipeIndex, ledger *recipe.Ledger, opts ...IndexerOption) *Indexer {
	idx := &Indexer{
		store:        store,
		keywordIndex: keywordIndex,
		ledger:       ledger,
		extractor:    extract.NewExtractor(),
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(idx)
	}
	return idx
}

// Ledger returns the ingredient ledger.
func (idx *Indexer) Ledger() *recipe.Ledger {
	return idx.ledger
}

// Rebuild restores the ledger from the store, reindexes every recipe and
// reconciles the ledger with the recipes under its prune policy.
func (idx *Indexer) Rebuild(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	recipes, err := idx.store.ListRecipes(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to list recipes: %w", err)
	}
	if idx.ledger.Policy() == recipe.Prune {
		idx.ledger.Reset(recipes)
	} else {
		persisted, err := idx.store.LoadLedger(ctx)
		if err != nil {
			return fmt.Errorf("failed to load ingredient ledger: %w", err)
		}
		idx.ledger.Add(persisted...)
		for _, r := range recipes {
			idx.ledger.Record(r)
		}
	}
	for _, r := range recipes {
		if err := idx.keywordIndex.Index(ctx, r); err != nil {
			return fmt.Errorf("failed to index recipe %d: %w", r.ID, err)
		}
	}
	if err := idx.store.SaveLedger(ctx, idx.ledger.Names()); err != nil {
		return fmt.Errorf("failed to save ingredient ledger: %w", err)
	}
	idx.logger.Debug("indexer rebuilt",
		zap.Int("recipes", len(recipes)),
		zap.Int("ingredients", idx.ledger.Len()))
	return nil
}

// CreateRecipe validates and stores r, then indexes it and records its
// ingredients. r.ID and timestamps are set on success.
func (idx *Indexer) CreateRecipe(ctx context.Context, r *recipe.Recipe) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.create(ctx, r)
}

// prepare normalizes whitespace in the recipe's text fields. Ingredient
// names are compared exactly, so "Brown  sugar" and "Brown sugar" must agree.
func prepare(r *recipe.Recipe) {
	r.Name = Preprocess(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.SetIngredients(normalize(r.Ingredients()))
}

func (idx *Indexer) create(ctx context.Context, r *recipe.Recipe) error {
	prepare(r)
	if err := recipe.Validate(r); err != nil {
		return err
	}
	ledgerBefore := idx.ledger.Names()
	if err := idx.store.CreateRecipe(ctx, r); err != nil {
		return fmt.Errorf("failed to store recipe: %w", err)
	}
	if err := idx.keywordIndex.Index(ctx, r); err != nil {
		idx.undoCreate(ctx, r, ledgerBefore)
		return fmt.Errorf("failed to index recipe: %w", err)
	}
	idx.ledger.Record(r)
	if err := idx.saveLedger(ctx); err != nil {
		idx.undoCreate(ctx, r, ledgerBefore)
		return err
	}
	idx.logger.Debug("indexer recipe created",
		zap.Int64("id", r.ID),
		zap.String("name", r.Name),
		zap.String("difficulty", r.Difficulty().String()))
	return nil
}

// undoCreate removes a partly created recipe from the store and the keyword
// index and restores the ledger, leaving r without an ID.
func (idx *Indexer) undoCreate(ctx context.Context, r *recipe.Recipe, ledger []string) {
	_ = idx.keywordIndex.Delete(ctx, r.ID)
	if err := idx.store.DeleteRecipe(ctx, r.ID); err != nil {
		idx.logger.Warn("failed to roll back recipe", zap.Int64("id", r.ID), zap.Error(err))
	}
	idx.ledger.Restore(ledger)
	r.ID = 0
}

// UpdateRecipe applies patch to the stored recipe and returns the result.
// Difficulty is recomputed by the patch.
func (idx *Indexer) UpdateRecipe(ctx context.Context, id int64, patch *models.RecipePatch) (*recipe.Recipe, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	current, err := idx.store.GetRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := patch.Apply(current)
	if err != nil {
		return nil, err
	}
	if err := idx.update(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (idx *Indexer) update(ctx context.Context, r *recipe.Recipe) error {
	prepare(r)
	if err := recipe.Validate(r); err != nil {
		return err
	}
	if err := idx.store.UpdateRecipe(ctx, r); err != nil {
		return fmt.Errorf("failed to update recipe: %w", err)
	}
	if err := idx.keywordIndex.Index(ctx, r); err != nil {
		return fmt.Errorf("failed to index recipe: %w", err)
	}
	idx.ledger.Record(r)
	if err := idx.pruneLedger(ctx); err != nil {
		return err
	}
	if err := idx.saveLedger(ctx); err != nil {
		return err
	}
	idx.logger.Debug("indexer recipe updated",
		zap.Int64("id", r.ID),
		zap.String("difficulty", r.Difficulty().String()))
	return nil
}

// DeleteRecipe removes a recipe from the store and the keyword index and
// updates the ledger under its prune policy.
func (idx *Indexer) DeleteRecipe(ctx context.Context, id int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if err := idx.store.DeleteRecipe(ctx, id); err != nil {
		return err
	}
	return idx.forget(ctx, id)
}

// Forget drops recipes that were already removed from the store by other
// means, such as a deleted account, from the keyword index and the ledger.
func (idx *Indexer) Forget(ctx context.Context, ids ...int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.forget(ctx, ids...)
}

func (idx *Indexer) forget(ctx context.Context, ids ...int64) error {
	for _, id := range ids {
		if err := idx.keywordIndex.Delete(ctx, id); err != nil {
			return fmt.Errorf("failed to delete from keyword index: %w", err)
		}
		idx.logger.Debug("indexer recipe deleted", zap.Int64("id", id))
	}
	if err := idx.pruneLedger(ctx); err != nil {
		return err
	}
	return idx.saveLedger(ctx)
}

func (idx *Indexer) pruneLedger(ctx context.Context) error {
	if idx.ledger.Policy() != recipe.Prune {
		return nil
	}
	remaining, err := idx.store.ListRecipes(ctx, 0, 0)
	if err != nil {
		return fmt.Errorf("failed to list recipes: %w", err)
	}
	idx.ledger.Removed(remaining)
	return nil
}

func (idx *Indexer) saveLedger(ctx context.Context) error {
	if err := idx.store.SaveLedger(ctx, idx.ledger.Names()); err != nil {
		return fmt.Errorf("failed to save ingredient ledger: %w", err)
	}
	return nil
}
