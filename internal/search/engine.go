// Package search is the recipe read path: filtered search, ingredient
// listing and collection statistics.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/recipebox/internal/config"
	"github.com/hyperjump/recipebox/internal/keyword"
	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
	"github.com/hyperjump/recipebox/internal/storage"
)

// Engine answers recipe queries against the store, the keyword index and the ledger.
type Engine struct {
	store        storage.RecipeStore
	keywordIndex keyword.RecipeIndex
	ledger       *recipe.Ledger
	suggester    *keyword.Suggester
	policy       recipe.MatchPolicy
	config       *config.SearchConfig
	storeKind    string
	logger       *zap.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithStoreKind records the store kind reported by Stats.
func WithStoreKind(kind string) EngineOption {
	return func(e *Engine) { e.storeKind = kind }
}

// NewEngine creates a search engine. cfg.IngredientMatch selects the
// ingredient match policy; it must already be defaulted.
func NewEngine(
	store storage.RecipeStore,
	keywordIndex keyword.RecipeIndex,
	ledger *recipe.Ledger,
	cfg *config.SearchConfig,
	opts ...EngineOption,
) (*Engine, error) {
	policy, err := recipe.ParseMatchPolicy(cfg.IngredientMatch)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		store:        store,
		keywordIndex: keywordIndex,
		ledger:       ledger,
		suggester:    keyword.NewSuggester(keyword.WithMaxDistance(cfg.SuggestDistance)),
		policy:       policy,
		config:       cfg,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// MatchPolicy returns the ingredient match policy in effect.
func (e *Engine) MatchPolicy() recipe.MatchPolicy {
	return e.policy
}

// Search returns the recipes matching every set field of query, in store order.
// Name matches recipe names containing the text (ignoring case) and recipes
// whose name holds every word of the text. Ingredient terms are ORed
// under the configured match policy; when they match nothing, the response
// carries ingredient suggestions from the ledger.
func (e *Engine) Search(ctx context.Context, query *models.SearchQuery) (*models.SearchResponse, error) {
	startTime := time.Now()
	if err := ProcessQuery(query, e.config); err != nil {
		return nil, err
	}

	terms := query.IngredientTerms()
	var (
		candidates []*recipe.Recipe
		err        error
	)
	if len(terms) > 0 {
		candidates, err = e.matchIngredients(ctx, terms)
	} else {
		candidates, err = e.store.ListRecipes(ctx, 0, 0)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load recipes: %w", err)
	}

	var textHits map[int64]struct{}
	if query.Name != "" {
		textHits, err = e.textHits(ctx, query.Name)
		if err != nil {
			return nil, err
		}
	}

	var difficulty recipe.Difficulty
	if query.Difficulty != "" {
		difficulty = recipe.Difficulty(query.Difficulty)
	}
	nameLower := strings.ToLower(query.Name)

	matched := make([]*recipe.Recipe, 0, len(candidates))
	for _, r := range candidates {
		if query.Name != "" {
			_, hit := textHits[r.ID]
			if !hit && !strings.Contains(strings.ToLower(r.Name), nameLower) {
				continue
			}
		}
		if query.MaxCookingTime > 0 && r.CookingTime() > query.MaxCookingTime {
			continue
		}
		if difficulty != "" && r.Difficulty() != difficulty {
			continue
		}
		if query.Author != "" && r.Author != query.Author {
			continue
		}
		matched = append(matched, r)
	}

	start := min(query.Offset, len(matched))
	end := min(start+query.Limit, len(matched))
	response := &models.SearchResponse{
		Recipes:     matched[start:end],
		Total:       len(matched),
		MatchPolicy: e.policy,
	}
	if len(terms) > 0 && len(candidates) == 0 {
		response.Suggestions = e.Suggest(terms...)
	}
	response.QueryTime = time.Since(startTime).Milliseconds()
	e.logger.Debug("search completed",
		zap.Int("total", response.Total),
		zap.Int("suggestions", len(response.Suggestions)),
		zap.Int64("query_time_ms", response.QueryTime))
	return response, nil
}

// matchIngredients returns recipes listing any of terms. Substring matching is
// pushed down to stores that support it.
func (e *Engine) matchIngredients(ctx context.Context, terms []string) ([]*recipe.Recipe, error) {
	if e.policy == recipe.MatchSubstringFold {
		if s, ok := e.store.(storage.IngredientSearcher); ok {
			return s.SearchByIngredients(ctx, terms)
		}
	}
	all, err := e.store.ListRecipes(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	return recipe.FindByAnyIngredient(all, terms, e.policy), nil
}

func (e *Engine) textHits(ctx context.Context, text string) (map[int64]struct{}, error) {
	n, err := e.store.CountRecipes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count recipes: %w", err)
	}
	hits, err := e.keywordIndex.Search(ctx, text, int(n)+1, &keyword.SearchOptions{
		Fields:   []string{"name"},
		MatchAll: true,
	})
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}
	out := make(map[int64]struct{}, len(hits))
	for _, h := range hits {
		out[h.ID] = struct{}{}
	}
	return out, nil
}

// FindByIngredient returns the recipes listing ingredient under the configured
// policy, in store order. No match is an empty slice, not an error.
func (e *Engine) FindByIngredient(ctx context.Context, ingredient string) ([]*recipe.Recipe, error) {
	ingredient = strings.TrimSpace(ingredient)
	if ingredient == "" {
		return []*recipe.Recipe{}, nil
	}
	return e.matchIngredients(ctx, []string{ingredient})
}

// Ingredients returns the ingredient ledger sorted alphabetically.
func (e *Engine) Ingredients() []string {
	names := e.ledger.Names()
	sort.Strings(names)
	return names
}

// Suggest returns known ingredients close to any of terms, best first,
// without duplicates.
func (e *Engine) Suggest(terms ...string) []string {
	known := e.ledger.Names()
	var all []keyword.Suggestion
	for _, t := range terms {
		all = append(all, e.suggester.Suggest(t, known)...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Distance < all[j].Distance })
	seen := make(map[string]struct{}, len(all))
	out := make([]string, 0, len(all))
	for _, s := range all {
		if _, dup := seen[s.Ingredient]; dup {
			continue
		}
		seen[s.Ingredient] = struct{}{}
		out = append(out, s.Ingredient)
	}
	return out
}

// List returns a page of recipes in store order and the total count.
func (e *Engine) List(ctx context.Context, offset, limit int) ([]*recipe.Recipe, int64, error) {
	total, err := e.store.CountRecipes(ctx)
	if err != nil {
		return nil, 0, err
	}
	recipes, err := e.store.ListRecipes(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// Get returns one recipe.
func (e *Engine) Get(ctx context.Context, id int64) (*recipe.Recipe, error) {
	return e.store.GetRecipe(ctx, id)
}

// Stats summarizes the collection.
func (e *Engine) Stats(ctx context.Context) (*models.Stats, error) {
	recipes, err := e.store.ListRecipes(ctx, 0, 0)
	if err != nil {
		return nil, err
	}
	st := &models.Stats{
		Recipes:      len(recipes),
		Ingredients:  e.ledger.Len(),
		ByDifficulty: make(map[recipe.Difficulty]int, len(recipe.Difficulties)),
		MatchPolicy:  e.policy,
		StoreKind:    e.storeKind,
	}
	for _, d := range recipe.Difficulties {
		st.ByDifficulty[d] = 0
	}
	for _, r := range recipes {
		st.ByDifficulty[r.Difficulty()]++
	}
	if n, err := e.keywordIndex.DocCount(); err == nil {
		st.IndexedDocs = n
	}
	return st, nil
}
