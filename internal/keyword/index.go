// Package keyword provides full-text recipe search and ingredient suggestions.
package keyword

import (
	"context"

	"github.com/hyperjump/recipebox/internal/recipe"
)

// SearchOptions tunes a text search. Nil means exact term matching.
type SearchOptions struct {
	// Fuzzy matches terms within Fuzziness edits, so "choclate" finds "chocolate".
	Fuzzy bool
	// Fuzziness is the maximum edit distance when Fuzzy is set (1 or 2, default 1).
	Fuzziness int
	// Fields restricts the search to the named fields ("name", "ingredients",
	// "description"). Empty means all three.
	Fields []string
	// MatchAll requires every term of the text to match instead of any.
	MatchAll bool
}

// RecipeIndex defines the full-text index over recipe name, ingredients and description.
type RecipeIndex interface {
	Index(ctx context.Context, r *recipe.Recipe) error
	Search(ctx context.Context, text string, limit int, opts *SearchOptions) ([]*Hit, error)
	Delete(ctx context.Context, id int64) error
	// DocCount returns the number of indexed recipes.
	DocCount() (uint64, error)
	Close() error
}

// Hit is a single text search result.
type Hit struct {
	ID    int64
	Score float64
}
