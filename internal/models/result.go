package models

import "github.com/hyperjump/recipebox/internal/recipe"

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Recipes   []*recipe.Recipe `json:"recipes"`
	Total     int              `json:"total"`
	QueryTime int64            `json:"query_time_ms"`
	// MatchPolicy is the ingredient matching policy that produced the result.
	MatchPolicy recipe.MatchPolicy `json:"match_policy,omitempty"`
	// Suggestions holds known ingredients close to a query ingredient that matched nothing.
	Suggestions []string `json:"suggestions,omitempty"`
}

// Stats summarizes a recipe collection.
type Stats struct {
	Recipes      int                       `json:"recipes"`
	Ingredients  int                       `json:"ingredients"`
	ByDifficulty map[recipe.Difficulty]int `json:"by_difficulty"`
	IndexedDocs  uint64                    `json:"indexed_docs"`
	MatchPolicy  recipe.MatchPolicy        `json:"match_policy"`
	StoreKind    string                    `json:"store_kind,omitempty"`
}
