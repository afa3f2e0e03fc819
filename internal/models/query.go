package models

import (
	"fmt"
	"strings"

	"github.com/hyperjump/recipebox/internal/recipe"
)

// SearchQuery represents a recipe search. Every set field narrows the result.
type SearchQuery struct {
	Name           string   `json:"name,omitempty"`
	Ingredient     string   `json:"ingredient,omitempty"`
	Ingredients    []string `json:"ingredients,omitempty"` // any of these
	MaxCookingTime int      `json:"max_cooking_time,omitempty"`
	Difficulty     string   `json:"difficulty,omitempty"`
	Author         string   `json:"author,omitempty"`
	Limit          int      `json:"limit,omitempty"`
	Offset         int      `json:"offset,omitempty"`
}

// Validate normalizes the query. defaultLimit and maxLimit bound Limit.
func (q *SearchQuery) Validate(defaultLimit, maxLimit int) error {
	q.Name = strings.TrimSpace(q.Name)
	q.Ingredient = strings.TrimSpace(q.Ingredient)
	q.Author = strings.TrimSpace(q.Author)
	if q.MaxCookingTime < 0 {
		return fmt.Errorf("%w: max cooking time must not be negative", recipe.ErrInvalidInput)
	}
	if q.Difficulty != "" {
		d, err := recipe.ParseDifficulty(q.Difficulty)
		if err != nil {
			return err
		}
		q.Difficulty = d.String()
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	return nil
}

// IngredientTerms returns Ingredient and Ingredients combined, without blanks.
func (q *SearchQuery) IngredientTerms() []string {
	var terms []string
	if q.Ingredient != "" {
		terms = append(terms, q.Ingredient)
	}
	for _, t := range q.Ingredients {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}
