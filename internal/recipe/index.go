package recipe

import (
	"fmt"
	"sort"
	"strings"
)

// IngredientSet is a duplicate-free set of ingredient names.
type IngredientSet map[string]struct{}

// Add inserts names into the set.
func (s IngredientSet) Add(names ...string) {
	for _, n := range names {
		s[n] = struct{}{}
	}
}

// Contains reports whether name is in the set (exact match).
func (s IngredientSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// Sorted returns the members in lexical order.
func (s IngredientSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for n := range s {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both sets hold the same members.
func (s IngredientSet) Equal(other IngredientSet) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if !other.Contains(n) {
			return false
		}
	}
	return true
}

// Index returns the union of every recipe's ingredients. It recomputes from
// scratch on each call; nil recipes are skipped.
func Index(recipes []*Recipe) IngredientSet {
	set := make(IngredientSet)
	for _, r := range recipes {
		if r == nil {
			continue
		}
		set.Add(r.ingredients...)
	}
	return set
}

// MatchPolicy selects how an ingredient query is compared with a recipe's ingredients.
type MatchPolicy string

const (
	// MatchExact compares whole ingredient names, case-sensitively.
	MatchExact MatchPolicy = "exact"
	// MatchSubstringFold matches when the query occurs anywhere in an
	// ingredient name, ignoring case.
	MatchSubstringFold MatchPolicy = "substring"
)

// ParseMatchPolicy maps a config value to a MatchPolicy.
func ParseMatchPolicy(s string) (MatchPolicy, error) {
	switch MatchPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case MatchExact:
		return MatchExact, nil
	case MatchSubstringFold:
		return MatchSubstringFold, nil
	}
	return "", fmt.Errorf("%w: unknown match policy %q", ErrInvalidInput, s)
}

// Matches reports whether r contains ingredient under policy.
func (p MatchPolicy) Matches(r *Recipe, ingredient string) bool {
	if r == nil {
		return false
	}
	if p == MatchSubstringFold {
		needle := strings.ToLower(ingredient)
		for _, ing := range r.ingredients {
			if strings.Contains(strings.ToLower(ing), needle) {
				return true
			}
		}
		return false
	}
	return r.HasIngredient(ingredient)
}

// FindByIngredient returns the recipes containing ingredient under policy, in input order.
func FindByIngredient(recipes []*Recipe, ingredient string, policy MatchPolicy) []*Recipe {
	out := make([]*Recipe, 0)
	for _, r := range recipes {
		if policy.Matches(r, ingredient) {
			out = append(out, r)
		}
	}
	return out
}

// FindByAnyIngredient returns the recipes containing at least one of
// ingredients under policy, in input order.
func FindByAnyIngredient(recipes []*Recipe, ingredients []string, policy MatchPolicy) []*Recipe {
	out := make([]*Recipe, 0)
	for _, r := range recipes {
		for _, ing := range ingredients {
			if policy.Matches(r, ing) {
				out = append(out, r)
				break
			}
		}
	}
	return out
}
