// Package models defines request, response and account structures shared by
// the store, the services and the HTTP API.
package models

import (
	"fmt"
	"strings"

	"github.com/hyperjump/recipebox/internal/recipe"
)

// RecipeInput is the input for creating a recipe.
// Ingredients may be given as a list or as a comma-separated string.
type RecipeInput struct {
	Name            string   `json:"name" yaml:"name"`
	CookingTime     int      `json:"cooking_time" yaml:"cooking_time"`
	Ingredients     []string `json:"ingredients,omitempty" yaml:"ingredients,omitempty"`
	IngredientsText string   `json:"ingredients_text,omitempty" yaml:"ingredients_text,omitempty"`
	Description     string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// IngredientList returns the list form of the input's ingredients.
func (in *RecipeInput) IngredientList() []string {
	if len(in.Ingredients) > 0 {
		out := make([]string, 0, len(in.Ingredients))
		for _, ing := range in.Ingredients {
			if ing = strings.TrimSpace(ing); ing != "" {
				out = append(out, ing)
			}
		}
		return out
	}
	return recipe.ParseIngredients(in.IngredientsText)
}

// ToRecipe converts the input to a validated recipe.
func (in *RecipeInput) ToRecipe() (*recipe.Recipe, error) {
	r := recipe.New(strings.TrimSpace(in.Name))
	r.Description = strings.TrimSpace(in.Description)
	r.AddIngredients(in.IngredientList()...)
	if err := r.SetCookingTime(in.CookingTime); err != nil {
		return nil, err
	}
	if err := recipe.Validate(r); err != nil {
		return nil, err
	}
	return r, nil
}

// RecipePatch is a partial update. Nil fields are left unchanged.
type RecipePatch struct {
	Name            *string   `json:"name,omitempty"`
	CookingTime     *int      `json:"cooking_time,omitempty"`
	Ingredients     *[]string `json:"ingredients,omitempty"`
	IngredientsText *string   `json:"ingredients_text,omitempty"`
	Description     *string   `json:"description,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p *RecipePatch) Empty() bool {
	return p.Name == nil && p.CookingTime == nil && p.Ingredients == nil &&
		p.IngredientsText == nil && p.Description == nil
}

// Apply applies the patch to a copy of r and validates the result. The
// difficulty of the copy is recomputed by the recipe's own setters.
func (p *RecipePatch) Apply(r *recipe.Recipe) (*recipe.Recipe, error) {
	if p.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", recipe.ErrInvalidInput)
	}
	out := r.Clone()
	if p.Name != nil {
		out.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		out.Description = strings.TrimSpace(*p.Description)
	}
	switch {
	case p.Ingredients != nil:
		in := RecipeInput{Ingredients: *p.Ingredients}
		out.SetIngredients(in.IngredientList())
	case p.IngredientsText != nil:
		out.SetIngredients(recipe.ParseIngredients(*p.IngredientsText))
	}
	if p.CookingTime != nil {
		if err := out.SetCookingTime(*p.CookingTime); err != nil {
			return nil, err
		}
	}
	if err := recipe.Validate(out); err != nil {
		return nil, err
	}
	return out, nil
}
