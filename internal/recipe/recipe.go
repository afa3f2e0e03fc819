package recipe

import (
	"encoding/json"
	"time"
)

// Recipe is a named dish with a cooking time and an ordered ingredient list.
// Difficulty is derived and recomputed by every mutating method; it cannot be
// set directly. A recipe with no cooking time yet has an empty difficulty.
type Recipe struct {
	ID          int64
	Name        string
	Description string
	Author      string
	Source      string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	cookingTime int
	ingredients []string
	difficulty  Difficulty
}

// New returns a recipe with the given name and no ingredients.
func New(name string) *Recipe {
	return &Recipe{Name: name}
}

// Build returns a recipe with the given cooking time and ingredients already
// applied. Duplicate ingredients are dropped; the first occurrence wins.
func Build(name string, cookingTime int, ingredients []string) (*Recipe, error) {
	r := New(name)
	r.AddIngredients(ingredients...)
	if err := r.SetCookingTime(cookingTime); err != nil {
		return nil, err
	}
	return r, nil
}

// CookingTime returns the cooking time in minutes.
func (r *Recipe) CookingTime() int { return r.cookingTime }

// Ingredients returns a copy of the ingredient list.
func (r *Recipe) Ingredients() []string {
	return append([]string(nil), r.ingredients...)
}

// IngredientCount returns the number of ingredients.
func (r *Recipe) IngredientCount() int { return len(r.ingredients) }

// Difficulty returns the difficulty computed at the last mutation.
func (r *Recipe) Difficulty() Difficulty { return r.difficulty }

// SetCookingTime sets the cooking time. Non-positive values are rejected and
// leave the recipe unchanged.
func (r *Recipe) SetCookingTime(minutes int) error {
	d, err := Classify(minutes, len(r.ingredients))
	if err != nil {
		return err
	}
	r.cookingTime = minutes
	r.difficulty = d
	return nil
}

// AddIngredients appends ingredients that are non-empty and not already present.
func (r *Recipe) AddIngredients(ingredients ...string) {
	for _, ing := range ingredients {
		if ing == "" || r.HasIngredient(ing) {
			continue
		}
		r.ingredients = append(r.ingredients, ing)
	}
	r.refresh()
}

// SetIngredients replaces the ingredient list, applying the same rules as AddIngredients.
func (r *Recipe) SetIngredients(ingredients []string) {
	r.ingredients = nil
	r.AddIngredients(ingredients...)
}

// HasIngredient reports whether the recipe lists ingredient exactly.
func (r *Recipe) HasIngredient(ingredient string) bool {
	for _, ing := range r.ingredients {
		if ing == ingredient {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (r *Recipe) Clone() *Recipe {
	c := *r
	c.ingredients = r.Ingredients()
	return &c
}

func (r *Recipe) refresh() {
	if r.cookingTime <= 0 {
		r.difficulty = ""
		return
	}
	// cookingTime > 0 and count >= 0 here, so Classify cannot fail.
	r.difficulty, _ = Classify(r.cookingTime, len(r.ingredients))
}

type recipeJSON struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	CookingTime int        `json:"cooking_time"`
	Ingredients []string   `json:"ingredients"`
	Difficulty  Difficulty `json:"difficulty"`
	Description string     `json:"description,omitempty"`
	Author      string     `json:"author,omitempty"`
	Source      string     `json:"source,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// MarshalJSON includes the derived difficulty.
func (r *Recipe) MarshalJSON() ([]byte, error) {
	ings := r.ingredients
	if ings == nil {
		ings = []string{}
	}
	return json.Marshal(recipeJSON{
		ID:          r.ID,
		Name:        r.Name,
		CookingTime: r.cookingTime,
		Ingredients: ings,
		Difficulty:  r.difficulty,
		Description: r.Description,
		Author:      r.Author,
		Source:      r.Source,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	})
}

// UnmarshalJSON ignores any difficulty in the payload and recomputes it.
func (r *Recipe) UnmarshalJSON(data []byte) error {
	var in recipeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Recipe{
		ID:          in.ID,
		Name:        in.Name,
		Description: in.Description,
		Author:      in.Author,
		Source:      in.Source,
		CreatedAt:   in.CreatedAt,
		UpdatedAt:   in.UpdatedAt,
		cookingTime: in.CookingTime,
	}
	r.AddIngredients(in.Ingredients...)
	return nil
}
