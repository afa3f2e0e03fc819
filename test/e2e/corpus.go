// Package e2e provides end-to-end tests with a generated recipe corpus imported
// through recipe files.
package e2e

import (
	"fmt"

	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
)

// CorpusRecipe is a recipe in the corpus with the difficulty it must be given.
type CorpusRecipe struct {
	Input      models.RecipeInput
	Difficulty recipe.Difficulty
}

// QueryTestCase defines an ingredient query and the recipe names that must be
// returned for it, in corpus order.
type QueryTestCase struct {
	Ingredient    string
	ExpectedNames []string
	Description   string
}

// Corpus holds recipes and ingredient query test cases for E2E tests.
type Corpus struct {
	Recipes      []CorpusRecipe
	TestCases    []QueryTestCase
	TotalRecipes int
	TotalQueries int
}

type dish struct {
	name        string
	ingredients []string
}

var dishes = []dish{
	{"Tea", []string{"Tea Leaves", "Sugar", "Water"}},
	{"Coffee", []string{"Coffee Powder", "Sugar", "Water"}},
	{"Cake", []string{"Sugar", "Butter", "Eggs", "Vanilla Essence", "Flour", "Baking Powder", "Milk"}},
	{"Banana Smoothie", []string{"Bananas", "Milk", "Ice"}},
	{"Omelette", []string{"Eggs", "Salt", "Pepper", "Butter"}},
	{"Pancakes", []string{"Flour", "Milk", "Eggs", "Sugar", "Butter"}},
	{"Guacamole", []string{"Avocado", "Lime", "Salt"}},
	{"Tomato Soup", []string{"Tomatoes", "Onion", "Garlic", "Salt", "Cream"}},
	{"Rice", []string{"Rice", "Water"}},
	{"Lemonade", []string{"Lemon", "Sugar", "Water"}},
	{"Pasta Aglio e Olio", []string{"Spaghetti", "Garlic", "Olive Oil", "Chili Flakes", "Parsley"}},
	{"Salad", []string{"Lettuce", "Tomatoes", "Cucumber", "Olive Oil"}},
}

// cookingTimes cycles through both sides of the 10-minute threshold.
var cookingTimes = []int{1, 5, 9, 10, 25, 60, 120}

// BuildCorpus returns n recipes built from a fixed set of dishes with
// cycling cooking times, plus query test cases for every ingredient in a
// sample of dishes. Names are unique ("Tea #3").
func BuildCorpus(n int) *Corpus {
	recipes := make([]CorpusRecipe, 0, n)
	for i := 0; i < n; i++ {
		d := dishes[i%len(dishes)]
		minutes := cookingTimes[i%len(cookingTimes)]
		diff, err := recipe.Classify(minutes, len(d.ingredients))
		if err != nil {
			panic(fmt.Sprintf("corpus: %v", err))
		}
		recipes = append(recipes, CorpusRecipe{
			Input: models.RecipeInput{
				Name:        fmt.Sprintf("%s #%d", d.name, i+1),
				CookingTime: minutes,
				Ingredients: append([]string(nil), d.ingredients...),
			},
			Difficulty: diff,
		})
	}
	cases := buildQueryTestCases(recipes)
	return &Corpus{
		Recipes:      recipes,
		TestCases:    cases,
		TotalRecipes: len(recipes),
		TotalQueries: len(cases),
	}
}

func buildQueryTestCases(recipes []CorpusRecipe) []QueryTestCase {
	var cases []QueryTestCase
	seen := map[string]bool{}
	for _, d := range dishes {
		for _, ing := range d.ingredients {
			if seen[ing] {
				continue
			}
			seen[ing] = true
			var names []string
			for _, r := range recipes {
				for _, have := range r.Input.Ingredients {
					if have == ing {
						names = append(names, r.Input.Name)
						break
					}
				}
			}
			if len(names) == 0 {
				continue
			}
			cases = append(cases, QueryTestCase{
				Ingredient:    ing,
				ExpectedNames: names,
				Description:   fmt.Sprintf("%d recipes with %s", len(names), ing),
			})
		}
	}
	cases = append(cases, QueryTestCase{
		Ingredient:  "Saffron",
		Description: "unknown ingredient matches nothing",
	})
	return cases
}

// Split divides recipes into consecutive chunks of at most size.
func Split(recipes []CorpusRecipe, size int) [][]CorpusRecipe {
	var out [][]CorpusRecipe
	for len(recipes) > 0 {
		n := min(size, len(recipes))
		out = append(out, recipes[:n])
		recipes = recipes[n:]
	}
	return out
}
