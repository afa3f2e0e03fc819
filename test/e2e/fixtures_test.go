package e2e

import (
	"testing"

	"github.com/hyperjump/recipebox/internal/extract"
)

func TestRecipeFile_AllExtensionsExtractable(t *testing.T) {
	e := extract.NewExtractor()
	batch := BuildCorpus(7).Recipes
	for _, ext := range SupportedFileExtensions {
		t.Run(ext, func(t *testing.T) {
			content, err := RecipeFile(ext, batch)
			if err != nil {
				t.Fatalf("RecipeFile: %v", err)
			}
			got, err := e.ExtractBytes(content, ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if len(got) != len(batch) {
				t.Fatalf("extracted %d recipes, want %d", len(got), len(batch))
			}
			for i, in := range got {
				want := batch[i].Input
				if in.Name != want.Name || in.CookingTime != want.CookingTime || len(in.IngredientList()) != len(want.Ingredients) {
					t.Errorf("recipe %d: got %+v, want %+v", i, in, want)
				}
			}
		})
	}
}
