// Package e2e provides end-to-end tests; this file writes corpus recipes as
// recipe files in every supported format.
package e2e

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// SupportedFileExtensions is the list of file extensions used in E2E file-based tests.
var SupportedFileExtensions = []string{".yaml", ".json", ".xlsx"}

type fixtureRecipe struct {
	Name        string   `json:"name" yaml:"name"`
	CookingTime int      `json:"cooking_time" yaml:"cooking_time"`
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
}

func toFixtures(recipes []CorpusRecipe) []fixtureRecipe {
	out := make([]fixtureRecipe, 0, len(recipes))
	for _, r := range recipes {
		out = append(out, fixtureRecipe{
			Name:        r.Input.Name,
			CookingTime: r.Input.CookingTime,
			Ingredients: r.Input.Ingredients,
		})
	}
	return out
}

// RecipeFile returns the bytes of a recipe file of the given extension
// holding recipes.
func RecipeFile(ext string, recipes []CorpusRecipe) ([]byte, error) {
	fixtures := toFixtures(recipes)
	switch ext {
	case ".yaml", ".yml":
		return yaml.Marshal(map[string]any{"recipes": fixtures})
	case ".json":
		return json.MarshalIndent(fixtures, "", "  ")
	case ".xlsx":
		return workbook(fixtures)
	default:
		return nil, fmt.Errorf("no fixture writer for %q", ext)
	}
}

// workbook lays recipes out one per row with ingredients comma-joined, the
// layout an exported report uses.
func workbook(recipes []fixtureRecipe) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := "Sheet1"
	if err := f.SetSheetRow(sheet, "A1", &[]any{"Name", "Cooking Time", "Ingredients", "Difficulty"}); err != nil {
		return nil, err
	}
	for i, r := range recipes {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		// The difficulty column is ignored on import; a stale value must not matter.
		row := []any{r.Name, r.CookingTime, strings.Join(r.Ingredients, ", "), "Impossible"}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, err
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
