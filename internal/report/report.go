// Package report exports recipes to an XLSX workbook with difficulty charts.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/recipebox/internal/recipe"
)

// Sheet names.
const (
	RecipeSheet = "Recipes"
	ChartSheet  = "Charts"
)

var recipeHeader = []any{"Name", "Cooking Time (min)", "Ingredients", "Difficulty", "Description", "Author"}

// WriteWorkbook writes the workbook for recipes to w.
func WriteWorkbook(w io.Writer, recipes []*recipe.Recipe) error {
	f, err := Build(recipes)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Build returns a workbook with a Recipes sheet listing every recipe and a
// Charts sheet holding a bar chart and a pie chart of recipes per difficulty
// and a line chart of cooking time per recipe. The Recipes sheet can be
// imported back. The caller closes the file.
func Build(recipes []*recipe.Recipe) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := build(f, recipes); err != nil {
		_ = f.Close()
		return nil, err
	}
	return f, nil
}

func build(f *excelize.File, recipes []*recipe.Recipe) error {
	if err := f.SetSheetName("Sheet1", RecipeSheet); err != nil {
		return err
	}
	if err := writeRecipes(f, recipes); err != nil {
		return fmt.Errorf("recipes sheet: %w", err)
	}
	if _, err := f.NewSheet(ChartSheet); err != nil {
		return err
	}
	if err := writeCharts(f, recipes); err != nil {
		return fmt.Errorf("charts sheet: %w", err)
	}
	f.SetActiveSheet(0)
	return nil
}

func writeRecipes(f *excelize.File, recipes []*recipe.Recipe) error {
	if err := f.SetSheetRow(RecipeSheet, "A1", &recipeHeader); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#DDEBF7"}},
	})
	if err != nil {
		return err
	}
	if err := f.SetRowStyle(RecipeSheet, 1, 1, bold); err != nil {
		return err
	}
	for i, r := range recipes {
		row := []any{
			r.Name,
			r.CookingTime(),
			strings.Join(r.Ingredients(), recipe.IngredientSeparator),
			r.Difficulty().String(),
			r.Description,
			r.Author,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(RecipeSheet, cell, &row); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(RecipeSheet, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(RecipeSheet, "C", "C", 60); err != nil {
		return err
	}
	return f.SetPanes(RecipeSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"})
}

func writeCharts(f *excelize.File, recipes []*recipe.Recipe) error {
	counts := make(map[recipe.Difficulty]int, len(recipe.Difficulties))
	for _, r := range recipes {
		counts[r.Difficulty()]++
	}
	if err := f.SetSheetRow(ChartSheet, "A1", &[]any{"Difficulty", "Recipes"}); err != nil {
		return err
	}
	for i, d := range recipe.Difficulties {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(ChartSheet, cell, &[]any{d.String(), counts[d]}); err != nil {
			return err
		}
	}

	last := len(recipe.Difficulties) + 1
	byDifficulty := []excelize.ChartSeries{{
		Name:       fmt.Sprintf("%s!$B$1", ChartSheet),
		Categories: fmt.Sprintf("%s!$A$2:$A$%d", ChartSheet, last),
		Values:     fmt.Sprintf("%s!$B$2:$B$%d", ChartSheet, last),
	}}
	if err := f.AddChart(ChartSheet, "D2", &excelize.Chart{
		Type:   excelize.Col,
		Series: byDifficulty,
		Title:  []excelize.RichTextRun{{Text: "Recipes by difficulty"}},
		Legend: excelize.ChartLegend{Position: "none"},
	}); err != nil {
		return err
	}
	if err := f.AddChart(ChartSheet, "D18", &excelize.Chart{
		Type:     excelize.Pie,
		Series:   byDifficulty,
		Title:    []excelize.RichTextRun{{Text: "Difficulty share"}},
		PlotArea: excelize.ChartPlotArea{ShowPercent: true},
	}); err != nil {
		return err
	}

	// A line needs at least one point.
	if len(recipes) == 0 {
		return nil
	}
	lastRecipe := len(recipes) + 1
	return f.AddChart(ChartSheet, "L2", &excelize.Chart{
		Type: excelize.Line,
		Series: []excelize.ChartSeries{{
			Name:       fmt.Sprintf("%s!$B$1", RecipeSheet),
			Categories: fmt.Sprintf("%s!$A$2:$A$%d", RecipeSheet, lastRecipe),
			Values:     fmt.Sprintf("%s!$B$2:$B$%d", RecipeSheet, lastRecipe),
		}},
		Title:  []excelize.RichTextRun{{Text: "Cooking time per recipe"}},
		Legend: excelize.ChartLegend{Position: "none"},
	})
}
