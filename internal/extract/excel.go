package extract

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
)

// RecipeSheet is the sheet read from a workbook when present; otherwise the
// first sheet is used.
const RecipeSheet = "Recipes"

// decodeExcel reads one recipe per row below a header row. Recognized headers
// (case-insensitive) are name, cooking time, ingredients and description;
// other columns such as a computed difficulty are ignored.
func decodeExcel(content []byte) ([]models.RecipeInput, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return []models.RecipeInput{}, nil
	}
	sheet := sheets[0]
	if idx, err := f.GetSheetIndex(RecipeSheet); err == nil && idx >= 0 {
		sheet = RecipeSheet
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return []models.RecipeInput{}, nil
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[headerKey(h)] = i
	}
	nameCol, ok := cols["name"]
	if !ok {
		return nil, fmt.Errorf("sheet %q: missing %q column", sheet, "name")
	}
	timeCol, ok := cols["cooking_time"]
	if !ok {
		return nil, fmt.Errorf("sheet %q: missing %q column", sheet, "cooking_time")
	}
	ingCol, ok := cols["ingredients"]
	if !ok {
		return nil, fmt.Errorf("sheet %q: missing %q column", sheet, "ingredients")
	}
	descCol, hasDesc := cols["description"]

	out := make([]models.RecipeInput, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		cell := func(i int) string {
			if i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		minutes, err := strconv.Atoi(cell(timeCol))
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: cooking time %q is not a whole number: %w",
				sheet, n+2, cell(timeCol), recipe.ErrInvalidInput)
		}
		in := models.RecipeInput{
			Name:        cell(nameCol),
			CookingTime: minutes,
			Ingredients: recipe.ParseIngredients(cell(ingCol)),
		}
		if hasDesc {
			in.Description = cell(descCol)
		}
		out = append(out, in)
	}
	return out, nil
}

func headerKey(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if i := strings.Index(h, "("); i > 0 {
		h = strings.TrimSpace(h[:i])
	}
	return strings.Join(strings.Fields(h), "_")
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
