// Package cli provides console output for recipebox commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
	"github.com/hyperjump/recipebox/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText renders each recipe as a bordered card (default).
	OutputText OutputFormat = "text"
	// OutputCompact renders one line per recipe.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat maps a flag value to an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "", OutputText:
		return OutputText, nil
	case OutputCompact, OutputJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
}

// styles holds the lipgloss styles bound to one writer's color profile.
type styles struct {
	card       lipgloss.Style
	title      lipgloss.Style
	label      lipgloss.Style
	muted      lipgloss.Style
	difficulty map[recipe.Difficulty]lipgloss.Style
}

func newStyles(w io.Writer) *styles {
	r := lipgloss.NewRenderer(w)
	return &styles{
		card:  r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MarginBottom(1),
		title: r.NewStyle().Bold(true),
		label: r.NewStyle().Faint(true),
		muted: r.NewStyle().Faint(true).Italic(true),
		difficulty: map[recipe.Difficulty]lipgloss.Style{
			recipe.Easy:         r.NewStyle().Foreground(lipgloss.Color("2")),
			recipe.Medium:       r.NewStyle().Foreground(lipgloss.Color("6")),
			recipe.Intermediate: r.NewStyle().Foreground(lipgloss.Color("3")),
			recipe.Hard:         r.NewStyle().Foreground(lipgloss.Color("1")),
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteRecipe writes one recipe to w in the given format.
func WriteRecipe(w io.Writer, r *recipe.Recipe, format OutputFormat) error {
	switch format {
	case OutputJSON:
		return writeJSON(w, r)
	case OutputCompact:
		_, err := fmt.Fprintln(w, compactLine(r))
		return err
	default:
		_, err := fmt.Fprintln(w, newStyles(w).renderCard(r))
		return err
	}
}

// WriteRecipes writes a list of recipes to w in the given format.
func WriteRecipes(w io.Writer, recipes []*recipe.Recipe, format OutputFormat) error {
	if format == OutputJSON {
		if recipes == nil {
			recipes = []*recipe.Recipe{}
		}
		return writeJSON(w, recipes)
	}
	if len(recipes) == 0 {
		_, err := fmt.Fprintln(w, "No recipes found.")
		return err
	}
	st := newStyles(w)
	for _, r := range recipes {
		line := compactLine(r)
		if format != OutputCompact {
			line = st.renderCard(r)
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func compactLine(r *recipe.Recipe) string {
	return fmt.Sprintf("%4d  %-30s %4d min  %-12s %s",
		r.ID, utils.Truncate(r.Name, 30), r.CookingTime(), r.Difficulty(),
		utils.Truncate(strings.Join(r.Ingredients(), ", "), 60))
}

func (st *styles) renderCard(r *recipe.Recipe) string {
	var b strings.Builder
	title := r.Name
	if r.ID > 0 {
		title = fmt.Sprintf("#%d %s", r.ID, r.Name)
	}
	b.WriteString(st.title.Render(title))
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s %d minutes\n", st.label.Render("Cooking Time:"), r.CookingTime())
	fmt.Fprintf(&b, "%s %s\n", st.label.Render("Difficulty:"), st.difficulty[r.Difficulty()].Render(string(r.Difficulty())))
	b.WriteString(st.label.Render("Ingredients:"))
	for _, ing := range r.Ingredients() {
		fmt.Fprintf(&b, "\n  - %s", ing)
	}
	if r.Description != "" {
		fmt.Fprintf(&b, "\n\n%s", utils.Truncate(r.Description, 200))
	}
	if r.Author != "" || r.Source != "" {
		var meta []string
		if r.Author != "" {
			meta = append(meta, "by "+r.Author)
		}
		if r.Source != "" {
			meta = append(meta, "imported")
		}
		fmt.Fprintf(&b, "\n%s", st.muted.Render(strings.Join(meta, ", ")))
	}
	return st.card.Render(b.String())
}

// WriteSearchResults writes a search response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "Found %d %s in %dms\n\n", response.Total, utils.Plural(response.Total, "recipe"), response.QueryTime)
	if len(response.Suggestions) > 0 {
		fmt.Fprintf(w, "Did you mean: %s?\n\n", strings.Join(response.Suggestions, ", "))
	}
	if len(response.Recipes) == 0 {
		return nil
	}
	return WriteRecipes(w, response.Recipes, format)
}

// WriteIngredients writes the ingredient list, numbered, to w.
func WriteIngredients(w io.Writer, names []string, format OutputFormat) error {
	if format == OutputJSON {
		if names == nil {
			names = []string{}
		}
		return writeJSON(w, map[string]any{"ingredients": names, "total": len(names)})
	}
	if len(names) == 0 {
		_, err := fmt.Fprintln(w, "No ingredients recorded yet.")
		return err
	}
	fmt.Fprintln(w, "All ingredients:")
	for i, n := range names {
		if _, err := fmt.Fprintf(w, "  %d. %s\n", i+1, n); err != nil {
			return err
		}
	}
	return nil
}

// WriteStats writes collection statistics to w.
func WriteStats(w io.Writer, stats *models.Stats, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, stats)
	}
	fmt.Fprintf(w, "Recipes:      %d\n", stats.Recipes)
	fmt.Fprintf(w, "Ingredients:  %d\n", stats.Ingredients)
	fmt.Fprintf(w, "Indexed docs: %d\n", stats.IndexedDocs)
	fmt.Fprintf(w, "Match policy: %s\n", stats.MatchPolicy)
	if stats.StoreKind != "" {
		fmt.Fprintf(w, "Store:        %s\n", stats.StoreKind)
	}
	fmt.Fprintln(w, "By difficulty:")
	for _, d := range recipe.Difficulties {
		n := stats.ByDifficulty[d]
		if _, err := fmt.Fprintf(w, "  %-12s %4d  (%.1f%%)\n", d, n, utils.Percent(n, stats.Recipes)); err != nil {
			return err
		}
	}
	return nil
}
