// Package tui is the interactive recipe menu: create, view, search by
// ingredient, edit and delete recipes until the user quits. Failed actions
// are reported and the menu comes back.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hyperjump/recipebox/internal/cli"
	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	successStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
	headerStyle   = lipgloss.NewStyle().Faint(true).MarginBottom(1)
	menuItemStyle = lipgloss.NewStyle().PaddingLeft(2)
)

type mode int

const (
	modeMenu mode = iota
	modeForm
	modeResult
)

type menuItem struct {
	label string
	start func(m *Model) tea.Cmd
}

var menu = []menuItem{
	{"Create a new recipe", (*Model).startCreate},
	{"View all recipes", (*Model).startList},
	{"Search for recipes by ingredient", (*Model).startSearch},
	{"Edit a recipe", (*Model).startEdit},
	{"Delete a recipe", (*Model).startDelete},
	{"Quit", nil},
}

// step is one prompt of a form. check validates the trimmed answer.
type step struct {
	prompt      string
	placeholder string
	optional    bool
	check       func(string) error
}

type form struct {
	title  string
	header string
	steps  []step
	values []string
	submit func(values []string) tea.Cmd
}

// resultMsg carries the outcome of a backend call.
type resultMsg struct {
	title string
	body  string
	err   error
}

// Model is the bubbletea model for the recipe menu.
type Model struct {
	backend Backend
	ctx     context.Context

	mode   mode
	cursor int
	form   *form
	input  textinput.Model
	notice string // validation error for the current step
	result resultMsg
}

// New returns a menu model over backend.
func New(ctx context.Context, backend Backend) *Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 255
	return &Model{backend: backend, ctx: ctx, input: ti}
}

// Run starts the menu on the terminal and blocks until the user quits.
func Run(ctx context.Context, backend Backend) error {
	_, err := tea.NewProgram(New(ctx, backend), tea.WithContext(ctx)).Run()
	return err
}

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		m.mode = modeResult
		m.result = msg
		m.form = nil
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		switch m.mode {
		case modeMenu:
			return m, m.updateMenu(msg)
		case modeForm:
			return m, m.updateForm(msg)
		case modeResult:
			m.mode = modeMenu
			return m, nil
		}
	}
	return m, nil
}

func (m *Model) updateMenu(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(menu)-1 {
			m.cursor++
		}
	case "q", "esc":
		return tea.Quit
	case "enter", " ":
		return m.choose(m.cursor)
	default:
		if n, err := strconv.Atoi(msg.String()); err == nil && n >= 1 && n <= len(menu) {
			m.cursor = n - 1
			return m.choose(m.cursor)
		}
	}
	return nil
}

func (m *Model) choose(i int) tea.Cmd {
	item := menu[i]
	if item.start == nil {
		return tea.Quit
	}
	return item.start(m)
}

func (m *Model) openForm(f *form) tea.Cmd {
	m.form = f
	m.mode = modeForm
	m.notice = ""
	m.prepareStep()
	m.input.Focus()
	return textinput.Blink
}

func (m *Model) prepareStep() {
	s := m.form.steps[len(m.form.values)]
	m.input.Reset()
	m.input.Placeholder = s.placeholder
}

func (m *Model) updateForm(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.form = nil
		m.mode = modeMenu
		m.input.Blur()
		return nil
	case tea.KeyEnter:
		s := m.form.steps[len(m.form.values)]
		value := strings.TrimSpace(m.input.Value())
		if value == "" && !s.optional {
			m.notice = "A value is required."
			return nil
		}
		if s.check != nil && value != "" {
			if err := s.check(value); err != nil {
				m.notice = err.Error()
				return nil
			}
		}
		m.notice = ""
		m.form.values = append(m.form.values, value)
		if len(m.form.values) < len(m.form.steps) {
			m.prepareStep()
			return nil
		}
		m.input.Blur()
		return m.form.submit(m.form.values)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func checkPositiveInt(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("%q is not a positive whole number", s)
	}
	return nil
}

func checkName(s string) error {
	return recipe.ValidateName(s)
}

func (m *Model) startCreate() tea.Cmd {
	return m.openForm(&form{
		title: "Create a new recipe",
		steps: []step{
			{prompt: "Recipe name", placeholder: "Tea", check: checkName},
			{prompt: "Cooking time (minutes)", placeholder: "5", check: checkPositiveInt},
			{prompt: "Ingredients, separated by commas", placeholder: "Tea Leaves, Sugar, Water"},
			{prompt: "Description (optional)", optional: true},
		},
		submit: func(v []string) tea.Cmd {
			minutes, _ := strconv.Atoi(v[1])
			in := &models.RecipeInput{Name: v[0], CookingTime: minutes, IngredientsText: v[2], Description: v[3]}
			return func() tea.Msg {
				r, err := m.backend.Create(m.ctx, in)
				if err != nil {
					return resultMsg{title: "Create a new recipe", err: err}
				}
				return resultMsg{
					title: "Create a new recipe",
					body:  fmt.Sprintf("Recipe %q added with difficulty %s.\n\n%s", r.Name, r.Difficulty(), render([]*recipe.Recipe{r})),
				}
			}
		},
	})
}

func (m *Model) startList() tea.Cmd {
	return func() tea.Msg {
		recipes, err := m.backend.List(m.ctx)
		if err != nil {
			return resultMsg{title: "All recipes", err: err}
		}
		return resultMsg{title: "All recipes", body: render(recipes)}
	}
}

func (m *Model) startSearch() tea.Cmd {
	names := m.backend.Ingredients()
	if len(names) == 0 {
		return func() tea.Msg {
			return resultMsg{title: "Search by ingredient", body: "There are no ingredients yet. Create a recipe first."}
		}
	}
	var header strings.Builder
	header.WriteString("Available ingredients:\n")
	for i, n := range names {
		fmt.Fprintf(&header, "  %d. %s\n", i+1, n)
	}
	return m.openForm(&form{
		title:  "Search for recipes by ingredient",
		header: header.String(),
		steps: []step{{
			prompt:      "Ingredient name or number",
			placeholder: "1",
			check: func(s string) error {
				if n, err := strconv.Atoi(s); err == nil && (n < 1 || n > len(names)) {
					return fmt.Errorf("pick a number between 1 and %d", len(names))
				}
				return nil
			},
		}},
		submit: func(v []string) tea.Cmd {
			term := v[0]
			if n, err := strconv.Atoi(term); err == nil {
				term = names[n-1]
			}
			title := fmt.Sprintf("Recipes containing %q", term)
			return func() tea.Msg {
				recipes, err := m.backend.FindByIngredient(m.ctx, term)
				if err != nil {
					return resultMsg{title: title, err: err}
				}
				return resultMsg{title: title, body: render(recipes)}
			}
		},
	})
}

func (m *Model) startEdit() tea.Cmd {
	return m.openForm(&form{
		title: "Edit a recipe",
		steps: []step{
			{prompt: "Recipe ID", check: checkPositiveInt},
			{prompt: "Field to change (name, cooking_time, ingredients, description)", placeholder: "cooking_time", check: checkField},
			{prompt: "New value"},
		},
		submit: func(v []string) tea.Cmd {
			id, _ := strconv.ParseInt(v[0], 10, 64)
			patch, err := buildPatch(v[1], v[2])
			return func() tea.Msg {
				if err != nil {
					return resultMsg{title: "Edit a recipe", err: err}
				}
				r, err := m.backend.Update(m.ctx, id, patch)
				if err != nil {
					return resultMsg{title: "Edit a recipe", err: err}
				}
				return resultMsg{
					title: "Edit a recipe",
					body:  fmt.Sprintf("Recipe %d updated.\n\n%s", r.ID, render([]*recipe.Recipe{r})),
				}
			}
		},
	})
}

var editableFields = map[string]string{
	"name":         "name",
	"1":            "name",
	"cooking_time": "cooking_time",
	"cooking time": "cooking_time",
	"2":            "cooking_time",
	"ingredients":  "ingredients",
	"3":            "ingredients",
	"description":  "description",
	"4":            "description",
}

func checkField(s string) error {
	if _, ok := editableFields[strings.ToLower(s)]; !ok {
		return fmt.Errorf("unknown field %q", s)
	}
	return nil
}

func buildPatch(field, value string) (*models.RecipePatch, error) {
	patch := &models.RecipePatch{}
	switch editableFields[strings.ToLower(field)] {
	case "name":
		patch.Name = &value
	case "cooking_time":
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: cooking time %q is not a number", recipe.ErrInvalidInput, value)
		}
		patch.CookingTime = &n
	case "ingredients":
		patch.IngredientsText = &value
	case "description":
		patch.Description = &value
	default:
		return nil, fmt.Errorf("%w: unknown field %q", recipe.ErrInvalidInput, field)
	}
	return patch, nil
}

func (m *Model) startDelete() tea.Cmd {
	return m.openForm(&form{
		title: "Delete a recipe",
		steps: []step{
			{prompt: "Recipe ID", check: checkPositiveInt},
			{prompt: "Are you sure? (y/n)", placeholder: "n", check: func(s string) error {
				switch strings.ToLower(s) {
				case "y", "yes", "n", "no":
					return nil
				}
				return fmt.Errorf("answer y or n")
			}},
		},
		submit: func(v []string) tea.Cmd {
			id, _ := strconv.ParseInt(v[0], 10, 64)
			confirmed := strings.HasPrefix(strings.ToLower(v[1]), "y")
			return func() tea.Msg {
				if !confirmed {
					return resultMsg{title: "Delete a recipe", body: "Nothing deleted."}
				}
				if err := m.backend.Delete(m.ctx, id); err != nil {
					return resultMsg{title: "Delete a recipe", err: err}
				}
				return resultMsg{title: "Delete a recipe", body: fmt.Sprintf("Recipe %d deleted.", id)}
			}
		},
	})
}

func render(recipes []*recipe.Recipe) string {
	var b strings.Builder
	_ = cli.WriteRecipes(&b, recipes, cli.OutputText)
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) View() string {
	var b strings.Builder
	switch m.mode {
	case modeMenu:
		b.WriteString(titleStyle.Render("Recipe box"))
		b.WriteString("\n")
		for i, item := range menu {
			line := fmt.Sprintf("%d. %s", i+1, item.label)
			if i == m.cursor {
				b.WriteString(cursorStyle.Render("> " + line))
			} else {
				b.WriteString(menuItemStyle.Render(line))
			}
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render("\n↑/↓ or number to choose, enter to select, q to quit"))
	case modeForm:
		f := m.form
		b.WriteString(titleStyle.Render(f.title))
		b.WriteString("\n")
		if f.header != "" {
			b.WriteString(headerStyle.Render(f.header))
			b.WriteString("\n")
		}
		s := f.steps[len(f.values)]
		b.WriteString(s.prompt)
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
		if m.notice != "" {
			b.WriteString(errorStyle.Render(m.notice))
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render("\nenter to continue, esc to cancel"))
	case modeResult:
		b.WriteString(titleStyle.Render(m.result.title))
		b.WriteString("\n")
		if m.result.err != nil {
			b.WriteString(errorStyle.Render("Error: " + m.result.err.Error()))
		} else {
			b.WriteString(successStyle.Render(m.result.body))
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("\npress any key to return to the menu"))
	}
	return b.String() + "\n"
}
