package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/recipebox/internal/recipe"
)

func TestFileStorage_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "box", "recipes.yaml")
	ctx := context.Background()

	store, err := NewFileStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	tea := mustBuild(t, "Tea", 5, "Tea Leaves", "Sugar", "Water")
	cake := mustBuild(t, "Cake", 50, "Sugar", "Butter", "Eggs", "Vanilla Essence", "Flour", "Baking Powder", "Milk")
	for _, r := range []*recipe.Recipe{tea, cake} {
		if err := store.CreateRecipe(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	if tea.ID != 1 || cake.ID != 2 {
		t.Errorf("ids = %d, %d", tea.ID, cake.ID)
	}
	ledger := []string{"Tea Leaves", "Sugar", "Water", "Butter"}
	if err := store.SaveLedger(ctx, ledger); err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "all_ingredients:") {
		t.Errorf("store file missing all_ingredients:\n%s", data)
	}

	reopened, err := NewFileStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	list, _ := reopened.ListRecipes(ctx, 0, 0)
	if len(list) != 2 || list[1].Difficulty() != recipe.Hard {
		t.Fatalf("reopened recipes = %v", list)
	}
	names, _ := reopened.LoadLedger(ctx)
	if len(names) != 4 || names[3] != "Butter" {
		t.Errorf("reopened ledger = %v", names)
	}

	// IDs are never reused after a delete.
	if err := reopened.DeleteRecipe(ctx, cake.ID); err != nil {
		t.Fatal(err)
	}
	soup := mustBuild(t, "Soup", 30, "Water", "Salt")
	if err := reopened.CreateRecipe(ctx, soup); err != nil {
		t.Fatal(err)
	}
	if soup.ID != 3 {
		t.Errorf("new id = %d, want 3", soup.ID)
	}
}

func TestFileStorage_IgnoresStoredDifficulty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	doc := `next_id: 2
recipes:
  - id: 1
    name: Tea
    cooking_time: 5
    ingredients: [Tea Leaves, Sugar, Water]
    difficulty: Hard
all_ingredients: [Tea Leaves, Sugar, Water]
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := NewFileStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	got, err := store.GetRecipe(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.Difficulty() != recipe.Easy {
		t.Errorf("difficulty = %s, want Easy", got.Difficulty())
	}
}

func TestFileStorage_RejectsInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	doc := "recipes:\n  - id: 1\n    name: Broken\n    cooking_time: 0\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStorage(path); !errors.Is(err, recipe.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFileStorage_LoadsHandEditedOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recipes.yaml")
	doc := `recipes:
  - id: 7
    name: Cake
    cooking_time: 50
    ingredients: [Sugar, Butter, Eggs, Flour]
  - id: 2
    name: Tea
    cooking_time: 5
    ingredients: [Water]
  - id: 4
    name: Lemonade
    cooking_time: 5
    ingredients: [Lemon, Water]
`
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}
	store, err := NewFileStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for id, name := range map[int64]string{2: "Tea", 4: "Lemonade", 7: "Cake"} {
		got, err := store.GetRecipe(ctx, id)
		if err != nil {
			t.Fatalf("GetRecipe(%d): %v", id, err)
		}
		if got.Name != name {
			t.Errorf("GetRecipe(%d) = %s, want %s", id, got.Name, name)
		}
	}
	list, _ := store.ListRecipes(ctx, 0, 0)
	if len(list) != 3 || list[0].ID != 2 || list[2].ID != 7 {
		t.Errorf("ListRecipes should be in id order, got %v", list)
	}
	if err := store.DeleteRecipe(ctx, 2); err != nil {
		t.Errorf("DeleteRecipe(2): %v", err)
	}
	r := mustBuild(t, "Coffee", 5, "Coffee Powder", "Water")
	if err := store.CreateRecipe(ctx, r); err != nil || r.ID != 8 {
		t.Errorf("CreateRecipe: id %d, %v; want 8", r.ID, err)
	}
}

func TestFileStorage_RejectsDuplicateAndInvalidIDs(t *testing.T) {
	for name, doc := range map[string]string{
		"duplicate": "recipes:\n  - {id: 3, name: Tea, cooking_time: 5, ingredients: [Water]}\n  - {id: 3, name: Coffee, cooking_time: 5, ingredients: [Water]}\n",
		"zero":      "recipes:\n  - {id: 0, name: Tea, cooking_time: 5, ingredients: [Water]}\n",
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "recipes.yaml")
			if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := NewFileStorage(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestFileStorage_ReturnsCopies(t *testing.T) {
	store, err := NewFileStorage(filepath.Join(t.TempDir(), "recipes.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	r := mustBuild(t, "Tea", 5, "Water")
	if err := store.CreateRecipe(ctx, r); err != nil {
		t.Fatal(err)
	}
	got, _ := store.GetRecipe(ctx, r.ID)
	got.AddIngredients("Sugar")
	again, _ := store.GetRecipe(ctx, r.ID)
	if again.IngredientCount() != 1 {
		t.Error("mutating a returned recipe must not change the store")
	}

	got.Name = "Sweet Tea"
	if err := store.UpdateRecipe(ctx, got); err != nil {
		t.Fatal(err)
	}
	again, _ = store.GetRecipe(ctx, r.ID)
	if again.Name != "Sweet Tea" || again.IngredientCount() != 2 {
		t.Errorf("after update: %s with %d ingredients", again.Name, again.IngredientCount())
	}
}

func TestFileStorage_SourceAndNotFound(t *testing.T) {
	store, err := NewFileStorage(filepath.Join(t.TempDir(), "recipes.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	a := mustBuild(t, "A", 5, "Water")
	a.Source = "file:1"
	if err := store.CreateRecipe(ctx, a); err != nil {
		t.Fatal(err)
	}
	b := mustBuild(t, "B", 5, "Water")
	b.Source = "file:1"
	if err := store.CreateRecipe(ctx, b); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	if got, err := store.GetRecipeBySource(ctx, "file:1"); err != nil || got.ID != a.ID {
		t.Errorf("GetRecipeBySource = %v, %v", got, err)
	}
	if _, err := store.GetRecipe(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := store.DeleteRecipe(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
