package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
)

func newSQLite(t *testing.T) *SQLiteStorage {
	t.Helper()
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "data", "recipes.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func mustBuild(t *testing.T, name string, minutes int, ingredients ...string) *recipe.Recipe {
	t.Helper()
	r, err := recipe.Build(name, minutes, ingredients)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestSQLiteStorage_CRUD(t *testing.T) {
	store := newSQLite(t)
	ctx := context.Background()

	tea := mustBuild(t, "Tea", 5, "Tea Leaves", "Sugar", "Water")
	tea.Author = "alice"
	if err := store.CreateRecipe(ctx, tea); err != nil {
		t.Fatal(err)
	}
	if tea.ID == 0 || tea.CreatedAt.IsZero() {
		t.Fatalf("CreateRecipe should assign ID and timestamps, got %+v", tea)
	}

	got, err := store.GetRecipe(ctx, tea.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Tea" || got.Difficulty() != recipe.Easy || got.Author != "alice" {
		t.Errorf("got %s %s %s", got.Name, got.Difficulty(), got.Author)
	}
	if ings := got.Ingredients(); len(ings) != 3 || ings[0] != "Tea Leaves" {
		t.Errorf("ingredients = %v", ings)
	}

	got.AddIngredients("Milk")
	if err := got.SetCookingTime(12); err != nil {
		t.Fatal(err)
	}
	if err := store.UpdateRecipe(ctx, got); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetRecipe(ctx, tea.ID)
	if got.Difficulty() != recipe.Hard || got.IngredientCount() != 4 {
		t.Errorf("after update: %s with %d ingredients", got.Difficulty(), got.IngredientCount())
	}

	n, err := store.CountRecipes(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountRecipes = %d, %v", n, err)
	}

	if err := store.DeleteRecipe(ctx, tea.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetRecipe(ctx, tea.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteRecipe(ctx, tea.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
	missing := mustBuild(t, "Ghost", 1, "Air")
	missing.ID = 999
	if err := store.UpdateRecipe(ctx, missing); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on update, got %v", err)
	}
}

func TestSQLiteStorage_RoundTripKeepsIngredientsAndDifficulty(t *testing.T) {
	store := newSQLite(t)
	ctx := context.Background()

	salad := recipe.New("Salad")
	salad.AddIngredients("Salt, pepper", "Oil", "Lettuce")
	if err := salad.SetCookingTime(5); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateRecipe(ctx, salad); !errors.Is(err, recipe.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for an ingredient with a comma, got %v", err)
	}
	if n, _ := store.CountRecipes(ctx); n != 0 {
		t.Fatalf("rejected recipe was stored: %d recipes", n)
	}

	salad.SetIngredients([]string{"Salt & pepper", "Olive oil (extra virgin)", "Lettuce"})
	if err := store.CreateRecipe(ctx, salad); err != nil {
		t.Fatal(err)
	}
	got, err := store.GetRecipe(ctx, salad.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.IngredientCount() != salad.IngredientCount() || got.Difficulty() != salad.Difficulty() {
		t.Errorf("round trip: %v %s, want %v %s", got.Ingredients(), got.Difficulty(), salad.Ingredients(), salad.Difficulty())
	}
	for i, ing := range salad.Ingredients() {
		if got.Ingredients()[i] != ing {
			t.Errorf("ingredient %d = %q, want %q", i, got.Ingredients()[i], ing)
		}
	}

	got.AddIngredients("Vinegar, balsamic")
	if err := store.UpdateRecipe(ctx, got); !errors.Is(err, recipe.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput on update, got %v", err)
	}
}

func TestSQLiteStorage_ListRecipesPaging(t *testing.T) {
	store := newSQLite(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		if err := store.CreateRecipe(ctx, mustBuild(t, name, 5, "Water")); err != nil {
			t.Fatal(err)
		}
	}
	all, err := store.ListRecipes(ctx, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 || all[0].Name != "A" || all[2].Name != "C" {
		t.Errorf("ListRecipes(0,0) = %d recipes", len(all))
	}
	page, _ := store.ListRecipes(ctx, 1, 1)
	if len(page) != 1 || page[0].Name != "B" {
		t.Errorf("page = %v", page)
	}
}

func TestSQLiteStorage_SourceIsUnique(t *testing.T) {
	store := newSQLite(t)
	ctx := context.Background()

	a := mustBuild(t, "A", 5, "Water")
	a.Source = "file:abc"
	if err := store.CreateRecipe(ctx, a); err != nil {
		t.Fatal(err)
	}
	b := mustBuild(t, "B", 5, "Water")
	b.Source = "file:abc"
	if err := store.CreateRecipe(ctx, b); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	// Recipes without a source never collide.
	for i := 0; i < 2; i++ {
		if err := store.CreateRecipe(ctx, mustBuild(t, "Manual", 5, "Water")); err != nil {
			t.Fatal(err)
		}
	}
	got, err := store.GetRecipeBySource(ctx, "file:abc")
	if err != nil || got.Name != "A" {
		t.Errorf("GetRecipeBySource = %v, %v", got, err)
	}
	if _, err := store.GetRecipeBySource(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("empty source should not match, got %v", err)
	}
}

func TestSQLiteStorage_SearchByIngredientsAgreesWithSubstringPolicy(t *testing.T) {
	store := newSQLite(t)
	ctx := context.Background()
	recipes := []*recipe.Recipe{
		mustBuild(t, "Tea", 5, "Tea Leaves", "Sugar", "Water"),
		mustBuild(t, "Cake", 50, "Sugar", "Butter", "Eggs", "Vanilla Essence", "Flour", "Baking Powder", "Milk"),
		mustBuild(t, "Lemonade", 5, "Lemon", "Brown sugar", "Water"),
		mustBuild(t, "Pct", 5, "100% Cocoa"),
		mustBuild(t, "Apfelstrudel", 60, "Äpfel", "Zucker", "Teig"),
		mustBuild(t, "Crème Brûlée", 45, "Crème fraîche", "Eier", "Zucker"),
	}
	for _, r := range recipes {
		if err := store.CreateRecipe(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	queries := [][]string{
		{"sugar"},
		{"WATER"},
		{"butter", "lemon"},
		{"ar, B"},
		{"%"},
		{"_"},
		{"nothing"},
		{"äpfel"},
		{"ÄPFEL"},
		{"pfel"},
		{"CRÈME"},
		{"FRAÎCHE", "lemon"},
		{"zucker"},
	}
	for _, terms := range queries {
		got, err := store.SearchByIngredients(ctx, terms)
		if err != nil {
			t.Fatal(err)
		}
		want := recipe.FindByAnyIngredient(recipes, terms, recipe.MatchSubstringFold)
		if len(got) != len(want) {
			t.Errorf("terms %v: got %d recipes, want %d", terms, len(got), len(want))
			continue
		}
		for i := range got {
			if got[i].ID != want[i].ID {
				t.Errorf("terms %v: position %d got %s, want %s", terms, i, got[i].Name, want[i].Name)
			}
		}
	}

	empty, err := store.SearchByIngredients(ctx, nil)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("no terms: got %v, %v", empty, err)
	}
}

func TestSQLiteStorage_Ledger(t *testing.T) {
	store := newSQLite(t)
	ctx := context.Background()

	names, err := store.LoadLedger(ctx)
	if err != nil || len(names) != 0 {
		t.Fatalf("empty ledger = %v, %v", names, err)
	}
	want := []string{"Tea Leaves", "Sugar", "Water", "Butter"}
	if err := store.SaveLedger(ctx, want); err != nil {
		t.Fatal(err)
	}
	names, _ = store.LoadLedger(ctx)
	if len(names) != 4 || names[0] != "Tea Leaves" || names[3] != "Butter" {
		t.Errorf("ledger order = %v", names)
	}
	if err := store.SaveLedger(ctx, []string{"Salt"}); err != nil {
		t.Fatal(err)
	}
	names, _ = store.LoadLedger(ctx)
	if len(names) != 1 || names[0] != "Salt" {
		t.Errorf("ledger after replace = %v", names)
	}
}

func TestSQLiteStorage_Accounts(t *testing.T) {
	store := newSQLite(t)
	ctx := context.Background()

	u := &models.User{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	if err := store.CreateUser(ctx, u); err != nil {
		t.Fatal(err)
	}
	if err := store.CreateUser(ctx, &models.User{Username: "alice", Email: "x@example.com", PasswordHash: "h"}); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
	got, err := store.GetUser(ctx, "alice")
	if err != nil || got.PasswordHash != "hash" {
		t.Fatalf("GetUser = %+v, %v", got, err)
	}

	sess := &models.Session{Token: "tok", Username: "alice", ExpiresAt: time.Now().Add(time.Hour)}
	if err := store.CreateSession(ctx, sess); err != nil {
		t.Fatal(err)
	}
	gotSess, err := store.GetSession(ctx, "tok")
	if err != nil || gotSess.Username != "alice" {
		t.Fatalf("GetSession = %+v, %v", gotSess, err)
	}

	own := mustBuild(t, "Own", 5, "Water")
	own.Author = "alice"
	other := mustBuild(t, "Other", 5, "Water")
	other.Author = "bob"
	for _, r := range []*recipe.Recipe{own, other} {
		if err := store.CreateRecipe(ctx, r); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.AddFavorite(ctx, "alice", other.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.AddFavorite(ctx, "alice", other.ID); err != nil {
		t.Errorf("adding a favorite twice should be a no-op, got %v", err)
	}
	if err := store.AddFavorite(ctx, "alice", 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("favorite of missing recipe: got %v", err)
	}
	favs, _ := store.ListFavorites(ctx, "alice")
	if len(favs) != 1 || favs[0].Name != "Other" {
		t.Errorf("favorites = %v", favs)
	}

	removed, err := store.DeleteUser(ctx, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if len(removed) != 1 || removed[0] != own.ID {
		t.Errorf("removed recipes = %v, want [%d]", removed, own.ID)
	}
	if _, err := store.GetSession(ctx, "tok"); !errors.Is(err, ErrNotFound) {
		t.Errorf("session should cascade, got %v", err)
	}
	favs, _ = store.ListFavorites(ctx, "alice")
	if len(favs) != 0 {
		t.Errorf("favorites should cascade, got %v", favs)
	}
	if _, err := store.GetRecipe(ctx, other.ID); err != nil {
		t.Errorf("other user's recipe should survive: %v", err)
	}
	if _, err := store.DeleteUser(ctx, "alice"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteUser: got %v", err)
	}
}

func TestSQLiteStorage_DeleteRecipeRemovesFavorites(t *testing.T) {
	store := newSQLite(t)
	ctx := context.Background()
	if err := store.CreateUser(ctx, &models.User{Username: "bob", Email: "bob@example.com", PasswordHash: "h"}); err != nil {
		t.Fatal(err)
	}
	r := mustBuild(t, "Tea", 5, "Water")
	if err := store.CreateRecipe(ctx, r); err != nil {
		t.Fatal(err)
	}
	if err := store.AddFavorite(ctx, "bob", r.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.DeleteRecipe(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	if err := store.RemoveFavorite(ctx, "bob", r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("favorite should be gone with its recipe, got %v", err)
	}
}
