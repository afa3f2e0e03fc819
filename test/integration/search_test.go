// Package integration provides end-to-end tests (requires real storage and indices).
package integration

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/recipebox/internal/config"
	"github.com/hyperjump/recipebox/internal/indexer"
	"github.com/hyperjump/recipebox/internal/keyword"
	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
	"github.com/hyperjump/recipebox/internal/search"
	"github.com/hyperjump/recipebox/internal/storage"
)

func TestIntegration_Search(t *testing.T) {
	for _, kind := range []string{config.StoreSQLite, config.StoreFile} {
		t.Run(kind, func(t *testing.T) {
			dir := t.TempDir()
			cfg := &config.Config{
				Storage: config.StorageConfig{
					Kind:           kind,
					DatabasePath:   filepath.Join(dir, "db.sqlite"),
					FilePath:       filepath.Join(dir, "recipes.yaml"),
					BleveIndexPath: filepath.Join(dir, "bleve"),
				},
			}
			config.ApplyDefaults(cfg)

			var store storage.RecipeStore
			var err error
			if kind == config.StoreSQLite {
				store, err = storage.NewSQLiteStorage(cfg.Storage.DatabasePath)
			} else {
				store, err = storage.NewFileStorage(cfg.Storage.FilePath)
			}
			if err != nil {
				t.Fatal(err)
			}
			defer store.Close()

			kwIndex, err := keyword.NewBleveIndex(cfg.Storage.BleveIndexPath)
			if err != nil {
				t.Fatal(err)
			}
			defer kwIndex.Close()

			idx := indexer.NewIndexer(store, kwIndex, recipe.NewLedger(recipe.Retain))
			engine, err := search.NewEngine(store, kwIndex, idx.Ledger(), &cfg.Search, search.WithStoreKind(kind))
			if err != nil {
				t.Fatal(err)
			}
			ctx := context.Background()

			for _, in := range []*models.RecipeInput{
				{Name: "Tea", CookingTime: 5, IngredientsText: "Tea Leaves, Sugar, Water"},
				{Name: "Sponge Cake", CookingTime: 50, IngredientsText: "Sugar, Butter, Eggs, Vanilla Essence, Flour, Baking Powder, Milk",
					Description: "A soft sponge for birthdays."},
			} {
				r, err := in.ToRecipe()
				if err != nil {
					t.Fatal(err)
				}
				if err := idx.CreateRecipe(ctx, r); err != nil {
					t.Fatal(err)
				}
			}

			resp, err := engine.Search(ctx, &models.SearchQuery{Ingredient: "Sugar"})
			if err != nil {
				t.Fatal(err)
			}
			if resp.Total != 2 {
				t.Errorf("Sugar: expected 2 results, got %d", resp.Total)
			}

			// Name words match in any order; descriptions and ingredients do not count.
			resp, err = engine.Search(ctx, &models.SearchQuery{Name: "cake sponge"})
			if err != nil {
				t.Fatal(err)
			}
			if resp.Total != 1 || resp.Recipes[0].Name != "Sponge Cake" {
				t.Errorf("name word search: got %d results", resp.Total)
			}
			for _, text := range []string{"birthdays", "sugar", "sponge tea"} {
				resp, err = engine.Search(ctx, &models.SearchQuery{Name: text})
				if err != nil {
					t.Fatal(err)
				}
				if resp.Total != 0 {
					t.Errorf("name %q: expected no results, got %d", text, resp.Total)
				}
			}

			resp, err = engine.Search(ctx, &models.SearchQuery{Difficulty: "hard"})
			if err != nil {
				t.Fatal(err)
			}
			if resp.Total != 1 || resp.Recipes[0].Difficulty() != recipe.Hard {
				t.Errorf("difficulty filter: got %d results", resp.Total)
			}

			// A rebuild restores the same ingredient list from the store.
			if err := idx.Rebuild(ctx); err != nil {
				t.Fatal(err)
			}
			if got := len(engine.Ingredients()); got != 9 {
				t.Errorf("expected 9 ingredients after rebuild, got %d", got)
			}
		})
	}
}
