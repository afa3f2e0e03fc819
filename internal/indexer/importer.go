package indexer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/recipebox/internal/extract"
	"github.com/hyperjump/recipebox/internal/fileid"
	"github.com/hyperjump/recipebox/internal/recipe"
	"github.com/hyperjump/recipebox/internal/storage"
)

// ImportResult counts what an import changed.
type ImportResult struct {
	Created   int `json:"created"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Removed   int `json:"removed"`
}

func (r *ImportResult) add(o ImportResult) {
	r.Created += o.Created
	r.Updated += o.Updated
	r.Unchanged += o.Unchanged
	r.Removed += o.Removed
}

// ImportFile decodes the recipes in the file at path and upserts them keyed by
// their position in the file. Recipes the file no longer contains are deleted.
// If allowedExts is non-empty the extension must be in it. A file with any
// invalid recipe is rejected as a whole.
func (idx *Indexer) ImportFile(ctx context.Context, path string, allowedExts []string) (ImportResult, error) {
	var res ImportResult
	absPath, err := filepath.Abs(path)
	if err != nil {
		return res, fmt.Errorf("absolute path: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(absPath))
	if len(allowedExts) > 0 && !extensionAllowed(ext, allowedExts) {
		return res, fmt.Errorf("extension %q not in allowed list", ext)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return res, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return res, fmt.Errorf("not a regular file: %s", absPath)
	}
	inputs, err := idx.extractor.Extract(absPath)
	if err != nil {
		return res, fmt.Errorf("extract recipes: %w", err)
	}
	decoded := make([]*recipe.Recipe, len(inputs))
	for i := range inputs {
		r, err := inputs[i].ToRecipe()
		if err != nil {
			return res, fmt.Errorf("%s: recipe %d: %w", filepath.Base(absPath), i+1, err)
		}
		prepare(r)
		r.Source = fileid.SourceKey(absPath, i)
		decoded[i] = r
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()
	for _, r := range decoded {
		existing, err := idx.store.GetRecipeBySource(ctx, r.Source)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			if err := idx.create(ctx, r); err != nil {
				return res, err
			}
			res.Created++
		case err != nil:
			return res, err
		case sameContent(existing, r):
			res.Unchanged++
		default:
			r.ID = existing.ID
			r.Author = existing.Author
			r.CreatedAt = existing.CreatedAt
			if err := idx.update(ctx, r); err != nil {
				return res, err
			}
			res.Updated++
		}
	}
	removed, err := idx.removeFileRecipes(ctx, fileid.FileID(absPath), len(decoded))
	if err != nil {
		return res, err
	}
	res.Removed = removed
	idx.logger.Debug("indexer file imported",
		zap.String("path", absPath),
		zap.Int("created", res.Created),
		zap.Int("updated", res.Updated),
		zap.Int("removed", res.Removed))
	return res, nil
}

// ImportDirectory walks dir recursively and imports each regular file whose
// extension is in allowedExts (every supported format when empty). It returns
// the number of files imported, the combined result, and the first error.
func (idx *Indexer) ImportDirectory(ctx context.Context, dir string, allowedExts []string) (int, ImportResult, error) {
	var total ImportResult
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return 0, total, fmt.Errorf("absolute path: %w", err)
	}
	info, err := os.Stat(absDir)
	if err != nil {
		return 0, total, fmt.Errorf("stat directory: %w", err)
	}
	if !info.IsDir() {
		return 0, total, fmt.Errorf("not a directory: %s", absDir)
	}
	if len(allowedExts) == 0 {
		allowedExts = extract.SupportedExtensions
	}
	n := 0
	err = filepath.WalkDir(absDir, func(path string, d os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		if !extensionAllowed(filepath.Ext(path), allowedExts) {
			return nil
		}
		finfo, statErr := os.Stat(path)
		if statErr != nil || !finfo.Mode().IsRegular() {
			return nil
		}
		res, importErr := idx.ImportFile(ctx, path, allowedExts)
		if importErr != nil {
			return importErr
		}
		total.add(res)
		n++
		return nil
	})
	return n, total, err
}

// DeleteBySource deletes every recipe imported from the file at path and
// returns how many were removed.
func (idx *Indexer) DeleteBySource(ctx context.Context, path string) (int, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return 0, fmt.Errorf("absolute path: %w", err)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()
	n, err := idx.removeFileRecipes(ctx, fileid.FileID(absPath), 0)
	if err != nil {
		return n, err
	}
	idx.logger.Debug("indexer source deleted", zap.String("path", absPath), zap.Int("recipes", n))
	return n, nil
}

// removeFileRecipes deletes recipes from file whose position is keep or later.
func (idx *Indexer) removeFileRecipes(ctx context.Context, file string, keep int) (int, error) {
	all, err := idx.store.ListRecipes(ctx, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to list recipes: %w", err)
	}
	var stale []int64
	for _, r := range all {
		f, pos, ok := fileid.Parse(r.Source)
		if ok && f == file && pos >= keep {
			stale = append(stale, r.ID)
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	for _, id := range stale {
		if err := idx.store.DeleteRecipe(ctx, id); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return 0, err
		}
	}
	return len(stale), idx.forget(ctx, stale...)
}

func sameContent(a, b *recipe.Recipe) bool {
	if a.Name != b.Name || a.Description != b.Description || a.CookingTime() != b.CookingTime() {
		return false
	}
	ai, bi := a.Ingredients(), b.Ingredients()
	if len(ai) != len(bi) {
		return false
	}
	for i := range ai {
		if ai[i] != bi[i] {
			return false
		}
	}
	return true
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
