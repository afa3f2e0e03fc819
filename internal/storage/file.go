package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/recipebox/internal/recipe"
)

var _ RecipeStore = (*FileStorage)(nil)

// FileStorage keeps every recipe and the ingredient ledger in one YAML
// document. The whole document is held in memory and rewritten on each change.
type FileStorage struct {
	path string

	mu      sync.RWMutex
	recipes []*recipe.Recipe
	ledger  []string
	nextID  int64
}

type fileDocument struct {
	NextID         int64        `yaml:"next_id"`
	Recipes        []fileRecipe `yaml:"recipes"`
	AllIngredients []string     `yaml:"all_ingredients"`
}

type fileRecipe struct {
	ID          int64     `yaml:"id"`
	Name        string    `yaml:"name"`
	CookingTime int       `yaml:"cooking_time"`
	Ingredients []string  `yaml:"ingredients"`
	Difficulty  string    `yaml:"difficulty,omitempty"`
	Description string    `yaml:"description,omitempty"`
	Author      string    `yaml:"author,omitempty"`
	Source      string    `yaml:"source,omitempty"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

// NewFileStorage opens the YAML store at path. A missing file is an empty store.
func NewFileStorage(path string) (*FileStorage, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}
	s := &FileStorage{path: path, nextID: 1}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read store: %w", err)
	}
	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse store %s: %w", path, err)
	}
	for _, fr := range doc.Recipes {
		if fr.ID <= 0 {
			return nil, fmt.Errorf("store %s: recipe %q has invalid id %d", path, fr.Name, fr.ID)
		}
		r, err := fr.toRecipe()
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", path, err)
		}
		s.recipes = append(s.recipes, r)
		if r.ID >= s.nextID {
			s.nextID = r.ID + 1
		}
	}
	// Lookups binary-search by ID; a hand-edited file may be in any order.
	sort.SliceStable(s.recipes, func(i, j int) bool { return s.recipes[i].ID < s.recipes[j].ID })
	for i := 1; i < len(s.recipes); i++ {
		if s.recipes[i].ID == s.recipes[i-1].ID {
			return nil, fmt.Errorf("store %s: duplicate recipe id %d", path, s.recipes[i].ID)
		}
	}
	if doc.NextID > s.nextID {
		s.nextID = doc.NextID
	}
	s.ledger = doc.AllIngredients
	return s, nil
}

func (fr fileRecipe) toRecipe() (*recipe.Recipe, error) {
	r, err := recipe.Build(fr.Name, fr.CookingTime, fr.Ingredients)
	if err != nil {
		return nil, fmt.Errorf("recipe %d: %w", fr.ID, err)
	}
	r.ID = fr.ID
	r.Description = fr.Description
	r.Author = fr.Author
	r.Source = fr.Source
	r.CreatedAt = fr.CreatedAt
	r.UpdatedAt = fr.UpdatedAt
	return r, nil
}

func toFileRecipe(r *recipe.Recipe) fileRecipe {
	return fileRecipe{
		ID:          r.ID,
		Name:        r.Name,
		CookingTime: r.CookingTime(),
		Ingredients: r.Ingredients(),
		Difficulty:  string(r.Difficulty()),
		Description: r.Description,
		Author:      r.Author,
		Source:      r.Source,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// flush writes the document to a temp file and renames it over the store.
// Callers hold s.mu.
func (s *FileStorage) flush() error {
	doc := fileDocument{
		NextID:         s.nextID,
		Recipes:        make([]fileRecipe, 0, len(s.recipes)),
		AllIngredients: s.ledger,
	}
	for _, r := range s.recipes {
		doc.Recipes = append(doc.Recipes, toFileRecipe(r))
	}
	data, err := yaml.Marshal(&doc)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".recipes-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

func (s *FileStorage) indexOf(id int64) int {
	i := sort.Search(len(s.recipes), func(i int) bool { return s.recipes[i].ID >= id })
	if i < len(s.recipes) && s.recipes[i].ID == id {
		return i
	}
	return -1
}

// CreateRecipe appends a recipe with the next ID.
func (s *FileStorage) CreateRecipe(ctx context.Context, r *recipe.Recipe) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Source != "" {
		for _, existing := range s.recipes {
			if existing.Source == r.Source {
				return fmt.Errorf("recipe source %q: %w", r.Source, ErrAlreadyExists)
			}
		}
	}
	now := time.Now()
	stored := r.Clone()
	stored.ID = s.nextID
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.recipes = append(s.recipes, stored)
	s.nextID++
	if err := s.flush(); err != nil {
		s.recipes = s.recipes[:len(s.recipes)-1]
		s.nextID--
		return fmt.Errorf("failed to write store: %w", err)
	}
	r.ID = stored.ID
	r.CreatedAt = now
	r.UpdatedAt = now
	return nil
}

// GetRecipe returns a copy of the recipe with id.
func (s *FileStorage) GetRecipe(ctx context.Context, id int64) (*recipe.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	return s.recipes[i].Clone(), nil
}

// GetRecipeBySource returns a copy of the recipe imported from source.
func (s *FileStorage) GetRecipeBySource(ctx context.Context, source string) (*recipe.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if source != "" {
		for _, r := range s.recipes {
			if r.Source == source {
				return r.Clone(), nil
			}
		}
	}
	return nil, fmt.Errorf("recipe source %q: %w", source, ErrNotFound)
}

// UpdateRecipe replaces the stored recipe with the same ID.
func (s *FileStorage) UpdateRecipe(ctx context.Context, r *recipe.Recipe) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(r.ID)
	if i < 0 {
		return fmt.Errorf("recipe %d: %w", r.ID, ErrNotFound)
	}
	prev := s.recipes[i]
	r.UpdatedAt = time.Now()
	r.CreatedAt = prev.CreatedAt
	s.recipes[i] = r.Clone()
	if err := s.flush(); err != nil {
		s.recipes[i] = prev
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}

// DeleteRecipe removes the recipe with id.
func (s *FileStorage) DeleteRecipe(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("recipe %d: %w", id, ErrNotFound)
	}
	prev := s.recipes
	s.recipes = append(append([]*recipe.Recipe(nil), prev[:i]...), prev[i+1:]...)
	if err := s.flush(); err != nil {
		s.recipes = prev
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}

// ListRecipes returns copies of recipes in ID order.
func (s *FileStorage) ListRecipes(ctx context.Context, offset, limit int) ([]*recipe.Recipe, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*recipe.Recipe, 0)
	if offset < 0 {
		offset = 0
	}
	for i := offset; i < len(s.recipes); i++ {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, s.recipes[i].Clone())
	}
	return out, nil
}

// CountRecipes returns the number of stored recipes.
func (s *FileStorage) CountRecipes(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.recipes)), nil
}

// LoadLedger returns the persisted all_ingredients list.
func (s *FileStorage) LoadLedger(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.ledger...), nil
}

// SaveLedger replaces the all_ingredients list and writes the store.
func (s *FileStorage) SaveLedger(ctx context.Context, names []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.ledger
	s.ledger = append([]string(nil), names...)
	if err := s.flush(); err != nil {
		s.ledger = prev
		return fmt.Errorf("failed to write store: %w", err)
	}
	return nil
}

// Close is a no-op; every change is already on disk.
func (s *FileStorage) Close() error { return nil }
