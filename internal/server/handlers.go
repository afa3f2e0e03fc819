package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/recipebox/internal/auth"
	"github.com/hyperjump/recipebox/internal/config"
	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
	"github.com/hyperjump/recipebox/internal/report"
	"github.com/hyperjump/recipebox/internal/storage"
)

type recipeList struct {
	Recipes []*recipe.Recipe `json:"recipes"`
	Total   int64            `json:"total"`
	Offset  int              `json:"offset"`
	Limit   int              `json:"limit"`
}

func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", s.engineDefaultLimit())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	recipes, total, err := s.engine.List(r.Context(), offset, limit)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, recipeList{Recipes: recipes, Total: total, Offset: offset, Limit: limit})
}

func (s *Server) engineDefaultLimit() int {
	if s.appConfig != nil && s.appConfig.Search.DefaultLimit > 0 {
		return s.appConfig.Search.DefaultLimit
	}
	return 20
}

func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	rec, err := s.engine.Get(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleCreateRecipe(w http.ResponseWriter, r *http.Request) {
	var input models.RecipeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := input.ToRecipe()
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if u := userFrom(r.Context()); u != nil {
		rec.Author = u.Username
	}
	if err := s.indexer.CreateRecipe(r.Context(), rec); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.logger.Debug("recipe created", zap.Int64("id", rec.ID), zap.String("name", rec.Name))
	s.refreshRecipeGauge(r)
	s.respondJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdateRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	var patch models.RecipePatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.checkOwner(r, id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	rec, err := s.indexer.UpdateRecipe(r.Context(), id, &patch)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.checkOwner(r, id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.indexer.DeleteRecipe(r.Context(), id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.refreshRecipeGauge(r)
	s.respondJSON(w, http.StatusOK, map[string]any{"id": id, "status": "deleted"})
}

// checkOwner returns errForbidden when accounts are enabled and the caller
// may not modify recipe id.
func (s *Server) checkOwner(r *http.Request, id int64) error {
	if s.accounts == nil {
		return nil
	}
	rec, err := s.engine.Get(r.Context(), id)
	if err != nil {
		return err
	}
	if !auth.CanModify(userFrom(r.Context()), rec) {
		return errForbidden
	}
	return nil
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var query models.SearchQuery
	if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	s.logger.Debug("search request",
		zap.String("name", query.Name),
		zap.Strings("ingredients", query.IngredientTerms()),
		zap.Int("limit", query.Limit))
	response, err := s.engine.Search(r.Context(), &query)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleIngredients(w http.ResponseWriter, r *http.Request) {
	names := s.engine.Ingredients()
	s.respondJSON(w, http.StatusOK, map[string]any{"ingredients": names, "total": len(names)})
}

func (s *Server) handleIngredientRecipes(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	recipes, err := s.engine.FindByIngredient(r.Context(), name)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	resp := models.SearchResponse{Recipes: recipes, Total: len(recipes), MatchPolicy: s.engine.MatchPolicy()}
	if len(recipes) == 0 {
		resp.Suggestions = s.engine.Suggest(name)
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	recipes, _, err := s.engine.List(r.Context(), 0, 0)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	f, err := report.Build(recipes)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	defer f.Close()
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="recipes.xlsx"`)
	if _, err := f.WriteTo(w); err != nil {
		s.logger.Warn("report write failed", zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats, err := s.engine.Stats(r.Context())
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	recipesStored.Set(float64(stats.Recipes))
	resp := map[string]any{
		"stats":    stats,
		"accounts": s.accounts != nil,
	}
	if cfg := s.appConfig; cfg != nil {
		paths := []string{cfg.Storage.BleveIndexPath}
		if cfg.Storage.Kind == config.StoreFile {
			paths = append(paths, cfg.Storage.FilePath)
		} else {
			paths = append(paths, cfg.Storage.DatabasePath)
		}
		if n, err := storage.DiskUsageBytes(paths...); err == nil {
			resp["disk_usage_bytes"] = n
		}
		resp["config"] = map[string]any{
			"store_kind":       cfg.Storage.Kind,
			"ingredient_match": cfg.Search.IngredientMatch,
			"prune_on_delete":  cfg.Index.PruneOnDelete,
		}
	}
	if s.watch != nil {
		resp["watch_directories"] = s.watch.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func recipeID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid recipe id %q", recipe.ErrInvalidInput, raw)
	}
	return id, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: invalid %s %q", recipe.ErrInvalidInput, key, raw)
	}
	return n, nil
}
