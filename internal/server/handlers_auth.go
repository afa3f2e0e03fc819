package server

import (
	"encoding/json"
	"net/http"

	"github.com/hyperjump/recipebox/internal/models"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	u, err := s.accounts.Register(r.Context(), &reg)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := s.accounts.Login(r.Context(), &creds)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, sess)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.accounts.Logout(r.Context(), tokenFrom(r.Context())); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	u := userFrom(r.Context())
	ids, err := s.accounts.DeleteProfile(r.Context(), u.Username)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.refreshRecipeGauge(r)
	s.respondJSON(w, http.StatusOK, map[string]any{
		"username":        u.Username,
		"status":          "deleted",
		"recipes_deleted": len(ids),
	})
}

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.accounts.Favorites(r.Context(), userFrom(r.Context()).Username)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"recipes": favs, "total": len(favs)})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.accounts.AddFavorite(r.Context(), userFrom(r.Context()).Username, id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"id": id, "status": "favorited"})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, err := recipeID(r)
	if err != nil {
		s.respondErr(w, r, err)
		return
	}
	if err := s.accounts.RemoveFavorite(r.Context(), userFrom(r.Context()).Username, id); err != nil {
		s.respondErr(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]any{"id": id, "status": "removed"})
}
