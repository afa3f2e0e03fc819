package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hyperjump/recipebox/internal/auth"
	"github.com/hyperjump/recipebox/internal/config"
	"github.com/hyperjump/recipebox/internal/indexer"
	"github.com/hyperjump/recipebox/internal/keyword"
	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
	"github.com/hyperjump/recipebox/internal/search"
	"github.com/hyperjump/recipebox/internal/storage"
)

type mockWatchService struct {
	dirs []string
}

func (m *mockWatchService) Directories() []string {
	return append([]string(nil), m.dirs...)
}

func (m *mockWatchService) AddDirectory(path string, _ bool) error {
	for _, d := range m.dirs {
		if d == path {
			return nil
		}
	}
	m.dirs = append(m.dirs, path)
	return nil
}

func (m *mockWatchService) RemoveDirectory(path string) error {
	for i, d := range m.dirs {
		if d == path {
			m.dirs = append(m.dirs[:i], m.dirs[i+1:]...)
			return nil
		}
	}
	return nil
}

type testEnv struct {
	srv     *Server
	handler http.Handler
	indexer *indexer.Indexer
}

func newTestEnv(t *testing.T, accounts bool, opts ...Option) *testEnv {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "recipes.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	kw, err := keyword.NewBleveIndex(filepath.Join(dir, "bleve"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kw.Close() })
	ledger := recipe.NewLedger(recipe.Retain)
	idx := indexer.NewIndexer(store, kw, ledger)
	engine, err := search.NewEngine(store, kw, ledger, &config.SearchConfig{
		DefaultLimit: 20, MaxLimit: 200, IngredientMatch: "substring", SuggestDistance: 2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if accounts {
		svc := auth.NewService(store, idx, &config.AuthConfig{SessionTTL: time.Hour, BcryptCost: bcrypt.MinCost})
		opts = append([]Option{WithAccounts(svc)}, opts...)
	}
	srv := NewServer(engine, idx, &config.ServerConfig{Host: "localhost", Port: 8080}, opts...)
	return &testEnv{srv: srv, handler: srv.Handler(), indexer: idx}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

// login registers username and returns a session token.
func (e *testEnv) login(t *testing.T, username string) string {
	t.Helper()
	reg := models.Registration{Username: username, Email: username + "@example.com", Password: "Secret123", PasswordConfirm: "Secret123"}
	if w := e.do(t, http.MethodPost, "/api/v1/auth/register", "", reg); w.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", w.Code, w.Body.String())
	}
	w := e.do(t, http.MethodPost, "/api/v1/auth/login", "", models.Credentials{Username: username, Password: "Secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: %d %s", w.Code, w.Body.String())
	}
	var sess models.Session
	if err := json.NewDecoder(w.Body).Decode(&sess); err != nil {
		t.Fatal(err)
	}
	return sess.Token
}

func decodeRecipe(t *testing.T, w *httptest.ResponseRecorder) *recipe.Recipe {
	t.Helper()
	var r recipe.Recipe
	if err := json.NewDecoder(w.Body).Decode(&r); err != nil {
		t.Fatal(err)
	}
	return &r
}

func TestHandleHealth(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status: got %d", w.Code)
	}
	if w.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
}

func TestMiddleware_RequestIDAndCompression(t *testing.T) {
	env := newTestEnv(t, false)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "req-42")
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-Id"); got != "req-42" {
		t.Errorf("X-Request-Id = %q, want the client's id", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/ingredients", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d", w.Code)
	}
	if got := w.Header().Get("Content-Encoding"); got != "gzip" {
		t.Errorf("Content-Encoding = %q, want gzip", got)
	}
}

func TestRecipeLifecycle_WithAccounts(t *testing.T) {
	env := newTestEnv(t, true)
	tea := models.RecipeInput{Name: "Tea", CookingTime: 5, IngredientsText: "Tea Leaves, Sugar, Water"}

	if w := env.do(t, http.MethodPost, "/api/v1/recipes", "", tea); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: got %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/v1/recipes", "bogus", tea); w.Code != http.StatusUnauthorized {
		t.Fatalf("unknown token: got %d", w.Code)
	}

	alice := env.login(t, "alice")
	w := env.do(t, http.MethodPost, "/api/v1/recipes", alice, tea)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", w.Code, w.Body.String())
	}
	created := decodeRecipe(t, w)
	if created.Difficulty() != recipe.Easy || created.Author != "alice" {
		t.Errorf("created: difficulty %s author %q", created.Difficulty(), created.Author)
	}
	path := fmt.Sprintf("/api/v1/recipes/%d", created.ID)

	if w := env.do(t, http.MethodGet, path, "", nil); w.Code != http.StatusOK {
		t.Errorf("get: got %d", w.Code)
	}

	bob := env.login(t, "bob")
	minutes := 20
	if w := env.do(t, http.MethodPatch, path, bob, models.RecipePatch{CookingTime: &minutes}); w.Code != http.StatusForbidden {
		t.Errorf("patch by other user: got %d", w.Code)
	}
	w = env.do(t, http.MethodPatch, path, alice, models.RecipePatch{CookingTime: &minutes})
	if w.Code != http.StatusOK {
		t.Fatalf("patch: %d %s", w.Code, w.Body.String())
	}
	if got := decodeRecipe(t, w).Difficulty(); got != recipe.Intermediate {
		t.Errorf("difficulty after patch = %s, want Intermediate", got)
	}

	if w := env.do(t, http.MethodDelete, path, bob, nil); w.Code != http.StatusForbidden {
		t.Errorf("delete by other user: got %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, path, alice, nil); w.Code != http.StatusOK {
		t.Errorf("delete: got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, path, "", nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete: got %d", w.Code)
	}
}

func TestCreateRecipe_Invalid(t *testing.T) {
	env := newTestEnv(t, false)
	tests := []struct {
		name string
		body any
	}{
		{"zero time", models.RecipeInput{Name: "Tea", CookingTime: 0, IngredientsText: "Water"}},
		{"no name", models.RecipeInput{CookingTime: 5, IngredientsText: "Water"}},
		{"no ingredients", models.RecipeInput{Name: "Air", CookingTime: 5}},
		{"not json", "not an object"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/v1/recipes", "", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("got %d: %s", w.Code, w.Body.String())
			}
			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil || body["error"] == "" {
				t.Errorf("expected JSON error body, got %v", err)
			}
		})
	}
}

func TestNoAccounts_OpenWritesAndNoAuthRoutes(t *testing.T) {
	env := newTestEnv(t, false)
	w := env.do(t, http.MethodPost, "/api/v1/recipes", "", models.RecipeInput{Name: "Tea", CookingTime: 5, Ingredients: []string{"Water"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("anonymous create: %d %s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", models.Credentials{}); w.Code != http.StatusNotFound {
		t.Errorf("login route without accounts: got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/favorites", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("favorites route without accounts: got %d", w.Code)
	}
}

func seedRecipes(t *testing.T, env *testEnv) {
	t.Helper()
	for _, in := range []models.RecipeInput{
		{Name: "Tea", CookingTime: 5, IngredientsText: "Tea Leaves, Sugar, Water"},
		{Name: "Cake", CookingTime: 50, IngredientsText: "Sugar, Butter, Eggs, Vanilla Essence, Flour, Baking Powder, Milk"},
	} {
		r, err := in.ToRecipe()
		if err != nil {
			t.Fatal(err)
		}
		if err := env.indexer.CreateRecipe(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
}

func TestHandleSearch(t *testing.T) {
	env := newTestEnv(t, false)
	seedRecipes(t, env)

	w := env.do(t, http.MethodPost, "/api/v1/search", "", models.SearchQuery{Ingredient: "sugar"})
	if w.Code != http.StatusOK {
		t.Fatalf("search: %d %s", w.Code, w.Body.String())
	}
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 2 {
		t.Errorf("sugar: total = %d, want 2", resp.Total)
	}

	w = env.do(t, http.MethodPost, "/api/v1/search", "", models.SearchQuery{Ingredient: "Buter"})
	resp = models.SearchResponse{}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 0 || len(resp.Suggestions) == 0 || resp.Suggestions[0] != "Butter" {
		t.Errorf("misspelled: total %d suggestions %v", resp.Total, resp.Suggestions)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/search", "", models.SearchQuery{Difficulty: "impossible"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad difficulty: got %d", w.Code)
	}
}

func TestHandleIngredients(t *testing.T) {
	env := newTestEnv(t, false)
	seedRecipes(t, env)

	w := env.do(t, http.MethodGet, "/api/v1/ingredients", "", nil)
	var out struct {
		Ingredients []string `json:"ingredients"`
		Total       int      `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 9 || out.Ingredients[0] != "Baking Powder" {
		t.Errorf("ingredients: %d %v", out.Total, out.Ingredients)
	}

	w = env.do(t, http.MethodGet, "/api/v1/ingredients/Water/recipes", "", nil)
	var resp models.SearchResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Total != 1 || resp.Recipes[0].Name != "Tea" {
		t.Errorf("Water recipes: %+v", resp)
	}
}

func TestHandleListRecipes_Paging(t *testing.T) {
	env := newTestEnv(t, false)
	seedRecipes(t, env)

	w := env.do(t, http.MethodGet, "/api/v1/recipes?offset=1&limit=1", "", nil)
	var list struct {
		Recipes []*recipe.Recipe `json:"recipes"`
		Total   int64            `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&list); err != nil {
		t.Fatal(err)
	}
	if list.Total != 2 || len(list.Recipes) != 1 || list.Recipes[0].Name != "Cake" {
		t.Errorf("page: total %d recipes %d", list.Total, len(list.Recipes))
	}
	if w := env.do(t, http.MethodGet, "/api/v1/recipes?limit=x", "", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit: got %d", w.Code)
	}
}

func TestFavorites(t *testing.T) {
	env := newTestEnv(t, true)
	seedRecipes(t, env)
	token := env.login(t, "alice")

	if w := env.do(t, http.MethodPut, "/api/v1/favorites/2", token, nil); w.Code != http.StatusOK {
		t.Fatalf("add favorite: %d %s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodPut, "/api/v1/favorites/99", token, nil); w.Code != http.StatusNotFound {
		t.Errorf("favorite of missing recipe: got %d", w.Code)
	}
	w := env.do(t, http.MethodGet, "/api/v1/favorites", token, nil)
	var out struct {
		Recipes []*recipe.Recipe `json:"recipes"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Recipes) != 1 || out.Recipes[0].Name != "Cake" {
		t.Errorf("favorites: %v", out.Recipes)
	}
	if w := env.do(t, http.MethodDelete, "/api/v1/favorites/2", token, nil); w.Code != http.StatusOK {
		t.Errorf("remove favorite: got %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/v1/favorites/2", token, nil); w.Code != http.StatusNotFound {
		t.Errorf("remove twice: got %d", w.Code)
	}
}

func TestLogoutAndDeleteProfile(t *testing.T) {
	env := newTestEnv(t, true)
	token := env.login(t, "alice")
	w := env.do(t, http.MethodPost, "/api/v1/recipes", token, models.RecipeInput{Name: "Tea", CookingTime: 5, Ingredients: []string{"Water"}})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: %d", w.Code)
	}

	if w := env.do(t, http.MethodDelete, "/api/v1/auth/profile", token, nil); w.Code != http.StatusOK {
		t.Fatalf("delete profile: %d %s", w.Code, w.Body.String())
	}
	if w := env.do(t, http.MethodGet, "/api/v1/recipes/1", "", nil); w.Code != http.StatusNotFound {
		t.Errorf("authored recipe survived profile deletion: %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/status", token, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("session survived profile deletion: %d", w.Code)
	}

	other := env.login(t, "bob")
	if w := env.do(t, http.MethodPost, "/api/v1/auth/logout", other, nil); w.Code != http.StatusOK {
		t.Errorf("logout: got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/api/v1/favorites", other, nil); w.Code != http.StatusUnauthorized {
		t.Errorf("after logout: got %d", w.Code)
	}
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t, true)
	reg := models.Registration{Username: "alice", Email: "alice@example.com", Password: "weak", PasswordConfirm: "weak"}
	if w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", reg); w.Code != http.StatusBadRequest {
		t.Errorf("weak password: got %d", w.Code)
	}
	env.login(t, "alice")
	reg.Password, reg.PasswordConfirm = "Secret123", "Secret123"
	if w := env.do(t, http.MethodPost, "/api/v1/auth/register", "", reg); w.Code != http.StatusConflict {
		t.Errorf("duplicate username: got %d", w.Code)
	}
	bad := models.Credentials{Username: "alice", Password: "Wrong1234"}
	if w := env.do(t, http.MethodPost, "/api/v1/auth/login", "", bad); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: got %d", w.Code)
	}
}

func TestHandleReport(t *testing.T) {
	env := newTestEnv(t, false)
	seedRecipes(t, env)
	w := env.do(t, http.MethodGet, "/api/v1/reports/recipes.xlsx", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("report: got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("content type %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("PK")) {
		t.Error("report is not a zip archive")
	}
}

func TestHandleStatusAndMetrics(t *testing.T) {
	env := newTestEnv(t, false, WithAppConfig(&config.Config{}))
	seedRecipes(t, env)
	w := env.do(t, http.MethodGet, "/api/v1/status", "", nil)
	var out struct {
		Stats models.Stats `json:"stats"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Stats.Recipes != 2 || out.Stats.ByDifficulty[recipe.Hard] != 1 {
		t.Errorf("stats: %+v", out.Stats)
	}

	w = env.do(t, http.MethodGet, "/metrics", "", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "recipebox_http_requests_total") {
		t.Errorf("metrics: %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, false)
	env.srv = NewServer(env.srv.engine, env.indexer, &config.ServerConfig{RateLimit: 1, RateLimitBurst: 1})
	env.handler = env.srv.Handler()
	if w := env.do(t, http.MethodGet, "/health", "", nil); w.Code != http.StatusOK {
		t.Fatalf("first request: got %d", w.Code)
	}
	if w := env.do(t, http.MethodGet, "/health", "", nil); w.Code != http.StatusTooManyRequests {
		t.Errorf("second request: got %d, want 429", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrap: %w", recipe.ErrInvalidInput), http.StatusBadRequest},
		{auth.ErrInvalidCredentials, http.StatusUnauthorized},
		{errForbidden, http.StatusForbidden},
		{fmt.Errorf("recipe 1: %w", storage.ErrNotFound), http.StatusNotFound},
		{storage.ErrAlreadyExists, http.StatusConflict},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestHandleWatchDirectories(t *testing.T) {
	dir := t.TempDir()
	mock := &mockWatchService{dirs: []string{"/tmp/recipes"}}
	env := newTestEnv(t, true, WithWatch(mock, nil, ""))
	token := env.login(t, "alice")

	w := env.do(t, http.MethodGet, "/api/v1/watch/directories", "", nil)
	var out struct {
		Directories []string `json:"directories"`
	}
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out.Directories) != 1 || out.Directories[0] != "/tmp/recipes" {
		t.Errorf("directories: got %v", out.Directories)
	}

	if w := env.do(t, http.MethodPost, "/api/v1/watch/directories", "", map[string]string{"path": dir}); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous add: got %d, want 401", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/v1/watch/directories", token, map[string]string{"path": dir}); w.Code != http.StatusCreated {
		t.Errorf("add: got %d, body: %s", w.Code, w.Body.String())
	}
	if len(mock.Directories()) != 2 {
		t.Errorf("expected 2 directories, got %v", mock.Directories())
	}
	if w := env.do(t, http.MethodPost, "/api/v1/watch/directories", token, map[string]string{"path": dir + "/nonexistent"}); w.Code != http.StatusNotFound {
		t.Errorf("add missing: got %d", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/v1/watch/directories?path="+dir, token, nil); w.Code != http.StatusOK {
		t.Errorf("remove: got %d", w.Code)
	}
	if len(mock.Directories()) != 1 {
		t.Errorf("after remove: %v", mock.Directories())
	}
}

func TestHandleWatchDirectories_WithoutAccounts(t *testing.T) {
	dir := t.TempDir()
	mock := &mockWatchService{dirs: []string{"/tmp/recipes"}}
	env := newTestEnv(t, false, WithWatch(mock, nil, ""))

	if w := env.do(t, http.MethodGet, "/api/v1/watch/directories", "", nil); w.Code != http.StatusOK {
		t.Errorf("list: got %d", w.Code)
	}
	if w := env.do(t, http.MethodPost, "/api/v1/watch/directories", "", map[string]string{"path": dir}); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("add without opt-in: got %d, want 405", w.Code)
	}
	if w := env.do(t, http.MethodDelete, "/api/v1/watch/directories?path=/tmp/recipes", "", nil); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("remove without opt-in: got %d, want 405", w.Code)
	}
	if len(mock.Directories()) != 1 {
		t.Errorf("directories changed: %v", mock.Directories())
	}

	open := NewServer(env.srv.engine, env.indexer, &config.ServerConfig{Host: "localhost", Port: 8080, OpenWatchAdmin: true},
		WithWatch(mock, nil, ""))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/watch/directories", strings.NewReader(`{"path":"`+dir+`"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	open.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Errorf("add with open_watch_admin: got %d, body: %s", w.Code, w.Body.String())
	}
	if len(mock.Directories()) != 2 {
		t.Errorf("expected 2 directories, got %v", mock.Directories())
	}
}

func TestHandleWatchDirectories_NotEnabled(t *testing.T) {
	env := newTestEnv(t, false)
	if w := env.do(t, http.MethodGet, "/api/v1/watch/directories", "", nil); w.Code != http.StatusNotImplemented {
		t.Errorf("status: got %d, want 501", w.Code)
	}
}
