// Package auth provides account registration, sessions, profile deletion and
// favorites on top of an AccountStore.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hyperjump/recipebox/internal/config"
	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
	"github.com/hyperjump/recipebox/internal/storage"
)

var (
	// ErrInvalidCredentials is returned when a username or password does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUnauthorized is returned for missing, unknown or expired session tokens.
	ErrUnauthorized = errors.New("unauthorized")
)

// RecipeForgetter drops deleted recipes from search state.
type RecipeForgetter interface {
	Forget(ctx context.Context, ids ...int64) error
}

// Service handles accounts.
type Service struct {
	store     storage.AccountStore
	forgetter RecipeForgetter
	ttl       time.Duration
	cost      int
	now       func() time.Time
	logger    *zap.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates an account service. forgetter may be nil.
func NewService(store storage.AccountStore, forgetter RecipeForgetter, cfg *config.AuthConfig, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		forgetter: forgetter,
		ttl:       cfg.SessionTTL,
		cost:      cfg.BcryptCost,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	if s.ttl <= 0 {
		s.ttl = 24 * time.Hour
	}
	if s.cost < bcrypt.MinCost || s.cost > bcrypt.MaxCost {
		s.cost = bcrypt.DefaultCost
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Register validates reg and creates the user.
func (s *Service) Register(ctx context.Context, reg *models.Registration) (*models.User, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	if err := ValidateRegistration(reg); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	u := &models.User{Username: reg.Username, Email: reg.Email, PasswordHash: string(hash)}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	s.logger.Info("user registered", zap.String("username", u.Username))
	return u, nil
}

// Login checks credentials and opens a session.
func (s *Service) Login(ctx context.Context, creds *models.Credentials) (*models.Session, error) {
	u, err := s.store.GetUser(ctx, strings.TrimSpace(creds.Username))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	sess := &models.Session{
		Token:     uuid.NewString(),
		Username:  u.Username,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.store.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	s.logger.Debug("session opened", zap.String("username", u.Username))
	return sess, nil
}

// Logout ends the session for token.
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.store.DeleteSession(ctx, token)
}

// Authenticate resolves a session token to its user. Expired sessions are removed.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}
	sess, err := s.store.GetSession(ctx, token)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if sess.Expired(s.now()) {
		if err := s.store.DeleteSession(ctx, token); err != nil {
			s.logger.Warn("failed to delete expired session", zap.Error(err))
		}
		return nil, ErrUnauthorized
	}
	u, err := s.store.GetUser(ctx, sess.Username)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	return u, err
}

// DeleteProfile removes the user with their sessions, favorites and recipes.
// It returns the IDs of the removed recipes.
func (s *Service) DeleteProfile(ctx context.Context, username string) ([]int64, error) {
	ids, err := s.store.DeleteUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if s.forgetter != nil && len(ids) > 0 {
		if err := s.forgetter.Forget(ctx, ids...); err != nil {
			return ids, fmt.Errorf("failed to drop recipes of %q: %w", username, err)
		}
	}
	s.logger.Info("profile deleted", zap.String("username", username), zap.Int("recipes", len(ids)))
	return ids, nil
}

// AddFavorite marks recipeID as a favorite of username.
func (s *Service) AddFavorite(ctx context.Context, username string, recipeID int64) error {
	return s.store.AddFavorite(ctx, username, recipeID)
}

// RemoveFavorite unmarks a favorite.
func (s *Service) RemoveFavorite(ctx context.Context, username string, recipeID int64) error {
	return s.store.RemoveFavorite(ctx, username, recipeID)
}

// Favorites lists the favorites of username.
func (s *Service) Favorites(ctx context.Context, username string) ([]*recipe.Recipe, error) {
	return s.store.ListFavorites(ctx, username)
}

// CanModify reports whether u may edit or delete r. Recipes without an author
// are open to any logged-in user.
func CanModify(u *models.User, r *recipe.Recipe) bool {
	if u == nil {
		return false
	}
	return r.Author == "" || r.Author == u.Username
}
