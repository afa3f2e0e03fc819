package search

import (
	"github.com/hyperjump/recipebox/internal/config"
	"github.com/hyperjump/recipebox/internal/models"
)

// ProcessQuery validates the query and applies the configured limits.
func ProcessQuery(query *models.SearchQuery, cfg *config.SearchConfig) error {
	return query.Validate(cfg.DefaultLimit, cfg.MaxLimit)
}
