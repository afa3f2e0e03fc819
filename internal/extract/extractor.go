// Package extract decodes recipe files into recipe inputs.
package extract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/recipebox/internal/models"
)

// ErrUnsupportedFormat is returned for file extensions with no decoder.
var ErrUnsupportedFormat = errors.New("unsupported recipe file format")

// SupportedExtensions lists the extensions Extract understands.
var SupportedExtensions = []string{".yaml", ".yml", ".json", ".xlsx"}

// Extractor decodes recipe files.
type Extractor struct{}

// NewExtractor returns a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract reads the file at path and decodes the recipes it contains.
// Recipes are returned in file order; an empty file yields no recipes.
func (e *Extractor) Extract(path string) ([]models.RecipeInput, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	return e.ExtractBytes(content, ext)
}

// ExtractBytes decodes content according to ext, which includes the leading dot.
func (e *Extractor) ExtractBytes(content []byte, ext string) ([]models.RecipeInput, error) {
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		return decodeYAML(sanitize(content))
	case ".json":
		return decodeJSON(sanitize(content))
	case ".xlsx":
		return decodeExcel(content)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Supported reports whether ext has a decoder.
func Supported(ext string) bool {
	ext = strings.ToLower(ext)
	for _, s := range SupportedExtensions {
		if s == ext {
			return true
		}
	}
	return false
}
