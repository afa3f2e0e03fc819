package keyword

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/blevesearch/bleve/v2"
	keywordanalyzer "github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	blevequery "github.com/blevesearch/bleve/v2/search/query"

	"github.com/hyperjump/recipebox/internal/recipe"
)

var _ RecipeIndex = (*BleveIndex)(nil)

// Field boosts: a hit in the recipe name outranks one in its ingredients,
// which outranks one in the description.
const (
	nameBoost        = 3.0
	ingredientsBoost = 2.0
)

// BleveIndex implements RecipeIndex using Bleve.
type BleveIndex struct {
	index bleve.Index
}

type recipeDoc struct {
	Name        string `json:"name"`
	Ingredients string `json:"ingredients"`
	Description string `json:"description"`
	Difficulty  string `json:"difficulty"`
	Author      string `json:"author"`
	CookingTime int    `json:"cooking_time"`
}

func newRecipeMapping() *mapping.IndexMappingImpl {
	im := bleve.NewIndexMapping()

	docMapping := bleve.NewDocumentMapping()
	text := bleve.NewTextFieldMapping()
	// Standard analyzer lowercases and tokenizes without stemming, so "eggs"
	// does not also match "egg" in another recipe's description.
	text.Analyzer = standard.Name
	docMapping.AddFieldMappingsAt("name", text)
	docMapping.AddFieldMappingsAt("ingredients", text)
	docMapping.AddFieldMappingsAt("description", text)

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keywordanalyzer.Name
	docMapping.AddFieldMappingsAt("difficulty", exact)
	docMapping.AddFieldMappingsAt("author", exact)
	docMapping.AddFieldMappingsAt("cooking_time", bleve.NewNumericFieldMapping())

	im.AddDocumentMapping("recipe", docMapping)
	im.DefaultType = "recipe"
	im.DefaultMapping = docMapping
	return im
}

// NewBleveIndex creates or opens a Bleve index at path. An empty path creates
// an in-memory index. An existing index is reopened; remove its directory
// after changing the mapping to force a rebuild.
func NewBleveIndex(path string) (*BleveIndex, error) {
	if path == "" {
		index, err := bleve.NewMemOnly(newRecipeMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create in-memory Bleve index: %w", err)
		}
		return &BleveIndex{index: index}, nil
	}

	if _, err := os.Stat(path); err == nil {
		index, openErr := bleve.Open(path)
		if openErr != nil {
			return nil, fmt.Errorf("failed to open Bleve index: %w", openErr)
		}
		return &BleveIndex{index: index}, nil
	}

	index, err := bleve.New(path, newRecipeMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create Bleve index: %w", err)
	}
	return &BleveIndex{index: index}, nil
}

func docID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Index adds or replaces the recipe document.
func (b *BleveIndex) Index(ctx context.Context, r *recipe.Recipe) error {
	if r.ID == 0 {
		return fmt.Errorf("cannot index recipe %q without an id", r.Name)
	}
	doc := recipeDoc{
		Name:        r.Name,
		Ingredients: strings.Join(r.Ingredients(), recipe.IngredientSeparator),
		Description: r.Description,
		Difficulty:  string(r.Difficulty()),
		Author:      r.Author,
		CookingTime: r.CookingTime(),
	}
	return b.index.Index(docID(r.ID), doc)
}

var fieldBoosts = map[string]float64{
	"name":        nameBoost,
	"ingredients": ingredientsBoost,
	"description": 1.0,
}

var defaultFields = []string{"name", "ingredients", "description"}

// Search matches text against name, ingredients and description, or the
// fields named in opts, and returns up to limit hits ordered by score.
func (b *BleveIndex) Search(ctx context.Context, text string, limit int, opts *SearchOptions) ([]*Hit, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return []*Hit{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	fields := defaultFields
	if opts != nil && len(opts.Fields) > 0 {
		fields = opts.Fields
	}
	qs := make([]blevequery.Query, 0, len(fields))
	for _, f := range fields {
		boost, ok := fieldBoosts[f]
		if !ok {
			return nil, fmt.Errorf("unknown search field %q", f)
		}
		qs = append(qs, fieldQuery(text, f, boost, opts))
	}
	req := bleve.NewSearchRequest(bleve.NewDisjunctionQuery(qs...))
	req.Size = limit
	res, err := b.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("Bleve search failed: %w", err)
	}
	out := make([]*Hit, 0, len(res.Hits))
	for _, h := range res.Hits {
		id, err := strconv.ParseInt(h.ID, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, &Hit{ID: id, Score: h.Score})
	}
	return out, nil
}

// fieldQuery builds a match query on one field, or fuzzy term queries when
// opts asks for typo tolerance. Terms are ORed unless opts.MatchAll is set.
func fieldQuery(text, field string, boost float64, opts *SearchOptions) blevequery.Query {
	matchAll := opts != nil && opts.MatchAll
	if opts == nil || !opts.Fuzzy {
		mq := bleve.NewMatchQuery(text)
		mq.SetField(field)
		mq.SetBoost(boost)
		if matchAll {
			mq.SetOperator(blevequery.MatchQueryOperatorAnd)
		}
		return mq
	}
	fuzziness := opts.Fuzziness
	if fuzziness <= 0 {
		fuzziness = 1
	}
	terms := strings.Fields(strings.ToLower(text))
	qs := make([]blevequery.Query, 0, len(terms))
	for _, t := range terms {
		fq := bleve.NewFuzzyQuery(t)
		fq.SetFuzziness(fuzziness)
		fq.SetField(field)
		qs = append(qs, fq)
	}
	if matchAll {
		cq := bleve.NewConjunctionQuery(qs...)
		cq.SetBoost(boost)
		return cq
	}
	dq := bleve.NewDisjunctionQuery(qs...)
	dq.SetBoost(boost)
	return dq
}

// Delete removes a recipe from the index. Unknown ids are ignored.
func (b *BleveIndex) Delete(ctx context.Context, id int64) error {
	return b.index.Delete(docID(id))
}

// DocCount returns the number of indexed recipes.
func (b *BleveIndex) DocCount() (uint64, error) {
	return b.index.DocCount()
}

// Close closes the Bleve index.
func (b *BleveIndex) Close() error {
	return b.index.Close()
}
