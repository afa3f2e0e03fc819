package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/recipebox/internal/models"
	"github.com/hyperjump/recipebox/internal/recipe"
)

// fileRecipe is one recipe as written in a YAML or JSON file. Ingredients may
// be a list or a single comma-separated string.
type fileRecipe struct {
	Name        string      `json:"name" yaml:"name"`
	CookingTime int         `json:"cooking_time" yaml:"cooking_time"`
	Ingredients ingredients `json:"ingredients" yaml:"ingredients"`
	Description string      `json:"description" yaml:"description"`
}

type ingredients []string

func (i *ingredients) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*i = recipe.ParseIngredients(node.Value)
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*i = list
		return nil
	default:
		return fmt.Errorf("line %d: ingredients must be a list or a comma-separated string", node.Line)
	}
}

func (i *ingredients) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = recipe.ParseIngredients(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("ingredients must be a list or a comma-separated string: %w", err)
	}
	*i = list
	return nil
}

// recipeFile accepts either a bare list of recipes or a mapping with a
// "recipes" key, which is also the layout of an exported store file.
type recipeFile struct {
	Recipes []fileRecipe `json:"recipes" yaml:"recipes"`
}

func toInputs(recipes []fileRecipe) []models.RecipeInput {
	out := make([]models.RecipeInput, 0, len(recipes))
	for _, fr := range recipes {
		out = append(out, models.RecipeInput{
			Name:        fr.Name,
			CookingTime: fr.CookingTime,
			Ingredients: []string(fr.Ingredients),
			Description: fr.Description,
		})
	}
	return out
}

func decodeYAML(content []byte) ([]models.RecipeInput, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return []models.RecipeInput{}, nil
	}
	doc := root.Content[0]
	var recipes []fileRecipe
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&recipes); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
	case yaml.MappingNode:
		var f recipeFile
		if err := doc.Decode(&f); err != nil {
			return nil, fmt.Errorf("parse YAML: %w", err)
		}
		if f.Recipes == nil {
			// A single recipe mapping.
			var one fileRecipe
			if err := doc.Decode(&one); err != nil {
				return nil, fmt.Errorf("parse YAML: %w", err)
			}
			recipes = []fileRecipe{one}
		} else {
			recipes = f.Recipes
		}
	default:
		return nil, fmt.Errorf("parse YAML: expected a list or mapping at line %d", doc.Line)
	}
	return toInputs(recipes), nil
}

func decodeJSON(content []byte) ([]models.RecipeInput, error) {
	trimmed := bytes.TrimSpace(content)
	if len(trimmed) == 0 {
		return []models.RecipeInput{}, nil
	}
	var recipes []fileRecipe
	switch trimmed[0] {
	case '[':
		if err := json.Unmarshal(trimmed, &recipes); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	case '{':
		var top map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &top); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
		if _, ok := top["recipes"]; ok {
			var f recipeFile
			if err := json.Unmarshal(trimmed, &f); err != nil {
				return nil, fmt.Errorf("parse JSON: %w", err)
			}
			recipes = f.Recipes
		} else {
			var one fileRecipe
			if err := json.Unmarshal(trimmed, &one); err != nil {
				return nil, fmt.Errorf("parse JSON: %w", err)
			}
			recipes = []fileRecipe{one}
		}
	default:
		return nil, fmt.Errorf("parse JSON: expected an array or object, got %q", strings.TrimSpace(string(trimmed[:1])))
	}
	return toInputs(recipes), nil
}
