package recipe

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Persistence bounds carried over from the SQL schema.
const (
	MaxNameLength        = 50
	MaxIngredientsLength = 255
	IngredientSeparator  = ", "
)

// ValidateName rejects empty names and names longer than MaxNameLength runes.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: recipe name cannot be empty", ErrInvalidInput)
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return fmt.Errorf("%w: recipe name cannot exceed %d characters", ErrInvalidInput, MaxNameLength)
	}
	return nil
}

// ValidateCookingTime rejects non-positive cooking times.
func ValidateCookingTime(minutes int) error {
	if minutes <= 0 {
		return fmt.Errorf("%w: cooking time must be a positive number", ErrInvalidInput)
	}
	return nil
}

// ParseIngredients splits a comma-separated list, trimming whitespace and
// dropping empty entries.
func ParseIngredients(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ValidateIngredient rejects ingredient names containing a comma, which the
// single-column encoding uses as its separator.
func ValidateIngredient(name string) error {
	if strings.Contains(name, ",") {
		return fmt.Errorf("%w: ingredient %q cannot contain a comma", ErrInvalidInput, name)
	}
	return nil
}

// JoinIngredients encodes ingredients for a single text column. It fails when
// an ingredient contains a comma or the result would exceed
// MaxIngredientsLength.
func JoinIngredients(ingredients []string) (string, error) {
	for _, ing := range ingredients {
		if err := ValidateIngredient(ing); err != nil {
			return "", err
		}
	}
	s := strings.Join(ingredients, IngredientSeparator)
	if utf8.RuneCountInString(s) > MaxIngredientsLength {
		return "", fmt.Errorf("%w: total length of ingredients cannot exceed %d characters", ErrInvalidInput, MaxIngredientsLength)
	}
	return s, nil
}

// Validate checks a recipe is fit for storage: valid name, positive cooking
// time, at least one ingredient, and ingredients that survive the column
// encoding.
func Validate(r *Recipe) error {
	if r == nil {
		return fmt.Errorf("%w: nil recipe", ErrInvalidInput)
	}
	if err := ValidateName(r.Name); err != nil {
		return err
	}
	if err := ValidateCookingTime(r.cookingTime); err != nil {
		return err
	}
	if len(r.ingredients) == 0 {
		return fmt.Errorf("%w: recipe must have at least one ingredient", ErrInvalidInput)
	}
	_, err := JoinIngredients(r.ingredients)
	return err
}
