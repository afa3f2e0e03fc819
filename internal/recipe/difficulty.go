// Package recipe holds the recipe entity, the difficulty classifier, and the
// ingredient index. Everything in this package is pure: storage, transport and
// presentation live elsewhere and convert their records to Recipe before
// calling in.
package recipe

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is returned for inputs outside a function's documented domain.
var ErrInvalidInput = errors.New("invalid input")

// Difficulty is the derived difficulty label of a recipe.
type Difficulty string

const (
	Easy         Difficulty = "Easy"
	Medium       Difficulty = "Medium"
	Intermediate Difficulty = "Intermediate"
	Hard         Difficulty = "Hard"
)

// Thresholds of the classification table.
const (
	QuickCookingMinutes = 10
	FewIngredients      = 4
)

// Difficulties lists every label in ascending order of difficulty.
var Difficulties = []Difficulty{Easy, Medium, Intermediate, Hard}

// Classify returns the difficulty for a cooking time (minutes) and ingredient count.
//
//	time < 10,  count < 4  -> Easy
//	time < 10,  count >= 4 -> Medium
//	time >= 10, count < 4  -> Intermediate
//	time >= 10, count >= 4 -> Hard
//
// A cooking time below 1 or a negative count yields ErrInvalidInput.
func Classify(cookingTime, ingredientCount int) (Difficulty, error) {
	if cookingTime <= 0 {
		return "", fmt.Errorf("%w: cooking time must be positive, got %d", ErrInvalidInput, cookingTime)
	}
	if ingredientCount < 0 {
		return "", fmt.Errorf("%w: ingredient count must not be negative, got %d", ErrInvalidInput, ingredientCount)
	}
	quick := cookingTime < QuickCookingMinutes
	few := ingredientCount < FewIngredients
	switch {
	case quick && few:
		return Easy, nil
	case quick:
		return Medium, nil
	case few:
		return Intermediate, nil
	default:
		return Hard, nil
	}
}

// ParseDifficulty maps a label (case-insensitive) to a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range Difficulties {
		if strings.EqualFold(string(d), strings.TrimSpace(s)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, s)
}

// Valid reports whether d is one of the four labels.
func (d Difficulty) Valid() bool {
	for _, known := range Difficulties {
		if d == known {
			return true
		}
	}
	return false
}

func (d Difficulty) String() string { return string(d) }
