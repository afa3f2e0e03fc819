package recipe

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_RecordKeepsFirstSeenOrder(t *testing.T) {
	recipes := scenario(t)
	l := NewLedger(Retain)
	for _, r := range recipes {
		l.Record(r)
	}
	want := []string{"Tea Leaves", "Sugar", "Water", "Butter", "Eggs", "Vanilla", "Flour", "Baking Powder", "Milk"}
	if diff := cmp.Diff(want, l.Names()); diff != "" {
		t.Errorf("ledger mismatch (-want +got):\n%s", diff)
	}
}

func TestLedger_RetainKeepsIngredientsAfterDelete(t *testing.T) {
	recipes := scenario(t)
	l := NewLedger(Retain)
	l.Reset(recipes)

	l.Removed(recipes[1:]) // Tea deleted
	assert.True(t, l.Contains("Tea Leaves"))
	assert.Equal(t, 9, l.Len())
}

func TestLedger_PruneDropsOrphanedIngredients(t *testing.T) {
	recipes := scenario(t)
	l := NewLedger(Prune)
	l.Reset(recipes)

	l.Removed(recipes[1:]) // Tea deleted
	assert.False(t, l.Contains("Tea Leaves"))
	assert.False(t, l.Contains("Water"))
	assert.True(t, l.Contains("Sugar"), "still listed by Cake")
	assert.True(t, Index(recipes[1:]).Equal(setOf(l.Names())))

	l.Removed(nil)
	assert.Zero(t, l.Len())
}

func TestLedger_AddSkipsEmptyAndDuplicates(t *testing.T) {
	l := NewLedger(Retain)
	l.Add("Salt", "", "Salt", "Pepper")
	assert.Equal(t, []string{"Salt", "Pepper"}, l.Names())
}

func TestLedger_Restore(t *testing.T) {
	l := NewLedger(Retain)
	l.Add("Salt", "Pepper")
	snapshot := l.Names()
	l.Add("Saffron")
	l.Restore(snapshot)
	assert.Equal(t, []string{"Salt", "Pepper"}, l.Names())
	assert.False(t, l.Contains("Saffron"))
}

func setOf(names []string) IngredientSet {
	s := make(IngredientSet)
	s.Add(names...)
	return s
}

func TestValidate(t *testing.T) {
	ok, err := Build("Tea", 5, []string{"Water"})
	require.NoError(t, err)
	assert.NoError(t, Validate(ok))

	assert.ErrorIs(t, ValidateName("   "), ErrInvalidInput)
	assert.ErrorIs(t, ValidateName(strings.Repeat("a", 51)), ErrInvalidInput)
	assert.NoError(t, ValidateName(strings.Repeat("a", 50)))
	assert.ErrorIs(t, ValidateCookingTime(0), ErrInvalidInput)

	empty := New("Nothing")
	require.NoError(t, empty.SetCookingTime(5))
	assert.ErrorIs(t, Validate(empty), ErrInvalidInput)

	noTime := New("Raw")
	noTime.AddIngredients("Carrot")
	assert.ErrorIs(t, Validate(noTime), ErrInvalidInput)

	comma, err := Build("Salad", 5, []string{"Salt, pepper", "Oil", "Lettuce"})
	require.NoError(t, err)
	assert.ErrorIs(t, Validate(comma), ErrInvalidInput)
	assert.ErrorIs(t, ValidateIngredient("Salt, pepper"), ErrInvalidInput)
	assert.NoError(t, ValidateIngredient("Salt & pepper"))
}

func TestParseAndJoinIngredients(t *testing.T) {
	got := ParseIngredients(" Salt,Pepper , ,Water ")
	assert.Equal(t, []string{"Salt", "Pepper", "Water"}, got)

	joined, err := JoinIngredients(got)
	require.NoError(t, err)
	assert.Equal(t, "Salt, Pepper, Water", joined)
	assert.Equal(t, got, ParseIngredients(joined))

	_, err = JoinIngredients([]string{strings.Repeat("x", 256)})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = JoinIngredients([]string{"Salt, pepper"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
