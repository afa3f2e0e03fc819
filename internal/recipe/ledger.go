package recipe

import "sync"

// PrunePolicy decides what a Ledger does when a recipe is removed.
type PrunePolicy int

const (
	// Retain keeps every ingredient ever recorded.
	Retain PrunePolicy = iota
	// Prune drops ingredients no remaining recipe lists.
	Prune
)

// Ledger accumulates the ingredient names seen across a recipe collection.
// It is owned by whoever holds it; there is no package-level instance.
// Safe for concurrent use.
type Ledger struct {
	mu     sync.RWMutex
	policy PrunePolicy
	names  []string
	set    IngredientSet
}

// NewLedger returns an empty ledger with the given prune policy.
func NewLedger(policy PrunePolicy) *Ledger {
	return &Ledger{policy: policy, set: make(IngredientSet)}
}

// Policy returns the ledger's prune policy.
func (l *Ledger) Policy() PrunePolicy { return l.policy }

// Record adds the recipe's ingredients, keeping first-seen order.
func (l *Ledger) Record(r *Recipe) {
	if r == nil {
		return
	}
	l.Add(r.ingredients...)
}

// Add records names directly, e.g. when restoring a persisted ledger.
func (l *Ledger) Add(names ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, n := range names {
		if n == "" || l.set.Contains(n) {
			continue
		}
		l.set.Add(n)
		l.names = append(l.names, n)
	}
}

// Removed tells the ledger a recipe was deleted; remaining is the collection
// after the delete. Under Retain this is a no-op.
func (l *Ledger) Removed(remaining []*Recipe) {
	if l.policy != Prune {
		return
	}
	keep := Index(remaining)
	l.mu.Lock()
	defer l.mu.Unlock()
	names := l.names[:0]
	for _, n := range l.names {
		if keep.Contains(n) {
			names = append(names, n)
		} else {
			delete(l.set, n)
		}
	}
	l.names = names
}

// Reset replaces the ledger's contents with Index(recipes) in recipe order.
func (l *Ledger) Reset(recipes []*Recipe) {
	l.mu.Lock()
	l.names = nil
	l.set = make(IngredientSet)
	l.mu.Unlock()
	for _, r := range recipes {
		l.Record(r)
	}
}

// Restore replaces the ledger's contents with names, as returned by Names.
func (l *Ledger) Restore(names []string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.names = nil
	l.set = make(IngredientSet)
	for _, n := range names {
		if n == "" || l.set.Contains(n) {
			continue
		}
		l.set.Add(n)
		l.names = append(l.names, n)
	}
}

// Names returns the recorded names in first-seen order.
func (l *Ledger) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]string(nil), l.names...)
}

// Contains reports whether name was recorded.
func (l *Ledger) Contains(name string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.set.Contains(name)
}

// Len returns the number of recorded names.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.names)
}
