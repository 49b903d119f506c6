package schedule

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"

	"github.com/grstapse-go/stapse/precedence"
)

// MutexIndicators enumerates, for a given allocation, every unordered pair
// (i,j) that is mutex but not already precedence-ordered, and book-keeps a
// named variable per pair, per spec.md §4.10. Master mode models each pair
// as a binary decision (i precedes j, or j precedes i); sub-problem mode
// (used inside the stochastic monolithic formulation, which shares x across
// scenario copies) models the same pair as a continuous [0,1] relaxation
// value for an LP bound.
type MutexIndicators struct {
	master     bool
	nameScheme string
	pairs      []precedence.Pair
	index      map[precedence.Pair]int
	value      []float64 // binary (0/1) in master mode, relaxed [0,1] in sub mode
}

// NewMutexIndicators builds the registry for the given mutex pairs
// (typically precedence.MutexPairs' output), naming variables with
// nameScheme as a Sprintf template taking (i,j), e.g. "x_%d_%d".
func NewMutexIndicators(pairs []precedence.Pair, nameScheme string, master bool) *MutexIndicators {
	index := make(map[precedence.Pair]int, len(pairs))
	for k, p := range pairs {
		index[p] = k
	}
	return &MutexIndicators{
		master:     master,
		nameScheme: nameScheme,
		pairs:      pairs,
		index:      index,
		value:      make([]float64, len(pairs)),
	}
}

// Contains reports whether (i,j) (in either order) is a tracked mutex pair.
func (m *MutexIndicators) Contains(i, j int) bool {
	_, ok := m.lookup(i, j)
	return ok
}

// Name returns the variable name for pair (i,j), matching the registry's
// canonical (min,max) orientation.
func (m *MutexIndicators) Name(i, j int) (string, bool) {
	p, ok := m.lookup(i, j)
	if !ok {
		return "", false
	}
	return fmt.Sprintf(m.nameScheme, p.I, p.J), true
}

// SetValue records the solved (or relaxed) value of pair (i,j)'s indicator;
// master-mode callers should round to {0,1} before calling.
func (m *MutexIndicators) SetValue(i, j int, v float64) bool {
	p, ok := m.lookup(i, j)
	if !ok {
		return false
	}
	m.value[m.index[p]] = v
	return true
}

func (m *MutexIndicators) lookup(i, j int) (precedence.Pair, bool) {
	if i > j {
		i, j = j, i
	}
	p := precedence.Pair{I: i, J: j}
	_, ok := m.index[p]
	return p, ok
}

// PrecedenceSet emits, for every tracked pair, the resolved direction: (i,j)
// if the indicator value is ≥ 0.5, else (j,i) — spec.md §4.10's
// post-optimization precedenceSet().
func (m *MutexIndicators) PrecedenceSet() []precedence.Pair {
	out := make([]precedence.Pair, 0, len(m.pairs))
	for _, p := range m.pairs {
		v := m.value[m.index[p]]
		if v >= 0.5 {
			out = append(out, p)
		} else {
			out = append(out, precedence.Pair{I: p.J, J: p.I})
		}
	}
	return out
}

// Pairs returns the tracked mutex pairs as a set, for membership checks
// elsewhere in the stochastic package without re-deriving them.
func (m *MutexIndicators) Pairs() *set.Set[precedence.Pair] {
	return set.From(m.pairs)
}
