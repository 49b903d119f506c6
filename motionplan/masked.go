package motionplan

import (
	"fmt"

	"github.com/mitchellh/copystructure"
)

// Masked wraps a pool of per-scenario planners (one graphcore.Graph per
// sampled scenario, sharing a vertex set but differing edge weights) behind
// a selected-subset index, per spec.md §4.7: queries by index i in [0,β)
// translate to the i-th true entry of the installed mask.
type Masked struct {
	pool  []Planner
	index []int // index[i] = pool index of the i-th selected scenario
}

// NewMasked builds a Masked planner over the full scenario pool with no
// mask installed (index is empty until InstallMask is called).
func NewMasked(pool []Planner) *Masked {
	return &Masked{pool: pool}
}

// InstallMask recomputes the index map from a boolean mask over the pool:
// index[k] is the pool position of the k-th true entry, in ascending pool
// order.
func (m *Masked) InstallMask(mask []bool) error {
	if len(mask) != len(m.pool) {
		return fmt.Errorf("motionplan: mask length %d does not match pool size %d", len(mask), len(m.pool))
	}
	index := make([]int, 0, len(mask))
	for i, selected := range mask {
		if selected {
			index = append(index, i)
		}
	}
	m.index = index
	return nil
}

// Selected returns the number of scenarios currently selected by the
// installed mask (β).
func (m *Masked) Selected() int { return len(m.index) }

// Planner returns the i-th selected scenario's planner, i in [0, Selected()).
func (m *Masked) Planner(i int) (Planner, error) {
	if i < 0 || i >= len(m.index) {
		return nil, fmt.Errorf("motionplan: masked index %d out of range [0,%d)", i, len(m.index))
	}
	return m.pool[m.index[i]], nil
}

// PoolSize returns the total number of scenarios in the underlying pool
// (Q_f), before masking.
func (m *Masked) PoolSize() int { return len(m.pool) }

// Clone returns an independent Masked sharing this one's underlying planner
// pool (read-only, safe to share) but with its own deep-copied mask index,
// so a goroutine running a parallel scenario solve (spec.md §4.6) can
// install a different mask on its clone without racing the original's
// InstallMask/Selected/Planner calls.
func (m *Masked) Clone() (*Masked, error) {
	clonedIndex, err := copystructure.Copy(m.index)
	if err != nil {
		return nil, fmt.Errorf("motionplan: clone masked index: %w", err)
	}
	return &Masked{pool: m.pool, index: clonedIndex.([]int)}, nil
}
