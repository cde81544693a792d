package strategy

import (
	"math"
	"sort"

	"github.com/dtnsim/dtnsim/internal/rng"
)

// ManagerKind tags one of the two forwarding-order post-processors of
// spec.md §4.8 (component C9).
type ManagerKind int

const (
	// Unchanged is the identity post-processor.
	Unchanged ManagerKind = iota
	// ExponentiallyDecaying samples without replacement from an
	// exponentially-decaying probability vector, so rank-1 entries are
	// drawn first with high probability but every entry can reach the
	// head.
	ExponentiallyDecaying
)

// Manager applies a ManagerKind post-processor to an already
// forwarding-order-sorted candidate list.
type Manager struct {
	kind   ManagerKind
	source *rng.Source
}

// NewManager builds a Manager. source is unused (and may be nil) for
// Unchanged.
func NewManager(kind ManagerKind, source *rng.Source) *Manager {
	return &Manager{kind: kind, source: source}
}

// Apply returns the post-processed ordering. It never mutates items.
func (m *Manager) Apply(items []Item) []Item {
	switch m.kind {
	case ExponentiallyDecaying:
		return decayingDraw(items, m.source)
	default:
		out := make([]Item, len(items))
		copy(out, items)
		return out
	}
}

// decayingDraw implements spec.md §4.8's sampling-without-replacement
// procedure: pᵢ ∝ (1 − 1/N)·(1/N)^(i−1) for i = 1..N, normalized, with the
// cumulative vector's last entry forced to 1.0. Each of the N output
// slots draws u ∈ [0,1) and picks the smallest i with cum[i] ≥ u; if that
// slot is already taken, it probes left then right, alternating, for the
// next free slot.
func decayingDraw(items []Item, source *rng.Source) []Item {
	n := len(items)
	if n == 0 {
		return nil
	}
	weights := make([]float64, n)
	sum := 0.0
	for i := 0; i < n; i++ {
		w := (1 - 1.0/float64(n)) * math.Pow(1.0/float64(n), float64(i))
		weights[i] = w
		sum += w
	}
	cum := make([]float64, n)
	running := 0.0
	for i := 0; i < n; i++ {
		running += weights[i] / sum
		cum[i] = running
	}
	cum[n-1] = 1.0

	chosen := make([]bool, n)
	out := make([]Item, 0, n)
	for draw := 0; draw < n; draw++ {
		u := source.Float64()
		idx := sort.Search(n, func(i int) bool { return cum[i] >= u })
		if idx >= n {
			idx = n - 1
		}
		idx = nextUnchosen(chosen, idx)
		chosen[idx] = true
		out = append(out, items[idx])
	}
	return out
}

// nextUnchosen finds the nearest unchosen index to idx, probing left then
// right alternately. idx itself is returned if it is free.
func nextUnchosen(chosen []bool, idx int) int {
	if !chosen[idx] {
		return idx
	}
	n := len(chosen)
	for left, right := idx-1, idx+1; left >= 0 || right < n; left, right = left-1, right+1 {
		if left >= 0 && !chosen[left] {
			return left
		}
		if right < n && !chosen[right] {
			return right
		}
	}
	return idx
}
