// Package strategy implements the caching-priority and forwarding-order
// total orders of spec.md §4.6/§4.7 (components C7/C8) as a single
// comparator family, resolving spec.md §9's Open Question #1: the
// teacher's two parallel, overlapping strategy hierarchies
// (strategies/… and messagePrioritizationStrategies/…+
// messageForwardingOrderManager/…) are consolidated here into one Kind
// enum used by both the caching-priority role (package cache) and the
// forwarding-order role (package router), exactly as spec.md describes
// them as "identical semantics" applied to two different lists.
//
// Grounded on the teacher's types.ConflictRelationship /
// types.PreviousSet comparator-by-field approach (compare by a derived
// key, fall through to the next field on a tie), generalized from a
// single conflict predicate to a full ordering.
package strategy

import "sort"

// Kind tags one of the four total orders spec.md §4.6 names.
type Kind int

const (
	// Random orders items by a uniform draw from a seeded PRNG, assigned
	// once per item (see Item.RandomKey).
	Random Kind = iota
	// FIFO orders items by ReceiveTime ascending.
	FIFO
	// PrioritizedFIFO orders items by Priority descending, then
	// ReceiveTime ascending.
	PrioritizedFIFO
	// PrioritizedLFFFIFO orders items by ForwardTimes ascending, then
	// Priority descending, then ReceiveTime ascending ("least-forwarded
	// first").
	PrioritizedLFFFIFO
)

func (k Kind) String() string {
	switch k {
	case Random:
		return "Random"
	case FIFO:
		return "FIFO"
	case PrioritizedFIFO:
		return "PrioritizedFIFO"
	case PrioritizedLFFFIFO:
		return "PrioritizedLFFFIFO"
	default:
		return "Unknown"
	}
}

// Item is anything a caching-priority or forwarding-order Kind can order.
// cache.Entry implements this directly; router candidate lists reuse the
// same cache entries.
type Item interface {
	ReceiveTime() float64
	Priority() int
	ForwardTimes() int
	RandomKey() float64
	InsertSeq() uint64
}

// Sort orders items ascending in "served first / evicted last" order
// (spec.md §4.6) for the given Kind, in place. When reverse is true, the
// primary/secondary/tertiary keys are inverted (used for eviction order),
// but ties are always broken by ascending InsertSeq — "Ties: stable —
// preserve insertion order" applies identically in both directions.
func Sort(items []Item, kind Kind, reverse bool) {
	sort.SliceStable(items, func(i, j int) bool {
		c := compare(items[i], items[j], kind)
		if reverse {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return items[i].InsertSeq() < items[j].InsertSeq()
	})
}

func compare(a, b Item, kind Kind) int {
	switch kind {
	case Random:
		return cmpFloat(a.RandomKey(), b.RandomKey())
	case FIFO:
		return cmpFloat(a.ReceiveTime(), b.ReceiveTime())
	case PrioritizedFIFO:
		if c := -cmpInt(a.Priority(), b.Priority()); c != 0 {
			return c
		}
		return cmpFloat(a.ReceiveTime(), b.ReceiveTime())
	case PrioritizedLFFFIFO:
		if c := cmpInt(a.ForwardTimes(), b.ForwardTimes()); c != 0 {
			return c
		}
		if c := -cmpInt(a.Priority(), b.Priority()); c != 0 {
			return c
		}
		return cmpFloat(a.ReceiveTime(), b.ReceiveTime())
	default:
		return 0
	}
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
