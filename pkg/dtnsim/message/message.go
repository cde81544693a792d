// Package message implements the Message value type (spec.md §3,
// component C2): identity, size, payload surrogate, priority, TTL, hop
// list, forward counter, and fragment lineage.
//
// Grounded on the teacher's pkg/mcast/types.Message / DataHolder split
// (identity + opaque payload), but reshaped to spec.md's field set and to
// spec.md §5's copy-on-write rule: "cross-host message objects are
// shared, immutable after creation (copies are made only when mutation...
// is needed, producing a new logical version keyed by the same id)". Every
// mutating method here returns a new Message value; none mutate the
// receiver.
package message

import (
	"fmt"

	"github.com/google/uuid"
)

// ID identifies a message for its entire lifetime. Per spec.md §3,
// id/from/to/size/createTime never change once a Message is created.
type ID string

// NewID generates a fresh message identifier. The teacher calls an
// unavailable helper.GenerateUID() for the analogous purpose (see
// SPEC_FULL.md §A.4); google/uuid is the in-pack replacement.
func NewID() ID {
	return ID(uuid.NewString())
}

// Range is a contiguous byte range [Offset, Offset+Length) of a parent
// message, used for fragment lineage.
type Range struct {
	Offset int
	Length int
}

// End returns the exclusive end offset of the range.
func (r Range) End() int { return r.Offset + r.Length }

// Fragment describes a message's position in its parent, when the message
// is itself a fragment. ParentSize lets the final destination recognize
// reassembly completion without having separately learned the original,
// unfragmented message's size.
type Fragment struct {
	ParentID   ID
	Range      Range
	ParentSize int
}

// Message is the immutable unit of DTN store-carry-forward traffic.
type Message struct {
	id          ID
	size        int
	priority    int
	ttlMinutes  float64 // ignored when infinite is true
	infiniteTTL bool
	createTime  float64
	receiveTime float64
	forwardCnt  int
	hopPath     []string
	from        string
	to          string
	fragment    *Fragment

	// copies is the Spray-and-Wait copy budget L (spec.md §4.9,
	// Spray-and-Wait variant). It is 0 for routers that don't use it.
	copies int
}

// New constructs a freshly created message. createTime is the simulation
// time at creation; receiveTime starts equal to createTime (the creator is
// the first "receiver" of its own message).
func New(from, to string, size, priority int, ttlMinutes float64, infinite bool, createTime float64) Message {
	return Message{
		id:          NewID(),
		size:        size,
		priority:    priority,
		ttlMinutes:  ttlMinutes,
		infiniteTTL: infinite,
		createTime:  createTime,
		receiveTime: createTime,
		forwardCnt:  0,
		hopPath:     []string{from},
		from:        from,
		to:          to,
	}
}

func (m Message) ID() ID                { return m.id }
func (m Message) Size() int             { return m.size }
func (m Message) Priority() int         { return m.priority }
func (m Message) CreateTime() float64   { return m.createTime }
func (m Message) ReceiveTime() float64  { return m.receiveTime }
func (m Message) ForwardTimes() int     { return m.forwardCnt }
func (m Message) From() string          { return m.from }
func (m Message) To() string            { return m.to }
func (m Message) Copies() int           { return m.copies }
func (m Message) InfiniteTTL() bool     { return m.infiniteTTL }
func (m Message) TTLMinutes() float64   { return m.ttlMinutes }

// HopPath returns the ordered sequence of host ids the message has passed
// through, including its origin.
func (m Message) HopPath() []string {
	out := make([]string, len(m.hopPath))
	copy(out, m.hopPath)
	return out
}

// IsFragment reports whether this message is a fragment of a larger one.
func (m Message) IsFragment() bool { return m.fragment != nil }

// FragmentInfo returns the fragment lineage, if any.
func (m Message) FragmentInfo() (Fragment, bool) {
	if m.fragment == nil {
		return Fragment{}, false
	}
	return *m.fragment, true
}

// Expired reports whether the message's TTL has elapsed as of now. Per
// spec.md §8, a message at the exact TTL boundary expires *after* the tick
// in which now >= createTime + ttl*60 begins, i.e. strict inequality here,
// evaluated at the start of the *following* tick by the caller.
func (m Message) Expired(now float64) bool {
	if m.infiniteTTL {
		return false
	}
	return now > m.createTime+m.ttlMinutes*60
}

// WithReceived returns a new logical version stamped with the given
// receive time, used each time the message lands in a new host's cache.
func (m Message) WithReceived(hostID string, now float64) Message {
	n := m
	n.receiveTime = now
	n.hopPath = append(append([]string{}, m.hopPath...), hostID)
	return n
}

// WithForwardBump returns a new logical version with forwardTimes
// incremented. Per spec.md §3, forwardTimes is monotonically
// non-decreasing over the message's lifetime.
func (m Message) WithForwardBump() Message {
	n := m
	n.forwardCnt = m.forwardCnt + 1
	return n
}

// WithCopies returns a new logical version carrying the given
// Spray-and-Wait copy budget.
func (m Message) WithCopies(l int) Message {
	n := m
	n.copies = l
	return n
}

// Split partitions the message into an ordered sequence of fragments, each
// at most maxFragmentSize bytes, per spec.md §4.9 point 7. Splitting a
// message that is already a fragment, or requesting a non-positive
// fragment size, is a caller error reported as (nil, error) rather than a
// panic, since it arises from configuration, not from an internal
// invariant break.
func (m Message) Split(maxFragmentSize int) ([]Message, error) {
	if m.IsFragment() {
		return nil, fmt.Errorf("message %s is already a fragment", m.id)
	}
	if maxFragmentSize <= 0 {
		return nil, fmt.Errorf("maxFragmentSize must be positive, got %d", maxFragmentSize)
	}
	var out []Message
	offset := 0
	for offset < m.size {
		length := maxFragmentSize
		if remaining := m.size - offset; remaining < length {
			length = remaining
		}
		frag := m
		frag.id = NewID()
		frag.size = length
		frag.fragment = &Fragment{ParentID: m.id, Range: Range{Offset: offset, Length: length}, ParentSize: m.size}
		out = append(out, frag)
		offset += length
	}
	return out, nil
}

// Reassembled reports whether a set of fragments, all belonging to the
// same parent, covers the full byte range [0, parentSize) with no gaps.
// Fragments are not required to be given in order or to be distinct
// instances, only to jointly cover the parent's range.
func Reassembled(fragments []Message, parentSize int) bool {
	if len(fragments) == 0 {
		return parentSize == 0
	}
	ranges := make([]Range, 0, len(fragments))
	for _, f := range fragments {
		fr, ok := f.FragmentInfo()
		if !ok {
			return false
		}
		ranges = append(ranges, fr.Range)
	}
	// Sort by offset (insertion sort is fine; fragment counts are small).
	for i := 1; i < len(ranges); i++ {
		for j := i; j > 0 && ranges[j].Offset < ranges[j-1].Offset; j-- {
			ranges[j], ranges[j-1] = ranges[j-1], ranges[j]
		}
	}
	covered := 0
	for _, r := range ranges {
		if r.Offset > covered {
			return false // gap
		}
		if r.End() > covered {
			covered = r.End()
		}
	}
	return covered >= parentSize
}

// Reassemble reconstructs the original, unfragmented message from a
// complete set of fragments (Reassembled must already report true). The
// reconstructed message carries the parent's original id
// (fragments[0]'s fragment.ParentID) and size, and every other field
// copied from fragments[0] — every fragment of one Split call shares
// those fields verbatim, so any fragment will do as the template.
func Reassemble(fragments []Message) (Message, bool) {
	if len(fragments) == 0 {
		return Message{}, false
	}
	fr, ok := fragments[0].FragmentInfo()
	if !ok {
		return Message{}, false
	}
	out := fragments[0]
	out.id = fr.ParentID
	out.size = fr.ParentSize
	out.fragment = nil
	return out, true
}
