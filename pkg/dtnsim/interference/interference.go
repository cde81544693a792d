// Package interference implements the interference model (spec.md §4.4,
// component C5): the rule deciding whether concurrent receptions at one
// interface succeed. One Model instance is owned by each receiving
// NetworkInterface.
//
// Grounded on the teacher's types.PreviousSet (pkg/mcast/core): a map
// keyed by a composite identity, holding entries that are only ever
// cleared by an explicit removal call, with a "Conflicts" predicate
// evaluated against the live set before a new entry is added — the same
// shape spec.md asks for here (an active-reception map keyed by
// (msgId, senderAddress), purged only via retrieval or abort).
package interference

import (
	"fmt"

	"github.com/dtnsim/dtnsim/pkg/dtnsim/dtnerr"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/message"
)

// BeginResult is the outcome of registering a new reception.
type BeginResult int

const (
	ReceptionOK BeginResult = iota
	ReceptionDeniedDueToSend
	ReceptionInterfered
)

// CompletionStatus is the outcome of checking whether a reception
// finished transferring correctly.
type CompletionStatus int

const (
	CompletedCorrectly CompletionStatus = iota
	Incomplete
	MessageIDNotFound
)

// key identifies one active reception: "msgId ⊕ senderAddress" per
// spec.md §3.
type key struct {
	msgID  message.ID
	sender string
}

type reception struct {
	msg        message.Message
	connID     string
	complete   bool
	interfered bool
}

// Model is the interface a receiving NetworkInterface consults for every
// incoming frame.
type Model interface {
	// BeginNewReception registers a new reception of m arriving over
	// connID from sender. selfTransmitting reports whether the receiving
	// interface is itself currently sending (used by the no-interference
	// variant to deny reception while transmitting).
	BeginNewReception(m message.Message, sender, connID string, selfTransmitting bool) BeginResult

	// MarkComplete flags the reception identified by (msgID, sender) as
	// byte-complete; called by Connection.Update when bytesRemaining
	// reaches zero.
	MarkComplete(msgID message.ID, sender string)

	// IsMessageTransferredCorrectly reports whether the reception
	// finished without interference.
	IsMessageTransferredCorrectly(msgID message.ID, sender string) CompletionStatus

	// ForceInterference marks an ongoing reception as interfered,
	// returning the affected message.
	ForceInterference(msgID message.ID, sender string) (message.Message, bool)

	// RetrieveTransferredMessage removes and returns a completed,
	// non-interfered reception. It is an InvariantError to call this for
	// an id that isn't registered.
	RetrieveTransferredMessage(msgID message.ID, sender string) (message.Message, error)

	// AbortMessageReception removes the reception identified by
	// (msgID, sender), returning the message for upstream notification.
	AbortMessageReception(msgID message.ID, sender string) (message.Message, bool)
}

// base holds the bookkeeping shared by both variants.
type base struct {
	active map[key]*reception
}

func newBase() base {
	return base{active: make(map[key]*reception)}
}

func (b *base) get(msgID message.ID, sender string) (*reception, bool) {
	r, ok := b.active[key{msgID, sender}]
	return r, ok
}

func (b *base) MarkComplete(msgID message.ID, sender string) {
	if r, ok := b.get(msgID, sender); ok {
		r.complete = true
	}
}

func (b *base) IsMessageTransferredCorrectly(msgID message.ID, sender string) CompletionStatus {
	r, ok := b.get(msgID, sender)
	if !ok {
		return MessageIDNotFound
	}
	if r.complete && !r.interfered {
		return CompletedCorrectly
	}
	return Incomplete
}

func (b *base) ForceInterference(msgID message.ID, sender string) (message.Message, bool) {
	r, ok := b.get(msgID, sender)
	if !ok {
		return message.Message{}, false
	}
	r.interfered = true
	return r.msg, true
}

func (b *base) RetrieveTransferredMessage(msgID message.ID, sender string) (message.Message, error) {
	r, ok := b.get(msgID, sender)
	if !ok {
		return message.Message{}, dtnerr.NewInvariantError("reception-id-not-found", map[string]interface{}{
			"msgID":  msgID,
			"sender": sender,
		})
	}
	if !r.complete || r.interfered {
		return message.Message{}, fmt.Errorf("reception %s from %s not ready for retrieval", msgID, sender)
	}
	delete(b.active, key{msgID, sender})
	return r.msg, nil
}

func (b *base) AbortMessageReception(msgID message.ID, sender string) (message.Message, bool) {
	r, ok := b.get(msgID, sender)
	if !ok {
		return message.Message{}, false
	}
	delete(b.active, key{msgID, sender})
	return r.msg, true
}

// NoInterferences is the variant that synchronizes with any incoming
// frame while idle: a new reception always succeeds unless the receiving
// interface is itself transmitting, and concurrent receptions from
// distinct senders never interfere with each other.
type NoInterferences struct {
	base
}

// NewNoInterferences builds the NoInterferences variant.
func NewNoInterferences() *NoInterferences {
	return &NoInterferences{base: newBase()}
}

func (n *NoInterferences) BeginNewReception(m message.Message, sender, connID string, selfTransmitting bool) BeginResult {
	if selfTransmitting {
		return ReceptionDeniedDueToSend
	}
	n.active[key{m.ID(), sender}] = &reception{msg: m, connID: connID}
	return ReceptionOK
}

// AlwaysPossible is the variant where collisions are possible whenever
// any overlap exists: if another reception is already active at this
// interface when a new one begins, both the new and every pre-existing
// active reception become interfered.
type AlwaysPossible struct {
	base
}

// NewAlwaysPossible builds the AlwaysPossible variant.
func NewAlwaysPossible() *AlwaysPossible {
	return &AlwaysPossible{base: newBase()}
}

func (a *AlwaysPossible) BeginNewReception(m message.Message, sender, connID string, selfTransmitting bool) BeginResult {
	if selfTransmitting {
		return ReceptionDeniedDueToSend
	}
	overlapping := len(a.active) > 0
	r := &reception{msg: m, connID: connID, interfered: overlapping}
	if overlapping {
		for _, other := range a.active {
			other.interfered = true
		}
	}
	a.active[key{m.ID(), sender}] = r
	if overlapping {
		return ReceptionInterfered
	}
	return ReceptionOK
}
