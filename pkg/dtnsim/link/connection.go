// Package link implements the contact & transfer engine: Connection
// (spec.md §4.2, component C3) and NetworkInterface (spec.md §4.3,
// component C4).
//
// Grounded on the teacher's Transport interface
// (pkg/mcast/core/transport.go: Broadcast/Unicast/Listen/Close) for the
// send/receive shape, re-pointed from the teacher's cross-process relt
// broadcast onto an in-process, byte-budget-ticked link (spec.md §5: no
// network I/O, long transfers spread across ticks by decrementing
// bytesRemaining). Cyclic references (interface ↔ connection ↔ peer
// interface) are resolved with direct Go pointers rather than the
// id-indexed arena spec.md §9 suggests: unlike the source's original
// language, Go's garbage collector handles pointer cycles natively, so
// the arena pattern is applied only where it earns its keep — at the top
// level, Simulation owns hosts in an id-keyed map (see package sim) — and
// skipped for the interior Connection/Interface graph.
package link

import (
	"github.com/dtnsim/dtnsim/pkg/dtnsim/dtnerr"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/message"
)

// ConnectionID identifies a Connection for logging and lookup.
type ConnectionID string

// ReceiveResult is the outcome of Connection.StartTransfer (spec.md §4.2).
type ReceiveResult int

const (
	RcvOK ReceiveResult = iota
	DeniedOld
	DeniedLowPriority
	DeniedInterference
	DeniedUnspecified
)

func (r ReceiveResult) String() string {
	switch r {
	case RcvOK:
		return "RCV_OK"
	case DeniedOld:
		return "DENIED_OLD"
	case DeniedLowPriority:
		return "DENIED_LOW_PRIORITY"
	case DeniedInterference:
		return "DENIED_INTERFERENCE"
	default:
		return "DENIED_UNSPECIFIED"
	}
}

// RouterPort is the receiver-side hook a Connection calls into: the
// router of the host owning the receiving Interface. Kept as an
// interface (rather than importing package router) so link has no
// dependency on router, matching the teacher's Transport/consumer split.
type RouterPort interface {
	// ReceiveMessage begins a reception of m arriving at recv over conn,
	// consulting the interference model, duplicate suppression, and
	// admission control (spec.md §4.9 point 2).
	ReceiveMessage(recv *Interface, m message.Message, conn *Connection) ReceiveResult

	// MessageTransferred is called once a Connection's bytesRemaining
	// reaches zero (spec.md §4.9 point 3).
	MessageTransferred(recv *Interface, m message.Message, conn *Connection)

	// MessageTransferAborted is called when a Connection drops mid
	// transfer (spec.md §4.9 point 4).
	MessageTransferAborted(recv *Interface, m message.Message, conn *Connection, reason string)

	// HasMessage reports whether this router's host cache already holds
	// id. Used by the offering side's forwarding candidate filter
	// (spec.md §4.9 point 1: "peer does not already hold this message").
	// A real deployed DTN router cannot see a peer's cache directly; the
	// simulation core is allowed to, the same way the teacher's tests
	// read back every replica's state for verification.
	HasMessage(id message.ID) bool
}

// Variant distinguishes CBR from VBR connections (spec.md §4.2).
type Variant int

const (
	CBR Variant = iota
	VBR
)

// Connection is the link between two interfaces, A and B — the naming
// records only who opened it (spec.md §3: "created on discovery by
// either side"), not a permanent send direction. Either endpoint may
// call StartTransfer while the connection is idle; sender tracks
// whichever one is currently (or was most recently) occupying it, so
// "exactly one message in flight per direction at a time" (spec.md §3)
// is enforced per transfer rather than nailed to A forever. Per spec.md
// §3, "a connection is jointly referenced by its two endpoints but
// owned by the sender side for lifecycle": A.Drop(conn) and B observing
// the drop are both required, see Interface.update step 2.
type Connection struct {
	ID      ConnectionID
	A, B    *Interface
	Variant Variant

	// maxSpeed is the configured bytes/sec: the fixed CBR speed, or the
	// VBR "maxSpeed" parameter of the Gupta-Kumar formula.
	maxSpeed int
	// speed is the effective current bytes/sec: constant for CBR,
	// recomputed every tick for VBR (spec.md §4.2).
	speed int

	sender         *Interface // who sent (or last sent) the current/last msg
	msg            *message.Message
	bytesRemaining int
	up             bool
	startTime      float64

	// justCompleted marks the one tick during which a finished transfer is
	// still observable via IsMessageTransferred/Message before the next
	// Update call clears it to make the connection available again
	// (spec.md §4.2).
	justCompleted bool

	lastDenial ReceiveResult
}

// receiverOf returns the endpoint opposite sender.
func (c *Connection) receiverOf(sender *Interface) *Interface {
	if sender == c.A {
		return c.B
	}
	return c.A
}

// NewConnection opens a connection between a (the opener) and b with the
// given transport variant and max speed. It starts up; the caller (Interface)
// is responsible for tearing it down once out of range.
func NewConnection(id ConnectionID, a, b *Interface, variant Variant, maxSpeed int, now float64) *Connection {
	return &Connection{
		ID:        id,
		A:         a,
		B:         b,
		Variant:   variant,
		maxSpeed:  maxSpeed,
		speed:     maxSpeed,
		up:        true,
		startTime: now,
	}
}

// Up reports whether the connection is currently active.
func (c *Connection) Up() bool { return c.up }

// Speed returns the connection's current effective bytes/sec.
func (c *Connection) Speed() int { return c.speed }

// Message returns the in-flight (or just-completed, see
// IsMessageTransferred) message, if any.
func (c *Connection) Message() (message.Message, bool) {
	if c.msg == nil {
		return message.Message{}, false
	}
	return *c.msg, true
}

// BytesRemaining returns the remaining byte count of the in-flight
// transfer.
func (c *Connection) BytesRemaining() int { return c.bytesRemaining }

// SenderAddress identifies the sending interface for interference-model
// reception keys ("msgId ⊕ senderAddress", spec.md §3): whoever is
// currently (or was most recently) occupying the connection.
func (c *Connection) SenderAddress() string {
	if c.sender == nil {
		return string(c.A.ID)
	}
	return string(c.sender.ID)
}

// GetOtherInterface returns the peer endpoint of self. It is an
// InvariantError for self to not be one of the connection's two
// endpoints (spec.md §4.2).
func (c *Connection) GetOtherInterface(self *Interface) (*Interface, error) {
	switch self {
	case c.A:
		return c.B, nil
	case c.B:
		return c.A, nil
	default:
		return nil, dtnerr.NewInvariantError("connection-endpoint-mismatch", map[string]interface{}{
			"connection": c.ID,
		})
	}
}

// StartTransfer assigns m to this connection and asks the receiver's
// router to begin reception (spec.md §4.2). Either endpoint may call
// this; it is an InvariantError for sender to not be one of the
// connection's two interfaces.
func (c *Connection) StartTransfer(sender *Interface, m message.Message) (ReceiveResult, error) {
	if sender != c.A && sender != c.B {
		return DeniedUnspecified, dtnerr.NewInvariantError("start-transfer-not-endpoint", map[string]interface{}{
			"connection": c.ID,
		})
	}
	receiver := c.receiverOf(sender)
	// The receiver keys its reception by SenderAddress, so sender must be
	// recorded before the receiver's router is consulted.
	prevSender := c.sender
	c.sender = sender
	result := receiver.Router.ReceiveMessage(receiver, m, c)
	c.lastDenial = result
	switch result {
	case RcvOK, DeniedInterference:
		// Both cases still occupy the connection: DENIED_INTERFERENCE is
		// "sent, but lost in the air" — the sender counts it as an
		// attempted transfer (spec.md §4.2, §4.10).
		mm := m
		c.msg = &mm
		c.bytesRemaining = m.Size()
		c.justCompleted = false
	default:
		c.sender = prevSender
	}
	return result, nil
}

// Update advances the in-flight transfer by dt seconds, decrementing
// bytesRemaining by speed*dt, floored at zero. When bytesRemaining
// reaches zero, the receiver's interference model is told the reception is
// byte-complete (Model.MarkComplete), the receiver's router is notified via
// RouterPort.MessageTransferred, and the transfer's message stays
// readable through Message/IsMessageTransferred for one more tick before
// this same call clears it, freeing the connection for its next transfer
// (by either endpoint).
func (c *Connection) Update(dt float64) {
	if c.justCompleted {
		c.justCompleted = false
		c.msg = nil
		c.bytesRemaining = 0
	}
	if c.msg == nil || !c.up {
		return
	}
	c.bytesRemaining -= int(float64(c.speed) * dt)
	if c.bytesRemaining < 0 {
		c.bytesRemaining = 0
	}
	if c.bytesRemaining == 0 {
		m := *c.msg
		receiver := c.receiverOf(c.sender)
		if receiver.Model != nil {
			receiver.Model.MarkComplete(m.ID(), c.SenderAddress())
		}
		receiver.Router.MessageTransferred(receiver, m, c)
		c.justCompleted = true
	}
}

// IsMessageTransferred reports whether the transfer that last occupied
// this connection finished, for the one tick between that completion and
// the next Update (or StartTransfer) call, which clears it to make the
// connection available again (spec.md §4.2).
func (c *Connection) IsMessageTransferred() bool {
	return c.justCompleted
}

// Abort clears the in-flight message and notifies the receiving side,
// per spec.md §4.10 ("out-of-range mid-transfer" and similar
// cancellations). A transfer that already finished (justCompleted) has
// nothing left to abort; Abort only discards the not-yet-cleared residue
// instead of re-notifying the receiver.
func (c *Connection) Abort(reason string) {
	c.up = false
	if c.justCompleted {
		c.justCompleted = false
		c.msg = nil
		c.bytesRemaining = 0
		return
	}
	if c.msg == nil {
		return
	}
	m := *c.msg
	receiver := c.receiverOf(c.sender)
	c.msg = nil
	c.bytesRemaining = 0
	receiver.Router.MessageTransferAborted(receiver, m, c, reason)
}

// Duplicate re-targets the in-flight message onto a freshly opened
// connection with bytesRemaining reset to the message's full size,
// matching spec.md §4.3's "simple broadcast" duplication behavior and the
// §9 Open Question decision recorded in DESIGN.md (the already-sent
// prefix is not preserved).
func (c *Connection) Duplicate(onto *Connection) {
	if c.msg == nil || c.justCompleted {
		return
	}
	m := *c.msg
	onto.sender = c.sender
	onto.msg = &m
	onto.bytesRemaining = m.Size()
}

// SetSpeed is used by the VBR variant's per-tick Gupta-Kumar recompute
// (Interface.update step 4).
func (c *Connection) SetSpeed(speed int) {
	if speed < 0 {
		speed = 0
	}
	c.speed = speed
}

// MaxSpeed returns the connection's configured ceiling speed.
func (c *Connection) MaxSpeed() int { return c.maxSpeed }

// StartTime returns the simulation time the connection came up.
func (c *Connection) StartTime() float64 { return c.startTime }
