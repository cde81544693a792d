package link

import (
	"math"

	"github.com/dtnsim/dtnsim/pkg/dtnsim/dtnerr"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/interference"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/logging"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/message"
)

// InterfaceID identifies a NetworkInterface, unique across the
// simulation.
type InterfaceID string

// Kind distinguishes the Simple (CBR) interface from the
// InterferenceLimited (VBR) one (spec.md §4.3).
type Kind int

const (
	Simple Kind = iota
	InterferenceLimited
)

// HostInfo is the slice of Host state a NetworkInterface needs, kept as
// an interface so package link never imports package host (host composes
// link, not the other way around).
type HostInfo interface {
	HostID() string
	Position() (x, y float64)
	Active() bool
}

// GeometryOptimizer is the consumed spatial-index interface of spec.md §6
// ("Host boundary (consumed)"): a read-mostly index mapping coordinates
// to nearby interfaces, rebuilt incrementally per tick.
type GeometryOptimizer interface {
	UpdateLocation(iface *Interface)
	GetNearInterfaces(iface *Interface) []*Interface
}

// UnicastResult is the outcome of Interface.SendUnicastMessageViaConnection.
type UnicastResult int

const (
	UnicastOK UnicastResult = iota
	UnicastDenied
	UnicastFailed
)

// BroadcastResult is the outcome of Interface.SendBroadcastMessage.
type BroadcastResult int

const (
	BroadcastOK BroadcastResult = iota
	BroadcastDenied
)

// Interface is a per-host radio (spec.md §4.3, component C4). The common
// bookkeeping (connections, range, speed) is shared by both Kind values,
// per spec.md §9's "capability trait + two concrete variants" design
// note; there is no separate type hierarchy, only this struct switching
// on Kind at the two points behavior actually differs (connect admission
// and per-tick speed).
type Interface struct {
	ID            InterfaceID
	Host          HostInfo
	Kind          Kind
	TransmitRange float64
	TransmitSpeed int // configured bytes/sec ceiling (CBR's fixed speed, or VBR's maxSpeed)
	Scanning      bool
	Model         interference.Model
	Geometry      GeometryOptimizer
	Router        RouterPort
	Log           logging.Logger

	connections map[ConnectionID]*Connection
	connSeq     uint64
}

// NewInterface builds an Interface. Router, Geometry, and Model must be
// set (directly or via NewInterface's arguments) before the interface is
// ticked.
func NewInterface(id InterfaceID, host HostInfo, kind Kind, transmitRange float64, transmitSpeed int, geometry GeometryOptimizer, model interference.Model, router RouterPort, log logging.Logger) *Interface {
	return &Interface{
		ID:            id,
		Host:          host,
		Kind:          kind,
		TransmitRange: transmitRange,
		TransmitSpeed: transmitSpeed,
		Scanning:      true,
		Model:         model,
		Geometry:      geometry,
		Router:        router,
		Log:           log,
		connections:   make(map[ConnectionID]*Connection),
	}
}

// Connections returns a snapshot slice of the interface's live
// connections.
func (iface *Interface) Connections() []*Connection {
	out := make([]*Connection, 0, len(iface.connections))
	for _, c := range iface.connections {
		out = append(out, c)
	}
	return out
}

// ConnectedTo reports whether a connection already exists (in either
// direction) between iface and peer.
func (iface *Interface) ConnectedTo(peer *Interface) bool {
	for _, c := range iface.connections {
		if (c.A == iface && c.B == peer) || (c.A == peer && c.B == iface) {
			return true
		}
	}
	return false
}

func (iface *Interface) withinRange(peer *Interface) bool {
	x1, y1 := iface.Host.Position()
	x2, y2 := peer.Host.Position()
	dx, dy := x1-x2, y1-y2
	dist2 := dx*dx + dy*dy
	r := math.Min(iface.TransmitRange, peer.TransmitRange)
	return dist2 <= r*r
}

// IsSending reports whether iface is currently the sending side of any
// live connection carrying a message.
func (iface *Interface) IsSending() bool {
	for _, c := range iface.connections {
		if c.sender == iface && c.msg != nil && c.up {
			return true
		}
	}
	return false
}

// IsReadyToBeginTransfer reports whether iface may start sending a new
// message right now (spec.md §4.3). The Simple variant allows only one
// outgoing transmission at a time; InterferenceLimited allows concurrent
// sends (contention is handled by the VBR speed recompute instead).
func (iface *Interface) IsReadyToBeginTransfer() bool {
	if iface.Kind == Simple {
		return !iface.IsSending()
	}
	return true
}

// Connect opens a new connection, with iface as its opener, to peer iff iface is
// scanning, peer's host is active, they're within range, not already
// connected, and iface != peer (spec.md §4.3). Returns (nil, false) if
// any precondition fails — this is normal control flow, not an error.
func (iface *Interface) Connect(peer *Interface, variant Variant, now float64) (*Connection, bool) {
	if iface == peer {
		return nil, false
	}
	if !iface.Scanning || !peer.Host.Active() || !iface.withinRange(peer) || iface.ConnectedTo(peer) {
		return nil, false
	}
	iface.connSeq++
	id := ConnectionID(string(iface.ID) + "->" + string(peer.ID) + "#" + itoa(iface.connSeq))
	maxSpeed := iface.TransmitSpeed
	if peer.TransmitSpeed < maxSpeed {
		maxSpeed = peer.TransmitSpeed
	}
	conn := NewConnection(id, iface, peer, variant, maxSpeed, now)

	if iface.Kind == Simple && iface.IsSending() {
		// Duplicate the ongoing transfer onto the freshly opened
		// connection (spec.md §4.3).
		for _, existing := range iface.connections {
			if existing.sender == iface && existing.msg != nil {
				existing.Duplicate(conn)
				break
			}
		}
	}

	iface.connections[id] = conn
	peer.connections[id] = conn
	return conn, true
}

// Drop removes conn from iface's connection set, calling Abort if it
// hasn't already been aborted. Both endpoints must observe the drop:
// since both interfaces tick once per driver step and both hold the same
// *Connection, both independently see Up()==false on their next Update
// step and remove it (spec.md §3: "connection is jointly referenced by
// its two endpoints").
func (iface *Interface) Drop(conn *Connection, reason string) {
	if conn.up {
		conn.Abort(reason)
	}
	delete(iface.connections, conn.ID)
}

// SendUnicastMessageViaConnection starts a transfer of m over conn, with
// iface as the sending endpoint (spec.md §4.3). iface must be one of
// conn's two endpoints.
func (iface *Interface) SendUnicastMessageViaConnection(m message.Message, conn *Connection) UnicastResult {
	if !iface.IsReadyToBeginTransfer() {
		return UnicastDenied
	}
	result, err := conn.StartTransfer(iface, m)
	if err != nil {
		return UnicastFailed
	}
	switch result {
	case RcvOK, DeniedInterference:
		return UnicastOK
	default:
		return UnicastFailed
	}
}

// SendBroadcastMessage fans m out to every connection iface currently
// holds, regardless of which side opened it. Per spec.md §4.3,
// isReadyToBeginTransfer is checked first, so any UNICAST_FAILED/
// UNICAST_DENIED result from the per-connection sends is an
// InvariantError — it would mean the ready check lied.
func (iface *Interface) SendBroadcastMessage(m message.Message) (BroadcastResult, []*Connection) {
	if !iface.IsReadyToBeginTransfer() {
		return BroadcastDenied, nil
	}
	var sent []*Connection
	for _, conn := range iface.connections {
		result, err := conn.StartTransfer(iface, m)
		if err != nil || (result != RcvOK && result != DeniedInterference) {
			panic(newBroadcastInvariant(iface.ID, conn.ID, result))
		}
		sent = append(sent, conn)
	}
	return BroadcastOK, sent
}

func newBroadcastInvariant(iface InterfaceID, conn ConnectionID, result ReceiveResult) error {
	return dtnerr.NewInvariantError("broadcast-after-ready-check-failed", map[string]interface{}{
		"interface":  iface,
		"connection": conn,
		"result":     result.String(),
	})
}

// Update runs the normative five-step per-tick sequence of spec.md §4.3.
func (iface *Interface) Update(dt, now float64) {
	// Step 1: refresh our location in the geometry index.
	if iface.Geometry != nil {
		iface.Geometry.UpdateLocation(iface)
	}

	// Step 2: drop every connection whose peer is out of range.
	for _, conn := range iface.Connections() {
		other, err := conn.GetOtherInterface(iface)
		if err != nil {
			continue
		}
		if !conn.up || !iface.withinRange(other) || !other.Host.Active() || !iface.Host.Active() {
			iface.Drop(conn, "out-of-range")
		}
	}

	// Step 3: discover neighbors and attempt to connect.
	if iface.Geometry != nil {
		variant := CBR
		if iface.Kind == InterferenceLimited {
			variant = VBR
		}
		for _, peer := range iface.Geometry.GetNearInterfaces(iface) {
			iface.Connect(peer, variant, now)
		}
	}

	// Step 4 (VBR only): recount current transmissions and update speed.
	if iface.Kind == InterferenceLimited {
		iface.recomputeVBRSpeeds()
	}

	// Step 5: tick every live connection, once, from its current sender's
	// side.
	for _, conn := range iface.Connections() {
		if conn.sender != iface {
			continue
		}
		conn.Update(dt)
	}
}

// recomputeVBRSpeeds applies the Gupta-Kumar capacity recompute (spec.md
// §4.2) to every connection where iface is the receiver: n is the count
// of distinct interfaces sharing this medium (every interface party to an
// active connection touching iface, iface included), k is the number of
// concurrent transmissions arriving at iface. Per spec.md §9's Open
// Question #2, n is promoted to at least 2 unconditionally, matching the
// spec's own worked example (three mutually-in-range hosts give n=3, not
// n=2 senders-only) — see DESIGN.md.
func (iface *Interface) recomputeVBRSpeeds() {
	participants := map[InterfaceID]struct{}{iface.ID: {}}
	var inbound []*Connection
	for _, conn := range iface.connections {
		if conn.sender != nil && conn.sender != iface && conn.msg != nil && conn.up {
			inbound = append(inbound, conn)
			participants[conn.sender.ID] = struct{}{}
		}
	}
	if len(inbound) == 0 {
		return
	}
	n := len(participants)
	if n < 2 {
		n = 2
	}
	k := len(inbound)
	if k < 1 {
		k = 1
	}
	speed := int(math.Floor(float64(iface.TransmitSpeed) / math.Sqrt(float64(n)*math.Log(float64(n))) / float64(k)))
	for _, conn := range inbound {
		conn.SetSpeed(speed)
	}
}

func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}
