// Package router implements the per-host router state machine (spec.md
// §4.9, component C10): coordinating start/receive/abort/complete across
// connections while respecting interference, duplicate suppression, TTL
// expiry, and message fragmentation.
//
// Grounded on the teacher's Peer (pkg/mcast/core/peer.go): the same
// process/reprocessMessage/doDeliver shape, generalized from the
// teacher's fixed S0→S1→S2→S3 timestamp-exchange state machine to
// spec.md's Idle→Negotiating→Sending→Done/Aborted/Interfered transfer
// states, and from the teacher's single GM-Cast delivery policy to the
// three pluggable Variant behaviors (Epidemic/SprayAndWait/Passive)
// spec.md names, sharing one scheduling skeleton.
package router

import (
	"github.com/dtnsim/dtnsim/pkg/dtnsim/cache"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/clock"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/interference"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/link"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/listener"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/logging"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/message"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/strategy"
)

// TransferState names the per (message, peer connection) state spec.md
// §4.9 describes. It is exposed mainly for tests and diagnostics; the
// router's actual control flow is driven by Connection/cache state, not
// by walking this enum.
type TransferState int

const (
	Idle TransferState = iota
	Negotiating
	Sending
	Done
	Aborted
	Interfered
)

// Variant tags one of the three router policies spec.md §4.9 names.
type Variant int

const (
	Epidemic Variant = iota
	SprayAndWait
	Passive
)

// Config bundles a Router's fixed configuration.
type Config struct {
	HostID             string
	Variant            Variant
	ForwardingKind     strategy.Kind
	ForwardingManager  *strategy.Manager
	MaxFragmentSize    int // 0 disables fragmentation
	SprayInitialCopies int // L0, used when this router originates a message under SprayAndWait
}

// Router is the per-host state machine driving transfers, delivery, and
// retries.
type Router struct {
	cfg   Config
	cache *cache.Manager
	clock *clock.Clock
	log   logging.Logger
	lst   listener.Listener

	fragCursor map[string]int // key: connID|msgID -> next fragment index to send
	assembly   map[message.ID][]message.Message
	pins       map[link.ConnectionID]pinnedSend // outgoing transfers this host has pinned
}

// pinnedSend records the cache entry a Pin is protecting on behalf of one
// outgoing transfer, so it can be released once conn reports that transfer
// resolved (spec.md §4.10).
type pinnedSend struct {
	conn *link.Connection
	id   message.ID
}

// New builds a Router for one host. If cfg.ForwardingManager is nil, the
// identity (Unchanged) post-processor is used.
func New(cfg Config, c *cache.Manager, clk *clock.Clock, log logging.Logger, lst listener.Listener) *Router {
	if cfg.ForwardingManager == nil {
		cfg.ForwardingManager = strategy.NewManager(strategy.Unchanged, nil)
	}
	return &Router{
		cfg:        cfg,
		cache:      c,
		clock:      clk,
		log:        log,
		lst:        lst,
		fragCursor: make(map[string]int),
		assembly:   make(map[message.ID][]message.Message),
		pins:       make(map[link.ConnectionID]pinnedSend),
	}
}

// HasMessage implements link.RouterPort.
func (r *Router) HasMessage(id message.ID) bool {
	return r.cache.Contains(id)
}

// Originate admits a freshly created message into this host's own cache,
// emitting NewMessage, and (for SprayAndWait) stamping it with the
// configured initial copy budget.
func (r *Router) Originate(m message.Message) {
	if r.cfg.Variant == SprayAndWait {
		l := r.cfg.SprayInitialCopies
		if l <= 0 {
			l = 1
		}
		m = m.WithCopies(l)
	}
	status, evicted, _ := r.cache.Admit(m)
	r.emitAdmission(m, status, evicted, true, false)
	r.lst.NewMessage(m)
}

// ReceiveMessage implements link.RouterPort: begin a reception, consulting
// the interference model and admission control (spec.md §4.9 point 2).
func (r *Router) ReceiveMessage(recv *link.Interface, m message.Message, conn *link.Connection) link.ReceiveResult {
	result := recv.Model.BeginNewReception(m, conn.SenderAddress(), string(conn.ID), recv.IsSending())
	switch result {
	case interference.ReceptionDeniedDueToSend:
		return link.DeniedUnspecified
	case interference.ReceptionInterfered:
		return link.DeniedInterference
	}

	// ReceptionOK: duplicate suppression and TTL/admission pre-checks
	// (spec.md §4.9 point 5, point 6).
	if r.cache.Contains(m.ID()) {
		recv.Model.AbortMessageReception(m.ID(), conn.SenderAddress())
		return link.DeniedOld
	}
	if m.Expired(r.clock.Now()) {
		recv.Model.AbortMessageReception(m.ID(), conn.SenderAddress())
		return link.DeniedOld
	}
	if r.cache.Size()+m.Size() > r.cache.Capacity() && !r.hasEvictableRoom(m) {
		recv.Model.AbortMessageReception(m.ID(), conn.SenderAddress())
		return link.DeniedLowPriority
	}
	r.lst.MessageTransferStarted(conn.SenderAddress(), r.cfg.HostID, m)
	return link.RcvOK
}

// hasEvictableRoom reports whether at least one cached entry could be
// evicted to admit m: any entry not belonging to this host as
// sender/recipient and (for priority-aware strategies) not already of
// equal-or-higher priority than m. Pinned entries are not excluded here;
// cache.Manager.Admit skips them when the message is actually admitted.
func (r *Router) hasEvictableRoom(m message.Message) bool {
	for _, e := range r.cache.Entries() {
		if e.Msg.From() == r.cfg.HostID || e.Msg.To() == r.cfg.HostID {
			continue
		}
		if r.cfg.ForwardingKind == strategy.PrioritizedFIFO || r.cfg.ForwardingKind == strategy.PrioritizedLFFFIFO {
			if e.Msg.Priority() >= m.Priority() {
				continue
			}
		}
		return true
	}
	return false
}

// MessageTransferred implements link.RouterPort: a Connection's byte
// transfer completed (spec.md §4.9 point 3).
func (r *Router) MessageTransferred(recv *link.Interface, m message.Message, conn *link.Connection) {
	status := recv.Model.IsMessageTransferredCorrectly(m.ID(), conn.SenderAddress())
	if status != interference.CompletedCorrectly {
		r.lst.MessageTransmissionInterfered(conn.SenderAddress(), r.cfg.HostID, m)
		recv.Model.AbortMessageReception(m.ID(), conn.SenderAddress())
		return
	}
	received, err := recv.Model.RetrieveTransferredMessage(m.ID(), conn.SenderAddress())
	if err != nil {
		return
	}
	received = received.WithReceived(r.cfg.HostID, r.clock.Now())

	if existing, ok := r.cache.Get(received.ID()); ok && existing.ReceiveTime() >= received.ReceiveTime() {
		return // duplicate suppression, spec.md §4.9 point 5
	}

	finalTarget := received.To() == r.cfg.HostID
	firstDelivery := finalTarget && !r.wasEverDelivered(received.ID())

	if received.IsFragment() {
		r.handleFragment(received, conn, finalTarget)
		return
	}

	status2, evicted, _ := r.cache.Admit(received)
	r.emitAdmission(received, status2, evicted, false, false)
	r.lst.MessageTransferred(conn.SenderAddress(), r.cfg.HostID, received, firstDelivery, finalTarget)
}

// wasEverDelivered is a conservative stand-in for "has this host already
// delivered message id to its application before" — in this core, a
// message still present in cache at its final target has not yet been
// consumed, so first delivery is simply "not already cached here".
func (r *Router) wasEverDelivered(id message.ID) bool {
	return r.cache.Contains(id)
}

// handleFragment folds a newly received fragment into the reassembly
// index (SPEC_FULL.md §C supplemented feature) and, once every byte range
// of the parent is covered, synthesizes the reassembled message and
// delivers it — but only at the final destination, per spec.md §4.9
// point 7 ("reassembly happens only at the final destination").
func (r *Router) handleFragment(frag message.Message, conn *link.Connection, finalTarget bool) {
	if !finalTarget {
		// Intermediate hosts just cache fragments like any other message
		// so they can keep relaying them onward.
		status, evicted, _ := r.cache.Admit(frag)
		r.emitAdmission(frag, status, evicted, false, false)
		r.lst.MessageTransferred(conn.SenderAddress(), r.cfg.HostID, frag, false, false)
		return
	}

	info, _ := frag.FragmentInfo()
	r.assembly[info.ParentID] = append(r.assembly[info.ParentID], frag)
	if !message.Reassembled(r.assembly[info.ParentID], info.ParentSize) {
		return
	}
	fragments := r.assembly[info.ParentID]
	delete(r.assembly, info.ParentID)

	reassembled, ok := message.Reassemble(fragments)
	if !ok {
		return
	}
	reassembled = reassembled.WithReceived(r.cfg.HostID, r.clock.Now())

	firstDelivery := !r.wasEverDelivered(reassembled.ID())
	status, evicted, _ := r.cache.Admit(reassembled)
	r.emitAdmission(reassembled, status, evicted, false, false)
	r.lst.MessageTransferred(conn.SenderAddress(), r.cfg.HostID, reassembled, firstDelivery, true)
}

func (r *Router) emitAdmission(m message.Message, status cache.AdmitStatus, evicted []message.Message, created bool, _ bool) {
	for _, ev := range evicted {
		r.lst.MessageDeleted(r.cfg.HostID, ev, true, listener.CauseEviction)
	}
	if status == cache.RejectedTooBig && !created {
		r.log.Warnf("message %s rejected: too big for cache", m.ID())
	}
}

// MessageTransferAborted implements link.RouterPort (spec.md §4.9 point
// 4): the reception is removed; the message is not marked delivered.
func (r *Router) MessageTransferAborted(recv *link.Interface, m message.Message, conn *link.Connection, reason string) {
	recv.Model.AbortMessageReception(m.ID(), conn.SenderAddress())
	r.lst.MessageTransferAborted(conn.SenderAddress(), r.cfg.HostID, m, reason)
}

// SweepTTL removes every cached message whose TTL has elapsed, emitting
// MessageDeleted(dropped=false, cause=TTL) for each (spec.md §4.9 point
// 6). It must be called once per tick by the owning Host.
func (r *Router) SweepTTL(now float64) {
	for _, m := range r.cache.List() {
		if m.Expired(now) {
			r.cache.Remove(m.ID())
			r.lst.MessageDeleted(r.cfg.HostID, m, false, listener.CauseTTL)
		}
	}
}

// OnTick walks ifaces' idle connections and, for each one ready to begin
// a transfer, offers the head of the forwarding candidate list (spec.md
// §4.9 point 1). Either endpoint of a connection may initiate; only one
// side will actually win a given tick, since the loser observes the
// connection already occupied once the winner runs first. Passive
// routers never initiate.
func (r *Router) OnTick(ifaces []*link.Interface) {
	r.reconcilePins()
	if r.cfg.Variant == Passive {
		return
	}
	for _, iface := range ifaces {
		for _, conn := range iface.Connections() {
			if _, inFlight := conn.Message(); inFlight {
				continue
			}
			if !iface.IsReadyToBeginTransfer() {
				continue
			}
			r.offerOnConnection(iface, conn)
		}
	}
}

// reconcilePins releases the pin held on behalf of every outgoing transfer
// this router started that has since resolved (delivered, denied, or
// aborted) — observable as conn no longer reporting a message in flight.
// Pin/Unpin implement spec.md §4.10's "a message with an active outgoing
// transfer is pinned until the transfer resolves".
func (r *Router) reconcilePins() {
	for connID, pinned := range r.pins {
		if _, inFlight := pinned.conn.Message(); inFlight {
			continue
		}
		r.cache.Unpin(pinned.id)
		delete(r.pins, connID)
	}
}

func (r *Router) offerOnConnection(iface *link.Interface, conn *link.Connection) {
	peer, err := conn.GetOtherInterface(iface)
	if err != nil {
		return
	}
	peerHostID := peer.Host.HostID()
	candidates := r.forwardingCandidates(conn, peer, peerHostID)
	if len(candidates) == 0 {
		return
	}
	head := candidates[0].(*cache.Entry).Msg
	toSend, ok := r.prepareForSend(head, peerHostID, conn)
	if !ok {
		return
	}

	// Pin the cached entry this transfer is relaying before handing it to
	// the connection, so a concurrent Admit on foreign traffic can't evict
	// it out from under an in-flight send (spec.md §4.10). Released once
	// reconcilePins observes the transfer has resolved.
	r.cache.Pin(head.ID())
	result := iface.SendUnicastMessageViaConnection(toSend, conn)
	if result != link.UnicastOK {
		r.cache.Unpin(head.ID())
		return
	}
	r.pins[conn.ID] = pinnedSend{conn: conn, id: head.ID()}
}

// forwardingCandidates builds the forwarding-order-strategy-sorted,
// decay-manager-postprocessed candidate list: every cached message the
// peer doesn't already hold and that hasn't expired.
func (r *Router) forwardingCandidates(conn *link.Connection, peer *link.Interface, peerHostID string) []strategy.Item {
	var items []strategy.Item
	for _, e := range r.cache.Entries() {
		if e.Msg.Expired(r.clock.Now()) {
			continue
		}
		if peer.Router.HasMessage(e.Msg.ID()) {
			continue
		}
		if r.cfg.Variant == SprayAndWait && e.Msg.Copies() <= 1 && e.Msg.To() != peerHostID {
			continue // L=1: only direct delivery to the final destination
		}
		items = append(items, e)
	}
	strategy.Sort(items, r.cfg.ForwardingKind, false)
	return r.cfg.ForwardingManager.Apply(items)
}

// prepareForSend applies fragmentation and Spray-and-Wait copy-count
// bookkeeping to the chosen candidate, returning the concrete message to
// place on the wire for this one attempt.
func (r *Router) prepareForSend(m message.Message, peerHostID string, conn *link.Connection) (message.Message, bool) {
	out := m
	if r.cfg.Variant == SprayAndWait && m.To() != peerHostID {
		l := m.Copies()
		if l <= 1 {
			return message.Message{}, false
		}
		peerShare := l / 2
		selfShare := l - peerShare
		out = out.WithCopies(peerShare)
		r.applyCopyUpdate(m.ID(), selfShare)
	}
	out = out.WithForwardBump()

	if r.cfg.MaxFragmentSize > 0 && !out.IsFragment() && out.Size() > r.cfg.MaxFragmentSize {
		fragments, err := out.Split(r.cfg.MaxFragmentSize)
		if err != nil {
			return message.Message{}, false
		}
		key := string(conn.ID) + "|" + string(out.ID())
		idx := r.fragCursor[key]
		if idx >= len(fragments) {
			delete(r.fragCursor, key)
			return message.Message{}, false
		}
		r.fragCursor[key] = idx + 1
		return fragments[idx], true
	}
	return out, true
}

// applyCopyUpdate rewrites the cached copy of m (by id) with the new
// Spray-and-Wait copy budget the sender keeps after relaying.
func (r *Router) applyCopyUpdate(id message.ID, selfShare int) {
	m, ok := r.cache.Get(id)
	if !ok {
		return
	}
	m = m.WithCopies(selfShare)
	r.cache.Remove(id)
	status, evicted, _ := r.cache.Admit(m)
	r.emitAdmission(m, status, evicted, false, false)
}
