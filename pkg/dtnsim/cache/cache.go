// Package cache implements the message cache manager (spec.md §4.5,
// component C6): a finite-size buffered store of messages with
// eviction driven by a pluggable strategy.Kind.
//
// Grounded on the teacher's types.Log / types.Storage pair (an ordered,
// appendable store consulted by the state machine) and on rqueue's
// ordered-enqueue role in pkg/mcast/core/peer.go, but reshaped around
// spec.md's admit/evict contract instead of the teacher's commit-log
// semantics.
package cache

import (
	"github.com/dtnsim/dtnsim/internal/rng"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/message"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/strategy"
)

// AdmitStatus is the result of attempting to admit a message, per
// spec.md §4.5.
type AdmitStatus int

const (
	Admitted AdmitStatus = iota
	RejectedTooBig
	Evicted
)

// Entry wraps a cached message with the bookkeeping the caching-priority
// strategies need (strategy.Item) plus the pin bit spec.md §4.10
// requires: "a message with an active outgoing transfer is pinned until
// the transfer resolves".
type Entry struct {
	Msg       message.Message
	insertSeq uint64
	randomKey float64
	pinned    int // reference count of in-flight outgoing transfers
}

func (e *Entry) ReceiveTime() float64 { return e.Msg.ReceiveTime() }
func (e *Entry) Priority() int        { return e.Msg.Priority() }
func (e *Entry) ForwardTimes() int    { return e.Msg.ForwardTimes() }
func (e *Entry) RandomKey() float64   { return e.randomKey }
func (e *Entry) InsertSeq() uint64    { return e.insertSeq }

// Manager is a per-host finite-size buffered message store.
type Manager struct {
	hostID      string
	capacity    int
	currentSize int
	entries     map[message.ID]*Entry
	seq         uint64
	kind        strategy.Kind
	source      *rng.Source
}

// New builds a Manager owned by hostID with the given byte capacity,
// ordered/evicted per kind. source feeds the Random strategy's uniform
// draw and may be nil for any other kind.
func New(hostID string, capacity int, kind strategy.Kind, source *rng.Source) *Manager {
	return &Manager{
		hostID:   hostID,
		capacity: capacity,
		entries:  make(map[message.ID]*Entry),
		kind:     kind,
		source:   source,
	}
}

// Capacity returns the configured byte capacity.
func (m *Manager) Capacity() int { return m.capacity }

// Size returns the current total size in bytes of all cached messages.
func (m *Manager) Size() int { return m.currentSize }

// Contains reports whether id is currently cached.
func (m *Manager) Contains(id message.ID) bool {
	_, ok := m.entries[id]
	return ok
}

// Get returns the cached message for id, if present.
func (m *Manager) Get(id message.ID) (message.Message, bool) {
	e, ok := m.entries[id]
	if !ok {
		return message.Message{}, false
	}
	return e.Msg, true
}

// Remove deletes id from the cache, if present, adjusting the running
// size total. Removing an absent id is a no-op, matching spec.md §8's
// "empty cache rejects get/remove with 'not found'" boundary by simply
// reporting false rather than raising an error for what is normal control
// flow (TTL sweep, delivery cleanup, duplicate suppression all call this
// speculatively).
func (m *Manager) Remove(id message.ID) bool {
	e, ok := m.entries[id]
	if !ok {
		return false
	}
	m.currentSize -= e.Msg.Size()
	delete(m.entries, id)
	return true
}

// Pin marks id as having an active outgoing transfer, excluding it from
// eviction consideration until a matching Unpin. Pins nest: a message
// with the same outgoing transfer racing onto two connections (duplicate
// transfer, spec.md §4.3) stays pinned until both resolve.
func (m *Manager) Pin(id message.ID) {
	if e, ok := m.entries[id]; ok {
		e.pinned++
	}
}

// Unpin releases one pin on id.
func (m *Manager) Unpin(id message.ID) {
	if e, ok := m.entries[id]; ok && e.pinned > 0 {
		e.pinned--
	}
}

// Admit attempts to store m, evicting in reverse caching-priority order
// if needed to make room. Per spec.md §4.5: messages belonging to this
// host as sender or recipient are never evicted to make room for foreign
// traffic, and (per spec.md §4.10) pinned messages are never evicted.
//
// If m.Size() exceeds capacity outright, or there is not enough evictable
// (unpinned, foreign) space to make room even after evicting every
// eligible candidate, Admit returns RejectedTooBig — spec.md names no
// third outcome for "evictable space insufficient", so this case is
// folded into the same rejection the size-alone check produces.
func (m *Manager) Admit(msg message.Message) (AdmitStatus, []message.Message, error) {
	if msg.Size() > m.capacity {
		return RejectedTooBig, nil, nil
	}
	existing, hadExisting := m.entries[msg.ID()]
	if hadExisting {
		m.currentSize -= existing.Msg.Size()
		delete(m.entries, msg.ID())
	}

	var evicted []message.Message
	if m.currentSize+msg.Size() > m.capacity {
		candidates := m.evictableEntries()
		items := make([]strategy.Item, len(candidates))
		for i, e := range candidates {
			items[i] = e
		}
		strategy.Sort(items, m.kind, true) // reverse: eviction order

		for _, it := range items {
			if m.currentSize+msg.Size() <= m.capacity {
				break
			}
			e := it.(*Entry)
			m.currentSize -= e.Msg.Size()
			delete(m.entries, e.Msg.ID())
			evicted = append(evicted, e.Msg)
		}

		if m.currentSize+msg.Size() > m.capacity {
			// Not enough evictable room; undo and reject. Re-admit what
			// we evicted so the cache is left unchanged on rejection.
			for _, victim := range evicted {
				m.insert(victim)
			}
			if hadExisting {
				m.entries[msg.ID()] = existing
				m.currentSize += existing.Msg.Size()
			}
			return RejectedTooBig, nil, nil
		}
	}

	m.insert(msg)
	if len(evicted) > 0 {
		return Evicted, evicted, nil
	}
	return Admitted, nil, nil
}

func (m *Manager) insert(msg message.Message) {
	m.seq++
	randomKey := 0.0
	if m.kind == strategy.Random && m.source != nil {
		randomKey = m.source.Float64()
	}
	m.entries[msg.ID()] = &Entry{Msg: msg, insertSeq: m.seq, randomKey: randomKey}
	m.currentSize += msg.Size()
}

func (m *Manager) evictableEntries() []*Entry {
	var out []*Entry
	for _, e := range m.entries {
		if e.pinned > 0 {
			continue
		}
		if e.Msg.From() == m.hostID || e.Msg.To() == m.hostID {
			continue
		}
		out = append(out, e)
	}
	return out
}

// List returns every cached message in current caching-priority order
// (spec.md §4.5).
func (m *Manager) List() []message.Message {
	entries := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	items := make([]strategy.Item, len(entries))
	for i, e := range entries {
		items[i] = e
	}
	strategy.Sort(items, m.kind, false)
	out := make([]message.Message, len(items))
	for i, it := range items {
		out[i] = it.(*Entry).Msg
	}
	return out
}

// Entries exposes the raw entries in current caching-priority order, for
// callers (the router's forwarding candidate list) that need the
// strategy.Item view rather than a plain message.Message.
func (m *Manager) Entries() []*Entry {
	entries := make([]*Entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	items := make([]strategy.Item, len(entries))
	for i, e := range entries {
		items[i] = e
	}
	strategy.Sort(items, m.kind, false)
	out := make([]*Entry, len(items))
	for i, it := range items {
		out[i] = it.(*Entry)
	}
	return out
}
