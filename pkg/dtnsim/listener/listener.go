// Package listener promotes spec.md §6's "Host boundary (exposed)"
// callback set to a first-class interface, grounded on the single-
// callback observer pattern seen in
// other_examples/...leatea-routing...sim-network.go (a `cb core.Listener`
// field invoked as `cb(&core.Event{...})` at every lifecycle point),
// generalized from one callback function to one interface method per
// event kind so a scenario can register more than one observer (e.g. a
// statistics collector alongside a trace logger) without the core
// depending on either.
package listener

import "github.com/dtnsim/dtnsim/pkg/dtnsim/message"

// DeleteCause explains why MessageDeleted fired.
type DeleteCause int

const (
	CauseEviction DeleteCause = iota
	CauseTTL
	CauseDelivered
)

func (c DeleteCause) String() string {
	switch c {
	case CauseTTL:
		return "TTL"
	case CauseDelivered:
		return "delivered"
	default:
		return "eviction"
	}
}

// Listener receives the simulation's lifecycle events, per spec.md §6.
// Every call is synchronous within the tick that produced it, and all
// observers see every event for tick t before any event for tick t+1
// (spec.md §5).
type Listener interface {
	RegisterNode(hostID string)
	NewMessage(m message.Message)
	MessageTransferStarted(sender, receiver string, m message.Message)
	MessageTransferred(sender, receiver string, m message.Message, firstDelivery, finalTarget bool)
	MessageTransferAborted(sender, receiver string, m message.Message, reason string)
	MessageTransmissionInterfered(sender, receiver string, m message.Message)
	MessageDeleted(hostID string, m message.Message, dropped bool, cause DeleteCause)
}

// NopListener implements Listener with no-op methods, usable as a base
// for partial listeners or as the default when a scenario registers none.
type NopListener struct{}

func (NopListener) RegisterNode(string)                                              {}
func (NopListener) NewMessage(message.Message)                                       {}
func (NopListener) MessageTransferStarted(string, string, message.Message)           {}
func (NopListener) MessageTransferred(string, string, message.Message, bool, bool)   {}
func (NopListener) MessageTransferAborted(string, string, message.Message, string)   {}
func (NopListener) MessageTransmissionInterfered(string, string, message.Message)    {}
func (NopListener) MessageDeleted(string, message.Message, bool, DeleteCause)         {}

// Multi fans every call out to a fixed set of Listeners, in registration
// order.
type Multi struct {
	listeners []Listener
}

// NewMulti builds a fan-out Listener over ls.
func NewMulti(ls ...Listener) *Multi {
	return &Multi{listeners: ls}
}

func (m *Multi) RegisterNode(hostID string) {
	for _, l := range m.listeners {
		l.RegisterNode(hostID)
	}
}

func (m *Multi) NewMessage(msg message.Message) {
	for _, l := range m.listeners {
		l.NewMessage(msg)
	}
}

func (m *Multi) MessageTransferStarted(sender, receiver string, msg message.Message) {
	for _, l := range m.listeners {
		l.MessageTransferStarted(sender, receiver, msg)
	}
}

func (m *Multi) MessageTransferred(sender, receiver string, msg message.Message, firstDelivery, finalTarget bool) {
	for _, l := range m.listeners {
		l.MessageTransferred(sender, receiver, msg, firstDelivery, finalTarget)
	}
}

func (m *Multi) MessageTransferAborted(sender, receiver string, msg message.Message, reason string) {
	for _, l := range m.listeners {
		l.MessageTransferAborted(sender, receiver, msg, reason)
	}
}

func (m *Multi) MessageTransmissionInterfered(sender, receiver string, msg message.Message) {
	for _, l := range m.listeners {
		l.MessageTransmissionInterfered(sender, receiver, msg)
	}
}

func (m *Multi) MessageDeleted(hostID string, msg message.Message, dropped bool, cause DeleteCause) {
	for _, l := range m.listeners {
		l.MessageDeleted(hostID, msg, dropped, cause)
	}
}
