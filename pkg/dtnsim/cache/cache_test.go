package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnsim/dtnsim/pkg/dtnsim/cache"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/message"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/strategy"
)

func newMsg(from, to string, size, priority int) message.Message {
	return message.New(from, to, size, priority, 60, false, 0)
}

func TestAdmitAcceptsUnderCapacity(t *testing.T) {
	mgr := cache.New("h0", 100, strategy.FIFO, nil)
	status, evicted, err := mgr.Admit(newMsg("a", "b", 30, 0))
	require.NoError(t, err)
	assert.Equal(t, cache.Admitted, status)
	assert.Empty(t, evicted)
	assert.Equal(t, 30, mgr.Size())
}

func TestAdmitRejectsOversizedMessage(t *testing.T) {
	mgr := cache.New("h0", 10, strategy.FIFO, nil)
	status, _, err := mgr.Admit(newMsg("a", "b", 20, 0))
	require.NoError(t, err)
	assert.Equal(t, cache.RejectedTooBig, status)
}

func TestAdmitEvictsInReverseFIFOOrderToMakeRoom(t *testing.T) {
	mgr := cache.New("h0", 30, strategy.FIFO, nil)

	m1 := newMsg("x", "y", 10, 0) // receiveTime 0 by construction
	m2 := newMsg("x", "y", 10, 0).WithReceived("h0", 1)
	m3 := newMsg("x", "y", 10, 0).WithReceived("h0", 2)

	_, _, err := mgr.Admit(m1)
	require.NoError(t, err)
	_, _, err = mgr.Admit(m2)
	require.NoError(t, err)
	_, _, err = mgr.Admit(m3)
	require.NoError(t, err)

	// Cache is now full (30/30). Admitting a 4th message must evict the
	// oldest (m1, receiveTime 0) first under FIFO.
	m4 := newMsg("x", "y", 10, 5).WithReceived("h0", 3)
	status, evicted, err := mgr.Admit(m4)
	require.NoError(t, err)
	assert.Equal(t, cache.Evicted, status)
	require.Len(t, evicted, 1)
	assert.Equal(t, m1.ID(), evicted[0].ID())
}

func TestAdmitNeverEvictsOwnTraffic(t *testing.T) {
	mgr := cache.New("h0", 20, strategy.FIFO, nil)

	own := newMsg("h0", "z", 10, 0) // h0 is sender
	_, _, err := mgr.Admit(own)
	require.NoError(t, err)

	foreign := newMsg("x", "y", 20, 0)
	status, _, err := mgr.Admit(foreign)
	require.NoError(t, err)
	assert.Equal(t, cache.RejectedTooBig, status, "own traffic must never be evicted to make room")
}

func TestPinPreventsEviction(t *testing.T) {
	mgr := cache.New("h0", 10, strategy.FIFO, nil)

	m1 := newMsg("x", "y", 10, 0)
	_, _, err := mgr.Admit(m1)
	require.NoError(t, err)
	mgr.Pin(m1.ID())

	m2 := newMsg("p", "q", 10, 0)
	status, _, err := mgr.Admit(m2)
	require.NoError(t, err)
	assert.Equal(t, cache.RejectedTooBig, status, "pinned entry must not be evicted, leaving no room for m2")

	mgr.Unpin(m1.ID())
	status, evicted, err := mgr.Admit(m2)
	require.NoError(t, err)
	assert.Equal(t, cache.Evicted, status)
	require.Len(t, evicted, 1)
	assert.Equal(t, m1.ID(), evicted[0].ID())
}

func TestRemoveAndContains(t *testing.T) {
	mgr := cache.New("h0", 20, strategy.FIFO, nil)
	m := newMsg("a", "b", 10, 0)
	_, _, err := mgr.Admit(m)
	require.NoError(t, err)

	assert.True(t, mgr.Contains(m.ID()))
	assert.True(t, mgr.Remove(m.ID()))
	assert.False(t, mgr.Contains(m.ID()))
	assert.False(t, mgr.Remove(m.ID()), "removing an absent id is a no-op, not an error")
	assert.Equal(t, 0, mgr.Size())
}
