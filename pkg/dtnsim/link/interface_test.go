package link_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnsim/dtnsim/pkg/dtnsim/link"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/logging"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/message"
)

func TestConnectRefusesOutOfRangeHosts(t *testing.T) {
	hostA := &fakeHost{id: "A", x: 0, y: 0, active: true}
	hostB := &fakeHost{id: "B", x: 1000, y: 0, active: true}
	ifaceA := link.NewInterface("A0", hostA, link.Simple, 10, 10, nil, nil, newFakeRouter(), logging.Discard())
	ifaceB := link.NewInterface("B0", hostB, link.Simple, 10, 10, nil, nil, newFakeRouter(), logging.Discard())

	_, ok := ifaceA.Connect(ifaceB, link.CBR, 0)
	assert.False(t, ok)
}

func TestConnectSucceedsWithinRangeAndNotDuplicated(t *testing.T) {
	hostA := &fakeHost{id: "A", x: 0, y: 0, active: true}
	hostB := &fakeHost{id: "B", x: 5, y: 0, active: true}
	ifaceA := link.NewInterface("A0", hostA, link.Simple, 10, 10, nil, nil, newFakeRouter(), logging.Discard())
	ifaceB := link.NewInterface("B0", hostB, link.Simple, 10, 10, nil, nil, newFakeRouter(), logging.Discard())

	conn, ok := ifaceA.Connect(ifaceB, link.CBR, 0)
	require.True(t, ok)
	require.NotNil(t, conn)
	assert.True(t, ifaceA.ConnectedTo(ifaceB))

	_, ok = ifaceA.Connect(ifaceB, link.CBR, 0)
	assert.False(t, ok, "already connected")
}

func TestSimpleIsReadyToBeginTransferAllowsOnlyOneOutgoing(t *testing.T) {
	hostA := &fakeHost{id: "A", x: 0, y: 0, active: true}
	hostB := &fakeHost{id: "B", x: 5, y: 0, active: true}
	routerB := newFakeRouter()
	ifaceA := link.NewInterface("A0", hostA, link.Simple, 10, 10, nil, nil, newFakeRouter(), logging.Discard())
	ifaceB := link.NewInterface("B0", hostB, link.Simple, 10, 10, nil, nil, routerB, logging.Discard())

	conn, ok := ifaceA.Connect(ifaceB, link.CBR, 0)
	require.True(t, ok)

	assert.True(t, ifaceA.IsReadyToBeginTransfer())
	m := message.New("A", "B", 10, 0, 60, false, 0)
	result := ifaceA.SendUnicastMessageViaConnection(m, conn)
	assert.Equal(t, link.UnicastOK, result)
	assert.False(t, ifaceA.IsReadyToBeginTransfer(), "Simple kind allows only one outgoing transfer")
}

func TestSendUnicastDeniedWhileAlreadySending(t *testing.T) {
	hostA := &fakeHost{id: "A", x: 0, y: 0, active: true}
	hostB := &fakeHost{id: "B", x: 5, y: 0, active: true}
	hostC := &fakeHost{id: "C", x: 5, y: 5, active: true}
	routerB := newFakeRouter()
	routerC := newFakeRouter()
	ifaceA := link.NewInterface("A0", hostA, link.Simple, 10, 10, nil, nil, newFakeRouter(), logging.Discard())
	ifaceB := link.NewInterface("B0", hostB, link.Simple, 10, 10, nil, nil, routerB, logging.Discard())
	ifaceC := link.NewInterface("C0", hostC, link.Simple, 10, 10, nil, nil, routerC, logging.Discard())

	connB, ok := ifaceA.Connect(ifaceB, link.CBR, 0)
	require.True(t, ok)
	connC, ok := ifaceA.Connect(ifaceC, link.CBR, 0)
	require.True(t, ok)

	m := message.New("A", "B", 10, 0, 60, false, 0)
	result := ifaceA.SendUnicastMessageViaConnection(m, connB)
	assert.Equal(t, link.UnicastOK, result)

	result2 := ifaceA.SendUnicastMessageViaConnection(m, connC)
	assert.Equal(t, link.UnicastDenied, result2)
}

func TestUpdateDropsConnectionWhenPeerMovesOutOfRange(t *testing.T) {
	hostA := &fakeHost{id: "A", x: 0, y: 0, active: true}
	hostB := &fakeHost{id: "B", x: 5, y: 0, active: true}
	routerB := newFakeRouter()
	ifaceA := link.NewInterface("A0", hostA, link.Simple, 10, 10, nil, nil, newFakeRouter(), logging.Discard())
	ifaceB := link.NewInterface("B0", hostB, link.Simple, 10, 10, nil, nil, routerB, logging.Discard())

	conn, ok := ifaceA.Connect(ifaceB, link.CBR, 0)
	require.True(t, ok)

	hostB.x = 1000
	ifaceA.Update(1, 1)

	assert.False(t, conn.Up())
	assert.Empty(t, ifaceA.Connections())
}

func TestUpdateTicksConnectionOnlyFromSenderSide(t *testing.T) {
	hostA := &fakeHost{id: "A", x: 0, y: 0, active: true}
	hostB := &fakeHost{id: "B", x: 5, y: 0, active: true}
	routerB := newFakeRouter()
	ifaceA := link.NewInterface("A0", hostA, link.Simple, 10, 10, nil, nil, newFakeRouter(), logging.Discard())
	ifaceB := link.NewInterface("B0", hostB, link.Simple, 10, 10, nil, nil, routerB, logging.Discard())

	conn, ok := ifaceA.Connect(ifaceB, link.CBR, 0)
	require.True(t, ok)
	m := message.New("A", "B", 10, 0, 60, false, 0)
	result := ifaceA.SendUnicastMessageViaConnection(m, conn)
	require.Equal(t, link.UnicastOK, result)

	ifaceB.Update(1, 1) // ticking from the receiver's side must not advance bytes
	assert.Equal(t, 10, conn.BytesRemaining())

	ifaceA.Update(1, 1)
	assert.Equal(t, 0, conn.BytesRemaining())
}

func TestVBRSpeedSplitsAmongConcurrentInboundTransfers(t *testing.T) {
	hostA := &fakeHost{id: "A", x: 0, y: 0, active: true}
	hostB := &fakeHost{id: "B", x: 5, y: 0, active: true}
	hostC := &fakeHost{id: "C", x: 5, y: 5, active: true}
	routerRecv := newFakeRouter()
	ifaceRecv := link.NewInterface("R0", hostB, link.InterferenceLimited, 1000, 100, nil, nil, routerRecv, logging.Discard())
	ifaceA := link.NewInterface("A0", hostA, link.InterferenceLimited, 1000, 100, nil, nil, newFakeRouter(), logging.Discard())
	ifaceC := link.NewInterface("C0", hostC, link.InterferenceLimited, 1000, 100, nil, nil, newFakeRouter(), logging.Discard())

	connA, ok := ifaceA.Connect(ifaceRecv, link.VBR, 0)
	require.True(t, ok)
	connC, ok := ifaceC.Connect(ifaceRecv, link.VBR, 0)
	require.True(t, ok)

	m := message.New("A", "B", 10000, 0, 60, false, 0)
	require.Equal(t, link.UnicastOK, ifaceA.SendUnicastMessageViaConnection(m, connA))
	require.Equal(t, link.UnicastOK, ifaceC.SendUnicastMessageViaConnection(m, connC))

	ifaceRecv.Update(0, 0)

	assert.Less(t, connA.Speed(), connA.MaxSpeed(), "contention must lower effective speed below maxSpeed")
	assert.Equal(t, connA.Speed(), connC.Speed(), "both inbound transfers share the same recomputed speed")
}
