package listener_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnsim/dtnsim/pkg/dtnsim/listener"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/message"
)

func TestDeleteCauseString(t *testing.T) {
	assert.Equal(t, "TTL", listener.CauseTTL.String())
	assert.Equal(t, "delivered", listener.CauseDelivered.String())
	assert.Equal(t, "eviction", listener.CauseEviction.String())
}

func TestNopListenerNeverPanics(t *testing.T) {
	var l listener.Listener = listener.NopListener{}
	m := message.New("A", "B", 10, 0, 60, false, 0)

	l.RegisterNode("A")
	l.NewMessage(m)
	l.MessageTransferStarted("A", "B", m)
	l.MessageTransferred("A", "B", m, true, true)
	l.MessageTransferAborted("A", "B", m, "out-of-range")
	l.MessageTransmissionInterfered("A", "B", m)
	l.MessageDeleted("A", m, false, listener.CauseTTL)
}

// recordingListener counts every callback it receives, for asserting Multi
// fans out to every registered observer.
type recordingListener struct {
	registered  []string
	newMessages int
	started     int
	transferred int
	aborted     int
	interfered  int
	deleted     int
}

func (r *recordingListener) RegisterNode(hostID string) { r.registered = append(r.registered, hostID) }
func (r *recordingListener) NewMessage(message.Message) { r.newMessages++ }
func (r *recordingListener) MessageTransferStarted(string, string, message.Message) {
	r.started++
}
func (r *recordingListener) MessageTransferred(string, string, message.Message, bool, bool) {
	r.transferred++
}
func (r *recordingListener) MessageTransferAborted(string, string, message.Message, string) {
	r.aborted++
}
func (r *recordingListener) MessageTransmissionInterfered(string, string, message.Message) {
	r.interfered++
}
func (r *recordingListener) MessageDeleted(string, message.Message, bool, listener.DeleteCause) {
	r.deleted++
}

func TestMultiFansOutToEveryRegisteredListenerInOrder(t *testing.T) {
	first := &recordingListener{}
	second := &recordingListener{}
	multi := listener.NewMulti(first, second)
	m := message.New("A", "B", 10, 0, 60, false, 0)

	multi.RegisterNode("A0")
	multi.NewMessage(m)
	multi.MessageTransferStarted("A0", "B0", m)
	multi.MessageTransferred("A0", "B0", m, true, true)
	multi.MessageTransferAborted("A0", "B0", m, "timeout")
	multi.MessageTransmissionInterfered("A0", "B0", m)
	multi.MessageDeleted("A0", m, false, listener.CauseEviction)

	for _, r := range []*recordingListener{first, second} {
		require.Equal(t, []string{"A0"}, r.registered)
		assert.Equal(t, 1, r.newMessages)
		assert.Equal(t, 1, r.started)
		assert.Equal(t, 1, r.transferred)
		assert.Equal(t, 1, r.aborted)
		assert.Equal(t, 1, r.interfered)
		assert.Equal(t, 1, r.deleted)
	}
}
