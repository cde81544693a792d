package host_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dtnsim/dtnsim/pkg/dtnsim/cache"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/clock"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/host"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/listener"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/logging"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/message"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/movement"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/router"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/strategy"
)

func newTestHost(id string, mv movement.Source, clk *clock.Clock) (*host.Host, *cache.Manager) {
	c := cache.New(id, 1000, strategy.FIFO, nil)
	cfg := router.Config{HostID: id, Variant: router.Epidemic, ForwardingKind: strategy.FIFO}
	r := router.New(cfg, c, clk, logging.Discard(), listener.NopListener{})
	return host.New(id, mv, r, clk, logging.Discard()), c
}

func TestNewSeedsPositionFromMovementSource(t *testing.T) {
	clk := clock.New()
	h, _ := newTestHost("A", movement.NewStatic(3, 4), clk)

	x, y := h.Position()
	assert.Equal(t, 3.0, x)
	assert.Equal(t, 4.0, y)
}

func TestActiveTracksMovementSourceWindow(t *testing.T) {
	clk := clock.New()
	static := movement.NewStatic(0, 0)
	static.ActiveWindows = []movement.Window{{Start: 10, End: 20}}
	h, _ := newTestHost("A", static, clk)

	assert.False(t, h.Active(), "time 0 is outside the only active window")

	require.NoError(t, clk.Advance(15))
	h.Update(1)
	assert.True(t, h.Active())
}

func TestUpdateAdvancesAlongLinearPath(t *testing.T) {
	clk := clock.New()
	path := []movement.Waypoint{{X: 0, Y: 0, Speed: 0}, {X: 10, Y: 0, Speed: 5}}
	h, _ := newTestHost("A", movement.NewLinear(path), clk)

	x, y := h.Position()
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 0.0, y)

	h.Update(1) // 5 units/sec * 1s = 5 units along the x axis
	x, y = h.Position()
	assert.InDelta(t, 5.0, x, 1e-9)
	assert.InDelta(t, 0.0, y, 1e-9)
}

func TestOriginateDelegatesToRouter(t *testing.T) {
	clk := clock.New()
	h, c := newTestHost("A", movement.NewStatic(0, 0), clk)

	m := message.New("A", "B", 10, 0, 60, false, 0)
	h.Originate(m)

	assert.True(t, c.Contains(m.ID()))
}

func TestUpdateSweepsExpiredMessages(t *testing.T) {
	clk := clock.New()
	h, c := newTestHost("A", movement.NewStatic(0, 0), clk)

	m := message.New("A", "B", 10, 0, 1, false, 0) // ttl 60s
	_, _, err := c.Admit(m)
	require.NoError(t, err)

	require.NoError(t, clk.Advance(61))
	h.Update(0)

	assert.False(t, c.Contains(m.ID()), "Update must run the TTL sweep")
}
