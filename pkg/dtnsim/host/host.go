// Package host implements a simulated DTN node (spec.md's Host, woven
// from spec.md §4.1-§4.9's per-tick data flow): it composes a set of
// link.Interfaces, a router.Router, and a movement.Source, and drives
// them through one update() loop per tick.
//
// Grounded on the teacher's Peer.process/Unity driver loop
// (pkg/mcast/core/peer.go, pkg/mcast/unity.go): one struct owning the
// pieces a single participant needs, ticked once per round by its owner
// (here, package sim) rather than running its own goroutine — spec.md §5
// is explicit that the whole core is single-threaded cooperative.
package host

import (
	"math"

	"github.com/dtnsim/dtnsim/pkg/dtnsim/clock"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/link"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/logging"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/message"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/movement"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/router"
)

// Host is one simulated node: a bundle of radios, a routing policy, and
// a position that evolves per tick according to its movement.Source.
type Host struct {
	id       string
	ifaces   []*link.Interface
	router   *router.Router
	movement movement.Source
	clock    *clock.Clock
	log      logging.Logger

	x, y    float64
	active  bool
	path    []movement.Waypoint
	pathIdx int
}

// New builds a Host. AddInterface must be called once per radio before
// the simulation starts ticking.
func New(id string, mv movement.Source, rtr *router.Router, clk *clock.Clock, log logging.Logger) *Host {
	h := &Host{
		id:       id,
		router:   rtr,
		movement: mv,
		clock:    clk,
		log:      log,
		active:   mv.IsActive(clk.Now()),
	}
	h.seedPath()
	return h
}

func (h *Host) seedPath() {
	h.path = h.movement.NextPath()
	if len(h.path) > 0 {
		h.x, h.y = h.path[0].X, h.path[0].Y
	}
	h.pathIdx = 1
}

// AddInterface attaches a radio to this host.
func (h *Host) AddInterface(iface *link.Interface) {
	h.ifaces = append(h.ifaces, iface)
}

// Interfaces returns the host's radios.
func (h *Host) Interfaces() []*link.Interface { return h.ifaces }

// HostID implements link.HostInfo.
func (h *Host) HostID() string { return h.id }

// Position implements link.HostInfo.
func (h *Host) Position() (float64, float64) { return h.x, h.y }

// Active implements link.HostInfo.
func (h *Host) Active() bool { return h.active }

// Originate admits a freshly created application message at this host,
// handing it to the router (spec.md §4.9's NewMessage path).
func (h *Host) Originate(m message.Message) {
	h.router.Originate(m)
}

// Update advances the host by dt seconds: movement, activation state,
// every interface's five-step sequence (spec.md §4.3), the router's
// forwarding offers, and the TTL sweep — in that order, matching spec.md
// §5's "inside a host, interfaces are updated in registration order".
func (h *Host) Update(dt float64) {
	now := h.clock.Now()
	h.advance(dt)
	h.active = h.movement.IsActive(now)

	for _, iface := range h.ifaces {
		iface.Update(dt, now)
	}
	h.router.OnTick(h.ifaces)
	h.router.SweepTTL(now)
}

// advance walks the host along its current movement path at each leg's
// configured speed, requesting a fresh path from the movement.Source
// once the current one is exhausted.
func (h *Host) advance(dt float64) {
	remaining := dt
	// A stationary movement source (e.g. movement.Static) can legitimately
	// yield zero-distance, zero-speed legs forever; cap the number of legs
	// examined per call so that case returns immediately instead of
	// spinning without ever reducing remaining.
	for steps := 0; remaining > 0 && steps < 64; steps++ {
		if h.pathIdx >= len(h.path) {
			h.path = h.movement.NextPath()
			h.pathIdx = 0
			if len(h.path) == 0 {
				return
			}
		}
		target := h.path[h.pathIdx]
		dx, dy := target.X-h.x, target.Y-h.y
		dist := math.Hypot(dx, dy)
		if dist == 0 || target.Speed <= 0 {
			h.pathIdx++
			continue
		}
		travel := target.Speed * remaining
		if travel >= dist {
			h.x, h.y = target.X, target.Y
			remaining -= dist / target.Speed
			h.pathIdx++
		} else {
			h.x += dx / dist * travel
			h.y += dy / dist * travel
			remaining = 0
		}
	}
}
