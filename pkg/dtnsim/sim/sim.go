// Package sim implements the simulation driver (spec.md §5): it owns the
// Clock, the arena of hosts, and the single global tick loop that
// updates every host once per step, in registration order or, when
// configured, in an order drawn from a seeded PRNG.
//
// Grounded on the teacher's Unity (pkg/mcast/unity.go): the one type
// that owns every per-process piece and drives them through a single
// loop, generalized from Unity's fixed three-peer GM-Cast harness to an
// arbitrary, config-sized host population, and from goroutine-per-peer
// concurrency to spec.md §5's single-threaded cooperative scheduling —
// the id-keyed hosts map is the one place this core follows spec.md §9's
// arena pattern literally, since Simulation is the sole owner of host
// identity and lifetime.
package sim

import (
	"github.com/dtnsim/dtnsim/internal/rng"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/clock"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/dtnerr"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/host"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/listener"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/logging"
)

// Config bundles a Simulation's fixed driver configuration (spec.md §6's
// Scenario.{endTime, updateInterval} plus Optimization.randomizeUpdateOrder).
type Config struct {
	UpdateInterval float64
	EndTime        float64
	RandomizeOrder bool
	OrderSeed      int64
}

// Simulation is the top-level driver: one Clock, the id-keyed host
// arena, and the tick loop.
type Simulation struct {
	cfg   Config
	clock *clock.Clock
	log   logging.Logger
	lst   listener.Listener

	hosts   map[string]*host.Host
	order   []string // stable registration order, reshuffled per tick if configured
	shuffle *rng.Source
}

// New builds an empty Simulation. lst may be listener.NopListener{} if
// the caller registered no observers.
func New(cfg Config, log logging.Logger, lst listener.Listener) *Simulation {
	s := &Simulation{
		cfg:   cfg,
		clock: clock.New(),
		log:   log,
		lst:   lst,
		hosts: make(map[string]*host.Host),
	}
	if cfg.RandomizeOrder {
		s.shuffle = rng.New(cfg.OrderSeed)
	}
	return s
}

// Clock returns the simulation's clock, for components (e.g. a
// configuration loader wiring up routers) that need Now() before the
// first tick.
func (s *Simulation) Clock() *clock.Clock { return s.clock }

// Listener returns the simulation's registered observer, for components
// (e.g. a configuration loader wiring up per-host routers) that must
// hand the same listener to every host they construct.
func (s *Simulation) Listener() listener.Listener { return s.lst }

// AddHost registers h, emitting listener.RegisterNode, and returns an
// InvariantError if hostID is already registered.
func (s *Simulation) AddHost(h *host.Host) error {
	if _, exists := s.hosts[h.HostID()]; exists {
		return dtnerr.NewInvariantError("duplicate-host-id", map[string]interface{}{"hostID": h.HostID()})
	}
	s.hosts[h.HostID()] = h
	s.order = append(s.order, h.HostID())
	s.lst.RegisterNode(h.HostID())
	return nil
}

// Host returns the registered host for id, if any.
func (s *Simulation) Host(id string) (*host.Host, bool) {
	h, ok := s.hosts[id]
	return h, ok
}

// Hosts returns every registered host, in stable registration order.
func (s *Simulation) Hosts() []*host.Host {
	out := make([]*host.Host, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.hosts[id])
	}
	return out
}

// Now returns the current simulation time.
func (s *Simulation) Now() float64 { return s.clock.Now() }

// Tick advances the simulation by one UpdateInterval: every host is
// updated once, in an order drawn fresh from the seeded PRNG if
// RandomizeOrder is set, else in stable registration order (spec.md §5).
func (s *Simulation) Tick() error {
	order := s.tickOrder()
	for _, id := range order {
		s.hosts[id].Update(s.cfg.UpdateInterval)
	}
	return s.clock.Advance(s.cfg.UpdateInterval)
}

func (s *Simulation) tickOrder() []string {
	if s.shuffle == nil {
		return s.order
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	s.shuffle.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Run ticks the simulation until the clock reaches EndTime.
func (s *Simulation) Run() error {
	for s.clock.Now() < s.cfg.EndTime {
		if err := s.Tick(); err != nil {
			return err
		}
	}
	return nil
}
