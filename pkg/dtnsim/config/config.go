// Package config decodes the scenario configuration surface spec.md §6
// names and builds a runnable sim.Simulation from it.
//
// Grounded on gopkg.in/yaml.v3's struct-tag decoding, the same library and
// technique docker-compose/pkg/compose/loader.go uses
// (`yaml.Unmarshal(data, &compose)` into a fixed struct), generalized here
// with a couple of small yaml.Node-based UnmarshalYAML implementations
// for the configuration surface's one irregularity: spec.md §6 names
// dynamically-numbered keys (`interface<k>`, `Events<k>`) rather than a
// fixed field set. The node-walking technique itself is grounded on
// docker-compose/pkg/compose/transform/replace.go, which also walks a raw
// yaml.Node mapping (there, to locate one key's position for a targeted
// string replace; here, to pull out keys a fixed struct tag can't name).
package config

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dtnsim/dtnsim/internal/rng"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/cache"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/dtnerr"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/geometry"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/host"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/interference"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/link"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/listener"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/logging"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/movement"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/router"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/sim"
	"github.com/dtnsim/dtnsim/pkg/dtnsim/strategy"
)

// InterfaceConfig is one group's `interface<k>` block (spec.md §6).
type InterfaceConfig struct {
	Type          string  `yaml:"type"` // SimpleBroadcastInterface | InterferenceLimitedInterface
	TransmitSpeed int     `yaml:"transmitSpeed"`
	TransmitRange float64 `yaml:"transmitRange"`
}

// Group is `Group.{...}` (spec.md §6), plus the strategy/router knobs
// SPEC_FULL.md §B maps onto package strategy/router.
type Group struct {
	GroupID            string                     `yaml:"groupID"`
	MovementModel      string                     `yaml:"movementModel"` // Static | Linear
	Router             string                     `yaml:"router"`        // Epidemic | SprayAndWait | Passive
	NrofHosts          int                        `yaml:"nrofHosts"`
	NrofInterfaces     int                        `yaml:"nrofInterfaces"`
	Interfaces         map[string]InterfaceConfig `yaml:"-"`
	Speed              float64                    `yaml:"speed"`
	MsgTTL             float64                    `yaml:"msgTTL"`
	BufferSize         int                        `yaml:"bufferSize"`
	CachingStrategy    string                     `yaml:"cachingStrategy"`    // Random|FIFO|PrioritizedFIFO|PrioritizedLFFFIFO
	ForwardingStrategy string                     `yaml:"forwardingStrategy"` // same vocabulary, forwarding-order role
	ForwardingManager  string                     `yaml:"forwardingManager"`  // Unchanged|ExponentiallyDecaying
	SprayInitialCopies int                        `yaml:"sprayInitialCopies"`
	MaxFragmentSize    int                        `yaml:"maxFragmentSize"`
	InterferenceModel  string                     `yaml:"interferenceModel"` // NoInterferences|AlwaysPossible
}

// UnmarshalYAML binds Group's fixed fields, then separately collects
// every "interface<k>" sibling key into Interfaces.
func (g *Group) UnmarshalYAML(value *yaml.Node) error {
	type plain Group
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*g = Group(p)
	g.Interfaces = make(map[string]InterfaceConfig)
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		if !strings.HasPrefix(key, "interface") {
			continue
		}
		var ic InterfaceConfig
		if err := value.Content[i+1].Decode(&ic); err != nil {
			return fmt.Errorf("group %s: %s: %w", g.GroupID, key, err)
		}
		g.Interfaces[key] = ic
	}
	return nil
}

// MovementModelConfig is `MovementModel.{...}` (spec.md §6).
type MovementModelConfig struct {
	RngSeed   int64   `yaml:"rngSeed"`
	WorldSize float64 `yaml:"worldSize"`
}

// EventsConfig is one `Events<k>.{...}` block (spec.md §6).
type EventsConfig struct {
	Class    string  `yaml:"class"`
	Interval float64 `yaml:"interval"`
	Size     int     `yaml:"size"`
	Hosts    string  `yaml:"hosts"`
	Prefix   string  `yaml:"prefix"`
}

// OptimizationConfig is `Optimization.{...}` (spec.md §6).
type OptimizationConfig struct {
	CellSizeMult          float64 `yaml:"cellSizeMult"`
	RandomizeUpdateOrder  bool    `yaml:"randomizeUpdateOrder"`
}

// ReportConfig is `Report.{...}` (spec.md §6). Parsed for configuration-
// surface completeness; no report-writing harness is implemented here
// (spec.md's own Non-goals: "scenario configuration loading, reporting,
// and CLI/batch harness" are named as external collaborators of the
// core, not core responsibilities).
type ReportConfig struct {
	NrofReports int               `yaml:"nrofReports"`
	ReportDir   string            `yaml:"reportDir"`
	Reports     map[string]string `yaml:"-"`
}

func (r *ReportConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain ReportConfig
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*r = ReportConfig(p)
	r.Reports = make(map[string]string)
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		if strings.HasPrefix(key, "report") {
			r.Reports[key] = value.Content[i+1].Value
		}
	}
	return nil
}

// Scenario is the top-level `Scenario.{...}` configuration (spec.md §6),
// plus its MovementModel/Optimization/Report/Events<k> siblings.
type Scenario struct {
	Name                 string               `yaml:"name"`
	EndTime              float64              `yaml:"endTime"`
	UpdateInterval       float64              `yaml:"updateInterval"`
	SimulateConnections  bool                 `yaml:"simulateConnections"`
	NrofHostGroups       int                  `yaml:"nrofHostGroups"`
	Groups               []Group              `yaml:"groups"`
	MovementModel        MovementModelConfig  `yaml:"movementModel"`
	Optimization         OptimizationConfig   `yaml:"optimization"`
	Report               ReportConfig         `yaml:"report"`
	Events               map[string]EventsConfig `yaml:"-"`
}

// UnmarshalYAML binds Scenario's fixed fields, then collects every
// "Events<k>" sibling key into Events.
func (s *Scenario) UnmarshalYAML(value *yaml.Node) error {
	type plain Scenario
	var p plain
	if err := value.Decode(&p); err != nil {
		return err
	}
	*s = Scenario(p)
	s.Events = make(map[string]EventsConfig)
	if value.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		if !strings.HasPrefix(key, "Events") {
			continue
		}
		var ec EventsConfig
		if err := value.Content[i+1].Decode(&ec); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		s.Events[key] = ec
	}
	return nil
}

// Parse decodes a scenario document from raw YAML bytes.
func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, dtnerr.NewConfigError("scenario", err)
	}
	return &s, nil
}

func strategyKind(name string) (strategy.Kind, error) {
	switch name {
	case "", "FIFO":
		return strategy.FIFO, nil
	case "Random":
		return strategy.Random, nil
	case "PrioritizedFIFO":
		return strategy.PrioritizedFIFO, nil
	case "PrioritizedLFFFIFO":
		return strategy.PrioritizedLFFFIFO, nil
	default:
		return 0, fmt.Errorf("unknown strategy %q", name)
	}
}

func forwardingManagerKind(name string) (strategy.ManagerKind, error) {
	switch name {
	case "", "Unchanged":
		return strategy.Unchanged, nil
	case "ExponentiallyDecaying":
		return strategy.ExponentiallyDecaying, nil
	default:
		return 0, fmt.Errorf("unknown forwarding manager %q", name)
	}
}

func routerVariant(name string) (router.Variant, error) {
	switch name {
	case "", "Epidemic":
		return router.Epidemic, nil
	case "SprayAndWait":
		return router.SprayAndWait, nil
	case "Passive":
		return router.Passive, nil
	default:
		return 0, fmt.Errorf("unknown router %q", name)
	}
}

func interfaceKind(name string) (link.Kind, error) {
	switch name {
	case "", "SimpleBroadcastInterface":
		return link.Simple, nil
	case "InterferenceLimitedInterface":
		return link.InterferenceLimited, nil
	default:
		return 0, fmt.Errorf("unknown interface type %q", name)
	}
}

func interferenceModel(name string) (func() interference.Model, error) {
	switch name {
	case "", "NoInterferences":
		return func() interference.Model { return interference.NewNoInterferences() }, nil
	case "AlwaysPossible":
		return func() interference.Model { return interference.NewAlwaysPossible() }, nil
	default:
		return nil, fmt.Errorf("unknown interference model %q", name)
	}
}

func movementSource(groupKind string, worldSize float64, hostIdx int) (movement.Source, error) {
	switch groupKind {
	case "", "Static":
		x := float64(hostIdx%7) * (worldSize / 8)
		y := float64(hostIdx/7) * (worldSize / 8)
		return movement.NewStatic(x, y), nil
	case "Linear":
		base := float64(hostIdx%7) * (worldSize / 8)
		return movement.NewLinear([]movement.Waypoint{
			{X: base, Y: 0, Speed: 1},
			{X: base, Y: worldSize, Speed: 1},
		}), nil
	default:
		return nil, fmt.Errorf("unknown movement model %q", groupKind)
	}
}

// BuildSimulation wires a full sim.Simulation from a decoded Scenario:
// clock, hosts, interfaces, caches, routers, a shared geometry index, and
// a seeded PRNG per strategy/manager, per SPEC_FULL.md §B's wiring table.
// No CLI or report harness is started — that remains an external
// collaborator per spec.md's Non-goals.
func BuildSimulation(s *Scenario, log logging.Logger, lst listener.Listener) (*sim.Simulation, error) {
	if lst == nil {
		lst = listener.NopListener{}
	}
	maxRange := 0.0
	for _, g := range s.Groups {
		for _, ic := range g.Interfaces {
			if ic.TransmitRange > maxRange {
				maxRange = ic.TransmitRange
			}
		}
	}
	cellSize := orDefault(s.Optimization.CellSizeMult, 1) * maxRange
	if cellSize <= 0 {
		cellSize = 100
	}
	geo := geometry.NewGridIndex(cellSize)

	simulation := sim.New(sim.Config{
		UpdateInterval: orDefault(s.UpdateInterval, 1),
		EndTime:        s.EndTime,
		RandomizeOrder: s.Optimization.RandomizeUpdateOrder,
		OrderSeed:      s.MovementModel.RngSeed,
	}, log, lst)

	hostSeq := 0
	for _, g := range s.Groups {
		if err := buildGroup(simulation, geo, g, s.MovementModel.WorldSize, log, &hostSeq); err != nil {
			return nil, err
		}
	}
	return simulation, nil
}

func buildGroup(simulation *sim.Simulation, geo *geometry.GridIndex, g Group, worldSize float64, log logging.Logger, hostSeq *int) error {
	cachingKindVal, err := strategyKind(g.CachingStrategy)
	if err != nil {
		return dtnerr.NewConfigError("group."+g.GroupID+".cachingStrategy", err)
	}
	forwardingKindVal, err := strategyKind(g.ForwardingStrategy)
	if err != nil {
		return dtnerr.NewConfigError("group."+g.GroupID+".forwardingStrategy", err)
	}
	managerKindVal, err := forwardingManagerKind(g.ForwardingManager)
	if err != nil {
		return dtnerr.NewConfigError("group."+g.GroupID+".forwardingManager", err)
	}
	variant, err := routerVariant(g.Router)
	if err != nil {
		return dtnerr.NewConfigError("group."+g.GroupID+".router", err)
	}
	newModel, err := interferenceModel(g.InterferenceModel)
	if err != nil {
		return dtnerr.NewConfigError("group."+g.GroupID+".interferenceModel", err)
	}

	for n := 0; n < g.NrofHosts; n++ {
		hostID := g.GroupID + strconv.Itoa(n)
		mv, err := movementSource(g.MovementModel, worldSize, *hostSeq)
		if err != nil {
			return dtnerr.NewConfigError("group."+g.GroupID+".movementModel", err)
		}
		*hostSeq++

		cacheSource := rng.New(g.sourceSeed(n, "cache"))
		fwdSource := rng.New(g.sourceSeed(n, "forwarding"))
		hostCache := cache.New(hostID, g.BufferSize, cachingKindVal, cacheSource)
		fwdManager := strategy.NewManager(managerKindVal, fwdSource)

		rtr := router.New(router.Config{
			HostID:             hostID,
			Variant:            variant,
			ForwardingKind:     forwardingKindVal,
			ForwardingManager:  fwdManager,
			MaxFragmentSize:    g.MaxFragmentSize,
			SprayInitialCopies: g.SprayInitialCopies,
		}, hostCache, simulation.Clock(), log, simulation.Listener())

		h := host.New(hostID, mv, rtr, simulation.Clock(), log)

		for i := 0; i < g.NrofInterfaces; i++ {
			ifCfg, ok := g.Interfaces[fmt.Sprintf("interface%d", i+1)]
			if !ok {
				return dtnerr.NewConfigError("group."+g.GroupID, fmt.Errorf("missing interface%d", i+1))
			}
			kind, err := interfaceKind(ifCfg.Type)
			if err != nil {
				return dtnerr.NewConfigError(fmt.Sprintf("group.%s.interface%d.type", g.GroupID, i+1), err)
			}
			iface := link.NewInterface(
				link.InterfaceID(fmt.Sprintf("%s-if%d", hostID, i+1)),
				h, kind, ifCfg.TransmitRange, ifCfg.TransmitSpeed,
				geo, newModel(), rtr, log,
			)
			h.AddInterface(iface)
		}

		if err := simulation.AddHost(h); err != nil {
			return err
		}
	}
	return nil
}

// sourceSeed derives a distinct, deterministic PRNG seed per host per
// role from the group id, the role name and the host index, so re-running
// the same scenario file reproduces identical behavior (spec.md §6's
// determinism contract) without every host and role sharing one Source.
// MovementModel.rngSeed does not enter this seed.
func (g Group) sourceSeed(hostIdx int, role string) int64 {
	h := int64(0)
	for _, r := range g.GroupID + role {
		h = h*31 + int64(r)
	}
	return h + int64(hostIdx)*1000003
}

func orDefault(v, def float64) float64 {
	if v <= 0 {
		return def
	}
	return v
}
