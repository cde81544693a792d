// Package movement provides the MovementSource contract (spec.md §6,
// "Host boundary (consumed)": "MovementSource.nextPath() → sequence of
// (coord, speed); isActive(time) → bool") and two test-double
// implementations good enough to drive the end-to-end scenario tests
// without a full movement-model library (SPEC_FULL.md §C: a real
// random-waypoint/map-based movement model is out of this core's scope,
// same as it is out of spec.md's Non-goals for anything beyond the
// physical contact model).
package movement

// Waypoint is one (coordinate, speed) leg of a host's path, per spec.md
// §6's nextPath() contract.
type Waypoint struct {
	X, Y  float64
	Speed float64 // units/sec while travelling toward this waypoint
}

// Source is the consumed MovementSource interface.
type Source interface {
	// NextPath returns the ordered sequence of waypoints a host should
	// walk, starting from its current position. Called once when a host
	// exhausts its current path.
	NextPath() []Waypoint

	// IsActive reports whether the host is powered on / participating at
	// simulation time now (spec.md §4.3: an inactive host accepts no
	// connections and is dropped from any it holds).
	IsActive(now float64) bool
}

// Static never moves: NextPath returns a single fixed waypoint and
// IsActive is always true, unless ActiveWindows is set.
type Static struct {
	X, Y           float64
	ActiveWindows  []Window // empty means always active
}

// Window is a half-open [Start, End) simulation-time interval during
// which a host is active.
type Window struct {
	Start, End float64
}

// NewStatic builds a Static movement source pinned at (x, y).
func NewStatic(x, y float64) *Static {
	return &Static{X: x, Y: y}
}

func (s *Static) NextPath() []Waypoint {
	return []Waypoint{{X: s.X, Y: s.Y, Speed: 0}}
}

func (s *Static) IsActive(now float64) bool {
	if len(s.ActiveWindows) == 0 {
		return true
	}
	for _, w := range s.ActiveWindows {
		if now >= w.Start && now < w.End {
			return true
		}
	}
	return false
}

// Linear walks a fixed, looping sequence of waypoints at constant
// velocity per leg, re-issuing the same Path forever once exhausted.
type Linear struct {
	Path []Waypoint
}

// NewLinear builds a Linear movement source looping over path. path must
// have at least one waypoint.
func NewLinear(path []Waypoint) *Linear {
	return &Linear{Path: path}
}

func (l *Linear) NextPath() []Waypoint {
	out := make([]Waypoint, len(l.Path))
	copy(out, l.Path)
	return out
}

func (l *Linear) IsActive(now float64) bool {
	return true
}
