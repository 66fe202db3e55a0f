package astral

import (
	"cmp"
	"fmt"
	"slices"
)

// Role is the coarsening role of a body.
type Role uint8

const (
	Asteroid Role = iota
	Sun
	Planet
	Moon
)

// String returns the lowercase role name.
func (r Role) String() string {
	switch r {
	case Sun:
		return "sun"
	case Planet:
		return "planet"
	case Moon:
		return "moon"
	default:
		return "asteroid"
	}
}

// SunSystem is the payload of a sun.
type SunSystem struct {
	planets    map[int64]PathSet
	moons      map[int64]PathSet
	neighbours map[int64]int
	order      []int64 // neighbour suns in first-seen order
}

func newSunSystem() *SunSystem {
	return &SunSystem{
		planets:    make(map[int64]PathSet),
		moons:      make(map[int64]PathSet),
		neighbours: make(map[int64]int),
	}
}

// Dependency is the payload of a planet or a moon.
type Dependency struct {
	Sun           int64
	FavoriteProxy int64
	proxies       []int64
}

// Dependent is a planet or moon as seen from its sun.
type Dependent struct {
	ID    int64
	Paths []Path
}

// Neighbour is a system adjacent to a sun and the best path weight toward it.
type Neighbour struct {
	Sun    int64
	Weight int
}

// Body is the astral state of one vertex on one layer.
//
// Use [NewBody] to create one: the zero value has a lower level weight of
// zero, which the placer treats as "nothing to place".
type Body struct {
	role             Role
	hops             int
	weightFromSun    int
	lowerLevelWeight int
	astralWeight     int

	system *SunSystem
	dep    *Dependency

	// Assigned is set once the merger has claimed the body on its layer.
	Assigned bool
}

// NewBody returns an asteroid standing for lowerLevelWeight vertices of the
// layer below.
func NewBody(lowerLevelWeight int) Body {
	return Body{
		weightFromSun:    -1,
		lowerLevelWeight: lowerLevelWeight,
		astralWeight:     1,
	}
}

// Role returns the current role.
func (b *Body) Role() Role { return b.role }

// DistanceFromSun is -1 for asteroids, 0 for suns, 1 for planets and the
// number of hops (at least 2) for moons.
func (b *Body) DistanceFromSun() int {
	switch b.role {
	case Sun:
		return 0
	case Planet:
		return 1
	case Moon:
		return b.hops
	default:
		return -1
	}
}

// WeightFromSun is the summed edge weight of the path to the sun, -1 for
// asteroids.
func (b *Body) WeightFromSun() int { return b.weightFromSun }

// LowerLevelWeight is the number of finer-layer vertices the body stands for.
func (b *Body) LowerLevelWeight() int { return b.lowerLevelWeight }

// AstralWeight is the mass a coarse copy of this body inherits: the weight it
// already stood for plus everything its system absorbed.
func (b *Body) AstralWeight() int { return b.lowerLevelWeight + b.astralWeight }

// SetAsSun turns the body into the centre of a new system.
func (b *Body) SetAsSun() {
	b.role = Sun
	b.hops = 0
	b.weightFromSun = 0
	b.system = newSunSystem()
	b.dep = nil
}

// SetAsPlanet makes the body a direct dependent of sun.
func (b *Body) SetAsPlanet(sun int64, weight int) {
	b.role = Planet
	b.hops = 1
	b.weightFromSun = weight
	b.system = nil
	b.dep = &Dependency{Sun: sun, FavoriteProxy: sun}
}

// SetAsMoon makes the body an indirect dependent of sun, reached through
// proxy. The proxy is also recorded in the proxy set.
func (b *Body) SetAsMoon(sun, proxy int64, weight int) {
	b.role = Moon
	b.hops = 2
	b.weightFromSun = weight
	b.system = nil
	b.dep = &Dependency{Sun: sun, FavoriteProxy: proxy, proxies: []int64{proxy}}
}

// ResetToAsteroid drops any role.
func (b *Body) ResetToAsteroid() {
	b.role = Asteroid
	b.hops = 0
	b.weightFromSun = -1
	b.system = nil
	b.dep = nil
}

func (b *Body) mustSun(op string) *SunSystem {
	if b.system == nil {
		panic(fmt.Sprintf("astral: %s on %s body", op, b.role))
	}
	return b.system
}

// AddPlanet registers a planet and adds weight to the system mass.
func (b *Body) AddPlanet(id int64, weight int) {
	s := b.mustSun("AddPlanet")
	s.planets[id] = make(PathSet)
	b.astralWeight += weight
}

// AddMoon registers a moon and adds weight to the system mass.
func (b *Body) AddMoon(id int64, weight int) {
	s := b.mustSun("AddMoon")
	s.moons[id] = make(PathSet)
	b.astralWeight += weight
}

// AddNeighbourSystem records that the system of sun is adjacent with a path
// of the given weight. The largest weight is kept; on ties the first
// recorded value stays. Each referrer that is one of this sun's planets or
// moons gets a Path toward sun; referrers that are neither are ignored.
func (b *Body) AddNeighbourSystem(sun int64, weight int, referrers ...Referrer) {
	s := b.mustSun("AddNeighbourSystem")
	if old, ok := s.neighbours[sun]; !ok {
		s.neighbours[sun] = weight
		s.order = append(s.order, sun)
	} else if weight > old {
		s.neighbours[sun] = weight
	}

	for _, r := range referrers {
		p := Path{
			LengthDelta:    weight - r.DistanceAccumulator,
			ReferencedSun:  sun,
			PositionInPath: r.PositionInPath,
			PathLength:     r.PathLength,
		}
		if set, ok := s.planets[r.Body]; ok {
			set.Add(p)
		} else if set, ok := s.moons[r.Body]; ok {
			set.Add(p)
		}
	}
}

// NeighbourSystemsNo is the number of adjacent systems; zero for non-suns.
func (b *Body) NeighbourSystemsNo() int {
	if b.system == nil {
		return 0
	}
	return len(b.system.neighbours)
}

// NeighbourSystems lists adjacent systems in the order they were discovered.
func (b *Body) NeighbourSystems() []Neighbour {
	if b.system == nil {
		return nil
	}
	out := make([]Neighbour, len(b.system.order))
	for i, id := range b.system.order {
		out[i] = Neighbour{Sun: id, Weight: b.system.neighbours[id]}
	}
	return out
}

// Planets returns the planets of a sun sorted by ID.
func (b *Body) Planets() []Dependent {
	if b.system == nil {
		return nil
	}
	return dependents(b.system.planets)
}

// Moons returns the moons of a sun sorted by ID.
func (b *Body) Moons() []Dependent {
	if b.system == nil {
		return nil
	}
	return dependents(b.system.moons)
}

// PlanetsNo is the number of planets of a sun; zero for other roles.
func (b *Body) PlanetsNo() int {
	if b.system == nil {
		return 0
	}
	return len(b.system.planets)
}

// MoonsNo is the number of moons of a sun; zero for other roles.
func (b *Body) MoonsNo() int {
	if b.system == nil {
		return 0
	}
	return len(b.system.moons)
}

func dependents(m map[int64]PathSet) []Dependent {
	out := make([]Dependent, 0, len(m))
	for id, set := range m {
		out = append(out, Dependent{ID: id, Paths: set.Sorted()})
	}
	slices.SortFunc(out, func(a, b Dependent) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// Sun returns the sun of a planet or moon.
func (b *Body) Sun() (int64, bool) {
	if b.dep == nil {
		return 0, false
	}
	return b.dep.Sun, true
}

// Proxy returns the body a dependent routes through to reach its sun: the
// sun itself for planets, the favourite proxy for moons.
func (b *Body) Proxy() (int64, bool) {
	if b.dep == nil {
		return 0, false
	}
	if b.role == Planet {
		return b.dep.Sun, true
	}
	return b.dep.FavoriteProxy, true
}

// AddToProxies records an additional planet a moon can route through.
func (b *Body) AddToProxies(id int64) {
	if b.dep == nil {
		panic(fmt.Sprintf("astral: AddToProxies on %s body", b.role))
	}
	if !slices.Contains(b.dep.proxies, id) {
		b.dep.proxies = append(b.dep.proxies, id)
	}
}

// Proxies returns every known proxy of a moon.
func (b *Body) Proxies() []int64 {
	if b.dep == nil {
		return nil
	}
	return slices.Clone(b.dep.proxies)
}

// ClearAstralInfo drops the hierarchy once the layer has been placed. The
// body keeps its weights and becomes an asteroid; merging it again starts
// from scratch.
func (b *Body) ClearAstralInfo() {
	b.ResetToAsteroid()
	b.Assigned = false
}
