package astral

import (
	"slices"
	"testing"
)

func roleFlags(b *Body) (asteroid, sun, planet, moon bool) {
	d := b.DistanceFromSun()
	return d == -1, d == 0, d == 1, d > 1
}

func checkExclusive(t *testing.T, b *Body) {
	t.Helper()
	a, s, p, m := roleFlags(b)
	n := 0
	for _, f := range []bool{a, s, p, m} {
		if f {
			n++
		}
	}
	if n != 1 {
		t.Fatalf("role %s: %d roles hold at once", b.Role(), n)
	}
	if (b.system != nil) != (b.Role() == Sun) {
		t.Fatalf("role %s: sun payload present = %v", b.Role(), b.system != nil)
	}
	if (b.dep != nil) != (b.Role() == Planet || b.Role() == Moon) {
		t.Fatalf("role %s: dependency payload present = %v", b.Role(), b.dep != nil)
	}
}

func TestRoleExclusivity(t *testing.T) {
	b := NewBody(1)
	checkExclusive(t, &b)

	steps := []func(){
		func() { b.SetAsSun() },
		func() { b.SetAsPlanet(4, 2) },
		func() { b.SetAsMoon(4, 7, 3) },
		func() { b.ResetToAsteroid() },
		func() { b.SetAsPlanet(9, 1) },
		func() { b.SetAsSun() },
		func() { b.ClearAstralInfo() },
	}
	for _, step := range steps {
		step()
		checkExclusive(t, &b)
	}
	if b.Role() != Asteroid || b.Assigned {
		t.Errorf("after ClearAstralInfo: role = %s, assigned = %v", b.Role(), b.Assigned)
	}
}

func TestDefaults(t *testing.T) {
	b := NewBody(3)
	if b.Role() != Asteroid || b.DistanceFromSun() != -1 {
		t.Errorf("new body role = %s, distance = %d", b.Role(), b.DistanceFromSun())
	}
	if b.AstralWeight() != 4 {
		t.Errorf("AstralWeight = %d, want 4", b.AstralWeight())
	}
	if b.NeighbourSystemsNo() != 0 {
		t.Errorf("NeighbourSystemsNo = %d, want 0", b.NeighbourSystemsNo())
	}
	if _, ok := b.Sun(); ok {
		t.Error("asteroid should have no sun")
	}
}

func TestWeightConservation(t *testing.T) {
	b := NewBody(1)
	b.SetAsSun()
	start := b.AstralWeight()
	added := 0
	for i, w := range []int{1, 3, 2} {
		b.AddPlanet(int64(i+10), w)
		added += w
	}
	for i, w := range []int{2, 5} {
		b.AddMoon(int64(i+20), w)
		added += w
	}
	if got := b.AstralWeight() - start; got != added {
		t.Errorf("weight contributed = %d, want %d", got, added)
	}
	if b.PlanetsNo() != 3 || b.MoonsNo() != 2 {
		t.Errorf("planets = %d, moons = %d", b.PlanetsNo(), b.MoonsNo())
	}
}

func TestProxy(t *testing.T) {
	p := NewBody(1)
	p.SetAsPlanet(5, 1)
	if got, _ := p.Proxy(); got != 5 {
		t.Errorf("planet proxy = %d, want sun 5", got)
	}

	m := NewBody(1)
	m.SetAsMoon(5, 8, 2)
	m.AddToProxies(9)
	m.AddToProxies(8)
	if got, _ := m.Proxy(); got != 8 {
		t.Errorf("moon proxy = %d, want 8", got)
	}
	if got := m.Proxies(); !slices.Equal(got, []int64{8, 9}) {
		t.Errorf("Proxies = %v, want [8 9]", got)
	}
	if m.DistanceFromSun() != 2 || m.WeightFromSun() != 2 {
		t.Errorf("moon distance = %d, weight = %d", m.DistanceFromSun(), m.WeightFromSun())
	}
}

func TestAddNeighbourSystemKeepsMaximum(t *testing.T) {
	b := NewBody(1)
	b.SetAsSun()

	b.AddNeighbourSystem(7, 3)
	b.AddNeighbourSystem(7, 2)
	if got := b.NeighbourSystems(); got[0].Weight != 3 {
		t.Errorf("weight after lower update = %d, want 3", got[0].Weight)
	}
	b.AddNeighbourSystem(7, 5)
	if got := b.NeighbourSystems(); got[0].Weight != 5 {
		t.Errorf("weight after higher update = %d, want 5", got[0].Weight)
	}

	b.AddNeighbourSystem(3, 5)
	b.AddNeighbourSystem(9, 1)
	got := b.NeighbourSystems()
	want := []Neighbour{{7, 5}, {3, 5}, {9, 1}}
	if !slices.Equal(got, want) {
		t.Errorf("NeighbourSystems = %v, want %v", got, want)
	}
	if b.NeighbourSystemsNo() != 3 {
		t.Errorf("NeighbourSystemsNo = %d, want 3", b.NeighbourSystemsNo())
	}
}

func TestAddNeighbourSystemRecordsPaths(t *testing.T) {
	b := NewBody(1)
	b.SetAsSun()
	b.AddPlanet(2, 1)
	b.AddMoon(3, 2)

	planetRef := Referrer{Body: 2, DistanceAccumulator: 1, PositionInPath: 1, PathLength: 3}
	moonRef := Referrer{Body: 3, DistanceAccumulator: 2, PositionInPath: 2, PathLength: 4}
	stranger := Referrer{Body: 99, DistanceAccumulator: 0, PositionInPath: 0, PathLength: 1}

	b.AddNeighbourSystem(10, 4, planetRef, moonRef, stranger)
	// Same path again is deduplicated.
	b.AddNeighbourSystem(10, 4, planetRef)

	planets := b.Planets()
	if len(planets) != 1 || len(planets[0].Paths) != 1 {
		t.Fatalf("planets = %+v", planets)
	}
	wantPlanet := Path{LengthDelta: 3, ReferencedSun: 10, PositionInPath: 1, PathLength: 3}
	if planets[0].Paths[0] != wantPlanet {
		t.Errorf("planet path = %+v, want %+v", planets[0].Paths[0], wantPlanet)
	}

	moons := b.Moons()
	if len(moons) != 1 || len(moons[0].Paths) != 1 {
		t.Fatalf("moons = %+v", moons)
	}
	if moons[0].Paths[0].LengthDelta != 2 {
		t.Errorf("moon path delta = %d, want 2", moons[0].Paths[0].LengthDelta)
	}
}

func TestNonSunOperationsPanic(t *testing.T) {
	tests := map[string]func(b *Body){
		"AddPlanet":          func(b *Body) { b.AddPlanet(1, 1) },
		"AddMoon":            func(b *Body) { b.AddMoon(1, 1) },
		"AddNeighbourSystem": func(b *Body) { b.AddNeighbourSystem(1, 1) },
	}
	for name, op := range tests {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			b := NewBody(1)
			b.SetAsPlanet(2, 1)
			op(&b)
		})
	}
}

func TestPathRatio(t *testing.T) {
	if got := (Path{PositionInPath: 1, PathLength: 2}).Ratio(); got != 0.5 {
		t.Errorf("Ratio = %v, want 0.5", got)
	}
	if got := (Path{PositionInPath: 1}).Ratio(); got != 0 {
		t.Errorf("degenerate Ratio = %v, want 0", got)
	}
}
