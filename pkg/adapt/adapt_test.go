package adapt

import "testing"

func TestTables(t *testing.T) {
	tests := []struct {
		edges    int
		temp     float64
		cooling  float64
		accuracy float64
	}{
		{10, 0.1, 0.98, 1e-4},
		{300, 0.2, 0.98, 1e-4},
		{800, 0.4, 0.96, 1e-4},
		{2000, 0.4, 0.94, 1e-3},
		{50000, 0.8, 0.92, 1e-2},
		{2000000, 0.8, 0.9, 0.1},
	}
	for _, tt := range tests {
		l := Layer{Vertices: tt.edges, Edges: tt.edges}
		got := Tune(SizeDensity{}, l)
		if got.TempFactor != tt.temp || got.Cooling != tt.cooling || got.Accuracy != tt.accuracy {
			t.Errorf("edges=%d: got %+v", tt.edges, got)
		}
	}
}

func TestSizeK(t *testing.T) {
	tests := []struct {
		edges int
		want  int
	}{
		{999, 6},
		{1000, 5},
		{4999, 5},
		{5000, 4},
		{10000, 3},
		{100001, 2},
		{1000001, 1},
	}
	for _, tt := range tests {
		if got := (Size{}).K(Layer{Edges: tt.edges}); got != tt.want {
			t.Errorf("Size.K(%d edges) = %d, want %d", tt.edges, got, tt.want)
		}
	}
}

func TestDensityK(t *testing.T) {
	tests := []struct {
		vertices, edges int
		want            int
	}{
		{10, 50, 1},
		{10, 30, 2},
		{10, 20, 3},
		{10, 10, 6},
		{0, 0, 6},
	}
	for _, tt := range tests {
		if got := (Density{}).K(Layer{Vertices: tt.vertices, Edges: tt.edges}); got != tt.want {
			t.Errorf("Density.K(%d/%d) = %d, want %d", tt.edges, tt.vertices, got, tt.want)
		}
	}
}

func TestSizeDensityTakesMinimum(t *testing.T) {
	// Small but dense: size says 6, density says 1.
	l := Layer{Vertices: 100, Edges: 500}
	if got := (SizeDensity{}).K(l); got != 1 {
		t.Errorf("K = %d, want 1", got)
	}
	// Large but sparse: size says 3, density says 6.
	l = Layer{Vertices: 20000, Edges: 20000}
	if got := (SizeDensity{}).K(l); got != 3 {
		t.Errorf("K = %d, want 3", got)
	}
}

func TestLookup(t *testing.T) {
	fallback := Tuning{K: 3, TempFactor: 0.4, Cooling: 0.93, Accuracy: 0.01}
	tests := []struct {
		name   string
		wantOK bool
	}{
		{"size", true},
		{"density", true},
		{"size-density", true},
		{"Static", true},
		{"", true},
		{"org.example.Unknown", false},
	}
	for _, tt := range tests {
		s, ok := Lookup(tt.name, fallback)
		if ok != tt.wantOK {
			t.Errorf("Lookup(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
		}
		if s == nil {
			t.Errorf("Lookup(%q) returned nil strategy", tt.name)
		}
	}
	s, _ := Lookup("static", fallback)
	if got := Tune(s, Layer{Edges: 1e7}); got != fallback {
		t.Errorf("static tuning = %+v, want %+v", got, fallback)
	}
	if err := Validate("bogus"); err == nil {
		t.Error("Validate(bogus) should fail")
	}
}
