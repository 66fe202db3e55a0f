package nodelink

import (
	"strings"
	"testing"

	"github.com/matzehuels/orrery/pkg/graph"
)

func TestToDOT(t *testing.T) {
	l := graph.Layout{Positions: []graph.Position{
		{ID: 1, X: 0, Y: 0, Component: 1},
		{ID: 2, X: 10, Y: 5, Component: 1},
		{ID: 3, X: 50, Y: 0, Component: 3},
		{ID: 9, X: 1, Y: 1, Component: 1},
	}}
	records := []graph.Record{
		{ID: 1, Edges: []graph.Edge{{Target: 2}}, OneDegree: []int64{9}},
		{ID: 2, Edges: []graph.Edge{{Target: 1}, {Target: 7}}},
		{ID: 3},
	}

	dot := ToDOT(l, records, Options{Labels: true})
	for _, want := range []string{
		"graph G {",
		`2 [pos="10.000,-5.000!"`,
		"1 -- 2;",
		"1 -- 9;",
		`xlabel="3"`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
	if strings.Count(dot, "1 -- 2;") != 1 {
		t.Error("edge 1-2 written more than once")
	}
	if strings.Contains(dot, "-- 7") {
		t.Error("edge to a vertex without position was written")
	}
	if !strings.Contains(dot, palette[1]) {
		t.Error("second component did not get its own colour")
	}
}

func TestEdgesSorted(t *testing.T) {
	got := edges([]graph.Record{
		{ID: 5, Edges: []graph.Edge{{Target: 1}, {Target: 5}}},
		{ID: 1, Edges: []graph.Edge{{Target: 5}, {Target: 3}}},
	})
	want := [][2]int64{{1, 3}, {1, 5}}
	if len(got) != len(want) {
		t.Fatalf("edges = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("edges = %v, want %v", got, want)
		}
	}
}
