package graph

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// NormalizeReport summarizes the repairs made by Normalize.
type NormalizeReport struct {
	DanglingEdges   int // edges to vertices that are not in the input
	SelfLoops       int
	AddedReverse    int // missing reverse edges that were added
	DuplicateEdges  int
	ComponentsBuilt bool
}

// Normalize makes the adjacency symmetric and self-consistent: edges to
// unknown vertices, self loops and duplicates are dropped, missing reverse
// edges are added. Vertices with a negative component get components
// computed from the edges. Records are returned sorted by ID.
func Normalize(records []Record) ([]Record, NormalizeReport) {
	var rep NormalizeReport
	out := slices.Clone(records)
	slices.SortFunc(out, func(a, b Record) int { return cmp.Compare(a.ID, b.ID) })

	index := make(map[int64]int, len(out))
	for i, r := range out {
		index[r.ID] = i
	}

	adj := make([]map[int64]int, len(out)) // target -> partition hint
	for i, r := range out {
		adj[i] = make(map[int64]int, len(r.Edges))
		for _, e := range r.Edges {
			switch _, known := index[e.Target]; {
			case !known:
				rep.DanglingEdges++
			case e.Target == r.ID:
				rep.SelfLoops++
			default:
				if _, dup := adj[i][e.Target]; dup {
					rep.DuplicateEdges++
					continue
				}
				adj[i][e.Target] = e.Partition
			}
		}
	}
	for i, r := range out {
		for t := range adj[i] {
			j := index[t]
			if _, ok := adj[j][r.ID]; !ok {
				adj[j][r.ID] = r.Partition
				rep.AddedReverse++
			}
		}
	}
	for i := range out {
		edges := make([]Edge, 0, len(adj[i]))
		for t, p := range adj[i] {
			edges = append(edges, Edge{Target: t, Partition: p})
		}
		slices.SortFunc(edges, func(a, b Edge) int { return cmp.Compare(a.Target, b.Target) })
		out[i].Edges = edges
		if out[i].OneDegreeCount < len(out[i].OneDegree) {
			out[i].OneDegreeCount = len(out[i].OneDegree)
		}
	}

	if slices.ContainsFunc(out, func(r Record) bool { return r.Component < 0 }) {
		AssignComponents(out)
		rep.ComponentsBuilt = true
	}
	return out, rep
}

// AssignComponents sets the component of every record with a negative
// component to the smallest vertex ID of its connected component. Records
// that already carry a component keep it.
func AssignComponents(records []Record) {
	g := simple.NewUndirectedGraph()
	for _, r := range records {
		if g.Node(r.ID) == nil {
			g.AddNode(simple.Node(r.ID))
		}
	}
	for _, r := range records {
		for _, e := range r.Edges {
			if e.Target == r.ID || g.Node(e.Target) == nil {
				continue
			}
			g.SetEdge(simple.Edge{F: simple.Node(r.ID), T: simple.Node(e.Target)})
		}
	}

	label := make(map[int64]int64, len(records))
	for _, cc := range topo.ConnectedComponents(g) {
		least := cc[0].ID()
		for _, n := range cc[1:] {
			least = min(least, n.ID())
		}
		for _, n := range cc {
			label[n.ID()] = least
		}
	}
	for i := range records {
		if records[i].Component < 0 {
			records[i].Component = label[records[i].ID]
		}
	}
}
