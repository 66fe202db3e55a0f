package nodelink

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"

	"github.com/matzehuels/orrery/pkg/graph"
)

// Options configures DOT generation.
type Options struct {
	// NodeSize is the node diameter in points. Defaults to 4.
	NodeSize float64
	// Labels prints vertex IDs next to the nodes.
	Labels bool
}

// palette cycles over components.
var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// ToDOT converts a layout to DOT. Edges whose endpoints have no position
// are skipped. Y is flipped so the drawing matches screen orientation.
func ToDOT(l graph.Layout, records []graph.Record, opts Options) string {
	size := opts.NodeSize
	if size <= 0 {
		size = 4
	}

	pos := make(map[int64]graph.Position, len(l.Positions))
	comps := make(map[int64]int)
	for _, p := range l.Positions {
		pos[p.ID] = p
		if _, ok := comps[p.Component]; !ok {
			comps[p.Component] = len(comps)
		}
	}

	var buf bytes.Buffer
	buf.WriteString("graph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  inputscale=72;\n")
	buf.WriteString("  splines=false;\n")
	buf.WriteString("  overlap=true;\n")
	fmt.Fprintf(&buf, "  node [shape=circle, style=filled, fixedsize=true, width=%.3f, label=\"\", penwidth=0];\n", size/72)
	buf.WriteString("  edge [color=\"#00000040\", penwidth=0.5];\n\n")

	for _, p := range l.Positions {
		color := palette[comps[p.Component]%len(palette)]
		attrs := fmt.Sprintf("pos=\"%.3f,%.3f!\", fillcolor=%q", p.X, -p.Y, color)
		if opts.Labels {
			attrs += fmt.Sprintf(", xlabel=\"%d\", fontsize=8", p.ID)
		}
		fmt.Fprintf(&buf, "  %d [%s];\n", p.ID, attrs)
	}
	buf.WriteString("\n")

	for _, e := range edges(records) {
		_, ok1 := pos[e[0]]
		_, ok2 := pos[e[1]]
		if ok1 && ok2 {
			fmt.Fprintf(&buf, "  %d -- %d;\n", e[0], e[1])
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

// edges lists every undirected edge once, lower ID first, sorted.
func edges(records []graph.Record) [][2]int64 {
	seen := make(map[[2]int64]struct{})
	add := func(a, b int64) {
		if a == b {
			return
		}
		seen[[2]int64{min(a, b), max(a, b)}] = struct{}{}
	}
	for _, r := range records {
		for _, e := range r.Edges {
			add(r.ID, e.Target)
		}
		for _, od := range r.OneDegree {
			add(r.ID, od)
		}
	}
	out := make([][2]int64, 0, len(seen))
	for e := range seen {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b [2]int64) int {
		return cmp.Or(cmp.Compare(a[0], b[0]), cmp.Compare(a[1], b[1]))
	})
	return out
}
