// Package nodelink writes a finished layout as Graphviz DOT.
//
// Every vertex becomes a point-shaped node pinned at its computed position
// (pos="x,y!" with inputscale=72, so one layout unit is one point) and every
// input edge a straight line. Vertices are coloured by connected component.
//
//	dot := nodelink.ToDOT(layout, records, nodelink.Options{NodeSize: 4})
//	svg, err := render.Render(ctx, dot, render.FormatSVG)
//
// Edges are taken from the input records; pruned one-degree neighbours that
// were reintegrated are linked to their anchor.
package nodelink
