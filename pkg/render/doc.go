// Package render turns finished layouts into images.
//
// The [nodelink] subpackage writes a layout as Graphviz DOT source with every
// vertex pinned at its computed position; this package renders DOT to SVG
// or PNG in-process with [github.com/goccy/go-graphviz], using the neato
// engine so pinned positions are kept.
//
//	dot := nodelink.ToDOT(layout, records, nodelink.Options{})
//	svg, err := render.Render(ctx, dot, render.FormatSVG)
package render
