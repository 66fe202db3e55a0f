// Package graph defines the records exchanged with the layout engine and
// their JSON-lines encodings.
//
// # Input
//
// Each input line describes one vertex as a JSON array:
//
//	[id, partitionHint, componentId, x, y, oneDegree, [[neighborId, neighborHint], ...]]
//
// oneDegree is either the list of pruned one-degree neighbours (ids) or just
// their count. componentId may be negative, in which case [AssignComponents]
// derives components from the edge list. Malformed lines are skipped and
// reported, never fatal.
//
// # Output
//
// The result of a run is a list of [Position] values, one per vertex of the
// original graph, written one JSON object per line:
//
//	{"id":1,"x":12.5,"y":-3.25,"component":1}
//
// [Layout] bundles positions with the per-component packing transforms and
// is the unit stored by caches and sinks.
package graph
