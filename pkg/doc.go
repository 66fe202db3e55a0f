// Package pkg provides the libraries behind Orrery, a distributed
// multi-level force-directed graph layout.
//
// # Overview
//
// Orrery draws large graphs by coarsening them into solar systems (a sun,
// its planets, and their moons), laying out the coarsest level, and then
// refining every finer level starting from the positions of the level above.
// Every phase runs as bulk-synchronous supersteps over partitioned vertices.
//
// # Architecture
//
// The data flow of a layout run:
//
//	JSON-lines records
//	         ↓
//	    [graph] package (decode, normalize, components)
//	         ↓
//	    [multiscale] package (master: merge, layout, place per layer)
//	      ├─ [astral]  solar systems, merger and placer
//	      ├─ [force]   per-vertex force-directed step
//	      └─ [adapt]   temperature and convergence strategies
//	         ↓
//	    [reintegrate] package (pruned one-degree vertices)
//	         ↓
//	    [gridpack] package (pack components side by side)
//	         ↓
//	    positions, DOT/SVG/PNG
//
// [bsp] is the generic superstep engine the phases run on.
//
// # Main Packages
//
//   - [bsp]: Bulk-synchronous engine with partitioned workers and aggregators
//   - [astral]: Solar systems, sun election, merger and placer programs
//   - [force]: Attractive and repulsive forces, displacement capping
//   - [adapt]: Adaptation strategies (size, density, static, ...)
//   - [multiscale]: Layer stack and the master that drives all phases
//   - [reintegrate]: Fair-share and cone placement of one-degree vertices
//   - [gridpack]: Grid packing of connected components
//   - [graph]: Records, positions, layouts and JSON-lines codecs
//
// # Infrastructure
//
//   - [pipeline]: Load → layout → render with caching
//   - [cache]: File, Redis and null caches with content-addressed keys
//   - [io]: Output sinks (files, MongoDB) and JSON summaries
//   - [render]: Graphviz rendering of pinned positions
//   - [observability]: Hooks for layout, cache and HTTP events
//   - [errors]: Coded errors and option validation
//   - [buildinfo]: Version information
//
// # Quick Start
//
//	read, _ := graph.ReadRecordsFile("graph.jsonl")
//	runner := pipeline.NewRunner(cache.NewNullCache(), nil, nil)
//	res, err := runner.Execute(ctx, read.Records, pipeline.Options{Formats: []string{"svg"}})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile("graph.svg", res.Artifacts["svg"], 0o644)
package pkg
