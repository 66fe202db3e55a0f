// Package multiscale computes a force-directed drawing of a large graph
// through a hierarchy of coarser graphs.
//
// A run proceeds in phases driven by a single orchestrator:
//
//  1. Merging. The solar merger repeatedly elects suns among the vertices of
//     the current layer, attaches planets and moons to them and builds the
//     next, coarser layer out of the suns. Merging stops when a layer is
//     small enough, the layer limit is reached or a round no longer shrinks
//     the graph.
//  2. Layout and placing, alternating from the coarsest layer down to the
//     original graph. Each layer is refined with a flooding variant of the
//     Fruchterman-Reingold model; the placer then seeds the next finer layer
//     from the recorded paths between neighbouring systems.
//  3. Reintegration. One-degree vertices that were pruned from the input are
//     put back around their anchor, bounding boxes are recomputed and the
//     connected components are packed onto one canvas.
//
// Every step runs as a superstep of a [bsp.Engine]. The orchestrator itself
// is the pure transition [Master.Step]; [Run] wires it to the engine.
//
// [bsp.Engine]: github.com/matzehuels/orrery/pkg/bsp.Engine
package multiscale
