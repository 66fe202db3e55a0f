// Package bsp implements an in-process bulk-synchronous parallel substrate.
//
// A graph is split across a fixed number of partitions. Computation proceeds
// in supersteps: before each superstep a [Master] decides which named
// [Computation] runs next and which read-only globals every vertex sees.
// Partitions then run the computation over their vertices in parallel.
// Messages sent during superstep N, reductions emitted during superstep N and
// graph mutations requested during superstep N become visible only when
// superstep N+1 starts.
//
// # Reductions
//
// Each partition accumulates into its own reduction value, obtained from a
// factory per superstep. At the barrier the partition values are folded with
// the reduction's Merge method, so Merge must be commutative and associative.
// The merged value is handed to the master at the start of the next
// superstep and is never mutated afterwards.
//
// # Determinism
//
// Vertices are visited in ID order inside a partition and messages are
// delivered in partition order, so a run with the same worker count and the
// same input produces the same result.
package bsp
