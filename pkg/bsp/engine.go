package bsp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"slices"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// ErrSuperstepLimit is returned by [Engine.Run] when the master never halts
// within Config.MaxSupersteps.
var ErrSuperstepLimit = errors.New("superstep limit reached")

// Computation is the per-vertex program of one superstep.
type Computation[V, M, G any, R Reduction[R]] interface {
	Compute(ctx *Context[V, M, G, R], v *Vertex[V], msgs []M) error
}

// ComputeFunc adapts a function to the Computation interface.
type ComputeFunc[V, M, G any, R Reduction[R]] func(ctx *Context[V, M, G, R], v *Vertex[V], msgs []M) error

// Compute calls f.
func (f ComputeFunc[V, M, G, R]) Compute(ctx *Context[V, M, G, R], v *Vertex[V], msgs []M) error {
	return f(ctx, v, msgs)
}

// Reduction is a value folded across partitions at every barrier.
// Merge may reuse the receiver and must be commutative and associative.
type Reduction[R any] interface {
	Merge(other R) R
}

// Directive is what the master decides before a superstep.
type Directive[G any] struct {
	Computation string
	Globals     G
	Halt        bool
}

// Master drives the computation between supersteps. It receives the merged
// reduction of the previous superstep (an empty reduction at superstep 0).
type Master[G, R any] interface {
	Compute(superstep int, reduced R) (Directive[G], error)
}

// Config controls partitioning and limits.
type Config struct {
	// Workers is the number of partitions. Defaults to GOMAXPROCS.
	Workers int

	// MaxSupersteps aborts runaway computations. Zero means no limit.
	MaxSupersteps int

	Logger *log.Logger
}

// Stats summarizes a finished run.
type Stats struct {
	Supersteps int
	Messages   map[string]int64 // messages sent per computation name
	Dropped    int64            // messages addressed to unknown vertices
}

// Engine runs named computations over a partitioned graph.
type Engine[V, M, G any, R Reduction[R]] struct {
	cfg          Config
	logger       *log.Logger
	computations map[string]Computation[V, M, G, R]
	newReduction func() R
	partitions   []*partition[V, M, G, R]
	stats        Stats
}

// NewEngine creates an engine. newReduction must return a fresh, empty
// reduction on every call.
func NewEngine[V, M, G any, R Reduction[R]](cfg Config, newReduction func() R) *Engine[V, M, G, R] {
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	e := &Engine[V, M, G, R]{
		cfg:          cfg,
		logger:       logger,
		computations: make(map[string]Computation[V, M, G, R]),
		newReduction: newReduction,
		partitions:   make([]*partition[V, M, G, R], cfg.Workers),
		stats:        Stats{Messages: make(map[string]int64)},
	}
	for i := range e.partitions {
		e.partitions[i] = newPartition[V, M, G, R](i)
	}
	return e
}

// Register binds a computation to a name the master can select.
func (e *Engine[V, M, G, R]) Register(name string, c Computation[V, M, G, R]) {
	e.computations[name] = c
}

// AddVertex loads a vertex before the run starts. An existing vertex with the
// same ID is replaced.
func (e *Engine[V, M, G, R]) AddVertex(v *Vertex[V]) {
	p := e.owner(v.ID)
	if _, ok := p.vertices[v.ID]; !ok {
		p.order = append(p.order, v.ID)
		p.dirty = true
	}
	p.vertices[v.ID] = v
}

// Vertex returns the vertex with the given ID.
func (e *Engine[V, M, G, R]) Vertex(id VertexID) (*Vertex[V], bool) {
	v, ok := e.owner(id).vertices[id]
	return v, ok
}

// Vertices returns every vertex sorted by ID.
func (e *Engine[V, M, G, R]) Vertices() []*Vertex[V] {
	var out []*Vertex[V]
	for _, p := range e.partitions {
		for _, v := range p.vertices {
			out = append(out, v)
		}
	}
	slices.SortFunc(out, func(a, b *Vertex[V]) int { return a.ID.Compare(b.ID) })
	return out
}

// NumVertices counts vertices across all partitions.
func (e *Engine[V, M, G, R]) NumVertices() int {
	n := 0
	for _, p := range e.partitions {
		n += len(p.vertices)
	}
	return n
}

// Stats returns the statistics collected so far.
func (e *Engine[V, M, G, R]) Stats() Stats { return e.stats }

// Run executes supersteps until the master halts, an error occurs, the
// context is cancelled or the superstep limit is hit.
func (e *Engine[V, M, G, R]) Run(ctx context.Context, master Master[G, R]) error {
	reduced := e.newReduction()
	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if e.cfg.MaxSupersteps > 0 && step >= e.cfg.MaxSupersteps {
			return fmt.Errorf("%w (%d)", ErrSuperstepLimit, e.cfg.MaxSupersteps)
		}

		dir, err := master.Compute(step, reduced)
		if err != nil {
			return fmt.Errorf("master at superstep %d: %w", step, err)
		}
		if dir.Halt {
			e.stats.Supersteps = step
			e.logger.Debug("computation halted", "superstep", step)
			return nil
		}

		comp, ok := e.computations[dir.Computation]
		if !ok {
			return fmt.Errorf("superstep %d: unknown computation %q", step, dir.Computation)
		}
		if err := e.superstep(ctx, step, comp, dir.Globals); err != nil {
			return fmt.Errorf("superstep %d (%s): %w", step, dir.Computation, err)
		}
		reduced = e.barrier(dir.Computation, step)
	}
}

func (e *Engine[V, M, G, R]) superstep(ctx context.Context, step int, comp Computation[V, M, G, R], globals G) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, p := range e.partitions {
		p.begin(len(e.partitions), e.newReduction())
		c := &Context[V, M, G, R]{superstep: step, globals: globals, part: p, engine: e}
		g.Go(func() error {
			return p.compute(gctx, c, comp)
		})
	}
	return g.Wait()
}

// barrier applies mutations, delivers messages and merges reductions.
func (e *Engine[V, M, G, R]) barrier(name string, step int) R {
	for _, p := range e.partitions {
		for _, v := range p.added {
			owner := e.owner(v.ID)
			if _, ok := owner.vertices[v.ID]; ok {
				continue
			}
			owner.vertices[v.ID] = v
			owner.order = append(owner.order, v.ID)
			owner.dirty = true
		}
	}
	for _, p := range e.partitions {
		for _, req := range p.edges {
			if v, ok := e.owner(req.from).vertices[req.from]; ok {
				v.Edges[req.to] = req.weight
			}
		}
	}

	var sent, dropped int64
	for _, p := range e.partitions {
		p.inbox = make(map[VertexID][]M)
	}
	for _, src := range e.partitions {
		sent += src.sent
		for t, envs := range src.outbox {
			dst := e.partitions[t]
			for _, env := range envs {
				if _, ok := dst.vertices[env.to]; !ok {
					dropped++
					continue
				}
				dst.inbox[env.to] = append(dst.inbox[env.to], env.msg)
			}
		}
	}
	e.stats.Messages[name] += sent
	e.stats.Dropped += dropped

	reduced := e.newReduction()
	for _, p := range e.partitions {
		reduced = reduced.Merge(p.reduction)
	}

	e.logger.Debug("superstep done", "superstep", step, "computation", name, "messages", sent, "dropped", dropped)
	return reduced
}

func (e *Engine[V, M, G, R]) owner(id VertexID) *partition[V, M, G, R] {
	return e.partitions[partitionOf(id, len(e.partitions))]
}

// partitionOf hashes an ID onto [0, n). Copies of a vertex on different
// layers land on the same partition.
func partitionOf(id VertexID, n int) int {
	h := uint64(id.ID) * 0x9E3779B97F4A7C15
	return int(h>>33) % n
}
