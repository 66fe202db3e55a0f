// Package observability lets callers watch layout runs, cache lookups and
// API requests without the libraries depending on a metrics backend.
//
// Three hook interfaces cover the event sources. Each has a no-op
// implementation, which is what the global registry returns until something
// else is registered. [LogHooks] implements all three on top of a
// charmbracelet logger and [MultiLayout] fans layout events out to several
// receivers.
//
// # Usage
//
//	observability.SetLayoutHooks(observability.MultiLayout(spinner, observability.NewLogHooks(logger)))
//	defer observability.SetLayoutHooks(nil)
//
// Libraries emit events through the registry:
//
//	hooks := observability.Layout()
//	hooks.OnRunStart(ctx, runID, vertices)
//	// ... supersteps ...
//	hooks.OnRunComplete(ctx, runID, supersteps, elapsed, err)
package observability

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LayoutHooks receives events from a multi-level layout run.
type LayoutHooks interface {
	// OnRunStart is called once the input graph has been loaded.
	OnRunStart(ctx context.Context, runID string, vertices int)

	// OnPhase is called when the orchestrator enters a new phase.
	OnPhase(ctx context.Context, runID, phase string, layer int)

	// OnLayerComplete is called when the force-directed loop of a layer ends,
	// either converged or out of budget.
	OnLayerComplete(ctx context.Context, runID string, layer, supersteps int, converged bool)

	// OnRunComplete is called when the run halts or fails.
	OnRunComplete(ctx context.Context, runID string, supersteps int, duration time.Duration, err error)
}

// CacheHooks receives cache lookups and writes. keyType is "layout" or
// "artifact".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the HTTP API server.
type HTTPHooks interface {
	// OnRequest records an incoming request.
	OnRequest(ctx context.Context, method, path string)

	// OnResponse records the status and latency of a served request.
	OnResponse(ctx context.Context, method, path string, statusCode int, duration time.Duration)
}

// NoopLayoutHooks ignores every event.
type NoopLayoutHooks struct{}

func (NoopLayoutHooks) OnRunStart(context.Context, string, int)                          {}
func (NoopLayoutHooks) OnPhase(context.Context, string, string, int)                     {}
func (NoopLayoutHooks) OnLayerComplete(context.Context, string, int, int, bool)          {}
func (NoopLayoutHooks) OnRunComplete(context.Context, string, int, time.Duration, error) {}

// NoopCacheHooks ignores every event.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks ignores every event.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnRequest(context.Context, string, string)                      {}
func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// LogHooks writes layout and cache events to a logger at debug level, and
// layer and run completions at info level.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks logging to logger.
func NewLogHooks(logger *log.Logger) *LogHooks { return &LogHooks{Logger: logger} }

func (h *LogHooks) OnRunStart(_ context.Context, runID string, vertices int) {
	h.Logger.Debug("run started", "run", runID, "vertices", vertices)
}

func (h *LogHooks) OnPhase(_ context.Context, runID, phase string, layer int) {
	h.Logger.Debug("phase", "run", runID, "phase", phase, "layer", layer)
}

func (h *LogHooks) OnLayerComplete(_ context.Context, runID string, layer, supersteps int, converged bool) {
	h.Logger.Info("layer complete", "run", runID, "layer", layer, "supersteps", supersteps, "converged", converged)
}

func (h *LogHooks) OnRunComplete(_ context.Context, runID string, supersteps int, d time.Duration, err error) {
	if err != nil {
		h.Logger.Warn("run failed", "run", runID, "supersteps", supersteps, "duration", d, "err", err)
		return
	}
	h.Logger.Info("run complete", "run", runID, "supersteps", supersteps, "duration", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

// MultiLayout forwards every event to each of hooks in order.
func MultiLayout(hooks ...LayoutHooks) LayoutHooks { return multiLayout(hooks) }

type multiLayout []LayoutHooks

func (m multiLayout) OnRunStart(ctx context.Context, runID string, vertices int) {
	for _, h := range m {
		h.OnRunStart(ctx, runID, vertices)
	}
}

func (m multiLayout) OnPhase(ctx context.Context, runID, phase string, layer int) {
	for _, h := range m {
		h.OnPhase(ctx, runID, phase, layer)
	}
}

func (m multiLayout) OnLayerComplete(ctx context.Context, runID string, layer, supersteps int, converged bool) {
	for _, h := range m {
		h.OnLayerComplete(ctx, runID, layer, supersteps, converged)
	}
}

func (m multiLayout) OnRunComplete(ctx context.Context, runID string, supersteps int, d time.Duration, err error) {
	for _, h := range m {
		h.OnRunComplete(ctx, runID, supersteps, d, err)
	}
}

var (
	hooksMu     sync.RWMutex
	layoutHooks LayoutHooks = NoopLayoutHooks{}
	cacheHooks  CacheHooks  = NoopCacheHooks{}
	httpHooks   HTTPHooks   = NoopHTTPHooks{}
)

// SetLayoutHooks registers h for all later runs. nil restores the no-op
// hooks.
func SetLayoutHooks(h LayoutHooks) {
	if h == nil {
		h = NoopLayoutHooks{}
	}
	hooksMu.Lock()
	defer hooksMu.Unlock()
	layoutHooks = h
}

// SetCacheHooks registers h. nil restores the no-op hooks.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		h = NoopCacheHooks{}
	}
	hooksMu.Lock()
	defer hooksMu.Unlock()
	cacheHooks = h
}

// SetHTTPHooks registers h. nil restores the no-op hooks.
func SetHTTPHooks(h HTTPHooks) {
	if h == nil {
		h = NoopHTTPHooks{}
	}
	hooksMu.Lock()
	defer hooksMu.Unlock()
	httpHooks = h
}

// Layout returns the registered layout hooks.
func Layout() LayoutHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return layoutHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return cacheHooks
}

// HTTP returns the registered HTTP hooks.
func HTTP() HTTPHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return httpHooks
}

// Reset restores all hooks to their no-op defaults.
func Reset() {
	SetLayoutHooks(nil)
	SetCacheHooks(nil)
	SetHTTPHooks(nil)
}

var (
	_ LayoutHooks = (*LogHooks)(nil)
	_ CacheHooks  = (*LogHooks)(nil)
)
