// Package api serves layouts over HTTP.
//
// Routes:
//
//	POST /v1/layouts                  lay out a graph
//	GET  /v1/layouts/{id}             fetch a stored layout
//	GET  /v1/layouts/{id}/render      draw a stored layout (?format=svg|png|dot)
//	GET  /healthz                     liveness
//
// A POST body is either JSON lines of vertex records (any content type but
// application/json) with options taken from the query string, or a JSON
// object {"options": {...}, "graph": [record, ...]}.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/semaphore"

	"github.com/matzehuels/orrery/pkg/buildinfo"
	"github.com/matzehuels/orrery/pkg/errors"
	"github.com/matzehuels/orrery/pkg/graph"
	pkgio "github.com/matzehuels/orrery/pkg/io"
	"github.com/matzehuels/orrery/pkg/multiscale"
	"github.com/matzehuels/orrery/pkg/pipeline"
	"github.com/matzehuels/orrery/pkg/render"
)

// DefaultMaxBody bounds request bodies.
const DefaultMaxBody = 256 << 20

// Loader reads back stored layouts. io.MongoSink implements it.
type Loader interface {
	Load(ctx context.Context, runID string) (graph.Layout, error)
}

// Server handles API requests.
type Server struct {
	runner *pipeline.Runner
	store  Loader
	logger *log.Logger
	slots  *semaphore.Weighted

	maxBody  int64
	defaults pipeline.Options
}

// Config configures a Server.
type Config struct {
	// Store serves GET requests. Without it only POST is available.
	Store Loader
	// Concurrency bounds the layouts computed at the same time. Defaults to 1.
	Concurrency int
	// MaxBody bounds request bodies in bytes. Defaults to DefaultMaxBody.
	MaxBody int64
	// Defaults are merged under every request's options.
	Defaults pipeline.Options
	Logger   *log.Logger
}

// New creates a server around runner.
func New(runner *pipeline.Runner, cfg Config) *Server {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.MaxBody <= 0 {
		cfg.MaxBody = DefaultMaxBody
	}
	if cfg.Logger == nil {
		cfg.Logger = runner.Logger
	}
	return &Server{
		runner:   runner,
		store:    cfg.Store,
		logger:   cfg.Logger,
		slots:    semaphore.NewWeighted(int64(cfg.Concurrency)),
		maxBody:  cfg.MaxBody,
		defaults: cfg.Defaults,
	}
}

// Handler returns the routed handler with middleware.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", s.health)
	r.Route("/v1/layouts", func(r chi.Router) {
		r.Post("/", s.createLayout)
		r.Get("/{id}", s.getLayout)
		r.Get("/{id}/render", s.renderLayout)
	})
	return r
}

// layoutRequest is the JSON form of a POST body.
type layoutRequest struct {
	Options pipeline.Options `json:"options"`
	Graph   []graph.Record   `json:"graph"`
}

// layoutResponse is returned by POST /v1/layouts.
type layoutResponse struct {
	RunID      string                   `json:"run_id"`
	Cached     bool                     `json:"cached"`
	Vertices   int                      `json:"vertices"`
	Edges      int                      `json:"edges"`
	Supersteps int                      `json:"supersteps"`
	DurationMS int64                    `json:"duration_ms"`
	Skipped    []string                 `json:"skipped,omitempty"`
	Layers     []multiscale.LayerReport `json:"layers,omitempty"`
	Layout     graph.Layout             `json:"layout"`
}

type errorResponse struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": buildinfo.Version})
}

func (s *Server) createLayout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	records, opts, skipped, err := s.decodeLayoutRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(records) == 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "graph has no vertices"))
		return
	}

	if err := s.slots.Acquire(ctx, 1); err != nil {
		s.writeError(w, r, err)
		return
	}
	defer s.slots.Release(1)

	opts.Logger = loggerFromContext(ctx, s.logger)
	// Artifacts are served by the render route.
	opts.Formats = nil
	res, err := s.runner.Execute(ctx, records, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := layoutResponse{
		RunID:      res.RunID,
		Cached:     res.CacheInfo.LayoutHit,
		Vertices:   res.Stats.Vertices,
		Edges:      res.Stats.Edges,
		Supersteps: res.Stats.Supersteps,
		DurationMS: res.Stats.LayoutTime.Milliseconds(),
		Skipped:    skipped,
		Layers:     res.Layers,
		Layout:     res.Layout,
	}
	w.Header().Set("Location", "/v1/layouts/"+res.RunID)
	writeJSON(w, http.StatusCreated, resp)
}

// decodeLayoutRequest reads records and options from the body and query.
func (s *Server) decodeLayoutRequest(w http.ResponseWriter, r *http.Request) ([]graph.Record, pipeline.Options, []string, error) {
	body := http.MaxBytesReader(w, r.Body, s.maxBody)
	defer body.Close()

	opts := s.defaults
	var records []graph.Record
	var skipped []string

	if r.Header.Get("Content-Type") == "application/json" {
		var req layoutRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return nil, opts, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request")
		}
		opts.Merge(req.Options)
		records = req.Graph
	} else {
		q, err := optionsFromQuery(r.URL.Query())
		if err != nil {
			return nil, opts, nil, err
		}
		opts.Merge(q)
		read, err := graph.ReadRecords(body)
		if err != nil {
			return nil, opts, nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read graph")
		}
		records = read.Records
		for _, le := range read.Skipped {
			skipped = append(skipped, le.Error())
		}
	}

	opts.RunID = ""
	opts.SetDefaults()
	if err := opts.ValidateStrategies(); err != nil {
		return nil, opts, nil, err
	}
	return records, opts, skipped, nil
}

// optionsFromQuery reads the commonly tuned options from query parameters.
func optionsFromQuery(q url.Values) (pipeline.Options, error) {
	var o pipeline.Options
	o.Adaptation = q.Get("adaptation")
	o.Reintegration = q.Get("reintegration")
	o.Refresh = q.Get("refresh") == "true"

	ints := map[string]*int{"ttl": &o.TTL, "budget": &o.Budget, "workers": &o.Workers}
	for name, dst := range ints {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return o, errors.New(errors.ErrCodeInvalidConfig, "%s: %q is not an integer", name, v)
			}
			*dst = n
		}
	}
	floats := map[string]*float64{"threshold": &o.Threshold, "radius": &o.Radius, "repulsion": &o.RepulsionOverride}
	for name, dst := range floats {
		if v := q.Get(name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return o, errors.New(errors.ErrCodeInvalidConfig, "%s: %q is not a number", name, v)
			}
			*dst = f
		}
	}
	return o, nil
}

func (s *Server) load(ctx context.Context, id string) (graph.Layout, error) {
	if s.store == nil {
		return graph.Layout{}, errors.New(errors.ErrCodeNotFound, "layout storage is not configured")
	}
	l, err := s.store.Load(ctx, id)
	if stderrors.Is(err, pkgio.ErrRunNotFound) {
		return l, errors.Wrap(errors.ErrCodeNotFound, err, "layout %s", id)
	}
	if err != nil {
		return l, errors.Wrap(errors.ErrCodeStorage, err, "load layout %s", id)
	}
	return l, nil
}

func (s *Server) getLayout(w http.ResponseWriter, r *http.Request) {
	l, err := s.load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

var contentTypes = map[render.Format]string{
	render.FormatSVG: "image/svg+xml",
	render.FormatPNG: "image/png",
	render.FormatDOT: "text/vnd.graphviz",
}

func (s *Server) renderLayout(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("format")
	if name == "" {
		name = pipeline.DefaultFormat
	}
	f, err := render.ParseFormat(name)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidFormat, err, "format"))
		return
	}
	l, err := s.load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	opts := s.defaults
	opts.Formats = []string{string(f)}
	opts.Logger = loggerFromContext(r.Context(), s.logger)
	artifacts, _, err := s.runner.Render(r.Context(), l, nil, opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[f])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifacts[string(f)])
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	if stderrors.As(err, &maxErr) {
		err = errors.Wrap(errors.ErrCodeInvalidInput, err, "request body too large")
	}
	status := errors.HTTPStatus(err)
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	logger := loggerFromContext(r.Context(), s.logger)
	if status >= 500 {
		logger.Error("request failed", "err", err)
	} else {
		logger.Debug("request rejected", "status", status, "err", err)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, `{"code":"INTERNAL_ERROR","message":"encode response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// Serve runs srv until ctx ends, then shuts it down gracefully.
func Serve(ctx context.Context, srv *http.Server, logger *log.Logger) error {
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
