package adr

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
)

var ErrUnknownAlgorithm = errors.New("no ADR algorithm configured with given ID")

type (
	Option   func(*Registry)
	Registry struct {
		mu          sync.RWMutex
		handlers    map[string]Handler
		builtins    map[string]Handler
		plugins     map[string]*Plugin // key is the file path
		pluginFiles []string
		rt          *jsrt.Runtime
		l           *log.Logger
		handled     metric.Int64Counter
	}
	// Algorithm describes a registered handler.
	Algorithm struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
)

func WithPlugins(rt *jsrt.Runtime, files ...string) Option {
	return func(r *Registry) {
		r.rt = rt
		r.pluginFiles = append(r.pluginFiles, files...)
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		r.l = l
	}
}

// NewRegistry registers the built-in algorithms followed by the plugins.
// A plugin using an id already registered replaces the earlier handler.
//
//nolint:whitespace // can't make both editor and linter happy
func NewRegistry(
	ctx context.Context,
	regions *region.Registry,
	opts ...Option,
) (*Registry, error) {
	r := &Registry{
		handlers: map[string]Handler{},
		builtins: map[string]Handler{},
		plugins:  map[string]*Plugin{},
		l:        log.Default().Named("adr"),
	}
	for _, opt := range opts {
		opt(r)
	}
	var err error
	if r.handled, err = otel.GetMeterProvider().Meter("lsm.adr").Int64Counter(
		"lsm.adr.handled",
		metric.WithDescription("Number of ADR requests by algorithm and outcome"),
		metric.WithUnit("{count}")); err != nil {
		return nil, err
	}
	r.Register(NewDefault(regions))
	r.Register(NewLrFhss(regions))
	r.Register(NewLoRaLrFhss(regions))

	for _, path := range r.pluginFiles {
		r.l.Info("Setting up ADR plugin", log.String("file", path))
		p, err := LoadPlugin(ctx, r.rt, path)
		if err != nil {
			return nil, err
		}
		r.plugins[path] = p
		r.handlers[p.ID()] = p
	}
	return r, nil
}

// Register adds a built-in handler. Built-in handlers are restored when a
// plugin replacing them is removed.
func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builtins[h.ID()] = h
	r.handlers[h.ID()] = h
}

func (r *Registry) PluginFiles() []string {
	return r.pluginFiles
}

// Reload re-reads the plugin at path. A removed file unregisters the plugin
// and restores the built-in it replaced.
func (r *Registry) Reload(ctx context.Context, path string) error {
	p, err := LoadPlugin(ctx, r.rt, path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.plugins[path]; ok {
		delete(r.plugins, path)
		if cur, ok := r.handlers[old.ID()]; ok && cur == Handler(old) {
			r.restore(old.ID())
		}
	}
	if p == nil {
		r.l.Info("ADR plugin removed", log.String("file", path))
		return nil
	}
	r.plugins[path] = p
	r.handlers[p.ID()] = p
	r.l.Info("ADR plugin reloaded",
		log.String("file", path), log.String("id", p.ID()))
	return nil
}

// restore registers the handler id falls back to: the last plugin file
// providing id, otherwise the built-in. The caller holds the lock.
func (r *Registry) restore(id string) {
	for i := len(r.pluginFiles) - 1; i >= 0; i-- {
		if p, ok := r.plugins[r.pluginFiles[i]]; ok && p.ID() == id {
			r.handlers[id] = p
			return
		}
	}
	if h, ok := r.builtins[id]; ok {
		r.l.Info("Restoring built-in ADR algorithm", log.String("id", id))
		r.handlers[id] = h
		return
	}
	delete(r.handlers, id)
}

func (r *Registry) Get(id string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[id]
	return h, ok
}

// Algorithms returns the registered handlers sorted by id.
func (r *Registry) Algorithms() []Algorithm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]Algorithm, 0, len(r.handlers))
	for _, h := range r.handlers {
		ret = append(ret, Algorithm{ID: h.ID(), Name: h.Name()})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret
}

// Run executes the algorithm id and reports its errors.
//
//nolint:whitespace // can't make both editor and linter happy
func (r *Registry) Run(
	ctx context.Context,
	id string,
	req *Request,
) (*Response, error) {
	h, ok := r.Get(id)
	if !ok {
		r.record(ctx, id, "unknown")
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, id)
	}
	resp, err := h.Handle(ctx, req)
	if err != nil {
		r.record(ctx, id, "error")
		return nil, err
	}
	r.record(ctx, id, "ok")
	return resp, nil
}

// Handle never fails. If the algorithm is unknown or returns an error the
// device keeps its current settings.
func (r *Registry) Handle(ctx context.Context, id string, req *Request) *Response {
	resp, err := r.Run(ctx, id, req)
	if err != nil {
		r.l.Warn("ADR algorithm failed",
			log.String("algorithm", id),
			log.String("devEui", req.DevEUI.String()),
			log.ErrorField(err))
		return req.Current()
	}
	return resp
}

func (r *Registry) record(ctx context.Context, id, outcome string) {
	r.handled.Add(ctx, 1, metric.WithAttributes(
		attribute.String("algorithm", id),
		attribute.String("outcome", outcome)))
}
