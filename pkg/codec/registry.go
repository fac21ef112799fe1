package codec

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
)

var ErrUnknownPlugin = errors.New("no codec plugin configured with given ID")

type (
	PluginInfo struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	Option   func(*Registry)
	Registry struct {
		mu       sync.RWMutex
		rt       *jsrt.Runtime
		plugins  map[string]*Plugin
		builtins map[string]*Plugin
		byPath   map[string]*Plugin
		files    []string
		l        *log.Logger
		executed metric.Int64Counter
	}
)

func WithPluginFiles(files ...string) Option {
	return func(r *Registry) {
		r.files = append(r.files, files...)
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Registry) {
		r.l = l
	}
}

// NewRegistry sets up the passthrough plugin followed by the plugin files.
func NewRegistry(ctx context.Context, rt *jsrt.Runtime, opts ...Option) (*Registry, error) {
	r := &Registry{
		rt:      rt,
		plugins:  map[string]*Plugin{},
		builtins: map[string]*Plugin{},
		byPath:   map[string]*Plugin{},
		l:        log.Default().Named("codec"),
	}
	for _, opt := range opts {
		opt(r)
	}
	var err error
	if r.executed, err = otel.GetMeterProvider().Meter("lsm.codec").Int64Counter(
		"lsm.codec.executed",
		metric.WithDescription("Number of codec plugin executions"),
		metric.WithUnit("{count}")); err != nil {
		return nil, err
	}
	p, err := Passthrough(ctx, rt)
	if err != nil {
		return nil, err
	}
	r.builtins[p.ID()] = p
	r.plugins[p.ID()] = p
	for _, path := range r.files {
		r.l.Info("Setting up codec plugin", log.String("file", path))
		p, err := LoadPlugin(ctx, rt, path)
		if err != nil {
			return nil, err
		}
		r.plugins[p.ID()] = p
		r.byPath[path] = p
	}
	return r, nil
}

func (r *Registry) PluginFiles() []string {
	return r.files
}

func (r *Registry) Runtime() *jsrt.Runtime {
	return r.rt
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
	if old, ok := r.byPath[path]; ok {
		delete(r.byPath, path)
		if r.plugins[old.ID()] == old {
			r.restore(old.ID())
		}
	}
	if p == nil {
		r.l.Info("Codec plugin removed", log.String("file", path))
		return nil
	}
	r.plugins[p.ID()] = p
	r.byPath[path] = p
	r.l.Info("Codec plugin reloaded",
		log.String("file", path), log.String("id", p.ID()))
	return nil
}

// restore registers the plugin id falls back to: the last plugin file
// providing id, otherwise the built-in. The caller holds the lock.
func (r *Registry) restore(id string) {
	for i := len(r.files) - 1; i >= 0; i-- {
		if p, ok := r.byPath[r.files[i]]; ok && p.ID() == id {
			r.plugins[id] = p
			return
		}
	}
	if p, ok := r.builtins[id]; ok {
		r.l.Info("Restoring built-in codec plugin", log.String("id", id))
		r.plugins[id] = p
		return
	}
	delete(r.plugins, id)
}

// Plugins returns the registered plugins sorted by id.
func (r *Registry) Plugins() []PluginInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]PluginInfo, 0, len(r.plugins))
	for _, p := range r.plugins {
		ret = append(ret, PluginInfo{ID: p.ID(), Name: p.Name()})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret
}

func (r *Registry) get(id string) (*Plugin, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.plugins[id]
	if !ok {
		r.l.Warn("No codec plugin configured with given ID", log.String("pluginId", id))
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlugin, id)
	}
	return p, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (r *Registry) Decode(
	ctx context.Context,
	id string,
	recvTime time.Time,
	fPort uint8,
	variables map[string]string,
	b []byte,
) (map[string]any, error) {
	p, err := r.get(id)
	if err != nil {
		return nil, err
	}
	ret, err := p.Decode(ctx, recvTime, fPort, variables, b)
	r.record(ctx, id, "decode", err)
	return ret, err
}

//nolint:whitespace // can't make both editor and linter happy
func (r *Registry) Encode(
	ctx context.Context,
	id string,
	fPort uint8,
	variables map[string]string,
	obj map[string]any,
) ([]byte, error) {
	p, err := r.get(id)
	if err != nil {
		return nil, err
	}
	ret, err := p.Encode(ctx, fPort, variables, obj)
	r.record(ctx, id, "encode", err)
	return ret, err
}

func (r *Registry) record(ctx context.Context, id, op string, err error) {
	r.executed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("plugin", id),
		attribute.String("op", op),
		attribute.Bool("error", err != nil)))
}
