package jsrt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/buffer"
	"github.com/dop251/goja_nodejs/require"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/lorawan-service-manager/log"
)

var (
	ErrExecutionTimeout = errors.New("execution timeout")
	ErrNotAFunction     = errors.New("not a function")
)

var (
	exportDecl = regexp.MustCompile(
		`(?m)^([ \t]*)export[ \t]+(?:default[ \t]+)?(function|const|let|var|class|async)\b`)
	exportList = regexp.MustCompile(`(?m)^[ \t]*export[ \t]*\{[^}]*\};?[ \t]*$`)
)

type (
	Option  func(*Runtime)
	Runtime struct {
		maxExec  time.Duration
		programs *lru.Cache[string, *goja.Program]
		registry *require.Registry
		duration metric.Float64Histogram
		l        *log.Logger
	}
)

func WithMaxExecutionTime(d time.Duration) Option {
	return func(r *Runtime) {
		r.maxExec = d
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Runtime) {
		r.l = l
	}
}

// New creates a runtime caching up to cacheSize compiled programs.
func New(cacheSize int, opts ...Option) (*Runtime, error) {
	cache, err := lru.New[string, *goja.Program](cacheSize)
	if err != nil {
		return nil, err
	}
	ret := &Runtime{
		maxExec:  100 * time.Millisecond,
		programs: cache,
		registry: require.NewRegistry(),
		l:        log.Default().Named("jsrt"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.duration, err = otel.GetMeterProvider().Meter("lsm.jsrt").Float64Histogram(
		"lsm.jsrt.duration",
		metric.WithDescription("Duration of script executions"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}
	return ret, nil
}

func (r *Runtime) MaxExecutionTime() time.Duration {
	return r.maxExec
}

// Script is a compiled source. The same program may be shared by scripts
// with different names.
type Script struct {
	Name string
	Hash string
	prg  *goja.Program
}

// Compile returns the compiled program for src. Module style sources
// (export function ...) are accepted, the export keywords are removed.
func (r *Runtime) Compile(name, src string) (*Script, error) {
	sum := sha256.Sum256([]byte(src))
	key := hex.EncodeToString(sum[:])
	if prg, ok := r.programs.Get(key); ok {
		return &Script{Name: name, Hash: key, prg: prg}, nil
	}
	prg, err := goja.Compile(name, StripExports(src), false)
	if err != nil {
		return nil, err
	}
	r.programs.Add(key, prg)
	return &Script{Name: name, Hash: key, prg: prg}, nil
}

// StripExports turns an ES module source into a plain script.
func StripExports(src string) string {
	src = exportList.ReplaceAllString(src, "")
	return exportDecl.ReplaceAllString(src, "$1$2")
}

// Exec runs s in a fresh VM and calls fn afterwards, typically to invoke a
// function defined by the program. The whole execution is interrupted when
// the max execution time elapses or ctx is done.
//
//nolint:whitespace // can't make both editor and linter happy
func (r *Runtime) Exec(
	ctx context.Context,
	s *Script,
	fn func(vm *goja.Runtime) (goja.Value, error),
) (ret goja.Value, err error) {
	start := time.Now()
	vm := goja.New()
	r.registry.Enable(vm)
	buffer.Enable(vm)

	timer := time.AfterFunc(r.maxExec, func() {
		vm.Interrupt(ErrExecutionTimeout)
	})
	defer timer.Stop()
	stop := context.AfterFunc(ctx, func() {
		vm.Interrupt(ctx.Err())
	})
	defer stop()
	defer func() {
		r.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000.0,
			metric.WithAttributes(
				attribute.String("script", s.Name),
				attribute.Bool("error", err != nil)))
	}()

	if _, err = vm.RunProgram(s.prg); err != nil {
		return nil, unwrapInterrupt(err)
	}
	if fn == nil {
		return goja.Undefined(), nil
	}
	if ret, err = fn(vm); err != nil {
		return nil, unwrapInterrupt(err)
	}
	return ret, nil
}

// Call invokes the global function name.
func Call(vm *goja.Runtime, name string, args ...goja.Value) (goja.Value, error) {
	f, ok := goja.AssertFunction(vm.Get(name))
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotAFunction)
	}
	return f(goja.Undefined(), args...)
}

func unwrapInterrupt(err error) error {
	var ie *goja.InterruptedError
	if errors.As(err, &ie) {
		if v, ok := ie.Value().(error); ok {
			return v
		}
	}
	return err
}
