package codec

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/dop251/goja"

	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
)

//go:embed passthrough.js
var passthroughSource string

// Plugin is a codec provided as JavaScript source.
type Plugin struct {
	path   string
	id     string
	name   string
	script *jsrt.Script
	rt     *jsrt.Runtime
}

func LoadPlugin(ctx context.Context, rt *jsrt.Runtime, path string) (*Plugin, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read codec plugin: %w", err)
	}
	return NewPlugin(ctx, rt, path, string(src))
}

func Passthrough(ctx context.Context, rt *jsrt.Runtime) (*Plugin, error) {
	return NewPlugin(ctx, rt, "passthrough", passthroughSource)
}

//nolint:whitespace // can't make both editor and linter happy
func NewPlugin(
	ctx context.Context,
	rt *jsrt.Runtime,
	path, src string,
) (*Plugin, error) {
	script, err := rt.Compile(path, src)
	if err != nil {
		return nil, fmt.Errorf("compile script: %w", err)
	}
	p := &Plugin{path: path, script: script, rt: rt}
	_, err = rt.Exec(ctx, script, func(vm *goja.Runtime) (goja.Value, error) {
		id, err := jsrt.Call(vm, "id")
		if err != nil {
			return nil, fmt.Errorf("call id function: %w", err)
		}
		name, err := jsrt.Call(vm, "name")
		if err != nil {
			return nil, fmt.Errorf("call name function: %w", err)
		}
		p.id = id.String()
		p.name = name.String()
		return nil, nil
	})
	if err != nil {
		return nil, err
	}
	if p.id == "" {
		return nil, fmt.Errorf("%s: plugin id must not be empty", path)
	}
	return p, nil
}

func (p *Plugin) ID() string   { return p.id }
func (p *Plugin) Name() string { return p.name }
func (p *Plugin) Path() string { return p.path }

// Hash identifies the plugin source.
func (p *Plugin) Hash() string { return p.script.Hash }

//nolint:whitespace // can't make both editor and linter happy
func (p *Plugin) Decode(
	ctx context.Context,
	recvTime time.Time,
	fPort uint8,
	variables map[string]string,
	b []byte,
) (map[string]any, error) {
	ret, err := decodeUplink(ctx, p.rt, p.script, recvTime, fPort, variables, b)
	if err != nil {
		return nil, fmt.Errorf("JS plugin error: %w", err)
	}
	return ret, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (p *Plugin) Encode(
	ctx context.Context,
	fPort uint8,
	variables map[string]string,
	obj map[string]any,
) ([]byte, error) {
	ret, err := encodeDownlink(ctx, p.rt, p.script, fPort, variables, obj)
	if err != nil {
		return nil, fmt.Errorf("JS plugin error: %w", err)
	}
	return ret, nil
}
