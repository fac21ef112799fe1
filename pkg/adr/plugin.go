package adr

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/dop251/goja"

	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
)

// Plugin is an ADR algorithm provided as JavaScript source.
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
		return nil, fmt.Errorf("read ADR plugin: %w", err)
	}
	return NewPlugin(ctx, rt, path, string(src))
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

func (p *Plugin) Handle(ctx context.Context, req *Request) (*Response, error) {
	var resp *Response
	_, err := p.rt.Exec(ctx, p.script, func(vm *goja.Runtime) (goja.Value, error) {
		res, err := jsrt.Call(vm, "handle", requestObject(vm, req))
		if err != nil {
			return nil, fmt.Errorf("call handle function: %w", err)
		}
		resp, err = responseFromObject(jsrt.Object(vm, res))
		return nil, err
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func requestObject(vm *goja.Runtime, req *Request) *goja.Object {
	history := make([]any, len(req.UplinkHistory))
	for i, h := range req.UplinkHistory {
		obj := vm.NewObject()
		set(obj, "fCnt", h.FCnt)
		set(obj, "maxSnr", h.MaxSNR)
		set(obj, "maxRssi", h.MaxRSSI)
		set(obj, "txPowerIndex", h.TxPowerIndex)
		set(obj, "gatewayCount", h.GatewayCount)
		history[i] = obj
	}
	input := vm.NewObject()
	set(input, "regionConfigId", req.RegionConfigID)
	set(input, "regionCommonName", string(req.RegionCommonName))
	set(input, "devEui", req.DevEUI.String())
	set(input, "macVersion", req.MacVersion.String())
	set(input, "regParamsRevision", req.RegParamsRevision.String())
	set(input, "adr", req.ADR)
	set(input, "dr", req.DR)
	set(input, "txPowerIndex", req.TxPowerIndex)
	set(input, "nbTrans", req.NbTrans)
	set(input, "maxTxPowerIndex", req.MaxTxPowerIndex)
	set(input, "requiredSnrForDr", req.RequiredSNRForDR)
	set(input, "installationMargin", req.InstallationMargin)
	set(input, "minDr", req.MinDR)
	set(input, "maxDr", req.MaxDR)
	set(input, "skipFCntCheck", req.SkipFCntCheck)
	set(input, "deviceVariables", jsrt.StringMap(vm, req.DeviceVariables))
	set(input, "uplinkHistory", vm.NewArray(history...))
	return input
}

func responseFromObject(obj *goja.Object) (*Response, error) {
	if obj == nil {
		return nil, fmt.Errorf("handle did not return an object")
	}
	var err error
	get := func(key string) uint8 {
		if err != nil {
			return 0
		}
		v := obj.Get(key)
		if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
			err = fmt.Errorf("get %s response: missing key", key)
			return 0
		}
		f := v.ToFloat()
		if math.IsNaN(f) || f < 0 || f > math.MaxUint8 {
			err = fmt.Errorf("get %s response: invalid value %v", key, v)
			return 0
		}
		return uint8(f)
	}
	resp := &Response{
		DR:           get("dr"),
		TxPowerIndex: get("txPowerIndex"),
		NbTrans:      get("nbTrans"),
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func set(obj *goja.Object, key string, v any) {
	//nolint:errcheck // plain object, set can't fail
	obj.Set(key, v)
}
