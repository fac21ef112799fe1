package codec

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
)

var (
	ErrNoData  = errors.New("decodeUplink did not return 'data'")
	ErrNoBytes = errors.New("encodeDownlink did not return 'bytes'")
)

//nolint:whitespace // can't make both editor and linter happy
func decodeUplink(
	ctx context.Context,
	rt *jsrt.Runtime,
	s *jsrt.Script,
	recvTime time.Time,
	fPort uint8,
	variables map[string]string,
	b []byte,
) (map[string]any, error) {
	res, err := rt.Exec(ctx, s, func(vm *goja.Runtime) (goja.Value, error) {
		recv, err := jsrt.Date(vm, recvTime)
		if err != nil {
			return nil, err
		}
		input := vm.NewObject()
		set(input, "bytes", jsrt.Bytes(vm, b))
		set(input, "fPort", fPort)
		set(input, "recvTime", recv)
		set(input, "variables", jsrt.StringMap(vm, variables))
		return jsrt.Call(vm, "decodeUplink", input)
	})
	if err != nil {
		return nil, err
	}
	out, _ := jsrt.Export(res).(map[string]any)
	if err := returnedErrors("decodeUplink", out); err != nil {
		return nil, err
	}
	data, ok := out["data"].(map[string]any)
	if !ok {
		return nil, ErrNoData
	}
	return data, nil
}

//nolint:whitespace // can't make both editor and linter happy
func encodeDownlink(
	ctx context.Context,
	rt *jsrt.Runtime,
	s *jsrt.Script,
	fPort uint8,
	variables map[string]string,
	obj map[string]any,
) ([]byte, error) {
	res, err := rt.Exec(ctx, s, func(vm *goja.Runtime) (goja.Value, error) {
		input := vm.NewObject()
		set(input, "fPort", fPort)
		set(input, "variables", jsrt.StringMap(vm, variables))
		set(input, "data", jsrt.FromGo(vm, obj))
		return jsrt.Call(vm, "encodeDownlink", input)
	})
	if err != nil {
		return nil, err
	}
	out, _ := jsrt.Export(res).(map[string]any)
	if err := returnedErrors("encodeDownlink", out); err != nil {
		return nil, err
	}
	items, ok := out["bytes"].([]any)
	if !ok {
		return nil, ErrNoBytes
	}
	ret := make([]byte, len(items))
	for i, item := range items {
		f, ok := item.(float64)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is not a number", ErrNoBytes, i)
		}
		ret[i] = toByte(f)
	}
	return ret, nil
}

func returnedErrors(fn string, out map[string]any) error {
	raw, ok := out["errors"].([]any)
	if !ok || len(raw) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(raw))
	for _, r := range raw {
		msgs = append(msgs, fmt.Sprint(r))
	}
	return fmt.Errorf("%s returned errors: %s", fn, strings.Join(msgs, ", "))
}

// toByte truncates f, values outside of 0..255 saturate.
func toByte(f float64) byte {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= math.MaxUint8:
		return math.MaxUint8
	}
	return byte(f)
}

func set(obj *goja.Object, key string, v any) {
	//nolint:errcheck // plain object, set can't fail
	obj.Set(key, v)
}
