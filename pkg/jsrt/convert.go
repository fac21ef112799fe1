package jsrt

import (
	"math"
	"sort"
	"time"

	"github.com/dop251/goja"
)

// Bytes converts b into a plain JS array of numbers.
func Bytes(vm *goja.Runtime, b []byte) goja.Value {
	items := make([]any, len(b))
	for i, v := range b {
		items[i] = int64(v)
	}
	return vm.NewArray(items...)
}

func StringMap(vm *goja.Runtime, m map[string]string) goja.Value {
	obj := vm.NewObject()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		//nolint:errcheck // plain object, set can't fail
		obj.Set(k, m[k])
	}
	return obj
}

func Date(vm *goja.Runtime, t time.Time) (goja.Value, error) {
	return vm.New(vm.Get("Date"), vm.ToValue(t.UnixMilli()))
}

// FromGo converts decoded JSON like values into native JS values.
func FromGo(vm *goja.Runtime, v any) goja.Value {
	switch val := v.(type) {
	case nil:
		return goja.Null()
	case map[string]any:
		obj := vm.NewObject()
		for k, item := range val {
			//nolint:errcheck // plain object, set can't fail
			obj.Set(k, FromGo(vm, item))
		}
		return obj
	case []any:
		items := make([]any, len(val))
		for i, item := range val {
			items[i] = FromGo(vm, item)
		}
		return vm.NewArray(items...)
	case []byte:
		return Bytes(vm, val)
	case map[string]string:
		return StringMap(vm, val)
	default:
		return vm.ToValue(val)
	}
}

// Export converts a JS value into map[string]any, []any, float64, string,
// bool or nil. Integers are represented as float64.
func Export(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return normalize(v.Export())
}

//nolint:cyclop // type switch
func normalize(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case int64:
		return float64(val)
	case int:
		return float64(val)
	case int32:
		return float64(val)
	case uint8:
		return float64(val)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case string, bool:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339Nano)
	case []byte:
		ret := make([]any, len(val))
		for i, b := range val {
			ret[i] = float64(b)
		}
		return ret
	case []any:
		ret := make([]any, len(val))
		for i, item := range val {
			ret[i] = normalize(item)
		}
		return ret
	case map[string]any:
		ret := make(map[string]any, len(val))
		for k, item := range val {
			ret[k] = normalize(item)
		}
		return ret
	case map[string]string:
		ret := make(map[string]any, len(val))
		for k, item := range val {
			ret[k] = item
		}
		return ret
	}
	return v
}

// Object returns v as object or nil if v is not an object.
func Object(vm *goja.Runtime, v goja.Value) *goja.Object {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	if obj, ok := v.(*goja.Object); ok {
		return obj
	}
	return v.ToObject(vm)
}

// Strings reads an optional array of strings (used for "errors").
func Strings(obj *goja.Object, key string) []string {
	if obj == nil {
		return nil
	}
	raw, ok := Export(obj.Get(key)).([]any)
	if !ok {
		return nil
	}
	ret := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			ret = append(ret, s)
		}
	}
	return ret
}
