package codec

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ohler55/ojg/jp"
)

// Measurement kinds. Values of UNKNOWN measurements are not reported.
const (
	KindUnknown  = "UNKNOWN"
	KindCounter  = "COUNTER"
	KindAbsolute = "ABSOLUTE"
	KindGauge    = "GAUGE"
	KindString   = "STRING"
)

var ErrInvalidMeasurementKey = errors.New("invalid measurement key")

// NormalizeMeasurementKey parses k as path into the decoded object and
// returns it in the form used by Flatten ("$.a.b" and "a['b']" become "a.b").
// Only plain child and index paths are accepted.
func NormalizeMeasurementKey(k string) (string, error) {
	x, err := jp.ParseString(k)
	if err != nil {
		return "", fmt.Errorf("%w %q: %w", ErrInvalidMeasurementKey, k, err)
	}
	if len(x) > 0 {
		if _, ok := x[0].(jp.Root); ok {
			x = x[1:]
		}
	}
	if len(x) == 0 || !x.Normal() {
		return "", fmt.Errorf("%w %q: not a plain path", ErrInvalidMeasurementKey, k)
	}
	for _, f := range x {
		switch f.(type) {
		case jp.Child, jp.Nth:
		default:
			return "", fmt.Errorf("%w %q: not a plain path", ErrInvalidMeasurementKey, k)
		}
	}
	return x.String(), nil
}

// Flatten returns all scalar leaves of obj keyed by their path.
// Keys which are not plain identifiers are quoted ("['battery level']"),
// so every returned key is accepted by NormalizeMeasurementKey unchanged.
func Flatten(obj map[string]any) map[string]any {
	ret := map[string]any{}
	if obj == nil {
		return ret
	}
	jp.Walk(obj, func(path jp.Expr, value any) {
		if len(path) < 2 {
			return
		}
		switch v := value.(type) {
		case float64, string, bool:
			ret[path[1:].String()] = v
		case int64:
			ret[path[1:].String()] = float64(v)
		}
	}, true)
	return ret
}

// MeasurementValue converts a flattened value according to kind.
// Numbers are kept for COUNTER, ABSOLUTE and GAUGE. Strings and booleans
// are reported as string for every kind except UNKNOWN.
func MeasurementValue(kind string, v any) (any, bool) {
	switch kind {
	case KindCounter, KindAbsolute, KindGauge, KindString:
	default:
		return nil, false
	}
	switch val := v.(type) {
	case float64:
		return val, kind != KindString
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	}
	return nil, false
}
