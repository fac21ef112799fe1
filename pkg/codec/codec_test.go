//nolint:funlen,errcheck,dupl //ok for this test code
package codec

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dop251/goja"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/ohler55/ojg/jp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
)

var lppPayload = []byte{
	3, 0, 100, 5, 0, 210, // digital input
	3, 1, 100, 5, 1, 210, // digital output
	3, 2, 0, 10, 5, 2, 3, 232, // analog input
	3, 3, 0, 10, 5, 3, 3, 232, // analog output
	3, 101, 0, 10, 5, 101, 3, 232, // illuminance sensors
	3, 102, 5, 5, 102, 3, // presence sensors
	3, 103, 1, 16, 5, 103, 0, 255, // temperature sensors
	3, 104, 41, 5, 104, 150, // humidity sensors
	3, 113, 0, 1, 0, 2, 0, 3, 5, 113, 3, 234, 7, 211, 11, 187, // accelerometers
	3, 115, 4, 31, 5, 115, 9, 196, // barometers
	3, 134, 0, 1, 0, 2, 0, 3, 5, 134, 3, 233, 7, 210, 11, 187, // gyrometers
	1, 136, 6, 118, 95, 242, 150, 10, 0, 3, 232, // gps location
}

var lppObject = map[string]any{
	"digitalInput":      map[string]any{"3": 100.0, "5": 210.0},
	"digitalOutput":     map[string]any{"3": 100.0, "5": 210.0},
	"analogInput":       map[string]any{"3": 0.1, "5": 10.0},
	"analogOutput":      map[string]any{"3": 0.1, "5": 10.0},
	"illuminanceSensor": map[string]any{"3": 10.0, "5": 1000.0},
	"presenceSensor":    map[string]any{"3": 5.0, "5": 3.0},
	"temperatureSensor": map[string]any{"3": 27.2, "5": 25.5},
	"humiditySensor":    map[string]any{"3": 20.5, "5": 75.0},
	"accelerometer": map[string]any{
		"3": map[string]any{"x": 0.001, "y": 0.002, "z": 0.003},
		"5": map[string]any{"x": 1.002, "y": 2.003, "z": 3.003},
	},
	"barometer": map[string]any{"3": 105.5, "5": 250.0},
	"gyrometer": map[string]any{
		"3": map[string]any{"x": 0.01, "y": 0.02, "z": 0.03},
		"5": map[string]any{"x": 10.01, "y": 20.02, "z": 30.03},
	},
	"gpsLocation": map[string]any{
		"1": map[string]any{"latitude": 42.3519, "longitude": -87.9094, "altitude": 10.0},
	},
}

var approx = cmpopts.EquateApprox(0, 1e-9)

func TestParseCodec(t *testing.T) {
	tests := []struct {
		in      string
		want    Codec
		wantErr bool
	}{
		{in: "", want: None},
		{in: "NONE", want: None},
		{in: "CAYENNE_LPP", want: CayenneLPP},
		{in: "JS", want: JS},
		{in: "js", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseCodec(tt.in)
		if tt.wantErr {
			assert.EqualError(t, err, "unexpected codec: js")
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
	text, _ := CayenneLPP.MarshalText()
	assert.Equal(t, "CAYENNE_LPP", string(text))
}

func TestDecodeLPP(t *testing.T) {
	got, err := DecodeLPP(lppPayload)
	require.NoError(t, err)
	if diff := cmp.Diff(lppObject, got, approx); diff != "" {
		t.Errorf("DecodeLPP() mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeLPP(t *testing.T) {
	got, err := EncodeLPP(lppObject)
	require.NoError(t, err)
	assert.Equal(t, lppPayload, got)
}

func TestLPPErrors(t *testing.T) {
	_, err := DecodeLPP([]byte{1, 99, 0})
	assert.EqualError(t, err, "invalid data type: 99")

	_, err = DecodeLPP([]byte{1, lppTemperatureSensor, 0})
	assert.ErrorIs(t, err, ErrTruncatedPayload)

	_, err = EncodeLPP(map[string]any{"foo": map[string]any{}})
	assert.EqualError(t, err, "unexpected key 'foo' in payload")

	_, err = EncodeLPP(map[string]any{
		"gpsLocation": map[string]any{"1": map[string]any{"latitude": 1.0}},
	})
	assert.ErrorContains(t, err, "longitude field is missing")

	// trailing single byte is ignored
	got, err := DecodeLPP([]byte{3, 0, 1, 7})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"digitalInput": map[string]any{"3": 1.0}}, got)
}

func newRuntime(t *testing.T, opts ...jsrt.Option) *jsrt.Runtime {
	t.Helper()
	rt, err := jsrt.New(10, opts...)
	require.NoError(t, err)
	return rt
}

func TestBinaryToStructJS(t *testing.T) {
	rt := newRuntime(t)
	recv := time.Date(2014, 7, 8, 9, 10, 11, 0, time.UTC)
	decoder := `
export function decodeUplink(input) {
	var buff = Buffer.from(input.bytes);
	return {
		data: {
			f_port: input.fPort,
			variables: input.variables,
			data_hex: buff.toString("hex"),
			data: input.bytes,
			recv_time: input.recvTime.toISOString(),
		}
	};
}`
	got, err := BinaryToStruct(context.Background(), rt, JS, recv, 10,
		map[string]string{"foo": "bar"}, decoder, []byte{1, 2, 3})
	require.NoError(t, err)
	want := map[string]any{
		"f_port":    10.0,
		"variables": map[string]any{"foo": "bar"},
		"data_hex":  "010203",
		"data":      []any{1.0, 2.0, 3.0},
		"recv_time": "2014-07-08T09:10:11.000Z",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("BinaryToStruct() mismatch (-want +got):\n%s", diff)
	}
}

func TestBinaryToStructOtherCodecs(t *testing.T) {
	rt := newRuntime(t)
	got, err := BinaryToStruct(context.Background(), rt, None, time.Now(), 1, nil, "", []byte{1})
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = BinaryToStruct(context.Background(), rt, CayenneLPP, time.Now(), 1, nil, "",
		[]byte{3, 103, 1, 16})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"temperatureSensor": map[string]any{"3": 27.2}}, got)
}

func TestBinaryToStructJSErrors(t *testing.T) {
	rt := newRuntime(t, jsrt.WithMaxExecutionTime(20*time.Millisecond))
	ctx := context.Background()
	tests := []struct {
		name    string
		script  string
		wantErr string
	}{
		{
			name:    "timeout",
			script:  "function decodeUplink(input) { while (true) {} }",
			wantErr: "execution timeout",
		},
		{
			name: "errors",
			script: `function decodeUplink(input) {
				return {errors: ["error 1", "error 2"]};
			}`,
			wantErr: "decodeUplink returned errors: error 1, error 2",
		},
		{
			name:    "no data",
			script:  "function decodeUplink(input) { return {foo: 1}; }",
			wantErr: "decodeUplink did not return 'data'",
		},
		{
			name:    "data not an object",
			script:  "function decodeUplink(input) { return {data: 1}; }",
			wantErr: "decodeUplink did not return 'data'",
		},
		{
			name:    "missing function",
			script:  "function decode(input) { return {}; }",
			wantErr: "not a function",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BinaryToStruct(ctx, rt, JS, time.Now(), 1, nil, tt.script, []byte{1})
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestStructToBinaryJS(t *testing.T) {
	rt := newRuntime(t)
	encoder := `
export function encodeDownlink(input) {
	if (input.data.enabled) {
		return {bytes: [input.fPort, 0x01, 256, -1, 3.7]};
	}
	return {bytes: [input.fPort, 0x00]};
}`
	got, err := StructToBinary(context.Background(), rt, JS, 10,
		map[string]string{"foo": "bar"}, encoder, map[string]any{"enabled": true})
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 1, 255, 0, 3}, got)

	_, err = StructToBinary(context.Background(), rt, JS, 10, nil,
		`function encodeDownlink(input) { return {errors: ["bad"]}; }`, map[string]any{})
	assert.ErrorContains(t, err, "encodeDownlink returned errors: bad")

	got, err = StructToBinary(context.Background(), rt, None, 10, nil, "", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = StructToBinary(context.Background(), rt, CayenneLPP, 10, nil, "",
		map[string]any{"presenceSensor": map[string]any{"2": 1.0}})
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 102, 1}, got)
}

func TestSkeletonPlugin(t *testing.T) {
	ctx := context.Background()
	p, err := LoadPlugin(ctx, newRuntime(t), "../../examples/codec_plugins/plugin_skeleton.js")
	require.NoError(t, err)
	assert.Equal(t, "example_id", p.ID())
	assert.Equal(t, "Example plugin", p.Name())

	got, err := p.Decode(ctx, time.Now(), 1, nil, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, got)

	// the skeleton returns the data object as bytes which is no byte array
	_, err = p.Encode(ctx, 1, nil, map[string]any{"a": 1.0})
	assert.ErrorIs(t, err, ErrNoBytes)
	assert.ErrorContains(t, err, "JS plugin error")
}

// encodeDownlink of the skeleton hands back the data object unchanged.
func TestSkeletonEncodeReturnsData(t *testing.T) {
	src, err := os.ReadFile("../../examples/codec_plugins/plugin_skeleton.js")
	require.NoError(t, err)
	rt := newRuntime(t)
	s, err := rt.Compile("plugin_skeleton.js", string(src))
	require.NoError(t, err)

	tests := []struct {
		name string
		data any
	}{
		{"array", []any{1.0, 2.0, 255.0}},
		{"object", map[string]any{"a": 1.0, "b": "text", "c": true}},
		{"nested", map[string]any{
			"list": []any{map[string]any{"x": 1.5}, []any{"y", false}},
			"obj":  map[string]any{"inner": map[string]any{"z": -3.0}},
		}},
		{"empty object", map[string]any{}},
		{"empty array", []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := map[string]any{
				"data":      tt.data,
				"fPort":     10.0,
				"variables": map[string]any{"key": "value"},
			}
			res, err := rt.Exec(context.Background(), s,
				func(vm *goja.Runtime) (goja.Value, error) {
					return jsrt.Call(vm, "encodeDownlink", jsrt.FromGo(vm, input))
				})
			require.NoError(t, err)
			got, ok := jsrt.Export(res).(map[string]any)
			require.True(t, ok)
			if diff := cmp.Diff(tt.data, got["bytes"]); diff != "" {
				t.Errorf("encodeDownlink() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "plugin.js")
	src := `
export function id() { return "custom"; }
export function name() { return "Custom plugin"; }
export function decodeUplink(input) { return {data: {first: input.bytes[0], port: input.fPort}}; }
export function encodeDownlink(input) { return {bytes: [input.data.value]}; }
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	r, err := NewRegistry(ctx, newRuntime(t), WithPluginFiles(path))
	require.NoError(t, err)
	assert.Equal(t, []PluginInfo{
		{ID: "custom", Name: "Custom plugin"},
		{ID: "passthrough", Name: "Passthrough"},
	}, r.Plugins())

	got, err := r.Decode(ctx, "custom", time.Now(), 7, nil, []byte{9})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"first": 9.0, "port": 7.0}, got)

	b, err := r.Encode(ctx, "custom", 1, nil, map[string]any{"value": 42.0})
	require.NoError(t, err)
	assert.Equal(t, []byte{42}, b)

	got, err = r.Decode(ctx, "passthrough", time.Now(), 1, nil, []byte{1, 2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"bytes": []any{1.0, 2.0}}, got)
	b, err = r.Encode(ctx, "passthrough", 1, nil, got)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2}, b)

	_, err = r.Decode(ctx, "unknown", time.Now(), 1, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownPlugin)
	assert.EqualError(t, err, "no codec plugin configured with given ID: unknown")

	require.NoError(t, os.Remove(path))
	require.NoError(t, r.Reload(ctx, path))
	_, err = r.Encode(ctx, "custom", 1, nil, nil)
	assert.ErrorIs(t, err, ErrUnknownPlugin)
}

func TestRegistryRestoresBuiltin(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "passthrough.js")
	src := `
export function id() { return "passthrough"; }
export function name() { return "Custom passthrough"; }
export function decodeUplink(input) { return {data: {custom: true}}; }
export function encodeDownlink(input) { return {bytes: [0]}; }
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	r, err := NewRegistry(ctx, newRuntime(t), WithPluginFiles(path))
	require.NoError(t, err)
	assert.Equal(t, []PluginInfo{{ID: "passthrough", Name: "Custom passthrough"}}, r.Plugins())

	require.NoError(t, os.Remove(path))
	require.NoError(t, r.Reload(ctx, path))
	assert.Equal(t, []PluginInfo{{ID: "passthrough", Name: "Passthrough"}}, r.Plugins())
	got, err := r.Decode(ctx, "passthrough", time.Now(), 1, nil, []byte{5})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"bytes": []any{5.0}}, got)
}

func TestFlatten(t *testing.T) {
	obj := map[string]any{
		"temperatureSensor": map[string]any{"3": 27.2},
		"status":            "ok",
		"readings":          []any{map[string]any{"value": 1.5}},
		"nested":            map[string]any{"list": []any{1.0, int64(2)}},
		"battery level":     80.0,
		"a-b":               map[string]any{"c": true},
		"empty":             map[string]any{},
		"none":              nil,
	}
	want := map[string]any{
		"temperatureSensor.3": 27.2,
		"status":              "ok",
		"readings[0].value":   1.5,
		"nested.list[0]":      1.0,
		"nested.list[1]":      2.0,
		"['battery level']":   80.0,
		"['a-b'].c":           true,
	}
	got := Flatten(obj)
	assert.Equal(t, want, got)
	assert.Empty(t, Flatten(nil))

	for k := range got {
		norm, err := NormalizeMeasurementKey(k)
		require.NoError(t, err, k)
		assert.Equal(t, k, norm, "flattened keys are normalized")
		x, err := jp.ParseString(k)
		require.NoError(t, err)
		assert.Equal(t, got[k], normalizeNumber(x.First(obj)), k)
	}
}

func normalizeNumber(v any) any {
	if i, ok := v.(int64); ok {
		return float64(i)
	}
	return v
}

func TestNormalizeMeasurementKey(t *testing.T) {
	tests := []struct {
		key     string
		want    string
		wantErr bool
	}{
		{key: "temperatureSensor.3", want: "temperatureSensor.3"},
		{key: "$.readings[0].value", want: "readings[0].value"},
		{key: "$['battery level']", want: "['battery level']"},
		{key: "['a-b'].c", want: "['a-b'].c"},
		{key: "a['b']", want: "a.b"},
		{key: "$", wantErr: true},
		{key: "$..value", wantErr: true},
		{key: "list[*]", wantErr: true},
		{key: "[[", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := NormalizeMeasurementKey(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidMeasurementKey)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMeasurementValue(t *testing.T) {
	tests := []struct {
		kind   string
		in     any
		want   any
		wantOk bool
	}{
		{KindGauge, 1.5, 1.5, true},
		{KindCounter, 10.0, 10.0, true},
		{KindAbsolute, 3.0, 3.0, true},
		{KindString, 1.5, nil, false},
		{KindString, "on", "on", true},
		{KindGauge, "on", "on", true},
		{KindGauge, true, "true", true},
		{KindUnknown, 1.5, nil, false},
		{"", 1.5, nil, false},
	}
	for _, tt := range tests {
		got, ok := MeasurementValue(tt.kind, tt.in)
		assert.Equal(t, tt.wantOk, ok, "%s %v", tt.kind, tt.in)
		assert.Equal(t, tt.want, got, "%s %v", tt.kind, tt.in)
	}
}
