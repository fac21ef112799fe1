package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
)

const (
	lppDigitalInput      = 0
	lppDigitalOutput     = 1
	lppAnalogInput       = 2
	lppAnalogOutput      = 3
	lppIlluminanceSensor = 101
	lppPresenceSensor    = 102
	lppTemperatureSensor = 103
	lppHumiditySensor    = 104
	lppAccelerometer     = 113
	lppBarometer         = 115
	lppGyrometer         = 134
	lppGpsLocation       = 136
)

var ErrTruncatedPayload = errors.New("truncated payload")

type (
	lppValue interface {
		size() int
		decode(b []byte) any
		encode(v any) ([]byte, error)
	}
	lppType struct {
		code  byte
		key   string
		value lppValue
	}

	// scalar is a big endian integer scaled by div.
	scalar struct {
		bytes  int
		signed bool
		div    float64
	}
	// xyz holds three scalars (accelerometer, gyrometer).
	xyz struct {
		s scalar
	}
	gps struct{}
)

// lppTypes defines the encoding order.
var lppTypes = []lppType{
	{lppDigitalInput, "digitalInput", scalar{1, false, 1}},
	{lppDigitalOutput, "digitalOutput", scalar{1, false, 1}},
	{lppAnalogInput, "analogInput", scalar{2, true, 100}},
	{lppAnalogOutput, "analogOutput", scalar{2, true, 100}},
	{lppIlluminanceSensor, "illuminanceSensor", scalar{2, false, 1}},
	{lppPresenceSensor, "presenceSensor", scalar{1, false, 1}},
	{lppTemperatureSensor, "temperatureSensor", scalar{2, true, 10}},
	{lppHumiditySensor, "humiditySensor", scalar{1, false, 2}},
	{lppAccelerometer, "accelerometer", xyz{scalar{2, true, 1000}}},
	{lppBarometer, "barometer", scalar{2, false, 10}},
	{lppGyrometer, "gyrometer", xyz{scalar{2, true, 100}}},
	{lppGpsLocation, "gpsLocation", gps{}},
}

// DecodeLPP decodes a Cayenne LPP payload into {typeName: {channel: value}}.
func DecodeLPP(b []byte) (map[string]any, error) {
	byCode := map[byte]lppType{}
	for _, t := range lppTypes {
		byCode[t.code] = t
	}
	ret := map[string]any{}
	for len(b) >= 2 {
		channel, code := b[0], b[1]
		t, ok := byCode[code]
		if !ok {
			return nil, fmt.Errorf("invalid data type: %d", code)
		}
		b = b[2:]
		if len(b) < t.value.size() {
			return nil, fmt.Errorf("%s: %w", t.key, ErrTruncatedPayload)
		}
		group, ok := ret[t.key].(map[string]any)
		if !ok {
			group = map[string]any{}
			ret[t.key] = group
		}
		group[strconv.Itoa(int(channel))] = t.value.decode(b[:t.value.size()])
		b = b[t.value.size():]
	}
	return ret, nil
}

// EncodeLPP is the inverse of DecodeLPP. Channels are written in ascending order.
func EncodeLPP(obj map[string]any) ([]byte, error) {
	known := map[string]bool{}
	for _, t := range lppTypes {
		known[t.key] = true
	}
	for k := range obj {
		if !known[k] {
			return nil, fmt.Errorf("unexpected key '%s' in payload", k)
		}
	}
	ret := []byte{}
	for _, t := range lppTypes {
		group, ok := obj[t.key].(map[string]any)
		if !ok {
			continue
		}
		channels := make([]int, 0, len(group))
		for k := range group {
			c, err := strconv.ParseUint(k, 10, 8)
			if err != nil {
				return nil, fmt.Errorf("%s: invalid channel %q", t.key, k)
			}
			channels = append(channels, int(c))
		}
		sort.Ints(channels)
		for _, c := range channels {
			v := group[strconv.Itoa(c)]
			enc, err := t.value.encode(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", t.key, err)
			}
			if enc == nil {
				continue
			}
			ret = append(ret, byte(c), t.code)
			ret = append(ret, enc...)
		}
	}
	return ret, nil
}

func (s scalar) size() int { return s.bytes }

func (s scalar) decode(b []byte) any {
	return float64(s.raw(b)) / s.div
}

func (s scalar) raw(b []byte) int64 {
	switch {
	case s.bytes == 1:
		return int64(b[0])
	case s.bytes == 2 && s.signed:
		return int64(int16(binary.BigEndian.Uint16(b)))
	case s.bytes == 2:
		return int64(binary.BigEndian.Uint16(b))
	default:
		// 24 bit, always signed
		v := int32(uint32(b[0])<<24|uint32(b[1])<<16|uint32(b[2])<<8) >> 8
		return int64(v)
	}
}

// encode ignores values that are not numbers.
func (s scalar) encode(v any) ([]byte, error) {
	f, ok := v.(float64)
	if !ok {
		return nil, nil
	}
	return s.put(math.Round(f * s.div)), nil
}

func (s scalar) put(f float64) []byte {
	switch s.bytes {
	case 1:
		return []byte{byte(int64(f))}
	case 2:
		ret := make([]byte, 2)
		if s.signed {
			binary.BigEndian.PutUint16(ret, uint16(int16(int64(f))))
		} else {
			binary.BigEndian.PutUint16(ret, uint16(int64(f)))
		}
		return ret
	default:
		v := uint32(int32(int64(f)))
		return []byte{byte(v >> 16), byte(v >> 8), byte(v)}
	}
}

func (x xyz) size() int { return 3 * x.s.bytes }

func (x xyz) decode(b []byte) any {
	n := x.s.bytes
	return map[string]any{
		"x": x.s.decode(b[0:n]),
		"y": x.s.decode(b[n : 2*n]),
		"z": x.s.decode(b[2*n : 3*n]),
	}
}

func (x xyz) encode(v any) ([]byte, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, nil
	}
	ret := []byte{}
	for _, k := range []string{"x", "y", "z"} {
		f, ok := m[k].(float64)
		if !ok {
			return nil, fmt.Errorf("%s field is missing", k)
		}
		ret = append(ret, x.s.put(math.Round(f*x.s.div))...)
	}
	return ret, nil
}

var (
	gpsLatLon = scalar{3, true, 10000}
	gpsAlt    = scalar{3, true, 100}
)

func (gps) size() int { return 9 }

func (gps) decode(b []byte) any {
	return map[string]any{
		"latitude":  gpsLatLon.decode(b[0:3]),
		"longitude": gpsLatLon.decode(b[3:6]),
		"altitude":  gpsAlt.decode(b[6:9]),
	}
}

func (gps) encode(v any) ([]byte, error) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, nil
	}
	ret := []byte{}
	for _, f := range []struct {
		key string
		s   scalar
	}{{"latitude", gpsLatLon}, {"longitude", gpsLatLon}, {"altitude", gpsAlt}} {
		val, ok := m[f.key].(float64)
		if !ok {
			return nil, fmt.Errorf("%s field is missing", f.key)
		}
		ret = append(ret, f.s.put(math.Round(val*f.s.div))...)
	}
	return ret, nil
}
