package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeasure(t *testing.T) {
	p := &DeviceProfile{Measurements: map[string]Measurement{
		"temperatureSensor.3": {Name: "temperature", Kind: "GAUGE"},
		"['battery level']":   {Kind: "ABSOLUTE"},
		"status":              {Kind: "STRING"},
		"ignored":             {Kind: "UNKNOWN"},
		"missing":             {Kind: "GAUGE"},
	}}
	obj := map[string]any{
		"temperatureSensor": map[string]any{"3": 27.2, "4": 20.0},
		"battery level":     80.0,
		"status":            "ok",
		"ignored":           1.0,
		"new":               []any{true},
	}

	values, unknown := p.Measure(obj)
	assert.Equal(t, map[string]any{
		"temperatureSensor.3": 27.2,
		"['battery level']":   80.0,
		"status":              "ok",
	}, values)
	assert.Equal(t, []string{"new[0]", "temperatureSensor.4"}, unknown)

	values, unknown = p.Measure(nil)
	assert.Empty(t, values)
	assert.Empty(t, unknown)
}
