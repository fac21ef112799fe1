package log

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, InfoLevel)
	l.Debug("hidden")
	l.Named("adr").Info("visible", String("devEui", "0102030405060708"), Int("dr", 3))

	var entry map[string]any
	err := json.Unmarshal(buf.Bytes(), &entry)
	assert.NoError(t, err)
	assert.Equal(t, "visible", entry["msg"])
	assert.Equal(t, "adr", entry["logger"])
	assert.Equal(t, "0102030405060708", entry["devEui"])
	assert.InDelta(t, 3.0, entry["dr"], 0.0001)
}

func TestUint8sAsNumbers(t *testing.T) {
	buf := &bytes.Buffer{}
	New(buf, InfoLevel).Info("rates", Uint8s("dr", []uint8{0, 1, 5}))

	var entry map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, []any{0.0, 1.0, 5.0}, entry["dr"])
}

func TestWithFilter(t *testing.T) {
	buf := &bytes.Buffer{}
	l, err := New(buf, DebugLevel).WithFilter("info+:* debug:codec*")
	assert.NoError(t, err)

	l.Named("adr").Debug("dropped")
	assert.Equal(t, 0, buf.Len())

	l.Named("codec").Debug("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestGetFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, DebugLevel)
	ctx := AddToContext(context.Background(), l)
	assert.Same(t, l, GetFromContext(ctx))
	assert.Same(t, Default(), GetFromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	assert.NoError(t, err)
	assert.Equal(t, WarnLevel, lvl)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
