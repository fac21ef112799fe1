//nolint:funlen,errcheck //ok for this test code
package setup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
)

const (
	adrPlugin = `export function id() { return "custom"; }
export function name() { return "custom adr"; }
export function handle(req) { return {dr: 1, txPowerIndex: 0, nbTrans: 1}; }`
	codecPlugin = `export function id() { return "mycodec"; }
export function name() { return "my codec"; }
export function decodeUplink(input) { return {data: {len: input.bytes.length}}; }
export function encodeDownlink(input) { return {bytes: []}; }`
)

func TestNewComponents(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	adrFile := filepath.Join(dir, "adr.js")
	codecFile := filepath.Join(dir, "codec.js")
	require.NoError(t, os.WriteFile(adrFile, []byte(adrPlugin), 0o600))
	require.NoError(t, os.WriteFile(codecFile, []byte(codecPlugin), 0o600))

	cfg := config.Default()
	cfg.Network.AdrPlugins = []string{adrFile}
	cfg.Codec.JS.Plugins = []string{codecFile}
	c, err := NewComponents(ctx, cfg)
	require.NoError(t, err)

	assert.Equal(t, []string{adrFile, codecFile}, c.PluginFiles())
	_, ok := c.Adr.Get("custom")
	assert.True(t, ok)
	assert.Len(t, c.Codecs.Plugins(), 2)

	require.NoError(t, os.Remove(codecFile))
	require.NoError(t, c.ReloadPlugin(ctx, codecFile))
	assert.Len(t, c.Codecs.Plugins(), 1)

	require.NoError(t, os.Remove(adrFile))
	require.NoError(t, c.ReloadPlugin(ctx, adrFile))
	_, ok = c.Adr.Get("custom")
	assert.False(t, ok)

	assert.NoError(t, c.ReloadPlugin(ctx, filepath.Join(dir, "other.js")))
}

func TestNewComponentsBrokenPlugin(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "broken.js")
	require.NoError(t, os.WriteFile(file, []byte("export function ("), 0o600))
	cfg := config.Default()
	cfg.Codec.JS.Plugins = []string{file}
	_, err := NewComponents(context.Background(), cfg)
	assert.Error(t, err)
}

func TestAppConfig(t *testing.T) {
	defer func() { config.JSMaxExecutionTime = "" }()

	config.JSMaxExecutionTime = "250ms"
	cfg, err := AppConfig()
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.Codec.JS.MaxExecutionTime)

	config.JSMaxExecutionTime = "soon"
	_, err = AppConfig()
	assert.Error(t, err)

	for _, v := range []string{"0s", "-1s"} {
		config.JSMaxExecutionTime = v
		_, err = AppConfig()
		assert.ErrorIs(t, err, config.ErrInvalidConfig, v)
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, log.WarnLevel, ParseLogLevel("warn", log.InfoLevel))
	assert.Equal(t, log.ErrorLevel, ParseLogLevel("unknown", log.ErrorLevel))
}
