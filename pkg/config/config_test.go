package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

const sampleConfig = `
network:
  adr_plugins:
    - /etc/lsm/adr/custom.js
  regions:
    - id: eu868_extra
      common_name: EU868
      installation_margin: 5
      max_dr: 5
      extra_channels:
        - frequency: 867100000
          min_dr: 0
          max_dr: 5
codec:
  js:
    max_execution_time: 250ms
`

func TestLoad(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	assert.NoError(t, v.ReadConfig(strings.NewReader(sampleConfig)))

	cfg, err := Load(v)
	assert.NoError(t, err)
	assert.Equal(t, []string{"/etc/lsm/adr/custom.js"}, cfg.Network.AdrPlugins)
	assert.Len(t, cfg.Network.Regions, 1)
	r := cfg.Network.Regions[0]
	assert.Equal(t, "eu868_extra", r.ID)
	assert.InDelta(t, 5.0, r.InstallationMargin, 0.001)
	assert.Equal(t, []ExtraChannel{{Frequency: 867100000, MinDR: 0, MaxDR: 5}},
		r.ExtraChannels)
	assert.Equal(t, 250*time.Millisecond, cfg.Codec.JS.MaxExecutionTime)
	// untouched section keeps defaults
	assert.Equal(t, "localhost:6379", cfg.Integration.Redis.Addr)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New())
	assert.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"zero exec time", func(c *Config) { c.Codec.JS.MaxExecutionTime = 0 }, true},
		{"negative exec time", func(c *Config) { c.Codec.JS.MaxExecutionTime = -time.Second }, true},
		{"no workers", func(c *Config) { c.Integration.Queue.Workers = 0 }, true},
		{"no queue", func(c *Config) { c.Integration.Queue.Size = 0 }, true},
		{"no timeout", func(c *Config) { c.Integration.Queue.Timeout = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			assert.NoError(t, err)
		})
	}
}
