package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type (
	NetworkConfig struct {
		// files containing ADR plugins
		AdrPlugins []string       `mapstructure:"adr_plugins" yaml:"adr_plugins"`
		Regions    []RegionConfig `mapstructure:"regions" yaml:"regions"`
	}
	RegionConfig struct {
		ID                    string         `mapstructure:"id" yaml:"id"`
		CommonName            string         `mapstructure:"common_name" yaml:"common_name"`
		InstallationMargin    float64        `mapstructure:"installation_margin" yaml:"installation_margin"`
		MinDR                 uint8          `mapstructure:"min_dr" yaml:"min_dr"`
		MaxDR                 uint8          `mapstructure:"max_dr" yaml:"max_dr"`
		EnabledUplinkChannels []int          `mapstructure:"enabled_uplink_channels" yaml:"enabled_uplink_channels,omitempty"`
		ExtraChannels         []ExtraChannel `mapstructure:"extra_channels" yaml:"extra_channels,omitempty"`
	}
	ExtraChannel struct {
		Frequency uint32 `mapstructure:"frequency" yaml:"frequency"`
		MinDR     uint8  `mapstructure:"min_dr" yaml:"min_dr"`
		MaxDR     uint8  `mapstructure:"max_dr" yaml:"max_dr"`
	}
	CodecConfig struct {
		JS JSConfig `mapstructure:"js" yaml:"js"`
	}
	JSConfig struct {
		MaxExecutionTime time.Duration `mapstructure:"max_execution_time" yaml:"max_execution_time"`
		// files containing codec plugins
		Plugins []string `mapstructure:"plugins" yaml:"plugins"`
	}
	IntegrationConfig struct {
		Enabled []string    `mapstructure:"enabled" yaml:"enabled"`
		Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
		NATS    NATSConfig  `mapstructure:"nats" yaml:"nats"`
		HTTP    HTTPConfig  `mapstructure:"http" yaml:"http"`
		Queue   QueueConfig `mapstructure:"queue" yaml:"queue"`
	}
	// QueueConfig controls the background forwarding of uplink events.
	QueueConfig struct {
		Size    int           `mapstructure:"size" yaml:"size"`
		Workers int           `mapstructure:"workers" yaml:"workers"`
		Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	}
	RedisConfig struct {
		Addr         string `mapstructure:"addr" yaml:"addr"`
		Password     string `mapstructure:"password" yaml:"password,omitempty"`
		DB           int    `mapstructure:"db" yaml:"db"`
		StreamMaxLen int64  `mapstructure:"stream_max_len" yaml:"stream_max_len"`
	}
	NATSConfig struct {
		URL           string `mapstructure:"url" yaml:"url"`
		SubjectPrefix string `mapstructure:"subject_prefix" yaml:"subject_prefix"`
		JSON          bool   `mapstructure:"json" yaml:"json"`
	}
	HTTPConfig struct {
		Endpoints  []string          `mapstructure:"endpoints" yaml:"endpoints"`
		Headers    map[string]string `mapstructure:"headers" yaml:"headers,omitempty"`
		JSON       bool              `mapstructure:"json" yaml:"json"`
		Timeout    time.Duration     `mapstructure:"timeout" yaml:"timeout"`
		MaxRetries uint64            `mapstructure:"max_retries" yaml:"max_retries"`
	}
)

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Network: NetworkConfig{
			AdrPlugins: []string{},
			Regions: []RegionConfig{
				{
					ID:                 "eu868",
					CommonName:         "EU868",
					InstallationMargin: 10,
					MinDR:              0,
					MaxDR:              5,
				},
			},
		},
		Codec: CodecConfig{
			JS: JSConfig{
				MaxExecutionTime: 100 * time.Millisecond,
				Plugins:          []string{},
			},
		},
		Integration: IntegrationConfig{
			Enabled: []string{},
			Redis: RedisConfig{
				Addr:         "localhost:6379",
				StreamMaxLen: 10000,
			},
			NATS: NATSConfig{
				URL:           "nats://localhost:4222",
				SubjectPrefix: "application",
			},
			HTTP: HTTPConfig{
				Timeout:    5 * time.Second,
				MaxRetries: 3,
			},
			Queue: QueueConfig{
				Size:    1000,
				Workers: 4,
				Timeout: 30 * time.Second,
			},
		},
	}
}

// Load merges the structured sections of v into the default configuration.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	for key, target := range map[string]any{
		"network":     &cfg.Network,
		"codec":       &cfg.Codec,
		"integration": &cfg.Integration,
	} {
		if !v.IsSet(key) {
			continue
		}
		if err := v.UnmarshalKey(key, target); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

var ErrInvalidConfig = errors.New("invalid configuration")

// Validate rejects settings the components cannot work with.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, key string, value any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s must be positive, got %v",
				ErrInvalidConfig, key, value))
		}
	}
	check(c.Codec.JS.MaxExecutionTime > 0,
		"codec.js.max_execution_time", c.Codec.JS.MaxExecutionTime)
	check(c.Integration.Queue.Workers > 0,
		"integration.queue.workers", c.Integration.Queue.Workers)
	check(c.Integration.Queue.Size > 0,
		"integration.queue.size", c.Integration.Queue.Size)
	check(c.Integration.Queue.Timeout > 0,
		"integration.queue.timeout", c.Integration.Queue.Timeout)
	return errors.Join(errs...)
}
