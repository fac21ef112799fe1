// Package setup holds the initialization shared by the commands.
package setup

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	"github.com/mpapenbr/lorawan-service-manager/pkg/codec"
	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
)

const scriptCacheSize = 128

// Components are the network and codec building blocks used by the server
// as well as by the offline commands.
type Components struct {
	Regions *region.Registry
	Runtime *jsrt.Runtime
	Adr     *adr.Registry
	Plugins *codec.Registry
	Codecs  *codec.Service
}

func ParseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

// InitLogger creates the default logger according to the log flags.
func InitLogger() *log.Logger {
	var logger *log.Logger
	switch config.LogFormat {
	case "json":
		logger = log.New(
			os.Stderr,
			ParseLogLevel(config.LogLevel, log.InfoLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	default:
		logger = log.DevLogger(
			os.Stderr,
			ParseLogLevel(config.LogLevel, log.DebugLevel),
			log.WithCaller(true),
			log.AddCallerSkip(1))
	}
	if config.LogFilter != "" {
		if filtered, err := logger.WithFilter(config.LogFilter); err == nil {
			logger = filtered
		} else {
			logger.Warn("invalid log filter", log.ErrorField(err))
		}
	}
	log.ResetDefault(logger)
	return logger
}

// AppConfig reads the structured sections of the config file.
// A set --js-max-execution-time flag overrides the config file value.
// The result is validated.
func AppConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	if config.JSMaxExecutionTime != "" {
		d, err := time.ParseDuration(config.JSMaxExecutionTime)
		if err != nil {
			return nil, err
		}
		cfg.Codec.JS.MaxExecutionTime = d
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func NewComponents(ctx context.Context, cfg *config.Config) (*Components, error) {
	regions, err := region.NewRegistry(cfg.Network.Regions)
	if err != nil {
		return nil, err
	}
	rt, err := jsrt.New(scriptCacheSize,
		jsrt.WithMaxExecutionTime(cfg.Codec.JS.MaxExecutionTime))
	if err != nil {
		return nil, err
	}
	adrRegistry, err := adr.NewRegistry(ctx, regions,
		adr.WithPlugins(rt, cfg.Network.AdrPlugins...))
	if err != nil {
		return nil, err
	}
	plugins, err := codec.NewRegistry(ctx, rt,
		codec.WithPluginFiles(cfg.Codec.JS.Plugins...))
	if err != nil {
		return nil, err
	}
	return &Components{
		Regions: regions,
		Runtime: rt,
		Adr:     adrRegistry,
		Plugins: plugins,
		Codecs:  codec.NewService(plugins),
	}, nil
}

// PluginFiles returns all ADR and codec plugin files.
func (c *Components) PluginFiles() []string {
	ret := append([]string{}, c.Adr.PluginFiles()...)
	return append(ret, c.Plugins.PluginFiles()...)
}

// ReloadPlugin reloads path in the registry owning it.
func (c *Components) ReloadPlugin(ctx context.Context, path string) error {
	for _, f := range c.Adr.PluginFiles() {
		if sameFile(f, path) {
			return c.Adr.Reload(ctx, f)
		}
	}
	for _, f := range c.Plugins.PluginFiles() {
		if sameFile(f, path) {
			return c.Plugins.Reload(ctx, f)
		}
	}
	return nil
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}
