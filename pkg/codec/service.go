package codec

import (
	"context"
	"time"

	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
)

// Settings selects how a payload is decoded or encoded.
// A non-empty PluginID takes precedence over Codec and Script.
type Settings struct {
	Codec    Codec
	Script   string
	PluginID string
}

// Service combines the built-in codecs with the plugin registry.
type Service struct {
	rt      *jsrt.Runtime
	plugins *Registry
}

func NewService(plugins *Registry) *Service {
	return &Service{rt: plugins.Runtime(), plugins: plugins}
}

func (s *Service) Plugins() []PluginInfo {
	return s.plugins.Plugins()
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Service) Decode(
	ctx context.Context,
	settings Settings,
	recvTime time.Time,
	fPort uint8,
	variables map[string]string,
	b []byte,
) (map[string]any, error) {
	if settings.PluginID != "" {
		return s.plugins.Decode(ctx, settings.PluginID, recvTime, fPort, variables, b)
	}
	return BinaryToStruct(ctx, s.rt, settings.Codec, recvTime, fPort, variables,
		settings.Script, b)
}

//nolint:whitespace // can't make both editor and linter happy
func (s *Service) Encode(
	ctx context.Context,
	settings Settings,
	fPort uint8,
	variables map[string]string,
	obj map[string]any,
) ([]byte, error) {
	if settings.PluginID != "" {
		return s.plugins.Encode(ctx, settings.PluginID, fPort, variables, obj)
	}
	return StructToBinary(ctx, s.rt, settings.Codec, fPort, variables, settings.Script, obj)
}
