package lsmv1

import "time"

type CodecPlugin struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ListCodecPluginsRequest struct{}

type ListCodecPluginsResponse struct {
	Result []*CodecPlugin `json:"result"`
}

// CodecSettings selects the codec of a decode or encode request.
// DeviceProfileID uses the settings of the profile, PluginID a codec plugin,
// otherwise Codec and Script are used as given.
type CodecSettings struct {
	DeviceProfileID string `json:"deviceProfileId,omitempty"`
	PluginID        string `json:"pluginId,omitempty"`
	Codec           string `json:"codec,omitempty"`
	Script          string `json:"script,omitempty"`
}

type DecodeUplinkRequest struct {
	CodecSettings
	FPort     uint32            `json:"fPort"`
	Variables map[string]string `json:"variables,omitempty"`
	Data      []byte            `json:"data"`
	RecvTime  *time.Time        `json:"recvTime,omitempty"`
}

type DecodeUplinkResponse struct {
	Object       map[string]any `json:"object"`
	Measurements map[string]any `json:"measurements,omitempty"`
}

type EncodeDownlinkRequest struct {
	CodecSettings
	FPort     uint32            `json:"fPort"`
	Variables map[string]string `json:"variables,omitempty"`
	Object    map[string]any    `json:"object"`
}

type EncodeDownlinkResponse struct {
	Data []byte `json:"data"`
}
