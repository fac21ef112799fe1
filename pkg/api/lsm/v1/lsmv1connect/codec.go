// Package lsmv1connect contains the connect handlers and clients of the
// lsm services. Messages are exchanged as JSON.
package lsmv1connect

import (
	"net/http"

	"connectrpc.com/connect"
	"github.com/goccy/go-json"
)

// CodecName is the connect codec name. Clients send
// Content-Type application/json (application/connect+json for streams).
const CodecName = "json"

type jsonCodec struct{}

func Codec() connect.Codec {
	return jsonCodec{}
}

func (jsonCodec) Name() string {
	return CodecName
}

func (jsonCodec) Marshal(msg any) ([]byte, error) {
	return json.Marshal(msg)
}

func (jsonCodec) Unmarshal(data []byte, msg any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, msg)
}

func withHandlerCodec(opts []connect.HandlerOption) []connect.HandlerOption {
	return append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
}

func withClientCodec(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
}

func route(prefix string, handlers map[string]http.Handler) (string, http.Handler) {
	return prefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h, ok := handlers[r.URL.Path]; ok {
			h.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})
}

// ServiceNames lists all services, used by health checks.
func ServiceNames() []string {
	return []string{
		TenantServiceName,
		DeviceProfileServiceName,
		DeviceServiceName,
		CodecServiceName,
		AdrServiceName,
		UplinkServiceName,
	}
}
