package lsmv1connect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
)

const CodecServiceName = "lsm.codec.v1.CodecService"

const (
	CodecServiceListPluginsProcedure    = "/lsm.codec.v1.CodecService/ListPlugins"
	CodecServiceDecodeUplinkProcedure   = "/lsm.codec.v1.CodecService/DecodeUplink"
	CodecServiceEncodeDownlinkProcedure = "/lsm.codec.v1.CodecService/EncodeDownlink"
)

type CodecServiceHandler interface {
	ListPlugins(
		context.Context, *connect.Request[lsmv1.ListCodecPluginsRequest],
	) (*connect.Response[lsmv1.ListCodecPluginsResponse], error)
	DecodeUplink(
		context.Context, *connect.Request[lsmv1.DecodeUplinkRequest],
	) (*connect.Response[lsmv1.DecodeUplinkResponse], error)
	EncodeDownlink(
		context.Context, *connect.Request[lsmv1.EncodeDownlinkRequest],
	) (*connect.Response[lsmv1.EncodeDownlinkResponse], error)
}

type CodecServiceClient interface {
	ListPlugins(
		context.Context, *connect.Request[lsmv1.ListCodecPluginsRequest],
	) (*connect.Response[lsmv1.ListCodecPluginsResponse], error)
	DecodeUplink(
		context.Context, *connect.Request[lsmv1.DecodeUplinkRequest],
	) (*connect.Response[lsmv1.DecodeUplinkResponse], error)
	EncodeDownlink(
		context.Context, *connect.Request[lsmv1.EncodeDownlinkRequest],
	) (*connect.Response[lsmv1.EncodeDownlinkResponse], error)
}

//nolint:whitespace // can't make both editor and linter happy
func NewCodecServiceHandler(
	svc CodecServiceHandler, opts ...connect.HandlerOption,
) (string, http.Handler) {
	opts = withHandlerCodec(opts)
	return route("/lsm.codec.v1.CodecService/", map[string]http.Handler{
		CodecServiceListPluginsProcedure: connect.NewUnaryHandler(
			CodecServiceListPluginsProcedure, svc.ListPlugins, opts...),
		CodecServiceDecodeUplinkProcedure: connect.NewUnaryHandler(
			CodecServiceDecodeUplinkProcedure, svc.DecodeUplink, opts...),
		CodecServiceEncodeDownlinkProcedure: connect.NewUnaryHandler(
			CodecServiceEncodeDownlinkProcedure, svc.EncodeDownlink, opts...),
	})
}

type codecServiceClient struct {
	listPlugins    *connect.Client[lsmv1.ListCodecPluginsRequest, lsmv1.ListCodecPluginsResponse]
	decodeUplink   *connect.Client[lsmv1.DecodeUplinkRequest, lsmv1.DecodeUplinkResponse]
	encodeDownlink *connect.Client[lsmv1.EncodeDownlinkRequest, lsmv1.EncodeDownlinkResponse]
}

//nolint:whitespace // can't make both editor and linter happy
func NewCodecServiceClient(
	httpClient connect.HTTPClient,
	baseURL string,
	opts ...connect.ClientOption,
) CodecServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &codecServiceClient{
		listPlugins: connect.NewClient[lsmv1.ListCodecPluginsRequest, lsmv1.ListCodecPluginsResponse](
			httpClient, baseURL+CodecServiceListPluginsProcedure, opts...),
		decodeUplink: connect.NewClient[lsmv1.DecodeUplinkRequest, lsmv1.DecodeUplinkResponse](
			httpClient, baseURL+CodecServiceDecodeUplinkProcedure, opts...),
		encodeDownlink: connect.NewClient[lsmv1.EncodeDownlinkRequest, lsmv1.EncodeDownlinkResponse](
			httpClient, baseURL+CodecServiceEncodeDownlinkProcedure, opts...),
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (c *codecServiceClient) ListPlugins(
	ctx context.Context, req *connect.Request[lsmv1.ListCodecPluginsRequest],
) (*connect.Response[lsmv1.ListCodecPluginsResponse], error) {
	return c.listPlugins.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *codecServiceClient) DecodeUplink(
	ctx context.Context, req *connect.Request[lsmv1.DecodeUplinkRequest],
) (*connect.Response[lsmv1.DecodeUplinkResponse], error) {
	return c.decodeUplink.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *codecServiceClient) EncodeDownlink(
	ctx context.Context, req *connect.Request[lsmv1.EncodeDownlinkRequest],
) (*connect.Response[lsmv1.EncodeDownlinkResponse], error) {
	return c.encodeDownlink.CallUnary(ctx, req)
}

// UnimplementedCodecServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedCodecServiceHandler struct{}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedCodecServiceHandler) ListPlugins(
	context.Context, *connect.Request[lsmv1.ListCodecPluginsRequest],
) (*connect.Response[lsmv1.ListCodecPluginsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.codec.v1.CodecService.ListPlugins is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedCodecServiceHandler) DecodeUplink(
	context.Context, *connect.Request[lsmv1.DecodeUplinkRequest],
) (*connect.Response[lsmv1.DecodeUplinkResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.codec.v1.CodecService.DecodeUplink is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedCodecServiceHandler) EncodeDownlink(
	context.Context, *connect.Request[lsmv1.EncodeDownlinkRequest],
) (*connect.Response[lsmv1.EncodeDownlinkResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.codec.v1.CodecService.EncodeDownlink is not implemented"))
}
