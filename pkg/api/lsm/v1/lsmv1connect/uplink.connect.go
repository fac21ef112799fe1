package lsmv1connect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
)

const UplinkServiceName = "lsm.uplink.v1.UplinkService"

const (
	UplinkServicePublishUplinkProcedure = "/lsm.uplink.v1.UplinkService/PublishUplink"
)

type UplinkServiceHandler interface {
	PublishUplink(
		context.Context, *connect.Request[lsmv1.PublishUplinkRequest],
	) (*connect.Response[lsmv1.PublishUplinkResponse], error)
}

type UplinkServiceClient interface {
	PublishUplink(
		context.Context, *connect.Request[lsmv1.PublishUplinkRequest],
	) (*connect.Response[lsmv1.PublishUplinkResponse], error)
}

//nolint:whitespace // can't make both editor and linter happy
func NewUplinkServiceHandler(
	svc UplinkServiceHandler, opts ...connect.HandlerOption,
) (string, http.Handler) {
	opts = withHandlerCodec(opts)
	return route("/lsm.uplink.v1.UplinkService/", map[string]http.Handler{
		UplinkServicePublishUplinkProcedure: connect.NewUnaryHandler(
			UplinkServicePublishUplinkProcedure, svc.PublishUplink, opts...),
	})
}

type uplinkServiceClient struct {
	publishUplink *connect.Client[lsmv1.PublishUplinkRequest, lsmv1.PublishUplinkResponse]
}

//nolint:whitespace // can't make both editor and linter happy
func NewUplinkServiceClient(
	httpClient connect.HTTPClient,
	baseURL string,
	opts ...connect.ClientOption,
) UplinkServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &uplinkServiceClient{
		publishUplink: connect.NewClient[lsmv1.PublishUplinkRequest, lsmv1.PublishUplinkResponse](
			httpClient, baseURL+UplinkServicePublishUplinkProcedure, opts...),
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (c *uplinkServiceClient) PublishUplink(
	ctx context.Context, req *connect.Request[lsmv1.PublishUplinkRequest],
) (*connect.Response[lsmv1.PublishUplinkResponse], error) {
	return c.publishUplink.CallUnary(ctx, req)
}

// UnimplementedUplinkServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedUplinkServiceHandler struct{}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedUplinkServiceHandler) PublishUplink(
	context.Context, *connect.Request[lsmv1.PublishUplinkRequest],
) (*connect.Response[lsmv1.PublishUplinkResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.uplink.v1.UplinkService.PublishUplink is not implemented"))
}
