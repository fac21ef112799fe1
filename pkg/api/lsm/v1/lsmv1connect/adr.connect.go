package lsmv1connect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
)

const AdrServiceName = "lsm.adr.v1.AdrService"

const (
	AdrServiceListAlgorithmsProcedure = "/lsm.adr.v1.AdrService/ListAlgorithms"
	AdrServiceSimulateProcedure       = "/lsm.adr.v1.AdrService/Simulate"
)

type AdrServiceHandler interface {
	ListAlgorithms(
		context.Context, *connect.Request[lsmv1.ListAdrAlgorithmsRequest],
	) (*connect.Response[lsmv1.ListAdrAlgorithmsResponse], error)
	Simulate(
		context.Context, *connect.Request[lsmv1.SimulateAdrRequest],
	) (*connect.Response[lsmv1.SimulateAdrResponse], error)
}

type AdrServiceClient interface {
	ListAlgorithms(
		context.Context, *connect.Request[lsmv1.ListAdrAlgorithmsRequest],
	) (*connect.Response[lsmv1.ListAdrAlgorithmsResponse], error)
	Simulate(
		context.Context, *connect.Request[lsmv1.SimulateAdrRequest],
	) (*connect.Response[lsmv1.SimulateAdrResponse], error)
}

//nolint:whitespace // can't make both editor and linter happy
func NewAdrServiceHandler(
	svc AdrServiceHandler, opts ...connect.HandlerOption,
) (string, http.Handler) {
	opts = withHandlerCodec(opts)
	return route("/lsm.adr.v1.AdrService/", map[string]http.Handler{
		AdrServiceListAlgorithmsProcedure: connect.NewUnaryHandler(
			AdrServiceListAlgorithmsProcedure, svc.ListAlgorithms, opts...),
		AdrServiceSimulateProcedure: connect.NewUnaryHandler(
			AdrServiceSimulateProcedure, svc.Simulate, opts...),
	})
}

type adrServiceClient struct {
	listAlgorithms *connect.Client[lsmv1.ListAdrAlgorithmsRequest, lsmv1.ListAdrAlgorithmsResponse]
	simulate       *connect.Client[lsmv1.SimulateAdrRequest, lsmv1.SimulateAdrResponse]
}

//nolint:whitespace // can't make both editor and linter happy
func NewAdrServiceClient(
	httpClient connect.HTTPClient,
	baseURL string,
	opts ...connect.ClientOption,
) AdrServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &adrServiceClient{
		listAlgorithms: connect.NewClient[lsmv1.ListAdrAlgorithmsRequest, lsmv1.ListAdrAlgorithmsResponse](
			httpClient, baseURL+AdrServiceListAlgorithmsProcedure, opts...),
		simulate: connect.NewClient[lsmv1.SimulateAdrRequest, lsmv1.SimulateAdrResponse](
			httpClient, baseURL+AdrServiceSimulateProcedure, opts...),
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (c *adrServiceClient) ListAlgorithms(
	ctx context.Context, req *connect.Request[lsmv1.ListAdrAlgorithmsRequest],
) (*connect.Response[lsmv1.ListAdrAlgorithmsResponse], error) {
	return c.listAlgorithms.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *adrServiceClient) Simulate(
	ctx context.Context, req *connect.Request[lsmv1.SimulateAdrRequest],
) (*connect.Response[lsmv1.SimulateAdrResponse], error) {
	return c.simulate.CallUnary(ctx, req)
}

// UnimplementedAdrServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedAdrServiceHandler struct{}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedAdrServiceHandler) ListAlgorithms(
	context.Context, *connect.Request[lsmv1.ListAdrAlgorithmsRequest],
) (*connect.Response[lsmv1.ListAdrAlgorithmsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.adr.v1.AdrService.ListAlgorithms is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedAdrServiceHandler) Simulate(
	context.Context, *connect.Request[lsmv1.SimulateAdrRequest],
) (*connect.Response[lsmv1.SimulateAdrResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.adr.v1.AdrService.Simulate is not implemented"))
}
