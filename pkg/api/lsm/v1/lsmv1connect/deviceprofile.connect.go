package lsmv1connect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
)

const DeviceProfileServiceName = "lsm.deviceprofile.v1.DeviceProfileService"

const (
	DeviceProfileServiceCreateProcedure            = "/lsm.deviceprofile.v1.DeviceProfileService/Create"
	DeviceProfileServiceGetProcedure               = "/lsm.deviceprofile.v1.DeviceProfileService/Get"
	DeviceProfileServiceListProcedure              = "/lsm.deviceprofile.v1.DeviceProfileService/List"
	DeviceProfileServiceUpdateProcedure            = "/lsm.deviceprofile.v1.DeviceProfileService/Update"
	DeviceProfileServiceDeleteProcedure            = "/lsm.deviceprofile.v1.DeviceProfileService/Delete"
	DeviceProfileServiceListAdrAlgorithmsProcedure = "/lsm.deviceprofile.v1.DeviceProfileService/ListAdrAlgorithms"
)

type DeviceProfileServiceHandler interface {
	Create(
		context.Context, *connect.Request[lsmv1.CreateDeviceProfileRequest],
	) (*connect.Response[lsmv1.CreateDeviceProfileResponse], error)
	Get(
		context.Context, *connect.Request[lsmv1.GetDeviceProfileRequest],
	) (*connect.Response[lsmv1.GetDeviceProfileResponse], error)
	List(
		context.Context, *connect.Request[lsmv1.ListDeviceProfilesRequest],
	) (*connect.Response[lsmv1.ListDeviceProfilesResponse], error)
	Update(
		context.Context, *connect.Request[lsmv1.UpdateDeviceProfileRequest],
	) (*connect.Response[lsmv1.UpdateDeviceProfileResponse], error)
	Delete(
		context.Context, *connect.Request[lsmv1.DeleteDeviceProfileRequest],
	) (*connect.Response[lsmv1.DeleteDeviceProfileResponse], error)
	ListAdrAlgorithms(
		context.Context, *connect.Request[lsmv1.ListAdrAlgorithmsRequest],
	) (*connect.Response[lsmv1.ListAdrAlgorithmsResponse], error)
}

type DeviceProfileServiceClient interface {
	Create(
		context.Context, *connect.Request[lsmv1.CreateDeviceProfileRequest],
	) (*connect.Response[lsmv1.CreateDeviceProfileResponse], error)
	Get(
		context.Context, *connect.Request[lsmv1.GetDeviceProfileRequest],
	) (*connect.Response[lsmv1.GetDeviceProfileResponse], error)
	List(
		context.Context, *connect.Request[lsmv1.ListDeviceProfilesRequest],
	) (*connect.Response[lsmv1.ListDeviceProfilesResponse], error)
	Update(
		context.Context, *connect.Request[lsmv1.UpdateDeviceProfileRequest],
	) (*connect.Response[lsmv1.UpdateDeviceProfileResponse], error)
	Delete(
		context.Context, *connect.Request[lsmv1.DeleteDeviceProfileRequest],
	) (*connect.Response[lsmv1.DeleteDeviceProfileResponse], error)
	ListAdrAlgorithms(
		context.Context, *connect.Request[lsmv1.ListAdrAlgorithmsRequest],
	) (*connect.Response[lsmv1.ListAdrAlgorithmsResponse], error)
}

//nolint:whitespace // can't make both editor and linter happy
func NewDeviceProfileServiceHandler(
	svc DeviceProfileServiceHandler, opts ...connect.HandlerOption,
) (string, http.Handler) {
	opts = withHandlerCodec(opts)
	return route("/lsm.deviceprofile.v1.DeviceProfileService/", map[string]http.Handler{
		DeviceProfileServiceCreateProcedure: connect.NewUnaryHandler(
			DeviceProfileServiceCreateProcedure, svc.Create, opts...),
		DeviceProfileServiceGetProcedure: connect.NewUnaryHandler(
			DeviceProfileServiceGetProcedure, svc.Get, opts...),
		DeviceProfileServiceListProcedure: connect.NewUnaryHandler(
			DeviceProfileServiceListProcedure, svc.List, opts...),
		DeviceProfileServiceUpdateProcedure: connect.NewUnaryHandler(
			DeviceProfileServiceUpdateProcedure, svc.Update, opts...),
		DeviceProfileServiceDeleteProcedure: connect.NewUnaryHandler(
			DeviceProfileServiceDeleteProcedure, svc.Delete, opts...),
		DeviceProfileServiceListAdrAlgorithmsProcedure: connect.NewUnaryHandler(
			DeviceProfileServiceListAdrAlgorithmsProcedure, svc.ListAdrAlgorithms, opts...),
	})
}

type deviceProfileServiceClient struct {
	create            *connect.Client[lsmv1.CreateDeviceProfileRequest, lsmv1.CreateDeviceProfileResponse]
	get               *connect.Client[lsmv1.GetDeviceProfileRequest, lsmv1.GetDeviceProfileResponse]
	list              *connect.Client[lsmv1.ListDeviceProfilesRequest, lsmv1.ListDeviceProfilesResponse]
	update            *connect.Client[lsmv1.UpdateDeviceProfileRequest, lsmv1.UpdateDeviceProfileResponse]
	delete            *connect.Client[lsmv1.DeleteDeviceProfileRequest, lsmv1.DeleteDeviceProfileResponse]
	listAdrAlgorithms *connect.Client[lsmv1.ListAdrAlgorithmsRequest, lsmv1.ListAdrAlgorithmsResponse]
}

//nolint:whitespace // can't make both editor and linter happy
func NewDeviceProfileServiceClient(
	httpClient connect.HTTPClient,
	baseURL string,
	opts ...connect.ClientOption,
) DeviceProfileServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &deviceProfileServiceClient{
		create: connect.NewClient[lsmv1.CreateDeviceProfileRequest, lsmv1.CreateDeviceProfileResponse](
			httpClient, baseURL+DeviceProfileServiceCreateProcedure, opts...),
		get: connect.NewClient[lsmv1.GetDeviceProfileRequest, lsmv1.GetDeviceProfileResponse](
			httpClient, baseURL+DeviceProfileServiceGetProcedure, opts...),
		list: connect.NewClient[lsmv1.ListDeviceProfilesRequest, lsmv1.ListDeviceProfilesResponse](
			httpClient, baseURL+DeviceProfileServiceListProcedure, opts...),
		update: connect.NewClient[lsmv1.UpdateDeviceProfileRequest, lsmv1.UpdateDeviceProfileResponse](
			httpClient, baseURL+DeviceProfileServiceUpdateProcedure, opts...),
		delete: connect.NewClient[lsmv1.DeleteDeviceProfileRequest, lsmv1.DeleteDeviceProfileResponse](
			httpClient, baseURL+DeviceProfileServiceDeleteProcedure, opts...),
		listAdrAlgorithms: connect.NewClient[lsmv1.ListAdrAlgorithmsRequest, lsmv1.ListAdrAlgorithmsResponse](
			httpClient, baseURL+DeviceProfileServiceListAdrAlgorithmsProcedure, opts...),
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceProfileServiceClient) Create(
	ctx context.Context, req *connect.Request[lsmv1.CreateDeviceProfileRequest],
) (*connect.Response[lsmv1.CreateDeviceProfileResponse], error) {
	return c.create.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceProfileServiceClient) Get(
	ctx context.Context, req *connect.Request[lsmv1.GetDeviceProfileRequest],
) (*connect.Response[lsmv1.GetDeviceProfileResponse], error) {
	return c.get.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceProfileServiceClient) List(
	ctx context.Context, req *connect.Request[lsmv1.ListDeviceProfilesRequest],
) (*connect.Response[lsmv1.ListDeviceProfilesResponse], error) {
	return c.list.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceProfileServiceClient) Update(
	ctx context.Context, req *connect.Request[lsmv1.UpdateDeviceProfileRequest],
) (*connect.Response[lsmv1.UpdateDeviceProfileResponse], error) {
	return c.update.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceProfileServiceClient) Delete(
	ctx context.Context, req *connect.Request[lsmv1.DeleteDeviceProfileRequest],
) (*connect.Response[lsmv1.DeleteDeviceProfileResponse], error) {
	return c.delete.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceProfileServiceClient) ListAdrAlgorithms(
	ctx context.Context, req *connect.Request[lsmv1.ListAdrAlgorithmsRequest],
) (*connect.Response[lsmv1.ListAdrAlgorithmsResponse], error) {
	return c.listAdrAlgorithms.CallUnary(ctx, req)
}

// UnimplementedDeviceProfileServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedDeviceProfileServiceHandler struct{}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceProfileServiceHandler) Create(
	context.Context, *connect.Request[lsmv1.CreateDeviceProfileRequest],
) (*connect.Response[lsmv1.CreateDeviceProfileResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.deviceprofile.v1.DeviceProfileService.Create is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceProfileServiceHandler) Get(
	context.Context, *connect.Request[lsmv1.GetDeviceProfileRequest],
) (*connect.Response[lsmv1.GetDeviceProfileResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.deviceprofile.v1.DeviceProfileService.Get is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceProfileServiceHandler) List(
	context.Context, *connect.Request[lsmv1.ListDeviceProfilesRequest],
) (*connect.Response[lsmv1.ListDeviceProfilesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.deviceprofile.v1.DeviceProfileService.List is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceProfileServiceHandler) Update(
	context.Context, *connect.Request[lsmv1.UpdateDeviceProfileRequest],
) (*connect.Response[lsmv1.UpdateDeviceProfileResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.deviceprofile.v1.DeviceProfileService.Update is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceProfileServiceHandler) Delete(
	context.Context, *connect.Request[lsmv1.DeleteDeviceProfileRequest],
) (*connect.Response[lsmv1.DeleteDeviceProfileResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.deviceprofile.v1.DeviceProfileService.Delete is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceProfileServiceHandler) ListAdrAlgorithms(
	context.Context, *connect.Request[lsmv1.ListAdrAlgorithmsRequest],
) (*connect.Response[lsmv1.ListAdrAlgorithmsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.deviceprofile.v1.DeviceProfileService.ListAdrAlgorithms is not implemented"))
}
