package lsmv1connect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
)

const DeviceServiceName = "lsm.device.v1.DeviceService"

const (
	DeviceServiceCreateProcedure       = "/lsm.device.v1.DeviceService/Create"
	DeviceServiceGetProcedure          = "/lsm.device.v1.DeviceService/Get"
	DeviceServiceListProcedure         = "/lsm.device.v1.DeviceService/List"
	DeviceServiceUpdateProcedure       = "/lsm.device.v1.DeviceService/Update"
	DeviceServiceDeleteProcedure       = "/lsm.device.v1.DeviceService/Delete"
	DeviceServiceGetStateProcedure     = "/lsm.device.v1.DeviceService/GetState"
	DeviceServiceStreamEventsProcedure = "/lsm.device.v1.DeviceService/StreamEvents"
)

type DeviceServiceHandler interface {
	Create(
		context.Context, *connect.Request[lsmv1.CreateDeviceRequest],
	) (*connect.Response[lsmv1.CreateDeviceResponse], error)
	Get(
		context.Context, *connect.Request[lsmv1.GetDeviceRequest],
	) (*connect.Response[lsmv1.GetDeviceResponse], error)
	List(
		context.Context, *connect.Request[lsmv1.ListDevicesRequest],
	) (*connect.Response[lsmv1.ListDevicesResponse], error)
	Update(
		context.Context, *connect.Request[lsmv1.UpdateDeviceRequest],
	) (*connect.Response[lsmv1.UpdateDeviceResponse], error)
	Delete(
		context.Context, *connect.Request[lsmv1.DeleteDeviceRequest],
	) (*connect.Response[lsmv1.DeleteDeviceResponse], error)
	GetState(
		context.Context, *connect.Request[lsmv1.GetDeviceStateRequest],
	) (*connect.Response[lsmv1.GetDeviceStateResponse], error)
	StreamEvents(
		context.Context,
		*connect.Request[lsmv1.StreamEventsRequest],
		*connect.ServerStream[lsmv1.StreamEventsResponse],
	) error
}

type DeviceServiceClient interface {
	Create(
		context.Context, *connect.Request[lsmv1.CreateDeviceRequest],
	) (*connect.Response[lsmv1.CreateDeviceResponse], error)
	Get(
		context.Context, *connect.Request[lsmv1.GetDeviceRequest],
	) (*connect.Response[lsmv1.GetDeviceResponse], error)
	List(
		context.Context, *connect.Request[lsmv1.ListDevicesRequest],
	) (*connect.Response[lsmv1.ListDevicesResponse], error)
	Update(
		context.Context, *connect.Request[lsmv1.UpdateDeviceRequest],
	) (*connect.Response[lsmv1.UpdateDeviceResponse], error)
	Delete(
		context.Context, *connect.Request[lsmv1.DeleteDeviceRequest],
	) (*connect.Response[lsmv1.DeleteDeviceResponse], error)
	GetState(
		context.Context, *connect.Request[lsmv1.GetDeviceStateRequest],
	) (*connect.Response[lsmv1.GetDeviceStateResponse], error)
	StreamEvents(
		context.Context, *connect.Request[lsmv1.StreamEventsRequest],
	) (*connect.ServerStreamForClient[lsmv1.StreamEventsResponse], error)
}

//nolint:whitespace // can't make both editor and linter happy
func NewDeviceServiceHandler(
	svc DeviceServiceHandler, opts ...connect.HandlerOption,
) (string, http.Handler) {
	opts = withHandlerCodec(opts)
	return route("/lsm.device.v1.DeviceService/", map[string]http.Handler{
		DeviceServiceCreateProcedure: connect.NewUnaryHandler(
			DeviceServiceCreateProcedure, svc.Create, opts...),
		DeviceServiceGetProcedure: connect.NewUnaryHandler(
			DeviceServiceGetProcedure, svc.Get, opts...),
		DeviceServiceListProcedure: connect.NewUnaryHandler(
			DeviceServiceListProcedure, svc.List, opts...),
		DeviceServiceUpdateProcedure: connect.NewUnaryHandler(
			DeviceServiceUpdateProcedure, svc.Update, opts...),
		DeviceServiceDeleteProcedure: connect.NewUnaryHandler(
			DeviceServiceDeleteProcedure, svc.Delete, opts...),
		DeviceServiceGetStateProcedure: connect.NewUnaryHandler(
			DeviceServiceGetStateProcedure, svc.GetState, opts...),
		DeviceServiceStreamEventsProcedure: connect.NewServerStreamHandler(
			DeviceServiceStreamEventsProcedure, svc.StreamEvents, opts...),
	})
}

type deviceServiceClient struct {
	create       *connect.Client[lsmv1.CreateDeviceRequest, lsmv1.CreateDeviceResponse]
	get          *connect.Client[lsmv1.GetDeviceRequest, lsmv1.GetDeviceResponse]
	list         *connect.Client[lsmv1.ListDevicesRequest, lsmv1.ListDevicesResponse]
	update       *connect.Client[lsmv1.UpdateDeviceRequest, lsmv1.UpdateDeviceResponse]
	delete       *connect.Client[lsmv1.DeleteDeviceRequest, lsmv1.DeleteDeviceResponse]
	getState     *connect.Client[lsmv1.GetDeviceStateRequest, lsmv1.GetDeviceStateResponse]
	streamEvents *connect.Client[lsmv1.StreamEventsRequest, lsmv1.StreamEventsResponse]
}

//nolint:whitespace // can't make both editor and linter happy
func NewDeviceServiceClient(
	httpClient connect.HTTPClient,
	baseURL string,
	opts ...connect.ClientOption,
) DeviceServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &deviceServiceClient{
		create: connect.NewClient[lsmv1.CreateDeviceRequest, lsmv1.CreateDeviceResponse](
			httpClient, baseURL+DeviceServiceCreateProcedure, opts...),
		get: connect.NewClient[lsmv1.GetDeviceRequest, lsmv1.GetDeviceResponse](
			httpClient, baseURL+DeviceServiceGetProcedure, opts...),
		list: connect.NewClient[lsmv1.ListDevicesRequest, lsmv1.ListDevicesResponse](
			httpClient, baseURL+DeviceServiceListProcedure, opts...),
		update: connect.NewClient[lsmv1.UpdateDeviceRequest, lsmv1.UpdateDeviceResponse](
			httpClient, baseURL+DeviceServiceUpdateProcedure, opts...),
		delete: connect.NewClient[lsmv1.DeleteDeviceRequest, lsmv1.DeleteDeviceResponse](
			httpClient, baseURL+DeviceServiceDeleteProcedure, opts...),
		getState: connect.NewClient[lsmv1.GetDeviceStateRequest, lsmv1.GetDeviceStateResponse](
			httpClient, baseURL+DeviceServiceGetStateProcedure, opts...),
		streamEvents: connect.NewClient[lsmv1.StreamEventsRequest, lsmv1.StreamEventsResponse](
			httpClient, baseURL+DeviceServiceStreamEventsProcedure, opts...),
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceServiceClient) Create(
	ctx context.Context, req *connect.Request[lsmv1.CreateDeviceRequest],
) (*connect.Response[lsmv1.CreateDeviceResponse], error) {
	return c.create.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceServiceClient) Get(
	ctx context.Context, req *connect.Request[lsmv1.GetDeviceRequest],
) (*connect.Response[lsmv1.GetDeviceResponse], error) {
	return c.get.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceServiceClient) List(
	ctx context.Context, req *connect.Request[lsmv1.ListDevicesRequest],
) (*connect.Response[lsmv1.ListDevicesResponse], error) {
	return c.list.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceServiceClient) Update(
	ctx context.Context, req *connect.Request[lsmv1.UpdateDeviceRequest],
) (*connect.Response[lsmv1.UpdateDeviceResponse], error) {
	return c.update.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceServiceClient) Delete(
	ctx context.Context, req *connect.Request[lsmv1.DeleteDeviceRequest],
) (*connect.Response[lsmv1.DeleteDeviceResponse], error) {
	return c.delete.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceServiceClient) GetState(
	ctx context.Context, req *connect.Request[lsmv1.GetDeviceStateRequest],
) (*connect.Response[lsmv1.GetDeviceStateResponse], error) {
	return c.getState.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *deviceServiceClient) StreamEvents(
	ctx context.Context, req *connect.Request[lsmv1.StreamEventsRequest],
) (*connect.ServerStreamForClient[lsmv1.StreamEventsResponse], error) {
	return c.streamEvents.CallServerStream(ctx, req)
}

// UnimplementedDeviceServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedDeviceServiceHandler struct{}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceServiceHandler) Create(
	context.Context, *connect.Request[lsmv1.CreateDeviceRequest],
) (*connect.Response[lsmv1.CreateDeviceResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.device.v1.DeviceService.Create is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceServiceHandler) Get(
	context.Context, *connect.Request[lsmv1.GetDeviceRequest],
) (*connect.Response[lsmv1.GetDeviceResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.device.v1.DeviceService.Get is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceServiceHandler) List(
	context.Context, *connect.Request[lsmv1.ListDevicesRequest],
) (*connect.Response[lsmv1.ListDevicesResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.device.v1.DeviceService.List is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceServiceHandler) Update(
	context.Context, *connect.Request[lsmv1.UpdateDeviceRequest],
) (*connect.Response[lsmv1.UpdateDeviceResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.device.v1.DeviceService.Update is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceServiceHandler) Delete(
	context.Context, *connect.Request[lsmv1.DeleteDeviceRequest],
) (*connect.Response[lsmv1.DeleteDeviceResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.device.v1.DeviceService.Delete is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceServiceHandler) GetState(
	context.Context, *connect.Request[lsmv1.GetDeviceStateRequest],
) (*connect.Response[lsmv1.GetDeviceStateResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.device.v1.DeviceService.GetState is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedDeviceServiceHandler) StreamEvents(
	context.Context,
	*connect.Request[lsmv1.StreamEventsRequest],
	*connect.ServerStream[lsmv1.StreamEventsResponse],
) error {
	return connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.device.v1.DeviceService.StreamEvents is not implemented"))
}
