package lsmv1connect

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
)

const TenantServiceName = "lsm.tenant.v1.TenantService"

const (
	TenantServiceGetTenantsProcedure   = "/lsm.tenant.v1.TenantService/GetTenants"
	TenantServiceGetTenantProcedure    = "/lsm.tenant.v1.TenantService/GetTenant"
	TenantServiceCreateTenantProcedure = "/lsm.tenant.v1.TenantService/CreateTenant"
	TenantServiceUpdateTenantProcedure = "/lsm.tenant.v1.TenantService/UpdateTenant"
	TenantServiceDeleteTenantProcedure = "/lsm.tenant.v1.TenantService/DeleteTenant"
)

type TenantServiceHandler interface {
	GetTenants(
		context.Context, *connect.Request[lsmv1.GetTenantsRequest],
	) (*connect.Response[lsmv1.GetTenantsResponse], error)
	GetTenant(
		context.Context, *connect.Request[lsmv1.GetTenantRequest],
	) (*connect.Response[lsmv1.GetTenantResponse], error)
	CreateTenant(
		context.Context, *connect.Request[lsmv1.CreateTenantRequest],
	) (*connect.Response[lsmv1.CreateTenantResponse], error)
	UpdateTenant(
		context.Context, *connect.Request[lsmv1.UpdateTenantRequest],
	) (*connect.Response[lsmv1.UpdateTenantResponse], error)
	DeleteTenant(
		context.Context, *connect.Request[lsmv1.DeleteTenantRequest],
	) (*connect.Response[lsmv1.DeleteTenantResponse], error)
}

type TenantServiceClient interface {
	GetTenants(
		context.Context, *connect.Request[lsmv1.GetTenantsRequest],
	) (*connect.Response[lsmv1.GetTenantsResponse], error)
	GetTenant(
		context.Context, *connect.Request[lsmv1.GetTenantRequest],
	) (*connect.Response[lsmv1.GetTenantResponse], error)
	CreateTenant(
		context.Context, *connect.Request[lsmv1.CreateTenantRequest],
	) (*connect.Response[lsmv1.CreateTenantResponse], error)
	UpdateTenant(
		context.Context, *connect.Request[lsmv1.UpdateTenantRequest],
	) (*connect.Response[lsmv1.UpdateTenantResponse], error)
	DeleteTenant(
		context.Context, *connect.Request[lsmv1.DeleteTenantRequest],
	) (*connect.Response[lsmv1.DeleteTenantResponse], error)
}

//nolint:whitespace // can't make both editor and linter happy
func NewTenantServiceHandler(
	svc TenantServiceHandler, opts ...connect.HandlerOption,
) (string, http.Handler) {
	opts = withHandlerCodec(opts)
	return route("/lsm.tenant.v1.TenantService/", map[string]http.Handler{
		TenantServiceGetTenantsProcedure: connect.NewUnaryHandler(
			TenantServiceGetTenantsProcedure, svc.GetTenants, opts...),
		TenantServiceGetTenantProcedure: connect.NewUnaryHandler(
			TenantServiceGetTenantProcedure, svc.GetTenant, opts...),
		TenantServiceCreateTenantProcedure: connect.NewUnaryHandler(
			TenantServiceCreateTenantProcedure, svc.CreateTenant, opts...),
		TenantServiceUpdateTenantProcedure: connect.NewUnaryHandler(
			TenantServiceUpdateTenantProcedure, svc.UpdateTenant, opts...),
		TenantServiceDeleteTenantProcedure: connect.NewUnaryHandler(
			TenantServiceDeleteTenantProcedure, svc.DeleteTenant, opts...),
	})
}

type tenantServiceClient struct {
	getTenants   *connect.Client[lsmv1.GetTenantsRequest, lsmv1.GetTenantsResponse]
	getTenant    *connect.Client[lsmv1.GetTenantRequest, lsmv1.GetTenantResponse]
	createTenant *connect.Client[lsmv1.CreateTenantRequest, lsmv1.CreateTenantResponse]
	updateTenant *connect.Client[lsmv1.UpdateTenantRequest, lsmv1.UpdateTenantResponse]
	deleteTenant *connect.Client[lsmv1.DeleteTenantRequest, lsmv1.DeleteTenantResponse]
}

//nolint:whitespace // can't make both editor and linter happy
func NewTenantServiceClient(
	httpClient connect.HTTPClient,
	baseURL string,
	opts ...connect.ClientOption,
) TenantServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = withClientCodec(opts)
	return &tenantServiceClient{
		getTenants: connect.NewClient[lsmv1.GetTenantsRequest, lsmv1.GetTenantsResponse](
			httpClient, baseURL+TenantServiceGetTenantsProcedure, opts...),
		getTenant: connect.NewClient[lsmv1.GetTenantRequest, lsmv1.GetTenantResponse](
			httpClient, baseURL+TenantServiceGetTenantProcedure, opts...),
		createTenant: connect.NewClient[lsmv1.CreateTenantRequest, lsmv1.CreateTenantResponse](
			httpClient, baseURL+TenantServiceCreateTenantProcedure, opts...),
		updateTenant: connect.NewClient[lsmv1.UpdateTenantRequest, lsmv1.UpdateTenantResponse](
			httpClient, baseURL+TenantServiceUpdateTenantProcedure, opts...),
		deleteTenant: connect.NewClient[lsmv1.DeleteTenantRequest, lsmv1.DeleteTenantResponse](
			httpClient, baseURL+TenantServiceDeleteTenantProcedure, opts...),
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (c *tenantServiceClient) GetTenants(
	ctx context.Context, req *connect.Request[lsmv1.GetTenantsRequest],
) (*connect.Response[lsmv1.GetTenantsResponse], error) {
	return c.getTenants.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *tenantServiceClient) GetTenant(
	ctx context.Context, req *connect.Request[lsmv1.GetTenantRequest],
) (*connect.Response[lsmv1.GetTenantResponse], error) {
	return c.getTenant.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *tenantServiceClient) CreateTenant(
	ctx context.Context, req *connect.Request[lsmv1.CreateTenantRequest],
) (*connect.Response[lsmv1.CreateTenantResponse], error) {
	return c.createTenant.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *tenantServiceClient) UpdateTenant(
	ctx context.Context, req *connect.Request[lsmv1.UpdateTenantRequest],
) (*connect.Response[lsmv1.UpdateTenantResponse], error) {
	return c.updateTenant.CallUnary(ctx, req)
}

//nolint:whitespace // can't make both editor and linter happy
func (c *tenantServiceClient) DeleteTenant(
	ctx context.Context, req *connect.Request[lsmv1.DeleteTenantRequest],
) (*connect.Response[lsmv1.DeleteTenantResponse], error) {
	return c.deleteTenant.CallUnary(ctx, req)
}

// UnimplementedTenantServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedTenantServiceHandler struct{}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedTenantServiceHandler) GetTenants(
	context.Context, *connect.Request[lsmv1.GetTenantsRequest],
) (*connect.Response[lsmv1.GetTenantsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.tenant.v1.TenantService.GetTenants is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedTenantServiceHandler) GetTenant(
	context.Context, *connect.Request[lsmv1.GetTenantRequest],
) (*connect.Response[lsmv1.GetTenantResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.tenant.v1.TenantService.GetTenant is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedTenantServiceHandler) CreateTenant(
	context.Context, *connect.Request[lsmv1.CreateTenantRequest],
) (*connect.Response[lsmv1.CreateTenantResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.tenant.v1.TenantService.CreateTenant is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedTenantServiceHandler) UpdateTenant(
	context.Context, *connect.Request[lsmv1.UpdateTenantRequest],
) (*connect.Response[lsmv1.UpdateTenantResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.tenant.v1.TenantService.UpdateTenant is not implemented"))
}

//nolint:whitespace // can't make both editor and linter happy
func (UnimplementedTenantServiceHandler) DeleteTenant(
	context.Context, *connect.Request[lsmv1.DeleteTenantRequest],
) (*connect.Response[lsmv1.DeleteTenantResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented,
		errors.New("lsm.tenant.v1.TenantService.DeleteTenant is not implemented"))
}
