package tenant

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/lorawan-service-manager/log"
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	x "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1/lsmv1connect"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/permission"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/util"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/cache"
)

func NewServer(opts ...Option) *tenantServer {
	ret := &tenantServer{
		log: log.Default().Named("grpc.tenant"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.tracer == nil {
		ret.tracer = otel.Tracer("lsm")
	}
	return ret
}

type Option func(*tenantServer)

func WithRepository(repo api.TenantRepository) Option {
	return func(srv *tenantServer) {
		srv.tenantRepos = repo
	}
}

func WithPermissionEvaluator(pe permission.PermissionEvaluator) Option {
	return func(srv *tenantServer) {
		srv.pe = pe
	}
}

func WithTenantCache(arg cache.Invalidator[string]) Option {
	return func(srv *tenantServer) {
		srv.cache = arg
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(srv *tenantServer) {
		srv.tracer = tracer
	}
}

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrNameRequired   = errors.New("name is required")
)

type tenantServer struct {
	x.UnimplementedTenantServiceHandler

	pe permission.PermissionEvaluator

	log         *log.Logger
	cache       cache.Invalidator[string]
	tenantRepos api.TenantRepository
	tracer      trace.Tracer
}

var _ x.TenantServiceHandler = (*tenantServer)(nil)

//nolint:whitespace // can't make both editor and linter happy
func (s *tenantServer) GetTenants(
	ctx context.Context,
	req *connect.Request[lsmv1.GetTenantsRequest],
) (*connect.Response[lsmv1.GetTenantsResponse], error) {
	a := auth.FromContext(ctx)
	if !s.pe.HasPermission(a, permission.PermissionReadTenant) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	data, err := s.tenantRepos.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*lsmv1.Tenant, len(data))
	for i, d := range data {
		ret[i] = ToAPI(d)
	}
	return connect.NewResponse(&lsmv1.GetTenantsResponse{Tenants: ret}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *tenantServer) GetTenant(
	ctx context.Context,
	req *connect.Request[lsmv1.GetTenantRequest],
) (*connect.Response[lsmv1.GetTenantResponse], error) {
	data, err := util.ResolveTenant(ctx, s.tenantRepos, req.Msg.Tenant)
	if err != nil {
		return nil, err
	}
	a := auth.FromContext(ctx)
	if !s.pe.HasTenantPermission(a, permission.PermissionReadTenant, data.ID) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	return connect.NewResponse(&lsmv1.GetTenantResponse{Tenant: ToAPI(data)}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *tenantServer) CreateTenant(
	ctx context.Context, req *connect.Request[lsmv1.CreateTenantRequest],
) (*connect.Response[lsmv1.CreateTenantResponse], error) {
	a := auth.FromContext(ctx)
	if !s.pe.HasPermission(a, permission.PermissionCreateTenant) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	s.log.Debug("CreateTenant called",
		log.String("name", req.Msg.Name),
	)
	if req.Msg.Name == "" {
		return nil, util.InvalidArgument(ErrNameRequired)
	}
	apiKey, generated := req.Msg.APIKey, ""
	if apiKey == "" {
		generated = utils.GenerateAPIKey()
		apiKey = generated
	}

	ret, err := s.tenantRepos.Create(ctx, &model.Tenant{
		Name:            req.Msg.Name,
		APIKey:          utils.HashAPIKey(apiKey),
		Active:          req.Msg.IsActive,
		CanHaveGateways: req.Msg.CanHaveGateways,
		MaxDeviceCount:  req.Msg.MaxDeviceCount,
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, ret.APIKey)
	return connect.NewResponse(&lsmv1.CreateTenantResponse{
		Tenant: ToAPI(ret),
		APIKey: generated,
	}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *tenantServer) UpdateTenant(
	ctx context.Context, req *connect.Request[lsmv1.UpdateTenantRequest],
) (*connect.Response[lsmv1.UpdateTenantResponse], error) {
	a := auth.FromContext(ctx)
	if !s.pe.HasPermission(a, permission.PermissionUpdateTenant) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	s.log.Debug("UpdateTenant called",
		log.Any("tenant", req.Msg.Tenant),
	)
	t, err := util.ResolveTenant(ctx, s.tenantRepos, req.Msg.Tenant)
	if err != nil {
		return nil, err
	}
	upd := &model.Tenant{
		Name:            req.Msg.Name,
		Active:          req.Msg.IsActive,
		CanHaveGateways: req.Msg.CanHaveGateways,
		MaxDeviceCount:  req.Msg.MaxDeviceCount,
	}
	if req.Msg.APIKey != "" {
		upd.APIKey = utils.HashAPIKey(req.Msg.APIKey)
	}
	ret, err := s.tenantRepos.Update(ctx, t.ID, upd)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, t.APIKey)
	if upd.APIKey != "" {
		s.invalidate(ctx, upd.APIKey)
	}
	return connect.NewResponse(&lsmv1.UpdateTenantResponse{
		Tenant: ToAPI(ret),
	}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *tenantServer) DeleteTenant(
	ctx context.Context, req *connect.Request[lsmv1.DeleteTenantRequest],
) (*connect.Response[lsmv1.DeleteTenantResponse], error) {
	a := auth.FromContext(ctx)
	if !s.pe.HasPermission(a, permission.PermissionDeleteTenant) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	s.log.Debug("DeleteTenant called",
		log.Any("tenant", req.Msg.Tenant))

	data, err := util.ResolveTenant(ctx, s.tenantRepos, req.Msg.Tenant)
	if err != nil {
		return nil, err
	}
	deleted, err := s.tenantRepos.DeleteByID(ctx, data.ID)
	if err != nil {
		return nil, err
	}
	if deleted == 0 {
		return nil, connect.NewError(connect.CodeNotFound, ErrTenantNotFound)
	}
	s.invalidate(ctx, data.APIKey)
	return connect.NewResponse(&lsmv1.DeleteTenantResponse{}), nil
}

// the cache is keyed by the hashed api key. Unknown keys are cached
// negatively, so new keys must be evicted as well.
func (s *tenantServer) invalidate(ctx context.Context, hashedKey string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, hashedKey)
	}
}

func ToAPI(t *model.Tenant) *lsmv1.Tenant {
	return &lsmv1.Tenant{
		ExternalID:      t.ExternalID.String(),
		Name:            t.Name,
		IsActive:        t.Active,
		CanHaveGateways: t.CanHaveGateways,
		MaxDeviceCount:  t.MaxDeviceCount,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}
