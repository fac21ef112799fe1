package deviceprofile

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"
	"github.com/samber/lo"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	x "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1/lsmv1connect"
	"github.com/mpapenbr/lorawan-service-manager/pkg/codec"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/permission"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
	adrserver "github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/adr"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/util"
	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
)

var (
	ErrDeviceProfileRequired = errors.New("deviceProfile is required")
	ErrNameRequired          = errors.New("name is required")
	ErrScriptRequired        = errors.New("payloadCodecScript is required for JS codec")
)

func NewServer(opts ...Option) *deviceProfileServer {
	ret := &deviceProfileServer{
		log: log.Default().Named("grpc.deviceprofile"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

type Option func(*deviceProfileServer)

func WithRepositories(repos api.Repositories) Option {
	return func(srv *deviceProfileServer) {
		srv.repos = repos
	}
}

func WithPermissionEvaluator(pe permission.PermissionEvaluator) Option {
	return func(srv *deviceProfileServer) {
		srv.pe = pe
	}
}

func WithRegions(regions *region.Registry) Option {
	return func(srv *deviceProfileServer) {
		srv.regions = regions
	}
}

func WithAdrRegistry(arg *adr.Registry) Option {
	return func(srv *deviceProfileServer) {
		srv.adrRegistry = arg
	}
}

func WithCodecService(arg *codec.Service) Option {
	return func(srv *deviceProfileServer) {
		srv.codecs = arg
	}
}

type deviceProfileServer struct {
	x.UnimplementedDeviceProfileServiceHandler

	pe          permission.PermissionEvaluator
	log         *log.Logger
	repos       api.Repositories
	regions     *region.Registry
	adrRegistry *adr.Registry
	codecs      *codec.Service
}

var _ x.DeviceProfileServiceHandler = (*deviceProfileServer)(nil)

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceProfileServer) checkPermission(
	ctx context.Context,
	perm permission.Permission,
	tenantID uint32,
) error {
	if !s.pe.HasTenantPermission(auth.FromContext(ctx), perm, tenantID) {
		return connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	return nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceProfileServer) Create(
	ctx context.Context,
	req *connect.Request[lsmv1.CreateDeviceProfileRequest],
) (*connect.Response[lsmv1.CreateDeviceProfileResponse], error) {
	in := req.Msg.DeviceProfile
	if in == nil {
		return nil, util.InvalidArgument(ErrDeviceProfileRequired)
	}
	t, err := util.ResolveTenant(ctx, s.repos.Tenant(),
		lsmv1.TenantByExternalID(in.TenantID))
	if err != nil {
		return nil, err
	}
	if err = s.checkPermission(ctx, permission.PermissionCreateDeviceProfile, t.ID); err != nil {
		return nil, err
	}
	p, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	p.TenantID = t.ID
	ret, err := s.repos.DeviceProfile().Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.log.Debug("DeviceProfile created",
		log.String("id", ret.ID.String()),
		log.String("name", ret.Name))
	return connect.NewResponse(&lsmv1.CreateDeviceProfileResponse{
		ID: ret.ID.String(),
	}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceProfileServer) Get(
	ctx context.Context,
	req *connect.Request[lsmv1.GetDeviceProfileRequest],
) (*connect.Response[lsmv1.GetDeviceProfileResponse], error) {
	p, err := s.load(ctx, req.Msg.ID, permission.PermissionReadDeviceProfile)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&lsmv1.GetDeviceProfileResponse{
		DeviceProfile: ToAPI(p),
	}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceProfileServer) List(
	ctx context.Context,
	req *connect.Request[lsmv1.ListDeviceProfilesRequest],
) (*connect.Response[lsmv1.ListDeviceProfilesResponse], error) {
	t, err := util.ResolveTenant(ctx, s.repos.Tenant(),
		lsmv1.TenantByExternalID(req.Msg.TenantID))
	if err != nil {
		return nil, err
	}
	if err = s.checkPermission(ctx, permission.PermissionReadDeviceProfile, t.ID); err != nil {
		return nil, err
	}
	count, err := s.repos.DeviceProfile().CountByTenant(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	data, err := s.repos.DeviceProfile().LoadByTenant(ctx, t.ID,
		req.Msg.Limit, req.Msg.Offset)
	if err != nil {
		return nil, err
	}
	ret := make([]*lsmv1.DeviceProfile, len(data))
	for i, p := range data {
		ret[i] = ToAPI(p)
	}
	return connect.NewResponse(&lsmv1.ListDeviceProfilesResponse{
		TotalCount: count,
		Result:     ret,
	}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceProfileServer) Update(
	ctx context.Context,
	req *connect.Request[lsmv1.UpdateDeviceProfileRequest],
) (*connect.Response[lsmv1.UpdateDeviceProfileResponse], error) {
	in := req.Msg.DeviceProfile
	if in == nil {
		return nil, util.InvalidArgument(ErrDeviceProfileRequired)
	}
	cur, err := s.load(ctx, in.ID, permission.PermissionUpdateDeviceProfile)
	if err != nil {
		return nil, err
	}
	p, err := s.validate(in)
	if err != nil {
		return nil, err
	}
	p.ID = cur.ID
	p.TenantID = cur.TenantID
	if _, err = s.repos.DeviceProfile().Update(ctx, p); err != nil {
		return nil, err
	}
	return connect.NewResponse(&lsmv1.UpdateDeviceProfileResponse{}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceProfileServer) Delete(
	ctx context.Context,
	req *connect.Request[lsmv1.DeleteDeviceProfileRequest],
) (*connect.Response[lsmv1.DeleteDeviceProfileResponse], error) {
	p, err := s.load(ctx, req.Msg.ID, permission.PermissionDeleteDeviceProfile)
	if err != nil {
		return nil, err
	}
	if _, err = s.repos.DeviceProfile().DeleteByID(ctx, p.ID); err != nil {
		return nil, err
	}
	return connect.NewResponse(&lsmv1.DeleteDeviceProfileResponse{}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceProfileServer) ListAdrAlgorithms(
	ctx context.Context,
	req *connect.Request[lsmv1.ListAdrAlgorithmsRequest],
) (*connect.Response[lsmv1.ListAdrAlgorithmsResponse], error) {
	if !s.pe.HasPermission(auth.FromContext(ctx), permission.PermissionListAdrAlgorithms) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	return connect.NewResponse(adrserver.ToAlgorithms(s.adrRegistry.Algorithms())), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceProfileServer) load(
	ctx context.Context,
	id string,
	perm permission.Permission,
) (*model.DeviceProfile, error) {
	profileID, err := util.ParseUUID("device profile id", id)
	if err != nil {
		return nil, err
	}
	p, err := s.repos.DeviceProfile().LoadByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if err := s.checkPermission(ctx, perm, p.TenantID); err != nil {
		return nil, err
	}
	return p, nil
}

// validate converts in and checks the references to regions, ADR algorithms
// and codec plugins.
func (s *deviceProfileServer) validate(in *lsmv1.DeviceProfile) (*model.DeviceProfile, error) {
	if in.Name == "" {
		return nil, util.InvalidArgument(ErrNameRequired)
	}
	p, err := fromAPI(in)
	if err != nil {
		return nil, util.InvalidArgument(err)
	}
	if s.regions != nil {
		if _, err := s.regions.Get(p.Region); err != nil {
			return nil, util.InvalidArgument(err)
		}
	}
	if p.AdrAlgorithmID == "" {
		p.AdrAlgorithmID = "default"
	}
	if s.adrRegistry != nil {
		if _, ok := s.adrRegistry.Get(p.AdrAlgorithmID); !ok {
			return nil, util.InvalidArgument(
				fmt.Errorf("%w: %s", adr.ErrUnknownAlgorithm, p.AdrAlgorithmID))
		}
	}
	if p.CodecPluginID != "" && s.codecs != nil && !s.hasPlugin(p.CodecPluginID) {
		return nil, util.InvalidArgument(
			fmt.Errorf("%w: %s", codec.ErrUnknownPlugin, p.CodecPluginID))
	}
	if p.CodecPluginID == "" && p.PayloadCodecRuntime == codec.JS && p.PayloadCodecScript == "" {
		return nil, util.InvalidArgument(ErrScriptRequired)
	}
	return p, nil
}

func (s *deviceProfileServer) hasPlugin(id string) bool {
	return lo.ContainsBy(s.codecs.Plugins(), func(p codec.PluginInfo) bool {
		return p.ID == id
	})
}
