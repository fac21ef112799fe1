package codec

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"connectrpc.com/connect"

	"github.com/mpapenbr/lorawan-service-manager/log"
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	x "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1/lsmv1connect"
	"github.com/mpapenbr/lorawan-service-manager/pkg/codec"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/permission"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/util"
	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
)

var ErrInvalidFPort = errors.New("fPort must be between 0 and 255")

func NewServer(opts ...Option) *codecServer {
	ret := &codecServer{
		log: log.Default().Named("grpc.codec"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

type Option func(*codecServer)

func WithRepositories(repos api.Repositories) Option {
	return func(srv *codecServer) {
		srv.repos = repos
	}
}

func WithPermissionEvaluator(pe permission.PermissionEvaluator) Option {
	return func(srv *codecServer) {
		srv.pe = pe
	}
}

func WithCodecService(arg *codec.Service) Option {
	return func(srv *codecServer) {
		srv.codecs = arg
	}
}

type codecServer struct {
	x.UnimplementedCodecServiceHandler

	pe     permission.PermissionEvaluator
	log    *log.Logger
	repos  api.Repositories
	codecs *codec.Service
}

var _ x.CodecServiceHandler = (*codecServer)(nil)

//nolint:whitespace // can't make both editor and linter happy
func (s *codecServer) ListPlugins(
	ctx context.Context,
	req *connect.Request[lsmv1.ListCodecPluginsRequest],
) (*connect.Response[lsmv1.ListCodecPluginsResponse], error) {
	a := auth.FromContext(ctx)
	if !s.pe.HasPermission(a, permission.PermissionListCodecPlugins) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	plugins := s.codecs.Plugins()
	ret := make([]*lsmv1.CodecPlugin, len(plugins))
	for i, p := range plugins {
		ret[i] = &lsmv1.CodecPlugin{ID: p.ID, Name: p.Name}
	}
	return connect.NewResponse(&lsmv1.ListCodecPluginsResponse{Result: ret}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *codecServer) DecodeUplink(
	ctx context.Context,
	req *connect.Request[lsmv1.DecodeUplinkRequest],
) (*connect.Response[lsmv1.DecodeUplinkResponse], error) {
	fPort, err := toFPort(req.Msg.FPort)
	if err != nil {
		return nil, err
	}
	settings, profile, err := s.resolveSettings(ctx, &req.Msg.CodecSettings)
	if err != nil {
		return nil, err
	}
	recvTime := time.Now()
	if req.Msg.RecvTime != nil {
		recvTime = *req.Msg.RecvTime
	}
	obj, err := s.codecs.Decode(ctx, settings, recvTime, fPort,
		req.Msg.Variables, req.Msg.Data)
	if err != nil {
		return nil, codecError(err)
	}
	ret := &lsmv1.DecodeUplinkResponse{Object: obj}
	if profile != nil && obj != nil {
		ret.Measurements, _ = profile.Measure(obj)
	}
	return connect.NewResponse(ret), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *codecServer) EncodeDownlink(
	ctx context.Context,
	req *connect.Request[lsmv1.EncodeDownlinkRequest],
) (*connect.Response[lsmv1.EncodeDownlinkResponse], error) {
	fPort, err := toFPort(req.Msg.FPort)
	if err != nil {
		return nil, err
	}
	settings, _, err := s.resolveSettings(ctx, &req.Msg.CodecSettings)
	if err != nil {
		return nil, err
	}
	b, err := s.codecs.Encode(ctx, settings, fPort, req.Msg.Variables, req.Msg.Object)
	if err != nil {
		return nil, codecError(err)
	}
	return connect.NewResponse(&lsmv1.EncodeDownlinkResponse{Data: b}), nil
}

// resolveSettings returns the codec settings of the request. The device profile
// is only returned if the request references one.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *codecServer) resolveSettings(
	ctx context.Context,
	in *lsmv1.CodecSettings,
) (codec.Settings, *model.DeviceProfile, error) {
	a := auth.FromContext(ctx)
	if in.DeviceProfileID != "" {
		id, err := util.ParseUUID("device profile id", in.DeviceProfileID)
		if err != nil {
			return codec.Settings{}, nil, err
		}
		p, err := s.repos.DeviceProfile().LoadByID(ctx, id)
		if err != nil {
			return codec.Settings{}, nil, err
		}
		if !s.pe.HasTenantPermission(a, permission.PermissionExecuteCodec, p.TenantID) {
			return codec.Settings{}, nil, connect.NewError(
				connect.CodePermissionDenied, auth.ErrPermissionDenied)
		}
		return codec.Settings{
			Codec:    p.PayloadCodecRuntime,
			Script:   p.PayloadCodecScript,
			PluginID: p.CodecPluginID,
		}, p, nil
	}

	// ad hoc settings may be used by the admin and every tenant
	allowed := s.pe.HasPermission(a, permission.PermissionExecuteCodec)
	if tenantID, ok := auth.TenantID(a); ok && !allowed {
		allowed = s.pe.HasTenantPermission(a, permission.PermissionExecuteCodec, tenantID)
	}
	if !allowed {
		return codec.Settings{}, nil, connect.NewError(
			connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	c, err := codec.ParseCodec(in.Codec)
	if err != nil {
		return codec.Settings{}, nil, util.InvalidArgument(err)
	}
	return codec.Settings{Codec: c, Script: in.Script, PluginID: in.PluginID}, nil, nil
}

func toFPort(v uint32) (uint8, error) {
	if v > math.MaxUint8 {
		return 0, util.InvalidArgument(ErrInvalidFPort)
	}
	return uint8(v), nil
}

// codecError reports failing scripts and payloads as invalid arguments.
func codecError(err error) error {
	if errors.Is(err, jsrt.ErrExecutionTimeout) || errors.Is(err, codec.ErrUnknownPlugin) {
		return err
	}
	return util.InvalidArgument(fmt.Errorf("codec: %w", err))
}
