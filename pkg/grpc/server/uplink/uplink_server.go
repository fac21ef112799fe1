package uplink

import (
	"context"
	"errors"
	"math"

	"connectrpc.com/connect"
	"github.com/samber/lo"

	"github.com/mpapenbr/lorawan-service-manager/log"
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	x "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1/lsmv1connect"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/permission"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
	adrserver "github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/adr"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/util"
	"github.com/mpapenbr/lorawan-service-manager/pkg/processing"
)

var ErrValueRange = errors.New("fPort and dr must not exceed 255")

func NewServer(opts ...Option) *uplinkServer {
	ret := &uplinkServer{
		log: log.Default().Named("grpc.uplink"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

type Option func(*uplinkServer)

func WithRepositories(repos api.Repositories) Option {
	return func(srv *uplinkServer) {
		srv.repos = repos
	}
}

func WithPermissionEvaluator(pe permission.PermissionEvaluator) Option {
	return func(srv *uplinkServer) {
		srv.pe = pe
	}
}

func WithProcessor(arg *processing.Processor) Option {
	return func(srv *uplinkServer) {
		srv.processor = arg
	}
}

type uplinkServer struct {
	x.UnimplementedUplinkServiceHandler

	pe        permission.PermissionEvaluator
	log       *log.Logger
	repos     api.Repositories
	processor *processing.Processor
}

var _ x.UplinkServiceHandler = (*uplinkServer)(nil)

//nolint:whitespace // can't make both editor and linter happy
func (s *uplinkServer) PublishUplink(
	ctx context.Context,
	req *connect.Request[lsmv1.PublishUplinkRequest],
) (*connect.Response[lsmv1.PublishUplinkResponse], error) {
	up, err := toUplink(req.Msg)
	if err != nil {
		return nil, err
	}
	a := auth.FromContext(ctx)
	if !auth.HasAnyRole(a) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	d, err := s.repos.Device().LoadByDevEUI(ctx, up.DevEUI)
	if err != nil {
		return nil, err
	}
	if !s.pe.HasTenantPermission(a, permission.PermissionPublishUplink, d.TenantID) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	res, err := s.processor.Process(ctx, up)
	if err != nil {
		return nil, err
	}
	ret := &lsmv1.PublishUplinkResponse{
		DeduplicationID: res.DeduplicationID,
		Adr:             adrserver.ToResult(res.Adr),
		Object:          res.Object,
		Measurements:    res.Measurements,
	}
	if res.CodecError != nil {
		ret.CodecError = res.CodecError.Error()
	}
	return connect.NewResponse(ret), nil
}

func toUplink(in *lsmv1.PublishUplinkRequest) (*processing.Uplink, error) {
	devEUI, err := util.ParseDevEUI(in.DevEUI)
	if err != nil {
		return nil, err
	}
	if in.FPort > math.MaxUint8 || in.DR > math.MaxUint8 {
		return nil, util.InvalidArgument(ErrValueRange)
	}
	ret := &processing.Uplink{
		DevEUI:    devEUI,
		DevAddr:   in.DevAddr,
		FCnt:      in.FCnt,
		FPort:     uint8(in.FPort),
		DR:        uint8(in.DR),
		Confirmed: in.Confirmed,
		Data:      in.Data,
		RxInfo: lo.Map(in.RxInfo, func(rx *lsmv1.UplinkRxInfo, _ int) processing.RxInfo {
			return processing.RxInfo{GatewayID: rx.GatewayID, Rssi: rx.Rssi, Snr: rx.Snr}
		}),
	}
	if in.RecvTime != nil {
		ret.RecvTime = *in.RecvTime
	}
	return ret, nil
}
