package adr

import (
	"context"
	"errors"
	"math"

	"connectrpc.com/connect"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	x "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1/lsmv1connect"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/permission"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/util"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
)

const defaultAlgorithm = "default"

var (
	ErrRequestRequired = errors.New("request is required")
	ErrValueRange      = errors.New("value exceeds 255")
)

func NewServer(opts ...Option) *adrServer {
	ret := &adrServer{
		log: log.Default().Named("grpc.adr"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

type Option func(*adrServer)

func WithPermissionEvaluator(pe permission.PermissionEvaluator) Option {
	return func(srv *adrServer) {
		srv.pe = pe
	}
}

func WithRegions(arg *region.Registry) Option {
	return func(srv *adrServer) {
		srv.regions = arg
	}
}

func WithAdrRegistry(arg *adr.Registry) Option {
	return func(srv *adrServer) {
		srv.adr = arg
	}
}

type adrServer struct {
	x.UnimplementedAdrServiceHandler

	pe      permission.PermissionEvaluator
	log     *log.Logger
	regions *region.Registry
	adr     *adr.Registry
}

var _ x.AdrServiceHandler = (*adrServer)(nil)

//nolint:whitespace // can't make both editor and linter happy
func (s *adrServer) ListAlgorithms(
	ctx context.Context,
	req *connect.Request[lsmv1.ListAdrAlgorithmsRequest],
) (*connect.Response[lsmv1.ListAdrAlgorithmsResponse], error) {
	a := auth.FromContext(ctx)
	if !s.pe.HasPermission(a, permission.PermissionListAdrAlgorithms) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	return connect.NewResponse(ToAlgorithms(s.adr.Algorithms())), nil
}

// Simulate runs an algorithm on the given request without touching any device.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *adrServer) Simulate(
	ctx context.Context,
	req *connect.Request[lsmv1.SimulateAdrRequest],
) (*connect.Response[lsmv1.SimulateAdrResponse], error) {
	a := auth.FromContext(ctx)
	allowed := s.pe.HasPermission(a, permission.PermissionSimulateAdr)
	if tenantID, ok := auth.TenantID(a); ok && !allowed {
		allowed = s.pe.HasTenantPermission(a, permission.PermissionSimulateAdr, tenantID)
	}
	if !allowed {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	adrReq, err := ToRequest(s.regions, req.Msg.Request)
	if err != nil {
		return nil, err
	}
	algo := req.Msg.AlgorithmID
	if algo == "" {
		algo = defaultAlgorithm
	}
	resp, err := s.adr.Run(ctx, algo, adrReq)
	if err != nil {
		return nil, err
	}
	s.log.Debug("ADR simulated",
		log.String("algorithm", algo),
		log.Any("request", adrReq),
		log.Any("response", resp))
	return connect.NewResponse(&lsmv1.SimulateAdrResponse{
		Result: ToResult(resp),
	}), nil
}

// ToRequest builds the algorithm input. Optional limits default to the values
// of the region.
//
//nolint:cyclop,funlen // straight conversion
func ToRequest(regions *region.Registry, in *lsmv1.AdrRequest) (*adr.Request, error) {
	if in == nil {
		return nil, util.InvalidArgument(ErrRequestRequired)
	}
	reg, err := regions.Get(in.RegionConfigID)
	if err != nil {
		return nil, err
	}
	dr, err := toUint8(in.DR)
	if err != nil {
		return nil, err
	}
	ret := &adr.Request{
		ADR:             in.Adr,
		DR:              dr,
		SkipFCntCheck:   in.SkipFCntCheck,
		DeviceVariables: in.DeviceVariables,
		UplinkHistory:   make([]adr.UplinkMetaData, 0, len(in.UplinkHistory)),
	}
	if err = ret.ApplyRegion(reg); err != nil {
		return nil, err
	}
	if ret.TxPowerIndex, err = toUint8(in.TxPowerIndex); err != nil {
		return nil, err
	}
	if ret.NbTrans, err = toUint8(in.NbTrans); err != nil {
		return nil, err
	}
	if ret.NbTrans == 0 {
		ret.NbTrans = 1
	}
	if in.DevEUI != "" {
		if ret.DevEUI, err = util.ParseDevEUI(in.DevEUI); err != nil {
			return nil, err
		}
	}
	if in.MacVersion != "" {
		if ret.MacVersion, err = lrwn.ParseMacVersion(in.MacVersion); err != nil {
			return nil, util.InvalidArgument(err)
		}
	}
	if in.RegParamsRevision != "" {
		ret.RegParamsRevision, err = lrwn.ParseRegParamsRevision(in.RegParamsRevision)
		if err != nil {
			return nil, util.InvalidArgument(err)
		}
	}
	if in.MaxTxPowerIndex != nil {
		if ret.MaxTxPowerIndex, err = toUint8(*in.MaxTxPowerIndex); err != nil {
			return nil, err
		}
	}
	if in.MinDR != nil {
		if ret.MinDR, err = toUint8(*in.MinDR); err != nil {
			return nil, err
		}
	}
	if in.MaxDR != nil {
		if ret.MaxDR, err = toUint8(*in.MaxDR); err != nil {
			return nil, err
		}
	}
	if in.InstallationMargin != nil {
		ret.InstallationMargin = *in.InstallationMargin
	}
	for _, h := range in.UplinkHistory {
		txPower, err := toUint8(h.TxPowerIndex)
		if err != nil {
			return nil, err
		}
		ret.UplinkHistory = append(ret.UplinkHistory, adr.UplinkMetaData{
			FCnt:         h.FCnt,
			MaxSNR:       h.MaxSnr,
			MaxRSSI:      h.MaxRssi,
			TxPowerIndex: txPower,
			GatewayCount: h.GatewayCount,
		})
	}
	return ret, nil
}

func toUint8(v uint32) (uint8, error) {
	if v > math.MaxUint8 {
		return 0, util.InvalidArgument(ErrValueRange)
	}
	return uint8(v), nil
}
