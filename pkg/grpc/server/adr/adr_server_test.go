//nolint:funlen,errcheck //ok for this test code
package adr

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/util"
	"github.com/mpapenbr/lorawan-service-manager/testsupport/servertest"
)

func setup(t *testing.T) (*adrServer, *servertest.Env) {
	t.Helper()
	env := servertest.NewEnv(t)
	return NewServer(
		WithPermissionEvaluator(env.PE),
		WithRegions(env.Regions),
		WithAdrRegistry(env.Adr),
	), env
}

func ptr[T any](v T) *T { return &v }

func fullHistory(snr float64) []*lsmv1.UplinkAdrHistory {
	ret := make([]*lsmv1.UplinkAdrHistory, 20)
	for i := range ret {
		ret[i] = &lsmv1.UplinkAdrHistory{FCnt: uint32(i), MaxSnr: snr, GatewayCount: 1}
	}
	return ret
}

func TestListAlgorithms(t *testing.T) {
	srv, _ := setup(t)
	res, err := srv.ListAlgorithms(servertest.AnonCtx(),
		connect.NewRequest(&lsmv1.ListAdrAlgorithmsRequest{}))
	require.NoError(t, err)
	assert.Equal(t, uint32(3), res.Msg.TotalCount)
	ids := make([]string, len(res.Msg.Result))
	for i, a := range res.Msg.Result {
		ids[i] = a.ID
	}
	assert.Equal(t, []string{"default", "lora_lr_fhss", "lr_fhss"}, ids)
}

func TestSimulate(t *testing.T) {
	srv, env := setup(t)
	tenant, _, _ := env.SampleData(t)

	tests := []struct {
		name string
		req  *lsmv1.SimulateAdrRequest
		want *lsmv1.AdrResult
	}{
		{
			name: "adr disabled keeps settings",
			req: &lsmv1.SimulateAdrRequest{Request: &lsmv1.AdrRequest{
				RegionConfigID: "eu868",
				DR:             2,
				TxPowerIndex:   1,
				NbTrans:        1,
			}},
			want: &lsmv1.AdrResult{DR: 2, TxPowerIndex: 1, NbTrans: 1},
		},
		{
			// margin 8 - (-12.5) - 10 = 10.5 gives three steps
			name: "good signal increases dr",
			req: &lsmv1.SimulateAdrRequest{Request: &lsmv1.AdrRequest{
				RegionConfigID: "eu868",
				Adr:            true,
				DR:             3,
				NbTrans:        1,
				UplinkHistory:  fullHistory(8),
			}},
			want: &lsmv1.AdrResult{DR: 5, TxPowerIndex: 1, NbTrans: 1},
		},
		{
			name: "region limit overridden",
			req: &lsmv1.SimulateAdrRequest{
				AlgorithmID: "default",
				Request: &lsmv1.AdrRequest{
					RegionConfigID: "eu868",
					Adr:            true,
					DR:             3,
					NbTrans:        1,
					MaxDR:          ptr(uint32(4)),
					UplinkHistory:  fullHistory(8),
				},
			},
			want: &lsmv1.AdrResult{DR: 4, TxPowerIndex: 2, NbTrans: 1},
		},
		{
			name: "nbTrans defaults to 1",
			req: &lsmv1.SimulateAdrRequest{Request: &lsmv1.AdrRequest{
				RegionConfigID: "eu868",
				DR:             0,
			}},
			want: &lsmv1.AdrResult{DR: 0, TxPowerIndex: 0, NbTrans: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := srv.Simulate(servertest.TenantCtx(tenant), connect.NewRequest(tt.req))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Msg.Result)
		})
	}
}

func TestSimulateErrors(t *testing.T) {
	srv, _ := setup(t)
	valid := func(mod func(r *lsmv1.AdrRequest)) *lsmv1.AdrRequest {
		r := &lsmv1.AdrRequest{RegionConfigID: "eu868", Adr: true, DR: 1, NbTrans: 1}
		mod(r)
		return r
	}
	tests := []struct {
		name string
		ctx  context.Context
		req  *lsmv1.SimulateAdrRequest
		want connect.Code
	}{
		{
			name: "anonymous",
			ctx:  servertest.AnonCtx(),
			req:  &lsmv1.SimulateAdrRequest{Request: valid(func(*lsmv1.AdrRequest) {})},
			want: connect.CodePermissionDenied,
		},
		{
			name: "missing request",
			ctx:  servertest.AdminCtx(),
			req:  &lsmv1.SimulateAdrRequest{},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown region",
			ctx:  servertest.AdminCtx(),
			req: &lsmv1.SimulateAdrRequest{Request: valid(func(r *lsmv1.AdrRequest) {
				r.RegionConfigID = "mars"
			})},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown data rate",
			ctx:  servertest.AdminCtx(),
			req: &lsmv1.SimulateAdrRequest{Request: valid(func(r *lsmv1.AdrRequest) {
				r.DR = 20
			})},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "out of range",
			ctx:  servertest.AdminCtx(),
			req: &lsmv1.SimulateAdrRequest{Request: valid(func(r *lsmv1.AdrRequest) {
				r.TxPowerIndex = 300
			})},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "bad mac version",
			ctx:  servertest.AdminCtx(),
			req: &lsmv1.SimulateAdrRequest{Request: valid(func(r *lsmv1.AdrRequest) {
				r.MacVersion = "2.0"
			})},
			want: connect.CodeInvalidArgument,
		},
		{
			name: "unknown algorithm",
			ctx:  servertest.AdminCtx(),
			req: &lsmv1.SimulateAdrRequest{
				AlgorithmID: "unknown",
				Request:     valid(func(*lsmv1.AdrRequest) {}),
			},
			want: connect.CodeInvalidArgument,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.Simulate(tt.ctx, connect.NewRequest(tt.req))
			require.Error(t, err)
			assert.Equal(t, tt.want, util.MapError(err).(*connect.Error).Code())
		})
	}
}
