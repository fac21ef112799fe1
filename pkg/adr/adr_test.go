//nolint:funlen,errcheck,dupl //ok for this test code
package adr

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
)

func testRegions(t *testing.T) *region.Registry {
	t.Helper()
	regions, err := region.NewRegistry([]config.RegionConfig{
		{
			ID:         "eu868",
			CommonName: "EU868",
			ExtraChannels: []config.ExtraChannel{
				{Frequency: 867300000, MinDR: 10, MaxDR: 11},
			},
		},
	})
	require.NoError(t, err)
	return regions
}

func template() Request {
	return Request{
		RegionConfigID:    "eu868",
		RegionCommonName:  region.EU868,
		DevEUI:            lrwn.EUI64{1, 2, 3, 4, 5, 6, 7, 8},
		MacVersion:        lrwn.LoRaWAN1_0_4,
		RegParamsRevision: lrwn.RegParamsRP002_1_0_3,
		ADR:               true,
		NbTrans:           1,
	}
}

func history(n int, f func(i int) UplinkMetaData) []UplinkMetaData {
	ret := make([]UplinkMetaData, n)
	for i := range ret {
		ret[i] = f(i)
	}
	return ret
}

func TestPacketLossPercentage(t *testing.T) {
	h := history(20, func(i int) UplinkMetaData {
		switch {
		case i < 5:
			return UplinkMetaData{FCnt: uint32(i)}
		case i < 10:
			return UplinkMetaData{FCnt: uint32(i + 1)}
		default:
			return UplinkMetaData{FCnt: uint32(i + 2)}
		}
	})
	assert.InDelta(t, 10.0, packetLossPercentage(h), 0.0001)
	assert.Equal(t, 0.0, packetLossPercentage(h[:19]))
}

func TestNbTrans(t *testing.T) {
	tests := []struct {
		lossRate float64
		current  uint8
		want     uint8
	}{
		{lossRate: 4.99, current: 3, want: 2},
		{lossRate: 9.99, current: 2, want: 2},
		{lossRate: 30.0, current: 3, want: 3},
		{lossRate: 0, current: 0, want: 1},
		{lossRate: 12, current: 9, want: 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nbTrans(tt.current, tt.lossRate))
	}
}

func TestIdealTxPowerIndexAndDR(t *testing.T) {
	tests := []struct {
		name        string
		nStep       int
		txPower     uint8
		dr          uint8
		wantTxPower uint8
		wantDR      uint8
	}{
		{name: "nothing to do", nStep: 0, txPower: 1, dr: 3, wantTxPower: 1, wantDR: 3},
		{name: "one step dr increase", nStep: 1, txPower: 1, dr: 4, wantTxPower: 1, wantDR: 5},
		{name: "one step tx-power decrease", nStep: 1, txPower: 1, dr: 5, wantTxPower: 2, wantDR: 5},
		{name: "two steps dr increase", nStep: 2, txPower: 1, dr: 3, wantTxPower: 1, wantDR: 5},
		{name: "dr increase and tx-power decrease", nStep: 2, txPower: 1, dr: 4, wantTxPower: 2, wantDR: 5},
		{name: "two steps tx-power decrease", nStep: 2, txPower: 1, dr: 5, wantTxPower: 3, wantDR: 5},
		{name: "tx-power at max", nStep: 2, txPower: 5, dr: 5, wantTxPower: 5, wantDR: 5},
		{name: "one negative step", nStep: -1, txPower: 1, dr: 5, wantTxPower: 0, wantDR: 5},
		{name: "negative step keeps dr", nStep: -1, txPower: 0, dr: 4, wantTxPower: 0, wantDR: 4},
		{name: "ten negative steps at min", nStep: -10, txPower: 0, dr: 4, wantTxPower: 0, wantDR: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txPower, dr := idealTxPowerIndexAndDR(tt.nStep, tt.txPower, tt.dr, 5, 5)
			assert.Equal(t, tt.wantTxPower, txPower)
			assert.Equal(t, tt.wantDR, dr)
		})
	}
}

func TestMaxSNR(t *testing.T) {
	assert.Equal(t, -999.0, maxSNR(nil))
	assert.Equal(t, 4.0, maxSNR([]UplinkMetaData{{MaxSNR: 3}, {MaxSNR: 4}, {MaxSNR: -1}}))
}

func TestDefaultHandle(t *testing.T) {
	a := NewDefault(testRegions(t))
	assert.Equal(t, "default", a.ID())
	tests := []struct {
		name   string
		modify func(r *Request)
		want   Response
	}{
		{
			name: "max dr exceeded, adr disabled",
			modify: func(r *Request) {
				r.ADR = false
				r.DR = 5
				r.MaxDR = 4
				r.MaxTxPowerIndex = 5
			},
			want: Response{DR: 5, TxPowerIndex: 0, NbTrans: 1},
		},
		{
			name: "max dr exceeded, decrease dr",
			modify: func(r *Request) {
				r.DR = 5
				r.MaxDR = 4
				r.MaxTxPowerIndex = 5
				r.UplinkHistory = []UplinkMetaData{{MaxSNR: 0}}
			},
			want: Response{DR: 4, TxPowerIndex: 0, NbTrans: 1},
		},
		{
			name: "increase dr",
			modify: func(r *Request) {
				r.MaxDR = 5
				r.MaxTxPowerIndex = 5
				r.RequiredSNRForDR = -20
				r.UplinkHistory = []UplinkMetaData{{MaxSNR: -15}}
			},
			want: Response{DR: 1, TxPowerIndex: 0, NbTrans: 1},
		},
		{
			name: "max dr capped to lora 125k",
			modify: func(r *Request) {
				r.DR = 4
				r.MaxDR = 11
				r.RequiredSNRForDR = -20
				r.UplinkHistory = []UplinkMetaData{{MaxSNR: 10}}
			},
			want: Response{DR: 5, TxPowerIndex: 0, NbTrans: 1},
		},
		{
			name: "negative steps need full history",
			modify: func(r *Request) {
				r.DR = 5
				r.MaxDR = 5
				r.TxPowerIndex = 3
				r.MaxTxPowerIndex = 7
				r.RequiredSNRForDR = -7.5
				r.UplinkHistory = []UplinkMetaData{{MaxSNR: -20, TxPowerIndex: 3}}
			},
			want: Response{DR: 5, TxPowerIndex: 3, NbTrans: 1},
		},
		{
			name: "negative steps with full history",
			modify: func(r *Request) {
				r.DR = 5
				r.MaxDR = 5
				r.TxPowerIndex = 3
				r.MaxTxPowerIndex = 7
				r.RequiredSNRForDR = -7.5
				r.UplinkHistory = history(20, func(i int) UplinkMetaData {
					return UplinkMetaData{FCnt: uint32(i), MaxSNR: -14, TxPowerIndex: 3}
				})
			},
			want: Response{DR: 5, TxPowerIndex: 1, NbTrans: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := template()
			tt.modify(&req)
			got, err := a.Handle(context.Background(), &req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestDefaultUnknownRegion(t *testing.T) {
	a := NewDefault(testRegions(t))
	req := template()
	req.RegionConfigID = "us915"
	_, err := a.Handle(context.Background(), &req)
	assert.ErrorIs(t, err, region.ErrUnknownRegion)
}

func TestMedianRSSI(t *testing.T) {
	assert.Equal(t, int32(0), medianRSSI(nil))
	assert.Equal(t, int32(-120), medianRSSI([]UplinkMetaData{
		{MaxRSSI: -100}, {MaxRSSI: -120}, {MaxRSSI: -130},
	}))
	assert.Equal(t, int32(-115), medianRSSI([]UplinkMetaData{
		{MaxRSSI: -100}, {MaxRSSI: -120}, {MaxRSSI: -110}, {MaxRSSI: -130},
	}))
}

func TestLrFhssHandle(t *testing.T) {
	a := NewLrFhss(testRegions(t))
	a.pick = func(n int) int { return n - 1 }
	tests := []struct {
		name   string
		modify func(r *Request)
		want   Response
	}{
		{
			name: "adr disabled",
			modify: func(r *Request) {
				r.ADR = false
				r.NbTrans = 3
				r.MaxDR = 11
				r.UplinkHistory = []UplinkMetaData{{MaxRSSI: -130}}
			},
			want: Response{DR: 0, NbTrans: 3},
		},
		{
			name: "max_dr prevents lr-fhss",
			modify: func(r *Request) {
				r.NbTrans = 3
				r.MaxDR = 5
				r.UplinkHistory = []UplinkMetaData{{MaxRSSI: -130}}
			},
			want: Response{DR: 0, NbTrans: 3},
		},
		{
			name: "switch to dr 10",
			modify: func(r *Request) {
				r.NbTrans = 3
				r.MaxDR = 11
				r.UplinkHistory = []UplinkMetaData{{MaxRSSI: -130}}
			},
			want: Response{DR: 10, NbTrans: 1},
		},
		{
			name: "switch to dr 11",
			modify: func(r *Request) {
				r.NbTrans = 3
				r.MaxDR = 11
				r.UplinkHistory = history(20, func(int) UplinkMetaData {
					return UplinkMetaData{MaxRSSI: -130}
				})
			},
			want: Response{DR: 11, NbTrans: 1},
		},
		{
			name: "already at 4/6",
			modify: func(r *Request) {
				r.DR = 11
				r.MaxDR = 11
			},
			want: Response{DR: 11, NbTrans: 1},
		},
		{
			name: "low rssi stays at 2/6",
			modify: func(r *Request) {
				r.DR = 10
				r.NbTrans = 2
				r.MaxDR = 11
				r.UplinkHistory = []UplinkMetaData{{MaxRSSI: -140}}
			},
			want: Response{DR: 10, NbTrans: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := template()
			tt.modify(&req)
			got, err := a.Handle(context.Background(), &req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestLoRaLrFhssHandle(t *testing.T) {
	a := NewLoRaLrFhss(testRegions(t))
	tests := []struct {
		name   string
		maxSNR float64
		want   Response
	}{
		{name: "switch to DR 3 (LoRa)", maxSNR: -10, want: Response{DR: 3, NbTrans: 1}},
		{name: "switch to DR 10 (LR-FHSS)", maxSNR: -12, want: Response{DR: 10, NbTrans: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := template()
			req.NbTrans = 3
			req.MaxDR = 11
			req.RequiredSNRForDR = -20
			req.UplinkHistory = []UplinkMetaData{{MaxSNR: tt.maxSNR}}
			got, err := a.Handle(context.Background(), &req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestAppendHistory(t *testing.T) {
	var h []UplinkMetaData
	for i := range 25 {
		h = AppendHistory(h, UplinkMetaData{FCnt: uint32(i)})
	}
	assert.Len(t, h, HistorySize)
	assert.Equal(t, uint32(5), h[0].FCnt)
	assert.Equal(t, uint32(24), h[HistorySize-1].FCnt)
}

func newRuntime(t *testing.T) *jsrt.Runtime {
	t.Helper()
	rt, err := jsrt.New(10)
	require.NoError(t, err)
	return rt
}

func TestSkeletonPlugin(t *testing.T) {
	p, err := LoadPlugin(context.Background(), newRuntime(t),
		"../../examples/adr_plugins/plugin_skeleton.js")
	require.NoError(t, err)
	assert.Equal(t, "Example plugin", p.Name())
	assert.Equal(t, "example_id", p.ID())

	// the skeleton keeps the current values
	tests := []Response{
		{DR: 3, TxPowerIndex: 1, NbTrans: 1},
		{DR: 1, TxPowerIndex: 4, NbTrans: 2},
		{DR: 5, TxPowerIndex: 7, NbTrans: 3},
		{DR: 12, TxPowerIndex: 2, NbTrans: 15},
	}
	for _, want := range tests {
		req := template()
		req.MacVersion = lrwn.LoRaWAN1_0_3
		req.RegParamsRevision = lrwn.RegParamsA
		req.DR = want.DR
		req.TxPowerIndex = want.TxPowerIndex
		req.NbTrans = want.NbTrans
		req.MaxTxPowerIndex = 15
		req.RequiredSNRForDR = -15
		req.InstallationMargin = 10
		req.MaxDR = 5
		req.UplinkHistory = history(20, func(i int) UplinkMetaData {
			return UplinkMetaData{FCnt: uint32(i), MaxSNR: 10, TxPowerIndex: want.TxPowerIndex}
		})
		got, err := p.Handle(context.Background(), &req)
		require.NoError(t, err)
		assert.Equal(t, want, *got)
	}
}

// The example plugin must behave like the built-in default algorithm
// as long as the region allows the requested max dr.
func TestDefaultExamplePlugin(t *testing.T) {
	p, err := LoadPlugin(context.Background(), newRuntime(t),
		"../../examples/adr_plugins/default.js")
	require.NoError(t, err)
	assert.Equal(t, "js_example_default", p.ID())
	builtin := NewDefault(testRegions(t))

	requests := []func(r *Request){
		func(r *Request) { r.ADR = false; r.DR = 5; r.MaxDR = 4 },
		func(r *Request) {
			r.MaxDR = 5
			r.MaxTxPowerIndex = 5
			r.RequiredSNRForDR = -20
			r.UplinkHistory = []UplinkMetaData{{MaxSNR: -15}}
		},
		func(r *Request) {
			r.DR = 5
			r.MaxDR = 5
			r.NbTrans = 2
			r.TxPowerIndex = 3
			r.MaxTxPowerIndex = 7
			r.RequiredSNRForDR = -7.5
			r.UplinkHistory = history(20, func(i int) UplinkMetaData {
				return UplinkMetaData{FCnt: uint32(i * 2), MaxSNR: -14, TxPowerIndex: 3}
			})
		},
	}
	for _, modify := range requests {
		req := template()
		modify(&req)
		want, err := builtin.Handle(context.Background(), &req)
		require.NoError(t, err)
		got, err := p.Handle(context.Background(), &req)
		require.NoError(t, err)
		assert.Equal(t, *want, *got)
	}
}

func TestPluginErrors(t *testing.T) {
	rt := newRuntime(t)
	ctx := context.Background()
	_, err := NewPlugin(ctx, rt, "noid", "function name() { return 'x'; }")
	assert.Error(t, err)

	p, err := NewPlugin(ctx, rt, "missing", `
function id() { return "missing"; }
function name() { return "missing"; }
function handle(req) { return {dr: 1, txPowerIndex: 0}; }`)
	require.NoError(t, err)
	req := template()
	_, err = p.Handle(ctx, &req)
	assert.ErrorContains(t, err, "nbTrans")

	p, err = NewPlugin(ctx, rt, "throws", `
function id() { return "throws"; }
function name() { return "throws"; }
function handle(req) { throw new Error("boom"); }`)
	require.NoError(t, err)
	_, err = p.Handle(ctx, &req)
	assert.ErrorContains(t, err, "boom")
}

func writePlugin(t *testing.T, dir, id string) string {
	t.Helper()
	path := filepath.Join(dir, id+".js")
	src := `export function id() { return "` + id + `"; }
export function name() { return "plugin ` + id + `"; }
export function handle(req) { return {dr: 2, txPowerIndex: 1, nbTrans: 1}; }`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	return path
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := writePlugin(t, dir, "custom")
	r, err := NewRegistry(ctx, testRegions(t), WithPlugins(newRuntime(t), path))
	require.NoError(t, err)

	assert.Equal(t, []Algorithm{
		{ID: "custom", Name: "plugin custom"},
		{ID: "default", Name: "Default ADR algorithm (LoRa only)"},
		{ID: "lora_lr_fhss", Name: "LoRa & LR-FHSS ADR algorithm"},
		{ID: "lr_fhss", Name: "LR-FHSS only ADR algorithm"},
	}, r.Algorithms())

	req := template()
	req.DR = 4
	req.NbTrans = 2
	assert.Equal(t, Response{DR: 2, TxPowerIndex: 1, NbTrans: 1}, *r.Handle(ctx, "custom", &req))
	// unknown algorithm keeps the current values
	assert.Equal(t, Response{DR: 4, NbTrans: 2}, *r.Handle(ctx, "unknown", &req))
	_, err = r.Run(ctx, "unknown", &req)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	// reload with a new id replaces the old registration
	src := `function id() { return "renamed"; }
function name() { return "renamed"; }
function handle(req) { return {dr: 0, txPowerIndex: 0, nbTrans: 3}; }`
	require.NoError(t, os.WriteFile(path, []byte(src), 0o600))
	require.NoError(t, r.Reload(ctx, path))
	_, ok := r.Get("custom")
	assert.False(t, ok)
	assert.Equal(t, Response{DR: 0, TxPowerIndex: 0, NbTrans: 3}, *r.Handle(ctx, "renamed", &req))

	require.NoError(t, os.Remove(path))
	require.NoError(t, r.Reload(ctx, path))
	_, ok = r.Get("renamed")
	assert.False(t, ok)
	assert.Len(t, r.Algorithms(), 3)
}

func TestRegistryRestoresBuiltin(t *testing.T) {
	ctx := context.Background()
	path := writePlugin(t, t.TempDir(), "default")
	r, err := NewRegistry(ctx, testRegions(t), WithPlugins(newRuntime(t), path))
	require.NoError(t, err)
	h, ok := r.Get("default")
	require.True(t, ok)
	assert.Equal(t, "plugin default", h.Name())

	require.NoError(t, os.Remove(path))
	require.NoError(t, r.Reload(ctx, path))
	h, ok = r.Get("default")
	require.True(t, ok)
	assert.Equal(t, "Default ADR algorithm (LoRa only)", h.Name())
	assert.Len(t, r.Algorithms(), 3)

	// a plugin taking over the id again replaces the built-in
	writePlugin(t, filepath.Dir(path), "default")
	require.NoError(t, r.Reload(ctx, path))
	h, _ = r.Get("default")
	assert.Equal(t, "plugin default", h.Name())
}

func TestApplyRegion(t *testing.T) {
	reg, err := testRegions(t).Get("eu868")
	require.NoError(t, err)

	req := Request{DR: 5}
	require.NoError(t, req.ApplyRegion(reg))
	assert.Equal(t, "eu868", req.RegionConfigID)
	assert.Equal(t, region.EU868, req.RegionCommonName)
	assert.InDelta(t, -7.5, req.RequiredSNRForDR, 0.001)
	assert.Equal(t, uint8(0), req.MinDR)
	assert.Equal(t, uint8(11), req.MaxDR)
	assert.Equal(t, uint8(7), req.MaxTxPowerIndex)

	req = Request{DR: 15}
	assert.ErrorIs(t, req.ApplyRegion(reg), region.ErrUnknownDataRate)
}
