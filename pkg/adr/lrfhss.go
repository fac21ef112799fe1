package adr

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
)

const lowRSSI = -130

type LrFhss struct {
	regions *region.Registry
	pick    func(n int) int
}

func NewLrFhss(regions *region.Registry) *LrFhss {
	return &LrFhss{regions: regions, pick: rand.IntN}
}

func (a *LrFhss) ID() string   { return "lr_fhss" }
func (a *LrFhss) Name() string { return "LR-FHSS only ADR algorithm" }

//nolint:cyclop // steps follow the algorithm
func (a *LrFhss) Handle(ctx context.Context, req *Request) (*Response, error) {
	resp := req.Current()
	if !req.ADR {
		return resp, nil
	}
	reg, err := a.regions.Get(req.RegionConfigID)
	if err != nil {
		return nil, fmt.Errorf("get region config: %w", err)
	}
	current, err := reg.GetDataRate(req.DR)
	if err != nil {
		return nil, fmt.Errorf("get data-rate: %w", err)
	}
	// the occupied channel width does not change the speed
	if current.Modulation == region.LrFhss && current.CodingRate == "4/6" {
		return resp, nil
	}
	medRSSI := medianRSSI(req.UplinkHistory)
	if current.Modulation == region.LrFhss && medRSSI < lowRSSI && current.CodingRate == "2/6" {
		return resp, nil
	}

	enabled := []uint8{}
	for _, dr := range reg.GetEnabledUplinkDataRates() {
		if d, err := reg.GetDataRate(dr); err == nil &&
			d.Modulation == region.LrFhss && dr <= req.MaxDR {
			enabled = append(enabled, dr)
		}
	}
	if len(enabled) == 0 {
		return resp, nil
	}
	withCodingRate := func(cr string) []uint8 {
		return slices.DeleteFunc(slices.Clone(enabled), func(dr uint8) bool {
			d, _ := reg.GetDataRate(dr)
			return d.CodingRate != cr
		})
	}

	var candidates []uint8
	// 4/6 needs a median computed on a full history
	if medRSSI >= lowRSSI && len(req.UplinkHistory) == HistorySize {
		candidates = withCodingRate("4/6")
	}
	if len(candidates) == 0 {
		candidates = withCodingRate("2/6")
	}
	if len(candidates) == 0 {
		return resp, nil
	}
	resp.DR = candidates[a.pick(len(candidates))]
	resp.NbTrans = 1
	resp.TxPowerIndex = 0
	return resp, nil
}

func medianRSSI(h []UplinkMetaData) int32 {
	if len(h) == 0 {
		return 0
	}
	rssi := make([]int32, len(h))
	for i := range h {
		rssi[i] = h[i].MaxRSSI
	}
	slices.Sort(rssi)
	m := len(rssi) / 2
	if len(rssi)%2 != 0 {
		return rssi[m]
	}
	return (rssi[m-1] + rssi[m]) / 2
}
