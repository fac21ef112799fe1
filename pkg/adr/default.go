package adr

import (
	"context"
	"fmt"

	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
)

var lossTable = [4][3]uint8{{1, 1, 2}, {1, 2, 3}, {2, 3, 3}, {3, 3, 3}}

// Default is the LoRa (125kHz) only algorithm.
type Default struct {
	regions *region.Registry
}

func NewDefault(regions *region.Registry) *Default {
	return &Default{regions: regions}
}

func (a *Default) ID() string   { return "default" }
func (a *Default) Name() string { return "Default ADR algorithm (LoRa only)" }

func (a *Default) Handle(ctx context.Context, req *Request) (*Response, error) {
	resp := req.Current()
	if !req.ADR {
		return resp, nil
	}
	reg, err := a.regions.Get(req.RegionConfigID)
	if err != nil {
		return nil, fmt.Errorf("get region config: %w", err)
	}
	maxDR := min(req.MaxDR, maxLoRa125DR(reg))
	if req.DR > maxDR {
		resp.DR = maxDR
	}

	resp.NbTrans = nbTrans(req.NbTrans, packetLossPercentage(req.UplinkHistory))

	margin := maxSNR(req.UplinkHistory) - req.RequiredSNRForDR - req.InstallationMargin
	nStep := int(margin / 3)

	// negative steps raise the tx power, only do so on a full history
	if nStep < 0 && historyCount(req) != HistorySize {
		return resp, nil
	}
	resp.TxPowerIndex, resp.DR = idealTxPowerIndexAndDR(
		nStep, resp.TxPowerIndex, resp.DR, req.MaxTxPowerIndex, maxDR)
	return resp, nil
}

func maxLoRa125DR(reg *region.Region) uint8 {
	var ret uint8
	for _, dr := range reg.GetEnabledUplinkDataRates() {
		d, err := reg.GetDataRate(dr)
		if err != nil {
			continue
		}
		if d.Modulation == region.LoRa && d.Bandwidth == 125000 && dr > ret {
			ret = dr
		}
	}
	return ret
}

//nolint:whitespace // can't make both editor and linter happy
func idealTxPowerIndexAndDR(
	nStep int,
	txPowerIndex, dr, maxTxPowerIndex, maxDR uint8,
) (newTxPowerIndex, newDR uint8) {
	for ; nStep > 0; nStep-- {
		if dr < maxDR {
			dr++
		} else if txPowerIndex < maxTxPowerIndex {
			// a higher index means less tx power
			txPowerIndex++
		}
	}
	for ; nStep < 0; nStep++ {
		if txPowerIndex > 0 {
			txPowerIndex--
		}
	}
	return txPowerIndex, dr
}

func historyCount(req *Request) int {
	count := 0
	for i := range req.UplinkHistory {
		if req.UplinkHistory[i].TxPowerIndex == req.TxPowerIndex {
			count++
		}
	}
	return count
}

func maxSNR(h []UplinkMetaData) float64 {
	ret := -999.0
	for i := range h {
		ret = max(ret, h[i].MaxSNR)
	}
	return ret
}

func nbTrans(current uint8, lossRate float64) uint8 {
	col := min(max(current, 1), 3) - 1
	switch {
	case lossRate < 5:
		return lossTable[0][col]
	case lossRate < 10:
		return lossTable[1][col]
	case lossRate < 30:
		return lossTable[2][col]
	default:
		return lossTable[3][col]
	}
}

func packetLossPercentage(h []UplinkMetaData) float64 {
	if len(h) < HistorySize {
		return 0
	}
	var lost int64
	for i := 1; i < len(h); i++ {
		if d := int64(h[i].FCnt) - int64(h[i-1].FCnt) - 1; d > 0 {
			lost += d
		}
	}
	return float64(lost) / float64(len(h)) * 100
}
