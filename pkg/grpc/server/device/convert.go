package device

import (
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
)

func ToAPI(d *model.Device) *lsmv1.Device {
	return &lsmv1.Device{
		DevEUI:          d.DevEUI.String(),
		TenantID:        d.TenantExternalID.String(),
		DeviceProfileID: d.DeviceProfileID.String(),
		Name:            d.Name,
		Description:     d.Description,
		IsDisabled:      !d.Enabled,
		SkipFCntCheck:   d.SkipFCntCheck,
		Variables:       d.Variables,
		Tags:            d.Tags,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
		LastSeenAt:      d.LastSeenAt,
	}
}

func StateToAPI(d *model.Device) *lsmv1.DeviceState {
	h := make([]*lsmv1.UplinkAdrHistory, len(d.State.AdrHistory))
	for i, e := range d.State.AdrHistory {
		h[i] = &lsmv1.UplinkAdrHistory{
			FCnt:         e.FCnt,
			MaxSnr:       e.MaxSNR,
			MaxRssi:      e.MaxRSSI,
			TxPowerIndex: uint32(e.TxPowerIndex),
			GatewayCount: e.GatewayCount,
		}
	}
	return &lsmv1.DeviceState{
		DR:            uint32(d.State.DR),
		TxPowerIndex:  uint32(d.State.TxPowerIndex),
		NbTrans:       uint32(d.State.NbTrans),
		FCntUp:        d.State.FCntUp,
		UplinkHistory: h,
		LastSeenAt:    d.LastSeenAt,
	}
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
