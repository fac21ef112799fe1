package processing

import (
	"github.com/chirpstack/chirpstack/api/go/v4/gw"
	csintegration "github.com/chirpstack/chirpstack/api/go/v4/integration"
	"github.com/samber/lo"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/mpapenbr/lorawan-service-manager/log"
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
)

// device tags override profile tags with the same key
func mergedTags(dc *model.DeviceContext) map[string]string {
	return lo.Assign(dc.DeviceProfile.Tags, dc.Device.Tags)
}

//nolint:whitespace // can't make both editor and linter happy
func toIntegrationEvent(
	res *Result,
	dc *model.DeviceContext,
	up *Uplink,
) *csintegration.UplinkEvent {
	ret := &csintegration.UplinkEvent{
		DeduplicationId: res.DeduplicationID,
		Time:            timestamppb.New(up.RecvTime),
		DeviceInfo: &csintegration.DeviceInfo{
			TenantId:          dc.Tenant.ExternalID.String(),
			TenantName:        dc.Tenant.Name,
			DeviceProfileId:   dc.DeviceProfile.ID.String(),
			DeviceProfileName: dc.DeviceProfile.Name,
			DeviceName:        dc.Device.Name,
			DevEui:            dc.Device.DevEUI.String(),
			Tags:              mergedTags(dc),
		},
		DevAddr:   up.DevAddr,
		Adr:       true,
		Dr:        uint32(up.DR),
		FCnt:      up.FCnt,
		FPort:     uint32(up.FPort),
		Confirmed: up.Confirmed,
		Data:      up.Data,
		RxInfo: lo.Map(up.RxInfo, func(rx RxInfo, _ int) *gw.UplinkRxInfo {
			return &gw.UplinkRxInfo{
				GatewayId: rx.GatewayID,
				Rssi:      rx.Rssi,
				Snr:       float32(rx.Snr),
			}
		}),
	}
	if res.Object != nil {
		obj, err := structpb.NewStruct(res.Object)
		if err != nil {
			log.Warn("could not convert decoded object", log.ErrorField(err))
		} else {
			ret.Object = obj
		}
	}
	return ret
}

func toAPIEvent(res *Result, dc *model.DeviceContext, up *Uplink) *lsmv1.UplinkEvent {
	return &lsmv1.UplinkEvent{
		DeduplicationID: res.DeduplicationID,
		Time:            up.RecvTime,
		TenantID:        dc.Tenant.ExternalID.String(),
		DeviceProfileID: dc.DeviceProfile.ID.String(),
		DevEUI:          dc.Device.DevEUI.String(),
		DeviceName:      dc.Device.Name,
		FCnt:            up.FCnt,
		FPort:           uint32(up.FPort),
		DR:              uint32(up.DR),
		Confirmed:       up.Confirmed,
		Data:            up.Data,
		Object:          res.Object,
		Measurements:    res.Measurements,
		RxInfo: lo.Map(up.RxInfo, func(rx RxInfo, _ int) *lsmv1.UplinkRxInfo {
			return &lsmv1.UplinkRxInfo{GatewayID: rx.GatewayID, Rssi: rx.Rssi, Snr: rx.Snr}
		}),
		Adr: &lsmv1.AdrResult{
			DR:           uint32(res.Adr.DR),
			TxPowerIndex: uint32(res.Adr.TxPowerIndex),
			NbTrans:      uint32(res.Adr.NbTrans),
		},
		Tags: mergedTags(dc),
	}
}
