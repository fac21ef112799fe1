package adr

import (
	"context"

	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
)

const HistorySize = 20

type (
	// UplinkMetaData is one entry of the uplink history used by the algorithms.
	UplinkMetaData struct {
		FCnt         uint32  `json:"fCnt"`
		MaxSNR       float64 `json:"maxSnr"`
		MaxRSSI      int32   `json:"maxRssi"`
		TxPowerIndex uint8   `json:"txPowerIndex"`
		GatewayCount uint32  `json:"gatewayCount"`
	}

	Request struct {
		RegionConfigID     string                 `json:"regionConfigId"`
		RegionCommonName   region.CommonName      `json:"regionCommonName"`
		DevEUI             lrwn.EUI64             `json:"devEui"`
		MacVersion         lrwn.MacVersion        `json:"macVersion"`
		RegParamsRevision  lrwn.RegParamsRevision `json:"regParamsRevision"`
		ADR                bool                   `json:"adr"`
		DR                 uint8                  `json:"dr"`
		TxPowerIndex       uint8                  `json:"txPowerIndex"`
		NbTrans            uint8                  `json:"nbTrans"`
		MaxTxPowerIndex    uint8                  `json:"maxTxPowerIndex"`
		RequiredSNRForDR   float64                `json:"requiredSnrForDr"`
		InstallationMargin float64                `json:"installationMargin"`
		MinDR              uint8                  `json:"minDr"`
		MaxDR              uint8                  `json:"maxDr"`
		UplinkHistory      []UplinkMetaData       `json:"uplinkHistory"`
		SkipFCntCheck      bool                   `json:"skipFCntCheck"`
		DeviceVariables    map[string]string      `json:"deviceVariables"`
	}

	Response struct {
		DR           uint8 `json:"dr"`
		TxPowerIndex uint8 `json:"txPowerIndex"`
		NbTrans      uint8 `json:"nbTrans"`
	}

	Handler interface {
		ID() string
		Name() string
		Handle(ctx context.Context, req *Request) (*Response, error)
	}
)

// Current returns the response keeping the device's present settings.
func (r *Request) Current() *Response {
	return &Response{DR: r.DR, TxPowerIndex: r.TxPowerIndex, NbTrans: r.NbTrans}
}

// AppendHistory adds m to h keeping at most HistorySize entries.
func AppendHistory(h []UplinkMetaData, m UplinkMetaData) []UplinkMetaData {
	h = append(h, m)
	if len(h) > HistorySize {
		h = h[len(h)-HistorySize:]
	}
	return h
}

// ApplyRegion sets the region dependent fields of r. The data-rate must be set
// before as it selects the required SNR.
func (r *Request) ApplyRegion(reg *region.Region) error {
	snr, err := reg.RequiredSNRForDR(r.DR)
	if err != nil {
		return err
	}
	r.RegionConfigID = reg.ID
	r.RegionCommonName = reg.CommonName()
	r.RequiredSNRForDR = snr
	r.InstallationMargin = reg.InstallationMargin
	r.MinDR = reg.MinDR
	r.MaxDR = reg.MaxDR
	r.MaxTxPowerIndex = reg.GetMaxTxPowerIndex()
	return nil
}
