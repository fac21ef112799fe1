package lsmv1

import "time"

type UplinkRxInfo struct {
	GatewayID string  `json:"gatewayId"`
	Rssi      int32   `json:"rssi"`
	Snr       float64 `json:"snr"`
}

// PublishUplinkRequest carries an already decrypted uplink frame.
type PublishUplinkRequest struct {
	DevEUI    string          `json:"devEui"`
	DevAddr   string          `json:"devAddr,omitempty"`
	FCnt      uint32          `json:"fCnt"`
	FPort     uint32          `json:"fPort"`
	DR        uint32          `json:"dr"`
	Confirmed bool            `json:"confirmed"`
	Data      []byte          `json:"data"`
	RxInfo    []*UplinkRxInfo `json:"rxInfo"`
	RecvTime  *time.Time      `json:"recvTime,omitempty"`
}

type PublishUplinkResponse struct {
	DeduplicationID string         `json:"deduplicationId"`
	Adr             *AdrResult     `json:"adr"`
	Object          map[string]any `json:"object,omitempty"`
	Measurements    map[string]any `json:"measurements,omitempty"`
	CodecError      string         `json:"codecError,omitempty"`
}

// UplinkEvent is the event sent to device event streams.
type UplinkEvent struct {
	DeduplicationID string            `json:"deduplicationId"`
	Time            time.Time         `json:"time"`
	TenantID        string            `json:"tenantId"`
	DeviceProfileID string            `json:"deviceProfileId"`
	DevEUI          string            `json:"devEui"`
	DeviceName      string            `json:"deviceName"`
	FCnt            uint32            `json:"fCnt"`
	FPort           uint32            `json:"fPort"`
	DR              uint32            `json:"dr"`
	Confirmed       bool              `json:"confirmed"`
	Data            []byte            `json:"data"`
	Object          map[string]any    `json:"object,omitempty"`
	Measurements    map[string]any    `json:"measurements,omitempty"`
	RxInfo          []*UplinkRxInfo   `json:"rxInfo,omitempty"`
	Adr             *AdrResult        `json:"adr,omitempty"`
	Tags            map[string]string `json:"tags,omitempty"`
}
