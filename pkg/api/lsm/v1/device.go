package lsmv1

import "time"

type Device struct {
	DevEUI          string            `json:"devEui"`
	TenantID        string            `json:"tenantId"`
	DeviceProfileID string            `json:"deviceProfileId"`
	Name            string            `json:"name"`
	Description     string            `json:"description,omitempty"`
	IsDisabled      bool              `json:"isDisabled"`
	SkipFCntCheck   bool              `json:"skipFCntCheck"`
	Variables       map[string]string `json:"variables,omitempty"`
	Tags            map[string]string `json:"tags,omitempty"`
	CreatedAt       time.Time         `json:"createdAt"`
	UpdatedAt       time.Time         `json:"updatedAt"`
	LastSeenAt      *time.Time        `json:"lastSeenAt,omitempty"`
}

type UplinkAdrHistory struct {
	FCnt         uint32  `json:"fCnt"`
	MaxSnr       float64 `json:"maxSnr"`
	MaxRssi      int32   `json:"maxRssi"`
	TxPowerIndex uint32  `json:"txPowerIndex"`
	GatewayCount uint32  `json:"gatewayCount"`
}

// DeviceState is the network state maintained by uplink processing.
type DeviceState struct {
	DR            uint32              `json:"dr"`
	TxPowerIndex  uint32              `json:"txPowerIndex"`
	NbTrans       uint32              `json:"nbTrans"`
	FCntUp        uint32              `json:"fCntUp"`
	UplinkHistory []*UplinkAdrHistory `json:"uplinkHistory"`
	LastSeenAt    *time.Time          `json:"lastSeenAt,omitempty"`
}

type CreateDeviceRequest struct {
	Device *Device `json:"device"`
}

type CreateDeviceResponse struct{}

type GetDeviceRequest struct {
	DevEUI string `json:"devEui"`
}

type GetDeviceResponse struct {
	Device *Device `json:"device"`
}

type ListDevicesRequest struct {
	TenantID string `json:"tenantId"`
	Paging
}

type ListDevicesResponse struct {
	TotalCount uint32    `json:"totalCount"`
	Result     []*Device `json:"result"`
}

type UpdateDeviceRequest struct {
	Device *Device `json:"device"`
}

type UpdateDeviceResponse struct{}

type DeleteDeviceRequest struct {
	DevEUI string `json:"devEui"`
}

type DeleteDeviceResponse struct{}

type GetDeviceStateRequest struct {
	DevEUI string `json:"devEui"`
}

type GetDeviceStateResponse struct {
	State *DeviceState `json:"state"`
}

type StreamEventsRequest struct {
	DevEUI string `json:"devEui"`
}

type StreamEventsResponse struct {
	Event *UplinkEvent `json:"event"`
}
