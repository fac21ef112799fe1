package model

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
)

type Device struct {
	DevEUI           lrwn.EUI64
	TenantID         uint32
	TenantExternalID uuid.UUID
	DeviceProfileID  uuid.UUID
	Name             string
	Description      string
	Enabled          bool
	SkipFCntCheck    bool
	Variables        map[string]string
	Tags             map[string]string
	State            DeviceState
	LastSeenAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DeviceState is the part of a device maintained by uplink processing.
type DeviceState struct {
	DR           uint8
	TxPowerIndex uint8
	NbTrans      uint8
	FCntUp       uint32
	AdrHistory   []adr.UplinkMetaData
}

// DeviceContext bundles what uplink processing needs about a device.
type DeviceContext struct {
	Device        *Device
	DeviceProfile *DeviceProfile
	Tenant        *Tenant
}
