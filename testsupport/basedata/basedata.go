// Package basedata provides sample entities for tests.
package basedata

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	"github.com/mpapenbr/lorawan-service-manager/pkg/codec"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils"
)

const (
	SampleAPIKey = "testapikey"
	SampleDevEUI = "0102030405060708"
)

func TestTime() time.Time {
	t, _ := time.Parse(time.RFC3339, "2024-04-28T11:10:12Z")
	return t
}

func SampleTenant() *model.Tenant {
	return &model.Tenant{
		Name:           "testtenant",
		APIKey:         utils.HashAPIKey(SampleAPIKey),
		Active:         true,
		MaxDeviceCount: 0,
	}
}

func SampleDeviceProfile(tenantID uint32) *model.DeviceProfile {
	return &model.DeviceProfile{
		TenantID:            tenantID,
		Name:                "testprofile",
		Description:         "sample profile",
		Region:              "eu868",
		MacVersion:          lrwn.LoRaWAN1_0_3,
		RegParamsRevision:   lrwn.RegParamsA,
		AdrAlgorithmID:      "default",
		PayloadCodecRuntime: codec.CayenneLPP,
		UplinkIntervalSecs:  3600,
		Measurements: map[string]model.Measurement{
			"temperatureSensor.3": {Name: "temperature", Kind: "GAUGE"},
		},
		Tags: map[string]string{"site": "lab"},
	}
}

func SampleDevice(tenantID uint32, profileID uuid.UUID) *model.Device {
	devEUI, _ := lrwn.ParseEUI64(SampleDevEUI)
	return &model.Device{
		DevEUI:          devEUI,
		TenantID:        tenantID,
		DeviceProfileID: profileID,
		Name:            "testdevice",
		Enabled:         true,
		Variables:       map[string]string{"offset": "2"},
		Tags:            map[string]string{"room": "1"},
		State: model.DeviceState{
			NbTrans:    1,
			AdrHistory: []adr.UplinkMetaData{},
		},
	}
}
