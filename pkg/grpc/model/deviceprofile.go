package model

import (
	"slices"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/lorawan-service-manager/pkg/codec"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
)

type Measurement struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

type DeviceProfile struct {
	ID                     uuid.UUID
	TenantID               uint32
	TenantExternalID       uuid.UUID
	Name                   string
	Description            string
	Region                 string
	MacVersion             lrwn.MacVersion
	RegParamsRevision      lrwn.RegParamsRevision
	AdrAlgorithmID         string
	PayloadCodecRuntime    codec.Codec
	PayloadCodecScript     string
	CodecPluginID          string
	UplinkIntervalSecs     uint32
	Measurements           map[string]Measurement // keyed by normalized path
	AutoDetectMeasurements bool                   // add unknown keys of decoded payloads
	Tags                   map[string]string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// Measure returns the values of the known measurements found in obj and the
// sorted keys of obj which are not yet known to the profile.
func (p *DeviceProfile) Measure(obj map[string]any) (values map[string]any, unknown []string) {
	values = map[string]any{}
	for k, v := range codec.Flatten(obj) {
		m, ok := p.Measurements[k]
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		if val, ok := codec.MeasurementValue(m.Kind, v); ok {
			values[k] = val
		}
	}
	slices.Sort(unknown)
	return values, unknown
}
