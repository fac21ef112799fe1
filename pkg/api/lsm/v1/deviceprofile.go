package lsmv1

import "time"

type MeasurementKind string

const (
	MeasurementUnknown  MeasurementKind = "UNKNOWN"
	MeasurementCounter  MeasurementKind = "COUNTER"
	MeasurementAbsolute MeasurementKind = "ABSOLUTE"
	MeasurementGauge    MeasurementKind = "GAUGE"
	MeasurementString   MeasurementKind = "STRING"
)

type Measurement struct {
	Name string          `json:"name"`
	Kind MeasurementKind `json:"kind"`
}

// DeviceProfile groups the radio and payload settings shared by devices.
// MacVersion uses the LORAWAN_1_0_3 notation, RegParamsRevision the
// A, B, RP002_1_0_0 notation and PayloadCodecRuntime NONE, CAYENNE_LPP or JS.
// Measurements are keyed by the path into the decoded object; keys are
// returned in normalized form ("a.b", "list[0]", "['battery level']").
// With AutoDetectMeasurements set, unknown keys of decoded uplinks are added
// with kind UNKNOWN.
type DeviceProfile struct {
	ID                     string                  `json:"id"`
	TenantID               string                  `json:"tenantId"`
	Name                   string                  `json:"name"`
	Description            string                  `json:"description,omitempty"`
	Region                 string                  `json:"region"`
	MacVersion             string                  `json:"macVersion"`
	RegParamsRevision      string                  `json:"regParamsRevision"`
	AdrAlgorithmID         string                  `json:"adrAlgorithmId"`
	PayloadCodecRuntime    string                  `json:"payloadCodecRuntime"`
	PayloadCodecScript     string                  `json:"payloadCodecScript,omitempty"`
	CodecPluginID          string                  `json:"codecPluginId,omitempty"`
	UplinkInterval         uint32                  `json:"uplinkInterval"`
	Measurements           map[string]*Measurement `json:"measurements,omitempty"`
	AutoDetectMeasurements bool                    `json:"autoDetectMeasurements,omitempty"`
	Tags                   map[string]string       `json:"tags,omitempty"`
	CreatedAt              time.Time               `json:"createdAt"`
	UpdatedAt              time.Time               `json:"updatedAt"`
}

type CreateDeviceProfileRequest struct {
	DeviceProfile *DeviceProfile `json:"deviceProfile"`
}

type CreateDeviceProfileResponse struct {
	ID string `json:"id"`
}

type GetDeviceProfileRequest struct {
	ID string `json:"id"`
}

type GetDeviceProfileResponse struct {
	DeviceProfile *DeviceProfile `json:"deviceProfile"`
}

type ListDeviceProfilesRequest struct {
	TenantID string `json:"tenantId"`
	Paging
}

type ListDeviceProfilesResponse struct {
	TotalCount uint32           `json:"totalCount"`
	Result     []*DeviceProfile `json:"result"`
}

type UpdateDeviceProfileRequest struct {
	DeviceProfile *DeviceProfile `json:"deviceProfile"`
}

type UpdateDeviceProfileResponse struct{}

type DeleteDeviceProfileRequest struct {
	ID string `json:"id"`
}

type DeleteDeviceProfileResponse struct{}
