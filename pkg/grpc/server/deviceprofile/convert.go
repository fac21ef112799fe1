package deviceprofile

import (
	"fmt"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	"github.com/mpapenbr/lorawan-service-manager/pkg/codec"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
)

var measurementKinds = map[lsmv1.MeasurementKind]bool{
	lsmv1.MeasurementUnknown:  true,
	lsmv1.MeasurementCounter:  true,
	lsmv1.MeasurementAbsolute: true,
	lsmv1.MeasurementGauge:    true,
	lsmv1.MeasurementString:   true,
}

func ToAPI(p *model.DeviceProfile) *lsmv1.DeviceProfile {
	m := make(map[string]*lsmv1.Measurement, len(p.Measurements))
	for k, v := range p.Measurements {
		m[k] = &lsmv1.Measurement{Name: v.Name, Kind: lsmv1.MeasurementKind(v.Kind)}
	}
	return &lsmv1.DeviceProfile{
		ID:                     p.ID.String(),
		TenantID:               p.TenantExternalID.String(),
		Name:                   p.Name,
		Description:            p.Description,
		Region:                 p.Region,
		MacVersion:             p.MacVersion.Constant(),
		RegParamsRevision:      p.RegParamsRevision.String(),
		AdrAlgorithmID:         p.AdrAlgorithmID,
		PayloadCodecRuntime:    p.PayloadCodecRuntime.String(),
		PayloadCodecScript:     p.PayloadCodecScript,
		CodecPluginID:          p.CodecPluginID,
		UplinkInterval:         p.UplinkIntervalSecs,
		Measurements:           m,
		AutoDetectMeasurements: p.AutoDetectMeasurements,
		Tags:                   p.Tags,
		CreatedAt:              p.CreatedAt,
		UpdatedAt:              p.UpdatedAt,
	}
}

// fromAPI converts the message fields. ID and tenant are set by the caller.
func fromAPI(in *lsmv1.DeviceProfile) (*model.DeviceProfile, error) {
	macVersion, err := lrwn.ParseMacVersion(in.MacVersion)
	if err != nil {
		return nil, err
	}
	regParams, err := lrwn.ParseRegParamsRevision(in.RegParamsRevision)
	if err != nil {
		return nil, err
	}
	codecRuntime, err := codec.ParseCodec(in.PayloadCodecRuntime)
	if err != nil {
		return nil, err
	}
	m := make(map[string]model.Measurement, len(in.Measurements))
	for k, v := range in.Measurements {
		kind := lsmv1.MeasurementUnknown
		name := ""
		if v != nil {
			name = v.Name
			if v.Kind != "" {
				kind = v.Kind
			}
		}
		if !measurementKinds[kind] {
			return nil, fmt.Errorf("invalid measurement kind %q for %s", kind, k)
		}
		key, err := codec.NormalizeMeasurementKey(k)
		if err != nil {
			return nil, err
		}
		m[key] = model.Measurement{Name: name, Kind: string(kind)}
	}
	tags := in.Tags
	if tags == nil {
		tags = map[string]string{}
	}
	return &model.DeviceProfile{
		Name:                   in.Name,
		Description:            in.Description,
		Region:                 in.Region,
		MacVersion:             macVersion,
		RegParamsRevision:      regParams,
		AdrAlgorithmID:         in.AdrAlgorithmID,
		PayloadCodecRuntime:    codecRuntime,
		PayloadCodecScript:     in.PayloadCodecScript,
		CodecPluginID:          in.CodecPluginID,
		UplinkIntervalSecs:     in.UplinkInterval,
		Measurements:           m,
		AutoDetectMeasurements: in.AutoDetectMeasurements,
		Tags:                   tags,
	}, nil
}
