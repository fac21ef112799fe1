// Package processing handles uplinks of registered devices.
package processing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	"github.com/mpapenbr/lorawan-service-manager/pkg/codec"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
	"github.com/mpapenbr/lorawan-service-manager/pkg/integration"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/broadcast"
)

var (
	ErrDeviceDisabled = errors.New("device is disabled")
	ErrRateLimited    = errors.New("uplink rate limit exceeded")
	ErrFCntNotNewer   = errors.New("frame-counter did not increase")
)

type (
	RxInfo struct {
		GatewayID string
		Rssi      int32
		Snr       float64
	}
	// Uplink is an already decrypted uplink frame.
	Uplink struct {
		DevEUI    lrwn.EUI64
		DevAddr   string
		FCnt      uint32
		FPort     uint8
		DR        uint8
		Confirmed bool
		Data      []byte
		RxInfo    []RxInfo
		RecvTime  time.Time
	}
	Result struct {
		DeduplicationID string
		Adr             *adr.Response
		Object          map[string]any
		Measurements    map[string]any
		CodecError      error
	}
)

type Processor struct {
	repos        api.Repositories
	tx           api.TransactionManager
	regions      *region.Registry
	adr          *adr.Registry
	codecs       *codec.Service
	integrations integration.Integration
	events       broadcast.BroadcastServer[*lsmv1.UplinkEvent]
	limiter      *utils.LimiterLookup[lrwn.EUI64]
	tracer       trace.Tracer
	processed    metric.Int64Counter
	l            *log.Logger
}

type ProcessorOption func(proc *Processor)

func WithRepositories(repos api.Repositories, tx api.TransactionManager) ProcessorOption {
	return func(proc *Processor) {
		proc.repos = repos
		proc.tx = tx
	}
}

func WithRegions(arg *region.Registry) ProcessorOption {
	return func(proc *Processor) {
		proc.regions = arg
	}
}

func WithAdrRegistry(arg *adr.Registry) ProcessorOption {
	return func(proc *Processor) {
		proc.adr = arg
	}
}

func WithCodecService(arg *codec.Service) ProcessorOption {
	return func(proc *Processor) {
		proc.codecs = arg
	}
}

func WithIntegration(arg integration.Integration) ProcessorOption {
	return func(proc *Processor) {
		proc.integrations = arg
	}
}

func WithEventBroadcast(arg broadcast.BroadcastServer[*lsmv1.UplinkEvent]) ProcessorOption {
	return func(proc *Processor) {
		proc.events = arg
	}
}

// WithRateLimit limits the uplinks per device. The default is unlimited.
func WithRateLimit(limit rate.Limit, burst int) ProcessorOption {
	return func(proc *Processor) {
		proc.limiter = utils.NewLimiterLookup[lrwn.EUI64](limit, burst)
	}
}

func NewProcessor(opts ...ProcessorOption) *Processor {
	ret := &Processor{
		integrations: integration.NewMulti(),
		limiter:      utils.NewLimiterLookup[lrwn.EUI64](rate.Inf, 0),
		tracer:       otel.Tracer("lsm.uplink"),
		l:            log.Default().Named("uplink"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	var err error
	if ret.processed, err = otel.GetMeterProvider().Meter("lsm.uplink").Int64Counter(
		"lsm.uplink.processed",
		metric.WithDescription("number of processed uplinks"),
	); err != nil {
		ret.l.Warn("could not create counter", log.ErrorField(err))
	}
	return ret
}

// Process runs the uplink pipeline. The device state is persisted before the
// payload is decoded and forwarded, so integrations only see accepted uplinks.
func (p *Processor) Process(ctx context.Context, up *Uplink) (*Result, error) {
	ctx, span := p.tracer.Start(ctx, "uplink.process",
		trace.WithAttributes(attribute.String("devEui", up.DevEUI.String())))
	defer span.End()
	l := log.GetFromContext(ctx).Named("uplink").With(
		log.String("devEui", up.DevEUI.String()),
		log.Uint32("fCnt", up.FCnt))

	if up.RecvTime.IsZero() {
		up.RecvTime = time.Now()
	}
	var (
		dc  *model.DeviceContext
		res *adr.Response
	)
	err := p.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if dc, err = p.loadDeviceContext(ctx, up.DevEUI); err != nil {
			return err
		}
		if res, err = p.updateState(ctx, dc, up); err != nil {
			return err
		}
		return p.repos.Device().UpdateState(ctx, up.DevEUI, &dc.Device.State, up.RecvTime)
	})
	if err != nil {
		p.record(ctx, "rejected")
		span.SetStatus(codes.Error, err.Error())
		l.Debug("uplink rejected", log.ErrorField(err))
		return nil, err
	}

	ret := &Result{DeduplicationID: uuid.NewString(), Adr: res}
	ret.Object, ret.CodecError = p.decode(ctx, dc.DeviceProfile, dc.Device, up)
	if ret.CodecError != nil {
		l.Info("could not decode payload", log.ErrorField(ret.CodecError))
		span.AddEvent("decode failed")
	} else if ret.Object != nil {
		ret.Measurements = p.measure(ctx, dc.DeviceProfile, ret.Object)
	}

	ev := toIntegrationEvent(ret, dc, up)
	if err := p.integrations.HandleUplinkEvent(ctx, ev); err != nil {
		l.Warn("could not forward uplink", log.ErrorField(err))
	}
	if p.events != nil && !p.events.Publish(toAPIEvent(ret, dc, up)) {
		l.Debug("uplink event not broadcast")
	}
	p.record(ctx, "ok")
	l.Debug("uplink processed",
		log.Any("adr", res),
		log.String("deduplicationId", ret.DeduplicationID))
	return ret, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (p *Processor) loadDeviceContext(
	ctx context.Context,
	devEUI lrwn.EUI64,
) (*model.DeviceContext, error) {
	d, err := p.repos.Device().LoadByDevEUIForUpdate(ctx, devEUI)
	if err != nil {
		return nil, err
	}
	if !d.Enabled {
		return nil, fmt.Errorf("%w: %s", ErrDeviceDisabled, devEUI)
	}
	dp, err := p.repos.DeviceProfile().LoadByID(ctx, d.DeviceProfileID)
	if err != nil {
		return nil, err
	}
	t, err := p.repos.Tenant().LoadByID(ctx, d.TenantID)
	if err != nil {
		return nil, err
	}
	return &model.DeviceContext{Device: d, DeviceProfile: dp, Tenant: t}, nil
}

// updateState applies the uplink to the device state and runs ADR.
//
//nolint:whitespace // can't make both editor and linter happy
func (p *Processor) updateState(
	ctx context.Context,
	dc *model.DeviceContext,
	up *Uplink,
) (*adr.Response, error) {
	d := dc.Device
	if !p.limiter.Allow(d.DevEUI) {
		return nil, ErrRateLimited
	}
	if !d.SkipFCntCheck && d.LastSeenAt != nil && up.FCnt <= d.State.FCntUp {
		return nil, fmt.Errorf("%w: got %d, last %d", ErrFCntNotNewer, up.FCnt, d.State.FCntUp)
	}

	reg, err := p.regions.Get(dc.DeviceProfile.Region)
	if err != nil {
		return nil, err
	}
	d.State.AdrHistory = adr.AppendHistory(d.State.AdrHistory, uplinkMetaData(up,
		d.State.TxPowerIndex))
	req := &adr.Request{
		DevEUI:            d.DevEUI,
		MacVersion:        dc.DeviceProfile.MacVersion,
		RegParamsRevision: dc.DeviceProfile.RegParamsRevision,
		ADR:               true,
		DR:                up.DR,
		TxPowerIndex:      d.State.TxPowerIndex,
		NbTrans:           max(d.State.NbTrans, 1),
		UplinkHistory:     d.State.AdrHistory,
		SkipFCntCheck:     d.SkipFCntCheck,
		DeviceVariables:   d.Variables,
	}
	if err := req.ApplyRegion(reg); err != nil {
		return nil, err
	}
	res := p.adr.Handle(ctx, dc.DeviceProfile.AdrAlgorithmID, req)

	d.State.DR = res.DR
	d.State.TxPowerIndex = res.TxPowerIndex
	d.State.NbTrans = res.NbTrans
	d.State.FCntUp = up.FCnt
	return res, nil
}

//nolint:whitespace // can't make both editor and linter happy
func (p *Processor) decode(
	ctx context.Context,
	dp *model.DeviceProfile,
	d *model.Device,
	up *Uplink,
) (map[string]any, error) {
	// fPort 0 carries MAC commands only
	if up.FPort == 0 || len(up.Data) == 0 {
		return nil, nil
	}
	return p.codecs.Decode(ctx, codec.Settings{
		Codec:    dp.PayloadCodecRuntime,
		Script:   dp.PayloadCodecScript,
		PluginID: dp.CodecPluginID,
	}, up.RecvTime, up.FPort, d.Variables, up.Data)
}

// measure returns the known measurements of obj. With auto detection
// enabled unknown keys are added to the profile as UNKNOWN measurements.
//
//nolint:whitespace // can't make both editor and linter happy
func (p *Processor) measure(
	ctx context.Context,
	dp *model.DeviceProfile,
	obj map[string]any,
) map[string]any {
	values, unknown := dp.Measure(obj)
	if !dp.AutoDetectMeasurements || len(unknown) == 0 {
		return values
	}
	m := make(map[string]model.Measurement, len(unknown))
	for _, k := range unknown {
		m[k] = model.Measurement{Kind: codec.KindUnknown}
	}
	if err := p.repos.DeviceProfile().AddMeasurements(ctx, dp.ID, m); err != nil {
		log.GetFromContext(ctx).Warn("could not store detected measurements",
			log.String("deviceProfileId", dp.ID.String()),
			log.ErrorField(err))
	} else {
		log.GetFromContext(ctx).Debug("detected measurements",
			log.String("deviceProfileId", dp.ID.String()),
			log.Strings("keys", unknown))
	}
	return values
}

func (p *Processor) record(ctx context.Context, outcome string) {
	if p.processed == nil {
		return
	}
	p.processed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func uplinkMetaData(up *Uplink, txPowerIndex uint8) adr.UplinkMetaData {
	ret := adr.UplinkMetaData{
		FCnt:         up.FCnt,
		TxPowerIndex: txPowerIndex,
		GatewayCount: uint32(len(up.RxInfo)),
	}
	for i, rx := range up.RxInfo {
		if i == 0 || rx.Snr > ret.MaxSNR {
			ret.MaxSNR = rx.Snr
		}
		if i == 0 || rx.Rssi > ret.MaxRSSI {
			ret.MaxRSSI = rx.Rssi
		}
	}
	return ret
}
