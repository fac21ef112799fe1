package device

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mpapenbr/lorawan-service-manager/log"
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	x "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1/lsmv1connect"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/permission"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/util"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/broadcast"
)

var (
	ErrDeviceRequired  = errors.New("device is required")
	ErrNameRequired    = errors.New("name is required")
	ErrTenantMismatch  = errors.New("device profile belongs to another tenant")
	ErrStreamNotActive = errors.New("event streaming is not available")
)

func NewServer(opts ...Option) *deviceServer {
	ret := &deviceServer{
		log: log.Default().Named("grpc.device"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

type Option func(*deviceServer)

func WithRepositories(repos api.Repositories) Option {
	return func(srv *deviceServer) {
		srv.repos = repos
	}
}

func WithPermissionEvaluator(pe permission.PermissionEvaluator) Option {
	return func(srv *deviceServer) {
		srv.pe = pe
	}
}

// WithTransactionManager is used to create devices. The tenant device limit
// is only enforced reliably inside a transaction.
func WithTransactionManager(tx api.TransactionManager) Option {
	return func(srv *deviceServer) {
		srv.tx = tx
	}
}

// WithEventBroadcast provides the uplink events for StreamEvents.
func WithEventBroadcast(arg broadcast.BroadcastServer[*lsmv1.UplinkEvent]) Option {
	return func(srv *deviceServer) {
		srv.events = arg
	}
}

type deviceServer struct {
	x.UnimplementedDeviceServiceHandler

	pe     permission.PermissionEvaluator
	log    *log.Logger
	repos  api.Repositories
	tx     api.TransactionManager
	events broadcast.BroadcastServer[*lsmv1.UplinkEvent]
}

var _ x.DeviceServiceHandler = (*deviceServer)(nil)

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceServer) checkPermission(
	ctx context.Context,
	perm permission.Permission,
	tenantID uint32,
) error {
	if !s.pe.HasTenantPermission(auth.FromContext(ctx), perm, tenantID) {
		return connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	return nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceServer) Create(
	ctx context.Context,
	req *connect.Request[lsmv1.CreateDeviceRequest],
) (*connect.Response[lsmv1.CreateDeviceResponse], error) {
	d, err := s.fromRequest(ctx, req.Msg.Device)
	if err != nil {
		return nil, err
	}
	if err = s.checkPermission(ctx, permission.PermissionCreateDevice, d.TenantID); err != nil {
		return nil, err
	}
	d.State = model.DeviceState{NbTrans: 1}
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		_, err := s.repos.Device().Create(ctx, d)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.Debug("Device created", log.String("devEui", d.DevEUI.String()))
	return connect.NewResponse(&lsmv1.CreateDeviceResponse{}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceServer) Get(
	ctx context.Context,
	req *connect.Request[lsmv1.GetDeviceRequest],
) (*connect.Response[lsmv1.GetDeviceResponse], error) {
	d, err := s.load(ctx, req.Msg.DevEUI, permission.PermissionReadDevice)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&lsmv1.GetDeviceResponse{Device: ToAPI(d)}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceServer) List(
	ctx context.Context,
	req *connect.Request[lsmv1.ListDevicesRequest],
) (*connect.Response[lsmv1.ListDevicesResponse], error) {
	t, err := util.ResolveTenant(ctx, s.repos.Tenant(),
		lsmv1.TenantByExternalID(req.Msg.TenantID))
	if err != nil {
		return nil, err
	}
	if err = s.checkPermission(ctx, permission.PermissionReadDevice, t.ID); err != nil {
		return nil, err
	}
	count, err := s.repos.Device().CountByTenant(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	data, err := s.repos.Device().LoadByTenant(ctx, t.ID, req.Msg.Limit, req.Msg.Offset)
	if err != nil {
		return nil, err
	}
	ret := make([]*lsmv1.Device, len(data))
	for i, d := range data {
		ret[i] = ToAPI(d)
	}
	return connect.NewResponse(&lsmv1.ListDevicesResponse{
		TotalCount: count,
		Result:     ret,
	}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceServer) Update(
	ctx context.Context,
	req *connect.Request[lsmv1.UpdateDeviceRequest],
) (*connect.Response[lsmv1.UpdateDeviceResponse], error) {
	if req.Msg.Device == nil {
		return nil, util.InvalidArgument(ErrDeviceRequired)
	}
	cur, err := s.load(ctx, req.Msg.Device.DevEUI, permission.PermissionUpdateDevice)
	if err != nil {
		return nil, err
	}
	d, err := s.fromRequest(ctx, req.Msg.Device)
	if err != nil {
		return nil, err
	}
	if d.TenantID != cur.TenantID {
		return nil, util.InvalidArgument(ErrTenantMismatch)
	}
	if _, err = s.repos.Device().Update(ctx, d); err != nil {
		return nil, err
	}
	return connect.NewResponse(&lsmv1.UpdateDeviceResponse{}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceServer) Delete(
	ctx context.Context,
	req *connect.Request[lsmv1.DeleteDeviceRequest],
) (*connect.Response[lsmv1.DeleteDeviceResponse], error) {
	d, err := s.load(ctx, req.Msg.DevEUI, permission.PermissionDeleteDevice)
	if err != nil {
		return nil, err
	}
	if _, err = s.repos.Device().DeleteByDevEUI(ctx, d.DevEUI); err != nil {
		return nil, err
	}
	return connect.NewResponse(&lsmv1.DeleteDeviceResponse{}), nil
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceServer) GetState(
	ctx context.Context,
	req *connect.Request[lsmv1.GetDeviceStateRequest],
) (*connect.Response[lsmv1.GetDeviceStateResponse], error) {
	d, err := s.load(ctx, req.Msg.DevEUI, permission.PermissionReadDevice)
	if err != nil {
		return nil, err
	}
	return connect.NewResponse(&lsmv1.GetDeviceStateResponse{State: StateToAPI(d)}), nil
}

// StreamEvents sends the uplink events of one device until the client
// disconnects or the server shuts down.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *deviceServer) StreamEvents(
	ctx context.Context,
	req *connect.Request[lsmv1.StreamEventsRequest],
	stream *connect.ServerStream[lsmv1.StreamEventsResponse],
) error {
	d, err := s.load(ctx, req.Msg.DevEUI, permission.PermissionReadDeviceEvents)
	if err != nil {
		return err
	}
	if s.events == nil {
		return connect.NewError(connect.CodeUnavailable, ErrStreamNotActive)
	}
	devEUI := d.DevEUI.String()
	l := s.log.With(log.String("devEui", devEUI))
	ch := s.events.Subscribe()
	defer s.events.CancelSubscription(ch)
	l.Debug("Subscribed to events")
	for {
		select {
		case <-ctx.Done():
			l.Debug("Client disconnected")
			return nil
		case ev, ok := <-ch:
			if !ok {
				l.Debug("Event source closed")
				return nil
			}
			if ev.DevEUI != devEUI {
				continue
			}
			if err := stream.Send(&lsmv1.StreamEventsResponse{Event: ev}); err != nil {
				l.Debug("Error sending event", log.ErrorField(err))
				return err
			}
		}
	}
}

//nolint:whitespace // can't make both editor and linter happy
func (s *deviceServer) load(
	ctx context.Context,
	devEUI string,
	perm permission.Permission,
) (*model.Device, error) {
	eui, err := util.ParseDevEUI(devEUI)
	if err != nil {
		return nil, err
	}
	// callers without any role must not learn which DevEUIs exist
	if !auth.HasAnyRole(auth.FromContext(ctx)) {
		return nil, connect.NewError(connect.CodePermissionDenied, auth.ErrPermissionDenied)
	}
	d, err := s.repos.Device().LoadByDevEUI(ctx, eui)
	if err != nil {
		return nil, err
	}
	if err := s.checkPermission(ctx, perm, d.TenantID); err != nil {
		return nil, err
	}
	return d, nil
}

// fromRequest converts in. The tenant is taken from the device profile.
//
//nolint:whitespace // can't make both editor and linter happy
func (s *deviceServer) fromRequest(
	ctx context.Context,
	in *lsmv1.Device,
) (*model.Device, error) {
	if in == nil {
		return nil, util.InvalidArgument(ErrDeviceRequired)
	}
	if in.Name == "" {
		return nil, util.InvalidArgument(ErrNameRequired)
	}
	eui, err := util.ParseDevEUI(in.DevEUI)
	if err != nil {
		return nil, err
	}
	profileID, err := util.ParseUUID("device profile id", in.DeviceProfileID)
	if err != nil {
		return nil, err
	}
	p, err := s.repos.DeviceProfile().LoadByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if in.TenantID != "" && in.TenantID != p.TenantExternalID.String() {
		return nil, util.InvalidArgument(ErrTenantMismatch)
	}
	return &model.Device{
		DevEUI:          eui,
		TenantID:        p.TenantID,
		DeviceProfileID: p.ID,
		Name:            in.Name,
		Description:     in.Description,
		Enabled:         !in.IsDisabled,
		SkipFCntCheck:   in.SkipFCntCheck,
		Variables:       nonNil(in.Variables),
		Tags:            nonNil(in.Tags),
	}, nil
}
