//nolint:funlen,errcheck //ok for this test code
package device

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	x "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1/lsmv1connect"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth/impl"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/server/util"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/broadcast"
	"github.com/mpapenbr/lorawan-service-manager/testsupport/basedata"
	"github.com/mpapenbr/lorawan-service-manager/testsupport/servertest"
)

func setup(t *testing.T) (*deviceServer, *servertest.Env) {
	t.Helper()
	env := servertest.NewEnv(t)
	return NewServer(
		WithRepositories(env.Repos),
		WithTransactionManager(env.Repos),
		WithPermissionEvaluator(env.PE),
	), env
}

func TestDeviceLifecycle(t *testing.T) {
	srv, env := setup(t)
	tenant, profile, _ := env.SampleData(t)
	ctx := servertest.TenantCtx(tenant)

	in := &lsmv1.Device{
		DevEUI:          "a1a2a3a4a5a6a7a8",
		DeviceProfileID: profile.ID.String(),
		Name:            "second",
		Variables:       map[string]string{"k": "v"},
		Tags:            map[string]string{},
	}
	_, err := srv.Create(ctx, connect.NewRequest(&lsmv1.CreateDeviceRequest{Device: in}))
	require.NoError(t, err)

	got, err := srv.Get(ctx, connect.NewRequest(
		&lsmv1.GetDeviceRequest{DevEUI: in.DevEUI}))
	require.NoError(t, err)
	want := *in
	want.TenantID = tenant.ExternalID.String()
	if diff := cmp.Diff(&want, got.Msg.Device,
		cmpopts.IgnoreFields(lsmv1.Device{}, "CreatedAt", "UpdatedAt")); diff != "" {
		t.Errorf("Get() mismatch (-want +got):\n%s", diff)
	}

	upd := *got.Msg.Device
	upd.IsDisabled = true
	upd.Name = "renamed"
	_, err = srv.Update(ctx, connect.NewRequest(&lsmv1.UpdateDeviceRequest{Device: &upd}))
	require.NoError(t, err)

	list, err := srv.List(ctx, connect.NewRequest(&lsmv1.ListDevicesRequest{}))
	require.NoError(t, err)
	assert.Equal(t, uint32(2), list.Msg.TotalCount)
	require.Len(t, list.Msg.Result, 2)
	assert.Equal(t, "renamed", list.Msg.Result[0].Name)
	assert.True(t, list.Msg.Result[0].IsDisabled)

	state, err := srv.GetState(ctx, connect.NewRequest(
		&lsmv1.GetDeviceStateRequest{DevEUI: in.DevEUI}))
	require.NoError(t, err)
	assert.Equal(t, uint32(1), state.Msg.State.NbTrans)
	assert.Empty(t, state.Msg.State.UplinkHistory)

	_, err = srv.Delete(ctx, connect.NewRequest(
		&lsmv1.DeleteDeviceRequest{DevEUI: in.DevEUI}))
	require.NoError(t, err)
	_, err = srv.Get(ctx, connect.NewRequest(
		&lsmv1.GetDeviceRequest{DevEUI: in.DevEUI}))
	assert.Equal(t, connect.CodeNotFound, util.MapError(err).(*connect.Error).Code())
}

func TestDeviceValidation(t *testing.T) {
	srv, env := setup(t)
	tenant, profile, _ := env.SampleData(t)
	ctx := servertest.TenantCtx(tenant)
	other, err := env.Repos.Tenant().Create(context.Background(), &model.Tenant{
		Name: "other", APIKey: "otherkey", Active: true,
	})
	require.NoError(t, err)

	tests := []struct {
		name   string
		device *lsmv1.Device
		want   connect.Code
	}{
		{"missing", nil, connect.CodeInvalidArgument},
		{
			"no name",
			&lsmv1.Device{DevEUI: "a1a2a3a4a5a6a7a8", DeviceProfileID: profile.ID.String()},
			connect.CodeInvalidArgument,
		},
		{
			"bad eui",
			&lsmv1.Device{DevEUI: "xyz", Name: "d", DeviceProfileID: profile.ID.String()},
			connect.CodeInvalidArgument,
		},
		{
			"bad profile id",
			&lsmv1.Device{DevEUI: "a1a2a3a4a5a6a7a8", Name: "d", DeviceProfileID: "nope"},
			connect.CodeInvalidArgument,
		},
		{
			"unknown profile",
			&lsmv1.Device{
				DevEUI:          "a1a2a3a4a5a6a7a8",
				Name:            "d",
				DeviceProfileID: "8e9f5c3a-1a2b-4c3d-9e8f-0a1b2c3d4e5f",
			},
			connect.CodeNotFound,
		},
		{
			"tenant mismatch",
			&lsmv1.Device{
				DevEUI:          "a1a2a3a4a5a6a7a8",
				Name:            "d",
				TenantID:        other.ExternalID.String(),
				DeviceProfileID: profile.ID.String(),
			},
			connect.CodeInvalidArgument,
		},
		{
			"duplicate",
			&lsmv1.Device{
				DevEUI:          basedata.SampleDevEUI,
				Name:            "d",
				DeviceProfileID: profile.ID.String(),
			},
			connect.CodeAlreadyExists,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.Create(ctx, connect.NewRequest(
				&lsmv1.CreateDeviceRequest{Device: tt.device}))
			require.Error(t, err)
			assert.Equal(t, tt.want, util.MapError(err).(*connect.Error).Code())
		})
	}
}

func TestDeviceLimit(t *testing.T) {
	srv, env := setup(t)
	tenant, profile, _ := env.SampleData(t)
	tenant.MaxDeviceCount = 1
	_, err := env.Repos.Tenant().Update(context.Background(), tenant.ID, tenant)
	require.NoError(t, err)

	_, err = srv.Create(servertest.TenantCtx(tenant), connect.NewRequest(
		&lsmv1.CreateDeviceRequest{Device: &lsmv1.Device{
			DevEUI:          "a1a2a3a4a5a6a7a8",
			Name:            "d",
			DeviceProfileID: profile.ID.String(),
		}}))
	require.Error(t, err)
	assert.Equal(t, connect.CodeResourceExhausted,
		util.MapError(err).(*connect.Error).Code())
}

type recordingTx struct {
	api.TransactionManager
	calls int
}

func (r *recordingTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return r.TransactionManager.RunInTx(ctx, fn)
}

func TestCreateRunsInTransaction(t *testing.T) {
	env := servertest.NewEnv(t)
	tenant, profile, _ := env.SampleData(t)
	tx := &recordingTx{TransactionManager: env.Repos}
	srv := NewServer(
		WithRepositories(env.Repos),
		WithTransactionManager(tx),
		WithPermissionEvaluator(env.PE),
	)

	_, err := srv.Create(servertest.TenantCtx(tenant), connect.NewRequest(
		&lsmv1.CreateDeviceRequest{Device: &lsmv1.Device{
			DevEUI:          "a1a2a3a4a5a6a7a8",
			Name:            "d",
			DeviceProfileID: profile.ID.String(),
		}}))
	require.NoError(t, err)
	assert.Equal(t, 1, tx.calls)
}

func TestDevicePermissions(t *testing.T) {
	srv, env := setup(t)
	tenant, _, _ := env.SampleData(t)
	other, err := env.Repos.Tenant().Create(context.Background(), &model.Tenant{
		Name: "other", APIKey: "otherkey", Active: true,
	})
	require.NoError(t, err)

	tests := []struct {
		name string
		ctx  context.Context
		want connect.Code
	}{
		{"admin", servertest.AdminCtx(), connect.Code(0)},
		{"owner", servertest.TenantCtx(tenant), connect.Code(0)},
		{"other tenant", servertest.TenantCtx(other), connect.CodePermissionDenied},
		{"anonymous", servertest.AnonCtx(), connect.CodePermissionDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.Get(tt.ctx, connect.NewRequest(
				&lsmv1.GetDeviceRequest{DevEUI: basedata.SampleDevEUI}))
			if tt.want == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.want, connect.CodeOf(err))
		})
	}
}

// anonymous callers get the same answer for existing and unknown devices
func TestDeviceAnonymousLookup(t *testing.T) {
	srv, env := setup(t)
	env.SampleData(t)

	for _, devEUI := range []string{basedata.SampleDevEUI, "ffffffffffffffff"} {
		_, err := srv.Get(servertest.AnonCtx(), connect.NewRequest(
			&lsmv1.GetDeviceRequest{DevEUI: devEUI}))
		require.Error(t, err)
		assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err), devEUI)

		_, err = srv.GetState(servertest.AnonCtx(), connect.NewRequest(
			&lsmv1.GetDeviceStateRequest{DevEUI: devEUI}))
		require.Error(t, err)
		assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err), devEUI)
	}

	_, err := srv.Get(servertest.AdminCtx(), connect.NewRequest(
		&lsmv1.GetDeviceRequest{DevEUI: "ffffffffffffffff"}))
	assert.Equal(t, connect.CodeNotFound, util.MapError(err).(*connect.Error).Code())
}

func TestStreamEvents(t *testing.T) {
	env := servertest.NewEnv(t)
	env.SampleData(t)
	events := broadcast.NewBroadcastServer[*lsmv1.UplinkEvent]("test")
	defer events.Close()

	srv := NewServer(
		WithRepositories(env.Repos),
		WithPermissionEvaluator(env.PE),
		WithEventBroadcast(events),
	)
	mux := http.NewServeMux()
	mux.Handle(x.NewDeviceServiceHandler(srv,
		connect.WithInterceptors(
			impl.NewAuthInterceptor(auth.WithAdminToken("admin")),
			util.NewErrorInterceptor())))
	httpServer := httptest.NewServer(mux)
	defer httpServer.Close()

	client := x.NewDeviceServiceClient(httpServer.Client(), httpServer.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req := connect.NewRequest(&lsmv1.StreamEventsRequest{DevEUI: basedata.SampleDevEUI})
	req.Header().Set("api-token", "admin")
	stream, err := client.StreamEvents(ctx, req)
	require.NoError(t, err)
	defer stream.Close()

	// the subscription is registered after the stream started
	go func() {
		for ctx.Err() == nil {
			events.Publish(&lsmv1.UplinkEvent{DevEUI: "ffffffffffffffff", FCnt: 1})
			events.Publish(&lsmv1.UplinkEvent{DevEUI: basedata.SampleDevEUI, FCnt: 2})
			time.Sleep(20 * time.Millisecond)
		}
	}()

	require.True(t, stream.Receive(), "stream error: %v", stream.Err())
	assert.Equal(t, basedata.SampleDevEUI, stream.Msg().Event.DevEUI)
	assert.Equal(t, uint32(2), stream.Msg().Event.FCnt)
}

func TestStreamEventsAnonymous(t *testing.T) {
	env := servertest.NewEnv(t)
	env.SampleData(t)
	srv := NewServer(
		WithRepositories(env.Repos),
		WithPermissionEvaluator(env.PE),
	)
	mux := http.NewServeMux()
	mux.Handle(x.NewDeviceServiceHandler(srv,
		connect.WithInterceptors(impl.NewAuthInterceptor())))
	httpServer := httptest.NewServer(mux)
	defer httpServer.Close()

	client := x.NewDeviceServiceClient(httpServer.Client(), httpServer.URL)
	stream, err := client.StreamEvents(context.Background(), connect.NewRequest(
		&lsmv1.StreamEventsRequest{DevEUI: basedata.SampleDevEUI}))
	require.NoError(t, err)
	defer stream.Close()
	assert.False(t, stream.Receive())
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(stream.Err()))
}
