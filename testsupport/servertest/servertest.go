// Package servertest wires the components needed by handler tests.
package servertest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	"github.com/mpapenbr/lorawan-service-manager/pkg/codec"
	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth/impl"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/permission"
	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
	"github.com/mpapenbr/lorawan-service-manager/testsupport/basedata"
	"github.com/mpapenbr/lorawan-service-manager/testsupport/memrepos"
)

type Env struct {
	Repos   *memrepos.Repositories
	PE      permission.PermissionEvaluator
	Regions *region.Registry
	Adr     *adr.Registry
	Codecs  *codec.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()
	ctx := context.Background()
	pe, err := permission.NewOpaPermissionEvaluator()
	require.NoError(t, err)
	regions, err := region.NewRegistry(config.Default().Network.Regions)
	require.NoError(t, err)
	rt, err := jsrt.New(10)
	require.NoError(t, err)
	adrRegistry, err := adr.NewRegistry(ctx, regions)
	require.NoError(t, err)
	codecRegistry, err := codec.NewRegistry(ctx, rt)
	require.NoError(t, err)
	return &Env{
		Repos:   memrepos.New(),
		PE:      pe,
		Regions: regions,
		Adr:     adrRegistry,
		Codecs:  codec.NewService(codecRegistry),
	}
}

func AdminCtx() context.Context {
	return auth.AddAuthToContext(context.Background(), impl.NewAdminAuth())
}

func AnonCtx() context.Context {
	return auth.AddAuthToContext(context.Background(), impl.NewAnonymousAuth())
}

func TenantCtx(t *model.Tenant) context.Context {
	return auth.AddAuthToContext(context.Background(), impl.NewTenantAuth(t))
}

// SampleData creates the sample tenant, device profile and device.
//
//nolint:whitespace // can't make both editor and linter happy
func (e *Env) SampleData(t *testing.T) (
	*model.Tenant, *model.DeviceProfile, *model.Device,
) {
	t.Helper()
	ctx := context.Background()
	tenant, err := e.Repos.Tenant().Create(ctx, basedata.SampleTenant())
	require.NoError(t, err)
	p, err := e.Repos.DeviceProfile().Create(ctx, basedata.SampleDeviceProfile(tenant.ID))
	require.NoError(t, err)
	d, err := e.Repos.Device().Create(ctx, basedata.SampleDevice(tenant.ID, p.ID))
	require.NoError(t, err)
	return tenant, p, d
}
