//nolint:funlen,errcheck //ok for this test code
package grpc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	x "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1/lsmv1connect"
	"github.com/mpapenbr/lorawan-service-manager/pkg/cmd/setup"
	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/cache"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/permission"
	"github.com/mpapenbr/lorawan-service-manager/pkg/processing"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/broadcast"
	"github.com/mpapenbr/lorawan-service-manager/testsupport/memrepos"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	config.AdminToken = "admin"
	t.Cleanup(func() { config.AdminToken = "" })

	components, err := setup.NewComponents(context.Background(), config.Default())
	require.NoError(t, err)
	repos := memrepos.New()
	events := broadcast.NewBroadcastServer[*lsmv1.UplinkEvent]("test")
	t.Cleanup(events.Close)
	mux := registerGrpcServices(&services{
		repos:      repos,
		tx:         repos,
		pe:         permission.NewPermissionEvaluator(),
		tenants:    cache.NewTenantCache(repos.Tenant(), 0),
		components: components,
		events:     events,
		processor: processing.NewProcessor(
			processing.WithRepositories(repos, repos),
			processing.WithRegions(components.Regions),
			processing.WithAdrRegistry(components.Adr),
			processing.WithCodecService(components.Codecs),
			processing.WithEventBroadcast(events)),
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func withToken(token string) connect.ClientOption {
	return connect.WithInterceptors(connect.UnaryInterceptorFunc(
		func(next connect.UnaryFunc) connect.UnaryFunc {
			return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
				req.Header().Set("api-token", token)
				return next(ctx, req)
			}
		}))
}

func TestRegisteredServices(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	adrClient := x.NewAdrServiceClient(srv.Client(), srv.URL)
	res, err := adrClient.ListAlgorithms(ctx, connect.NewRequest(&lsmv1.ListAdrAlgorithmsRequest{}))
	require.NoError(t, err)
	assert.Equal(t, uint32(3), res.Msg.TotalCount)

	tenants := x.NewTenantServiceClient(srv.Client(), srv.URL)
	_, err = tenants.CreateTenant(ctx, connect.NewRequest(&lsmv1.CreateTenantRequest{
		Name: "acme", APIKey: "secret", IsActive: true,
	}))
	require.Error(t, err)
	assert.Equal(t, connect.CodePermissionDenied, connect.CodeOf(err))

	// the unknown key is now cached as unknown
	ownTenant := x.NewTenantServiceClient(srv.Client(), srv.URL, withToken("secret"))
	_, err = ownTenant.GetTenant(ctx, connect.NewRequest(&lsmv1.GetTenantRequest{
		Tenant: lsmv1.TenantByName("acme"),
	}))
	require.Error(t, err)

	adminTenants := x.NewTenantServiceClient(srv.Client(), srv.URL, withToken("admin"))
	created, err := adminTenants.CreateTenant(ctx, connect.NewRequest(&lsmv1.CreateTenantRequest{
		Name: "acme", APIKey: "secret", IsActive: true,
	}))
	require.NoError(t, err)
	assert.Equal(t, "acme", created.Msg.Tenant.Name)

	own, err := ownTenant.GetTenant(ctx, connect.NewRequest(&lsmv1.GetTenantRequest{
		Tenant: lsmv1.TenantByName("acme"),
	}))
	require.NoError(t, err, "creating the tenant evicts the cached key")
	assert.Equal(t, created.Msg.Tenant.ExternalID, own.Msg.Tenant.ExternalID)

	_, err = adminTenants.CreateTenant(ctx, connect.NewRequest(&lsmv1.CreateTenantRequest{
		Name: "acme", APIKey: "other", IsActive: true,
	}))
	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	for _, service := range append([]string{""}, x.ServiceNames()...) {
		t.Run(service, func(t *testing.T) {
			resp, err := srv.Client().Post(srv.URL+"/grpc.health.v1.Health/Check",
				"application/json", strings.NewReader(`{"service":"`+service+`"}`))
			require.NoError(t, err)
			defer resp.Body.Close()
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Contains(t, string(body), "SERVING")
		})
	}
}

func TestUplinkLimit(t *testing.T) {
	defer func() { config.UplinkRateLimit = 0 }()
	config.UplinkRateLimit = 0
	assert.Equal(t, rate.Inf, uplinkLimit())
	config.UplinkRateLimit = 2.5
	assert.Equal(t, rate.Limit(2.5), uplinkLimit())
}

func TestTLSConfigProvider(t *testing.T) {
	config.TLSCertFile = ""
	config.TLSKeyFile = ""
	config.TraefikCerts = ""
	assert.Nil(t, NewTLSConfigProvider(context.Background()))

	config.TLSCertFile = filepath.Join(t.TempDir(), "missing.pem")
	config.TLSKeyFile = config.TLSCertFile
	defer func() {
		config.TLSCertFile = ""
		config.TLSKeyFile = ""
	}()
	assert.Nil(t, NewTLSConfigProvider(context.Background()))
}

func TestLoadCAPool(t *testing.T) {
	dir := t.TempDir()
	_, err := loadCAPool(filepath.Join(dir, "missing.pem"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("no pem"), 0o600))
	_, err = loadCAPool(garbage)
	assert.ErrorIs(t, err, errNoCertsInPEM)
}
