package impl

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils"
)

type tenantsByHash map[string]*model.Tenant

func (m tenantsByHash) Get(ctx context.Context, key string) (*model.Tenant, error) {
	if key == utils.HashAPIKey("boom") {
		return nil, errors.New("db down")
	}
	if t, ok := m[key]; ok {
		return t, nil
	}
	return nil, repository.ErrNoData
}

func TestHandleAuth(t *testing.T) {
	tenants := tenantsByHash{
		utils.HashAPIKey("active"):   {ID: 7, Name: "acme", Active: true},
		utils.HashAPIKey("inactive"): {ID: 8, Name: "gone", Active: false},
	}
	i := NewAuthInterceptor(
		auth.WithAdminToken("admintoken"),
		auth.WithTenantCache(tenants),
	).(*authInterceptor)

	tests := []struct {
		name       string
		token      string
		wantName   string
		wantTenant uint32
	}{
		{name: "no token", wantName: "anon"},
		{name: "admin", token: "admintoken", wantName: "admin"},
		{name: "tenant", token: "active", wantName: "acme", wantTenant: 7},
		{name: "inactive tenant", token: "inactive", wantName: "anon"},
		{name: "unknown key", token: "unknown", wantName: "anon"},
		{name: "lookup error", token: "boom", wantName: "anon"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.token != "" {
				h.Set(tokenHeader, tt.token)
			}
			a := auth.FromContext(i.handleAuth(context.Background(), h))
			require.NotNil(t, a)
			assert.Equal(t, tt.wantName, a.Principal().Name())
			id, ok := auth.TenantID(a)
			assert.Equal(t, tt.wantTenant != 0, ok)
			assert.Equal(t, tt.wantTenant, id)
		})
	}
}

func TestTenantAuthScope(t *testing.T) {
	a := NewTenantAuth(&model.Tenant{ID: 3, Name: "t3"})
	assert.Empty(t, a.Roles())
	assert.Equal(t, []auth.ScopedRole{
		{Role: auth.RoleTenantAdmin, Scopes: []string{"3"}},
	}, a.ScopedRoles())
	assert.Equal(t, []auth.Role{auth.RoleAdmin}, NewAdminAuth().Roles())
}

func TestHasAnyRole(t *testing.T) {
	assert.False(t, auth.HasAnyRole(nil))
	assert.False(t, auth.HasAnyRole(NewAnonymousAuth()))
	assert.True(t, auth.HasAnyRole(NewAdminAuth()))
	assert.True(t, auth.HasAnyRole(NewTenantAuth(&model.Tenant{ID: 3})))
}

func TestAdminTokenDisabled(t *testing.T) {
	i := NewAuthInterceptor().(*authInterceptor)
	h := http.Header{}
	h.Set(tokenHeader, "")
	a := auth.FromContext(i.handleAuth(context.Background(), h))
	assert.Equal(t, "anon", a.Principal().Name())
}
