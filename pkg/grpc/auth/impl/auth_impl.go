package impl

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"strconv"

	"connectrpc.com/connect"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/cache"
)

const (
	tokenHeader = "api-token"
)

type (
	authInterceptor struct {
		cfg          *auth.Config
		authProvider []auth.AuthenticationProvider
		l            *log.Logger
	}
)

func NewAuthInterceptor(opts ...auth.Option) connect.Interceptor {
	ret := &authInterceptor{
		cfg: auth.NewConfig(opts...),
		l:   log.Default().Named("grpc.auth"),
	}
	ret.authProvider = []auth.AuthenticationProvider{
		&apiKeyAuthenticator{
			adminToken:  ret.cfg.AdminToken,
			tenantCache: ret.cfg.TenantCache,
		},
		&anonymousAuthenticator{},
	}
	return ret
}

type (
	SimplePrincipal struct {
		name string
	}
	SimpleAuth struct {
		principal   auth.Principal
		roles       []auth.Role
		scopedRoles []auth.ScopedRole
	}
	// TenantAuth is bound to the tenant owning the presented api key.
	TenantAuth struct {
		SimpleAuth
		id uint32
	}
)

func (s *SimplePrincipal) Name() string { return s.name }
func (s *SimpleAuth) Principal() auth.Principal { return s.principal }
func (s *SimpleAuth) Roles() []auth.Role { return s.roles }
func (s *SimpleAuth) ScopedRoles() []auth.ScopedRole { return s.scopedRoles }
func (s *TenantAuth) GetTenantID() uint32 { return s.id }

func NewSimplePrincipal(name string) *SimplePrincipal {
	return &SimplePrincipal{name: name}
}

// NewAdminAuth returns the authentication granted for the admin token.
func NewAdminAuth() *SimpleAuth {
	return &SimpleAuth{
		principal: &SimplePrincipal{name: "admin"},
		roles:     []auth.Role{auth.RoleAdmin},
	}
}

// NewTenantAuth returns the authentication granted for a tenant api key.
func NewTenantAuth(t *model.Tenant) *TenantAuth {
	return &TenantAuth{
		SimpleAuth: SimpleAuth{
			principal: &SimplePrincipal{name: t.Name},
			roles:     []auth.Role{},
			scopedRoles: []auth.ScopedRole{
				{Role: auth.RoleTenantAdmin, Scopes: []string{TenantScope(t.ID)}},
			},
		},
		id: t.ID,
	}
}

// TenantScope is the object owner value of entities owned by a tenant.
func TenantScope(tenantID uint32) string {
	return strconv.FormatUint(uint64(tenantID), 10)
}

var (
	_ auth.Authentication       = (*SimpleAuth)(nil)
	_ auth.TenantAuthentication = (*TenantAuth)(nil)
)

var anon = &SimpleAuth{principal: &SimplePrincipal{name: "anon"}, roles: []auth.Role{}}

func NewAnonymousAuth() *SimpleAuth {
	return anon
}

//nolint:whitespace // can't make both editor and linter happy
func (i *authInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return connect.UnaryFunc(func(
		ctx context.Context,
		req connect.AnyRequest,
	) (connect.AnyResponse, error) {
		return next(i.handleAuth(ctx, req.Header()), req)
	})
}

//nolint:whitespace // editor/linter issue
func (i *authInterceptor) WrapStreamingClient(
	next connect.StreamingClientFunc,
) connect.StreamingClientFunc {
	return next
}

//nolint:whitespace // editor/linter issue
func (i *authInterceptor) WrapStreamingHandler(
	next connect.StreamingHandlerFunc,
) connect.StreamingHandlerFunc {
	return connect.StreamingHandlerFunc(func(
		ctx context.Context,
		conn connect.StreamingHandlerConn,
	) error {
		return next(i.handleAuth(ctx, conn.RequestHeader()), conn)
	})
}

func (i *authInterceptor) handleAuth(ctx context.Context, h http.Header) context.Context {
	for _, p := range i.authProvider {
		a, err := p.Authenticate(ctx, h)
		if a != nil {
			return auth.AddAuthToContext(ctx, a)
		}
		if err != nil {
			i.l.Error("error authenticating", log.ErrorField(err))
		}
	}
	// if no auth found, continue with current context
	return ctx
}

type (
	anonymousAuthenticator struct{}
	apiKeyAuthenticator    struct {
		adminToken  string
		tenantCache cache.Getter[string, model.Tenant]
	}
)

//nolint:whitespace // editor/linter issue
func (a *anonymousAuthenticator) Authenticate(
	ctx context.Context,
	h http.Header,
) (auth.Authentication, error) {
	return anon, nil
}

// unknown keys and inactive tenants fall through to the next provider.
//
//nolint:whitespace // editor/linter issue
func (a *apiKeyAuthenticator) Authenticate(
	ctx context.Context,
	h http.Header,
) (auth.Authentication, error) {
	token := h.Get(tokenHeader)
	if token == "" {
		return nil, nil
	}
	if a.adminToken != "" &&
		subtle.ConstantTimeCompare([]byte(token), []byte(a.adminToken)) == 1 {
		return NewAdminAuth(), nil
	}
	if a.tenantCache == nil {
		return nil, nil
	}
	t, err := a.tenantCache.Get(ctx, utils.HashAPIKey(token))
	if err != nil {
		if errors.Is(err, repository.ErrNoData) {
			return nil, nil
		}
		return nil, err
	}
	if !t.Active {
		return nil, nil
	}
	return NewTenantAuth(t), nil
}
