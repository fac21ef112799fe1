package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/cache"
)

type Role string

const (
	RoleAdmin       Role = "admin"
	RoleTenantAdmin Role = "tenant-admin"
)

var ErrPermissionDenied = errors.New("permission denied")

// ScopedRole grants Role only for objects owned by one of Scopes.
type ScopedRole struct {
	Role   Role
	Scopes []string
}

type Principal interface {
	Name() string
}

type Authentication interface {
	Principal() Principal
	Roles() []Role
	ScopedRoles() []ScopedRole
}

// TenantAuthentication is implemented by authentications bound to a tenant.
type TenantAuthentication interface {
	Authentication
	GetTenantID() uint32
}

type AuthenticationProvider interface {
	Authenticate(ctx context.Context, h http.Header) (Authentication, error)
}

type (
	// Config is shared by the authentication providers.
	Config struct {
		AdminToken  string
		TenantCache cache.Getter[string, model.Tenant]
	}
	Option func(*Config)
)

func NewConfig(opts ...Option) *Config {
	c := &Config{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func WithAdminToken(token string) Option {
	return func(c *Config) {
		c.AdminToken = token
	}
}

// WithTenantCache sets the cache used to resolve hashed api keys.
func WithTenantCache(arg cache.Getter[string, model.Tenant]) Option {
	return func(c *Config) {
		c.TenantCache = arg
	}
}

type authContextKey struct{}

func AddAuthToContext(ctx context.Context, a Authentication) context.Context {
	return context.WithValue(ctx, authContextKey{}, a)
}

func FromContext(ctx context.Context) Authentication {
	if ctx == nil {
		return nil
	}
	if val, ok := ctx.Value(authContextKey{}).(Authentication); ok {
		return val
	}
	return nil
}

// TenantID returns the tenant bound to a, if any.
func TenantID(a Authentication) (uint32, bool) {
	if ta, ok := a.(TenantAuthentication); ok {
		return ta.GetTenantID(), true
	}
	return 0, false
}

// HasAnyRole reports whether a grants at least one global or scoped role.
// Anonymous callers have none.
func HasAnyRole(a Authentication) bool {
	if a == nil {
		return false
	}
	return len(a.Roles()) > 0 || len(a.ScopedRoles()) > 0
}
