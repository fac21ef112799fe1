package cache

import (
	"context"
	"time"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
	utilsCache "github.com/mpapenbr/lorawan-service-manager/pkg/utils/cache"
	"github.com/mpapenbr/lorawan-service-manager/pkg/utils/cache/loadercache"
)

// how long an unknown api key is answered from the cache
const unknownKeyTTL = 10 * time.Second

// The key is the hashed api key
//
//nolint:whitespace // can't make both editor and linter happy
func NewTenantCache(
	repo api.TenantRepository, expiration time.Duration,
) utilsCache.Cache[string, model.Tenant] {
	opts := []loadercache.Option[string, model.Tenant]{
		loadercache.WithLoader[string, model.Tenant](
			func(ctx context.Context, key string) (*model.Tenant, error) {
				return repo.LoadByAPIKey(ctx, key)
			}),
		loadercache.WithNegativeCaching[string, model.Tenant](
			repository.ErrNoData, unknownKeyTTL),
		loadercache.WithLogger[string, model.Tenant](
			log.Default().Named("cache.tenant")),
	}
	if expiration > 0 {
		opts = append(opts, loadercache.WithExpiration[string, model.Tenant](expiration))
	}
	return loadercache.New(opts...)
}
