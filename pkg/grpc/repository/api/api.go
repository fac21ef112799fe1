package api

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
)

type Repositories interface {
	Tenant() TenantRepository
	DeviceProfile() DeviceProfileRepository
	Device() DeviceRepository
}

type TenantRepository interface {
	Create(ctx context.Context, tenant *model.Tenant) (*model.Tenant, error)
	LoadAll(ctx context.Context) ([]*model.Tenant, error)
	LoadByID(ctx context.Context, id uint32) (*model.Tenant, error)
	LoadByExternalID(ctx context.Context, externalID uuid.UUID) (*model.Tenant, error)
	LoadByAPIKey(ctx context.Context, apiKey string) (*model.Tenant, error)
	LoadByName(ctx context.Context, name string) (*model.Tenant, error)
	LoadBySelector(ctx context.Context, sel *lsmv1.TenantSelector) (
		*model.Tenant, error,
	)
	Update(ctx context.Context, id uint32, tenant *model.Tenant) (
		*model.Tenant, error,
	)
	DeleteByID(ctx context.Context, id uint32) (int, error)
}

type DeviceProfileRepository interface {
	Create(ctx context.Context, p *model.DeviceProfile) (*model.DeviceProfile, error)
	LoadByID(ctx context.Context, id uuid.UUID) (*model.DeviceProfile, error)
	LoadByTenant(ctx context.Context, tenantID, limit, offset uint32) (
		[]*model.DeviceProfile, error,
	)
	CountByTenant(ctx context.Context, tenantID uint32) (uint32, error)
	Update(ctx context.Context, p *model.DeviceProfile) (*model.DeviceProfile, error)
	AddMeasurements(ctx context.Context, id uuid.UUID, m map[string]model.Measurement) error
	DeleteByID(ctx context.Context, id uuid.UUID) (int, error)
}

type DeviceRepository interface {
	Create(ctx context.Context, d *model.Device) (*model.Device, error)
	LoadByDevEUI(ctx context.Context, devEUI lrwn.EUI64) (*model.Device, error)
	LoadByDevEUIForUpdate(ctx context.Context, devEUI lrwn.EUI64) (*model.Device, error)
	LoadByTenant(ctx context.Context, tenantID, limit, offset uint32) (
		[]*model.Device, error,
	)
	CountByTenant(ctx context.Context, tenantID uint32) (uint32, error)
	Update(ctx context.Context, d *model.Device) (*model.Device, error)
	UpdateState(
		ctx context.Context,
		devEUI lrwn.EUI64,
		state *model.DeviceState,
		lastSeen time.Time,
	) error
	DeleteByDevEUI(ctx context.Context, devEUI lrwn.EUI64) (int, error)
}

// TransactionManager runs fn in a transaction. Repositories called with the
// context passed to fn take part in that transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
