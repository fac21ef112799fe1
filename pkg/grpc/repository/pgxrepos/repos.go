//nolint:whitespace // can't make both editor and linter happy
package pgxrepos

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/device"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/deviceprofile"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/tenant"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
)

type pgxRepositories struct {
	tenantRepository        api.TenantRepository
	deviceProfileRepository api.DeviceProfileRepository
	deviceRepository        api.DeviceRepository
}

var _ api.Repositories = (*pgxRepositories)(nil)

func NewRepositoriesFromPool(db repository.DB) api.Repositories {
	return &pgxRepositories{
		tenantRepository:        &tenantRepository{db: db},
		deviceProfileRepository: &deviceProfileRepository{db: db},
		deviceRepository:        &deviceRepository{db: db},
	}
}

func (r *pgxRepositories) Tenant() api.TenantRepository {
	return r.tenantRepository
}

func (r *pgxRepositories) DeviceProfile() api.DeviceProfileRepository {
	return r.deviceProfileRepository
}

func (r *pgxRepositories) Device() api.DeviceRepository {
	return r.deviceRepository
}

type tenantRepository struct {
	db repository.DB
}

func (r *tenantRepository) Create(ctx context.Context, t *model.Tenant) (
	*model.Tenant, error,
) {
	return tenant.Create(ctx, executor(ctx, r.db), t)
}

func (r *tenantRepository) LoadAll(ctx context.Context) ([]*model.Tenant, error) {
	return tenant.LoadAll(ctx, executor(ctx, r.db))
}

func (r *tenantRepository) LoadByID(ctx context.Context, id uint32) (
	*model.Tenant, error,
) {
	return tenant.LoadByID(ctx, executor(ctx, r.db), id)
}

func (r *tenantRepository) LoadByExternalID(ctx context.Context, id uuid.UUID) (
	*model.Tenant, error,
) {
	return tenant.LoadByExternalID(ctx, executor(ctx, r.db), id)
}

func (r *tenantRepository) LoadByAPIKey(ctx context.Context, apiKey string) (
	*model.Tenant, error,
) {
	return tenant.LoadByAPIKey(ctx, executor(ctx, r.db), apiKey)
}

func (r *tenantRepository) LoadByName(ctx context.Context, name string) (
	*model.Tenant, error,
) {
	return tenant.LoadByName(ctx, executor(ctx, r.db), name)
}

func (r *tenantRepository) LoadBySelector(
	ctx context.Context, sel *lsmv1.TenantSelector,
) (*model.Tenant, error) {
	return tenant.LoadBySelector(ctx, executor(ctx, r.db), sel)
}

func (r *tenantRepository) Update(ctx context.Context, id uint32, t *model.Tenant) (
	*model.Tenant, error,
) {
	return tenant.Update(ctx, executor(ctx, r.db), id, t)
}

func (r *tenantRepository) DeleteByID(ctx context.Context, id uint32) (int, error) {
	return tenant.DeleteByID(ctx, executor(ctx, r.db), id)
}

type deviceProfileRepository struct {
	db repository.DB
}

func (r *deviceProfileRepository) Create(ctx context.Context, p *model.DeviceProfile) (
	*model.DeviceProfile, error,
) {
	return deviceprofile.Create(ctx, executor(ctx, r.db), p)
}

func (r *deviceProfileRepository) LoadByID(ctx context.Context, id uuid.UUID) (
	*model.DeviceProfile, error,
) {
	return deviceprofile.LoadByID(ctx, executor(ctx, r.db), id)
}

func (r *deviceProfileRepository) LoadByTenant(
	ctx context.Context, tenantID, limit, offset uint32,
) ([]*model.DeviceProfile, error) {
	return deviceprofile.LoadByTenant(ctx, executor(ctx, r.db), tenantID, limit, offset)
}

func (r *deviceProfileRepository) CountByTenant(ctx context.Context, tenantID uint32) (
	uint32, error,
) {
	return deviceprofile.CountByTenant(ctx, executor(ctx, r.db), tenantID)
}

func (r *deviceProfileRepository) Update(ctx context.Context, p *model.DeviceProfile) (
	*model.DeviceProfile, error,
) {
	return deviceprofile.Update(ctx, executor(ctx, r.db), p)
}

func (r *deviceProfileRepository) AddMeasurements(
	ctx context.Context,
	id uuid.UUID,
	m map[string]model.Measurement,
) error {
	return deviceprofile.AddMeasurements(ctx, executor(ctx, r.db), id, m)
}

func (r *deviceProfileRepository) DeleteByID(ctx context.Context, id uuid.UUID) (
	int, error,
) {
	return deviceprofile.DeleteByID(ctx, executor(ctx, r.db), id)
}

type deviceRepository struct {
	db repository.DB
}

func (r *deviceRepository) Create(ctx context.Context, d *model.Device) (
	*model.Device, error,
) {
	return device.Create(ctx, executor(ctx, r.db), d)
}

func (r *deviceRepository) LoadByDevEUI(ctx context.Context, devEUI lrwn.EUI64) (
	*model.Device, error,
) {
	return device.LoadByDevEUI(ctx, executor(ctx, r.db), devEUI)
}

func (r *deviceRepository) LoadByDevEUIForUpdate(
	ctx context.Context, devEUI lrwn.EUI64,
) (*model.Device, error) {
	return device.LoadByDevEUIForUpdate(ctx, executor(ctx, r.db), devEUI)
}

func (r *deviceRepository) LoadByTenant(
	ctx context.Context, tenantID, limit, offset uint32,
) ([]*model.Device, error) {
	return device.LoadByTenant(ctx, executor(ctx, r.db), tenantID, limit, offset)
}

func (r *deviceRepository) CountByTenant(ctx context.Context, tenantID uint32) (
	uint32, error,
) {
	return device.CountByTenant(ctx, executor(ctx, r.db), tenantID)
}

func (r *deviceRepository) Update(ctx context.Context, d *model.Device) (
	*model.Device, error,
) {
	return device.Update(ctx, executor(ctx, r.db), d)
}

func (r *deviceRepository) UpdateState(
	ctx context.Context,
	devEUI lrwn.EUI64,
	state *model.DeviceState,
	lastSeen time.Time,
) error {
	return device.UpdateState(ctx, executor(ctx, r.db), devEUI, state, lastSeen)
}

func (r *deviceRepository) DeleteByDevEUI(ctx context.Context, devEUI lrwn.EUI64) (
	int, error,
) {
	return device.DeleteByDevEUI(ctx, executor(ctx, r.db), devEUI)
}
