// Package memrepos provides in-memory repositories for handler and
// processing tests. Constraints follow the postgres schema.
//
//nolint:whitespace // can't make both editor and linter happy
package memrepos

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
)

type store struct {
	mu       sync.Mutex
	nextID   uint32
	tenants  map[uint32]*model.Tenant
	profiles map[uuid.UUID]*model.DeviceProfile
	devices  map[lrwn.EUI64]*model.Device
}

type Repositories struct {
	s *store
}

var (
	_ api.Repositories       = (*Repositories)(nil)
	_ api.TransactionManager = (*Repositories)(nil)
)

func New() *Repositories {
	return &Repositories{s: &store{
		tenants:  map[uint32]*model.Tenant{},
		profiles: map[uuid.UUID]*model.DeviceProfile{},
		devices:  map[lrwn.EUI64]*model.Device{},
	}}
}

func (r *Repositories) Tenant() api.TenantRepository               { return (*tenantRepo)(r.s) }
func (r *Repositories) DeviceProfile() api.DeviceProfileRepository { return (*profileRepo)(r.s) }
func (r *Repositories) Device() api.DeviceRepository               { return (*deviceRepo)(r.s) }

// RunInTx calls fn directly. Changes are not rolled back on error.
func (r *Repositories) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func copyTenant(t *model.Tenant) *model.Tenant {
	c := *t
	return &c
}

func copyProfile(p *model.DeviceProfile, s *store) *model.DeviceProfile {
	c := *p
	if t, ok := s.tenants[p.TenantID]; ok {
		c.TenantExternalID = t.ExternalID
	}
	return &c
}

func copyDevice(d *model.Device, s *store) *model.Device {
	c := *d
	c.State.AdrHistory = append(c.State.AdrHistory[:0:0], d.State.AdrHistory...)
	if t, ok := s.tenants[d.TenantID]; ok {
		c.TenantExternalID = t.ExternalID
	}
	return &c
}

func page[T any](items []T, limit, offset uint32) []T {
	if int(offset) >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && int(limit) < len(items) {
		items = items[:limit]
	}
	return items
}

type tenantRepo store

func (r *tenantRepo) Create(ctx context.Context, t *model.Tenant) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.tenants {
		if e.Name == t.Name || e.APIKey == t.APIKey {
			return nil, fmt.Errorf("tenant: %w", repository.ErrAlreadyExists)
		}
	}
	r.nextID++
	c := copyTenant(t)
	c.ID = r.nextID
	c.ExternalID = uuid.Must(uuid.NewV4())
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.tenants[c.ID] = c
	return copyTenant(c), nil
}

func (r *tenantRepo) LoadAll(ctx context.Context) ([]*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ret := make([]*model.Tenant, 0, len(r.tenants))
	for _, t := range r.tenants {
		ret = append(ret, copyTenant(t))
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret, nil
}

func (r *tenantRepo) find(match func(*model.Tenant) bool) (*model.Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if match(t) {
			return copyTenant(t), nil
		}
	}
	return nil, repository.ErrNoData
}

func (r *tenantRepo) LoadByID(ctx context.Context, id uint32) (*model.Tenant, error) {
	return r.find(func(t *model.Tenant) bool { return t.ID == id })
}

func (r *tenantRepo) LoadByExternalID(ctx context.Context, id uuid.UUID) (
	*model.Tenant, error,
) {
	return r.find(func(t *model.Tenant) bool { return t.ExternalID == id })
}

func (r *tenantRepo) LoadByAPIKey(ctx context.Context, apiKey string) (
	*model.Tenant, error,
) {
	return r.find(func(t *model.Tenant) bool { return t.APIKey == apiKey })
}

func (r *tenantRepo) LoadByName(ctx context.Context, name string) (*model.Tenant, error) {
	return r.find(func(t *model.Tenant) bool { return t.Name == name })
}

func (r *tenantRepo) LoadBySelector(ctx context.Context, sel *lsmv1.TenantSelector) (
	*model.Tenant, error,
) {
	switch {
	case sel.GetExternalID() != "":
		id, err := uuid.FromString(sel.GetExternalID())
		if err != nil {
			return nil, err
		}
		return r.LoadByExternalID(ctx, id)
	case sel.GetName() != "":
		return r.LoadByName(ctx, sel.GetName())
	}
	return nil, fmt.Errorf("unknown selector %v", sel)
}

func (r *tenantRepo) Update(ctx context.Context, id uint32, t *model.Tenant) (
	*model.Tenant, error,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.tenants[id]
	if !ok {
		return nil, repository.ErrNoData
	}
	if t.Name != "" {
		cur.Name = t.Name
	}
	if t.APIKey != "" {
		cur.APIKey = t.APIKey
	}
	cur.Active = t.Active
	cur.CanHaveGateways = t.CanHaveGateways
	cur.MaxDeviceCount = t.MaxDeviceCount
	cur.UpdatedAt = time.Now()
	return copyTenant(cur), nil
}

func (r *tenantRepo) DeleteByID(ctx context.Context, id uint32) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[id]; !ok {
		return 0, nil
	}
	delete(r.tenants, id)
	for k, d := range r.devices {
		if d.TenantID == id {
			delete(r.devices, k)
		}
	}
	for k, p := range r.profiles {
		if p.TenantID == id {
			delete(r.profiles, k)
		}
	}
	return 1, nil
}

type profileRepo store

func (r *profileRepo) Create(ctx context.Context, p *model.DeviceProfile) (
	*model.DeviceProfile, error,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[p.TenantID]; !ok {
		return nil, fmt.Errorf("device_profile: %w", repository.ErrReferenceViolation)
	}
	c := *p
	c.ID = uuid.Must(uuid.NewV4())
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.profiles[c.ID] = &c
	return copyProfile(&c, (*store)(r)), nil
}

func (r *profileRepo) LoadByID(ctx context.Context, id uuid.UUID) (
	*model.DeviceProfile, error,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.profiles[id]; ok {
		return copyProfile(p, (*store)(r)), nil
	}
	return nil, repository.ErrNoData
}

func (r *profileRepo) byTenant(tenantID uint32) []*model.DeviceProfile {
	ret := []*model.DeviceProfile{}
	for _, p := range r.profiles {
		if p.TenantID == tenantID {
			ret = append(ret, copyProfile(p, (*store)(r)))
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Name != ret[j].Name {
			return ret[i].Name < ret[j].Name
		}
		return ret[i].ID.String() < ret[j].ID.String()
	})
	return ret
}

func (r *profileRepo) LoadByTenant(ctx context.Context, tenantID, limit, offset uint32) (
	[]*model.DeviceProfile, error,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return page(r.byTenant(tenantID), limit, offset), nil
}

func (r *profileRepo) CountByTenant(ctx context.Context, tenantID uint32) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint32(len(r.byTenant(tenantID))), nil
}

func (r *profileRepo) Update(ctx context.Context, p *model.DeviceProfile) (
	*model.DeviceProfile, error,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.profiles[p.ID]
	if !ok {
		return nil, repository.ErrNoData
	}
	c := *p
	c.TenantID = cur.TenantID
	c.CreatedAt = cur.CreatedAt
	c.UpdatedAt = time.Now()
	r.profiles[p.ID] = &c
	return copyProfile(&c, (*store)(r)), nil
}

func (r *profileRepo) AddMeasurements(
	ctx context.Context,
	id uuid.UUID,
	m map[string]model.Measurement,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.profiles[id]
	if !ok {
		return repository.ErrNoData
	}
	c := *cur
	c.Measurements = make(map[string]model.Measurement, len(cur.Measurements)+len(m))
	for k, v := range m {
		c.Measurements[k] = v
	}
	for k, v := range cur.Measurements {
		c.Measurements[k] = v
	}
	c.UpdatedAt = time.Now()
	r.profiles[id] = &c
	return nil
}

func (r *profileRepo) DeleteByID(ctx context.Context, id uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.profiles[id]; !ok {
		return 0, nil
	}
	for _, d := range r.devices {
		if d.DeviceProfileID == id {
			return 0, fmt.Errorf("device_profile: %w", repository.ErrReferenceViolation)
		}
	}
	delete(r.profiles, id)
	return 1, nil
}

type deviceRepo store

func (r *deviceRepo) Create(ctx context.Context, d *model.Device) (*model.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tenants[d.TenantID]
	if !ok {
		return nil, repository.ErrNoData
	}
	if _, ok := r.profiles[d.DeviceProfileID]; !ok {
		return nil, fmt.Errorf("device: %w", repository.ErrReferenceViolation)
	}
	if _, ok := r.devices[d.DevEUI]; ok {
		return nil, fmt.Errorf("device: %w", repository.ErrAlreadyExists)
	}
	if t.MaxDeviceCount > 0 && uint32(len(r.byTenant(t.ID))) >= t.MaxDeviceCount {
		return nil, repository.ErrDeviceLimitReached
	}
	c := copyDevice(d, (*store)(r))
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	if c.State.AdrHistory == nil {
		c.State.AdrHistory = []adr.UplinkMetaData{}
	}
	r.devices[c.DevEUI] = c
	return copyDevice(c, (*store)(r)), nil
}

func (r *deviceRepo) LoadByDevEUI(ctx context.Context, devEUI lrwn.EUI64) (
	*model.Device, error,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.devices[devEUI]; ok {
		return copyDevice(d, (*store)(r)), nil
	}
	return nil, repository.ErrNoData
}

func (r *deviceRepo) LoadByDevEUIForUpdate(ctx context.Context, devEUI lrwn.EUI64) (
	*model.Device, error,
) {
	return r.LoadByDevEUI(ctx, devEUI)
}

func (r *deviceRepo) byTenant(tenantID uint32) []*model.Device {
	ret := []*model.Device{}
	for _, d := range r.devices {
		if d.TenantID == tenantID {
			ret = append(ret, copyDevice(d, (*store)(r)))
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].Name != ret[j].Name {
			return ret[i].Name < ret[j].Name
		}
		return ret[i].DevEUI.String() < ret[j].DevEUI.String()
	})
	return ret
}

func (r *deviceRepo) LoadByTenant(ctx context.Context, tenantID, limit, offset uint32) (
	[]*model.Device, error,
) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return page(r.byTenant(tenantID), limit, offset), nil
}

func (r *deviceRepo) CountByTenant(ctx context.Context, tenantID uint32) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint32(len(r.byTenant(tenantID))), nil
}

func (r *deviceRepo) Update(ctx context.Context, d *model.Device) (*model.Device, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.devices[d.DevEUI]
	if !ok {
		return nil, repository.ErrNoData
	}
	if _, ok := r.profiles[d.DeviceProfileID]; !ok {
		return nil, fmt.Errorf("device: %w", repository.ErrReferenceViolation)
	}
	cur.DeviceProfileID = d.DeviceProfileID
	cur.Name = d.Name
	cur.Description = d.Description
	cur.Enabled = d.Enabled
	cur.SkipFCntCheck = d.SkipFCntCheck
	cur.Variables = d.Variables
	cur.Tags = d.Tags
	cur.UpdatedAt = time.Now()
	return copyDevice(cur, (*store)(r)), nil
}

func (r *deviceRepo) UpdateState(
	ctx context.Context,
	devEUI lrwn.EUI64,
	state *model.DeviceState,
	lastSeen time.Time,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.devices[devEUI]
	if !ok {
		return repository.ErrNoData
	}
	cur.State = *state
	cur.State.AdrHistory = append(state.AdrHistory[:0:0], state.AdrHistory...)
	cur.LastSeenAt = &lastSeen
	return nil
}

func (r *deviceRepo) DeleteByDevEUI(ctx context.Context, devEUI lrwn.EUI64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.devices[devEUI]; !ok {
		return 0, nil
	}
	delete(r.devices, devEUI)
	return 1, nil
}
