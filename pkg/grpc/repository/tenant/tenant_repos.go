//nolint:whitespace // can't make both editor and linter happy
package tenant

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
)

var selector = `select t.id, t.external_id, t.name, t.api_key, t.active,
	t.can_have_gateways, t.max_device_count, t.created_at, t.updated_at
	from tenant t`

func Create(
	ctx context.Context,
	conn repository.Querier,
	tenant *model.Tenant,
) (*model.Tenant, error) {
	row := conn.QueryRow(ctx, `
	insert into tenant (
		name, api_key, active, can_have_gateways, max_device_count, external_id
	) values ($1,$2,$3,$4,$5,uuid_generate_v4())
	returning id
		`,
		tenant.Name, tenant.APIKey, tenant.Active,
		tenant.CanHaveGateways, tenant.MaxDeviceCount,
	)
	var tenantID uint32
	if err := row.Scan(&tenantID); err != nil {
		return nil, repository.MapError(err)
	}
	return LoadByID(ctx, conn, tenantID)
}

func LoadByID(ctx context.Context, conn repository.Querier, id uint32) (
	*model.Tenant, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where t.id=$1", selector), id)

	return readData(row)
}

func LoadByExternalID(ctx context.Context, conn repository.Querier, id uuid.UUID) (
	*model.Tenant, error,
) {
	row := conn.QueryRow(ctx,
		fmt.Sprintf("%s where t.external_id=$1", selector), id)

	return readData(row)
}

// LoadByAPIKey expects the hashed api key.
func LoadByAPIKey(ctx context.Context, conn repository.Querier, apiKey string) (
	*model.Tenant, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where t.api_key=$1", selector), apiKey)

	return readData(row)
}

func LoadByName(ctx context.Context, conn repository.Querier, name string) (
	*model.Tenant, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where t.name=$1", selector), name)

	return readData(row)
}

func LoadAll(ctx context.Context, conn repository.Querier) (
	[]*model.Tenant, error,
) {
	row, err := conn.Query(ctx, fmt.Sprintf("%s order by t.id asc", selector))
	if err != nil {
		return nil, err
	}
	ret := make([]*model.Tenant, 0)
	defer row.Close()
	for row.Next() {
		item, err := readData(row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, row.Err()
}

func LoadBySelector(
	ctx context.Context,
	conn repository.Querier,
	sel *lsmv1.TenantSelector,
) (*model.Tenant, error) {
	switch {
	case sel.GetExternalID() != "":
		id, err := uuid.FromString(sel.GetExternalID())
		if err != nil {
			return nil, fmt.Errorf("invalid tenant id %q: %w", sel.GetExternalID(), err)
		}
		return LoadByExternalID(ctx, conn, id)
	case sel.GetName() != "":
		return LoadByName(ctx, conn, sel.GetName())
	default:
		return nil, fmt.Errorf("unknown selector %v", sel)
	}
}

// Update keeps name and api key when the given values are empty.
func Update(
	ctx context.Context,
	conn repository.Querier,
	id uint32,
	tenant *model.Tenant,
) (*model.Tenant, error) {
	cmdTag, err := conn.Exec(ctx, `
		update tenant set
		name=coalesce(nullif($1,''),name),
		api_key=coalesce(nullif($2,''),api_key),
		active=$3,
		can_have_gateways=$4,
		max_device_count=$5,
		updated_at=now()
		where id=$6
	`, tenant.Name, tenant.APIKey, tenant.Active,
		tenant.CanHaveGateways, tenant.MaxDeviceCount, id)
	if err != nil {
		return nil, repository.MapError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, repository.ErrNoData
	}
	return LoadByID(ctx, conn, id)
}

// deletes an entry from the database, returns number of rows deleted.
// Device profiles and devices of the tenant are removed as well.
func DeleteByID(ctx context.Context, conn repository.Querier, id uint32) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from tenant where id=$1", id)
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func readData(row pgx.Row) (*model.Tenant, error) {
	var item model.Tenant
	if err := row.Scan(
		&item.ID,
		&item.ExternalID,
		&item.Name,
		&item.APIKey,
		&item.Active,
		&item.CanHaveGateways,
		&item.MaxDeviceCount,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, repository.MapError(err)
	}
	return &item, nil
}
