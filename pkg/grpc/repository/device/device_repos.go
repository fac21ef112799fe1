//nolint:whitespace // can't make both editor and linter happy
package device

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
)

var selector = `select d.dev_eui, d.tenant_id, t.external_id, d.device_profile_id,
	d.name, d.description, d.enabled, d.skip_fcnt_check, d.variables, d.tags,
	d.dr, d.tx_power_index, d.nb_trans, d.f_cnt_up, d.adr_history,
	d.last_seen_at, d.created_at, d.updated_at
	from device d join tenant t on t.id=d.tenant_id`

// Create inserts a device. If the tenant restricts the number of devices
// and the limit is reached repository.ErrDeviceLimitReached is returned.
// conn should be a transaction since the tenant row is locked for the check.
func Create(
	ctx context.Context,
	conn repository.Querier,
	d *model.Device,
) (*model.Device, error) {
	if err := checkDeviceLimit(ctx, conn, d.TenantID); err != nil {
		return nil, err
	}
	history := d.State.AdrHistory
	if history == nil {
		history = []adr.UplinkMetaData{}
	}
	_, err := conn.Exec(ctx, `
	insert into device (
		dev_eui, tenant_id, device_profile_id, name, description, enabled,
		skip_fcnt_check, variables, tags, dr, tx_power_index, nb_trans,
		f_cnt_up, adr_history
	) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		d.DevEUI[:], d.TenantID, d.DeviceProfileID, d.Name, d.Description, d.Enabled,
		d.SkipFCntCheck, repository.NonNil(d.Variables), repository.NonNil(d.Tags),
		int16(d.State.DR), int16(d.State.TxPowerIndex), int16(d.State.NbTrans),
		int64(d.State.FCntUp), history,
	)
	if err != nil {
		return nil, repository.MapError(err)
	}
	return LoadByDevEUI(ctx, conn, d.DevEUI)
}

func checkDeviceLimit(ctx context.Context, conn repository.Querier, tenantID uint32) error {
	var maxCount uint32
	if err := conn.QueryRow(ctx,
		"select max_device_count from tenant where id=$1 for update",
		tenantID).Scan(&maxCount); err != nil {
		return repository.MapError(err)
	}
	if maxCount == 0 {
		return nil
	}
	count, err := CountByTenant(ctx, conn, tenantID)
	if err != nil {
		return err
	}
	if count >= maxCount {
		return repository.ErrDeviceLimitReached
	}
	return nil
}

func LoadByDevEUI(ctx context.Context, conn repository.Querier, devEUI lrwn.EUI64) (
	*model.Device, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where d.dev_eui=$1", selector), devEUI[:])
	return readData(row)
}

// LoadByDevEUIForUpdate locks the device row until the surrounding
// transaction ends.
func LoadByDevEUIForUpdate(
	ctx context.Context,
	conn repository.Querier,
	devEUI lrwn.EUI64,
) (*model.Device, error) {
	row := conn.QueryRow(ctx,
		fmt.Sprintf("%s where d.dev_eui=$1 for update of d", selector), devEUI[:])
	return readData(row)
}

// LoadByTenant returns the devices of a tenant ordered by name.
// A limit of 0 returns all entries.
func LoadByTenant(
	ctx context.Context,
	conn repository.Querier,
	tenantID, limit, offset uint32,
) ([]*model.Device, error) {
	rows, err := conn.Query(ctx,
		fmt.Sprintf("%s where d.tenant_id=$1 order by d.name, d.dev_eui limit $2 offset $3",
			selector),
		tenantID, repository.LimitArg(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.Device, 0)
	for rows.Next() {
		item, err := readData(rows)
		if err != nil {
			return nil, err
		}
		ret = append(ret, item)
	}
	return ret, rows.Err()
}

func CountByTenant(ctx context.Context, conn repository.Querier, tenantID uint32) (
	uint32, error,
) {
	var ret uint32
	err := conn.QueryRow(ctx,
		"select count(*) from device where tenant_id=$1", tenantID).Scan(&ret)
	return ret, err
}

// Update replaces the configuration attributes. The network state is kept.
func Update(
	ctx context.Context,
	conn repository.Querier,
	d *model.Device,
) (*model.Device, error) {
	cmdTag, err := conn.Exec(ctx, `
		update device set
		device_profile_id=$1, name=$2, description=$3, enabled=$4,
		skip_fcnt_check=$5, variables=$6, tags=$7, updated_at=now()
		where dev_eui=$8
	`,
		d.DeviceProfileID, d.Name, d.Description, d.Enabled,
		d.SkipFCntCheck, repository.NonNil(d.Variables), repository.NonNil(d.Tags),
		d.DevEUI[:])
	if err != nil {
		return nil, repository.MapError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, repository.ErrNoData
	}
	return LoadByDevEUI(ctx, conn, d.DevEUI)
}

// UpdateState stores the network state after an uplink received at lastSeen.
func UpdateState(
	ctx context.Context,
	conn repository.Querier,
	devEUI lrwn.EUI64,
	state *model.DeviceState,
	lastSeen time.Time,
) error {
	history := state.AdrHistory
	if history == nil {
		history = []adr.UplinkMetaData{}
	}
	cmdTag, err := conn.Exec(ctx, `
		update device set
		dr=$1, tx_power_index=$2, nb_trans=$3, f_cnt_up=$4, adr_history=$5,
		last_seen_at=$6
		where dev_eui=$7
	`,
		int16(state.DR), int16(state.TxPowerIndex), int16(state.NbTrans),
		int64(state.FCntUp), history, lastSeen, devEUI[:])
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNoData
	}
	return nil
}

func DeleteByDevEUI(ctx context.Context, conn repository.Querier, devEUI lrwn.EUI64) (
	int, error,
) {
	cmdTag, err := conn.Exec(ctx, "delete from device where dev_eui=$1", devEUI[:])
	if err != nil {
		return 0, err
	}
	return int(cmdTag.RowsAffected()), nil
}

func readData(row pgx.Row) (*model.Device, error) {
	var item model.Device
	var devEUI []byte
	var dr, txPower, nbTrans int16
	var fCnt int64
	if err := row.Scan(
		&devEUI,
		&item.TenantID,
		&item.TenantExternalID,
		&item.DeviceProfileID,
		&item.Name,
		&item.Description,
		&item.Enabled,
		&item.SkipFCntCheck,
		&item.Variables,
		&item.Tags,
		&dr,
		&txPower,
		&nbTrans,
		&fCnt,
		&item.State.AdrHistory,
		&item.LastSeenAt,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, repository.MapError(err)
	}
	if len(devEUI) != len(item.DevEUI) {
		return nil, fmt.Errorf("invalid dev_eui length %d", len(devEUI))
	}
	copy(item.DevEUI[:], devEUI)
	item.State.DR = uint8(dr)
	item.State.TxPowerIndex = uint8(txPower)
	item.State.NbTrans = uint8(nbTrans)
	item.State.FCntUp = uint32(fCnt)
	return &item, nil
}
