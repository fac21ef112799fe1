//nolint:whitespace // can't make both editor and linter happy
package deviceprofile

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/lorawan-service-manager/pkg/codec"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
)

var selector = `select p.id, p.tenant_id, t.external_id, p.name, p.description,
	p.region, p.mac_version, p.reg_params_revision, p.adr_algorithm_id,
	p.payload_codec_runtime, p.payload_codec_script, p.codec_plugin_id,
	p.uplink_interval_secs, p.measurements, p.auto_detect_measurements, p.tags,
	p.created_at, p.updated_at
	from device_profile p join tenant t on t.id=p.tenant_id`

func Create(
	ctx context.Context,
	conn repository.Querier,
	p *model.DeviceProfile,
) (*model.DeviceProfile, error) {
	row := conn.QueryRow(ctx, `
	insert into device_profile (
		tenant_id, name, description, region, mac_version, reg_params_revision,
		adr_algorithm_id, payload_codec_runtime, payload_codec_script,
		codec_plugin_id, uplink_interval_secs, measurements,
		auto_detect_measurements, tags
	) values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	returning id
	`,
		p.TenantID, p.Name, p.Description, p.Region,
		p.MacVersion.Constant(), p.RegParamsRevision.String(),
		p.AdrAlgorithmID, p.PayloadCodecRuntime.String(), p.PayloadCodecScript,
		p.CodecPluginID, p.UplinkIntervalSecs,
		repository.NonNil(p.Measurements), p.AutoDetectMeasurements,
		repository.NonNil(p.Tags),
	)
	var id uuid.UUID
	if err := row.Scan(&id); err != nil {
		return nil, repository.MapError(err)
	}
	return LoadByID(ctx, conn, id)
}

func LoadByID(ctx context.Context, conn repository.Querier, id uuid.UUID) (
	*model.DeviceProfile, error,
) {
	row := conn.QueryRow(ctx, fmt.Sprintf("%s where p.id=$1", selector), id)
	return readData(row)
}

// LoadByTenant returns the profiles of a tenant ordered by name.
// A limit of 0 returns all entries.
func LoadByTenant(
	ctx context.Context,
	conn repository.Querier,
	tenantID, limit, offset uint32,
) ([]*model.DeviceProfile, error) {
	rows, err := conn.Query(ctx,
		fmt.Sprintf("%s where p.tenant_id=$1 order by p.name, p.id limit $2 offset $3",
			selector),
		tenantID, repository.LimitArg(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ret := make([]*model.DeviceProfile, 0)
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
		"select count(*) from device_profile where tenant_id=$1", tenantID).Scan(&ret)
	return ret, err
}

// Update replaces all mutable attributes. The tenant is not changed.
func Update(
	ctx context.Context,
	conn repository.Querier,
	p *model.DeviceProfile,
) (*model.DeviceProfile, error) {
	cmdTag, err := conn.Exec(ctx, `
		update device_profile set
		name=$1, description=$2, region=$3, mac_version=$4, reg_params_revision=$5,
		adr_algorithm_id=$6, payload_codec_runtime=$7, payload_codec_script=$8,
		codec_plugin_id=$9, uplink_interval_secs=$10, measurements=$11,
		auto_detect_measurements=$12, tags=$13, updated_at=now()
		where id=$14
	`,
		p.Name, p.Description, p.Region,
		p.MacVersion.Constant(), p.RegParamsRevision.String(),
		p.AdrAlgorithmID, p.PayloadCodecRuntime.String(), p.PayloadCodecScript,
		p.CodecPluginID, p.UplinkIntervalSecs,
		repository.NonNil(p.Measurements), p.AutoDetectMeasurements,
		repository.NonNil(p.Tags),
		p.ID)
	if err != nil {
		return nil, repository.MapError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return nil, repository.ErrNoData
	}
	return LoadByID(ctx, conn, p.ID)
}

// AddMeasurements stores the measurements of m which are not yet configured
// for the profile. Existing entries are kept unchanged.
func AddMeasurements(
	ctx context.Context,
	conn repository.Querier,
	id uuid.UUID,
	m map[string]model.Measurement,
) error {
	cmdTag, err := conn.Exec(ctx, `
		update device_profile set
		measurements=$1::jsonb || measurements, updated_at=now()
		where id=$2
	`, repository.NonNil(m), id)
	if err != nil {
		return repository.MapError(err)
	}
	if cmdTag.RowsAffected() == 0 {
		return repository.ErrNoData
	}
	return nil
}

// DeleteByID returns repository.ErrReferenceViolation while devices use the profile.
func DeleteByID(ctx context.Context, conn repository.Querier, id uuid.UUID) (int, error) {
	cmdTag, err := conn.Exec(ctx, "delete from device_profile where id=$1", id)
	if err != nil {
		return 0, repository.MapError(err)
	}
	return int(cmdTag.RowsAffected()), nil
}

func readData(row pgx.Row) (*model.DeviceProfile, error) {
	var item model.DeviceProfile
	var macVersion, regParams, codecRuntime string
	if err := row.Scan(
		&item.ID,
		&item.TenantID,
		&item.TenantExternalID,
		&item.Name,
		&item.Description,
		&item.Region,
		&macVersion,
		&regParams,
		&item.AdrAlgorithmID,
		&codecRuntime,
		&item.PayloadCodecScript,
		&item.CodecPluginID,
		&item.UplinkIntervalSecs,
		&item.Measurements,
		&item.AutoDetectMeasurements,
		&item.Tags,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, repository.MapError(err)
	}
	var err error
	if item.MacVersion, err = lrwn.ParseMacVersion(macVersion); err != nil {
		return nil, err
	}
	if item.RegParamsRevision, err = lrwn.ParseRegParamsRevision(regParams); err != nil {
		return nil, err
	}
	if item.PayloadCodecRuntime, err = codec.ParseCodec(codecRuntime); err != nil {
		return nil, err
	}
	return &item, nil
}
