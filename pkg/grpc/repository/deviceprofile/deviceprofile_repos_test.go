//nolint:funlen,errcheck //ok for this test code
package deviceprofile

import (
	"context"
	"log"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"

	"github.com/mpapenbr/lorawan-service-manager/pkg/codec"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
	tenantrepos "github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/tenant"
	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
	"github.com/mpapenbr/lorawan-service-manager/testsupport/basedata"
	"github.com/mpapenbr/lorawan-service-manager/testsupport/testdb"
)

var ignoreTimestamps = cmpopts.IgnoreFields(model.DeviceProfile{},
	"CreatedAt", "UpdatedAt")

func createSampleEntry(db *pgxpool.Pool) (*model.Tenant, *model.DeviceProfile) {
	ctx := context.Background()
	var tenant *model.Tenant
	var ret *model.DeviceProfile
	err := pgx.BeginFunc(ctx, db, func(tx pgx.Tx) error {
		var err error
		if tenant, err = tenantrepos.Create(ctx, tx, basedata.SampleTenant()); err != nil {
			return err
		}
		ret, err = Create(ctx, tx, basedata.SampleDeviceProfile(tenant.ID))
		return err
	})
	if err != nil {
		log.Fatalf("createSampleEntry: %v\n", err)
	}
	return tenant, ret
}

func TestCreate(t *testing.T) {
	pool := testdb.InitTestDb()
	tenant, sample := createSampleEntry(pool)

	want := basedata.SampleDeviceProfile(tenant.ID)
	want.ID = sample.ID
	want.TenantExternalID = tenant.ExternalID
	if diff := cmp.Diff(want, sample, ignoreTimestamps); diff != "" {
		t.Errorf("Create() mismatch (-want +got):\n%s", diff)
	}

	_, err := Create(context.Background(), pool, basedata.SampleDeviceProfile(999))
	assert.ErrorIs(t, err, repository.ErrReferenceViolation, "unknown tenant")
}

func TestLoadByID(t *testing.T) {
	pool := testdb.InitTestDb()
	_, sample := createSampleEntry(pool)
	tests := []struct {
		name    string
		id      uuid.UUID
		want    *model.DeviceProfile
		wantErr error
	}{
		{name: "existing entry", id: sample.ID, want: sample},
		{name: "unknown entry", id: uuid.Must(uuid.NewV4()), wantErr: repository.ErrNoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			pool.AcquireFunc(ctx, func(c *pgxpool.Conn) error {
				got, err := LoadByID(ctx, c.Conn(), tt.id)
				assert.ErrorIs(t, err, tt.wantErr)
				if diff := cmp.Diff(tt.want, got, ignoreTimestamps); diff != "" {
					t.Errorf("LoadByID() mismatch (-want +got):\n%s", diff)
				}
				return nil
			})
		})
	}
}

func TestLoadByTenant(t *testing.T) {
	pool := testdb.InitTestDb()
	tenant, _ := createSampleEntry(pool)
	ctx := context.Background()
	for _, name := range []string{"c-profile", "a-profile"} {
		p := basedata.SampleDeviceProfile(tenant.ID)
		p.Name = name
		_, err := Create(ctx, pool, p)
		assert.NoError(t, err)
	}
	names := func(items []*model.DeviceProfile) []string {
		ret := []string{}
		for _, item := range items {
			ret = append(ret, item.Name)
		}
		return ret
	}
	tests := []struct {
		name   string
		limit  uint32
		offset uint32
		want   []string
	}{
		{"all", 0, 0, []string{"a-profile", "c-profile", "testprofile"}},
		{"first page", 2, 0, []string{"a-profile", "c-profile"}},
		{"second page", 2, 2, []string{"testprofile"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadByTenant(ctx, pool, tenant.ID, tt.limit, tt.offset)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, names(got))
		})
	}
	count, err := CountByTenant(ctx, pool, tenant.ID)
	assert.NoError(t, err)
	assert.Equal(t, uint32(3), count)
}

func TestUpdate(t *testing.T) {
	pool := testdb.InitTestDb()
	_, sample := createSampleEntry(pool)
	ctx := context.Background()

	sample.Name = "updated"
	sample.MacVersion = lrwn.LoRaWAN1_1_0
	sample.RegParamsRevision = lrwn.RegParamsRP002_1_0_3
	sample.PayloadCodecRuntime = codec.JS
	sample.PayloadCodecScript = "function decodeUplink(input) { return {data: {}}; }"
	sample.AdrAlgorithmID = "lr_fhss"
	sample.Measurements = nil
	sample.AutoDetectMeasurements = true
	sample.Tags = map[string]string{"a": "b"}
	got, err := Update(ctx, pool, sample)
	assert.NoError(t, err)

	sample.Measurements = map[string]model.Measurement{}
	if diff := cmp.Diff(sample, got, ignoreTimestamps); diff != "" {
		t.Errorf("Update() mismatch (-want +got):\n%s", diff)
	}

	sample.ID = uuid.Must(uuid.NewV4())
	_, err = Update(ctx, pool, sample)
	assert.ErrorIs(t, err, repository.ErrNoData)
}

func TestAddMeasurements(t *testing.T) {
	pool := testdb.InitTestDb()
	_, sample := createSampleEntry(pool)
	ctx := context.Background()

	err := AddMeasurements(ctx, pool, sample.ID, map[string]model.Measurement{
		"temperatureSensor.3": {Kind: "UNKNOWN"},
		"['battery level']":   {Kind: "UNKNOWN"},
	})
	assert.NoError(t, err)

	got, err := LoadByID(ctx, pool, sample.ID)
	assert.NoError(t, err)
	assert.Equal(t, map[string]model.Measurement{
		"temperatureSensor.3": {Name: "temperature", Kind: "GAUGE"},
		"['battery level']":   {Kind: "UNKNOWN"},
	}, got.Measurements, "configured entries are kept")

	err = AddMeasurements(ctx, pool, uuid.Must(uuid.NewV4()), nil)
	assert.ErrorIs(t, err, repository.ErrNoData)
}

func TestDeleteByID(t *testing.T) {
	pool := testdb.InitTestDb()
	_, sample := createSampleEntry(pool)
	ctx := context.Background()

	got, err := DeleteByID(ctx, pool, sample.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, got)

	got, err = DeleteByID(ctx, pool, sample.ID)
	assert.NoError(t, err)
	assert.Equal(t, 0, got)
}
