package util

import (
	"context"
	"errors"

	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/model"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
)

var ErrTenantSelectorRequired = errors.New("tenant selector is required")

// ResolveTenant returns the tenant for sel. A tenant authentication without
// selector resolves to its own tenant.
//
//nolint:whitespace // can't make both editor and linter happy
func ResolveTenant(
	ctx context.Context,
	r api.TenantRepository,
	sel *lsmv1.TenantSelector,
) (*model.Tenant, error) {
	switch {
	case sel.GetExternalID() != "":
		id, err := ParseUUID("tenant id", sel.GetExternalID())
		if err != nil {
			return nil, err
		}
		return r.LoadByExternalID(ctx, id)
	case sel.GetName() != "":
		return r.LoadByName(ctx, sel.GetName())
	}
	if id, ok := auth.TenantID(auth.FromContext(ctx)); ok {
		return r.LoadByID(ctx, id)
	}
	return nil, InvalidArgument(ErrTenantSelectorRequired)
}
