package util

import (
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"gotest.tools/v3/assert"

	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
	"github.com/mpapenbr/lorawan-service-manager/pkg/processing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want connect.Code
	}{
		{"no data", fmt.Errorf("load: %w", repository.ErrNoData), connect.CodeNotFound},
		{"exists", repository.ErrAlreadyExists, connect.CodeAlreadyExists},
		{"referenced", repository.ErrReferenceViolation, connect.CodeFailedPrecondition},
		{"limit", repository.ErrDeviceLimitReached, connect.CodeResourceExhausted},
		{"permission", auth.ErrPermissionDenied, connect.CodePermissionDenied},
		{"adr", adr.ErrUnknownAlgorithm, connect.CodeInvalidArgument},
		{"disabled", processing.ErrDeviceDisabled, connect.CodeFailedPrecondition},
		{"rate limit", processing.ErrRateLimited, connect.CodeResourceExhausted},
		{"other", errors.New("boom"), connect.CodeInternal},
		{
			"connect error kept",
			connect.NewError(connect.CodeUnavailable, errors.New("x")),
			connect.CodeUnavailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			assert.Equal(t, connect.CodeOf(got), tt.want)
			assert.ErrorIs(t, got, tt.err)
		})
	}
	assert.NilError(t, MapError(nil))
}

func TestParse(t *testing.T) {
	_, err := ParseUUID("profile id", "nope")
	assert.Equal(t, connect.CodeOf(err), connect.CodeInvalidArgument)
	_, err = ParseDevEUI("0102")
	assert.Equal(t, connect.CodeOf(err), connect.CodeInvalidArgument)
	eui, err := ParseDevEUI("0102030405060708")
	assert.NilError(t, err)
	assert.Equal(t, eui.String(), "0102030405060708")
}
