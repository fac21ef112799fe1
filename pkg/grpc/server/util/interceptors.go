package util

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	"github.com/mpapenbr/lorawan-service-manager/pkg/codec"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/auth"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
	"github.com/mpapenbr/lorawan-service-manager/pkg/jsrt"
	"github.com/mpapenbr/lorawan-service-manager/pkg/processing"
	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
)

var errorCodes = []struct {
	err  error
	code connect.Code
}{
	{repository.ErrNoData, connect.CodeNotFound},
	{repository.ErrAlreadyExists, connect.CodeAlreadyExists},
	{repository.ErrReferenceViolation, connect.CodeFailedPrecondition},
	{repository.ErrDeviceLimitReached, connect.CodeResourceExhausted},
	{auth.ErrPermissionDenied, connect.CodePermissionDenied},
	{region.ErrUnknownRegion, connect.CodeInvalidArgument},
	{region.ErrUnknownDataRate, connect.CodeInvalidArgument},
	{adr.ErrUnknownAlgorithm, connect.CodeInvalidArgument},
	{codec.ErrUnknownPlugin, connect.CodeInvalidArgument},
	{jsrt.ErrExecutionTimeout, connect.CodeDeadlineExceeded},
	{processing.ErrDeviceDisabled, connect.CodeFailedPrecondition},
	{processing.ErrRateLimited, connect.CodeResourceExhausted},
	{processing.ErrFCntNotNewer, connect.CodeInvalidArgument},
}

// MapError converts errors of the lower layers into connect errors.
// Errors which already are connect errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	var ce *connect.Error
	if errors.As(err, &ce) {
		return err
	}
	for _, e := range errorCodes {
		if errors.Is(err, e.err) {
			return connect.NewError(e.code, err)
		}
	}
	return connect.NewError(connect.CodeInternal, err)
}

// InvalidArgument is a shortcut for validation errors.
func InvalidArgument(err error) error {
	return connect.NewError(connect.CodeInvalidArgument, err)
}

type errorMapper struct {
	l *log.Logger
}

// NewErrorInterceptor maps handler errors via MapError.
// Internal errors are logged since their details are sent to the client.
func NewErrorInterceptor() connect.Interceptor {
	return &errorMapper{l: log.Default().Named("grpc.errors")}
}

func (i *errorMapper) mapped(procedure string, err error) error {
	if err == nil {
		return nil
	}
	ret := MapError(err)
	if connect.CodeOf(ret) == connect.CodeInternal {
		i.l.Error("internal error",
			log.String("procedure", procedure),
			log.ErrorField(err))
	}
	return ret
}

//nolint:whitespace // better readability
func (i *errorMapper) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return connect.UnaryFunc(func(
		ctx context.Context,
		req connect.AnyRequest,
	) (connect.AnyResponse, error) {
		res, err := next(ctx, req)
		if err != nil {
			return nil, i.mapped(req.Spec().Procedure, err)
		}
		return res, nil
	})
}

//
//nolint:whitespace // readablity, editor/linter
func (i *errorMapper) WrapStreamingClient(
	next connect.StreamingClientFunc,
) connect.StreamingClientFunc {
	return next
}

//
//nolint:whitespace // readablity, editor/linter
func (i *errorMapper) WrapStreamingHandler(
	next connect.StreamingHandlerFunc,
) connect.StreamingHandlerFunc {
	return connect.StreamingHandlerFunc(func(
		ctx context.Context,
		conn connect.StreamingHandlerConn,
	) error {
		return i.mapped(conn.Spec().Procedure, next(ctx, conn))
	})
}
