package util

import (
	"context"
	"errors"

	"connectrpc.com/connect"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/lorawan-service-manager/log"
)

type traceIDInjector struct {
	l *log.Logger
}

// NewTraceIDInterceptor returns the trace id in the X-Trace-ID response header
// (error metadata for failed calls) and puts a logger carrying the trace id
// into the handler context.
func NewTraceIDInterceptor() connect.Interceptor {
	return &traceIDInjector{l: log.Default().Named("grpc")}
}

const (
	traceIDHeader = "X-Trace-ID"
)

func (i *traceIDInjector) traceID(ctx context.Context) (context.Context, string) {
	span := trace.SpanFromContext(ctx)
	if span == nil || !span.SpanContext().IsValid() {
		return ctx, ""
	}
	traceID := span.SpanContext().TraceID().String()
	return log.AddToContext(ctx, i.l.With(log.String("traceId", traceID))), traceID
}

//nolint:whitespace // better readability
func (i *traceIDInjector) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return connect.UnaryFunc(func(
		ctx context.Context,
		req connect.AnyRequest,
	) (connect.AnyResponse, error) {
		ctx, traceID := i.traceID(ctx)
		res, err := next(ctx, req)
		if traceID == "" {
			return res, err
		}
		if err != nil {
			var ce *connect.Error
			if errors.As(err, &ce) {
				ce.Meta().Set(traceIDHeader, traceID)
			}
			return res, err
		}
		res.Header().Set(traceIDHeader, traceID)
		return res, nil
	})
}

//
//nolint:lll,whitespace // readablity, editor/linter
func (i *traceIDInjector) WrapStreamingClient(
	next connect.StreamingClientFunc,
) connect.StreamingClientFunc {
	return next
}

//
//nolint:lll,whitespace // readablity, editor/linter
func (i *traceIDInjector) WrapStreamingHandler(
	next connect.StreamingHandlerFunc,
) connect.StreamingHandlerFunc {
	return connect.StreamingHandlerFunc(func(
		ctx context.Context,
		conn connect.StreamingHandlerConn,
	) error {
		ctx, traceID := i.traceID(ctx)
		if traceID != "" {
			conn.ResponseHeader().Set(traceIDHeader, traceID)
		}
		return next(ctx, conn)
	})
}
