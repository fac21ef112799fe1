package pgxrepos

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
)

type txContextKey struct{}

func NewContext(ctx context.Context, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

func FromContext(ctx context.Context) pgx.Tx {
	if ctx == nil {
		return nil
	}
	if tx, ok := ctx.Value(txContextKey{}).(pgx.Tx); ok {
		return tx
	}
	return nil
}

// executor returns the transaction stored in ctx, otherwise fallback.
func executor(ctx context.Context, fallback repository.Querier) repository.Querier {
	if tx := FromContext(ctx); tx != nil {
		return tx
	}
	return fallback
}
