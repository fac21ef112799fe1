package pgxrepos

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository"
	"github.com/mpapenbr/lorawan-service-manager/pkg/grpc/repository/api"
)

type pgxTransaction struct {
	db repository.DB
}

var _ api.TransactionManager = (*pgxTransaction)(nil)

func NewTransactionManager(db repository.DB) api.TransactionManager {
	return &pgxTransaction{db: db}
}

// the contract with the repositories is:
// we put the current transaction into the context, the repository should first look
// in the context for a transaction and then use it to execute queries.
// Nested calls join the outer transaction.
//
//nolint:whitespace //editor/linter issue
func (p *pgxTransaction) RunInTx(
	ctx context.Context,
	fn func(ctx context.Context) error,
) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if FromContext(ctx) != nil {
		return fn(ctx)
	}
	return pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		return fn(NewContext(ctx, tx))
	})
}
