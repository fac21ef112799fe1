package testdb

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	tcpg "github.com/mpapenbr/lorawan-service-manager/testsupport/tcpostgres"
)

// tables in deletion order
var tables = []string{"device", "device_profile", "tenant"}

// InitTestDb returns a pool to a migrated, empty database.
func InitTestDb() *pgxpool.Pool {
	pool := tcpg.SetupTestDb()
	ctx := context.Background()
	if err := pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		for _, table := range tables {
			if _, err := tx.Exec(ctx, "delete from "+table); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		log.Fatalf("initTestDb: %v\n", err)
	}
	return pool
}
