package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNoData             = errors.New("no data found")
	ErrAlreadyExists      = errors.New("entry already exists")
	ErrReferenceViolation = errors.New("reference violation")
	ErrDeviceLimitReached = errors.New("max number of devices for tenant reached")
)

// MapError translates driver errors into the package sentinels.
// Other errors are returned unchanged.
func MapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNoData
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.UniqueViolation:
			return errors.Join(ErrAlreadyExists, err)
		case pgerrcode.ForeignKeyViolation:
			return errors.Join(ErrReferenceViolation, err)
		}
	}
	return err
}
