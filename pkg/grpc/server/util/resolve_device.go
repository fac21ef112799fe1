package util

import (
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/mpapenbr/lorawan-service-manager/pkg/lrwn"
)

// ParseUUID returns an InvalidArgument error naming what for bad input.
func ParseUUID(what, s string) (uuid.UUID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.Nil, InvalidArgument(fmt.Errorf("invalid %s %q: %w", what, s, err))
	}
	return id, nil
}

func ParseDevEUI(s string) (lrwn.EUI64, error) {
	eui, err := lrwn.ParseEUI64(s)
	if err != nil {
		return eui, InvalidArgument(fmt.Errorf("invalid devEui %q: %w", s, err))
	}
	return eui, nil
}
