package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

type Tenant struct {
	ID              uint32
	ExternalID      uuid.UUID
	Name            string
	APIKey          string // sha256 hex of the api key
	Active          bool
	CanHaveGateways bool
	MaxDeviceCount  uint32
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
