package lsmv1

import "time"

type Tenant struct {
	ExternalID      string    `json:"externalId"`
	Name            string    `json:"name"`
	IsActive        bool      `json:"isActive"`
	CanHaveGateways bool      `json:"canHaveGateways"`
	MaxDeviceCount  uint32    `json:"maxDeviceCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type GetTenantsRequest struct{}

type GetTenantsResponse struct {
	Tenants []*Tenant `json:"tenants"`
}

type GetTenantRequest struct {
	Tenant *TenantSelector `json:"tenant"`
}

type GetTenantResponse struct {
	Tenant *Tenant `json:"tenant"`
}

type CreateTenantRequest struct {
	Name            string `json:"name"`
	APIKey          string `json:"apiKey"`
	IsActive        bool   `json:"isActive"`
	CanHaveGateways bool   `json:"canHaveGateways"`
	MaxDeviceCount  uint32 `json:"maxDeviceCount"`
}

// CreateTenantResponse carries APIKey only when it was generated by the
// server. It is not retrievable later.
type CreateTenantResponse struct {
	Tenant *Tenant `json:"tenant"`
	APIKey string  `json:"apiKey,omitempty"`
}

// UpdateTenantRequest replaces the flags of a tenant. Empty Name or APIKey
// keep the stored values.
type UpdateTenantRequest struct {
	Tenant          *TenantSelector `json:"tenant"`
	Name            string          `json:"name,omitempty"`
	APIKey          string          `json:"apiKey,omitempty"`
	IsActive        bool            `json:"isActive"`
	CanHaveGateways bool            `json:"canHaveGateways"`
	MaxDeviceCount  uint32          `json:"maxDeviceCount"`
}

type UpdateTenantResponse struct {
	Tenant *Tenant `json:"tenant"`
}

type DeleteTenantRequest struct {
	Tenant *TenantSelector `json:"tenant"`
}

type DeleteTenantResponse struct{}
