// Package lsmv1 holds the request and response messages of the lsm API.
// Messages are plain structs carried as JSON by the codec in lsmv1connect.
package lsmv1

// TenantSelector identifies a tenant either by external id or by name.
// ExternalID takes precedence when both are set.
type TenantSelector struct {
	ExternalID string `json:"externalId,omitempty"`
	Name       string `json:"name,omitempty"`
}

func TenantByExternalID(id string) *TenantSelector {
	return &TenantSelector{ExternalID: id}
}

func TenantByName(name string) *TenantSelector {
	return &TenantSelector{Name: name}
}

func (s *TenantSelector) GetExternalID() string {
	if s == nil {
		return ""
	}
	return s.ExternalID
}

func (s *TenantSelector) GetName() string {
	if s == nil {
		return ""
	}
	return s.Name
}

// Paging is shared by the list requests.
type Paging struct {
	Limit  uint32 `json:"limit,omitempty"`
	Offset uint32 `json:"offset,omitempty"`
}
