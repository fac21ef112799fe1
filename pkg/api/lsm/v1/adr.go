package lsmv1

type AdrAlgorithm struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ListAdrAlgorithmsRequest struct{}

type ListAdrAlgorithmsResponse struct {
	TotalCount uint32          `json:"totalCount"`
	Result     []*AdrAlgorithm `json:"result"`
}

// AdrRequest mirrors the input an ADR algorithm receives.
type AdrRequest struct {
	RegionConfigID     string              `json:"regionConfigId"`
	DevEUI             string              `json:"devEui,omitempty"`
	MacVersion         string              `json:"macVersion,omitempty"`
	RegParamsRevision  string              `json:"regParamsRevision,omitempty"`
	Adr                bool                `json:"adr"`
	DR                 uint32              `json:"dr"`
	TxPowerIndex       uint32              `json:"txPowerIndex"`
	NbTrans            uint32              `json:"nbTrans"`
	MaxTxPowerIndex    *uint32             `json:"maxTxPowerIndex,omitempty"`
	InstallationMargin *float64            `json:"installationMargin,omitempty"`
	MinDR              *uint32             `json:"minDr,omitempty"`
	MaxDR              *uint32             `json:"maxDr,omitempty"`
	SkipFCntCheck      bool                `json:"skipFCntCheck"`
	DeviceVariables    map[string]string   `json:"deviceVariables,omitempty"`
	UplinkHistory      []*UplinkAdrHistory `json:"uplinkHistory,omitempty"`
}

type AdrResult struct {
	DR           uint32 `json:"dr"`
	TxPowerIndex uint32 `json:"txPowerIndex"`
	NbTrans      uint32 `json:"nbTrans"`
}

type SimulateAdrRequest struct {
	AlgorithmID string      `json:"algorithmId"`
	Request     *AdrRequest `json:"request"`
}

type SimulateAdrResponse struct {
	Result *AdrResult `json:"result"`
}
