package adr

import (
	"context"
	"fmt"

	"github.com/mpapenbr/lorawan-service-manager/pkg/region"
)

// LoRaLrFhss uses LoRa for spreading factors below 10 and LR-FHSS otherwise.
type LoRaLrFhss struct {
	regions *region.Registry
	lora    *Default
	lrFhss  *LrFhss
}

func NewLoRaLrFhss(regions *region.Registry) *LoRaLrFhss {
	return &LoRaLrFhss{
		regions: regions,
		lora:    NewDefault(regions),
		lrFhss:  NewLrFhss(regions),
	}
}

func (a *LoRaLrFhss) ID() string   { return "lora_lr_fhss" }
func (a *LoRaLrFhss) Name() string { return "LoRa & LR-FHSS ADR algorithm" }

func (a *LoRaLrFhss) Handle(ctx context.Context, req *Request) (*Response, error) {
	reg, err := a.regions.Get(req.RegionConfigID)
	if err != nil {
		return nil, fmt.Errorf("get region config: %w", err)
	}
	loraResp, err := a.lora.Handle(ctx, req)
	if err != nil {
		return nil, err
	}
	lrFhssResp, err := a.lrFhss.Handle(ctx, req)
	if err != nil {
		return nil, err
	}
	dr, err := reg.GetDataRate(loraResp.DR)
	if err != nil {
		return nil, fmt.Errorf("get data-rate: %w", err)
	}
	if dr.Modulation == region.LoRa && dr.SpreadingFactor < 10 {
		return loraResp, nil
	}
	return lrFhssResp, nil
}
