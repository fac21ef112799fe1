package adr

import (
	"github.com/mpapenbr/lorawan-service-manager/pkg/adr"
	lsmv1 "github.com/mpapenbr/lorawan-service-manager/pkg/api/lsm/v1"
)

func ToResult(r *adr.Response) *lsmv1.AdrResult {
	return &lsmv1.AdrResult{
		DR:           uint32(r.DR),
		TxPowerIndex: uint32(r.TxPowerIndex),
		NbTrans:      uint32(r.NbTrans),
	}
}

func ToAlgorithms(algos []adr.Algorithm) *lsmv1.ListAdrAlgorithmsResponse {
	ret := make([]*lsmv1.AdrAlgorithm, len(algos))
	for i, a := range algos {
		ret[i] = &lsmv1.AdrAlgorithm{ID: a.ID, Name: a.Name}
	}
	return &lsmv1.ListAdrAlgorithmsResponse{
		TotalCount: uint32(len(ret)),
		Result:     ret,
	}
}
