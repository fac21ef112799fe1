package region

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mpapenbr/lorawan-service-manager/log"
	"github.com/mpapenbr/lorawan-service-manager/pkg/config"
)

var ErrUnknownRegion = errors.New("unknown region")

// Region is a configured band instance. Several regions may share a band
// with different channel plans.
type Region struct {
	*Band
	ID                 string
	InstallationMargin float64
	MinDR              uint8
	MaxDR              uint8
}

type Registry struct {
	mu      sync.RWMutex
	regions map[string]*Region
}

func NewRegistry(cfgs []config.RegionConfig) (*Registry, error) {
	l := log.Default().Named("region")
	r := &Registry{regions: map[string]*Region{}}
	for _, c := range cfgs {
		region, err := newRegion(c)
		if err != nil {
			return nil, fmt.Errorf("region %s: %w", c.ID, err)
		}
		l.Info("Region configured",
			log.String("id", region.ID),
			log.String("band", string(region.CommonName())),
			log.Uint8s("uplinkDataRates", region.GetEnabledUplinkDataRates()))
		r.regions[region.ID] = region
	}
	return r, nil
}

func newRegion(c config.RegionConfig) (*Region, error) {
	band, err := NewBand(CommonName(c.CommonName))
	if err != nil {
		return nil, err
	}
	for _, ch := range c.ExtraChannels {
		if err := band.AddChannel(ch.Frequency, ch.MinDR, ch.MaxDR); err != nil {
			return nil, err
		}
	}
	if len(c.EnabledUplinkChannels) > 0 {
		if err := band.EnableUplinkChannels(c.EnabledUplinkChannels); err != nil {
			return nil, err
		}
	}
	id := c.ID
	if id == "" {
		id = string(band.CommonName())
	}
	maxDR := c.MaxDR
	if maxDR == 0 {
		if drs := band.GetEnabledUplinkDataRates(); len(drs) > 0 {
			maxDR = drs[len(drs)-1]
		}
	}
	return &Region{
		Band:               band,
		ID:                 id,
		InstallationMargin: c.InstallationMargin,
		MinDR:              c.MinDR,
		MaxDR:              maxDR,
	}, nil
}

func (r *Registry) Get(id string) (*Region, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ret, ok := r.regions[id]; ok {
		return ret, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownRegion, id)
}

func (r *Registry) List() []*Region {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]*Region, 0, len(r.regions))
	for _, v := range r.regions {
		ret = append(ret, v)
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].ID < ret[j].ID })
	return ret
}
