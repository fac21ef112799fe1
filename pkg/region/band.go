package region

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type CommonName string

const (
	EU868 CommonName = "EU868"
	US915 CommonName = "US915"
	AU915 CommonName = "AU915"
	AS923 CommonName = "AS923"
	IN865 CommonName = "IN865"
)

var (
	ErrUnknownBand               = errors.New("unknown band")
	ErrUnknownDataRate           = errors.New("unknown data-rate index")
	ErrUserChannelsNotSupported  = errors.New("user defined channels are not supported for this band")
	ErrUnknownTxPowerIndex       = errors.New("unknown tx power index")
	ErrInvalidUplinkChannelIndex = errors.New("invalid uplink channel index")
)

type Channel struct {
	Frequency   uint32
	MinDR       uint8
	MaxDR       uint8
	Enabled     bool
	UserDefined bool
}

// Band holds the regional parameters of one LoRaWAN band.
type Band struct {
	name                 CommonName
	dataRates            map[uint8]DataRate
	txPowerOffsets       []int
	uplinkChannels       []Channel
	supportsUserChannels bool
}

// NewBand returns a fresh copy of the band tables, channels may be
// modified without affecting other instances.
func NewBand(name CommonName) (*Band, error) {
	switch CommonName(strings.ToUpper(string(name))) {
	case EU868:
		return newEU868(), nil
	case US915:
		return newUS915(), nil
	case AU915:
		return newAU915(), nil
	case AS923:
		return newAS923(), nil
	case IN865:
		return newIN865(), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownBand, name)
}

func (b *Band) CommonName() CommonName {
	return b.name
}

func (b *Band) GetDataRate(dr uint8) (DataRate, error) {
	if d, ok := b.dataRates[dr]; ok {
		return d, nil
	}
	return DataRate{}, fmt.Errorf("%w: %d", ErrUnknownDataRate, dr)
}

// GetEnabledUplinkDataRates returns the sorted data-rates usable by at
// least one enabled uplink channel.
func (b *Band) GetEnabledUplinkDataRates() []uint8 {
	seen := map[uint8]bool{}
	ret := []uint8{}
	for _, c := range b.uplinkChannels {
		if !c.Enabled {
			continue
		}
		for dr := int(c.MinDR); dr <= int(c.MaxDR); dr++ {
			if !seen[uint8(dr)] {
				seen[uint8(dr)] = true
				ret = append(ret, uint8(dr))
			}
		}
	}
	slices.Sort(ret)
	return ret
}

// AddChannel adds a user defined uplink channel. A zero frequency adds a
// disabled placeholder.
func (b *Band) AddChannel(frequency uint32, minDR, maxDR uint8) error {
	if !b.supportsUserChannels {
		return ErrUserChannelsNotSupported
	}
	b.uplinkChannels = append(b.uplinkChannels, Channel{
		Frequency:   frequency,
		MinDR:       minDR,
		MaxDR:       maxDR,
		Enabled:     frequency != 0,
		UserDefined: true,
	})
	return nil
}

// EnableUplinkChannels enables the given channel indices and disables all others.
func (b *Band) EnableUplinkChannels(indices []int) error {
	for _, i := range indices {
		if i < 0 || i >= len(b.uplinkChannels) {
			return fmt.Errorf("%w: %d", ErrInvalidUplinkChannelIndex, i)
		}
	}
	for i := range b.uplinkChannels {
		b.uplinkChannels[i].Enabled = slices.Contains(indices, i)
	}
	return nil
}

func (b *Band) UplinkChannels() []Channel {
	return slices.Clone(b.uplinkChannels)
}

func (b *Band) GetMaxTxPowerIndex() uint8 {
	return uint8(len(b.txPowerOffsets) - 1)
}

func (b *Band) GetTxPowerOffset(i uint8) (int, error) {
	if int(i) >= len(b.txPowerOffsets) {
		return 0, fmt.Errorf("%w: %d", ErrUnknownTxPowerIndex, i)
	}
	return b.txPowerOffsets[i], nil
}

// RequiredSNRForDR returns the SNR needed to demodulate the given data-rate.
func (b *Band) RequiredSNRForDR(dr uint8) (float64, error) {
	d, err := b.GetDataRate(dr)
	if err != nil {
		return 0, err
	}
	return d.RequiredSNR(), nil
}

func txPowerOffsets(n int) []int {
	ret := make([]int, n)
	for i := range ret {
		ret[i] = -2 * i
	}
	return ret
}

func loraTable125(maxSF int, count int) map[uint8]DataRate {
	ret := map[uint8]DataRate{}
	for i := 0; i < count; i++ {
		ret[uint8(i)] = loraDR(maxSF-i, 125000, true, true)
	}
	return ret
}
