package region

import "fmt"

type Modulation int

const (
	LoRa Modulation = iota
	FSK
	LrFhss
)

func (m Modulation) String() string {
	switch m {
	case LoRa:
		return "LORA"
	case FSK:
		return "FSK"
	case LrFhss:
		return "LR_FHSS"
	}
	return fmt.Sprintf("Modulation(%d)", int(m))
}

// DataRate describes one entry of a band's data-rate table.
// Only the fields belonging to Modulation are set.
type DataRate struct {
	Uplink     bool
	Downlink   bool
	Modulation Modulation

	SpreadingFactor int
	Bandwidth       uint32

	Bitrate uint32

	CodingRate           string
	OccupiedChannelWidth uint32
}

func loraDR(sf int, bw uint32, up, down bool) DataRate {
	return DataRate{
		Uplink: up, Downlink: down, Modulation: LoRa,
		SpreadingFactor: sf, Bandwidth: bw,
	}
}

func fskDR(bitrate uint32) DataRate {
	return DataRate{Uplink: true, Downlink: true, Modulation: FSK, Bitrate: bitrate}
}

func lrFhssDR(cr string, ocw uint32) DataRate {
	return DataRate{
		Uplink: true, Modulation: LrFhss,
		CodingRate: cr, OccupiedChannelWidth: ocw,
	}
}

// RequiredSNR is the demodulation floor for LoRa data rates.
// Other modulations return 0.
func (d DataRate) RequiredSNR() float64 {
	if d.Modulation != LoRa {
		return 0
	}
	return -7.5 - 2.5*float64(d.SpreadingFactor-7)
}
