package region

func newEU868() *Band {
	drs := loraTable125(12, 6)
	drs[6] = loraDR(7, 250000, true, true)
	drs[7] = fskDR(50000)
	drs[8] = lrFhssDR("2/6", 137000)
	drs[9] = lrFhssDR("4/6", 137000)
	drs[10] = lrFhssDR("2/6", 336000)
	drs[11] = lrFhssDR("4/6", 336000)
	return &Band{
		name:           EU868,
		dataRates:      drs,
		txPowerOffsets: txPowerOffsets(8),
		uplinkChannels: []Channel{
			{Frequency: 868100000, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 868300000, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 868500000, MinDR: 0, MaxDR: 5, Enabled: true},
		},
		supportsUserChannels: true,
	}
}

func newUS915() *Band {
	drs := uplinkOnly(loraTable125(10, 4))
	drs[4] = loraDR(8, 500000, true, false)
	drs[5] = lrFhssDR("2/6", 1523000)
	drs[6] = lrFhssDR("4/6", 1523000)
	addDownlink500(drs)
	channels := make([]Channel, 0, 72)
	for i := 0; i < 64; i++ {
		channels = append(channels, Channel{
			Frequency: uint32(902300000 + i*200000), MinDR: 0, MaxDR: 3, Enabled: true,
		})
	}
	for i := 0; i < 8; i++ {
		channels = append(channels, Channel{
			Frequency: uint32(903000000 + i*1600000), MinDR: 4, MaxDR: 4, Enabled: true,
		})
	}
	return &Band{
		name:           US915,
		dataRates:      drs,
		txPowerOffsets: txPowerOffsets(11),
		uplinkChannels: channels,
	}
}

func newAU915() *Band {
	drs := uplinkOnly(loraTable125(12, 6))
	drs[6] = loraDR(8, 500000, true, false)
	drs[7] = lrFhssDR("2/6", 1523000)
	addDownlink500(drs)
	channels := make([]Channel, 0, 72)
	for i := 0; i < 64; i++ {
		channels = append(channels, Channel{
			Frequency: uint32(915200000 + i*200000), MinDR: 0, MaxDR: 5, Enabled: true,
		})
	}
	for i := 0; i < 8; i++ {
		channels = append(channels, Channel{
			Frequency: uint32(915900000 + i*1600000), MinDR: 6, MaxDR: 6, Enabled: true,
		})
	}
	return &Band{
		name:           AU915,
		dataRates:      drs,
		txPowerOffsets: txPowerOffsets(15),
		uplinkChannels: channels,
	}
}

func newAS923() *Band {
	drs := loraTable125(12, 6)
	drs[6] = loraDR(7, 250000, true, true)
	drs[7] = fskDR(50000)
	return &Band{
		name:           AS923,
		dataRates:      drs,
		txPowerOffsets: txPowerOffsets(8),
		uplinkChannels: []Channel{
			{Frequency: 923200000, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 923400000, MinDR: 0, MaxDR: 5, Enabled: true},
		},
		supportsUserChannels: true,
	}
}

func newIN865() *Band {
	drs := loraTable125(12, 6)
	drs[7] = fskDR(50000)
	return &Band{
		name:           IN865,
		dataRates:      drs,
		txPowerOffsets: txPowerOffsets(11),
		uplinkChannels: []Channel{
			{Frequency: 865062500, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 865402500, MinDR: 0, MaxDR: 5, Enabled: true},
			{Frequency: 865985000, MinDR: 0, MaxDR: 5, Enabled: true},
		},
		supportsUserChannels: true,
	}
}

// US915 and AU915 use dedicated 500kHz downlink data-rates DR8 - DR13.
func addDownlink500(drs map[uint8]DataRate) {
	for i := 0; i < 6; i++ {
		drs[uint8(8+i)] = loraDR(12-i, 500000, false, true)
	}
}

func uplinkOnly(drs map[uint8]DataRate) map[uint8]DataRate {
	for k, d := range drs {
		d.Downlink = false
		drs[k] = d
	}
	return drs
}
