package interference

import "math"

// channels5GHz is the fixed set of 5 GHz channel numbers considered for
// impact mapping, covering UNII-1 through UNII-3 including the DFS range.
var channels5GHz = []int{
	36, 40, 44, 48,
	52, 56, 60, 64,
	100, 104, 108, 112, 116, 120, 124, 128, 132, 136, 140, 144,
	149, 153, 157, 161, 165,
}

// AffectedChannels returns the WiFi channels whose center frequency lies
// within bandwidth MHz of the emitter's average frequency, in ascending
// channel order. 2.4 GHz channels 1-13 use center 2412 + 5*(ch-1); 5 GHz
// channels use center 5000 + 5*ch. Frequencies outside both bands yield an
// empty result.
func AffectedChannels(freqAvg, bandwidth float64) []int {
	if bandwidth <= 0 {
		bandwidth = DefaultClusterBandwidth
	}

	var affected []int

	for ch := 1; ch <= 13; ch++ {
		center := 2412 + 5*float64(ch-1)
		if math.Abs(center-freqAvg) <= bandwidth {
			affected = append(affected, ch)
		}
	}

	for _, ch := range channels5GHz {
		center := 5000 + 5*float64(ch)
		if math.Abs(center-freqAvg) <= bandwidth {
			affected = append(affected, ch)
		}
	}

	return affected
}
