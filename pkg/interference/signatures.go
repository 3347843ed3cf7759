package interference

// Signature describes the frequency/power/temporal footprint of a known
// interferer class.
type Signature struct {
	Type     Type
	FreqMin  float64 // MHz
	FreqMax  float64 // MHz
	PowerMin float64 // dBm
	PowerMax float64 // dBm
	Pattern  string  // temporal pattern: pulsed, hopping, continuous, periodic
}

// defaultSignatures is the classification table in declared match order.
// The order is a deliberate constant: when two signatures score equally for
// a borderline sample (bluetooth and zigbee share spectrum with different
// power bands), the earlier entry wins. Keep new entries at the end unless
// they must outrank an existing overlap.
var defaultSignatures = []Signature{
	{TypeMicrowave, 2400, 2500, -50, 0, "pulsed"},
	{TypeBluetooth, 2402, 2480, -90, -50, "hopping"},
	{TypeWirelessPhone, 2400, 2483.5, -75, -35, "continuous"},
	{TypeBabyMonitor, 2400, 2483.5, -70, -40, "continuous"},
	{TypeWirelessCamera, 2400, 2483.5, -65, -30, "continuous"},
	{TypeZigbee, 2405, 2480, -90, -60, "periodic"},
}

const patternBonus = 0.5

// Classifier matches an emitter's frequency/power profile against the table
// of known device signatures.
type Classifier struct {
	signatures []Signature
}

// NewClassifier creates a classifier with the built-in signature table.
func NewClassifier() *Classifier {
	return &Classifier{signatures: defaultSignatures}
}

// Classify returns the interferer type whose signature best matches the
// given average frequency (MHz) and power (dBm). A signature is a candidate
// when both values fall inside its ranges; a matching temporal pattern adds
// half a point. The best score wins, earlier table entries win ties. With no
// candidate, the type falls back to the band: other 2.4 GHz, other 5 GHz or
// unknown. Callers without temporal analysis pass pattern "unknown".
func (c *Classifier) Classify(freqAvg, rssiAvg float64, pattern string) Type {
	best := TypeUnknown
	bestScore := 0.0

	for _, sig := range c.signatures {
		if freqAvg < sig.FreqMin || freqAvg > sig.FreqMax {
			continue
		}
		if rssiAvg < sig.PowerMin || rssiAvg > sig.PowerMax {
			continue
		}
		score := 1.0
		if pattern == sig.Pattern {
			score += patternBonus
		}
		if score > bestScore {
			bestScore = score
			best = sig.Type
		}
	}

	if bestScore > 0 {
		return best
	}

	switch {
	case freqAvg >= 2400 && freqAvg <= 2500:
		return TypeOther24G
	case freqAvg >= 5000 && freqAvg <= 6000:
		return TypeOther5G
	default:
		return TypeUnknown
	}
}
