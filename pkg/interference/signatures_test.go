package interference

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyKnownDevices(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name    string
		freq    float64
		rssi    float64
		pattern string
		want    Type
	}{
		{"microwave by pulsed pattern", 2450, -30, "pulsed", TypeMicrowave},
		{"bluetooth by hopping pattern", 2440, -70, "hopping", TypeBluetooth},
		{"zigbee by periodic pattern", 2425, -75, "periodic", TypeZigbee},
		{"strong pulsed emitter above camera power", 2450, -20, "pulsed", TypeMicrowave},
		{"phone range but continuous pattern", 2445, -38, "continuous", TypeWirelessPhone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.freq, tt.rssi, tt.pattern))
		})
	}
}

func TestClassifyTieBreakIsTableOrder(t *testing.T) {
	c := NewClassifier()

	// At -65 dBm with no temporal information, bluetooth, phone, monitor,
	// camera and zigbee all match with the same score. The earliest table
	// entry wins.
	assert.Equal(t, TypeBluetooth, c.Classify(2440, -65, "unknown"))
}

func TestClassifyBandFallbacks(t *testing.T) {
	c := NewClassifier()

	// Too weak for any signature, still in the 2.4 GHz band.
	assert.Equal(t, TypeOther24G, c.Classify(2450, -95, "unknown"))
	assert.Equal(t, TypeOther5G, c.Classify(5500, -60, "unknown"))
	assert.Equal(t, TypeUnknown, c.Classify(900, -50, "unknown"))
}

func TestClassifyPatternBonusOutranksTableOrder(t *testing.T) {
	c := NewClassifier()

	// Zigbee is the last table entry but the only one whose pattern
	// matches, so its bonus wins over earlier plain matches.
	assert.Equal(t, TypeZigbee, c.Classify(2430, -70, "periodic"))
}
