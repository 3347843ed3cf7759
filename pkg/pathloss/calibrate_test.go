package pathloss

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalibrateRecoversKnownModel(t *testing.T) {
	truth, err := NewModel(Config{Exponent: 2.7, ReferenceDistance: 1.0, ReferenceRSSI: -41.0})
	require.NoError(t, err)

	var samples []CalibrationSample
	for _, d := range []float64{1, 2, 4, 8, 16} {
		samples = append(samples, CalibrationSample{Distance: d, RSSI: truth.DistanceToRSSI(d)})
	}

	cfg, err := Calibrate(samples, 1.0)
	require.NoError(t, err)

	assert.InDelta(t, 2.7, cfg.Exponent, 1e-6)
	assert.InDelta(t, -41.0, cfg.ReferenceRSSI, 1e-6)
	assert.Equal(t, 1.0, cfg.ReferenceDistance)
}

func TestCalibrateWithNoisySamples(t *testing.T) {
	// Hand-jittered readings around a 3.0 exponent at -40 dBm reference.
	samples := []CalibrationSample{
		{Distance: 1, RSSI: -39.2},
		{Distance: 2, RSSI: -49.5},
		{Distance: 4, RSSI: -58.1},
		{Distance: 8, RSSI: -67.4},
	}

	cfg, err := Calibrate(samples, 1.0)
	require.NoError(t, err)

	assert.InDelta(t, 3.0, cfg.Exponent, 0.3)
	assert.InDelta(t, -40.0, cfg.ReferenceRSSI, 2.0)
}

func TestCalibrateRejectsBadInput(t *testing.T) {
	_, err := Calibrate(nil, 1.0)
	assert.Error(t, err)

	_, err = Calibrate([]CalibrationSample{{Distance: 1, RSSI: -40}}, 1.0)
	assert.Error(t, err)

	_, err = Calibrate([]CalibrationSample{
		{Distance: 1, RSSI: -40},
		{Distance: 2, RSSI: -46},
	}, 0)
	assert.Error(t, err)

	_, err = Calibrate([]CalibrationSample{
		{Distance: -1, RSSI: -40},
		{Distance: 2, RSSI: -46},
	}, 1.0)
	assert.Error(t, err)

	// Same spot twice cannot determine a slope.
	_, err = Calibrate([]CalibrationSample{
		{Distance: 3, RSSI: -50},
		{Distance: 3, RSSI: -51},
	}, 1.0)
	assert.Error(t, err)
}

func TestCalibrateRejectsNonPhysicalFit(t *testing.T) {
	// Signal getting stronger with distance fits a negative exponent.
	_, err := Calibrate([]CalibrationSample{
		{Distance: 1, RSSI: -60},
		{Distance: 10, RSSI: -40},
	}, 1.0)
	assert.Error(t, err)
}
