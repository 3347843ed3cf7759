package pathloss

import (
	"fmt"
	"math"

	"github.com/sajari/regression"
)

// CalibrationSample pairs a known transmitter distance with the RSSI measured
// there, typically collected by walking away from a reference AP.
type CalibrationSample struct {
	Distance float64 `json:"distance"` // meters
	RSSI     float64 `json:"rssi"`     // dBm
}

// Calibrate fits a Config to measured samples by least-squares regression of
// rssi = referenceRSSI - 10 * exponent * log10(d / referenceDistance).
// At least two samples at distinct distances are required.
func Calibrate(samples []CalibrationSample, referenceDistance float64) (Config, error) {
	if referenceDistance <= 0 {
		return Config{}, fmt.Errorf("reference distance must be positive, got %g m", referenceDistance)
	}
	if len(samples) < 2 {
		return Config{}, fmt.Errorf("calibration needs at least 2 samples, got %d", len(samples))
	}

	r := new(regression.Regression)
	r.SetObserved("rssi_dbm")
	r.SetVar(0, "log10_distance")

	distinct := make(map[float64]struct{}, len(samples))
	for _, s := range samples {
		if s.Distance <= 0 {
			return Config{}, fmt.Errorf("calibration sample has non-positive distance %g m", s.Distance)
		}
		distinct[s.Distance] = struct{}{}
		r.Train(regression.DataPoint(s.RSSI, []float64{math.Log10(s.Distance / referenceDistance)}))
	}
	if len(distinct) < 2 {
		return Config{}, fmt.Errorf("calibration needs samples at 2 or more distinct distances")
	}

	if err := r.Run(); err != nil {
		return Config{}, fmt.Errorf("regression failed: %w", err)
	}

	// Intercept is the RSSI at the reference distance; the slope is
	// -10 * exponent in the log-distance model.
	cfg := Config{
		Exponent:          -r.Coeff(1) / 10,
		ReferenceDistance: referenceDistance,
		ReferenceRSSI:     r.Coeff(0),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("calibration produced an unusable model: %w", err)
	}

	return cfg, nil
}
