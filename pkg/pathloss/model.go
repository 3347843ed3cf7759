package pathloss

import (
	"fmt"
	"math"
)

// Config holds the parameters of the log-distance propagation model.
// The exponent describes how fast power decays with distance: 2.0 is free
// space, 3-4 is typical indoors.
type Config struct {
	Exponent          float64 `json:"path_loss_exponent" mapstructure:"path_loss_exponent"`
	ReferenceDistance float64 `json:"reference_distance" mapstructure:"reference_distance"`
	ReferenceRSSI     float64 `json:"reference_rssi" mapstructure:"reference_rssi"`
}

// DefaultConfig returns the free-space defaults calibrated at 1 m / -40 dBm.
func DefaultConfig() Config {
	return Config{
		Exponent:          2.0,
		ReferenceDistance: 1.0,
		ReferenceRSSI:     -40.0,
	}
}

// Validate rejects non-physical configurations. This is the only condition
// in the locator core that surfaces as a hard error.
func (c Config) Validate() error {
	if c.Exponent <= 0 {
		return fmt.Errorf("path loss exponent must be positive, got %g", c.Exponent)
	}
	if c.ReferenceDistance <= 0 {
		return fmt.Errorf("reference distance must be positive, got %g m", c.ReferenceDistance)
	}
	return nil
}

// Model converts between received power and distance using the log-distance
// path loss formula. Both directions are pure functions.
type Model struct {
	cfg Config
}

// NewModel creates a propagation model, validating the configuration.
func NewModel(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid path loss config: %w", err)
	}
	return &Model{cfg: cfg}, nil
}

// Config returns the model parameters.
func (m *Model) Config() Config {
	return m.cfg
}

// RSSIToDistance estimates the distance in meters at which a signal of the
// given strength would be received. Signals at or above the reference RSSI
// report the reference distance: the model cannot resolve anything closer
// than its calibration point.
func (m *Model) RSSIToDistance(rssi float64) float64 {
	if rssi >= m.cfg.ReferenceRSSI {
		return m.cfg.ReferenceDistance
	}
	return m.cfg.ReferenceDistance * math.Pow(10, (m.cfg.ReferenceRSSI-rssi)/(10*m.cfg.Exponent))
}

// DistanceToRSSI predicts the received power in dBm at the given distance.
// Non-positive distances report the reference RSSI.
func (m *Model) DistanceToRSSI(distance float64) float64 {
	if distance <= 0 {
		return m.cfg.ReferenceRSSI
	}
	return m.cfg.ReferenceRSSI - 10*m.cfg.Exponent*math.Log10(distance/m.cfg.ReferenceDistance)
}
