package survey

import "time"

// MeasurementPoint is a single hand-collected sample: where the reading was
// taken, how strong the signal was and on which frequency. Points are
// immutable once stored.
type MeasurementPoint struct {
	X         float64   `json:"x"`         // meters, local coordinate frame
	Y         float64   `json:"y"`         // meters, local coordinate frame
	RSSI      float64   `json:"rssi"`      // dBm, typically -100..0
	Frequency float64   `json:"frequency"` // MHz
	Timestamp time.Time `json:"timestamp"`
}

// Store is an ordered collection of measurement points. It is the only
// mutable state the locator core owns. It performs no validation or
// deduplication; coordinate sanity is the caller's responsibility. The store
// defines no internal locking: each detector instance owns its store
// exclusively and callers serialize access at their boundary.
type Store struct {
	points []MeasurementPoint
}

// NewStore creates an empty measurement store.
func NewStore() *Store {
	return &Store{}
}

// Add appends a measurement, stamping it with the insertion time, and
// returns the stored copy.
func (s *Store) Add(x, y, rssi, frequency float64) MeasurementPoint {
	point := MeasurementPoint{
		X:         x,
		Y:         y,
		RSSI:      rssi,
		Frequency: frequency,
		Timestamp: time.Now(),
	}
	s.points = append(s.points, point)
	return point
}

// Clear discards all measurements.
func (s *Store) Clear() {
	s.points = nil
}

// Restore replaces the store contents with previously saved points,
// preserving their original timestamps.
func (s *Store) Restore(points []MeasurementPoint) {
	s.points = make([]MeasurementPoint, len(points))
	copy(s.points, points)
}

// Points returns a copy of the stored measurements in insertion order.
func (s *Store) Points() []MeasurementPoint {
	out := make([]MeasurementPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Count returns the number of stored measurements.
func (s *Store) Count() int {
	return len(s.points)
}
