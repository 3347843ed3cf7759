package interference

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/markus-lassfolk/rfwatch/pkg/pathloss"
	"github.com/markus-lassfolk/rfwatch/pkg/survey"
)

// singularDeterminant is the threshold below which the trilateration system
// is treated as degenerate (near-collinear reference points).
const singularDeterminant = 1e-10

// Confidence weights: geometry dominates, then signal quality, then sample
// count. Fixed by design so scores are comparable across runs.
const (
	geometricWeight = 0.5
	signalWeight    = 0.3
	countWeight     = 0.2
)

// Position is a trilateration estimate with a [0,1] confidence score.
type Position struct {
	X          float64
	Y          float64
	Confidence float64
}

// Trilaterator estimates a 2D emitter position from RSSI measurements taken
// at known coordinates, using the path loss model to turn power into range.
type Trilaterator struct {
	model *pathloss.Model
}

// NewTrilaterator creates a trilaterator over the given propagation model.
func NewTrilaterator(model *pathloss.Model) *Trilaterator {
	return &Trilaterator{model: model}
}

// Locate estimates the emitter position from the given points. It returns
// nil when fewer than 3 points are supplied or when the 3 strongest points
// are near-collinear; both are expected conditions, not errors. With more
// than 3 points, the 3 with strongest RSSI are used (ties keep original
// order) while the confidence score still reflects the whole cluster.
func (t *Trilaterator) Locate(points []survey.MeasurementPoint) *Position {
	if len(points) < 3 {
		return nil
	}

	sel := strongestThree(points)

	d0 := t.model.RSSIToDistance(sel[0].RSSI)
	d1 := t.model.RSSIToDistance(sel[1].RSSI)
	d2 := t.model.RSSIToDistance(sel[2].RSSI)

	// Subtracting the circle equation at sel[0] from those at sel[1] and
	// sel[2] cancels the quadratic terms, leaving a 2x2 linear system in
	// the emitter coordinates.
	a := mat.NewDense(2, 2, []float64{
		2 * (sel[1].X - sel[0].X), 2 * (sel[1].Y - sel[0].Y),
		2 * (sel[2].X - sel[0].X), 2 * (sel[2].Y - sel[0].Y),
	})
	b := mat.NewVecDense(2, []float64{
		d0*d0 - d1*d1 + sel[1].X*sel[1].X - sel[0].X*sel[0].X + sel[1].Y*sel[1].Y - sel[0].Y*sel[0].Y,
		d0*d0 - d2*d2 + sel[2].X*sel[2].X - sel[0].X*sel[0].X + sel[2].Y*sel[2].Y - sel[0].Y*sel[0].Y,
	})

	if math.Abs(mat.Det(a)) < singularDeterminant {
		return nil
	}

	var sol mat.VecDense
	if err := sol.SolveVec(a, b); err != nil {
		return nil
	}

	x, y := sol.AtVec(0), sol.AtVec(1)

	confidence := geometricWeight*geometricFactor(sel, x, y) +
		signalWeight*signalFactor(points) +
		countWeight*countFactor(len(points))

	return &Position{
		X:          x,
		Y:          y,
		Confidence: clamp01(confidence),
	}
}

// strongestThree returns the 3 points with the strongest RSSI, breaking ties
// by original order.
func strongestThree(points []survey.MeasurementPoint) []survey.MeasurementPoint {
	sorted := make([]survey.MeasurementPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].RSSI > sorted[j].RSSI
	})
	return sorted[:3]
}

// geometricFactor is a GDOP-like score of how well the 3 reference points
// surround the estimate. Bearings spaced an ideal 2*pi/3 apart give a factor
// of 1; clumped bearings drive it toward 0.
func geometricFactor(sel []survey.MeasurementPoint, x, y float64) float64 {
	ideal := 2 * math.Pi / 3

	angles := make([]float64, 3)
	for i, p := range sel {
		angles[i] = math.Atan2(p.Y-y, p.X-x)
	}
	sort.Float64s(angles)

	gaps := [3]float64{
		angles[1] - angles[0],
		angles[2] - angles[1],
		2*math.Pi - (angles[2] - angles[0]),
	}

	variance := 0.0
	for _, gap := range gaps {
		variance += (gap - ideal) * (gap - ideal)
	}
	variance /= 3

	return 1 / (1 + variance/(ideal*ideal))
}

// signalFactor maps the cluster's average RSSI linearly from [-80, -40] dBm
// onto [0, 1].
func signalFactor(points []survey.MeasurementPoint) float64 {
	sum := 0.0
	for _, p := range points {
		sum += p.RSSI
	}
	avg := sum / float64(len(points))
	return clamp01((avg + 80) / 40)
}

// countFactor saturates at 5 samples.
func countFactor(n int) float64 {
	return math.Min(1.0, float64(n)/5)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
