package interference

import (
	"math"

	"github.com/markus-lassfolk/rfwatch/pkg/pathloss"
	"github.com/markus-lassfolk/rfwatch/pkg/survey"
)

// minCellDistance floors the cell-to-source distance so the propagation
// model stays finite at the source location itself.
const minCellDistance = 0.1

// Heatmap is a grid of estimated interference intensity over the surveyed
// area, for visualization. Grid is indexed [row][col], row 0 at YMin.
type Heatmap struct {
	XMin, XMax float64
	YMin, YMax float64
	Grid       [][]float64
}

// RenderHeatmap computes the intensity grid for the located sources over a
// bounding box derived from the measurement extrema, expanded by a 10%
// margin on each axis (a default 0-10 m box when no measurements exist).
// Each cell sums, per source with a known location, the modeled power at the
// cell weighted by location confidence and severity.
func RenderHeatmap(model *pathloss.Model, points []survey.MeasurementPoint, sources []*Source, gridSize int) *Heatmap {
	if gridSize < 1 {
		gridSize = 1
	}

	hm := &Heatmap{XMin: 0, XMax: 10, YMin: 0, YMax: 10}
	if len(points) > 0 {
		xMin, xMax := points[0].X, points[0].X
		yMin, yMax := points[0].Y, points[0].Y
		for _, p := range points[1:] {
			xMin = math.Min(xMin, p.X)
			xMax = math.Max(xMax, p.X)
			yMin = math.Min(yMin, p.Y)
			yMax = math.Max(yMax, p.Y)
		}
		xMargin := 0.1 * (xMax - xMin)
		yMargin := 0.1 * (yMax - yMin)
		hm.XMin, hm.XMax = xMin-xMargin, xMax+xMargin
		hm.YMin, hm.YMax = yMin-yMargin, yMax+yMargin
	}

	hm.Grid = make([][]float64, gridSize)
	for row := range hm.Grid {
		hm.Grid[row] = make([]float64, gridSize)
	}

	for _, src := range sources {
		if src.Location == nil {
			continue
		}
		weight := src.LocationConfidence * float64(src.SeverityScore) / 100
		for row := 0; row < gridSize; row++ {
			cellY := hm.YMin + (hm.YMax-hm.YMin)*(float64(row)+0.5)/float64(gridSize)
			for col := 0; col < gridSize; col++ {
				cellX := hm.XMin + (hm.XMax-hm.XMin)*(float64(col)+0.5)/float64(gridSize)
				dist := math.Hypot(cellX-src.Location.X, cellY-src.Location.Y)
				if dist < minCellDistance {
					dist = minCellDistance
				}
				hm.Grid[row][col] += model.DistanceToRSSI(dist) * weight
			}
		}
	}

	return hm
}
