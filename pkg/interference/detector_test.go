package interference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markus-lassfolk/rfwatch/pkg/logx"
	"github.com/markus-lassfolk/rfwatch/pkg/pathloss"
	"github.com/markus-lassfolk/rfwatch/pkg/survey"
)

func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	d, err := NewDetector(pathloss.DefaultConfig(), logx.NewLogger("error", "test"))
	require.NoError(t, err)
	return d
}

func TestNewDetectorRejectsInvalidConfig(t *testing.T) {
	_, err := NewDetector(pathloss.Config{Exponent: 0, ReferenceDistance: 1, ReferenceRSSI: -40},
		logx.NewLogger("error", "test"))
	assert.Error(t, err)
}

func TestDetectSourcesNeedsThreeMeasurements(t *testing.T) {
	d := newTestDetector(t)

	assert.Nil(t, d.DetectSources())

	d.AddMeasurement(0, 0, -45, 2437)
	d.AddMeasurement(5, 0, -55, 2437)
	assert.Nil(t, d.DetectSources())
	assert.Empty(t, d.Sources())
}

func TestDetectSourcesTwoEmitters(t *testing.T) {
	d := newTestDetector(t)

	// Three well-spread samples of a strong 2437 MHz emitter.
	d.AddMeasurement(0, 0, -45, 2437)
	d.AddMeasurement(5, 0, -55, 2437)
	d.AddMeasurement(2.5, 4, -50, 2437)
	// Two samples of a weaker 2450 MHz emitter: enough to report, not
	// enough to locate.
	d.AddMeasurement(10, 0, -75, 2450)
	d.AddMeasurement(10, 5, -70, 2450)

	sources := d.DetectSources()
	require.Len(t, sources, 2)

	located := sources[0]
	assert.Equal(t, "source_1", located.ID)
	assert.Equal(t, [2]float64{2437, 2437}, located.FrequencyRange)
	assert.InDelta(t, -50.0, located.AvgPower, 1e-9)
	assert.Equal(t, 3, located.DetectionCount)
	require.NotNil(t, located.Location)
	assert.Greater(t, located.LocationConfidence, 0.0)
	assert.NotEmpty(t, located.AffectedChannels)
	assert.NotEmpty(t, located.MitigationStrategies)

	unlocated := sources[1]
	assert.Equal(t, "source_2", unlocated.ID)
	assert.Equal(t, [2]float64{2450, 2450}, unlocated.FrequencyRange)
	assert.Equal(t, 2, unlocated.DetectionCount)
	assert.Nil(t, unlocated.Location)
	assert.Equal(t, 0.0, unlocated.LocationConfidence)
	// Unlocatable clusters are still classified and scored.
	assert.NotEqual(t, Type(""), unlocated.Type)
	assert.NotEmpty(t, unlocated.MitigationStrategies)
}

func TestDetectSourcesLocatesInsideSurveyArea(t *testing.T) {
	// With an indoor propagation exponent the estimate for the strong
	// 2437 MHz emitter falls inside the bounding box of the sample
	// triangle. The free-space default (2.0) overestimates the distances
	// here and pushes the radical center just outside the box, so this
	// property only holds for indoor exponents.
	d, err := NewDetector(pathloss.Config{Exponent: 3.0, ReferenceDistance: 1.0, ReferenceRSSI: -40.0},
		logx.NewLogger("error", "test"))
	require.NoError(t, err)

	d.AddMeasurement(0, 0, -45, 2437)
	d.AddMeasurement(5, 0, -55, 2437)
	d.AddMeasurement(2.5, 4, -50, 2437)
	d.AddMeasurement(10, 0, -75, 2450)
	d.AddMeasurement(10, 5, -70, 2450)

	sources := d.DetectSources()
	require.Len(t, sources, 2)

	located := sources[0]
	require.NotNil(t, located.Location)
	assert.GreaterOrEqual(t, located.Location.X, 0.0)
	assert.LessOrEqual(t, located.Location.X, 5.0)
	assert.GreaterOrEqual(t, located.Location.Y, 0.0)
	assert.LessOrEqual(t, located.Location.Y, 4.0)
	assert.InDelta(t, 1.7154, located.Location.X, 1e-3)
	assert.InDelta(t, 1.3982, located.Location.Y, 1e-3)

	assert.Nil(t, sources[1].Location)
}

func TestDetectSourcesCollinearClusterReportedWithoutLocation(t *testing.T) {
	d := newTestDetector(t)

	d.AddMeasurement(0, 0, -45, 2437)
	d.AddMeasurement(1, 0, -50, 2437)
	d.AddMeasurement(2, 0, -55, 2437)

	sources := d.DetectSources()
	require.Len(t, sources, 1)
	assert.Nil(t, sources[0].Location)
	assert.Equal(t, 0.0, sources[0].LocationConfidence)
}

func TestDetectSourcesFullRecompute(t *testing.T) {
	d := newTestDetector(t)

	d.AddMeasurement(0, 0, -45, 2437)
	d.AddMeasurement(5, 0, -55, 2437)
	d.AddMeasurement(2.5, 4, -50, 2437)
	require.Len(t, d.DetectSources(), 1)

	d.ClearMeasurements()
	assert.Empty(t, d.Sources())
	assert.Nil(t, d.DetectSources())

	// A new walk on a different frequency replaces the old result wholesale.
	d.AddMeasurement(0, 0, -60, 5180)
	d.AddMeasurement(3, 0, -62, 5180)
	d.AddMeasurement(0, 3, -64, 5180)
	sources := d.DetectSources()
	require.Len(t, sources, 1)
	assert.Equal(t, [2]float64{5180, 5180}, sources[0].FrequencyRange)
}

func TestRestoreMeasurements(t *testing.T) {
	d := newTestDetector(t)
	d.AddMeasurement(9, 9, -80, 2412)

	d.RestoreMeasurements([]survey.MeasurementPoint{
		{X: 0, Y: 0, RSSI: -45, Frequency: 2437},
		{X: 5, Y: 0, RSSI: -55, Frequency: 2437},
	})

	assert.Equal(t, 2, d.MeasurementCount())
	assert.Empty(t, d.Sources())
}

func TestSetPathLossRebuildsModel(t *testing.T) {
	d := newTestDetector(t)

	err := d.SetPathLoss(pathloss.Config{Exponent: 3.5, ReferenceDistance: 1, ReferenceRSSI: -42})
	require.NoError(t, err)
	assert.Equal(t, 3.5, d.PathLoss().Exponent)

	assert.Error(t, d.SetPathLoss(pathloss.Config{Exponent: -1, ReferenceDistance: 1, ReferenceRSSI: -42}))
	// The previous valid model survives a rejected update.
	assert.Equal(t, 3.5, d.PathLoss().Exponent)
}

func TestSetClusterBandwidth(t *testing.T) {
	d := newTestDetector(t)

	assert.Error(t, d.SetClusterBandwidth(0))
	assert.Error(t, d.SetClusterBandwidth(-5))
	assert.NoError(t, d.SetClusterBandwidth(40))
}

func TestExportRoundTrip(t *testing.T) {
	d := newTestDetector(t)

	d.AddMeasurement(0, 0, -45, 2437)
	d.AddMeasurement(5, 0, -55, 2437)
	d.AddMeasurement(2.5, 4, -50, 2437)
	d.AddMeasurement(10, 0, -75, 2450)
	d.AddMeasurement(10, 5, -70, 2450)
	d.DetectSources()

	data, err := d.ExportJSON()
	require.NoError(t, err)

	doc, err := ParseExport(data)
	require.NoError(t, err)

	assert.NotEmpty(t, doc.Timestamp)
	assert.Equal(t, 5, doc.MeasurementCount)
	require.Len(t, doc.InterferenceSources, 2)

	first := doc.InterferenceSources[0]
	assert.Equal(t, "source_1", first.ID)
	require.Len(t, first.Location, 2)
	assert.Equal(t, []float64{2437, 2437}, first.FrequencyRange)
	assert.NotEmpty(t, first.MitigationStrategies)

	second := doc.InterferenceSources[1]
	assert.Nil(t, second.Location)
	assert.Equal(t, 0.0, second.LocationConfidence)

	assert.Equal(t, 2.0, doc.Settings.PathLossExponent)
	assert.Equal(t, 1.0, doc.Settings.ReferenceDistance)
	assert.Equal(t, -40.0, doc.Settings.ReferenceRSSI)
}

func TestExportEmptySession(t *testing.T) {
	d := newTestDetector(t)

	doc := d.Export()
	assert.Equal(t, 0, doc.MeasurementCount)
	assert.Empty(t, doc.InterferenceSources)
	assert.NotNil(t, doc.InterferenceSources)
}

func TestDetectorHeatmap(t *testing.T) {
	d := newTestDetector(t)

	d.AddMeasurement(0, 0, -45, 2437)
	d.AddMeasurement(5, 0, -55, 2437)
	d.AddMeasurement(2.5, 4, -50, 2437)
	d.DetectSources()

	hm := d.Heatmap(8)
	require.Len(t, hm.Grid, 8)
	assert.Less(t, hm.XMin, hm.XMax)
	assert.Less(t, hm.YMin, hm.YMax)
}
