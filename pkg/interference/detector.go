package interference

import (
	"fmt"
	"math"

	"github.com/markus-lassfolk/rfwatch/pkg/logx"
	"github.com/markus-lassfolk/rfwatch/pkg/pathloss"
	"github.com/markus-lassfolk/rfwatch/pkg/survey"
)

// Detector is one interference localization session. It owns its measurement
// store and propagation model, so multiple independent sessions can run in
// one process by constructing multiple detectors; there is no shared state.
// The detector is pure, synchronous computation with no internal locking:
// callers serialize access to one instance at their boundary.
type Detector struct {
	logger       *logx.Logger
	model        *pathloss.Model
	store        *survey.Store
	classifier   *Classifier
	trilaterator *Trilaterator
	bandwidth    float64
	sources      []*Source
}

// NewDetector creates a detection session with the given propagation
// configuration. Invalid path loss parameters are the only constructor
// error.
func NewDetector(cfg pathloss.Config, logger *logx.Logger) (*Detector, error) {
	model, err := pathloss.NewModel(cfg)
	if err != nil {
		return nil, err
	}

	return &Detector{
		logger:       logger,
		model:        model,
		store:        survey.NewStore(),
		classifier:   NewClassifier(),
		trilaterator: NewTrilaterator(model),
		bandwidth:    DefaultClusterBandwidth,
	}, nil
}

// SetClusterBandwidth overrides the clustering resolution in MHz.
func (d *Detector) SetClusterBandwidth(bandwidth float64) error {
	if bandwidth <= 0 {
		return fmt.Errorf("cluster bandwidth must be positive, got %g MHz", bandwidth)
	}
	d.bandwidth = bandwidth
	return nil
}

// SetPathLoss replaces the propagation model, e.g. after the operator tunes
// the settings panel or after calibration.
func (d *Detector) SetPathLoss(cfg pathloss.Config) error {
	model, err := pathloss.NewModel(cfg)
	if err != nil {
		return err
	}
	d.model = model
	d.trilaterator = NewTrilaterator(model)
	return nil
}

// PathLoss returns the current propagation configuration.
func (d *Detector) PathLoss() pathloss.Config {
	return d.model.Config()
}

// AddMeasurement records a sample and returns the stored copy.
func (d *Detector) AddMeasurement(x, y, rssi, frequency float64) survey.MeasurementPoint {
	return d.store.Add(x, y, rssi, frequency)
}

// ClearMeasurements discards all samples and the last detection result.
func (d *Detector) ClearMeasurements() {
	d.store.Clear()
	d.sources = nil
}

// RestoreMeasurements replaces the sample set, e.g. from a saved session.
func (d *Detector) RestoreMeasurements(points []survey.MeasurementPoint) {
	d.store.Restore(points)
	d.sources = nil
}

// Measurements returns a copy of the current samples.
func (d *Detector) Measurements() []survey.MeasurementPoint {
	return d.store.Points()
}

// MeasurementCount returns the number of stored samples.
func (d *Detector) MeasurementCount() int {
	return d.store.Count()
}

// DetectSources runs one full detection pass: cluster by frequency, locate,
// classify, score and advise each cluster. The previous result is discarded
// entirely; nothing is merged. Fewer than 3 total measurements yields an
// empty list, which is a valid "insufficient data" answer rather than an
// error. A cluster whose geometry defeats trilateration is still reported,
// with no location and zero confidence.
func (d *Detector) DetectSources() []*Source {
	points := d.store.Points()
	d.sources = nil

	if len(points) < 3 {
		d.logger.Debug("Not enough measurements for detection", "count", len(points))
		return nil
	}

	clusters := ClusterByFrequency(points, d.bandwidth)

	sources := make([]*Source, 0, len(clusters))
	for _, cluster := range clusters {
		sources = append(sources, d.analyzeCluster(cluster))
	}
	d.sources = sources

	d.logger.Info("Interference detection completed",
		"measurements", len(points),
		"clusters", len(clusters),
		"sources", len(sources))

	return d.Sources()
}

// Sources returns the result of the last detection pass.
func (d *Detector) Sources() []*Source {
	out := make([]*Source, len(d.sources))
	copy(out, d.sources)
	return out
}

// Heatmap renders the interference intensity grid for the last detection
// result over the current measurement area.
func (d *Detector) Heatmap(gridSize int) *Heatmap {
	return RenderHeatmap(d.model, d.store.Points(), d.sources, gridSize)
}

func (d *Detector) analyzeCluster(cluster Cluster) *Source {
	freqMin, freqMax := cluster.Points[0].Frequency, cluster.Points[0].Frequency
	powerSum := 0.0
	for _, p := range cluster.Points {
		freqMin = math.Min(freqMin, p.Frequency)
		freqMax = math.Max(freqMax, p.Frequency)
		powerSum += p.RSSI
	}
	avgPower := powerSum / float64(len(cluster.Points))

	src := &Source{
		ID:             fmt.Sprintf("source_%d", cluster.ID),
		FrequencyRange: [2]float64{freqMin, freqMax},
		AvgPower:       avgPower,
		DetectionCount: len(cluster.Points),
	}

	if pos := d.trilaterator.Locate(cluster.Points); pos != nil {
		src.Location = &Location{X: pos.X, Y: pos.Y}
		src.LocationConfidence = pos.Confidence
	}

	src.Type = d.classifier.Classify(cluster.MeanFrequency, avgPower, "unknown")
	src.AffectedChannels = AffectedChannels(cluster.MeanFrequency, d.bandwidth)
	src.SeverityScore, src.Severity = ScoreSeverity(avgPower, cluster.MeanFrequency, src.AffectedChannels)
	src.MitigationStrategies = Advise(src)

	d.logger.Debug("Cluster analyzed",
		"source_id", src.ID,
		"type", string(src.Type),
		"severity", src.Severity.String(),
		"located", src.Location != nil,
		"samples", src.DetectionCount)

	return src
}
