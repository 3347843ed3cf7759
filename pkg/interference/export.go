package interference

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExportDocument is the JSON report consumed by the reporting and GUI
// layers. Field names and nesting are a compatibility surface; do not rename
// them.
type ExportDocument struct {
	Timestamp           string         `json:"timestamp"`
	MeasurementCount    int            `json:"measurement_count"`
	InterferenceSources []ExportSource `json:"interference_sources"`
	Settings            ExportSettings `json:"settings"`
}

// ExportSource is the wire form of one detected source.
type ExportSource struct {
	ID                   string    `json:"id"`
	Type                 string    `json:"type"`
	Severity             string    `json:"severity"`
	SeverityScore        int       `json:"severity_score"`
	Location             []float64 `json:"location"` // [x, y] or null
	LocationConfidence   float64   `json:"location_confidence"`
	FrequencyRange       []float64 `json:"frequency_range"`
	AvgPower             float64   `json:"avg_power"`
	AffectedChannels     []int     `json:"affected_channels"`
	MitigationStrategies []string  `json:"mitigation_strategies"`
}

// ExportSettings mirrors the path loss configuration in effect when the
// report was produced.
type ExportSettings struct {
	PathLossExponent  float64 `json:"path_loss_exponent"`
	ReferenceDistance float64 `json:"reference_distance"`
	ReferenceRSSI     float64 `json:"reference_rssi"`
}

// Export builds the report document for the last detection pass.
func (d *Detector) Export() *ExportDocument {
	cfg := d.model.Config()

	doc := &ExportDocument{
		Timestamp:           time.Now().Format(time.RFC3339),
		MeasurementCount:    d.store.Count(),
		InterferenceSources: make([]ExportSource, 0, len(d.sources)),
		Settings: ExportSettings{
			PathLossExponent:  cfg.Exponent,
			ReferenceDistance: cfg.ReferenceDistance,
			ReferenceRSSI:     cfg.ReferenceRSSI,
		},
	}

	for _, src := range d.sources {
		exported := ExportSource{
			ID:                   src.ID,
			Type:                 string(src.Type),
			Severity:             src.Severity.String(),
			SeverityScore:        src.SeverityScore,
			LocationConfidence:   src.LocationConfidence,
			FrequencyRange:       []float64{src.FrequencyRange[0], src.FrequencyRange[1]},
			AvgPower:             src.AvgPower,
			AffectedChannels:     append([]int{}, src.AffectedChannels...),
			MitigationStrategies: append([]string{}, src.MitigationStrategies...),
		}
		if src.Location != nil {
			exported.Location = []float64{src.Location.X, src.Location.Y}
		}
		doc.InterferenceSources = append(doc.InterferenceSources, exported)
	}

	return doc
}

// ExportJSON serializes the report document.
func (d *Detector) ExportJSON() ([]byte, error) {
	data, err := json.Marshal(d.Export())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal export document: %w", err)
	}
	return data, nil
}

// ParseExport decodes a previously exported report, for compatibility
// checking and for consumers that archive reports.
func ParseExport(data []byte) (*ExportDocument, error) {
	var doc ExportDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse export document: %w", err)
	}
	return &doc, nil
}
