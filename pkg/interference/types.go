package interference

import (
	"encoding/json"
	"fmt"
)

// Type identifies the kind of device believed to be emitting interference.
type Type string

const (
	TypeMicrowave       Type = "microwave"
	TypeBluetooth       Type = "bluetooth"
	TypeWirelessPhone   Type = "wireless_phone"
	TypeBabyMonitor     Type = "baby_monitor"
	TypeWirelessCamera  Type = "wireless_camera"
	TypeZigbee          Type = "zigbee"
	TypeNeighboringWiFi Type = "neighboring_wifi"
	TypeRadar           Type = "radar"
	TypeOther24G        Type = "other_2.4ghz"
	TypeOther5G         Type = "other_5ghz"
	TypeUnknown         Type = "unknown"
)

// Severity is the discrete impact level assigned to a source.
type Severity int

const (
	SeverityNegligible Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

var severityNames = [...]string{"negligible", "low", "medium", "high", "critical"}

func (s Severity) String() string {
	if s < SeverityNegligible || s > SeverityCritical {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityNames[s]
}

// MarshalJSON encodes the severity as its lowercase name.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity from its lowercase name.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, n := range severityNames {
		if n == name {
			*s = Severity(i)
			return nil
		}
	}
	return fmt.Errorf("unknown severity %q", name)
}

// Location is an estimated emitter position in the local coordinate frame.
type Location struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Source describes one detected interference emitter. The full list is
// rebuilt from scratch on every detection pass; there is no incremental
// update.
type Source struct {
	ID                   string     `json:"source_id"`
	Type                 Type       `json:"type"`
	Severity             Severity   `json:"severity"`
	SeverityScore        int        `json:"severity_score"`
	Location             *Location  `json:"location"`
	LocationConfidence   float64    `json:"location_confidence"`
	FrequencyRange       [2]float64 `json:"frequency_range"`
	AvgPower             float64    `json:"avg_power"`
	DetectionCount       int        `json:"detection_count"`
	AffectedChannels     []int      `json:"affected_channels"`
	MitigationStrategies []string   `json:"mitigation_strategies"`
}
