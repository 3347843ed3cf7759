package interference

import (
	"fmt"
	"strings"
)

const (
	urgentMarker  = "URGENT: this source is severely degrading the network, act immediately"
	warningMarker = "WARNING: this source is causing significant degradation"

	migrationAdvice = "Long term, migrate critical traffic to the 5/6 GHz bands, which this source does not reach"
)

// Advise produces ordered, human-readable remediation steps for a detected
// source. The base steps depend on the interferer type; severity, location
// confidence and band add contextual entries around them.
func Advise(src *Source) []string {
	strategies := baseStrategies(src)

	switch src.Severity {
	case SeverityCritical:
		strategies = append([]string{urgentMarker}, strategies...)
	case SeverityHigh:
		strategies = append([]string{warningMarker}, strategies...)
	}

	if src.Location != nil && src.LocationConfidence > 0.6 {
		strategies = append(strategies, fmt.Sprintf(
			"Inspect the area around coordinates (%.1f, %.1f), location confidence %.0f%%",
			src.Location.X, src.Location.Y, src.LocationConfidence*100))
	}

	if src.FrequencyRange[0] >= 2400 && src.FrequencyRange[0] <= 2500 && !containsMigrationAdvice(strategies) {
		strategies = append(strategies, migrationAdvice)
	}

	return strategies
}

func baseStrategies(src *Source) []string {
	switch src.Type {
	case TypeMicrowave:
		return []string{
			"Increase the distance between the access point and the microwave oven",
			"Move 2.4 GHz clients near the oven to the 5 GHz band",
			"Check the oven's door seal; heavy leakage suggests a defective unit",
		}
	case TypeBluetooth:
		return []string{
			"Reduce the number of active Bluetooth devices near the access point",
			"Enable coexistence features (AFH) on Bluetooth equipment where available",
			"Move latency-sensitive WiFi clients to the 5 GHz band",
		}
	case TypeWirelessPhone:
		return []string{
			"Replace 2.4 GHz cordless phones with DECT models, which use 1.9 GHz",
			"Relocate the phone base station away from the access point",
		}
	case TypeBabyMonitor:
		return []string{
			"Switch to a digital (FHSS or DECT) baby monitor",
			"Move the monitor's base unit away from the access point",
			"Select a WiFi channel outside the monitor's fixed frequency",
		}
	case TypeWirelessCamera:
		return []string{
			"Replace analog 2.4 GHz cameras with IP cameras on the wired network",
			"If the camera must stay wireless, fix its channel and move WiFi away from it",
		}
	case TypeZigbee:
		return []string{
			"Align the ZigBee network's channel plan with the WiFi channel plan",
			"ZigBee channels 15, 20, 25 and 26 avoid WiFi channels 1, 6 and 11",
		}
	case TypeNeighboringWiFi:
		strategies := []string{
			"Coordinate channel selection with the neighboring network's operator if possible",
			"Reduce transmit power so cells overlap less",
		}
		if len(src.AffectedChannels) > 0 {
			strategies = append(strategies, fmt.Sprintf(
				"Reconfigure your access point away from channels %s", joinChannels(src.AffectedChannels)))
		}
		return strategies
	case TypeRadar:
		return []string{
			"Avoid DFS channels in this area; radar activity forces channel evacuation",
			"Prefer UNII-1 (36-48) or UNII-3 (149-165) channels",
		}
	case TypeOther24G:
		return []string{
			"Survey the area for non-WiFi 2.4 GHz transmitters (ISM band devices)",
			"Move affected clients to the 5 GHz band",
		}
	case TypeOther5G:
		return []string{
			"Survey the area for 5 GHz transmitters such as outdoor links or radar",
			"Select a channel further from the interferer's frequency range",
		}
	default:
		return []string{
			"Collect more measurements around the affected area to refine the classification",
			"Consider a spectrum analyzer survey to identify the transmitter",
		}
	}
}

func containsMigrationAdvice(strategies []string) bool {
	for _, s := range strategies {
		if strings.Contains(s, "5/6 GHz") {
			return true
		}
	}
	return false
}

func joinChannels(channels []int) string {
	parts := make([]string, len(channels))
	for i, ch := range channels {
		parts[i] = fmt.Sprintf("%d", ch)
	}
	return strings.Join(parts, ", ")
}
