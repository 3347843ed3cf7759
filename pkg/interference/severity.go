package interference

// Severity scoring is additive: strong received power scores up to 40,
// channel footprint up to 40, band congestion sensitivity up to 20, capped
// at 100 overall.
const (
	severityCritical = 80
	severityHigh     = 60
	severityMedium   = 40
	severityLow      = 20
)

// ScoreSeverity combines received power, channel impact and band importance
// into a 0-100 score and the matching discrete level.
func ScoreSeverity(rssiAvg, freqAvg float64, affectedChannels []int) (int, Severity) {
	score := powerScore(rssiAvg) + channelScore(affectedChannels) + bandScore(freqAvg)
	if score > 100 {
		score = 100
	}
	return score, severityLevel(score)
}

func powerScore(rssiAvg float64) int {
	switch {
	case rssiAvg >= -40:
		return 40
	case rssiAvg >= -50:
		return 30
	case rssiAvg >= -60:
		return 20
	case rssiAvg >= -70:
		return 10
	default:
		return 5
	}
}

func channelScore(affectedChannels []int) int {
	score := 10 * len(affectedChannels)
	if score > 40 {
		score = 40
	}
	return score
}

// bandScore weighs the 2.4 GHz band highest: it is the most congested and
// degrades the most clients per channel.
func bandScore(freqAvg float64) int {
	switch {
	case freqAvg >= 2400 && freqAvg <= 2500:
		return 20
	case freqAvg >= 5000 && freqAvg <= 6000:
		return 10
	default:
		return 5
	}
}

func severityLevel(score int) Severity {
	switch {
	case score >= severityCritical:
		return SeverityCritical
	case score >= severityHigh:
		return SeverityHigh
	case score >= severityMedium:
		return SeverityMedium
	case score >= severityLow:
		return SeverityLow
	default:
		return SeverityNegligible
	}
}
