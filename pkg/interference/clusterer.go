package interference

import (
	"sort"

	"github.com/markus-lassfolk/rfwatch/pkg/survey"
)

// DefaultClusterBandwidth is the clustering resolution in MHz. It is not a
// literal emission bandwidth: 20 MHz matches the width of one WiFi channel,
// so samples of the same transmitter land in one group.
const DefaultClusterBandwidth = 20.0

// Cluster groups measurement points likely produced by a single physical
// emitter. Clusters are transient: they are rebuilt on every detection pass
// and never persisted.
type Cluster struct {
	ID            int
	MeanFrequency float64
	Points        []survey.MeasurementPoint
}

// ClusterByFrequency partitions points into emitter groups by frequency
// proximity. Points are processed in ascending frequency order; each point
// joins the first existing cluster whose running mean frequency is within
// bandwidth/2, otherwise it seeds a new cluster.
//
// The first-match rule makes the result depend on processing order among
// borderline points. Sorting by frequency first pins that order down, so the
// partition is deterministic for a given point set; clusters come back
// ordered by ascending seed frequency.
func ClusterByFrequency(points []survey.MeasurementPoint, bandwidth float64) []Cluster {
	if bandwidth <= 0 {
		bandwidth = DefaultClusterBandwidth
	}

	sorted := make([]survey.MeasurementPoint, len(points))
	copy(sorted, points)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Frequency < sorted[j].Frequency
	})

	var clusters []Cluster
	for _, point := range sorted {
		assigned := false
		for i := range clusters {
			if abs(clusters[i].MeanFrequency-point.Frequency) <= bandwidth/2 {
				clusters[i].Points = append(clusters[i].Points, point)
				clusters[i].MeanFrequency = meanFrequency(clusters[i].Points)
				assigned = true
				break
			}
		}
		if !assigned {
			clusters = append(clusters, Cluster{
				ID:            len(clusters) + 1,
				MeanFrequency: point.Frequency,
				Points:        []survey.MeasurementPoint{point},
			})
		}
	}

	return clusters
}

func meanFrequency(points []survey.MeasurementPoint) float64 {
	sum := 0.0
	for _, p := range points {
		sum += p.Frequency
	}
	return sum / float64(len(points))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
