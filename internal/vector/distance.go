package vector

import (
	"fmt"
	"math"
	"strings"
)

// Metric names a distance function.
type Metric string

const (
	MetricEuclidean Metric = "euclidean"
	MetricCosine    Metric = "cosine"
)

// DefaultMetric is used when a request names no metric.
const DefaultMetric = MetricEuclidean

// ParseMetric resolves a metric name. The empty string selects DefaultMetric.
func ParseMetric(name string) (Metric, error) {
	switch Metric(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return DefaultMetric, nil
	case MetricEuclidean:
		return MetricEuclidean, nil
	case MetricCosine:
		return MetricCosine, nil
	default:
		return "", fmt.Errorf("%w: %q (supported: euclidean, cosine)", ErrUnknownMetric, name)
	}
}

// Euclidean returns the L2 distance between a and b.
func Euclidean(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// Cosine returns the cosine similarity of a and b, or 0 when either has zero
// magnitude.
func Cosine(a, b Vector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), nil
}

// SimilarityToDistance converts a cosine similarity into a distance.
func SimilarityToDistance(s float64) float64 {
	return 1 - s
}

// EuclideanSimilarity maps a distance into (0,1].
func EuclideanSimilarity(d float64) float64 {
	return 1 / (1 + d)
}

// Measure returns distance and similarity of a and b under metric m.
func (m Metric) Measure(a, b Vector) (distance, similarity float64, err error) {
	switch m {
	case MetricEuclidean:
		d, err := Euclidean(a, b)
		if err != nil {
			return 0, 0, err
		}
		return d, EuclideanSimilarity(d), nil
	case MetricCosine:
		s, err := Cosine(a, b)
		if err != nil {
			return 0, 0, err
		}
		return SimilarityToDistance(s), s, nil
	default:
		return 0, 0, fmt.Errorf("%w: %q", ErrUnknownMetric, string(m))
	}
}
