// Package remote speaks the mood ranking wire protocol: a JSON mood payload
// POSTed to /recommendations/mood and a list of scored recommendations back.
package remote

import (
	"errors"
	"fmt"
	"math"

	"github.com/timmy/cinevibe/internal/domain"
	"github.com/timmy/cinevibe/internal/vector"
)

// ErrInvalidPayload is returned for a mood payload that breaks the wire contract.
var ErrInvalidPayload = errors.New("invalid mood payload")

// Payload is the request body of POST /recommendations/mood.
type Payload struct {
	ColorHue       float64   `json:"colorHue"`
	Intensity      float64   `json:"intensity"`
	Pacing         float64   `json:"pacing"`
	Descriptors    []float64 `json:"descriptors"`
	K              int       `json:"k"`
	DistanceMetric string    `json:"distance_metric"`
}

// NewPayload encodes a mood into a payload, rejecting out-of-range values
// before anything is sent.
func NewPayload(mood domain.Mood, k int, metric vector.Metric) (*Payload, error) {
	m, err := vector.ParseMetric(string(metric))
	if err != nil {
		return nil, err
	}
	v := vector.EncodeUserVector(mood)
	p := &Payload{
		ColorHue:       v[0],
		Intensity:      v[1],
		Pacing:         v[2],
		Descriptors:    append([]float64(nil), v[3:]...),
		K:              k,
		DistanceMetric: string(m),
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks ranges, descriptor length, k and the metric name.
func (p *Payload) Validate() error {
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"colorHue", p.ColorHue},
		{"intensity", p.Intensity},
		{"pacing", p.Pacing},
	} {
		if math.IsNaN(f.v) || f.v < 0 || f.v > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1", ErrInvalidPayload, f.name)
		}
	}
	if want := vector.Dimensions - 3; len(p.Descriptors) != want {
		return fmt.Errorf("%w: descriptors must have exactly %d elements", ErrInvalidPayload, want)
	}
	if p.K <= 0 {
		return fmt.Errorf("%w: k must be a positive integer", ErrInvalidPayload)
	}
	if _, err := vector.ParseMetric(p.DistanceMetric); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

// Vector returns the feature vector carried by the payload.
func (p *Payload) Vector() vector.Vector {
	v := make(vector.Vector, 0, vector.Dimensions)
	v = append(v, p.ColorHue, p.Intensity, p.Pacing)
	return append(v, p.Descriptors...)
}

// Recommendation is one scored movie on the wire.
type Recommendation struct {
	domain.Movie
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
	Score      float64 `json:"score"`
}

// Response is the body returned by /recommendations/mood.
type Response struct {
	Success         bool             `json:"success"`
	Recommendations []Recommendation `json:"recommendations"`
	K               int              `json:"k,omitempty"`
	DistanceMetric  string           `json:"distance_metric,omitempty"`
	Error           string           `json:"error,omitempty"`
}
