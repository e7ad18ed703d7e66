// Package vector maps moods and movies into the shared 11-dimensional
// feature space and measures distances in it.
//
// Layout: [colorHue, intensity, pacing, cozy, melancholic, upbeat,
// mysterious, gritty, surreal, romantic, dark comedy]. Every component is
// in [0,1].
package vector

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/timmy/cinevibe/internal/domain"
)

// Vector is a point in the mood feature space.
type Vector []float64

const (
	// Dimensions is the length of every encoded vector.
	Dimensions = 3 + len(descriptorOrder)

	idxHue       = 0
	idxIntensity = 1
	idxPacing    = 2
	idxFirstDesc = 3
)

var descriptorOrder = [...]string{
	"cozy",
	"melancholic",
	"upbeat",
	"mysterious",
	"gritty",
	"surreal",
	"romantic",
	"dark comedy",
}

var hexPattern = regexp.MustCompile(`(?i)^#?([a-f\d]{2})([a-f\d]{2})([a-f\d]{2})$`)

// Descriptors returns the canonical descriptor names in vector order.
func Descriptors() []string {
	return append([]string(nil), descriptorOrder[:]...)
}

// FeatureNames returns the name of every vector component in order.
func FeatureNames() []string {
	return append([]string{"colorHue", "intensity", "pacing"}, descriptorOrder[:]...)
}

// NormalizeDescriptor maps a descriptor to its canonical form: lower case,
// with "-" and "_" read as spaces so "dark-comedy" is "dark comedy".
func NormalizeDescriptor(d string) string {
	d = strings.ToLower(strings.TrimSpace(d))
	return strings.NewReplacer("-", " ", "_", " ").Replace(d)
}

// DescriptorIndex returns the position of d among the descriptor slots, or -1.
func DescriptorIndex(d string) int {
	d = NormalizeDescriptor(d)
	for i, name := range descriptorOrder {
		if name == d {
			return i
		}
	}
	return -1
}

// HexToHueDegrees parses "#RRGGBB" or "RRGGBB" (any case) and returns its hue
// in degrees [0,360). ok is false when the token is not a hex colour.
func HexToHueDegrees(hex string) (deg float64, ok bool) {
	m := hexPattern.FindStringSubmatch(strings.TrimSpace(hex))
	if m == nil {
		return 0, false
	}
	var rgb [3]float64
	for i := range rgb {
		n, err := strconv.ParseUint(m[i+1], 16, 8)
		if err != nil {
			return 0, false
		}
		rgb[i] = float64(n) / 255
	}
	r, g, b := rgb[0], rgb[1], rgb[2]
	hi := math.Max(r, math.Max(g, b))
	lo := math.Min(r, math.Min(g, b))
	if hi == lo {
		return 0, true
	}
	d := hi - lo
	var h float64
	switch hi {
	case r:
		h = math.Mod(60*((g-b)/d)+360, 360)
	case g:
		h = 60*((b-r)/d) + 120
	default:
		h = 60*((r-g)/d) + 240
	}
	return h, true
}

// ColorToHue returns the normalized hue of a hex colour in [0,1). Tokens
// that are not hex colours map to the neutral 0.5.
func ColorToHue(hex string) float64 {
	deg, ok := HexToHueDegrees(hex)
	if !ok {
		return domain.Neutral
	}
	return deg / 360
}

// AggregateColors returns the arithmetic mean of the normalized hues, or 0.5
// when colors is empty. The mean is not circular: red (0) and magenta (~0.92)
// average to a green-ish hue.
func AggregateColors(colors []string) float64 {
	if len(colors) == 0 {
		return domain.Neutral
	}
	var sum float64
	for _, c := range colors {
		sum += ColorToHue(c)
	}
	return sum / float64(len(colors))
}

// EncodeDescriptors returns the 8-slot one-hot encoding of descriptors.
// Unknown descriptors are ignored.
func EncodeDescriptors(descriptors []string) []float64 {
	out := make([]float64, len(descriptorOrder))
	for _, d := range descriptors {
		if i := DescriptorIndex(d); i >= 0 {
			out[i] = 1
		}
	}
	return out
}

// EncodeUserVector encodes a mood. Set iteration order is irrelevant to the
// result.
func EncodeUserVector(m domain.Mood) Vector {
	v := make(Vector, Dimensions)
	v[idxHue] = AggregateColors(m.Colors.Values())
	v[idxIntensity] = m.Intensity
	v[idxPacing] = m.Pacing
	copy(v[idxFirstDesc:], EncodeDescriptors(m.Descriptors.Values()))
	return v
}

// EncodeItemVector encodes a movie. Missing or non-finite attributes encode
// as 0.5; the hue slot is Hue/360.
func EncodeItemVector(m domain.Movie) Vector {
	v := make(Vector, Dimensions)
	v[idxHue] = domain.Neutral
	if domain.Known(m.Hue) {
		v[idxHue] = *m.Hue / 360
	}
	v[idxIntensity] = orNeutral(m.Edge)
	v[idxPacing] = orNeutral(m.Tempo)
	copy(v[idxFirstDesc:], EncodeDescriptors(m.Tags))
	return v
}

// Validate reports whether v is a well-formed feature vector.
func Validate(v Vector) bool {
	return CheckVector(v) == nil
}

// CheckVector returns ErrInvalidVector unless v has Dimensions components,
// each finite and within [0,1]. Out-of-range values are never clamped.
func CheckVector(v Vector) error {
	if len(v) != Dimensions {
		return fmt.Errorf("%w: expected %d dimensions, got %d", ErrInvalidVector, Dimensions, len(v))
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return fmt.Errorf("%w: component %d is not finite", ErrInvalidVector, i)
		}
		if x < 0 || x > 1 {
			return fmt.Errorf("%w: component %d = %v is outside [0,1]", ErrInvalidVector, i, x)
		}
	}
	return nil
}

func orNeutral(p *float64) float64 {
	if !domain.Known(p) {
		return domain.Neutral
	}
	return *p
}
