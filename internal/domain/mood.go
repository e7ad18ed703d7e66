package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidMood is returned when a mood slider is outside [0,1].
var ErrInvalidMood = errors.New("invalid mood")

// Neutral is the value used for every unset slider or attribute.
const Neutral = 0.5

// Mood is the user's selected mood: colour tokens, descriptor words and two
// sliders. Mood is a value type; the With* helpers return modified copies.
type Mood struct {
	Colors      Set     `json:"colors"`
	Descriptors Set     `json:"descriptors"`
	Intensity   float64 `json:"intensity"`
	Pacing      float64 `json:"pacing"`
}

// DefaultMood returns the mood a fresh session starts with.
func DefaultMood() Mood {
	return Mood{Intensity: Neutral, Pacing: Neutral}
}

// Validate checks that both sliders are finite and within [0,1].
func (m Mood) Validate() error {
	if err := checkUnit("intensity", m.Intensity); err != nil {
		return err
	}
	return checkUnit("pacing", m.Pacing)
}

// ToggleColor returns a copy with color added or removed.
func (m Mood) ToggleColor(color string) Mood {
	m.Colors = m.Colors.Toggle(color)
	return m
}

// ToggleDescriptor returns a copy with descriptor added or removed.
func (m Mood) ToggleDescriptor(descriptor string) Mood {
	m.Descriptors = m.Descriptors.Toggle(descriptor)
	return m
}

// WithIntensity returns a copy with the intensity slider set.
func (m Mood) WithIntensity(v float64) Mood {
	m.Intensity = v
	return m
}

// WithPacing returns a copy with the pacing slider set.
func (m Mood) WithPacing(v float64) Mood {
	m.Pacing = v
	return m
}

func checkUnit(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %s must be between 0 and 1, got %v", ErrInvalidMood, name, v)
	}
	return nil
}
