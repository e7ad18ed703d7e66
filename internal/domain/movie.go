package domain

import (
	"database/sql/driver"
	"errors"
	"math"
	"time"

	"github.com/goccy/go-json"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
// Parameters: none.
// Returns:
//   - driver.Value: JSON-encoded string representation of the slice.
//   - error: non-nil if marshaling fails.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Movie is a catalog item that can be ranked against a mood.
// Hue is in degrees [0,360); Tempo and Edge are in [0,1]. A nil attribute is
// treated as neutral by the encoders.
type Movie struct {
	ID           string      `gorm:"type:text;primaryKey" json:"id"`
	Title        string      `gorm:"type:text;not null" json:"title"`
	Poster       string      `gorm:"type:text" json:"poster,omitempty"`
	Tags         StringArray `gorm:"type:text" json:"tags"`
	Hue          *float64    `json:"hue,omitempty"`
	Tempo        *float64    `json:"tempo,omitempty"`
	Edge         *float64    `json:"edge,omitempty"`
	Year         int         `json:"year,omitempty"`
	Overview     string      `gorm:"type:text" json:"overview,omitempty"`
	SourceType   string      `gorm:"type:text;index:idx_movies_source" json:"source_type,omitempty"`
	PosterKey    string      `gorm:"type:text" json:"-"`
	PosterWidth  int         `json:"-"`
	PosterHeight int         `json:"-"`
	CreatedAt    time.Time   `json:"-"`
	UpdatedAt    time.Time   `json:"-"`
}

// TableName returns the database table name for Movie.
func (Movie) TableName() string {
	return "movies"
}

// Clone returns a deep copy so callers can hand out movies without sharing
// tag slices or attribute pointers.
func (m Movie) Clone() Movie {
	out := m
	if m.Tags != nil {
		out.Tags = append(StringArray(nil), m.Tags...)
	}
	out.Hue = cloneFloat(m.Hue)
	out.Tempo = cloneFloat(m.Tempo)
	out.Edge = cloneFloat(m.Edge)
	return out
}

// HasTag reports whether the movie carries tag exactly.
func (m Movie) HasTag(tag string) bool {
	for _, t := range m.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Float returns a pointer to v, for building movies in code.
func Float(v float64) *float64 {
	return &v
}

// Known reports whether p is set to a finite number.
func Known(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && !math.IsInf(*p, 0)
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// VectorHit is one match returned by a vector index: the movie id and the
// raw score the index computed for it.
type VectorHit struct {
	MovieID string
	Score   float64
}
