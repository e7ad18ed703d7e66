package vector

import "errors"

var (
	// ErrDimensionMismatch is returned when two vectors differ in length.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrInvalidVector is returned for vectors of the wrong length or with
	// non-finite components.
	ErrInvalidVector = errors.New("invalid vector")
	// ErrUnknownMetric is returned for a distance metric name that is not supported.
	ErrUnknownMetric = errors.New("unknown distance metric")
)
