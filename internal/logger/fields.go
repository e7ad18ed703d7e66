package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through context.
const (
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
	FieldComponent = "component"
	FieldSource    = "source"
	FieldStrategy  = "strategy"
	FieldMetric    = "metric"
	FieldMovieID   = "movie_id"
)

// Metric fields, attached per entry.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldK          = "k"
	FieldStatus     = "status"
	FieldSize       = "size"
)
