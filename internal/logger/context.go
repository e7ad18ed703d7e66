package logger

import (
	"context"
	"sync"
)

type contextKey struct{}

var loggerKey = contextKey{}

var (
	defaultLogger   *Logger
	defaultLoggerMu sync.RWMutex
)

func init() {
	defaultLogger = New(nil)
}

// GetDefault returns the process-wide logger.
func GetDefault() *Logger {
	defaultLoggerMu.RLock()
	defer defaultLoggerMu.RUnlock()
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide logger. nil is ignored.
func SetDefaultLogger(l *Logger) {
	if l != nil {
		defaultLoggerMu.Lock()
		defaultLogger = l
		defaultLoggerMu.Unlock()
	}
}

// WithContext returns a new context with the logger attached.
func (l *Logger) WithContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext returns the logger stored in ctx, or the default logger.
func FromContext(ctx context.Context) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*Logger); ok {
			return l
		}
	}
	return GetDefault()
}

// WithField returns a context whose logger carries one more field.
func WithField(ctx context.Context, key string, value interface{}) context.Context {
	return FromContext(ctx).WithField(key, value).WithContext(ctx)
}

// WithFields returns a context whose logger carries fields.
func WithFields(ctx context.Context, fields Fields) context.Context {
	return FromContext(ctx).WithFields(fields).WithContext(ctx)
}

// WithRequest tags ctx with an API request id.
func WithRequest(ctx context.Context, requestID string) context.Context {
	return WithFields(ctx, Fields{
		FieldRequestID: requestID,
		FieldComponent: "api",
	})
}

// WithRanking tags ctx with the strategy and metric of one ranking call.
func WithRanking(ctx context.Context, strategy, metric string) context.Context {
	return WithFields(ctx, Fields{
		FieldStrategy: strategy,
		FieldMetric:   metric,
	})
}

// WithIngestJob tags ctx with an ingest job and the catalog source it reads.
func WithIngestJob(ctx context.Context, jobID, sourceID string) context.Context {
	return WithFields(ctx, Fields{
		FieldJobID:     jobID,
		FieldSource:    sourceID,
		FieldComponent: "ingest",
	})
}

// RequestID returns the request id carried by ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := FromContext(ctx).Data[FieldRequestID].(string)
	return id
}
