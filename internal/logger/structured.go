package logger

import (
	"context"

	"go.uber.org/zap"
)

// LogComponent tags log lines with the part of the relayer that wrote them.
type LogComponent string

const (
	ComponentRPC        LogComponent = "rpc"
	ComponentWallet     LogComponent = "wallet"
	ComponentChain      LogComponent = "chain"
	ComponentMiddleware LogComponent = "middleware"
	ComponentServer     LogComponent = "server"
	ComponentConfig     LogComponent = "config"
)

// For returns Log tagged with component.
func For(component LogComponent) *zap.Logger {
	return Log.With(zap.String("component", string(component)))
}

// StructuredLogger accumulates request context on top of a component logger.
// It is immutable: every With method returns a new logger.
type StructuredLogger struct {
	logger *zap.Logger
}

// NewStructuredLogger creates a logger for component.
func NewStructuredLogger(component LogComponent) *StructuredLogger {
	return &StructuredLogger{logger: For(component)}
}

// FromContext creates a logger for component carrying the correlation id of ctx.
func FromContext(ctx context.Context, component LogComponent) *StructuredLogger {
	return NewStructuredLogger(component).WithCorrelationID(CorrelationIDFromContext(ctx))
}

func (sl *StructuredLogger) with(fields ...zap.Field) *StructuredLogger {
	return &StructuredLogger{logger: sl.logger.With(fields...)}
}

func (sl *StructuredLogger) WithField(key string, value interface{}) *StructuredLogger {
	return sl.with(zap.Any(key, value))
}

func (sl *StructuredLogger) WithFields(fields map[string]interface{}) *StructuredLogger {
	zapFields := make([]zap.Field, 0, len(fields))
	for key, value := range fields {
		zapFields = append(zapFields, zap.Any(key, value))
	}
	return sl.with(zapFields...)
}

// WithCorrelationID returns sl unchanged for an empty id.
func (sl *StructuredLogger) WithCorrelationID(correlationID string) *StructuredLogger {
	if correlationID == "" {
		return sl
	}
	return sl.with(zap.String("correlation_id", correlationID))
}

func (sl *StructuredLogger) WithOperation(operation string) *StructuredLogger {
	return sl.with(zap.String("operation", operation))
}

func (sl *StructuredLogger) Debug(msg string) {
	sl.logger.Debug(msg)
}

func (sl *StructuredLogger) Info(msg string) {
	sl.logger.Info(msg)
}

// Warn logs msg with err attached. A nil err adds no field.
func (sl *StructuredLogger) Warn(msg string, err error) {
	sl.logger.Warn(msg, zap.Error(err))
}

// Error logs msg with err attached. A nil err adds no field.
func (sl *StructuredLogger) Error(msg string, err error) {
	sl.logger.Error(msg, zap.Error(err))
}
