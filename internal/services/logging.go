package services

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/SAP-F-2025/survey-service/internal/events"
)

type contextKey string

// RequestIDKey carries the request id through service calls.
const RequestIDKey contextKey = "request_id"

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service     string
	Component   string
	EnableDebug bool
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// ===== OPERATION LOGGING =====

func (l *ServiceLogger) LogOperation(ctx context.Context, operation string, resourceID string, resourceType string, duration time.Duration, err error) {
	level := slog.LevelInfo
	status := "success"

	if err != nil {
		level = slog.LevelError
		status = "error"

		// Adjust log level based on error type
		switch {
		case IsNotAccepted(err):
			level = slog.LevelInfo
			status = "not_accepted"
		case IsValidation(err) || IsBusinessRule(err):
			level = slog.LevelWarn
			status = "validation_error"
		case IsNotFound(err):
			level = slog.LevelInfo
			status = "not_found"
		case IsConflict(err):
			level = slog.LevelWarn
			status = "conflict"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("resource_id", resourceID),
		slog.String("resource_type", resourceType),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		if validationErr, ok := err.(ValidationErrors); ok {
			attrs = append(attrs, slog.Int("validation_errors_count", len(validationErr)))
		} else if businessErr, ok := err.(*BusinessRuleError); ok {
			attrs = append(attrs, slog.String("business_rule", businessErr.Rule))
		}
	}

	if requestID, ok := ctx.Value(RequestIDKey).(string); ok {
		attrs = append(attrs, slog.String("request_id", requestID))
	}

	// Add caller information for errors
	if level == slog.LevelError {
		if pc, file, line, ok := runtime.Caller(2); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				attrs = append(attrs,
					slog.String("caller_func", fn.Name()),
					slog.String("caller_file", file),
					slog.Int("caller_line", line),
				)
			}
		}
	}

	l.logger.LogAttrs(ctx, level, fmt.Sprintf("%s operation %s", operation, status), attrs...)
}

// ===== MIDDLEWARE AND HELPERS =====

// ContextualLogger times one operation and logs its result
type ContextualLogger struct {
	logger    *ServiceLogger
	ctx       context.Context
	operation string
	startTime time.Time
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation string) *ContextualLogger {
	return &ContextualLogger{
		logger:    l,
		ctx:       ctx,
		operation: operation,
		startTime: time.Now(),
	}
}

func (cl *ContextualLogger) LogResult(resourceID string, resourceType string, err error) {
	cl.logger.LogOperation(cl.ctx, cl.operation, resourceID, resourceType, time.Since(cl.startTime), err)
}

// publishEvent sends an event without failing the caller; the answer is
// already stored when events go out.
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, event *events.SurveyEvent) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Warn("Failed to publish survey event", "event_id", event.ID, "event_type", event.Type, "error", err)
	}
}
