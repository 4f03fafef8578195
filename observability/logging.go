package observability

import (
	"time"

	"github.com/aalemi-dev/sqlguard/logger"
)

// DefaultSlowThreshold is the duration above which LoggingObserver reports
// a successful operation as slow.
const DefaultSlowThreshold = time.Second

// LoggingObserver writes failed and slow operations as warnings and every
// other operation at debug level.
type LoggingObserver struct {
	log           logger.Logger
	slowThreshold time.Duration
}

// NewLoggingObserver creates a LoggingObserver. A non-positive threshold
// selects DefaultSlowThreshold.
func NewLoggingObserver(log logger.Logger, slowThreshold time.Duration) *LoggingObserver {
	if slowThreshold <= 0 {
		slowThreshold = DefaultSlowThreshold
	}
	return &LoggingObserver{log: log, slowThreshold: slowThreshold}
}

// ObserveOperation implements Observer.
func (o *LoggingObserver) ObserveOperation(ctx OperationContext) {
	fields := map[string]interface{}{
		"component":   ctx.Component,
		"operation":   ctx.Operation,
		"resource":    ctx.Resource,
		"duration_ms": ctx.Duration.Milliseconds(),
	}
	if ctx.SubResource != "" {
		fields["sub_resource"] = ctx.SubResource
	}
	if ctx.Size > 0 {
		fields["size"] = ctx.Size
	}

	switch {
	case ctx.Error != nil:
		o.log.Warn("operation failed", ctx.Error, fields, ctx.Metadata)
	case ctx.Duration >= o.slowThreshold:
		o.log.Warn("slow operation", nil, fields, ctx.Metadata)
	default:
		o.log.Debug("operation completed", nil, fields, ctx.Metadata)
	}
}
