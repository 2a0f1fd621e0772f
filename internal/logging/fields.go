// Package logging configures zerolog and carries loggers through contexts.
package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// Standard field names.
const (
	FieldLayer     = "layer"
	FieldUseCase   = "usecase"
	FieldAdapter   = "adapter"
	FieldComponent = "component"
	FieldHandler   = "handler"
	FieldEvent     = "event"
	FieldEntityID  = "entity_id"
	FieldPageID    = "page_id"
	FieldPage      = "page"
	FieldJob       = "job"
	FieldCount     = "count"
	FieldDuration  = "duration"
	FieldStatus    = "status"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldHost      = "host"
)

// WithCtx attaches log to ctx.
func WithCtx(ctx context.Context, log zerolog.Logger) context.Context {
	return log.WithContext(ctx)
}

// FromCtx returns the logger carried by ctx, or a disabled logger.
func FromCtx(ctx context.Context) *zerolog.Logger {
	return zerolog.Ctx(ctx)
}

// CtxWithFields returns a context whose logger carries fields.
func CtxWithFields(ctx context.Context, fields map[string]any) context.Context {
	l := FromCtx(ctx).With().Fields(fields).Logger()
	return l.WithContext(ctx)
}
