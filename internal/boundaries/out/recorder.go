package out

import (
	"context"
	"time"
)

// Outcome labels used by SyncRecorder.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// SyncRecorder records sync engine measurements.
type SyncRecorder interface {
	RefreshSkipped(ctx context.Context)
	RefreshFailed(ctx context.Context)
	Refreshed(ctx context.Context, published, invalid int, elapsed time.Duration)
	RouteMutation(ctx context.Context, kind, outcome string)
	FileOp(ctx context.Context, op, outcome string)
}

// NopRecorder discards every measurement.
type NopRecorder struct{}

func (NopRecorder) RefreshSkipped(context.Context)                     {}
func (NopRecorder) RefreshFailed(context.Context)                      {}
func (NopRecorder) Refreshed(context.Context, int, int, time.Duration) {}
func (NopRecorder) RouteMutation(context.Context, string, string)      {}
func (NopRecorder) FileOp(context.Context, string, string)             {}
