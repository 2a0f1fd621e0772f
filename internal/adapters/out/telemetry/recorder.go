package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/acoshift/neppage/internal/boundaries/out"
)

// Recorder implements out.SyncRecorder on top of Metrics.
type Recorder struct {
	m *Metrics
}

// NewRecorder wraps m.
func NewRecorder(m *Metrics) *Recorder {
	return &Recorder{m: m}
}

func (r *Recorder) RefreshSkipped(ctx context.Context) {
	r.m.RefreshSkipped.Add(ctx, 1)
}

func (r *Recorder) RefreshFailed(ctx context.Context) {
	r.m.RefreshFailed.Add(ctx, 1)
}

func (r *Recorder) Refreshed(ctx context.Context, published, invalid int, elapsed time.Duration) {
	r.m.RefreshTotal.Add(ctx, 1)
	r.m.PublishedPages.Record(ctx, int64(published))
	if invalid > 0 {
		r.m.InvalidPages.Add(ctx, int64(invalid))
	}
	r.m.RefreshDuration.Record(ctx, elapsed.Seconds())
}

func (r *Recorder) RouteMutation(ctx context.Context, kind, outcome string) {
	r.m.RouteMutations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	))
}

func (r *Recorder) FileOp(ctx context.Context, op, outcome string) {
	r.m.FileOps.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome),
	))
}

var _ out.SyncRecorder = (*Recorder)(nil)
