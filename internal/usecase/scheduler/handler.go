package scheduler

import (
	"context"

	"github.com/acoshift/neppage/internal/boundaries/out"
	"github.com/acoshift/neppage/internal/domain"
	"github.com/acoshift/neppage/internal/logging"
)

// TriggerHandler turns events into debounced job triggers.
type TriggerHandler struct {
	s      *Scheduler
	routes map[domain.EventType]string
}

// NewTriggerHandler maps manual reloads to the pages job and manual syncs
// and fresh page sets to the files job.
func NewTriggerHandler(s *Scheduler) *TriggerHandler {
	return &TriggerHandler{
		s: s,
		routes: map[domain.EventType]string{
			domain.EventManualReload:   domain.JobPages,
			domain.EventManualSync:     domain.JobFiles,
			domain.EventPagesRefreshed: domain.JobFiles,
		},
	}
}

// CanHandle reports whether eventType maps to a job.
func (h *TriggerHandler) CanHandle(eventType domain.EventType) bool {
	_, ok := h.routes[eventType]
	return ok
}

// Handle triggers the job mapped to event.
func (h *TriggerHandler) Handle(ctx context.Context, event domain.Event) error {
	job := h.routes[event.Type]
	logging.FromCtx(ctx).Debug().
		Str(logging.FieldEvent, string(event.Type)).
		Str(logging.FieldJob, job).
		Msg("triggering job")
	return h.s.Trigger(job)
}

var _ out.EventHandler = (*TriggerHandler)(nil)
