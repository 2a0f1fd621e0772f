package routes

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/acoshift/neppage/internal/boundaries/in"
	"github.com/acoshift/neppage/internal/boundaries/out"
	"github.com/acoshift/neppage/internal/domain"
	"github.com/acoshift/neppage/internal/logging"
)

// Mutation kinds reported to the recorder.
const (
	KindCreate = "create"
	KindUpdate = "update"
	KindDelete = "delete"
)

// Service reconciles the remote route table.
type Service struct {
	table    out.RouteTable
	identity domain.ServerIdentity
	recorder out.SyncRecorder
	running  atomic.Bool

	mu          sync.Mutex
	etag        string
	fingerprint string
}

// NewService creates a reconciler owning routes for identity.
func NewService(table out.RouteTable, identity domain.ServerIdentity) *Service {
	return &Service{
		table:    table,
		identity: identity,
		recorder: out.NopRecorder{},
	}
}

// SetRecorder sets the metrics recorder.
func (s *Service) SetRecorder(r out.SyncRecorder) {
	if r != nil {
		s.recorder = r
	}
}

// Reconcile lists the remote table, plans and applies the mutations.
//
// The listing is conditional only when tenants are identical to the last
// pass that found the table converged, so an unchanged table is skipped
// without work. A failed listing aborts the pass before any mutation.
func (s *Service) Reconcile(ctx context.Context, tenants *domain.TenantSet) (domain.ReconcileResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return domain.ReconcileResult{}, domain.ErrCycleInProgress
	}
	defer s.running.Store(false)

	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:   "usecase",
		logging.FieldUseCase: "ReconcileRoutes",
	})
	log := logging.FromCtx(ctx)

	fp := tenants.Fingerprint()
	etag := s.conditionalETag(fp)

	list, err := s.table.ListRoutes(ctx, etag)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list routes, skipping pass")
		return domain.ReconcileResult{}, err
	}
	if list.NotModified {
		log.Debug().Msg("routes not modified")
		return domain.ReconcileResult{Skipped: true}, nil
	}

	plan := Plan(s.identity, tenants, list.Routes)
	if plan.Empty() {
		s.remember(list.ETag, fp)
		log.Debug().Int(logging.FieldCount, len(list.Routes)).Msg("routes already converged")
		return domain.ReconcileResult{}, nil
	}

	s.forget()
	result := s.apply(ctx, plan)

	log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("deleted", result.Deleted).
		Int("failures", result.Failures).
		Msg("routes reconciled")

	return result, nil
}

// PlanFor returns the mutations a pass would issue, without issuing them.
func (s *Service) PlanFor(ctx context.Context, tenants *domain.TenantSet) (domain.RoutePlan, error) {
	list, err := s.table.ListRoutes(ctx, "")
	if err != nil {
		return domain.RoutePlan{}, err
	}
	return Plan(s.identity, tenants, list.Routes), nil
}

// apply issues every mutation concurrently. Failures are counted and never
// retried; one failure does not stop the others.
func (s *Service) apply(ctx context.Context, plan domain.RoutePlan) domain.ReconcileResult {
	log := logging.FromCtx(ctx)

	var (
		g                          errgroup.Group
		created, updated, failures atomic.Int32
		deleted                    int
		deleteOK                   atomic.Bool
	)

	for _, r := range plan.Creates {
		g.Go(func() error {
			if err := s.table.CreateRoute(ctx, r); err != nil {
				failures.Add(1)
				s.recorder.RouteMutation(ctx, KindCreate, out.OutcomeFailed)
				log.Warn().Err(err).Str(logging.FieldPageID, r.PageID).Msg("failed to create route")
				return nil
			}
			created.Add(1)
			s.recorder.RouteMutation(ctx, KindCreate, out.OutcomeOK)
			return nil
		})
	}

	for _, r := range plan.Updates {
		g.Go(func() error {
			if err := s.table.UpdateRoute(ctx, r.ID, r); err != nil {
				failures.Add(1)
				s.recorder.RouteMutation(ctx, KindUpdate, out.OutcomeFailed)
				log.Warn().Err(err).
					Str(logging.FieldEntityID, r.ID).
					Str(logging.FieldPageID, r.PageID).
					Msg("failed to update route")
				return nil
			}
			updated.Add(1)
			s.recorder.RouteMutation(ctx, KindUpdate, out.OutcomeOK)
			return nil
		})
	}

	if len(plan.Deletes) > 0 {
		ids := plan.Deletes
		g.Go(func() error {
			if err := s.table.DeleteRoutes(ctx, ids); err != nil {
				failures.Add(1)
				s.recorder.RouteMutation(ctx, KindDelete, out.OutcomeFailed)
				log.Warn().Err(err).Strs("ids", ids).Msg("failed to delete routes")
				return nil
			}
			deleteOK.Store(true)
			s.recorder.RouteMutation(ctx, KindDelete, out.OutcomeOK)
			return nil
		})
	}

	_ = g.Wait()

	if deleteOK.Load() {
		deleted = len(plan.Deletes)
	}

	return domain.ReconcileResult{
		Created:  int(created.Load()),
		Updated:  int(updated.Load()),
		Deleted:  deleted,
		Failures: int(failures.Load()),
	}
}

func (s *Service) conditionalETag(fingerprint string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fingerprint != s.fingerprint {
		return ""
	}
	return s.etag
}

func (s *Service) remember(etag, fingerprint string) {
	s.mu.Lock()
	s.etag = etag
	s.fingerprint = fingerprint
	s.mu.Unlock()
}

func (s *Service) forget() {
	s.remember("", "")
}

var _ in.RouteService = (*Service)(nil)
