// Package pages implements the page config fetcher, the owner of the
// published tenant set.
package pages

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/acoshift/neppage/internal/boundaries/in"
	"github.com/acoshift/neppage/internal/boundaries/out"
	"github.com/acoshift/neppage/internal/domain"
	"github.com/acoshift/neppage/internal/logging"
)

// Reconciler converges external state on a freshly published tenant set.
type Reconciler interface {
	Reconcile(ctx context.Context, tenants *domain.TenantSet) (domain.ReconcileResult, error)
}

// Service fetches tenant definitions and publishes them.
type Service struct {
	repo       out.PageRepository
	reconciler Reconciler
	publisher  out.EventPublisher
	recorder   out.SyncRecorder
	nowFn      func() time.Time

	current atomic.Pointer[domain.TenantSet]
	running atomic.Bool

	mu   sync.Mutex
	etag string
}

// NewService creates a page service. reconciler and publisher may be nil.
func NewService(repo out.PageRepository, reconciler Reconciler, publisher out.EventPublisher) *Service {
	s := &Service{
		repo:       repo,
		reconciler: reconciler,
		publisher:  publisher,
		recorder:   out.NopRecorder{},
		nowFn:      time.Now,
	}
	s.current.Store(domain.NewTenantSet(nil))
	return s
}

// SetRecorder sets the metrics recorder. Must be called before the first
// refresh.
func (s *Service) SetRecorder(r out.SyncRecorder) {
	if r != nil {
		s.recorder = r
	}
}

// Pages returns the published snapshot. It is never nil.
func (s *Service) Pages() *domain.TenantSet {
	return s.current.Load()
}

// PageByName looks a published tenant up by name.
func (s *Service) PageByName(name string) (domain.TenantConfig, bool) {
	return s.current.Load().ByName(name)
}

// Refresh lists tenant records and, when they changed, publishes the
// valid ones and reconciles routes against them. On failure or when the
// store answers not modified the published set is left untouched.
func (s *Service) Refresh(ctx context.Context) (domain.RefreshResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return domain.RefreshResult{}, domain.ErrCycleInProgress
	}
	defer s.running.Store(false)

	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:   "usecase",
		logging.FieldUseCase: "RefreshPages",
	})
	log := logging.FromCtx(ctx)
	start := s.nowFn()

	list, err := s.repo.ListPages(ctx, s.lastETag())
	if err != nil {
		s.recorder.RefreshFailed(ctx)
		level := log.Warn()
		if errors.Is(err, domain.ErrMalformedPayload) {
			level = log.Error()
		}
		level.Err(err).Msg("failed to fetch pages, keeping previous set")
		return domain.RefreshResult{}, err
	}
	if list.NotModified {
		s.recorder.RefreshSkipped(ctx)
		log.Debug().Msg("pages not modified")
		return domain.RefreshResult{}, nil
	}

	valid := make([]domain.TenantConfig, 0, len(list.Pages))
	invalid := 0
	for _, p := range list.Pages {
		if err := p.Validate(); err != nil {
			invalid++
			log.Debug().Err(err).Str(logging.FieldPageID, p.ID).Msg("dropping page record")
			continue
		}
		valid = append(valid, p)
	}

	set := domain.NewTenantSet(valid)
	s.current.Store(set)
	s.setETag(list.ETag)

	log.Info().
		Int(logging.FieldCount, set.Len()).
		Int("invalid", invalid).
		Msg("pages published")

	if s.publisher != nil {
		if err := s.publisher.Publish(domain.EventPagesRefreshed, domain.PagesRefreshedPayload{
			Count:       set.Len(),
			Fingerprint: set.Fingerprint(),
		}); err != nil {
			log.Warn().Err(err).Msg("failed to publish pages refreshed event")
		}
	}

	result := domain.RefreshResult{Changed: true, Published: set.Len(), Invalid: invalid}
	if s.reconciler != nil {
		rr, err := s.reconciler.Reconcile(ctx, set)
		result.Reconcile = &rr
		if err != nil || rr.Failures > 0 {
			// Forget the etag so the next tick fetches again and drives
			// another reconciliation pass.
			s.setETag("")
			if err != nil && !errors.Is(err, domain.ErrCycleInProgress) {
				log.Warn().Err(err).Msg("route reconciliation failed")
			}
		}
	}

	s.recorder.Refreshed(ctx, set.Len(), invalid, s.nowFn().Sub(start))
	return result, nil
}

func (s *Service) lastETag() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.etag
}

func (s *Service) setETag(etag string) {
	s.mu.Lock()
	s.etag = etag
	s.mu.Unlock()
}

var _ in.PageService = (*Service)(nil)
