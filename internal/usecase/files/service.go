// Package files applies pending file operations to tenant directories.
package files

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/acoshift/neppage/internal/boundaries/in"
	"github.com/acoshift/neppage/internal/boundaries/out"
	"github.com/acoshift/neppage/internal/domain"
	"github.com/acoshift/neppage/internal/logging"
)

// Service is the file sync worker.
type Service struct {
	queue    out.FileQueue
	files    out.PageFiles
	recorder out.SyncRecorder
	running  atomic.Bool
}

// NewService creates a file sync worker.
func NewService(queue out.FileQueue, files out.PageFiles) *Service {
	return &Service{
		queue:    queue,
		files:    files,
		recorder: out.NopRecorder{},
	}
}

// SetRecorder sets the metrics recorder.
func (s *Service) SetRecorder(r out.SyncRecorder) {
	if r != nil {
		s.recorder = r
	}
}

type counters struct {
	done, removed, errored, failed atomic.Int32
}

// Operate processes every pending operation against tenants. Nothing is
// queried while tenants is empty. Items are independent: each one ends
// done, removed or error without affecting the others.
func (s *Service) Operate(ctx context.Context, tenants *domain.TenantSet) (domain.OperateResult, error) {
	if tenants.Len() == 0 {
		return domain.OperateResult{}, nil
	}
	if !s.running.CompareAndSwap(false, true) {
		return domain.OperateResult{}, domain.ErrCycleInProgress
	}
	defer s.running.Store(false)

	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:   "usecase",
		logging.FieldUseCase: "OperateFiles",
	})
	log := logging.FromCtx(ctx)

	ops, err := s.queue.PendingFileOps(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to query pending file operations")
		return domain.OperateResult{}, err
	}
	if len(ops) == 0 {
		return domain.OperateResult{}, nil
	}

	var (
		g errgroup.Group
		c counters
	)
	for _, op := range ops {
		if t, ok := tenants.ByID(op.PageID); ok {
			op.PageName = t.Name
		}
		g.Go(func() error {
			s.process(ctx, op, &c)
			return nil
		})
	}
	_ = g.Wait()

	result := domain.OperateResult{
		Done:    int(c.done.Load()),
		Removed: int(c.removed.Load()),
		Errored: int(c.errored.Load()),
		Failed:  int(c.failed.Load()),
	}

	log.Info().
		Int(logging.FieldCount, len(ops)).
		Int("done", result.Done).
		Int("removed", result.Removed).
		Int("errored", result.Errored).
		Int("report_failures", result.Failed).
		Msg("file operations processed")

	return result, nil
}

func (s *Service) process(ctx context.Context, op domain.FileOp, c *counters) {
	log := logging.FromCtx(ctx).With().
		Str(logging.FieldEntityID, op.ID).
		Str(logging.FieldPageID, op.PageID).
		Str("op", string(op.Op)).
		Logger()

	var err error
	if err = op.Validate(); err == nil {
		switch op.Op {
		case domain.FileOpUpdate:
			err = s.update(op)
		case domain.FileOpDelete:
			err = s.files.RemoveFile(op.PageName, op.Path, op.Name)
		}
	}

	if err != nil {
		log.Warn().Err(err).Msg("file operation failed")
		c.errored.Add(1)
		s.recorder.FileOp(ctx, string(op.Op), out.OutcomeFailed)
		if op.ID == "" {
			return
		}
		if rerr := s.queue.MarkError(ctx, op.ID); rerr != nil {
			c.failed.Add(1)
			log.Warn().Err(rerr).Msg("failed to report file error")
		}
		return
	}

	s.recorder.FileOp(ctx, string(op.Op), out.OutcomeOK)
	status := domain.FileOpDone
	var rerr error
	if op.Op == domain.FileOpDelete {
		status = domain.FileOpRemoved
		c.removed.Add(1)
		rerr = s.queue.Remove(ctx, op.ID)
	} else {
		c.done.Add(1)
		rerr = s.queue.MarkDone(ctx, op.ID)
	}

	log = log.With().Str(logging.FieldStatus, string(status)).Logger()
	if rerr != nil {
		c.failed.Add(1)
		log.Warn().Err(rerr).Msg("failed to report file status")
		return
	}
	log.Debug().Msg("file operation applied")
}

func (s *Service) update(op domain.FileOp) error {
	if op.Data == "" {
		return fmt.Errorf("%w: empty payload", domain.ErrInvalidPayload)
	}
	data, err := base64.StdEncoding.DecodeString(op.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPayload, err)
	}
	return s.files.WriteFile(op.PageName, op.Path, op.Name, data)
}

var _ in.FileService = (*Service)(nil)
