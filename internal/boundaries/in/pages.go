// Package in declares the inbound ports offered by the use cases.
package in

import (
	"context"

	"github.com/acoshift/neppage/internal/domain"
)

// PageLookup is the read-only view of the published tenant set.
type PageLookup interface {
	Pages() *domain.TenantSet
	PageByName(name string) (domain.TenantConfig, bool)
}

// PageService refreshes the published tenant set.
type PageService interface {
	PageLookup
	Refresh(ctx context.Context) (domain.RefreshResult, error)
}

// RouteService converges the remote route table.
type RouteService interface {
	Reconcile(ctx context.Context, tenants *domain.TenantSet) (domain.ReconcileResult, error)
	PlanFor(ctx context.Context, tenants *domain.TenantSet) (domain.RoutePlan, error)
}

// FileService applies pending file operations.
type FileService interface {
	Operate(ctx context.Context, tenants *domain.TenantSet) (domain.OperateResult, error)
}
