package out

import (
	"context"

	"github.com/acoshift/neppage/internal/domain"
)

// PageList is the result of a conditional tenant listing.
// NotModified is set when the store answered that nothing changed since
// the etag sent; Pages is empty in that case.
type PageList struct {
	Pages       []domain.TenantConfig
	ETag        string
	NotModified bool
}

// PageRepository reads tenant definitions from the config store.
type PageRepository interface {
	ListPages(ctx context.Context, etag string) (PageList, error)
}

// RouteList is the result of a conditional route table listing.
type RouteList struct {
	Routes      []domain.RouteEntry
	ETag        string
	NotModified bool
}

// RouteTable mutates the remote route table.
type RouteTable interface {
	ListRoutes(ctx context.Context, etag string) (RouteList, error)
	CreateRoute(ctx context.Context, route domain.RouteEntry) error
	UpdateRoute(ctx context.Context, id string, route domain.RouteEntry) error
	DeleteRoutes(ctx context.Context, ids []string) error
}

// FileQueue is the pending file operation queue kept in the config store.
type FileQueue interface {
	PendingFileOps(ctx context.Context) ([]domain.FileOp, error)
	MarkDone(ctx context.Context, id string) error
	MarkError(ctx context.Context, id string) error
	Remove(ctx context.Context, id string) error
}

// PageFiles materializes tenant files on local storage.
// Implementations must reject any location outside the tenant directory
// before touching storage.
type PageFiles interface {
	WriteFile(pageName, dir, name string, data []byte) error
	RemoveFile(pageName, dir, name string) error
}
