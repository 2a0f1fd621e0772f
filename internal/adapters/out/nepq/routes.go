package nepq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/acoshift/neppage/internal/adapters/dto"
	"github.com/acoshift/neppage/internal/boundaries/out"
	"github.com/acoshift/neppage/internal/domain"
)

// Routes talks to the route-table service.
type Routes struct {
	client *Client
}

// NewRoutes creates a route table repository.
func NewRoutes(client *Client) *Routes {
	return &Routes{client: client}
}

// ListRoutes lists the remote route table.
func (r *Routes) ListRoutes(ctx context.Context, etag string) (out.RouteList, error) {
	res, err := r.client.Fetch(ctx, List(collectionConfigs), etag)
	if err != nil {
		return out.RouteList{}, err
	}
	if res.NotModified {
		return out.RouteList{ETag: res.ETag, NotModified: true}, nil
	}

	var records []dto.RouteConfig
	if err := json.Unmarshal(res.Body, &records); err != nil {
		return out.RouteList{}, fmt.Errorf("%w: routes: %v", domain.ErrMalformedPayload, err)
	}

	routes := make([]domain.RouteEntry, 0, len(records))
	for _, rec := range records {
		routes = append(routes, rec.ToDomain())
	}
	return out.RouteList{Routes: routes, ETag: res.ETag}, nil
}

// CreateRoute creates a route entry.
func (r *Routes) CreateRoute(ctx context.Context, route domain.RouteEntry) error {
	cmd, err := Create(collectionConfigs, dto.RouteFromDomain(route))
	if err != nil {
		return err
	}
	return r.client.Exec(ctx, cmd)
}

// UpdateRoute replaces the entry stored under id.
func (r *Routes) UpdateRoute(ctx context.Context, id string, route domain.RouteEntry) error {
	cmd, err := Update(collectionConfigs, id, dto.RouteFromDomain(route))
	if err != nil {
		return err
	}
	return r.client.Exec(ctx, cmd)
}

// DeleteRoutes deletes all ids in one call. An empty list issues no call.
func (r *Routes) DeleteRoutes(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.client.Exec(ctx, DeleteMany(collectionConfigs, ids))
}

var _ out.RouteTable = (*Routes)(nil)
