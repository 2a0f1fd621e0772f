package nepq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/acoshift/neppage/internal/adapters/dto"
	"github.com/acoshift/neppage/internal/boundaries/out"
	"github.com/acoshift/neppage/internal/domain"
)

const collectionConfigs = "configs"

// Pages reads tenant records from the config store.
type Pages struct {
	client *Client
}

// NewPages creates a page repository.
func NewPages(client *Client) *Pages {
	return &Pages{client: client}
}

// ListPages lists every tenant record, normalized but not validated.
func (p *Pages) ListPages(ctx context.Context, etag string) (out.PageList, error) {
	res, err := p.client.Fetch(ctx, List(collectionConfigs), etag)
	if err != nil {
		return out.PageList{}, err
	}
	if res.NotModified {
		return out.PageList{ETag: res.ETag, NotModified: true}, nil
	}

	var records []dto.PageConfig
	if err := json.Unmarshal(res.Body, &records); err != nil {
		return out.PageList{}, fmt.Errorf("%w: pages: %v", domain.ErrMalformedPayload, err)
	}

	pages := make([]domain.TenantConfig, 0, len(records))
	for _, r := range records {
		pages = append(pages, r.ToDomain())
	}
	return out.PageList{Pages: pages, ETag: res.ETag}, nil
}

var _ out.PageRepository = (*Pages)(nil)
