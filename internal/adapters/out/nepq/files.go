package nepq

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/acoshift/neppage/internal/adapters/dto"
	"github.com/acoshift/neppage/internal/boundaries/out"
	"github.com/acoshift/neppage/internal/domain"
)

const collectionFiles = "files"

var fileFields = []string{"_id", "pageId", "name", "path", "data", "op"}

// Files is the pending file operation queue in the config store.
type Files struct {
	client *Client
}

// NewFiles creates a file queue repository.
func NewFiles(client *Client) *Files {
	return &Files{client: client}
}

// PendingFileOps returns every record whose op is update or delete.
func (f *Files) PendingFileOps(ctx context.Context) ([]domain.FileOp, error) {
	cmd := Query(collectionFiles, `op:{$in:["update","delete"]}`, fileFields...)
	res, err := f.client.Fetch(ctx, cmd, "")
	if err != nil {
		return nil, err
	}

	var records []dto.FileConfig
	if err := json.Unmarshal(res.Body, &records); err != nil {
		return nil, fmt.Errorf("%w: files: %v", domain.ErrMalformedPayload, err)
	}

	ops := make([]domain.FileOp, 0, len(records))
	for _, r := range records {
		ops = append(ops, r.ToDomain())
	}
	return ops, nil
}

// MarkDone sets op to done and clears the stored payload.
func (f *Files) MarkDone(ctx context.Context, id string) error {
	cmd, err := Update(collectionFiles, id, dto.FileStatus{Op: string(domain.FileOpDone)}, "data")
	if err != nil {
		return err
	}
	return f.client.Exec(ctx, cmd)
}

// MarkError sets op to error.
func (f *Files) MarkError(ctx context.Context, id string) error {
	cmd, err := Update(collectionFiles, id, dto.FileStatus{Op: string(domain.FileOpError)})
	if err != nil {
		return err
	}
	return f.client.Exec(ctx, cmd)
}

// Remove deletes the record of a completed delete.
func (f *Files) Remove(ctx context.Context, id string) error {
	return f.client.Exec(ctx, DeleteOne(collectionFiles, id))
}

var _ out.FileQueue = (*Files)(nil)
