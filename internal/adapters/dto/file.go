package dto

import "github.com/acoshift/neppage/internal/domain"

// FileConfig is a record of the "files" collection.
type FileConfig struct {
	ID     string `json:"_id"`
	PageID string `json:"pageId"`
	Name   string `json:"name"`
	Path   string `json:"path"`
	Data   string `json:"data"`
	Op     string `json:"op"`
}

// ToDomain converts the record. PageName is left for the caller to join.
func (f FileConfig) ToDomain() domain.FileOp {
	return domain.FileOp{
		ID:     f.ID,
		PageID: f.PageID,
		Name:   f.Name,
		Path:   f.Path,
		Data:   f.Data,
		Op:     domain.FileOpKind(f.Op),
	}
}

// FileStatus is the partial document written back to a file record.
type FileStatus struct {
	Op string `json:"op"`
}
