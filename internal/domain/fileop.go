package domain

import "fmt"

// FileOpKind is the requested action on a tenant file.
type FileOpKind string

const (
	FileOpUpdate FileOpKind = "update"
	FileOpDelete FileOpKind = "delete"
)

// FileOpStatus is the terminal state reported back to the config store.
type FileOpStatus string

const (
	FileOpDone    FileOpStatus = "done"
	FileOpError   FileOpStatus = "error"
	FileOpRemoved FileOpStatus = "removed"
)

// FileOp is a pending file change queued in the config store.
// PageName is not part of the stored record; it is joined from the
// tenant set before the operation is validated.
type FileOp struct {
	ID       string
	PageID   string
	PageName string
	Name     string
	Path     string
	Data     string
	Op       FileOpKind
}

// Validate checks the fields required to act on the operation.
// It does not inspect the payload or resolve the target on disk.
func (f FileOp) Validate() error {
	switch {
	case f.ID == "":
		return fmt.Errorf("%w: missing id", ErrInvalidFileOp)
	case f.PageID == "":
		return fmt.Errorf("%w: missing page id", ErrInvalidFileOp)
	case f.Name == "":
		return fmt.Errorf("%w: missing name", ErrInvalidFileOp)
	case f.Path == "":
		return fmt.Errorf("%w: missing path", ErrInvalidFileOp)
	case f.PageName == "":
		return fmt.Errorf("%w: page %s", ErrPageNotFound, f.PageID)
	case f.Op != FileOpUpdate && f.Op != FileOpDelete:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidFileOp, f.Op)
	case !ValidSegment(f.Name):
		return fmt.Errorf("%w: name %q", ErrPathEscape, f.Name)
	}
	return nil
}
