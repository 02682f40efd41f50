package files

import "errors"

var (
	ErrFileNotFound = errors.New("file not found")
	// ErrNotAFolder is returned when a move/copy destination exists but is
	// not a folder.
	ErrNotAFolder = errors.New("destination is not a folder")
	// ErrInvalidDestination guards against self-parenting and cycles: a node
	// can never be moved into itself or one of its descendants.
	ErrInvalidDestination = errors.New("cannot move a folder into itself or its descendants")
	// ErrRangeNotSatisfiable is returned when a byte range starts at or past
	// the end of the file.
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)
