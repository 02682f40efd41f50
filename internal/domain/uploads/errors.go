package uploads

import "errors"

var (
	ErrSessionNotFound = errors.New("upload session not found")
	// ErrInvalidSessionState is returned when a chunk arrives for a session
	// that already completed or was cancelled. Terminal states stay terminal.
	ErrInvalidSessionState = errors.New("upload already completed or cancelled")
	ErrIncompleteUpload    = errors.New("missing chunks")
	ErrChunkOutOfRange     = errors.New("chunk index out of range")
)
