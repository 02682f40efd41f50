package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clouddrive/internal/domain/files"
)

// Service coordinates chunked uploads: sessions are created empty, chunks
// accumulate in a per-session directory, and completion merges them into a
// permanent file record. Cancellation at any point tears the session down
// without creating a record.
type Service struct {
	repo      Repository
	files     *files.Service
	chunksDir string
	chunkSize int64
}

func NewService(repo Repository, filesService *files.Service, chunksDir string, chunkSize int64) *Service {
	return &Service{
		repo:      repo,
		files:     filesService,
		chunksDir: chunksDir,
		chunkSize: chunkSize,
	}
}

// ChunkSize is the chunk size advertised to clients.
func (s *Service) ChunkSize() int64 { return s.chunkSize }

func (s *Service) sessionDir(uploadID string) string {
	return filepath.Join(s.chunksDir, uploadID)
}

func (s *Service) chunkPath(uploadID string, index int) string {
	return filepath.Join(s.sessionDir(uploadID), fmt.Sprintf("chunk_%d", index))
}

// Init allocates a fresh session with an empty received set.
func (s *Service) Init(ctx context.Context, filename string, declaredSize int64, totalChunks int, folderID *string) (*Session, error) {
	session := &Session{
		UploadID:     uuid.New().String(),
		Filename:     filename,
		DeclaredSize: declaredSize,
		TotalChunks:  totalChunks,
		FolderID:     folderID,
		Received:     "[]",
		Status:       StatusInProgress,
		CreatedAt:    time.Now(),
	}

	if err := os.MkdirAll(s.sessionDir(session.UploadID), 0o755); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	if err := s.repo.Create(ctx, session); err != nil {
		os.RemoveAll(s.sessionDir(session.UploadID))
		return nil, fmt.Errorf("create session: %w", err)
	}

	return session, nil
}

// IngestChunk stores one chunk payload. Re-sending an index overwrites the
// previous payload and does not grow the received set. Indices outside
// [0, totalChunks) are rejected.
func (s *Service) IngestChunk(ctx context.Context, uploadID string, index int, payload io.Reader) (*Session, error) {
	session, err := s.repo.GetByID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusInProgress {
		return nil, ErrInvalidSessionState
	}
	if index < 0 || index >= session.TotalChunks {
		return nil, fmt.Errorf("%w: %d of %d", ErrChunkOutOfRange, index, session.TotalChunks)
	}

	path := s.chunkPath(uploadID, index)
	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create chunk file: %w", err)
	}
	_, err = io.Copy(dst, payload)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write chunk: %w", err)
	}

	return s.repo.MarkReceived(ctx, uploadID, index)
}

// Status returns the resume info for a session.
func (s *Service) Status(ctx context.Context, uploadID string) (*Session, error) {
	return s.repo.GetByID(ctx, uploadID)
}

// Complete merges the chunks in index order into a permanent file record,
// then tears the session down. The distinct-index count must equal the
// declared total — count-based checks over a list would be fooled by
// duplicates, which is exactly why the received set is a set.
//
// A failure during the merge rolls the new record back but leaves the
// session directory intact so the client can retry.
func (s *Service) Complete(ctx context.Context, uploadID string) (*files.FileRecord, error) {
	session, err := s.repo.GetByID(ctx, uploadID)
	if err != nil {
		return nil, err
	}
	if session.Status != StatusInProgress {
		return nil, ErrInvalidSessionState
	}

	received := session.ReceivedCount()
	if received != session.TotalChunks {
		return nil, fmt.Errorf("%w: got %d, expected %d", ErrIncompleteUpload, received, session.TotalChunks)
	}

	rec, err := s.files.CreateRecord(ctx, session.Filename, session.DeclaredSize, session.FolderID, false)
	if err != nil {
		return nil, err
	}

	written, err := s.merge(session, s.files.AbsolutePath(rec))
	if err != nil {
		// Keep the chunk directory for diagnosis/retry; drop the half-made
		// record and file so no orphan metadata survives.
		os.Remove(s.files.AbsolutePath(rec))
		if _, derr := s.files.PermanentDelete(ctx, rec.ID); derr != nil {
			return nil, fmt.Errorf("merge failed: %w (record cleanup also failed: %v)", err, derr)
		}
		return nil, fmt.Errorf("merge chunks: %w", err)
	}

	if written != rec.SizeBytes {
		if updated, uerr := s.files.Repository().Update(ctx, rec.ID, map[string]any{"size_bytes": written}); uerr == nil {
			rec = updated
		}
	}

	rec = s.files.AttemptThumbnail(ctx, rec)

	// Merge succeeded: the session is gone for good, like the reference's
	// directory removal. A later status query reports not-found.
	if err := os.RemoveAll(s.sessionDir(uploadID)); err != nil {
		return nil, fmt.Errorf("cleanup session dir: %w", err)
	}
	if err := s.repo.Delete(ctx, uploadID); err != nil {
		return nil, fmt.Errorf("cleanup session: %w", err)
	}

	return rec, nil
}

func (s *Service) merge(session *Session, dstPath string) (int64, error) {
	dst, err := os.Create(dstPath)
	if err != nil {
		return 0, fmt.Errorf("create target: %w", err)
	}
	defer dst.Close()

	var written int64
	buf := make([]byte, 64*1024)
	for i := 0; i < session.TotalChunks; i++ {
		chunk, err := os.Open(s.chunkPath(session.UploadID, i))
		if err != nil {
			return written, fmt.Errorf("open chunk %d: %w", i, err)
		}
		n, err := io.CopyBuffer(dst, chunk, buf)
		chunk.Close()
		written += n
		if err != nil {
			return written, fmt.Errorf("append chunk %d: %w", i, err)
		}
	}

	if err := dst.Sync(); err != nil {
		return written, fmt.Errorf("sync target: %w", err)
	}
	return written, nil
}

// Cancel deletes the session storage unconditionally. Cancelling a session
// that is already gone is fine — the outcome is the same.
func (s *Service) Cancel(ctx context.Context, uploadID string) error {
	if err := os.RemoveAll(s.sessionDir(uploadID)); err != nil {
		return fmt.Errorf("remove session dir: %w", err)
	}
	if err := s.repo.Delete(ctx, uploadID); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
