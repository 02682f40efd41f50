package files

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"clouddrive/internal/pkg/thumbnail"
)

// Service is the file lifecycle manager: every operation is a metadata
// mutation plus, where applicable, a physical-file side effect. Physical
// storage is flat — tree position never influences disk layout.
type Service struct {
	repo      Repository
	filesDir  string
	thumbsDir string
}

func NewService(repo Repository, filesDir, thumbsDir string) *Service {
	return &Service{repo: repo, filesDir: filesDir, thumbsDir: thumbsDir}
}

func (s *Service) Repository() Repository { return s.repo }

// AbsolutePath resolves a record's physical location. Folders have none.
func (s *Service) AbsolutePath(rec *FileRecord) string {
	if rec.IsFolder {
		return ""
	}
	return filepath.Join(s.filesDir, rec.StoredName)
}

func (s *Service) thumbnailAbsPath(id string) string {
	return filepath.Join(s.thumbsDir, id+".jpg")
}

// CreateRecord writes the metadata for a new file or folder. The stored
// name, category and MIME type are derived here once and frozen; the caller
// is responsible for putting the bytes at AbsolutePath afterwards.
func (s *Service) CreateRecord(ctx context.Context, displayName string, sizeBytes int64, parentID *string, isFolder bool) (*FileRecord, error) {
	id := uuid.New().String()
	now := time.Now()

	rec := &FileRecord{
		ID:          id,
		DisplayName: displayName,
		ParentID:    parentID,
		SizeBytes:   sizeBytes,
		IsFolder:    isFolder,
		CreatedAt:   now,
		ModifiedAt:  now,
	}

	if isFolder {
		rec.Category = CategoryFolder
	} else {
		rec.StoredName = StoredNameFor(id, displayName)
		rec.FilePath = "files/" + rec.StoredName
		rec.Category = DeriveCategory(displayName)
		mimeType := DeriveMimeType(displayName)
		rec.MimeType = &mimeType
	}

	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

// Upload handles a single-shot (non-chunked) upload: record first, then the
// bytes, then a best-effort thumbnail. Any size, any extension.
func (s *Service) Upload(ctx context.Context, fileHeader *multipart.FileHeader, folderID *string) (*FileRecord, error) {
	rec, err := s.CreateRecord(ctx, fileHeader.Filename, fileHeader.Size, folderID, false)
	if err != nil {
		return nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.rollbackCreate(ctx, rec)
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	dstPath := s.AbsolutePath(rec)
	dst, err := os.Create(dstPath)
	if err != nil {
		s.rollbackCreate(ctx, rec)
		return nil, fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dstPath)
		s.rollbackCreate(ctx, rec)
		return nil, fmt.Errorf("write file: %w", err)
	}

	if written != rec.SizeBytes {
		if updated, uerr := s.repo.Update(ctx, rec.ID, map[string]any{"size_bytes": written}); uerr == nil {
			rec = updated
		}
	}

	return s.AttemptThumbnail(ctx, rec), nil
}

func (s *Service) rollbackCreate(ctx context.Context, rec *FileRecord) {
	if err := s.repo.Remove(ctx, rec.ID); err != nil {
		log.Printf("files: rollback record %s: %v", rec.ID, err)
	}
}

// AttemptThumbnail tries to build a preview for eligible images. Failure is
// logged and swallowed — a thumbnail never decides the fate of an upload.
// Returns the record, updated when a thumbnail was stored.
func (s *Service) AttemptThumbnail(ctx context.Context, rec *FileRecord) *FileRecord {
	if rec.IsFolder || rec.Category != CategoryImage || !thumbnail.Supported(Ext(rec.DisplayName)) {
		return rec
	}

	relPath, err := thumbnail.Generate(s.AbsolutePath(rec), rec.ID, s.thumbsDir)
	if err != nil {
		log.Printf("files: thumbnail for %s: %v", rec.ID, err)
		return rec
	}
	if relPath == "" {
		// Image small enough to serve directly.
		return rec
	}

	updated, err := s.repo.Update(ctx, rec.ID, map[string]any{"thumbnail_path": relPath})
	if err != nil {
		log.Printf("files: store thumbnail path for %s: %v", rec.ID, err)
		return rec
	}
	return updated
}

// Rename changes the display name only. The stored name, and with it the
// physical file, is permanently decoupled from the display name.
func (s *Service) Rename(ctx context.Context, id, newName string) (*FileRecord, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, map[string]any{"display_name": newName})
}

// Move reparents a record. No bytes move. Destinations that would create a
// cycle (the node itself or any descendant) are rejected.
func (s *Service) Move(ctx context.Context, id string, destID *string) (*FileRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if destID != nil {
		if *destID == rec.ID {
			return nil, ErrInvalidDestination
		}
		dest, err := s.repo.GetByID(ctx, *destID)
		if err != nil {
			return nil, err
		}
		if !dest.IsFolder {
			return nil, ErrNotAFolder
		}
		// Walk up from the destination; hitting the moved node means the
		// destination lives inside it.
		current := dest.ParentID
		for current != nil {
			if *current == rec.ID {
				return nil, ErrInvalidDestination
			}
			parent, err := s.repo.GetByID(ctx, *current)
			if err != nil {
				if errors.Is(err, ErrFileNotFound) {
					break
				}
				return nil, err
			}
			current = parent.ParentID
		}
	}

	var parentValue any
	if destID != nil {
		parentValue = *destID
	}
	return s.repo.Update(ctx, id, map[string]any{"parent_id": parentValue})
}

// Copy duplicates a record into the destination folder under a "Copy of"
// name. For files the bytes are duplicated under the new record's own stored
// name; folders are copied as metadata only, children are not recursed into.
func (s *Service) Copy(ctx context.Context, id string, destID *string) (*FileRecord, error) {
	src, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newRec, err := s.CreateRecord(ctx, "Copy of "+src.DisplayName, src.SizeBytes, destID, src.IsFolder)
	if err != nil {
		return nil, err
	}

	if !src.IsFolder {
		if err := copyFile(s.AbsolutePath(src), s.AbsolutePath(newRec)); err != nil {
			s.rollbackCreate(ctx, newRec)
			return nil, fmt.Errorf("copy bytes: %w", err)
		}
	}

	return newRec, nil
}

func copyFile(srcPath, dstPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Metadata/disk divergence: copy the record anyway, as the
			// reference does.
			return nil
		}
		return err
	}
	defer src.Close()

	dst, err := os.Create(dstPath)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dstPath)
	}
	return err
}

// SoftDelete moves a record to the trash. Bytes stay on disk.
func (s *Service) SoftDelete(ctx context.Context, id string) (*FileRecord, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, map[string]any{
		"is_deleted": true,
		"deleted_at": time.Now(),
	})
}

// Restore brings a record back from the trash.
func (s *Service) Restore(ctx context.Context, id string) (*FileRecord, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, map[string]any{
		"is_deleted": false,
		"deleted_at": nil,
	})
}

// PermanentDelete removes the bytes, the thumbnail and the record. Missing
// physical artifacts are fine — cleanup is idempotent. Returns false when
// the record does not exist.
func (s *Service) PermanentDelete(ctx context.Context, id string) (bool, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return false, nil
		}
		return false, err
	}

	if !rec.IsFolder {
		if err := os.Remove(s.AbsolutePath(rec)); err != nil && !os.IsNotExist(err) {
			log.Printf("files: remove %s: %v", rec.StoredName, err)
		}
	}
	if err := os.Remove(s.thumbnailAbsPath(rec.ID)); err != nil && !os.IsNotExist(err) {
		log.Printf("files: remove thumbnail %s: %v", rec.ID, err)
	}

	if err := s.repo.Remove(ctx, id); err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ToggleFavorite flips the favorite flag and returns the new state.
func (s *Service) ToggleFavorite(ctx context.Context, id string) (bool, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	newState := !rec.IsFavorite
	if _, err := s.repo.Update(ctx, id, map[string]any{"is_favorite": newState}); err != nil {
		return false, err
	}
	return newState, nil
}

// EmptyTrash permanently deletes every soft-deleted record. Individual
// failures are logged and skipped; the batch never fails as a whole.
func (s *Service) EmptyTrash(ctx context.Context) (int, error) {
	deleted, err := s.repo.ListDeleted(ctx)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, rec := range deleted {
		ok, err := s.PermanentDelete(ctx, rec.ID)
		if err != nil {
			log.Printf("files: empty trash, delete %s: %v", rec.ID, err)
			continue
		}
		if ok {
			count++
		}
	}
	return count, nil
}

// Resolve maps a record ID to its physical path and MIME type for serving.
// Missing record, folder, or missing bytes all surface as not-found.
func (s *Service) Resolve(ctx context.Context, id string) (*FileRecord, string, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if rec.IsFolder {
		return nil, "", ErrFileNotFound
	}

	path := s.AbsolutePath(rec)
	if _, err := os.Stat(path); err != nil {
		return nil, "", ErrFileNotFound
	}
	return rec, path, nil
}

// ResolveThumbnail returns the thumbnail path for a record, or not-found
// when none was generated or the artifact is gone.
func (s *Service) ResolveThumbnail(ctx context.Context, id string) (string, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if rec.ThumbnailPath == nil || *rec.ThumbnailPath == "" {
		return "", ErrFileNotFound
	}

	path := s.thumbnailAbsPath(rec.ID)
	if _, err := os.Stat(path); err != nil {
		return "", ErrFileNotFound
	}
	return path, nil
}
