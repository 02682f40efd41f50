package uploads

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, uploadID string) (*Session, error)
	// MarkReceived adds an index to the session's received set. Adding an
	// index that is already present is a no-op; the set never double-counts.
	MarkReceived(ctx context.Context, uploadID string, index int) (*Session, error)
	SetStatus(ctx context.Context, uploadID, status string) error
	Delete(ctx context.Context, uploadID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, s *Session) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *repository) GetByID(ctx context.Context, uploadID string) (*Session, error) {
	var s Session
	err := r.db.WithContext(ctx).Where("upload_id = ?", uploadID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// MarkReceived re-reads the row inside a transaction before mutating the
// set, so parallel chunk uploads for one session cannot lose an index to a
// concurrent read-modify-write.
func (r *repository) MarkReceived(ctx context.Context, uploadID string, index int) (*Session, error) {
	var updated *Session
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var s Session
		err := tx.Where("upload_id = ?", uploadID).First(&s).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSessionNotFound
		}
		if err != nil {
			return err
		}

		indices := s.ReceivedIndices()
		for _, i := range indices {
			if i == index {
				updated = &s
				return nil
			}
		}
		s.Received = encodeIndices(append(indices, index))

		if err := tx.Model(&Session{}).
			Where("upload_id = ?", uploadID).
			Update("received", s.Received).Error; err != nil {
			return err
		}
		updated = &s
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *repository) SetStatus(ctx context.Context, uploadID, status string) error {
	res := r.db.WithContext(ctx).Model(&Session{}).
		Where("upload_id = ?", uploadID).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, uploadID string) error {
	return r.db.WithContext(ctx).Where("upload_id = ?", uploadID).Delete(&Session{}).Error
}
