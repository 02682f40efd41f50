package files

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

// Repository is the metadata store: durable storage for the file/folder
// record set with the tree and aggregate queries everything else builds on.
type Repository interface {
	Create(ctx context.Context, rec *FileRecord) error
	GetByID(ctx context.Context, id string) (*FileRecord, error)
	// ListChildren returns the direct children of a folder (nil = root),
	// folders first, then case-insensitive display name ascending.
	ListChildren(ctx context.Context, parentID *string, includeDeleted bool) ([]FileRecord, error)
	// Update merges the given fields into the record and stamps modified_at.
	Update(ctx context.Context, id string, fields map[string]any) (*FileRecord, error)
	Remove(ctx context.Context, id string) error
	// Search matches a case-insensitive substring of the display name,
	// excluding deleted records.
	Search(ctx context.Context, query string) ([]FileRecord, error)
	ListDeleted(ctx context.Context) ([]FileRecord, error)
	ListFavorites(ctx context.Context) ([]FileRecord, error)
	ChildCount(ctx context.Context, folderID string) (int64, error)
	// Breadcrumb walks parent links from the folder up to the synthetic root.
	// A broken link truncates the walk silently.
	Breadcrumb(ctx context.Context, folderID *string) ([]Crumb, error)
	AggregateStats(ctx context.Context) (*Stats, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, rec *FileRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *repository) GetByID(ctx context.Context, id string) (*FileRecord, error) {
	var rec FileRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) ListChildren(ctx context.Context, parentID *string, includeDeleted bool) ([]FileRecord, error) {
	q := r.db.WithContext(ctx).Model(&FileRecord{})
	if parentID == nil {
		q = q.Where("parent_id IS NULL")
	} else {
		q = q.Where("parent_id = ?", *parentID)
	}
	if !includeDeleted {
		q = q.Where("is_deleted = ?", false)
	}

	var recs []FileRecord
	err := q.Order("is_folder DESC").Order("LOWER(display_name) ASC").Find(&recs).Error
	return recs, err
}

func (r *repository) Update(ctx context.Context, id string, fields map[string]any) (*FileRecord, error) {
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["modified_at"] = time.Now()

	res := r.db.WithContext(ctx).Model(&FileRecord{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrFileNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *repository) Remove(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&FileRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrFileNotFound
	}
	return nil
}

func (r *repository) Search(ctx context.Context, query string) ([]FileRecord, error) {
	pattern := "%" + strings.ToLower(query) + "%"
	var recs []FileRecord
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", false).
		Where("LOWER(display_name) LIKE ?", pattern).
		Order("is_folder DESC").Order("LOWER(display_name) ASC").
		Find(&recs).Error
	return recs, err
}

func (r *repository) ListDeleted(ctx context.Context) ([]FileRecord, error) {
	var recs []FileRecord
	err := r.db.WithContext(ctx).
		Where("is_deleted = ?", true).
		Order("deleted_at DESC").
		Find(&recs).Error
	return recs, err
}

func (r *repository) ListFavorites(ctx context.Context) ([]FileRecord, error) {
	var recs []FileRecord
	err := r.db.WithContext(ctx).
		Where("is_favorite = ? AND is_deleted = ?", true, false).
		Order("is_folder DESC").Order("LOWER(display_name) ASC").
		Find(&recs).Error
	return recs, err
}

func (r *repository) ChildCount(ctx context.Context, folderID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&FileRecord{}).
		Where("parent_id = ? AND is_deleted = ?", folderID, false).
		Count(&n).Error
	return n, err
}

func (r *repository) Breadcrumb(ctx context.Context, folderID *string) ([]Crumb, error) {
	breadcrumb := []Crumb{{ID: nil, Name: "Home", Path: "/"}}
	if folderID == nil {
		return breadcrumb, nil
	}

	var trail []Crumb
	current := folderID
	for current != nil {
		folder, err := r.GetByID(ctx, *current)
		if err != nil {
			if errors.Is(err, ErrFileNotFound) {
				// Dangling parent link: stop the walk, keep what we have.
				break
			}
			return nil, err
		}
		id := folder.ID
		trail = append([]Crumb{{ID: &id, Name: folder.DisplayName}}, trail...)
		current = folder.ParentID
	}

	return append(breadcrumb, trail...), nil
}

func (r *repository) AggregateStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Breakdown: make(map[string]*CategoryStats, len(FileCategories))}
	for _, cat := range FileCategories {
		stats.Breakdown[cat] = &CategoryStats{}
	}

	rows := []struct {
		Category string
		Count    int64
		Total    int64
	}{}
	err := r.db.WithContext(ctx).Model(&FileRecord{}).
		Select("category, COUNT(*) AS count, COALESCE(SUM(size_bytes), 0) AS total").
		Where("is_deleted = ? AND is_folder = ?", false, false).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		bucket, ok := stats.Breakdown[row.Category]
		if !ok {
			// Unknown category in stored data counts as "other".
			bucket = stats.Breakdown[CategoryOther]
		}
		bucket.Count += row.Count
		bucket.Size += row.Total
		stats.TotalUsed += row.Total
		stats.TotalFiles += row.Count
	}

	return stats, nil
}
