package files

import "time"

// FileRecord is a file or folder node of the drive tree. Files and folders
// share one table and one ID space; IsFolder disambiguates.
//
// StoredName is the immutable on-disk name derived from the ID at creation.
// Renames only ever touch DisplayName, so the physical layout stays flat and
// stable no matter how the tree is reorganized.
type FileRecord struct {
	ID            string     `gorm:"column:id;primaryKey" json:"id"`
	StoredName    string     `gorm:"column:stored_name" json:"filename"`
	DisplayName   string     `gorm:"column:display_name" json:"original_filename"`
	FilePath      string     `gorm:"column:file_path" json:"file_path"`
	ParentID      *string    `gorm:"column:parent_id;index" json:"parent_folder_id"`
	SizeBytes     int64      `gorm:"column:size_bytes" json:"file_size"`
	Category      string     `gorm:"column:category" json:"file_type"`
	MimeType      *string    `gorm:"column:mime_type" json:"mime_type"`
	ThumbnailPath *string    `gorm:"column:thumbnail_path" json:"thumbnail_path"`
	IsFolder      bool       `gorm:"column:is_folder" json:"is_folder"`
	IsFavorite    bool       `gorm:"column:is_favorite" json:"is_favorite"`
	IsDeleted     bool       `gorm:"column:is_deleted;index" json:"is_deleted"`
	CreatedAt     time.Time  `gorm:"column:created_at" json:"created_at"`
	ModifiedAt    time.Time  `gorm:"column:modified_at" json:"modified_at"`
	DeletedAt     *time.Time `gorm:"column:deleted_at" json:"deleted_at"`
}

func (FileRecord) TableName() string { return "files" }

// ListItem is a FileRecord enriched with the live child count for folders.
type ListItem struct {
	FileRecord
	ItemCount *int64 `json:"item_count,omitempty"`
}

// Crumb is one element of a breadcrumb path. The synthetic root ("Home")
// has a nil ID.
type Crumb struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
	Path string  `json:"path,omitempty"`
}

// CategoryStats is the per-category slice of the aggregate storage stats.
type CategoryStats struct {
	Count int64 `json:"count"`
	Size  int64 `json:"size"`
}

// Stats aggregates non-deleted, non-folder records.
type Stats struct {
	TotalUsed  int64                     `json:"total_used"`
	TotalFiles int64                     `json:"total_files"`
	Breakdown  map[string]*CategoryStats `json:"breakdown"`
}
