package uploads

import (
	"encoding/json"
	"sort"
	"time"
)

// Session lifecycle states. Both completed and cancelled are terminal.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Session tracks one in-progress chunked upload. Chunk payloads live in a
// per-session directory on disk; this row records which distinct indices
// have arrived so clients can resume by sending only what is missing.
type Session struct {
	UploadID     string  `gorm:"column:upload_id;primaryKey" json:"upload_id"`
	Filename     string  `gorm:"column:filename" json:"filename"`
	DeclaredSize int64   `gorm:"column:declared_size" json:"file_size"`
	TotalChunks  int     `gorm:"column:total_chunks" json:"total_chunks"`
	FolderID     *string `gorm:"column:folder_id" json:"folder_id"`
	// Received is a JSON-encoded set of distinct chunk indices. Set, not
	// list: duplicate submissions of an index must never double-count.
	Received  string    `gorm:"column:received" json:"-"`
	Status    string    `gorm:"column:status" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Session) TableName() string { return "upload_sessions" }

// ReceivedIndices decodes the received set, sorted ascending.
func (s *Session) ReceivedIndices() []int {
	if s.Received == "" {
		return []int{}
	}
	var indices []int
	if err := json.Unmarshal([]byte(s.Received), &indices); err != nil {
		return []int{}
	}
	sort.Ints(indices)
	return indices
}

// ReceivedCount is the number of distinct indices received.
func (s *Session) ReceivedCount() int {
	return len(s.ReceivedIndices())
}

func encodeIndices(indices []int) string {
	sort.Ints(indices)
	data, err := json.Marshal(indices)
	if err != nil {
		return "[]"
	}
	return string(data)
}
