package domain

import "time"

// HistoryStatus is the terminal outcome recorded for a job
type HistoryStatus string

const (
	HistoryCompleted HistoryStatus = "completed"
	HistoryFailed    HistoryStatus = "failed"
)

// HistoryEntry is the informational record of one finished job. It is
// written after the worker reaches a terminal state and is never used
// to resume anything; the progress file and the output directory stay
// the only lifecycle state.
type HistoryEntry struct {
	JobID        string        `json:"job_id" gorm:"primaryKey"`
	VideoID      string        `json:"video_id" gorm:"index"`
	URL          string        `json:"url"`
	Title        string        `json:"title"`
	Kind         StreamKind    `json:"kind"`
	Quality      int           `json:"quality"`
	Status       HistoryStatus `json:"status" gorm:"index"`
	Filename     string        `json:"filename,omitempty"`
	Filesize     int64         `json:"filesize,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at" gorm:"autoCreateTime"`
	FinishedAt   time.Time     `json:"finished_at"`
}

// HistoryStats summarizes recorded outcomes
type HistoryStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
}

// HistoryRepository persists terminal job outcomes
type HistoryRepository interface {
	Record(entry *HistoryEntry) error
	Recent(limit int) ([]*HistoryEntry, error)
	FindByJobID(jobID string) (*HistoryEntry, error)
	Stats() (*HistoryStats, error)
}
