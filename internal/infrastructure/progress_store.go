package infrastructure

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ericwooz/yt-fetch-go/internal/domain"
)

// ProgressStore records a single numeric progress value per job in a
// small text file. The job's worker is the only writer; any number of
// status polls may read concurrently. No locking is performed and
// last-write-wins is acceptable under that single-writer contract.
type ProgressStore struct {
	dir string
}

// NewProgressStore creates a store rooted at dir
func NewProgressStore(dir string) *ProgressStore {
	return &ProgressStore{dir: dir}
}

// Path returns the progress file path for a job
func (s *ProgressStore) Path(jobID string) string {
	return filepath.Join(s.dir, domain.ProgressFileName(jobID))
}

// Init writes the initial zero record. It runs synchronously before
// the worker starts so a poll arriving immediately after the accept
// never sees a missing job.
func (s *ProgressStore) Init(jobID string) error {
	return s.Write(jobID, 0)
}

// Write records the current progress percentage
func (s *ProgressStore) Write(jobID string, percent float64) error {
	return os.WriteFile(s.Path(jobID), []byte(strconv.FormatFloat(percent, 'f', -1, 64)), 0644)
}

// Fail records the failure sentinel
func (s *ProgressStore) Fail(jobID string) error {
	return s.Write(jobID, domain.FailedProgress)
}

// Read returns the recorded progress for a job. The second return
// value reports whether a record exists at all; an empty or corrupt
// record reads as zero, not as an error.
func (s *ProgressStore) Read(jobID string) (float64, bool) {
	data, err := os.ReadFile(s.Path(jobID))
	if err != nil {
		return 0, false
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, true
	}
	return value, true
}

// Remove deletes the job's record, tolerating an already-deleted file
func (s *ProgressStore) Remove(jobID string) error {
	err := os.Remove(s.Path(jobID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
