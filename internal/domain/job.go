package domain

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"
)

// JobState is the inferred lifecycle state of a download job. It is
// never stored; status polling combines the progress store value with
// a filesystem scan of the output directory.
type JobState string

const (
	StateDownloading JobState = "downloading"
	StateFinalizing  JobState = "finalizing"
	StateComplete    JobState = "complete"
	StateFailed      JobState = "failed"
	StateNotFound    JobState = "not_found"
)

// FailedProgress is the sentinel progress value recorded when a
// job's worker fails. Typed to match the store's value domain.
const FailedProgress float64 = -1

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`youtu\.be/([0-9A-Za-z_-]{11})`),
}

// ExtractVideoID pulls the 11-character resource id out of a URL.
// It returns an empty string when no pattern matches; callers must
// reject such requests before touching the extraction engine.
func ExtractVideoID(url string) string {
	for _, p := range videoIDPatterns {
		if m := p.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// NewJobID derives the job id from the clock and the resource id.
// Second precision means two identical requests within the same second
// collide; that risk is accepted and documented rather than mitigated.
func NewJobID(now time.Time, videoID string) string {
	return now.Format("20060102_150405") + "_" + videoID
}

// OutputBase is the filename prefix shared by every output candidate
// of a job; the extension is chosen by the download engine.
func OutputBase(jobID string) string {
	return "video_" + jobID
}

// OutputTemplate is the engine-facing output path template for a job
func OutputTemplate(dir, jobID string) string {
	return filepath.Join(dir, OutputBase(jobID)+".%(ext)s")
}

// ProgressFileName names the job's progress side-channel file. It
// deliberately lives outside the download directory so output scans
// never pick it up.
func ProgressFileName(jobID string) string {
	return fmt.Sprintf("progress_%s.txt", jobID)
}

// Job is one accepted download request
type Job struct {
	ID        string     `json:"id"`
	URL       string     `json:"url"`
	VideoID   string     `json:"video_id"`
	Itag      string     `json:"itag"`
	Kind      StreamKind `json:"kind"`
	Quality   int        `json:"quality"`
	Adaptive  bool       `json:"is_adaptive"`
	CreatedAt time.Time  `json:"created_at"`
}

// JobStatus is the result of one status poll
type JobStatus struct {
	State    JobState
	Progress float64
	Filename string
	Filesize int64
}
