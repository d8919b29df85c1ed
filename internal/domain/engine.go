package domain

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCategory classifies engine failures so recovery policy can key
// on the category instead of matching message strings.
type ErrorCategory string

const (
	CategoryInvalidURL   ErrorCategory = "invalid_url"
	CategoryExtraction   ErrorCategory = "extraction"
	CategoryOutputExists ErrorCategory = "output_exists"
	CategoryDownload     ErrorCategory = "download"
)

// EngineError wraps an engine failure with its category
type EngineError struct {
	Category ErrorCategory
	Err      error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Category, e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// WrapEngineError tags err with a category
func WrapEngineError(category ErrorCategory, err error) error {
	if err == nil {
		return nil
	}
	return &EngineError{Category: category, Err: err}
}

// CategoryOf returns the category of err, or CategoryDownload when the
// error carries no category.
func CategoryOf(err error) ErrorCategory {
	var ee *EngineError
	if errors.As(err, &ee) {
		return ee.Category
	}
	return CategoryDownload
}

// ProgressFunc receives transfer progress in percent. Implementations
// must accept out-of-order calls; the worker is the only caller for a
// given job.
type ProgressFunc func(percent float64)

// DownloadRequest is one invocation of the download engine
type DownloadRequest struct {
	URL            string
	Selector       string
	OutputTemplate string
	MergeFormat    string // merge container for adaptive video, empty to skip
	ExtractAudio   bool
	AudioFormat    string
	AudioQuality   string
}

// MetadataExtractor is the engine capability that turns a URL into raw
// format descriptors.
type MetadataExtractor interface {
	Extract(ctx context.Context, url string) (*RawMetadata, error)
}

// MediaDownloader is the engine capability that downloads, merges and
// transcodes bytes to disk. It blocks until the transfer finishes and
// reports progress through onProgress.
type MediaDownloader interface {
	Download(ctx context.Context, req DownloadRequest, onProgress ProgressFunc) error
}
