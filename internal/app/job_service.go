package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ericwooz/yt-fetch-go/internal/domain"
	"github.com/ericwooz/yt-fetch-go/internal/infrastructure"
)

// partialMarkers are the substrings the engine uses for in-progress,
// temporary and fragment files; directory scans for finished output
// must skip anything carrying one of them. ".f" also matches finished
// ".flv"/".flac" names, so those containers never resolve as complete.
var partialMarkers = []string{".part", ".temp", ".f"}

// JobHandle tracks one running worker
type JobHandle struct {
	ID     string
	Done   chan struct{}
	cancel context.CancelFunc
}

// JobService owns the download job lifecycle: it accepts requests,
// runs one worker per job under a bounded semaphore, resolves
// completion by inspecting the output directory, and sweeps files
// after the client confirms retrieval.
type JobService struct {
	downloader domain.MediaDownloader
	progress   *infrastructure.ProgressStore
	history    domain.HistoryRepository
	config     *domain.DownloadConfig
	logger     *zap.Logger

	sem  chan struct{}
	jobs sync.Map // job id -> *JobHandle
	now  func() time.Time
	wg   sync.WaitGroup
}

// NewJobService creates a job service
func NewJobService(
	downloader domain.MediaDownloader,
	progress *infrastructure.ProgressStore,
	history domain.HistoryRepository,
	config *domain.DownloadConfig,
	logger *zap.Logger,
) *JobService {
	return &JobService{
		downloader: downloader,
		progress:   progress,
		history:    history,
		config:     config,
		logger:     logger,
		sem:        make(chan struct{}, config.ConcurrentLimit),
		now:        time.Now,
	}
}

// StartRequest carries the client's chosen stream
type StartRequest struct {
	URL      string
	Itag     string
	Kind     domain.StreamKind
	Adaptive bool
	Quality  int
	Title    string
}

// Start accepts a download request and returns immediately with the
// created job; the transfer runs on a background worker.
func (s *JobService) Start(req StartRequest) (*domain.Job, error) {
	videoID := domain.ExtractVideoID(req.URL)
	if videoID == "" {
		return nil, domain.WrapEngineError(domain.CategoryInvalidURL,
			fmt.Errorf("invalid URL format"))
	}

	job := &domain.Job{
		ID:        domain.NewJobID(s.now(), videoID),
		URL:       req.URL,
		VideoID:   videoID,
		Itag:      req.Itag,
		Kind:      req.Kind,
		Quality:   req.Quality,
		Adaptive:  req.Adaptive,
		CreatedAt: s.now(),
	}

	// The progress record must exist before the accept returns, or a
	// fast poller would observe a missing job.
	if err := s.progress.Init(job.ID); err != nil {
		return nil, fmt.Errorf("failed to create progress record: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	handle := &JobHandle{ID: job.ID, Done: make(chan struct{}), cancel: cancel}
	s.jobs.Store(job.ID, handle)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(handle.Done)
		defer s.jobs.Delete(job.ID)
		s.runWorker(ctx, job, req.Title)
	}()

	return job, nil
}

// Handle returns the running worker handle for a job, if any
func (s *JobService) Handle(jobID string) (*JobHandle, bool) {
	v, ok := s.jobs.Load(jobID)
	if !ok {
		return nil, false
	}
	return v.(*JobHandle), true
}

// Cancel stops a running worker. The engine's partial files stay on
// disk until the job is confirmed or the files are swept manually.
func (s *JobService) Cancel(jobID string) bool {
	handle, ok := s.Handle(jobID)
	if !ok {
		return false
	}
	handle.cancel()
	return true
}

// Wait blocks until all workers have finished
func (s *JobService) Wait() {
	s.wg.Wait()
}

// BuildSelector translates the chosen stream into the engine's format
// selection expression.
func (s *JobService) BuildSelector(kind domain.StreamKind, adaptive bool, quality int) string {
	if kind == domain.KindAudio {
		return "bestaudio"
	}
	if adaptive {
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best", quality)
	}
	return fmt.Sprintf("best[height<=%d]/best", quality)
}

func (s *JobService) runWorker(ctx context.Context, job *domain.Job, title string) {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		s.failJob(job, title, ctx.Err())
		return
	}

	// The engine refuses to overwrite, so clear leftovers from any
	// prior attempt that produced the same basename.
	s.removeOutputs(job.ID, true)

	req := domain.DownloadRequest{
		URL:            job.URL,
		Selector:       s.BuildSelector(job.Kind, job.Adaptive, job.Quality),
		OutputTemplate: domain.OutputTemplate(s.config.Dir, job.ID),
	}
	if job.Kind == domain.KindAudio {
		req.ExtractAudio = true
		req.AudioFormat = s.config.AudioFormat
		req.AudioQuality = s.config.AudioQuality
	} else if job.Adaptive {
		req.MergeFormat = s.config.MergeFormat
	}

	s.logger.Info("Worker started",
		zap.String("job_id", job.ID),
		zap.String("selector", req.Selector))

	err := s.downloader.Download(ctx, req, func(percent float64) {
		if werr := s.progress.Write(job.ID, percent); werr != nil {
			s.logger.Warn("Failed to record progress",
				zap.String("job_id", job.ID), zap.Error(werr))
		}
	})

	if err != nil {
		if domain.CategoryOf(err) == domain.CategoryOutputExists && s.recoverExistingOutput(job.ID) {
			s.logger.Info("Recovered output after target-exists failure",
				zap.String("job_id", job.ID))
			s.progress.Write(job.ID, 100)
			s.recordOutcome(job, title, nil)
			return
		}
		s.failJob(job, title, err)
		return
	}

	s.recordOutcome(job, title, nil)
}

func (s *JobService) failJob(job *domain.Job, title string, err error) {
	s.logger.Error("Worker failed", zap.String("job_id", job.ID), zap.Error(err))
	if werr := s.progress.Fail(job.ID); werr != nil {
		s.logger.Error("Failed to record failure sentinel",
			zap.String("job_id", job.ID), zap.Error(werr))
	}
	s.recordOutcome(job, title, err)
}

// recordOutcome writes the terminal history entry; history is
// informational and must never affect the job result.
func (s *JobService) recordOutcome(job *domain.Job, title string, jobErr error) {
	if s.history == nil {
		return
	}
	entry := &domain.HistoryEntry{
		JobID:      job.ID,
		VideoID:    job.VideoID,
		URL:        job.URL,
		Title:      title,
		Kind:       job.Kind,
		Quality:    job.Quality,
		Status:     domain.HistoryCompleted,
		CreatedAt:  job.CreatedAt,
		FinishedAt: s.now(),
	}
	if jobErr != nil {
		entry.Status = domain.HistoryFailed
		entry.ErrorMessage = jobErr.Error()
	} else if name, size, ok := s.resolveOutput(job.ID); ok {
		entry.Filename = name
		entry.Filesize = size
	}
	if err := s.history.Record(entry); err != nil {
		s.logger.Warn("Failed to record history", zap.String("job_id", job.ID), zap.Error(err))
	}
}

// Status combines the progress record with an output directory scan
// to infer the job's state.
func (s *JobService) Status(jobID string) domain.JobStatus {
	progress, ok := s.progress.Read(jobID)
	if !ok {
		return domain.JobStatus{State: domain.StateNotFound}
	}
	if progress < 0 {
		return domain.JobStatus{State: domain.StateFailed, Progress: domain.FailedProgress}
	}

	if name, size, found := s.resolveOutput(jobID); found {
		return domain.JobStatus{State: domain.StateComplete, Progress: 100, Filename: name, Filesize: size}
	}

	// The merge or transcode step can outlast the reported transfer
	// progress, so a fileless 100% is finalizing, not complete.
	if progress >= 100 {
		return domain.JobStatus{State: domain.StateFinalizing, Progress: progress}
	}

	return domain.JobStatus{State: domain.StateDownloading, Progress: progress}
}

// ResolveOutput finds the finished output file for a job
func (s *JobService) ResolveOutput(jobID string) (string, int64, bool) {
	return s.resolveOutput(jobID)
}

func (s *JobService) resolveOutput(jobID string) (string, int64, bool) {
	candidates := s.scanOutputs(jobID, false)
	if len(candidates) == 0 {
		return "", 0, false
	}

	// Prefer the finished container over whatever else matched.
	name := candidates[0]
	for _, c := range candidates {
		if strings.HasSuffix(c, "."+s.config.MergeFormat) {
			name = c
			break
		}
	}

	info, err := os.Stat(filepath.Join(s.config.Dir, name))
	if err != nil {
		return "", 0, false
	}
	return name, info.Size(), true
}

// scanOutputs lists output directory entries matching the job's
// basename. With includePartial false, names carrying an in-progress
// marker are skipped.
func (s *JobService) scanOutputs(jobID string, includePartial bool) []string {
	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		return nil
	}

	prefix := domain.OutputBase(jobID) + "."
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), prefix) {
			continue
		}
		if !includePartial && hasPartialMarker(strings.TrimPrefix(entry.Name(), domain.OutputBase(jobID))) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names
}

func hasPartialMarker(suffix string) bool {
	for _, marker := range partialMarkers {
		if strings.Contains(suffix, marker) {
			return true
		}
	}
	return false
}

// removeOutputs deletes every file sharing the job's output basename
func (s *JobService) removeOutputs(jobID string, includePartial bool) {
	for _, name := range s.scanOutputs(jobID, includePartial) {
		if err := os.Remove(filepath.Join(s.config.Dir, name)); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("Failed to remove stale output",
				zap.String("job_id", jobID), zap.String("file", name), zap.Error(err))
		}
	}
}

// recoverExistingOutput handles the engine's target-exists failure: a
// prior partial attempt left files behind. Best effort: promote an
// in-progress file to the final name, or accept an already-final file.
func (s *JobService) recoverExistingOutput(jobID string) bool {
	if _, _, ok := s.resolveOutput(jobID); ok {
		return true
	}

	final := filepath.Join(s.config.Dir, domain.OutputBase(jobID)+"."+s.config.MergeFormat)
	for _, name := range s.scanOutputs(jobID, true) {
		if !hasPartialMarker(strings.TrimPrefix(name, domain.OutputBase(jobID))) {
			continue
		}
		if err := os.Remove(final); err != nil && !os.IsNotExist(err) {
			continue
		}
		if err := os.Rename(filepath.Join(s.config.Dir, name), final); err == nil {
			return true
		}
	}
	return false
}

// Confirm schedules deletion of the job's output and progress files a
// fixed delay after the client confirms retrieval. The delay lets a
// slow client finish reading the response body first. Confirming twice
// is harmless.
func (s *JobService) Confirm(jobID string) {
	files := make([]string, 0, 2)
	for _, name := range s.scanOutputs(jobID, true) {
		files = append(files, filepath.Join(s.config.Dir, name))
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		time.Sleep(s.config.RetentionDelay)
		for _, path := range files {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("Failed to delete output file",
					zap.String("job_id", jobID), zap.String("file", path), zap.Error(err))
				continue
			}
			s.logger.Info("Deleted output file",
				zap.String("job_id", jobID), zap.String("file", path))
		}
		if err := s.progress.Remove(jobID); err != nil {
			s.logger.Warn("Failed to delete progress record",
				zap.String("job_id", jobID), zap.Error(err))
		}
	}()
}

// SetClock overrides the time source; used by tests for deterministic
// job ids.
func (s *JobService) SetClock(now func() time.Time) {
	s.now = now
}
