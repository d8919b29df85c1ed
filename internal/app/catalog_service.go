package app

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"go.uber.org/zap"

	"github.com/ericwooz/yt-fetch-go/internal/domain"
)

// CatalogService turns the engine's raw format descriptors into the
// ranked, deduplicated stream catalog shown to the user.
type CatalogService struct {
	extractor domain.MetadataExtractor
	client    *http.Client
	probeSem  chan struct{}
	logger    *zap.Logger
}

// NewCatalogService creates a catalog service. The HTTP client is used
// only for content-length probes of formats that report no size.
func NewCatalogService(extractor domain.MetadataExtractor, config *domain.DownloadConfig, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		extractor: extractor,
		client:    &http.Client{Timeout: config.ProbeTimeout},
		probeSem:  make(chan struct{}, config.ProbeConcurrency),
		logger:    logger,
	}
}

// Build extracts metadata for url and normalizes it into a catalog.
// Extraction failures come back as error values; the HTTP layer turns
// them into a tagged failure response.
func (s *CatalogService) Build(ctx context.Context, url string) (*domain.VideoInfo, error) {
	meta, err := s.extractor.Extract(ctx, url)
	if err != nil {
		return nil, err
	}
	if meta == nil {
		return nil, domain.WrapEngineError(domain.CategoryExtraction,
			fmt.Errorf("engine returned no metadata"))
	}

	bestAudio := selectBestAudio(meta.Formats)
	bestAudioSize := int64(0)
	if bestAudio != nil {
		bestAudioSize = s.resolveSize(ctx, bestAudio)
	}

	var video []domain.Stream
	var audio []domain.Stream

	for i := range meta.Formats {
		f := &meta.Formats[i]
		switch {
		case f.HasVideo():
			if f.Height <= 0 {
				continue
			}
			adaptive := !f.HasAudio()
			size := s.resolveSize(ctx, f)
			// Adaptive playback needs a separate audio track, so
			// the advertised size includes the best audio stream.
			// Unresolved components count as zero.
			if adaptive {
				size += bestAudioSize
			}
			video = append(video, domain.Stream{
				Itag:       f.FormatID,
				Resolution: resolutionLabel(f),
				Filesize:   size,
				MimeType:   extOrDefault(f.Ext, "mp4"),
				Format:     fmt.Sprintf("%dp - %s", f.Height, extOrDefault(f.Ext, "mp4")),
				FPS:        f.FPS,
				Height:     f.Height,
				IsAdaptive: adaptive,
			})
		case f.IsAudioOnly():
			if f.ABR <= 0 {
				continue
			}
			audio = append(audio, domain.Stream{
				Itag:     f.FormatID,
				ABR:      f.ABR,
				Filesize: s.resolveSize(ctx, f),
				Format:   fmt.Sprintf("%.0fkbps - %s", f.ABR, extOrDefault(f.Ext, "mp3")),
			})
		}
	}

	sort.SliceStable(video, func(i, j int) bool { return video[i].Height > video[j].Height })
	sort.SliceStable(audio, func(i, j int) bool { return audio[i].ABR > audio[j].ABR })

	return &domain.VideoInfo{
		Title:     meta.Title,
		Thumbnail: meta.Thumbnail,
		Duration:  meta.Duration,
		Author:    authorOrDefault(meta.Uploader),
		URL:       url,
		VideoID:   meta.ID,
		Streams: domain.StreamCatalog{
			Video: dedupeByHeight(video),
			Audio: audio,
		},
	}, nil
}

// selectBestAudio picks the audio-only descriptor with the highest
// bitrate; ties keep the earlier descriptor, a missing bitrate counts
// as zero.
func selectBestAudio(formats []domain.RawFormat) *domain.RawFormat {
	var best *domain.RawFormat
	for i := range formats {
		f := &formats[i]
		if !f.IsAudioOnly() {
			continue
		}
		if best == nil || f.ABR > best.ABR {
			best = f
		}
	}
	return best
}

// resolveSize walks the fallback chain: reported size, approximate
// size, then a live content-length probe. Zero means unknown; an
// unresolvable size never excludes a stream from the catalog.
func (s *CatalogService) resolveSize(ctx context.Context, f *domain.RawFormat) int64 {
	if f.Filesize > 0 {
		return f.Filesize
	}
	if f.FilesizeApprox > 0 {
		return f.FilesizeApprox
	}
	if f.URL == "" {
		return 0
	}
	return s.probeContentLength(ctx, f.URL)
}

// probeContentLength issues a HEAD request for the format's playable
// URL. Probes are bounded by a semaphore so a long format list cannot
// fan out unbounded blocking requests.
func (s *CatalogService) probeContentLength(ctx context.Context, url string) int64 {
	select {
	case s.probeSem <- struct{}{}:
		defer func() { <-s.probeSem }()
	case <-ctx.Done():
		return 0
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return 0
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Debug("Size probe failed", zap.Error(err))
		return 0
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK || resp.ContentLength < 0 {
		return 0
	}
	return resp.ContentLength
}

// dedupeByHeight keeps the first stream per height. Input is already
// ranked, so the survivor is the highest-ranked variant at each
// resolution and heights stay strictly decreasing.
func dedupeByHeight(streams []domain.Stream) []domain.Stream {
	seen := make(map[int]struct{}, len(streams))
	unique := streams[:0]
	for _, st := range streams {
		if _, ok := seen[st.Height]; ok {
			continue
		}
		seen[st.Height] = struct{}{}
		unique = append(unique, st)
	}
	return unique
}

func resolutionLabel(f *domain.RawFormat) string {
	if f.Resolution != "" {
		return f.Resolution
	}
	return fmt.Sprintf("%dp", f.Height)
}

func extOrDefault(ext, fallback string) string {
	if ext == "" {
		return fallback
	}
	return ext
}

func authorOrDefault(uploader string) string {
	if uploader == "" {
		return "Unknown"
	}
	return uploader
}
