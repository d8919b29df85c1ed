package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ericwooz/yt-fetch-go/internal/domain"
)

type stubExtractor struct {
	meta *domain.RawMetadata
	err  error
}

func (s *stubExtractor) Extract(ctx context.Context, url string) (*domain.RawMetadata, error) {
	return s.meta, s.err
}

func testCatalogConfig() *domain.DownloadConfig {
	config := domain.DefaultConfig().Download
	config.ProbeTimeout = 2 * time.Second
	config.ProbeConcurrency = 2
	return &config
}

func buildCatalog(t *testing.T, meta *domain.RawMetadata) *domain.VideoInfo {
	t.Helper()
	service := NewCatalogService(&stubExtractor{meta: meta}, testCatalogConfig(), zap.NewNop())
	info, err := service.Build(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.NoError(t, err)
	return info
}

func TestCatalogBuild_RankingAndDedup(t *testing.T) {
	info := buildCatalog(t, &domain.RawMetadata{
		ID:       "dQw4w9WgXcQ",
		Title:    "Test Video",
		Uploader: "Channel",
		Formats: []domain.RawFormat{
			{FormatID: "18", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", Height: 360, Filesize: 1000},
			{FormatID: "136", Ext: "mp4", VCodec: "avc1", ACodec: "none", Height: 720, Filesize: 5000},
			{FormatID: "247", Ext: "webm", VCodec: "vp9", ACodec: "none", Height: 720, Filesize: 4500},
			{FormatID: "137", Ext: "mp4", VCodec: "avc1", ACodec: "none", Height: 1080, Filesize: 9000},
		},
	})

	require.Len(t, info.Streams.Video, 3)
	assert.Equal(t, []int{1080, 720, 360},
		[]int{info.Streams.Video[0].Height, info.Streams.Video[1].Height, info.Streams.Video[2].Height})

	// The first-listed 720p variant survives deduplication.
	assert.Equal(t, "136", info.Streams.Video[1].Itag)
	assert.Equal(t, "Test Video", info.Title)
	assert.Equal(t, "Channel", info.Author)
}

func TestCatalogBuild_AdaptiveSizeIncludesBestAudio(t *testing.T) {
	info := buildCatalog(t, &domain.RawMetadata{
		ID: "dQw4w9WgXcQ",
		Formats: []domain.RawFormat{
			{FormatID: "140", Ext: "m4a", VCodec: "none", ACodec: "mp4a", ABR: 128, Filesize: 300},
			{FormatID: "251", Ext: "webm", VCodec: "none", ACodec: "opus", ABR: 160, Filesize: 400},
			{FormatID: "137", Ext: "mp4", VCodec: "avc1", ACodec: "none", Height: 1080, Filesize: 9000},
			{FormatID: "18", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", Height: 360, Filesize: 1000},
		},
	})

	require.Len(t, info.Streams.Video, 2)

	// Adaptive video advertises its own size plus the best audio track.
	adaptive := info.Streams.Video[0]
	assert.True(t, adaptive.IsAdaptive)
	assert.Equal(t, int64(9400), adaptive.Filesize)

	// Progressive video already carries audio.
	progressive := info.Streams.Video[1]
	assert.False(t, progressive.IsAdaptive)
	assert.Equal(t, int64(1000), progressive.Filesize)
}

func TestCatalogBuild_AudioRankedNotDeduplicated(t *testing.T) {
	info := buildCatalog(t, &domain.RawMetadata{
		ID: "dQw4w9WgXcQ",
		Formats: []domain.RawFormat{
			{FormatID: "139", Ext: "m4a", VCodec: "none", ACodec: "mp4a", ABR: 48, Filesize: 100},
			{FormatID: "251", Ext: "webm", VCodec: "none", ACodec: "opus", ABR: 160, Filesize: 400},
			{FormatID: "250", Ext: "webm", VCodec: "none", ACodec: "opus", ABR: 160, Filesize: 380},
		},
	})

	require.Len(t, info.Streams.Audio, 3)
	assert.Equal(t, 160.0, info.Streams.Audio[0].ABR)
	assert.Equal(t, 160.0, info.Streams.Audio[1].ABR)
	assert.Equal(t, 48.0, info.Streams.Audio[2].ABR)
}

func TestCatalogBuild_DropsUnusableDescriptors(t *testing.T) {
	info := buildCatalog(t, &domain.RawMetadata{
		ID: "dQw4w9WgXcQ",
		Formats: []domain.RawFormat{
			{FormatID: "sb0", Ext: "mhtml", VCodec: "avc1", ACodec: "none", Height: 0},
			{FormatID: "599", Ext: "m4a", VCodec: "none", ACodec: "mp4a", ABR: 0},
			{FormatID: "18", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", Height: 360, Filesize: 1000},
		},
	})

	require.Len(t, info.Streams.Video, 1)
	assert.Equal(t, "18", info.Streams.Video[0].Itag)
	assert.Empty(t, info.Streams.Audio)
}

func TestCatalogBuild_UnknownSizeKept(t *testing.T) {
	info := buildCatalog(t, &domain.RawMetadata{
		ID: "dQw4w9WgXcQ",
		Formats: []domain.RawFormat{
			{FormatID: "22", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", Height: 720},
		},
	})

	require.Len(t, info.Streams.Video, 1)
	assert.Equal(t, int64(0), info.Streams.Video[0].Filesize)
}

func TestCatalogBuild_SizeFallbackChain(t *testing.T) {
	var probed int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		probed++
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Length", strconv.Itoa(7777))
	}))
	defer server.Close()

	info := buildCatalog(t, &domain.RawMetadata{
		ID: "dQw4w9WgXcQ",
		Formats: []domain.RawFormat{
			{FormatID: "a", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", Height: 1080, Filesize: 9000, FilesizeApprox: 1},
			{FormatID: "b", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", Height: 720, FilesizeApprox: 5000},
			{FormatID: "c", Ext: "mp4", VCodec: "avc1", ACodec: "mp4a", Height: 360, URL: server.URL},
		},
	})

	require.Len(t, info.Streams.Video, 3)
	assert.Equal(t, int64(9000), info.Streams.Video[0].Filesize)
	assert.Equal(t, int64(5000), info.Streams.Video[1].Filesize)
	assert.Equal(t, int64(7777), info.Streams.Video[2].Filesize)
	assert.Equal(t, 1, probed)
}

func TestCatalogBuild_DefaultsAuthorAndVideoMetadata(t *testing.T) {
	info := buildCatalog(t, &domain.RawMetadata{
		ID: "dQw4w9WgXcQ",
		Formats: []domain.RawFormat{
			{FormatID: "18", VCodec: "avc1", ACodec: "mp4a", Height: 360, Filesize: 1},
		},
	})

	assert.Equal(t, "Unknown", info.Author)
	assert.Equal(t, "dQw4w9WgXcQ", info.VideoID)
	assert.Equal(t, "https://youtu.be/dQw4w9WgXcQ", info.URL)
	assert.Equal(t, "360p - mp4", info.Streams.Video[0].Format)
}

func TestCatalogBuild_NilMetadataIsError(t *testing.T) {
	service := NewCatalogService(&stubExtractor{}, testCatalogConfig(), zap.NewNop())

	info, err := service.Build(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.Error(t, err)
	assert.Nil(t, info)
	assert.Equal(t, domain.CategoryExtraction, domain.CategoryOf(err))
}

func TestCatalogBuild_ExtractionErrorPropagates(t *testing.T) {
	wantErr := domain.WrapEngineError(domain.CategoryExtraction, assert.AnError)
	service := NewCatalogService(&stubExtractor{err: wantErr}, testCatalogConfig(), zap.NewNop())

	_, err := service.Build(context.Background(), "https://youtu.be/dQw4w9WgXcQ")
	require.Error(t, err)
	assert.Equal(t, domain.CategoryExtraction, domain.CategoryOf(err))
}
