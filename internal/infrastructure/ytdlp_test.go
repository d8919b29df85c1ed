package infrastructure

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ericwooz/yt-fetch-go/internal/domain"
)

func TestDownloadArgs(t *testing.T) {
	tests := []struct {
		name     string
		req      domain.DownloadRequest
		expected []string
	}{
		{
			name: "progressive video",
			req: domain.DownloadRequest{
				URL:            "https://youtu.be/dQw4w9WgXcQ",
				Selector:       "best[height<=720]/best",
				OutputTemplate: "downloads/video_x.%(ext)s",
			},
			expected: []string{
				"--newline", "--no-warnings",
				"-f", "best[height<=720]/best",
				"-o", "downloads/video_x.%(ext)s",
				"https://youtu.be/dQw4w9WgXcQ",
			},
		},
		{
			name: "adaptive video merges into one container",
			req: domain.DownloadRequest{
				URL:            "https://youtu.be/dQw4w9WgXcQ",
				Selector:       "bestvideo[height<=1080]+bestaudio/best",
				OutputTemplate: "downloads/video_x.%(ext)s",
				MergeFormat:    "mp4",
			},
			expected: []string{
				"--newline", "--no-warnings",
				"-f", "bestvideo[height<=1080]+bestaudio/best",
				"-o", "downloads/video_x.%(ext)s",
				"--merge-output-format", "mp4",
				"https://youtu.be/dQw4w9WgXcQ",
			},
		},
		{
			name: "audio extraction",
			req: domain.DownloadRequest{
				URL:            "https://youtu.be/dQw4w9WgXcQ",
				Selector:       "bestaudio",
				OutputTemplate: "downloads/video_x.%(ext)s",
				ExtractAudio:   true,
				AudioFormat:    "mp3",
				AudioQuality:   "192K",
			},
			expected: []string{
				"--newline", "--no-warnings",
				"-f", "bestaudio",
				"-o", "downloads/video_x.%(ext)s",
				"-x", "--audio-format", "mp3", "--audio-quality", "192K",
				"https://youtu.be/dQw4w9WgXcQ",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, downloadArgs(tt.req))
		})
	}
}

func TestParseProgressLine(t *testing.T) {
	tests := []struct {
		line    string
		percent float64
		ok      bool
	}{
		{"[download]  42.3% of 10.00MiB at 1.00MiB/s ETA 00:05", 42.3, true},
		{"[download] 100% of 10.00MiB in 00:08", 100, true},
		{"[download]   0.0% of ~10.00MiB", 0, true},
		{"  [download]  7.5% of 3.00MiB", 7.5, true},
		{"[download] Destination: downloads/video_x.mp4", 0, false},
		{"[merger] Merging formats into video_x.mp4", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			percent, ok := parseProgressLine(tt.line)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.percent, percent)
		})
	}
}

func TestClassifyDownloadError(t *testing.T) {
	assert.Equal(t, domain.CategoryOutputExists,
		classifyDownloadError("ERROR: downloads/video_x.mp4 already exists"))
	assert.Equal(t, domain.CategoryOutputExists,
		classifyDownloadError("[download] video_x.mp4 has already been downloaded"))
	assert.Equal(t, domain.CategoryDownload,
		classifyDownloadError("ERROR: unable to download video data"))
	assert.Equal(t, domain.CategoryDownload, classifyDownloadError(""))
}

func TestEngineMessage(t *testing.T) {
	stderr := "WARNING: something minor\nERROR: Video unavailable\nERROR: giving up after 3 retries\n"
	assert.Equal(t, "giving up after 3 retries", engineMessage(stderr, "fallback"))
	assert.Equal(t, "fallback", engineMessage("no error lines here", "fallback"))
}

func TestCommandLine(t *testing.T) {
	line := commandLine("yt-dlp", []string{"-f", "best[height<=720]/best", "-o", "downloads/video_x.%(ext)s", "https://youtu.be/x"})
	assert.Equal(t, "yt-dlp -f 'best[height<=720]/best' -o 'downloads/video_x.%(ext)s' https://youtu.be/x", line)
}
