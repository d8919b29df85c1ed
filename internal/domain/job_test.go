package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{"watch URL", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"short URL", "https://youtu.be/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"embed URL", "https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ"},
		{"watch URL with params", "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s", "dQw4w9WgXcQ"},
		{"not a URL", "not-a-url", ""},
		{"id too short", "https://www.youtube.com/watch?v=short", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractVideoID(tt.url))
		})
	}
}

func TestExtractVideoID_SameIDAcrossURLForms(t *testing.T) {
	a := ExtractVideoID("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	b := ExtractVideoID("https://youtu.be/dQw4w9WgXcQ")
	assert.Equal(t, a, b)
}

func TestNewJobID_Deterministic(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC)

	id := NewJobID(now, "dQw4w9WgXcQ")
	assert.Equal(t, "20240315_103045_dQw4w9WgXcQ", id)

	// Same clock, same resource: identical ids.
	assert.Equal(t, id, NewJobID(now, "dQw4w9WgXcQ"))
}

func TestNaming(t *testing.T) {
	jobID := "20240315_103045_dQw4w9WgXcQ"

	assert.Equal(t, "video_"+jobID, OutputBase(jobID))
	assert.Equal(t, "downloads/video_"+jobID+".%(ext)s", OutputTemplate("downloads", jobID))
	assert.Equal(t, "progress_"+jobID+".txt", ProgressFileName(jobID))
}
