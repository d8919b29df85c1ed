package domain

// StreamKind distinguishes the two variant lists in a catalog
type StreamKind string

const (
	KindVideo StreamKind = "video"
	KindAudio StreamKind = "audio"
)

// RawFormat is one format descriptor as reported by the extraction
// engine. Codec fields use the engine's convention of "none" for an
// absent track.
type RawFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	ABR            float64 `json:"abr"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	Resolution     string  `json:"resolution"`
	URL            string  `json:"url"`
}

// HasVideo reports whether the descriptor carries a video track
func (f *RawFormat) HasVideo() bool {
	return f.VCodec != "" && f.VCodec != "none"
}

// HasAudio reports whether the descriptor carries an audio track
func (f *RawFormat) HasAudio() bool {
	return f.ACodec != "" && f.ACodec != "none"
}

// IsAudioOnly reports whether the descriptor is an audio-only track
func (f *RawFormat) IsAudioOnly() bool {
	return f.HasAudio() && !f.HasVideo()
}

// RawMetadata is the extraction engine's view of a resource before
// normalization.
type RawMetadata struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Thumbnail string      `json:"thumbnail"`
	Duration  float64     `json:"duration"`
	Uploader  string      `json:"uploader"`
	Formats   []RawFormat `json:"formats"`
}

// Stream is one user-selectable quality/format variant. Video streams
// carry resolution fields, audio streams carry a bitrate; a size of
// zero means the size could not be resolved and is advisory only.
type Stream struct {
	Itag       string  `json:"itag"`
	Resolution string  `json:"resolution,omitempty"`
	Filesize   int64   `json:"filesize"`
	MimeType   string  `json:"mime_type,omitempty"`
	Format     string  `json:"format"`
	FPS        float64 `json:"fps,omitempty"`
	Height     int     `json:"height,omitempty"`
	IsAdaptive bool    `json:"is_adaptive,omitempty"`
	ABR        float64 `json:"abr,omitempty"`
}

// StreamCatalog holds the two ranked, deduplicated variant lists
type StreamCatalog struct {
	Video []Stream `json:"video"`
	Audio []Stream `json:"audio"`
}

// VideoInfo is the catalog response for one resource
type VideoInfo struct {
	Title     string        `json:"title"`
	Thumbnail string        `json:"thumbnail"`
	Duration  float64       `json:"duration"`
	Author    string        `json:"author"`
	URL       string        `json:"url"`
	VideoID   string        `json:"video_id"`
	Streams   StreamCatalog `json:"streams"`
}
