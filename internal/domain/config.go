package domain

import "time"

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Download DownloadConfig `mapstructure:"download"`
	History  HistoryConfig  `mapstructure:"history"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// DownloadConfig contains download-related configuration
type DownloadConfig struct {
	Dir              string        `mapstructure:"dir"`
	ProgressDir      string        `mapstructure:"progress_dir"`
	ConcurrentLimit  int           `mapstructure:"concurrent_limit"`
	RetentionDelay   time.Duration `mapstructure:"retention_delay"`
	ProbeTimeout     time.Duration `mapstructure:"probe_timeout"`
	ProbeConcurrency int           `mapstructure:"probe_concurrency"`
	YTDLPBinary      string        `mapstructure:"ytdlp_binary"`
	AudioFormat      string        `mapstructure:"audio_format"`
	AudioQuality     string        `mapstructure:"audio_quality"`
	MergeFormat      string        `mapstructure:"merge_format"`
}

// HistoryConfig contains history repository configuration
type HistoryConfig struct {
	DatabasePath string `mapstructure:"database_path"`
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Download: DownloadConfig{
			Dir:              "downloads",
			ProgressDir:      ".",
			ConcurrentLimit:  3,
			RetentionDelay:   5 * time.Second,
			ProbeTimeout:     10 * time.Second,
			ProbeConcurrency: 4,
			YTDLPBinary:      "yt-dlp",
			AudioFormat:      "mp3",
			AudioQuality:     "192K",
			MergeFormat:      "mp4",
		},
		History: HistoryConfig{
			DatabasePath: "downloads/history.db",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
