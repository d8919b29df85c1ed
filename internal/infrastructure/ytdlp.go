package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ericwooz/yt-fetch-go/internal/domain"
)

// YTDLPClient drives the yt-dlp binary. It implements both engine
// capabilities: metadata extraction (-J) and the actual download.
type YTDLPClient struct {
	binary string
	logger *zap.Logger
}

// NewYTDLPClient creates a client for the given binary path
func NewYTDLPClient(binary string, logger *zap.Logger) *YTDLPClient {
	return &YTDLPClient{binary: binary, logger: logger}
}

// Extract fetches raw format descriptors for a URL without downloading
func (c *YTDLPClient) Extract(ctx context.Context, url string) (*domain.RawMetadata, error) {
	args := []string{"-J", "--no-warnings", url}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.binary, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Debug("Running extraction", zap.String("cmd", commandLine(c.binary, args)))

	if err := cmd.Run(); err != nil {
		return nil, domain.WrapEngineError(domain.CategoryExtraction,
			fmt.Errorf("%s: %w", engineMessage(stderr.String(), "extraction failed"), err))
	}

	var meta domain.RawMetadata
	if err := json.Unmarshal(stdout.Bytes(), &meta); err != nil {
		return nil, domain.WrapEngineError(domain.CategoryExtraction,
			fmt.Errorf("unparseable engine output: %w", err))
	}
	return &meta, nil
}

// Download runs one transfer to completion, parsing the engine's
// per-line progress output into onProgress calls. The final merge or
// transcode step can outlast the last reported percentage.
func (c *YTDLPClient) Download(ctx context.Context, req domain.DownloadRequest, onProgress domain.ProgressFunc) error {
	if onProgress == nil {
		onProgress = func(float64) {}
	}

	args := downloadArgs(req)
	cmd := exec.CommandContext(ctx, c.binary, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return domain.WrapEngineError(domain.CategoryDownload, err)
	}

	c.logger.Info("Starting engine download", zap.String("cmd", commandLine(c.binary, args)))

	if err := cmd.Start(); err != nil {
		return domain.WrapEngineError(domain.CategoryDownload, err)
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		if percent, ok := parseProgressLine(scanner.Text()); ok {
			onProgress(percent)
		}
	}

	if err := cmd.Wait(); err != nil {
		return domain.WrapEngineError(classifyDownloadError(stderr.String()),
			fmt.Errorf("%s: %w", engineMessage(stderr.String(), "download failed"), err))
	}

	onProgress(100)
	return nil
}

// downloadArgs translates a request into the engine's command line
func downloadArgs(req domain.DownloadRequest) []string {
	args := []string{"--newline", "--no-warnings", "-f", req.Selector, "-o", req.OutputTemplate}
	if req.MergeFormat != "" {
		args = append(args, "--merge-output-format", req.MergeFormat)
	}
	if req.ExtractAudio {
		args = append(args, "-x", "--audio-format", req.AudioFormat, "--audio-quality", req.AudioQuality)
	}
	return append(args, req.URL)
}

var progressLineRe = regexp.MustCompile(`^\[download\]\s+([0-9.]+)%`)

// parseProgressLine extracts the percentage from an engine progress
// line such as "[download]  42.3% of 10.00MiB at 1.00MiB/s".
func parseProgressLine(line string) (float64, bool) {
	m := progressLineRe.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return 0, false
	}
	percent, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return percent, true
}

// classifyDownloadError maps engine output to an error category. The
// target-exists case is the one recoverable failure the orchestrator
// special-cases.
func classifyDownloadError(stderr string) domain.ErrorCategory {
	lower := strings.ToLower(stderr)
	if strings.Contains(lower, "already exists") || strings.Contains(lower, "has already been downloaded") {
		return domain.CategoryOutputExists
	}
	return domain.CategoryDownload
}

// engineMessage picks the last ERROR line from engine output, falling
// back to a generic message when there is none.
func engineMessage(stderr, fallback string) string {
	message := fallback
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") {
			message = strings.TrimSpace(strings.TrimPrefix(line, "ERROR:"))
		}
	}
	return message
}

// commandLine renders a command for log output. exec passes args
// directly to the process, so this quoting is display-only.
func commandLine(binary string, args []string) string {
	parts := []string{binary}
	for _, arg := range args {
		if strings.ContainsAny(arg, " \t'\"$&|;<>()*?[]#~%") {
			arg = "'" + strings.ReplaceAll(arg, "'", `'"'"'`) + "'"
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}
