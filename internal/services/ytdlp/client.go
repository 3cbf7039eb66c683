package ytdlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tarpagad/yt2tg/internal/services"
)

// Artifact describes the files a successful fetch leaves in the working
// directory. The audio file is always present; the thumbnail is optional.
type Artifact struct {
	AudioPath     string
	ThumbnailPath string
}

// Metadata carries optional fields probed from the video before download.
// Zero values mean "unknown" and must be omitted from transport metadata.
type Metadata struct {
	Uploader        string
	DurationSeconds int
}

// Fetcher defines the behaviour required by the pipeline controller.
type Fetcher interface {
	Fetch(ctx context.Context, sourceURL, workDir string) (Artifact, error)
	Probe(ctx context.Context, sourceURL string) (Metadata, error)
}

// Executor abstracts command execution for testability. Run returns the
// subprocess stdout; implementations must terminate the whole process group
// when the context is cancelled.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, dir string) ([]byte, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps yt-dlp CLI interactions.
type Client struct {
	binary          string
	audioBitrate    string
	downloadTimeout time.Duration
	probeTimeout    time.Duration
	writeThumbnail  bool
	exec            Executor
}

// New constructs a yt-dlp client.
func New(binary, audioBitrate string, downloadTimeoutSeconds, probeTimeoutSeconds int, writeThumbnail bool, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("yt-dlp binary required")
	}
	client := &Client{
		binary:          binary,
		audioBitrate:    strings.TrimSpace(audioBitrate),
		downloadTimeout: time.Duration(downloadTimeoutSeconds) * time.Second,
		probeTimeout:    time.Duration(probeTimeoutSeconds) * time.Second,
		writeThumbnail:  writeThumbnail,
		exec:            commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// audioBasename anchors the output template so the result lands at a
// deterministic path regardless of the video title.
const audioBasename = "audio"

var thumbnailExtensions = []string{".jpg", ".jpeg", ".png", ".webp"}

// Fetch downloads and transcodes the source into workDir as an isolated
// subprocess job. On timeout the process group is killed and ErrTimeout is
// returned; nonzero exit or a missing output file maps to ErrExternalTool.
func (c *Client) Fetch(ctx context.Context, sourceURL, workDir string) (Artifact, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return Artifact{}, services.Wrap(services.ErrValidation, "fetch", "download", "source URL required", nil)
	}
	if strings.TrimSpace(workDir) == "" {
		return Artifact{}, services.Wrap(services.ErrValidation, "fetch", "download", "working directory required", nil)
	}

	args := []string{
		"--no-playlist",
		"-x",
		"--audio-format", "mp3",
	}
	if c.audioBitrate != "" {
		args = append(args, "--audio-quality", c.audioBitrate)
	}
	if c.writeThumbnail {
		args = append(args, "--write-thumbnail")
	}
	args = append(args,
		"-o", filepath.Join(workDir, audioBasename+".%(ext)s"),
		sourceURL,
	)

	runCtx := ctx
	if c.downloadTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.downloadTimeout)
		defer cancel()
	}

	if _, err := c.exec.Run(runCtx, c.binary, args, workDir); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return Artifact{}, services.Wrap(services.ErrTimeout, "fetch", "download",
				fmt.Sprintf("yt-dlp exceeded %s", c.downloadTimeout), err)
		}
		if ctx.Err() != nil {
			return Artifact{}, ctx.Err()
		}
		return Artifact{}, services.Wrap(services.ErrExternalTool, "fetch", "download", "yt-dlp failed", err)
	}

	audioPath := filepath.Join(workDir, audioBasename+".mp3")
	if _, err := os.Stat(audioPath); err != nil {
		return Artifact{}, services.Wrap(services.ErrExternalTool, "fetch", "download",
			fmt.Sprintf("expected output %s missing", audioPath), err)
	}

	artifact := Artifact{AudioPath: audioPath}
	for _, ext := range thumbnailExtensions {
		candidate := filepath.Join(workDir, audioBasename+ext)
		if _, err := os.Stat(candidate); err == nil {
			artifact.ThumbnailPath = candidate
			break
		}
	}
	return artifact, nil
}

// Probe runs yt-dlp --dump-json to obtain uploader and duration metadata.
// Failures are reported but callers treat them as non-fatal: the delivery
// simply omits the optional fields.
func (c *Client) Probe(ctx context.Context, sourceURL string) (Metadata, error) {
	if strings.TrimSpace(sourceURL) == "" {
		return Metadata{}, services.Wrap(services.ErrValidation, "fetch", "probe", "source URL required", nil)
	}

	runCtx := ctx
	if c.probeTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.probeTimeout)
		defer cancel()
	}

	stdout, err := c.exec.Run(runCtx, c.binary, []string{"--no-playlist", "--dump-json", sourceURL}, "")
	if err != nil {
		if ctx.Err() != nil {
			return Metadata{}, ctx.Err()
		}
		return Metadata{}, services.Wrap(services.ErrExternalTool, "fetch", "probe", "yt-dlp --dump-json failed", err)
	}

	var info struct {
		Uploader string  `json:"uploader"`
		Duration float64 `json:"duration"`
	}
	if err := json.Unmarshal(stdout, &info); err != nil {
		return Metadata{}, services.Wrap(services.ErrExternalTool, "fetch", "probe", "parse yt-dlp metadata", err)
	}

	return Metadata{
		Uploader:        strings.TrimSpace(info.Uploader),
		DurationSeconds: int(info.Duration),
	}, nil
}
