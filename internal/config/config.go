package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and file location configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	LogDir     string `toml:"log_dir"`
	StateFile  string `toml:"state_file"`
}

// YouTube contains configuration for the monitored channel feed.
type YouTube struct {
	ChannelID      string `toml:"channel_id"`
	FeedURL        string `toml:"feed_url"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Telegram contains configuration for the Bot API delivery target.
type Telegram struct {
	BotToken       string `toml:"bot_token"`
	ChatID         string `toml:"chat_id"`
	APIBaseURL     string `toml:"api_base_url"`
	UploadTimeout  int    `toml:"upload_timeout"`
	RetryAttempts  int    `toml:"retry_attempts"`
	RetryBaseDelay int    `toml:"retry_base_delay"`
}

// YtDlp contains configuration for the external download/transcode tool.
type YtDlp struct {
	Binary          string `toml:"binary"`
	AudioBitrate    string `toml:"audio_bitrate"`
	DownloadTimeout int    `toml:"download_timeout"`
	ProbeTimeout    int    `toml:"probe_timeout"`
	WriteThumbnail  bool   `toml:"write_thumbnail"`
}

// Workflow contains daemon timing configuration.
type Workflow struct {
	PollInterval int `toml:"poll_interval"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Delivery       bool   `toml:"delivery"`
	Cycle          bool   `toml:"cycle"`
	Errors         bool   `toml:"errors"`
}

// Config encapsulates all configuration values for yt2tg.
//
// Configuration sections by subsystem:
//   - Paths: staging/log directories and the delivery state file
//   - YouTube: monitored channel and feed fetch timeout
//   - Telegram: Bot API credentials, upload timeout, rate-limit retries
//   - YtDlp: external tool binary, bitrate target, and timeouts
//   - Workflow: daemon poll interval
//   - Logging: log format and level
//   - Notifications: ntfy push notification settings
type Config struct {
	Paths         Paths         `toml:"paths"`
	YouTube       YouTube       `toml:"youtube"`
	Telegram      Telegram      `toml:"telegram"`
	YtDlp         YtDlp         `toml:"ytdlp"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`
	Notifications Notifications `toml:"notifications"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/yt2tg/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("yt2tg.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for pipeline operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if stateDir := filepath.Dir(c.Paths.StateFile); stateDir != "" {
		if err := os.MkdirAll(stateDir, 0o755); err != nil {
			return fmt.Errorf("create state directory %q: %w", stateDir, err)
		}
	}
	return nil
}

// FeedURL returns the effective feed URL, deriving it from the channel ID
// when no explicit override is configured.
func (c *Config) FeedURL() string {
	if url := strings.TrimSpace(c.YouTube.FeedURL); url != "" {
		return url
	}
	return "https://www.youtube.com/feeds/videos.xml?channel_id=" + strings.TrimSpace(c.YouTube.ChannelID)
}

// LockFilePath returns the lock file used to enforce single-instance runs.
func (c *Config) LockFilePath() string {
	return filepath.Join(c.Paths.LogDir, "yt2tg.lock")
}

// JournalPath returns the SQLite delivery journal location.
func (c *Config) JournalPath() string {
	return filepath.Join(c.Paths.LogDir, "journal.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
