package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/tarpagad/yt2tg/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.StagingDir = filepath.Join(base, "staging")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateFile = filepath.Join(base, "state", "last_seen.json")
	cfg.YouTube.ChannelID = "UCtest"
	cfg.Telegram.BotToken = "test-token"
	cfg.Telegram.ChatID = "@testchannel"
	cfg.Telegram.RetryBaseDelay = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithFeedURL overrides the feed URL on the test config.
func WithFeedURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.YouTube.FeedURL = url
	}
}

// WithTelegramBaseURL points the Bot API client at a test server.
func WithTelegramBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Telegram.APIBaseURL = url
	}
}
