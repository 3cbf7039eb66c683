package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tarpagad/yt2tg/internal/config"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadParsesAndNormalizes(t *testing.T) {
	base := t.TempDir()
	path := writeConfig(t, `
[paths]
staging_dir = "`+filepath.Join(base, "staging")+`"
log_dir = "`+filepath.Join(base, "logs")+`"
state_file = "`+filepath.Join(base, "state", "last_seen.json")+`"

[youtube]
channel_id = "UC123"

[telegram]
bot_token = "token"
chat_id = "@channel"
api_base_url = "https://api.telegram.org/"
`)

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("unexpected resolution: %q exists=%v", resolved, exists)
	}
	if cfg.Telegram.APIBaseURL != "https://api.telegram.org" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Telegram.APIBaseURL)
	}
	if cfg.YtDlp.Binary != "yt-dlp" {
		t.Fatalf("expected default ytdlp binary, got %q", cfg.YtDlp.Binary)
	}
	if got := cfg.FeedURL(); !strings.Contains(got, "channel_id=UC123") {
		t.Fatalf("unexpected feed URL %q", got)
	}
}

func TestLoadRequiresChannel(t *testing.T) {
	path := writeConfig(t, `
[telegram]
bot_token = "token"
chat_id = "@channel"
`)
	t.Setenv("YOUTUBE_CHANNEL_ID", "")

	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for missing channel id")
	}
}

func TestLoadHonoursEnvFallbacks(t *testing.T) {
	path := writeConfig(t, "")
	t.Setenv("YOUTUBE_CHANNEL_ID", "UCenv")
	t.Setenv("TELEGRAM_BOT_TOKEN", "envtoken")
	t.Setenv("TELEGRAM_CHANNEL_ID", "@envchannel")

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.YouTube.ChannelID != "UCenv" || cfg.Telegram.BotToken != "envtoken" || cfg.Telegram.ChatID != "@envchannel" {
		t.Fatalf("env fallbacks not applied: %+v", cfg)
	}
}

func TestValidateRejectsNonPositiveTimeouts(t *testing.T) {
	cfg := config.Default()
	cfg.YouTube.ChannelID = "UC123"
	cfg.Telegram.BotToken = "token"
	cfg.Telegram.ChatID = "@c"
	cfg.YtDlp.DownloadTimeout = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for zero download timeout")
	}
}

func TestFeedURLOverride(t *testing.T) {
	cfg := config.Default()
	cfg.YouTube.FeedURL = "https://example.com/feed.xml"
	if cfg.FeedURL() != "https://example.com/feed.xml" {
		t.Fatalf("expected explicit feed URL, got %q", cfg.FeedURL())
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[telegram]") {
		t.Fatal("sample config missing telegram section")
	}
}
