package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateYouTube(); err != nil {
		return err
	}
	if err := c.validateTelegram(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateYouTube() error {
	if c.YouTube.ChannelID == "" && c.YouTube.FeedURL == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/yt2tg/config.toml"
		}
		return fmt.Errorf("youtube.channel_id is required. Set YOUTUBE_CHANNEL_ID env var or edit %s (create with 'yt2tg config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateTelegram() error {
	if c.Telegram.BotToken == "" {
		return errors.New("telegram.bot_token is required. Set TELEGRAM_BOT_TOKEN env var or edit the config file")
	}
	if c.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id is required. Set TELEGRAM_CHANNEL_ID env var or edit the config file")
	}
	if c.Telegram.RetryAttempts < 0 {
		return errors.New("telegram.retry_attempts must not be negative")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	return ensurePositiveMap(map[string]int{
		"youtube.request_timeout":       c.YouTube.RequestTimeout,
		"telegram.upload_timeout":       c.Telegram.UploadTimeout,
		"telegram.retry_base_delay":     c.Telegram.RetryBaseDelay,
		"ytdlp.download_timeout":        c.YtDlp.DownloadTimeout,
		"ytdlp.probe_timeout":           c.YtDlp.ProbeTimeout,
		"workflow.poll_interval":        c.Workflow.PollInterval,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive (seconds)", name)
		}
	}
	return nil
}
