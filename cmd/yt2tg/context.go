package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/tarpagad/yt2tg/internal/config"
	"github.com/tarpagad/yt2tg/internal/daemon"
	"github.com/tarpagad/yt2tg/internal/feed"
	"github.com/tarpagad/yt2tg/internal/journal"
	"github.com/tarpagad/yt2tg/internal/logging"
	"github.com/tarpagad/yt2tg/internal/notifications"
	"github.com/tarpagad/yt2tg/internal/pipeline"
	"github.com/tarpagad/yt2tg/internal/services/telegram"
	"github.com/tarpagad/yt2tg/internal/services/ytdlp"
	"github.com/tarpagad/yt2tg/internal/state"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// pipelineDeps holds everything a run/watch command needs, with Close
// releasing the journal handle.
type pipelineDeps struct {
	cfg    *config.Config
	logger *slog.Logger
	daemon *daemon.Daemon
	store  *journal.Store
}

func (d *pipelineDeps) Close() {
	if d.store != nil {
		_ = d.store.Close()
	}
}

func (c *commandContext) buildPipeline() (*pipelineDeps, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}

	poller := feed.NewPoller(
		cfg.FeedURL(),
		time.Duration(cfg.YouTube.RequestTimeout)*time.Second,
		nil,
		logger,
	)

	stateStore := state.NewStore(cfg.Paths.StateFile, logger)

	fetcher, err := ytdlp.New(
		cfg.YtDlp.Binary,
		cfg.YtDlp.AudioBitrate,
		cfg.YtDlp.DownloadTimeout,
		cfg.YtDlp.ProbeTimeout,
		cfg.YtDlp.WriteThumbnail,
	)
	if err != nil {
		return nil, fmt.Errorf("initialize yt-dlp client: %w", err)
	}

	sender, err := telegram.New(
		cfg.Telegram.APIBaseURL,
		cfg.Telegram.BotToken,
		cfg.Telegram.ChatID,
		cfg.Telegram.UploadTimeout,
		cfg.Telegram.RetryAttempts,
		cfg.Telegram.RetryBaseDelay,
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("initialize telegram client: %w", err)
	}

	journalStore, err := journal.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open delivery journal: %w", err)
	}

	controller, err := pipeline.NewController(cfg, poller, stateStore, fetcher, sender,
		pipeline.WithJournal(journalStore),
		pipeline.WithNotifier(notifications.NewService(cfg)),
		pipeline.WithLogger(logger),
	)
	if err != nil {
		_ = journalStore.Close()
		return nil, err
	}

	d, err := daemon.New(cfg, controller, logger)
	if err != nil {
		_ = journalStore.Close()
		return nil, err
	}

	return &pipelineDeps{
		cfg:    cfg,
		logger: logger,
		daemon: d,
		store:  journalStore,
	}, nil
}
