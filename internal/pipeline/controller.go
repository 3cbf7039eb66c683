package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tarpagad/yt2tg/internal/config"
	"github.com/tarpagad/yt2tg/internal/feed"
	"github.com/tarpagad/yt2tg/internal/journal"
	"github.com/tarpagad/yt2tg/internal/logging"
	"github.com/tarpagad/yt2tg/internal/notifications"
	"github.com/tarpagad/yt2tg/internal/services"
	"github.com/tarpagad/yt2tg/internal/services/telegram"
	"github.com/tarpagad/yt2tg/internal/services/ytdlp"
	"github.com/tarpagad/yt2tg/internal/state"
	"github.com/tarpagad/yt2tg/internal/textutil"
)

// FeedSource supplies feed candidates for a cycle.
type FeedSource interface {
	Poll(ctx context.Context) ([]feed.Item, error)
}

// AudioSender delivers a fetched artifact to the target channel.
type AudioSender interface {
	SendAudio(ctx context.Context, audio telegram.Audio) error
}

// Journal records delivery attempts for observability. Recording failures
// never affect pipeline behaviour.
type Journal interface {
	Record(ctx context.Context, entry journal.Entry) error
}

// Controller sequences one polling cycle: poll, filter, then per item
// fetch, deliver, commit, cleanup. Items are processed strictly one at a
// time so at most one subprocess and one artifact set exist at once.
type Controller struct {
	cfg      *config.Config
	source   FeedSource
	store    *state.Store
	fetcher  ytdlp.Fetcher
	sender   AudioSender
	journal  Journal
	notifier notifications.Service
	logger   *slog.Logger
}

// ControllerOption configures optional controller collaborators.
type ControllerOption func(*Controller)

// WithJournal attaches a delivery journal.
func WithJournal(j Journal) ControllerOption {
	return func(c *Controller) {
		c.journal = j
	}
}

// WithNotifier attaches a notification service.
func WithNotifier(n notifications.Service) ControllerOption {
	return func(c *Controller) {
		if n != nil {
			c.notifier = n
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewController validates collaborators and assembles a controller.
func NewController(cfg *config.Config, source FeedSource, store *state.Store, fetcher ytdlp.Fetcher, sender AudioSender, opts ...ControllerOption) (*Controller, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "configuration is required", nil)
	}
	if source == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "feed source is required", nil)
	}
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "state store is required", nil)
	}
	if fetcher == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "fetcher is required", nil)
	}
	if sender == nil {
		return nil, services.Wrap(services.ErrConfiguration, "pipeline", "new", "sender is required", nil)
	}

	controller := &Controller{
		cfg:      cfg,
		source:   source,
		store:    store,
		fetcher:  fetcher,
		sender:   sender,
		notifier: notifications.NewService(cfg),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(controller)
	}
	controller.logger = logging.NewComponentLogger(controller.logger, "pipeline")
	return controller, nil
}

// CycleResult summarizes one polling cycle.
type CycleResult struct {
	Polled    int
	Pending   int
	Delivered int
	Failed    int
}

// RunCycle executes one poll-filter-deliver pass. A temporarily
// unavailable feed skips the cycle without error; a corrupt state store
// or a failed commit aborts with an error since the delivery boundary is
// no longer trustworthy.
func (c *Controller) RunCycle(ctx context.Context) (CycleResult, error) {
	var result CycleResult
	started := time.Now()

	items, err := c.source.Poll(ctx)
	if err != nil {
		if errors.Is(err, feed.ErrFeedUnavailable) {
			c.logger.Warn("feed unavailable; skipping cycle",
				logging.Error(err),
				logging.String(logging.FieldEventType, "feed_unavailable"),
				logging.String(logging.FieldErrorHint, "check network access and the channel id"),
			)
			c.notifyError(ctx, err, "feed poll")
			return result, nil
		}
		return result, err
	}
	result.Polled = len(items)

	st, hasState, err := c.store.Load()
	if err != nil {
		return result, err
	}

	pending := SelectNew(items, st, hasState)
	result.Pending = len(pending)
	if len(pending) == 0 {
		c.logger.Debug("no undelivered items", logging.Int("polled", result.Polled))
		return result, nil
	}
	c.logger.Info("processing undelivered items",
		logging.Int("count", len(pending)),
		logging.Bool("first_run", !hasState),
	)

	for _, item := range pending {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		delivered, err := c.processItem(ctx, item)
		if err != nil {
			return result, err
		}
		if delivered {
			result.Delivered++
		} else {
			result.Failed++
		}
	}

	c.notifyCycle(ctx, result.Delivered, result.Failed, time.Since(started))
	return result, nil
}

// processItem runs one item end to end inside its own working directory.
// A false return with nil error means the item failed and was skipped;
// the next poll re-evaluates it because the state was not advanced. An
// error return aborts the whole cycle.
func (c *Controller) processItem(ctx context.Context, item feed.Item) (bool, error) {
	ctx = services.WithVideoID(ctx, item.ID)
	itemLogger := c.logger.With(
		logging.String(logging.FieldVideoID, item.ID),
		logging.String("title", item.Title),
	)

	workDir := filepath.Join(c.cfg.Paths.StagingDir, "job-"+uuid.NewString())
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return false, fmt.Errorf("create work directory: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			itemLogger.Warn("failed to remove work directory",
				logging.Error(err),
				logging.String("work_dir", workDir),
			)
		}
	}()

	started := time.Now()
	itemLogger.Info("fetching item",
		logging.String(logging.FieldStage, "fetch"),
		logging.Time("published_at", item.PublishedAt),
	)

	artifact, err := c.fetcher.Fetch(services.WithStage(ctx, "fetch"), item.SourceURL, workDir)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		reason := "tool_error"
		if errors.Is(err, services.ErrTimeout) {
			reason = "timeout"
		}
		itemLogger.Error("fetch failed; item skipped until next poll",
			logging.Error(err),
			logging.String(logging.FieldEventType, "fetch_failed"),
			logging.String("reason", reason),
		)
		c.recordJournal(ctx, item, journal.OutcomeFetchFailed, reason, 0, time.Since(started))
		c.notifyFailure(ctx, item.Title, reason)
		return false, nil
	}

	meta, probeErr := c.fetcher.Probe(services.WithStage(ctx, "probe"), item.SourceURL)
	if probeErr != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		itemLogger.Debug("probe failed; sending without duration metadata", logging.Error(probeErr))
	}

	audio := buildAudio(item, artifact, meta)
	itemLogger.Info("delivering item",
		logging.String(logging.FieldStage, "deliver"),
		logging.Int64("artifact_bytes", artifactSize(artifact)),
	)

	if err := c.sender.SendAudio(services.WithStage(ctx, "deliver"), audio); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return false, ctxErr
		}
		reason := string(telegram.ReasonUnknown)
		if delivery, ok := telegram.AsDeliveryError(err); ok {
			reason = string(delivery.Reason)
		}
		itemLogger.Error("delivery failed; item skipped until next poll",
			logging.Error(err),
			logging.String(logging.FieldEventType, "delivery_failed"),
			logging.String("reason", reason),
		)
		c.recordJournal(ctx, item, journal.OutcomeDeliveryFailed, reason, artifactSize(artifact), time.Since(started))
		c.notifyFailure(ctx, item.Title, reason)
		return false, nil
	}

	if err := c.store.Commit(item); err != nil {
		// The item reached the channel but the boundary did not advance.
		// Continuing would risk duplicate sends, so surface this to the
		// operator instead.
		return false, fmt.Errorf("commit delivery state after send: %w", err)
	}

	c.recordJournal(ctx, item, journal.OutcomeDelivered, "", artifactSize(artifact), time.Since(started))
	itemLogger.Info("item delivered",
		logging.String(logging.FieldEventType, "delivered"),
		logging.Duration("elapsed", time.Since(started)),
	)
	c.notifyDelivered(ctx, audio.Title)
	return true, nil
}

func buildAudio(item feed.Item, artifact ytdlp.Artifact, meta ytdlp.Metadata) telegram.Audio {
	performer := strings.TrimSpace(meta.Uploader)
	if performer == "" {
		performer = strings.TrimSpace(item.Author)
	}
	if performer != "" {
		performer = textutil.TruncateRunes(performer, textutil.MetadataRuneLimit)
	}
	return telegram.Audio{
		FilePath:        artifact.AudioPath,
		ThumbnailPath:   artifact.ThumbnailPath,
		Title:           textutil.CleanTitle(item.Title),
		Performer:       performer,
		DurationSeconds: meta.DurationSeconds,
		Caption:         item.SourceURL,
	}
}

func artifactSize(artifact ytdlp.Artifact) int64 {
	info, err := os.Stat(artifact.AudioPath)
	if err != nil {
		return 0
	}
	return info.Size()
}

func (c *Controller) recordJournal(ctx context.Context, item feed.Item, outcome journal.Outcome, reason string, bytes int64, elapsed time.Duration) {
	if c.journal == nil {
		return
	}
	entry := journal.Entry{
		VideoID:       item.ID,
		Title:         item.Title,
		PublishedAt:   item.PublishedAt,
		Outcome:       outcome,
		FailureReason: reason,
		ArtifactBytes: bytes,
		Duration:      elapsed,
	}
	if err := c.journal.Record(ctx, entry); err != nil {
		c.logger.Warn("failed to record journal entry",
			logging.Error(err),
			logging.String(logging.FieldVideoID, item.ID),
		)
	}
}

func (c *Controller) notifyDelivered(ctx context.Context, title string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.NotifyDeliveryCompleted(ctx, title); err != nil {
		c.logger.Warn("delivery notification failed", logging.Error(err))
	}
}

func (c *Controller) notifyFailure(ctx context.Context, title, reason string) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.NotifyDeliveryFailed(ctx, title, reason); err != nil {
		c.logger.Warn("failure notification failed", logging.Error(err))
	}
}

func (c *Controller) notifyCycle(ctx context.Context, delivered, failed int, elapsed time.Duration) {
	if c.notifier == nil {
		return
	}
	if delivered == 0 && failed == 0 {
		return
	}
	if err := c.notifier.NotifyCycleCompleted(ctx, delivered, failed, elapsed); err != nil {
		c.logger.Warn("cycle notification failed", logging.Error(err))
	}
}

func (c *Controller) notifyError(ctx context.Context, err error, label string) {
	if c.notifier == nil {
		return
	}
	if notifyErr := c.notifier.NotifyError(ctx, err, label); notifyErr != nil {
		c.logger.Warn("error notification failed", logging.Error(notifyErr))
	}
}
