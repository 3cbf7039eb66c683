package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tarpagad/yt2tg/internal/feed"
	"github.com/tarpagad/yt2tg/internal/logging"
)

// ErrStateCorrupt marks an unreadable state file. The pipeline must halt
// rather than run with an unknown delivery boundary.
var ErrStateCorrupt = errors.New("delivery state corrupt")

// DeliveryState records the most recently delivered item. Singleton,
// persisted, mutated only through Commit after confirmed delivery.
type DeliveryState struct {
	LastSeenID          string    `json:"last_seen_id"`
	LastSeenPublishedAt time.Time `json:"last_seen_published_at"`
}

// Store persists DeliveryState as a single JSON file with atomic replacement.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a store backed by the given file path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{
		path:   path,
		logger: logging.NewComponentLogger(logger, "state"),
	}
}

// Path returns the on-disk location backing the store.
func (s *Store) Path() string {
	return s.path
}

type stateFile struct {
	LastSeenID          string `json:"last_seen_id"`
	LastSeenPublishedAt string `json:"last_seen_published_at"`
	// LegacyPublished carries the field written by earlier releases, which
	// stored only the timestamp.
	LegacyPublished string `json:"last_published,omitempty"`
}

// Load reads the persisted state. The second return value is false when no
// state exists yet (first run). A malformed file returns ErrStateCorrupt.
func (s *Store) Load() (DeliveryState, bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return DeliveryState{}, false, nil
		}
		return DeliveryState{}, false, fmt.Errorf("read state file %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return DeliveryState{}, false, fmt.Errorf("%w: %s is empty", ErrStateCorrupt, s.path)
	}

	var raw stateFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return DeliveryState{}, false, fmt.Errorf("%w: parse %s: %w", ErrStateCorrupt, s.path, err)
	}

	tsValue := raw.LastSeenPublishedAt
	if tsValue == "" {
		tsValue = raw.LegacyPublished
	}
	if tsValue == "" {
		return DeliveryState{}, false, fmt.Errorf("%w: %s missing published timestamp", ErrStateCorrupt, s.path)
	}
	ts, err := time.Parse(time.RFC3339, tsValue)
	if err != nil {
		return DeliveryState{}, false, fmt.Errorf("%w: parse timestamp in %s: %w", ErrStateCorrupt, s.path, err)
	}

	return DeliveryState{
		LastSeenID:          raw.LastSeenID,
		LastSeenPublishedAt: ts.UTC(),
	}, true, nil
}

// Commit durably records item as delivered. The write is atomic with respect
// to crashes (write-to-temp then rename) and never regresses the persisted
// timestamp, even if a stale item is committed out of order.
func (s *Store) Commit(item feed.Item) error {
	current, found, err := s.Load()
	if err != nil {
		return err
	}
	if found && item.PublishedAt.Before(current.LastSeenPublishedAt) {
		s.logger.Debug("skipping regressive state commit",
			logging.String(logging.FieldVideoID, item.ID),
			logging.Time("item_published", item.PublishedAt),
			logging.Time("last_seen_published", current.LastSeenPublishedAt),
		)
		return nil
	}

	// RFC3339Nano keeps fractional seconds: truncating them would reload a
	// boundary earlier than the delivered item and re-select it next poll.
	raw := stateFile{
		LastSeenID:          item.ID,
		LastSeenPublishedAt: item.PublishedAt.UTC().Format(time.RFC3339Nano),
	}
	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp state file: %w", err)
	}

	s.logger.Debug("delivery state committed",
		logging.String(logging.FieldVideoID, item.ID),
		logging.Time("published", item.PublishedAt),
	)
	return nil
}

// Reset removes the persisted state so the next run behaves like a first run.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove state file: %w", err)
	}
	return nil
}
