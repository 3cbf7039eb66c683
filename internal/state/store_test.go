package state_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tarpagad/yt2tg/internal/feed"
	"github.com/tarpagad/yt2tg/internal/logging"
	"github.com/tarpagad/yt2tg/internal/state"
)

func newStore(t *testing.T) *state.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "last_seen.json")
	return state.NewStore(path, logging.NewNop())
}

func item(id string, published time.Time) feed.Item {
	return feed.Item{ID: id, PublishedAt: published}
}

func TestLoadAbsentOnFirstRun(t *testing.T) {
	store := newStore(t)
	_, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if found {
		t.Fatal("expected absent state on first run")
	}
}

func TestCommitThenLoadRoundTrip(t *testing.T) {
	store := newStore(t)
	published := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	if err := store.Commit(item("bbb222", published)); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("expected state present after commit")
	}
	if got.LastSeenID != "bbb222" || !got.LastSeenPublishedAt.Equal(published) {
		t.Fatalf("unexpected state %+v", got)
	}
}

func TestCommitKeepsFractionalSeconds(t *testing.T) {
	store := newStore(t)
	published := time.Date(2024, 3, 2, 10, 0, 0, 500*int(time.Millisecond), time.UTC)
	if err := store.Commit(item("frac500", published)); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	got, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found {
		t.Fatal("expected state present after commit")
	}
	if !got.LastSeenPublishedAt.Equal(published) {
		t.Fatalf("fractional seconds lost: committed %v, loaded %v",
			published, got.LastSeenPublishedAt)
	}
	if got.LastSeenPublishedAt.Before(published) {
		t.Fatal("reloaded boundary is earlier than the delivered item")
	}
}

func TestCommitIsMonotonic(t *testing.T) {
	store := newStore(t)
	newer := time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	if err := store.Commit(item("newer", newer)); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := store.Commit(item("older", older)); err != nil {
		t.Fatalf("Commit of stale item failed: %v", err)
	}

	got, _, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.LastSeenID != "newer" || !got.LastSeenPublishedAt.Equal(newer) {
		t.Fatalf("state regressed: %+v", got)
	}
}

func TestLoadCorruptFile(t *testing.T) {
	store := newStore(t)
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(store.Path(), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	_, _, err := store.Load()
	if !errors.Is(err, state.ErrStateCorrupt) {
		t.Fatalf("expected ErrStateCorrupt, got %v", err)
	}
}

func TestLoadLegacyFormat(t *testing.T) {
	store := newStore(t)
	if err := os.MkdirAll(filepath.Dir(store.Path()), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	legacy := []byte(`{"last_published": "2024-03-01T10:00:00+00:00"}`)
	if err := os.WriteFile(store.Path(), legacy, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found || !got.LastSeenPublishedAt.Equal(time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("legacy state not honoured: %+v found=%v", got, found)
	}
}

func TestCommitSurvivesSimulatedCrash(t *testing.T) {
	store := newStore(t)
	first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := store.Commit(item("aaa111", first)); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// A crash between temp write and rename leaves a stray .tmp file; the
	// committed state must stay readable and unchanged.
	if err := os.WriteFile(store.Path()+".tmp", []byte("partial garbage"), 0o644); err != nil {
		t.Fatalf("write temp: %v", err)
	}

	got, found, err := store.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !found || got.LastSeenID != "aaa111" {
		t.Fatalf("state damaged by stray temp file: %+v", got)
	}
}

func TestReset(t *testing.T) {
	store := newStore(t)
	if err := store.Commit(item("aaa111", time.Now().UTC())); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if err := store.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if _, found, err := store.Load(); err != nil || found {
		t.Fatalf("expected absent state after reset, found=%v err=%v", found, err)
	}
	if err := store.Reset(); err != nil {
		t.Fatalf("Reset on absent state failed: %v", err)
	}
}
