package journal_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/tarpagad/yt2tg/internal/journal"
	"github.com/tarpagad/yt2tg/internal/testsupport"
)

func bumpSchemaVersion(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec("UPDATE schema_version SET version = version + 1")
	return err
}

func TestRecordAndRecent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	published := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	entries := []journal.Entry{
		{VideoID: "vid-a", Title: "First", PublishedAt: published, Outcome: journal.OutcomeDelivered, ArtifactBytes: 2048, Duration: 90 * time.Second},
		{VideoID: "vid-b", Title: "Second", PublishedAt: published.Add(time.Hour), Outcome: journal.OutcomeFetchFailed, FailureReason: "timeout"},
		{VideoID: "vid-c", Title: "Third", PublishedAt: published.Add(2 * time.Hour), Outcome: journal.OutcomeDeliveryFailed, FailureReason: "rate_limited"},
	}
	for _, entry := range entries {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record(%s): %v", entry.VideoID, err)
		}
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(recent))
	}
	if recent[0].VideoID != "vid-c" {
		t.Fatalf("expected newest entry first, got %s", recent[0].VideoID)
	}
	if recent[2].VideoID != "vid-a" {
		t.Fatalf("expected oldest entry last, got %s", recent[2].VideoID)
	}
	if recent[2].ArtifactBytes != 2048 {
		t.Fatalf("expected artifact bytes to round-trip, got %d", recent[2].ArtifactBytes)
	}
	if recent[2].Duration != 90*time.Second {
		t.Fatalf("expected duration to round-trip, got %s", recent[2].Duration)
	}
	if !recent[2].PublishedAt.Equal(published) {
		t.Fatalf("expected published timestamp %s, got %s", published, recent[2].PublishedAt)
	}
	if recent[0].FailureReason != "rate_limited" {
		t.Fatalf("expected failure reason to round-trip, got %q", recent[0].FailureReason)
	}
}

func TestRecentLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		entry := journal.Entry{
			VideoID:     "vid",
			PublishedAt: time.Now().UTC(),
			Outcome:     journal.OutcomeDelivered,
		}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(recent))
	}
}

func TestRecordRejectsInvalidEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	if err := store.Record(ctx, journal.Entry{Outcome: journal.OutcomeDelivered}); err == nil {
		t.Fatal("expected error for missing video id")
	}
	if err := store.Record(ctx, journal.Entry{VideoID: "vid", Outcome: "exploded"}); err == nil {
		t.Fatal("expected error for unknown outcome")
	}
}

func TestSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	outcomes := []journal.Outcome{
		journal.OutcomeDelivered,
		journal.OutcomeDelivered,
		journal.OutcomeFetchFailed,
		journal.OutcomeDeliveryFailed,
	}
	for i, outcome := range outcomes {
		entry := journal.Entry{
			VideoID:     "vid",
			PublishedAt: time.Now().UTC().Add(time.Duration(i) * time.Minute),
			Outcome:     outcome,
		}
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	summary, err := store.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Total != 4 {
		t.Fatalf("expected total 4, got %d", summary.Total)
	}
	if summary.Delivered != 2 {
		t.Fatalf("expected 2 delivered, got %d", summary.Delivered)
	}
	if summary.FetchFailed != 1 {
		t.Fatalf("expected 1 fetch failure, got %d", summary.FetchFailed)
	}
	if summary.DeliveryFailed != 1 {
		t.Fatalf("expected 1 delivery failure, got %d", summary.DeliveryFailed)
	}
}

func TestLastDelivered(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	ctx := context.Background()

	if _, found, err := store.LastDelivered(ctx); err != nil {
		t.Fatalf("LastDelivered: %v", err)
	} else if found {
		t.Fatal("expected no delivery in empty journal")
	}

	records := []journal.Entry{
		{VideoID: "vid-a", Outcome: journal.OutcomeDelivered, PublishedAt: time.Now().UTC()},
		{VideoID: "vid-b", Outcome: journal.OutcomeDeliveryFailed, PublishedAt: time.Now().UTC()},
	}
	for _, entry := range records {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	last, found, err := store.LastDelivered(ctx)
	if err != nil {
		t.Fatalf("LastDelivered: %v", err)
	}
	if !found {
		t.Fatal("expected a delivered entry")
	}
	if last.VideoID != "vid-a" {
		t.Fatalf("expected vid-a, got %s", last.VideoID)
	}
}

func TestSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenJournal(t, cfg)
	if err := store.Record(context.Background(), journal.Entry{VideoID: "vid", Outcome: journal.OutcomeDelivered, PublishedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := bumpSchemaVersion(cfg.JournalPath()); err != nil {
		t.Fatalf("bump schema version: %v", err)
	}

	if _, err := journal.Open(cfg); !errors.Is(err, journal.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestParseOutcome(t *testing.T) {
	if outcome, ok := journal.ParseOutcome(" Delivered "); !ok || outcome != journal.OutcomeDelivered {
		t.Fatalf("expected delivered, got %q ok=%v", outcome, ok)
	}
	if _, ok := journal.ParseOutcome("bogus"); ok {
		t.Fatal("expected bogus outcome to be rejected")
	}
	if _, ok := journal.ParseOutcome(""); ok {
		t.Fatal("expected empty outcome to be rejected")
	}
}
