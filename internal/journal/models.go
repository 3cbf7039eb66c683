package journal

import (
	"strings"
	"time"
)

// Outcome records how a delivery attempt ended.
type Outcome string

const (
	OutcomeDelivered      Outcome = "delivered"
	OutcomeFetchFailed    Outcome = "fetch_failed"
	OutcomeDeliveryFailed Outcome = "delivery_failed"
)

var outcomeSet = map[Outcome]struct{}{
	OutcomeDelivered:      {},
	OutcomeFetchFailed:    {},
	OutcomeDeliveryFailed: {},
}

// ParseOutcome converts a string into a known Outcome.
func ParseOutcome(value string) (Outcome, bool) {
	normalized := Outcome(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := outcomeSet[normalized]
	return normalized, ok
}

// Entry is one delivery attempt persisted in SQLite.
type Entry struct {
	ID            int64
	VideoID       string
	Title         string
	PublishedAt   time.Time
	Outcome       Outcome
	FailureReason string
	ArtifactBytes int64
	Duration      time.Duration
	CreatedAt     time.Time
}

// Summary aggregates journal counts for status output.
type Summary struct {
	Total          int
	Delivered      int
	FetchFailed    int
	DeliveryFailed int
}
