package feed

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/tarpagad/yt2tg/internal/logging"
)

// ErrFeedUnavailable marks transient fetch or parse failures. Callers skip
// the current cycle and retry on the next poll.
var ErrFeedUnavailable = errors.New("feed unavailable")

// Item is one normalized feed entry. Immutable once parsed.
type Item struct {
	ID          string
	Title       string
	Author      string
	PublishedAt time.Time
	SourceURL   string
}

// HTTPDoer describes the HTTP client used by the poller.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Poller fetches and parses the channel's Atom feed into normalized items.
type Poller struct {
	feedURL string
	client  HTTPDoer
	logger  *slog.Logger
}

// NewPoller constructs a feed poller. A nil client falls back to a default
// http.Client with the provided timeout.
func NewPoller(feedURL string, timeout time.Duration, client HTTPDoer, logger *slog.Logger) *Poller {
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Poller{
		feedURL: strings.TrimSpace(feedURL),
		client:  client,
		logger:  logging.NewComponentLogger(logger, "poller"),
	}
}

const maxFeedBytes = 8 << 20

// Poll fetches the feed and returns items sorted newest-first. Malformed
// entries are dropped with a reported parse error rather than propagated.
// Network and parse failures map to ErrFeedUnavailable; Poll mutates no state.
func (p *Poller) Poll(ctx context.Context) ([]Item, error) {
	if p.feedURL == "" {
		return nil, fmt.Errorf("%w: feed URL not configured", ErrFeedUnavailable)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrFeedUnavailable, err)
	}
	req.Header.Set("Accept", "application/atom+xml, application/xml, text/xml")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch feed: %w", ErrFeedUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: feed returned status %d", ErrFeedUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read feed body: %w", ErrFeedUnavailable, err)
	}

	var doc atomFeed
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse feed: %w", ErrFeedUnavailable, err)
	}

	items := make([]Item, 0, len(doc.Entries))
	for _, entry := range doc.Entries {
		item, err := entry.normalize()
		if err != nil {
			p.logger.Warn("dropping malformed feed entry",
				logging.Error(err),
				logging.String(logging.FieldEventType, "feed_entry_dropped"),
				logging.String("entry_id", strings.TrimSpace(entry.ID)),
			)
			continue
		}
		items = append(items, item)
	}

	// The feed usually arrives reverse-chronological but does not guarantee
	// it; downstream ordering logic depends on newest-first.
	sort.Slice(items, func(i, j int) bool {
		if !items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].PublishedAt.After(items[j].PublishedAt)
		}
		return items[i].ID > items[j].ID
	})

	return items, nil
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string     `xml:"id"`
	VideoID   string     `xml:"http://www.youtube.com/xml/schemas/2015 videoId"`
	Title     string     `xml:"title"`
	Published string     `xml:"published"`
	Links     []atomLink `xml:"link"`
	Author    struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

type atomLink struct {
	Rel  string `xml:"rel,attr"`
	Href string `xml:"href,attr"`
}

const videoIDPrefix = "yt:video:"

func (e atomEntry) normalize() (Item, error) {
	id := strings.TrimSpace(e.VideoID)
	if id == "" {
		// Older feed variants omit yt:videoId; the Atom id carries it.
		if raw := strings.TrimSpace(e.ID); strings.HasPrefix(raw, videoIDPrefix) {
			id = strings.TrimPrefix(raw, videoIDPrefix)
		}
	}
	if id == "" {
		return Item{}, errors.New("entry missing video id")
	}

	url := ""
	for _, link := range e.Links {
		if link.Rel == "" || link.Rel == "alternate" {
			url = strings.TrimSpace(link.Href)
			break
		}
	}
	if url == "" {
		return Item{}, fmt.Errorf("entry %s missing alternate link", id)
	}

	published, err := parsePublished(e.Published)
	if err != nil {
		return Item{}, fmt.Errorf("entry %s: %w", id, err)
	}

	return Item{
		ID:          id,
		Title:       strings.TrimSpace(e.Title),
		Author:      strings.TrimSpace(e.Author.Name),
		PublishedAt: published,
		SourceURL:   url,
	}, nil
}

func parsePublished(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("missing published timestamp")
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse published timestamp %q: %w", value, err)
	}
	return ts.UTC(), nil
}
