package feed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tarpagad/yt2tg/internal/feed"
	"github.com/tarpagad/yt2tg/internal/logging"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns="http://www.w3.org/2005/Atom">
  <title>Example Channel</title>
  <entry>
    <id>yt:video:aaa111</id>
    <yt:videoId>aaa111</yt:videoId>
    <title>Older Video</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=aaa111"/>
    <author><name>Example</name></author>
    <published>2024-03-01T10:00:00+00:00</published>
  </entry>
  <entry>
    <id>yt:video:bbb222</id>
    <yt:videoId>bbb222</yt:videoId>
    <title>Newer Video</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=bbb222"/>
    <author><name>Example</name></author>
    <published>2024-03-02T10:00:00+00:00</published>
  </entry>
  <entry>
    <id>yt:video:ccc333</id>
    <yt:videoId>ccc333</yt:videoId>
    <title>Broken Timestamp</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=ccc333"/>
    <published>not-a-date</published>
  </entry>
</feed>`

func newTestServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPollParsesAndSortsNewestFirst(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, sampleFeed)
	poller := feed.NewPoller(srv.URL, time.Second, srv.Client(), logging.NewNop())

	items, err := poller.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected malformed entry dropped, got %d items", len(items))
	}
	if items[0].ID != "bbb222" || items[1].ID != "aaa111" {
		t.Fatalf("expected newest-first ordering, got %q then %q", items[0].ID, items[1].ID)
	}
	if items[0].Title != "Newer Video" || items[0].Author != "Example" {
		t.Fatalf("unexpected metadata: %+v", items[0])
	}
	if items[0].SourceURL != "https://www.youtube.com/watch?v=bbb222" {
		t.Fatalf("unexpected source URL %q", items[0].SourceURL)
	}
	if !items[0].PublishedAt.Equal(time.Date(2024, 3, 2, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected published time %v", items[0].PublishedAt)
	}
}

func TestPollMapsHTTPFailureToFeedUnavailable(t *testing.T) {
	srv := newTestServer(t, http.StatusServiceUnavailable, "")
	poller := feed.NewPoller(srv.URL, time.Second, srv.Client(), logging.NewNop())

	_, err := poller.Poll(context.Background())
	if !errors.Is(err, feed.ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable, got %v", err)
	}
}

func TestPollMapsParseFailureToFeedUnavailable(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "<not-xml")
	poller := feed.NewPoller(srv.URL, time.Second, srv.Client(), logging.NewNop())

	_, err := poller.Poll(context.Background())
	if !errors.Is(err, feed.ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable, got %v", err)
	}
}

func TestPollFallsBackToAtomID(t *testing.T) {
	const legacyFeed = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>yt:video:ddd444</id>
    <title>Legacy Entry</title>
    <link rel="alternate" href="https://www.youtube.com/watch?v=ddd444"/>
    <published>2024-03-03T08:00:00Z</published>
  </entry>
</feed>`
	srv := newTestServer(t, http.StatusOK, legacyFeed)
	poller := feed.NewPoller(srv.URL, time.Second, srv.Client(), logging.NewNop())

	items, err := poller.Poll(context.Background())
	if err != nil {
		t.Fatalf("Poll failed: %v", err)
	}
	if len(items) != 1 || items[0].ID != "ddd444" {
		t.Fatalf("expected video id derived from atom id, got %+v", items)
	}
}
