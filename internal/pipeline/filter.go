package pipeline

import (
	"sort"

	"github.com/tarpagad/yt2tg/internal/feed"
	"github.com/tarpagad/yt2tg/internal/state"
)

// SelectNew returns the undelivered candidates ordered oldest-first so
// delivery preserves chronological order. Identical publish timestamps
// fall back to id-ascending order. When no state has been committed yet,
// only the single newest candidate is returned so a first run does not
// flood the channel with the feed's entire backlog.
//
// SelectNew is pure: it never mutates its inputs and the same candidate
// set against an unchanged state always yields the same output.
func SelectNew(candidates []feed.Item, st state.DeliveryState, hasState bool) []feed.Item {
	if len(candidates) == 0 {
		return nil
	}

	if !hasState {
		newest := candidates[0]
		for _, item := range candidates[1:] {
			if item.PublishedAt.After(newest.PublishedAt) {
				newest = item
				continue
			}
			if item.PublishedAt.Equal(newest.PublishedAt) && item.ID > newest.ID {
				newest = item
			}
		}
		return []feed.Item{newest}
	}

	seen := make(map[string]struct{}, len(candidates))
	selected := make([]feed.Item, 0, len(candidates))
	for _, item := range candidates {
		if !item.PublishedAt.After(st.LastSeenPublishedAt) {
			continue
		}
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		selected = append(selected, item)
	}
	if len(selected) == 0 {
		return nil
	}

	sort.SliceStable(selected, func(i, j int) bool {
		if !selected[i].PublishedAt.Equal(selected[j].PublishedAt) {
			return selected[i].PublishedAt.Before(selected[j].PublishedAt)
		}
		return selected[i].ID < selected[j].ID
	})
	return selected
}
