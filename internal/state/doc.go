// Package state persists the delivery boundary: the id and publish time of
// the most recently delivered feed item. Commits are atomic (write-to-temp,
// rename) so a crash mid-write leaves either the old or new value readable,
// and the persisted timestamp is monotonic non-decreasing.
package state
