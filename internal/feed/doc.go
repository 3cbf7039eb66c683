// Package feed fetches the monitored YouTube channel's Atom feed and narrows
// its loosely typed entries into strict, immutable items at the boundary:
// entries without a stable id, canonical URL, or parseable timestamp are
// dropped and reported instead of flowing downstream as partial values.
package feed
