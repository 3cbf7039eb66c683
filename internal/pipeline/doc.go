// Package pipeline decides which feed items are new and shepherds each
// one through fetch, delivery, and state commit.
//
// The controller processes items strictly one at a time, oldest first,
// and advances the persisted delivery boundary only after the transport
// confirms the send. Failures are isolated per item: a failed fetch or
// delivery skips the item without committing, so the next poll picks it
// up again.
package pipeline
