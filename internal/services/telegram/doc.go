// Package telegram uploads delivery artifacts to a channel through the Bot
// API sendAudio endpoint. Failures are classified into a typed reason enum;
// only rate limiting is retried, with bounded exponential backoff that
// honours the server-supplied retry_after hint.
package telegram
