// Package logging wires log/slog into the pipeline with console and JSON
// handlers, attribute helpers, and standardized field names so every
// component reports failures with the same vocabulary (video id, stage,
// event type, error hint).
package logging
