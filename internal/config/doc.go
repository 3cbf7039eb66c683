// Package config loads, normalizes, and validates yt2tg configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// TELEGRAM_BOT_TOKEN and YOUTUBE_CHANNEL_ID. The Config type centralizes
// every knob the daemon and CLI need, from staging directories to Bot API
// credentials and yt-dlp timeouts.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
