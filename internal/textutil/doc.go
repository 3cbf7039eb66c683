// Package textutil sanitizes feed-supplied text for filesystem and
// transport-metadata use: filename-unsafe characters, control characters,
// and over-length titles are normalized before they reach yt-dlp output
// templates or the Bot API.
package textutil
