// Package ytdlp wraps the yt-dlp CLI for downloading and transcoding a
// single video's audio into a per-job working directory. Each invocation
// runs in its own process group with a hard timeout so a hung tool can be
// killed without orphaning its ffmpeg children.
package ytdlp
