// Package ffmpeg drives the ffmpeg and ffprobe binaries for video
// assembly: probing narration duration, compositing stock clips into a
// vertical reel, muxing the narration track, and optionally burning
// subtitles into the frame.
package ffmpeg
