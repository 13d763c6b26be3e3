// Package ffmpeg is the encoder adapter: it builds the ffmpeg command for a
// conversion job, runs it with stderr captured, classifies failures, and
// commits the result to its destination without ever exposing a partially
// written file.
package ffmpeg
