// Package probe runs ffprobe against a single audio file and maps the first
// audio stream onto an [audio.SampleFormat]. The classifier uses it as a
// fallback for headers its own readers cannot decode (RF64 variants with
// unusual layouts, WAV files written by broken tools).
package probe
