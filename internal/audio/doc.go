// Package audio classifies candidate source files: container kind by
// extension, then sample format from the file's own header (RIFF/WAVE fmt
// chunk or CAF desc chunk).
//
// Classification never fails. A file whose header cannot be read, or whose
// format is outside the supported set, is reported with an unknown
// [SampleFormat] and a note explaining why; the batch runner turns that into
// a scan-time exclusion rather than an error.
package audio
