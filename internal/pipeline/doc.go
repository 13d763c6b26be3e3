// Package pipeline runs a conversion batch: it discovers source files,
// classifies and plans them, executes the jobs one at a time through an
// encoder, and reports state changes, scan notes, per-job progress and the
// final summary as events.
//
// A [Runner] moves through idle, scanning, converting and then completed or
// cancelled. Cancellation is a flag polled between jobs; a job in flight
// always finishes.
package pipeline
