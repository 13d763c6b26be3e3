// Package report turns runner events into console log lines, a terminal
// progress bar and Prometheus metrics. Every reporter is a pipeline.Sink.
package report
