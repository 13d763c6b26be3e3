package report

import (
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/metrics"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/pipeline"
)

// MetricsSink feeds run events into Prometheus collectors.
type MetricsSink struct {
	m *metrics.Metrics
}

// NewMetricsSink returns a sink recording into m.
func NewMetricsSink(m *metrics.Metrics) *MetricsSink {
	return &MetricsSink{m: m}
}

// Emit implements pipeline.Sink.
func (s *MetricsSink) Emit(e pipeline.Event) {
	switch e.Type {
	case pipeline.EventTypeState:
		if e.State == pipeline.StateScanning {
			s.m.RecordRunStarted()
		}
	case pipeline.EventTypeNote:
		s.m.RecordExcluded(string(e.Note))
	case pipeline.EventTypeProgress:
		s.m.RecordJob(string(e.Outcome), e.Target, string(e.ErrorKind), e.Elapsed())
	case pipeline.EventTypeSummary:
		if e.Summary != nil {
			s.m.RecordRunFinished(string(e.Summary.State), e.Summary.OutputBytes)
		}
	}
}
