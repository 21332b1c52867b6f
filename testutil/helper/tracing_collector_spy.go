package helper

import (
	"context"
	"sync"

	"github.com/sniffdb/sql-sniffer-go/sniffer"
)

// TracingCollectorSpy is a TracingCollector implementation that captures spans for testing.
type TracingCollectorSpy struct {
	spans       []*SpySpan
	mu          sync.Mutex
	recordCalls bool
}

// SpySpan represents one span observed by the spy, from start to finish.
type SpySpan struct {
	Name       string
	StartAttrs map[string]string
	Status     string
	Attrs      map[string]string
	Finished   bool
	mu         sync.Mutex
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy.
// Set recordCalls to true to capture all spans for inspection in tests.
func NewTracingCollectorSpy(recordCalls bool) *TracingCollectorSpy {
	return &TracingCollectorSpy{
		spans:       make([]*SpySpan, 0),
		recordCalls: recordCalls,
	}
}

// StartSpan implements the TracingCollector interface.
func (s *TracingCollectorSpy) StartSpan(
	ctx context.Context,
	name string,
	attrs map[string]string,
) (context.Context, sniffer.SpanContext) {
	span := &SpySpan{
		Name:       name,
		StartAttrs: copyLabels(attrs),
		Attrs:      make(map[string]string),
	}

	if s.recordCalls {
		s.mu.Lock()
		s.spans = append(s.spans, span)
		s.mu.Unlock()
	}

	return ctx, span
}

// FinishSpan implements the TracingCollector interface.
func (s *TracingCollectorSpy) FinishSpan(spanCtx sniffer.SpanContext, status string, attrs map[string]string) {
	span, ok := spanCtx.(*SpySpan)
	if !ok {
		return
	}

	span.mu.Lock()
	defer span.mu.Unlock()

	span.Status = status
	for key, value := range attrs {
		span.Attrs[key] = value
	}
	span.Finished = true
}

// SetStatus implements the SpanContext interface.
func (sp *SpySpan) SetStatus(status string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	sp.Status = status
}

// AddAttribute implements the SpanContext interface.
func (sp *SpySpan) AddAttribute(key, value string) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	sp.Attrs[key] = value
}

// GetSpanCount returns the number of captured spans.
func (s *TracingCollectorSpy) GetSpanCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.spans)
}

// Reset clears all captured spans.
func (s *TracingCollectorSpy) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.spans = s.spans[:0]
}

// SpanMatcher provides a fluent interface for checking captured spans.
type SpanMatcher struct {
	found bool
	span  *SpySpan
}

// HasFinishedSpan starts a fluent chain to check a finished span with the given name.
func (s *TracingCollectorSpy) HasFinishedSpan(name string) *SpanMatcher {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, span := range s.spans {
		span.mu.Lock()
		finished := span.Finished
		span.mu.Unlock()

		if span.Name == name && finished {
			return &SpanMatcher{found: true, span: span}
		}
	}

	return &SpanMatcher{found: false}
}

// WithStatus checks if the span finished with the given status.
func (m *SpanMatcher) WithStatus(status string) *SpanMatcher {
	if !m.found {
		return m
	}

	m.span.mu.Lock()
	defer m.span.mu.Unlock()

	if m.span.Status != status {
		m.found = false
	}

	return m
}

// WithStartAttr checks if the span was started with the given attribute.
func (m *SpanMatcher) WithStartAttr(key, value string) *SpanMatcher {
	if !m.found {
		return m
	}

	if attrValue, exists := m.span.StartAttrs[key]; !exists || attrValue != value {
		m.found = false
	}

	return m
}

// WithFinishAttrPresent checks if the span carries the given attribute after finishing,
// without checking its value. Useful for measured attributes like durations.
func (m *SpanMatcher) WithFinishAttrPresent(key string) *SpanMatcher {
	if !m.found {
		return m
	}

	m.span.mu.Lock()
	defer m.span.mu.Unlock()

	if _, exists := m.span.Attrs[key]; !exists {
		m.found = false
	}

	return m
}

// Assert returns true if all conditions in the fluent chain were met.
func (m *SpanMatcher) Assert() bool {
	return m.found
}

// Ensure TracingCollectorSpy implements sniffer.TracingCollector.
var _ sniffer.TracingCollector = (*TracingCollectorSpy)(nil)
