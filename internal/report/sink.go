package report

import (
	"sync"

	"github.com/mabhi256/inthunter/internal/finding"
)

// Sink receives findings as a scan produces them. Implementations must be
// safe for concurrent use.
type Sink interface {
	Accept(f finding.Finding)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(f finding.Finding)

func (fn SinkFunc) Accept(f finding.Finding) { fn(f) }

// Aggregator collects findings in memory until the scan is done.
type Aggregator struct {
	mu       sync.Mutex
	findings []finding.Finding
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

func (a *Aggregator) Accept(f finding.Finding) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.findings = append(a.findings, f)
}

func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.findings)
}

// Findings returns a copy in arrival order.
func (a *Aggregator) Findings() []finding.Finding {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]finding.Finding, len(a.findings))
	copy(out, a.findings)
	return out
}

// Records returns the report rows sorted by class name.
func (a *Aggregator) Records() []finding.Record {
	records := finding.Records(a.Findings())
	finding.SortRecords(records)
	return records
}

// Reset drops everything collected so far.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.findings = nil
}
