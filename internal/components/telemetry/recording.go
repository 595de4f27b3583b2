package telemetry

import (
	"strings"
	"sync"
)

type ReportKind int

const (
	KindBroken ReportKind = iota
	KindWarning
	KindDebug
	KindCount
)

type Report struct {
	Kind   ReportKind
	ID     string
	Params []any
	Count  int64
}

// RecordingAPI keeps every report in memory so tests can assert on what a
// component logged. It is safe for concurrent use.
type RecordingAPI struct {
	mu      *sync.Mutex
	reports *[]Report
}

func NewRecordingAPI() RecordingAPI {
	return RecordingAPI{
		mu:      &sync.Mutex{},
		reports: &[]Report{},
	}
}

func (r RecordingAPI) record(report Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.reports = append(*r.reports, report)
}

func (r RecordingAPI) ReportBroken(id string, params ...any) {
	r.record(Report{Kind: KindBroken, ID: id, Params: params})
}

func (r RecordingAPI) ReportWarning(id string, params ...any) {
	r.record(Report{Kind: KindWarning, ID: id, Params: params})
}

func (r RecordingAPI) ReportDebug(msg string, params ...any) {
	r.record(Report{Kind: KindDebug, ID: msg, Params: params})
}

func (r RecordingAPI) ReportCount(id string, count int64) {
	r.record(Report{Kind: KindCount, ID: id, Count: count})
}

// Reports returns a copy of the reports of the given kind.
func (r RecordingAPI) Reports(kind ReportKind) []Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Report
	for _, report := range *r.reports {
		if report.Kind == kind {
			out = append(out, report)
		}
	}
	return out
}

// Find returns the reports of the given kind whose id ends with suffix, scoped
// ids ("pipeline: fetch-listing") can be matched by their unscoped part.
func (r RecordingAPI) Find(kind ReportKind, suffix string) []Report {
	var out []Report
	for _, report := range r.Reports(kind) {
		if strings.HasSuffix(report.ID, suffix) {
			out = append(out, report)
		}
	}
	return out
}
