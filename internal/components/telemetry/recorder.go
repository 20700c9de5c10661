package telemetry

import (
	"fmt"
	"strings"
	"sync"
)

// Report is a single report captured by a Recorder.
type Report struct {
	Level  string
	ID     string
	Params []any
	Count  int64
}

// Recorder is an API that keeps every report in memory, it is used by tests
// to assert that components report what they should.
type Recorder struct {
	lock    sync.Mutex
	reports []Report
}

func (r *Recorder) add(report Report) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.reports = append(r.reports, report)
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add(Report{Level: "broken", ID: id, Params: params})
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add(Report{Level: "warning", ID: id, Params: params})
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add(Report{Level: "debug", ID: msg, Params: params})
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add(Report{Level: "count", ID: id, Count: count})
}

// Reports returns a copy of every report with the given level, an empty level
// returns all of them.
func (r *Recorder) Reports(level string) []Report {
	r.lock.Lock()
	defer r.lock.Unlock()

	var out []Report
	for _, report := range r.reports {
		if level == "" || report.Level == level {
			out = append(out, report)
		}
	}
	return out
}

// Broken returns the ids of every ReportBroken call, useful for quick assertions.
func (r *Recorder) Broken() []string {
	var ids []string
	for _, report := range r.Reports("broken") {
		ids = append(ids, report.ID)
	}
	return ids
}

func (r Report) String() string {
	params := make([]string, len(r.Params))
	for i, p := range r.Params {
		params[i] = fmt.Sprint(p)
	}
	return fmt.Sprintf("[%s] %s %s", r.Level, r.ID, strings.Join(params, " "))
}
