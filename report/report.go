package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"
)

// ErrSealed is returned when recording into a report that has already been printed.
var ErrSealed = errors.New("report is sealed")

type (
	// Entry is the outcome of one scenario.
	Entry struct {
		Name       string        `json:"name"`
		Outcome    Outcome       `json:"outcome"`
		Detail     string        `json:"detail,omitempty"`
		Duration   time.Duration `json:"-"`
		DurationMs int64         `json:"durationMs"`
	}

	// Summary counts outcomes.
	Summary struct {
		Total   int `json:"total"`
		Passed  int `json:"passed"`
		Failed  int `json:"failed"`
		Errored int `json:"errored"`
		Skipped int `json:"skipped"`
	}

	// Report is the ordered record of a run.
	Report struct {
		entries  []*Entry
		index    map[string]int
		aborted  string
		sealed   bool
		progress io.Writer
		mux      sync.RWMutex
	}
)

// Record appends a scenario outcome. A name can be recorded once.
func (r *Report) Record(name string, outcome Outcome, detail string, duration time.Duration) error {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.sealed {
		return ErrSealed
	}
	if _, ok := r.index[name]; ok {
		return fmt.Errorf("scenario %v already recorded", name)
	}
	entry := &Entry{Name: name, Outcome: outcome, Detail: detail, Duration: duration, DurationMs: duration.Milliseconds()}
	r.index[name] = len(r.entries)
	r.entries = append(r.entries, entry)
	if r.progress != nil {
		_, _ = fmt.Fprintln(r.progress, entry.line())
	}
	return nil
}

// Abort marks the run as aborted by a fatal error.
func (r *Report) Abort(err error) {
	r.mux.Lock()
	defer r.mux.Unlock()
	if r.sealed || err == nil || r.aborted != "" {
		return
	}
	r.aborted = err.Error()
}

// Aborted returns the fatal error message, if the run was aborted.
func (r *Report) Aborted() string {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.aborted
}

// Entry returns the outcome recorded for name.
func (r *Report) Entry(name string) (*Entry, bool) {
	r.mux.RLock()
	defer r.mux.RUnlock()
	idx, ok := r.index[name]
	if !ok {
		return nil, false
	}
	ret := *r.entries[idx]
	return &ret, true
}

// Entries returns the recorded outcomes in execution order.
func (r *Report) Entries() []Entry {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ret := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		ret = append(ret, *entry)
	}
	return ret
}

// Summary counts the recorded outcomes.
func (r *Report) Summary() Summary {
	r.mux.RLock()
	defer r.mux.RUnlock()
	ret := Summary{Total: len(r.entries)}
	for _, entry := range r.entries {
		switch entry.Outcome {
		case Pass:
			ret.Passed++
		case Fail:
			ret.Failed++
		case Error:
			ret.Errored++
		case Skip:
			ret.Skipped++
		}
	}
	return ret
}

// ExitCode maps the report to the process exit status.
func (r *Report) ExitCode() int {
	if r.Aborted() != "" {
		return ExitAborted
	}
	summary := r.Summary()
	if summary.Failed+summary.Errored > 0 {
		return ExitFailures
	}
	return ExitOK
}

// Seal makes the report immutable.
func (r *Report) Seal() {
	r.mux.Lock()
	defer r.mux.Unlock()
	r.sealed = true
}

// Sealed reports whether the report is immutable.
func (r *Report) Sealed() bool {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.sealed
}

// Print seals the report and writes the per scenario table followed by the summary line.
func (r *Report) Print(w io.Writer) error {
	r.Seal()
	writer := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, entry := range r.Entries() {
		if _, err := fmt.Fprintf(writer, "%v\t%v\t%v\t%v\n", entry.Outcome.Label(), entry.Name, entry.Duration.Round(time.Millisecond), entry.Detail); err != nil {
			return err
		}
	}
	if err := writer.Flush(); err != nil {
		return err
	}
	if aborted := r.Aborted(); aborted != "" {
		if _, err := fmt.Fprintf(w, "ABORTED: %v\n", aborted); err != nil {
			return err
		}
	}
	summary := r.Summary()
	_, err := fmt.Fprintf(w, "passed %d/%d (failed: %d, errors: %d, skipped: %d)\n",
		summary.Passed, summary.Total-summary.Skipped, summary.Failed, summary.Errored, summary.Skipped)
	return err
}

// PrintJSON seals the report and writes it as a JSON document.
func (r *Report) PrintJSON(w io.Writer) error {
	r.Seal()
	document := struct {
		Scenarios []Entry `json:"scenarios"`
		Summary   Summary `json:"summary"`
		Aborted   string  `json:"aborted,omitempty"`
		ExitCode  int     `json:"exitCode"`
	}{Scenarios: r.Entries(), Summary: r.Summary(), Aborted: r.Aborted(), ExitCode: r.ExitCode()}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(document)
}

func (e *Entry) line() string {
	if e.Detail == "" {
		return fmt.Sprintf("[%v] %v (%v)", e.Outcome.Label(), e.Name, e.Duration.Round(time.Millisecond))
	}
	return fmt.Sprintf("[%v] %v (%v): %v", e.Outcome.Label(), e.Name, e.Duration.Round(time.Millisecond), e.Detail)
}

// Option represents report option
type Option func(r *Report)

// WithProgress writes one line per recorded outcome to w as it is recorded
func WithProgress(w io.Writer) Option {
	return func(r *Report) {
		r.progress = w
	}
}

// New creates an empty report
func New(options ...Option) *Report {
	ret := &Report{index: map[string]int{}}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}
