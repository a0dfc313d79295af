package preflight

// State is the lifecycle of a single run.
type State int

const (
	StateNotStarted State = iota
	StatePreconditionsRunning
	StatePreconditionsFailed
	StateMainRunning
	StateCompleted
)

// String returns the string representation of a State.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StatePreconditionsRunning:
		return "preconditions-running"
	case StatePreconditionsFailed:
		return "preconditions-failed"
	case StateMainRunning:
		return "main-running"
	case StateCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// SelectionGroup is the group of results describing the selection itself.
const SelectionGroup = "selection"

// Report is the outcome of one run.
type Report struct {
	State    State    `json:"state"`
	Versions Versions `json:"versions"`
	// Fatal is set when a precondition aborted the run.
	Fatal *Abort `json:"fatal,omitempty"`
	// Results are in execution order.
	Results []Result `json:"results"`
	// Groups are the groups that were requested, empty for a full run.
	Groups  []string `json:"groups,omitempty"`
	Verbose bool     `json:"-"`
}

// Aborted reports whether a precondition stopped the run.
func (r *Report) Aborted() bool {
	return r.State == StatePreconditionsFailed
}

// Counts returns the number of results per status.
func (r *Report) Counts() (ok, warn, fail int) {
	for _, res := range r.Results {
		switch res.Status() {
		case StatusOK:
			ok++
		case StatusWarn:
			warn++
		case StatusFail:
			fail++
		}
	}
	return ok, warn, fail
}

// HasFailures reports whether any result failed.
func (r *Report) HasFailures() bool {
	_, _, fail := r.Counts()
	return fail > 0
}

// ByGroup returns the results grouped in first-seen order.
func (r *Report) ByGroup() []GroupResults {
	var out []GroupResults
	index := make(map[string]int)
	for _, res := range r.Results {
		i, ok := index[res.Group()]
		if !ok {
			i = len(out)
			index[res.Group()] = i
			out = append(out, GroupResults{Name: res.Group()})
		}
		out[i].Results = append(out[i].Results, res)
	}
	return out
}

// GroupResults are the results of one group.
type GroupResults struct {
	Name    string
	Results []Result
}

// Status returns the worst status in the group.
func (g GroupResults) Status() Status {
	worst := StatusOK
	for _, r := range g.Results {
		if r.Status() > worst {
			worst = r.Status()
		}
	}
	return worst
}
