package preflight

import "encoding/json"

// Status is the outcome severity of a single Result.
type Status int

const (
	// StatusOK indicates the check passed.
	StatusOK Status = iota
	// StatusWarn indicates a non-critical problem.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Result is a single finding produced by a check. It is immutable once built.
type Result struct {
	status      Status
	message     string
	remediation string
	group       string
	checkID     string
	list        []string
}

// OK returns a passing Result. OK results never carry remediation.
func OK(group, message string) Result {
	return Result{status: StatusOK, group: group, message: message}
}

// Warn returns a warning Result with an optional remediation.
func Warn(group, message, remediation string) Result {
	return Result{status: StatusWarn, group: group, message: message, remediation: remediation}
}

// Fail returns a failing Result with an optional remediation.
func Fail(group, message, remediation string) Result {
	return Result{status: StatusFail, group: group, message: message, remediation: remediation}
}

// Status returns the result severity.
func (r Result) Status() Status { return r.status }

// Message returns the human-readable message.
func (r Result) Message() string { return r.message }

// Remediation returns the suggested fix, empty if none is known.
func (r Result) Remediation() string { return r.remediation }

// Group returns the group the result belongs to.
func (r Result) Group() string { return r.group }

// CheckID returns the id of the check that produced the result.
// It is set by the engine.
func (r Result) CheckID() string { return r.checkID }

// List returns the detail items attached to the result.
func (r Result) List() []string {
	if len(r.list) == 0 {
		return nil
	}
	out := make([]string, len(r.list))
	copy(out, r.list)
	return out
}

// WithList returns a copy of r carrying the given detail items,
// e.g. the names of missing dependencies.
func (r Result) WithList(items ...string) Result {
	r.list = append([]string(nil), items...)
	return r
}

// attribute stamps the producing check on the result, filling in the group
// when the check left it empty.
func (r Result) attribute(checkID, group string) Result {
	r.checkID = checkID
	if r.group == "" {
		r.group = group
	}
	return r
}

// resultJSON is the wire form of a Result.
type resultJSON struct {
	Status      Status   `json:"status"`
	Group       string   `json:"group"`
	Check       string   `json:"check,omitempty"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation,omitempty"`
	List        []string `json:"list,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Status:      r.status,
		Group:       r.group,
		Check:       r.checkID,
		Message:     r.message,
		Remediation: r.remediation,
		List:        r.list,
	})
}
