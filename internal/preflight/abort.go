package preflight

import (
	"errors"

	verrors "github.com/Aman-CERP/validate/internal/errors"
)

// Abort is returned by a precondition to stop the run. It is not a FAIL
// result: nothing after it executes.
type Abort struct {
	CheckID     string   `json:"check,omitempty"`
	Message     string   `json:"message"`
	Remediation string   `json:"remediation,omitempty"`
	List        []string `json:"list,omitempty"`
	Cause       error    `json:"-"`
}

// NewAbort creates an abort signal.
func NewAbort(message, remediation string, list ...string) *Abort {
	return &Abort{Message: message, Remediation: remediation, List: list}
}

// Error implements error.
func (a *Abort) Error() string {
	return a.Message
}

// Unwrap returns the underlying cause.
func (a *Abort) Unwrap() error {
	return a.Cause
}

// AbortFrom converts err into an Abort. An *Abort anywhere in the chain is
// returned as is; a coded error contributes its message and suggestion.
func AbortFrom(err error) *Abort {
	if err == nil {
		return nil
	}

	var a *Abort
	if errors.As(err, &a) {
		return a
	}

	if e, ok := verrors.As(err); ok {
		return &Abort{Message: e.Message, Remediation: e.Suggestion, Cause: err}
	}
	return &Abort{Message: err.Error(), Cause: err}
}
