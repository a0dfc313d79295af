// Package report renders validation reports for operators.
//
// Output is deterministic: the same Report always renders to the same bytes
// when color is off.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Aman-CERP/validate/internal/preflight"
	"github.com/Aman-CERP/validate/internal/ui"
)

const (
	// WrapThreshold is the message length above which the remediation moves
	// to a continuation line.
	WrapThreshold = 72
	// continuationIndent aligns a wrapped [FIX] under the message text.
	continuationIndent = "       "

	rule = "===================================="
)

// Renderer formats reports.
type Renderer struct {
	styles ui.Styles
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColor enables terminal styling.
func WithColor(color bool) Option {
	return func(r *Renderer) {
		r.styles = ui.GetStyles(!color)
	}
}

// New creates a Renderer. Without options output is plain text.
func New(opts ...Option) *Renderer {
	r := &Renderer{styles: ui.NoColorStyles()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes the report. A report whose preconditions failed is rendered
// as RenderFatal would.
func (r *Renderer) Render(w io.Writer, rep *preflight.Report) error {
	if rep.Aborted() && rep.Fatal != nil {
		return r.RenderFatal(w, rep.Versions, rep.Fatal)
	}

	var b strings.Builder
	r.writeHeader(&b, rep.Versions)

	if rep.Verbose {
		for _, g := range rep.ByGroup() {
			fmt.Fprintf(&b, "Checking %s: %s\n", g.Name, r.tag(g.Status()))
			for _, res := range g.Results {
				r.writeResult(&b, res.Status(), res.Message(), res.Remediation(), res.List())
			}
		}
	} else {
		for _, res := range rep.Results {
			if res.Status() == preflight.StatusOK {
				continue
			}
			r.writeResult(&b, res.Status(), res.Message(), res.Remediation(), res.List())
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderFatal writes the header followed by the precondition failure.
func (r *Renderer) RenderFatal(w io.Writer, versions preflight.Versions, abort *preflight.Abort) error {
	var b strings.Builder
	r.writeHeader(&b, versions)
	if abort != nil {
		r.writeResult(&b, preflight.StatusFail, abort.Message, abort.Remediation, abort.List)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// RenderEmptyRunHeader writes only the version header. It is the last-resort
// output when a run ends before its report is rendered.
func (r *Renderer) RenderEmptyRunHeader(w io.Writer, versions preflight.Versions) error {
	var b strings.Builder
	r.writeHeader(&b, versions)
	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) writeHeader(b *strings.Builder, versions preflight.Versions) {
	width := len("Component")
	for _, c := range versions {
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}

	row := func(name, version string) {
		line := fmt.Sprintf("%-*s | %s", width, name, version)
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteByte('\n')
	}

	b.WriteString(r.styles.Dim.Render(rule))
	b.WriteByte('\n')
	b.WriteString(r.styles.Header.Render(strings.TrimRight(fmt.Sprintf("%-*s | %s", width, "Component", "Version"), " ")))
	b.WriteByte('\n')
	row(strings.Repeat("-", len("Component")), "-------")
	for _, c := range versions {
		row(c.Name, c.Version)
	}
	b.WriteString(r.styles.Dim.Render(rule))
	b.WriteString("\n\n")
}

func (r *Renderer) writeResult(b *strings.Builder, status preflight.Status, msg, fix string, list []string) {
	b.WriteString(r.tag(status))
	b.WriteString(strings.Repeat(" ", 8-len(statusText(status))))
	b.WriteString(msg)

	if fix != "" {
		if len(msg) > WrapThreshold {
			b.WriteByte('\n')
			b.WriteString(continuationIndent)
		}
		b.WriteString(" ")
		b.WriteString(r.styles.Fix.Render("[FIX]"))
		b.WriteString(" ")
		b.WriteString(r.styles.Fix.Render(fix))
	}
	b.WriteByte('\n')

	for _, item := range list {
		fmt.Fprintf(b, "\t %s\n", item)
	}
}

func (r *Renderer) tag(status preflight.Status) string {
	text := statusText(status)
	switch status {
	case preflight.StatusOK:
		return r.styles.OK.Render(text)
	case preflight.StatusWarn:
		return r.styles.Warn.Render(text)
	default:
		return r.styles.Fail.Render(text)
	}
}

func statusText(status preflight.Status) string {
	return "[" + status.String() + "]"
}

// Render writes rep as plain text.
func Render(w io.Writer, rep *preflight.Report) error {
	return New().Render(w, rep)
}

// RenderFatal writes the abort path as plain text.
func RenderFatal(w io.Writer, versions preflight.Versions, abort *preflight.Abort) error {
	return New().RenderFatal(w, versions, abort)
}

// RenderEmptyRunHeader writes the version header as plain text.
func RenderEmptyRunHeader(w io.Writer, versions preflight.Versions) error {
	return New().RenderEmptyRunHeader(w, versions)
}

// Summary counts results by status.
type Summary struct {
	OK   int `json:"ok"`
	Warn int `json:"warn"`
	Fail int `json:"fail"`
}

// jsonReport is the --json document.
type jsonReport struct {
	State    preflight.State    `json:"state"`
	Versions preflight.Versions `json:"versions"`
	Groups   []string           `json:"groups,omitempty"`
	Fatal    *preflight.Abort   `json:"fatal,omitempty"`
	Results  []preflight.Result `json:"results"`
	Summary  Summary            `json:"summary"`
}

// RenderJSON writes the report as indented JSON.
func RenderJSON(w io.Writer, rep *preflight.Report) error {
	ok, warn, fail := rep.Counts()
	doc := jsonReport{
		State:    rep.State,
		Versions: rep.Versions,
		Groups:   rep.Groups,
		Fatal:    rep.Fatal,
		Results:  rep.Results,
		Summary:  Summary{OK: ok, Warn: warn, Fail: fail},
	}
	if doc.Versions == nil {
		doc.Versions = preflight.Versions{}
	}
	if doc.Results == nil {
		doc.Results = []preflight.Result{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
