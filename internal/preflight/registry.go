package preflight

import (
	"fmt"
	"slices"
	"strings"

	verrors "github.com/Aman-CERP/validate/internal/errors"
)

// Registry holds checks in registration order, which is also execution order.
type Registry struct {
	checks []Check
	ids    map[string]struct{}
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ids: make(map[string]struct{})}
}

// Register appends a check. Duplicate or empty ids are configuration errors.
func (r *Registry) Register(c Check) error {
	if c == nil {
		return verrors.New(verrors.ErrCodeInvalidInput, "cannot register a nil check", nil)
	}
	id := strings.TrimSpace(c.ID())
	if id == "" {
		return verrors.New(verrors.ErrCodeInvalidInput, "check id must not be empty", nil)
	}
	if _, dup := r.ids[id]; dup {
		return verrors.Newf(verrors.ErrCodeDuplicateCheck, "check %q is already registered", id).
			WithDetail("check_id", id)
	}
	r.ids[id] = struct{}{}
	r.checks = append(r.checks, c)
	return nil
}

// MustRegister is like Register but panics on error.
// It is meant for static registration tables.
func (r *Registry) MustRegister(checks ...Check) {
	for _, c := range checks {
		if err := r.Register(c); err != nil {
			panic(fmt.Sprintf("preflight: %v", err))
		}
	}
}

// Len returns the number of registered checks.
func (r *Registry) Len() int { return len(r.checks) }

// Checks returns all registered checks in order.
func (r *Registry) Checks() []Check {
	return slices.Clone(r.checks)
}

// Selection is the outcome of Select.
type Selection struct {
	// Preconditions are always selected, in registration order.
	Preconditions []Check
	// Standard are the selected main-phase checks, in registration order.
	Standard []Check
	// Unknown lists requested groups that no check belongs to.
	Unknown []string
}

// Select returns the checks to run for the requested groups. Preconditions
// are always included. With no groups every non-optional standard check is
// selected; otherwise a standard check is selected when any of its groups
// was requested. Select does not mutate the registry.
func (r *Registry) Select(groups []string) Selection {
	requested := normalizeGroups(groups)
	known := make(map[string]bool)
	for _, c := range r.checks {
		for _, g := range c.Groups() {
			known[g] = true
		}
	}

	var sel Selection
	for _, g := range requested {
		if !known[g] {
			sel.Unknown = append(sel.Unknown, g)
		}
	}

	for _, c := range r.checks {
		if c.Kind() == KindPrecondition {
			sel.Preconditions = append(sel.Preconditions, c)
			continue
		}
		if matches(c, requested) {
			sel.Standard = append(sel.Standard, c)
		}
	}
	return sel
}

// GroupInfo describes a registered group.
type GroupInfo struct {
	Name string `json:"name"`
	// Default is false when every check in the group is optional.
	Default bool `json:"default"`
	Checks  int  `json:"checks"`
}

// Groups lists known groups in first-seen registration order.
func (r *Registry) Groups() []GroupInfo {
	var out []GroupInfo
	index := make(map[string]int)
	for _, c := range r.checks {
		for _, g := range c.Groups() {
			i, ok := index[g]
			if !ok {
				i = len(out)
				index[g] = i
				out = append(out, GroupInfo{Name: g})
			}
			out[i].Checks++
			if !isOptional(c) {
				out[i].Default = true
			}
		}
	}
	return out
}

// matches reports whether c runs for the normalized group request.
func matches(c Check, requested []string) bool {
	if len(requested) == 0 {
		return !isOptional(c)
	}
	for _, g := range c.Groups() {
		if slices.Contains(requested, g) {
			return true
		}
	}
	return false
}

// normalizeGroups trims, drops empties and de-duplicates, keeping order.
func normalizeGroups(groups []string) []string {
	var out []string
	for _, g := range groups {
		g = strings.TrimSpace(g)
		if g == "" || slices.Contains(out, g) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// ParseGroups splits a comma-separated group list.
func ParseGroups(s string) []string {
	return normalizeGroups(strings.Split(s, ","))
}
