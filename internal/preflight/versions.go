package preflight

import "context"

// Component is one row of the version header.
type Component struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Versions is the ordered version header of a report.
type Versions []Component

// Get returns the version of the named component, or "".
func (v Versions) Get(name string) string {
	for _, c := range v {
		if c.Name == name {
			return c.Version
		}
	}
	return ""
}

// VersionSource reports the versions of the application and its collaborators.
// It is consulted once the precondition phase has finished, so data store
// versions are available when the store connected.
type VersionSource interface {
	Versions(ctx context.Context, env *Env) Versions
}

// VersionFunc adapts a function into a VersionSource.
type VersionFunc func(ctx context.Context, env *Env) Versions

// Versions implements VersionSource.
func (f VersionFunc) Versions(ctx context.Context, env *Env) Versions {
	return f(ctx, env)
}
