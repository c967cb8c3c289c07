// Package buildroot locates the build output tree a test run should use.
package buildroot

import "os"

const (
	// DefaultEnvVar overrides the computed build root when set.
	DefaultEnvVar = "BUILDTOP"

	// DefaultSuffix is appended to the caller's base path otherwise.
	DefaultSuffix = "build/debug"
)

// Resolver computes a build root from an environment override or a base
// path. The zero value behaves like Find.
type Resolver struct {
	// EnvVar names the override variable; DefaultEnvVar when empty.
	EnvVar string

	// Suffix is joined to the base path; DefaultSuffix when empty.
	Suffix string

	// LookupEnv defaults to os.LookupEnv.
	LookupEnv func(string) (string, bool)
}

// Resolve returns the override variable's value if it is set, even to the
// empty string, and path + "/" + suffix otherwise. The path is not cleaned.
func (r Resolver) Resolve(path string) string {
	envVar := r.EnvVar
	if envVar == "" {
		envVar = DefaultEnvVar
	}
	lookup := r.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}

	if v, ok := lookup(envVar); ok {
		return v
	}

	suffix := r.Suffix
	if suffix == "" {
		suffix = DefaultSuffix
	}
	return path + "/" + suffix
}

// Find resolves with $BUILDTOP and the build/debug suffix.
func Find(path string) string {
	return Resolver{}.Resolve(path)
}
