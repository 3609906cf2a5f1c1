package envreg

import (
	"errors"
	"regexp"
)

var namePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// ValidName reports whether name can be used for a declared Module or Environment.
// Declared names end up as Go identifiers and as storage file names.
func ValidName(name string) bool { return namePattern.MatchString(name) }

// EnvSpec is the declaration of one Environment, used to build a Module.
type EnvSpec struct {
	Name    string
	Value   string
	Alias   string
	Release bool
}

// Release declares the release Environment of a Module.
func Release(name, value, alias string) EnvSpec {
	return EnvSpec{Name: name, Value: value, Alias: alias, Release: true}
}

// Env declares a non-release Environment of a Module.
func Env(name, value, alias string) EnvSpec {
	return EnvSpec{Name: name, Value: value, Alias: alias}
}

// Module is an immutable configuration domain with its declared Environments.
// The release Environment is always at position 0.
type Module struct {
	name  string
	alias string
	envs  []*Environment
}

// NewModule validates the declarations and builds a Module.
//
// It fails with ErrMissingReleaseEnvironment, ErrMultipleReleaseEnvironments,
// ErrDuplicateEnvironmentName, ErrInvalidName or ErrEmptyModule, each wrapped in
// a *SchemaError. All violations are reported together.
func NewModule(name, alias string, specs ...EnvSpec) (*Module, error) {
	var errs []error
	if !ValidName(name) {
		errs = append(errs, schemaErr(name, "", ErrInvalidName))
	}
	if len(specs) == 0 {
		errs = append(errs,
			schemaErr(name, "", ErrEmptyModule),
			schemaErr(name, "", ErrMissingReleaseEnvironment),
		)
		return nil, errors.Join(errs...)
	}

	m := &Module{name: name, alias: alias, envs: make([]*Environment, 0, len(specs))}

	seen := make(map[string]struct{}, len(specs))
	var release *Environment
	releases := 0
	rest := make([]*Environment, 0, len(specs))

	for _, s := range specs {
		if !ValidName(s.Name) {
			errs = append(errs, schemaErr(name, s.Name, ErrInvalidName))
		}
		if _, dup := seen[s.Name]; dup {
			errs = append(errs, schemaErr(name, s.Name, ErrDuplicateEnvironmentName))
			continue
		}
		seen[s.Name] = struct{}{}

		env := &Environment{name: s.Name, value: s.Value, alias: s.Alias, release: s.Release, module: m}
		if s.Release {
			releases++
			if release == nil {
				release = env
				continue
			}
		}
		rest = append(rest, env)
	}

	switch {
	case releases == 0:
		errs = append(errs, schemaErr(name, "", ErrMissingReleaseEnvironment))
	case releases > 1:
		errs = append(errs, schemaErr(name, "", ErrMultipleReleaseEnvironments))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	m.envs = append(m.envs, release)
	m.envs = append(m.envs, rest...)
	return m, nil
}

// MustModule is NewModule that panics on invalid declarations.
// Generated registries use it; their schema was validated at generation time.
func MustModule(name, alias string, specs ...EnvSpec) *Module {
	m, err := NewModule(name, alias, specs...)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *Module) Name() string { return m.name }
func (m *Module) Alias() string { return m.alias }

// Release returns the compiled-in default Environment.
func (m *Module) Release() *Environment { return m.envs[0] }

// Environments returns the declared Environments, release first.
func (m *Module) Environments() []*Environment {
	out := make([]*Environment, len(m.envs))
	copy(out, m.envs)
	return out
}

// Lookup returns the declared Environment with the given name.
func (m *Module) Lookup(name string) (*Environment, bool) {
	for _, env := range m.envs {
		if env.name == name {
			return env, true
		}
	}
	return nil, false
}

// Declares reports whether env is value-equal to one of the declared Environments.
func (m *Module) Declares(env *Environment) bool {
	return m.declared(env) != nil
}

// declared returns the declared instance equal to env, or nil.
func (m *Module) declared(env *Environment) *Environment {
	for _, d := range m.envs {
		if d.Equal(env) {
			return d
		}
	}
	return nil
}

func (m *Module) String() string { return m.name }

// Environment is one concrete value set of a Module.
type Environment struct {
	name    string
	value   string
	alias   string
	release bool
	module  *Module
}

// NewEnvironment builds an override Environment for m that is not part of the
// declared set, for example a custom URL typed in by an operator.
func NewEnvironment(m *Module, name, value, alias string) *Environment {
	return &Environment{name: name, value: value, alias: alias, module: m}
}

func (e *Environment) Name() string { return e.name }
func (e *Environment) Value() string { return e.value }
func (e *Environment) Alias() string { return e.alias }
func (e *Environment) IsRelease() bool { return e.release }
func (e *Environment) Module() *Module { return e.module }

func (e *Environment) String() string {
	if e.module == nil {
		return e.name
	}
	return e.module.name + "/" + e.name
}

// Equal compares name, value and alias. The release flag and owning Module are
// not part of the comparison.
func (e *Environment) Equal(other *Environment) bool {
	if e == nil || other == nil {
		return e == other
	}
	return e.name == other.name && e.value == other.value && e.alias == other.alias
}
