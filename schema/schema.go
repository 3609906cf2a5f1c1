package schema

import (
	"encoding/hex"
	"errors"
	"fmt"
	"go/token"
	"strings"

	"github.com/sghaida/envreg/envreg"
)

// File is a parsed, not yet validated schema document.
type File struct {
	// Package is the Go package of the generated registry. The generator may override it.
	Package string       `json:"package" yaml:"package"`
	Modules []ModuleDecl `json:"modules" yaml:"modules"`
}

// ModuleDecl declares one Module.
type ModuleDecl struct {
	Name         string            `json:"name" yaml:"name"`
	Alias        string            `json:"alias" yaml:"alias"`
	Environments []EnvironmentDecl `json:"environments" yaml:"environments"`
}

// EnvironmentDecl declares one Environment of a Module.
type EnvironmentDecl struct {
	Name    string `json:"name" yaml:"name"`
	Value   string `json:"value" yaml:"value"`
	Alias   string `json:"alias" yaml:"alias"`
	Release bool   `json:"release" yaml:"release"`
}

// ErrInvalidPackage is returned when the declared package is not a Go identifier.
var ErrInvalidPackage = errors.New("schema: invalid package name")

// Graph is the validated, immutable descriptor graph.
type Graph struct {
	pkg     string
	modules []*envreg.Module
	source  string
	digest  [32]byte
}

// Package returns the declared Go package, possibly empty.
func (g *Graph) Package() string { return g.pkg }

// Modules returns the Modules in declaration order.
func (g *Graph) Modules() []*envreg.Module {
	out := make([]*envreg.Module, len(g.modules))
	copy(out, g.modules)
	return out
}

// Source returns the path the graph was loaded from, if any.
func (g *Graph) Source() string { return g.source }

// Digest returns the hex BLAKE3 digest of the raw schema bytes, or "" for
// graphs built with Collect.
func (g *Graph) Digest() string {
	if g.digest == [32]byte{} {
		return ""
	}
	return hex.EncodeToString(g.digest[:])
}

// Collect validates f and builds its Graph. All violations across all Modules
// are reported in one joined error.
func Collect(f *File) (*Graph, error) {
	if f == nil {
		return nil, errors.New("schema: nil file")
	}

	var errs []error
	if pkg := strings.TrimSpace(f.Package); pkg != "" && !token.IsIdentifier(pkg) {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidPackage, pkg))
	}

	g := &Graph{pkg: strings.TrimSpace(f.Package)}
	seen := make(map[string]struct{}, len(f.Modules))

	for _, decl := range f.Modules {
		if _, dup := seen[decl.Name]; dup {
			errs = append(errs, &envreg.SchemaError{Module: decl.Name, Err: envreg.ErrDuplicateModuleName})
			continue
		}
		seen[decl.Name] = struct{}{}

		specs := make([]envreg.EnvSpec, 0, len(decl.Environments))
		for _, e := range decl.Environments {
			specs = append(specs, envreg.EnvSpec{Name: e.Name, Value: e.Value, Alias: e.Alias, Release: e.Release})
		}

		m, err := envreg.NewModule(decl.Name, decl.Alias, specs...)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		g.modules = append(g.modules, m)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}
