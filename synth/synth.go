// Package synth emits the Go source of a generated registry from a validated
// schema graph.
//
// Emission is pure: the same graph and Options always produce the same bytes.
// For every Module, in declaration order, the output declares the Module
// variable, then one variable per Environment with the release Environment
// first, followed by a Modules list, a Frozen constant and a typed Registry
// wrapper with one *envreg.Selection field per Module.
package synth

import (
	"errors"
	"fmt"
	"go/format"
	"go/token"
	"strings"

	"github.com/sghaida/envreg/envreg"
	"github.com/sghaida/envreg/schema"
)

// DefaultRuntimeImport is the import path of the runtime package used by generated code.
const DefaultRuntimeImport = "github.com/sghaida/envreg/envreg"

// Generator is written into the generated header.
const Generator = "envgen"

var (
	// ErrNoPackage is returned when neither the schema nor Options name a package.
	ErrNoPackage = errors.New("synth: no package name")

	// ErrIdentifierCollision is returned when two declarations map to the same Go identifier.
	ErrIdentifierCollision = errors.New("synth: identifier collision")
)

// reserved identifiers are declared by the template or promoted from *envreg.Registry.
var reserved = []string{
	"Frozen", "Modules", "Registry", "NewRegistry",
	"Selection", "Lookup", "IsRelease", "Store", "Reset",
	"AddListener", "RemoveListener", "ClearListeners",
}

// Options controls emission.
type Options struct {
	// Package overrides the package declared by the schema.
	Package string

	// RuntimeImport overrides DefaultRuntimeImport.
	RuntimeImport string

	// Frozen emits a release variant whose registry ignores persisted overrides.
	Frozen bool

	// SourcePath is recorded in the header. Defaults to the graph source.
	SourcePath string
}

type envData struct {
	Ident   string
	Name    string
	Value   string
	Alias   string
	Release bool
}

type moduleData struct {
	Ident string
	Name  string
	Alias string
	Envs  []envData
}

type templateData struct {
	Generator     string
	Source        string
	Digest        string
	Package       string
	RuntimeImport string
	Frozen        bool
	Modules       []moduleData
}

// Generate renders the registry source for g.
func Generate(g *schema.Graph, opts Options) ([]byte, error) {
	if g == nil {
		return nil, errors.New("synth: nil graph")
	}

	pkg := strings.TrimSpace(opts.Package)
	if pkg == "" {
		pkg = g.Package()
	}
	if pkg == "" {
		return nil, ErrNoPackage
	}
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("%w: %q", schema.ErrInvalidPackage, pkg)
	}

	runtimeImport := strings.TrimSpace(opts.RuntimeImport)
	if runtimeImport == "" {
		runtimeImport = DefaultRuntimeImport
	}

	source := opts.SourcePath
	if source == "" {
		source = g.Source()
	}

	modules, err := buildModules(g.Modules())
	if err != nil {
		return nil, err
	}

	data := templateData{
		Generator:     Generator,
		Source:        source,
		Digest:        g.Digest(),
		Package:       pkg,
		RuntimeImport: runtimeImport,
		Frozen:        opts.Frozen,
		Modules:       modules,
	}

	var out strings.Builder
	if err := registryTpl.Execute(&out, data); err != nil {
		return nil, fmt.Errorf("synth: executing template: %w", err)
	}

	src, err := format.Source([]byte(out.String()))
	if err != nil {
		return nil, fmt.Errorf("synth: formatting output: %w", err)
	}
	return src, nil
}

// buildModules maps descriptors to template data and rejects identifier collisions.
func buildModules(mods []*envreg.Module) ([]moduleData, error) {
	owners := make(map[string]string, len(reserved))
	for _, r := range reserved {
		owners[r] = "generated declaration"
	}

	var errs []error
	claim := func(ident, owner string) {
		if prev, taken := owners[ident]; taken {
			errs = append(errs, fmt.Errorf("%w: %s and %s both map to %s", ErrIdentifierCollision, prev, owner, ident))
			return
		}
		owners[ident] = owner
	}

	out := make([]moduleData, 0, len(mods))
	for _, m := range mods {
		md := moduleData{
			Ident: exportName(m.Name()),
			Name:  m.Name(),
			Alias: m.Alias(),
		}
		claim(md.Ident, "module "+m.Name())

		// Environments() is release first; emission keeps that order.
		for _, e := range m.Environments() {
			ed := envData{
				Ident:   md.Ident + exportName(e.Name()),
				Name:    e.Name(),
				Value:   e.Value(),
				Alias:   e.Alias(),
				Release: e.IsRelease(),
			}
			claim(ed.Ident, "environment "+m.Name()+"/"+e.Name())
			md.Envs = append(md.Envs, ed)
		}
		out = append(out, md)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// exportName upper-cases the first letter: debug -> Debug.
func exportName(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// oneLine collapses whitespace so free text is safe inside a line comment.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
