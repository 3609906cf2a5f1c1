package schema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/tidwall/jsonc"
	"github.com/zclconf/go-cty/cty"
	"github.com/zeebo/blake3"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for schema files with an unknown extension.
var ErrUnsupportedFormat = errors.New("schema: unsupported format")

// LoadOption configures parsing.
type LoadOption func(*loadOptions)

type loadOptions struct {
	vars map[string]string
}

// WithVariables makes vars available to HCL schemas as var.<name>.
// JSON and YAML schemas ignore them.
func WithVariables(vars map[string]string) LoadOption {
	return func(o *loadOptions) {
		for k, v := range vars {
			o.vars[k] = v
		}
	}
}

// Load reads, parses and validates the schema at path.
func Load(path string, opts ...LoadOption) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	f, err := Parse(data, path, opts...)
	if err != nil {
		return nil, err
	}

	g, err := Collect(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	g.source = path
	g.digest = blake3.Sum256(data)
	return g, nil
}

// Parse decodes data according to filename's extension.
func Parse(data []byte, filename string, opts ...LoadOption) (*File, error) {
	o := loadOptions{vars: map[string]string{}}
	for _, opt := range opts {
		opt(&o)
	}

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".json", ".jsonc":
		return parseJSON(data, filename)
	case ".yaml", ".yml":
		return parseYAML(data, filename)
	case ".hcl":
		return parseHCL(data, filename, o.vars)
	default:
		return nil, fmt.Errorf("%w: %q (%s)", ErrUnsupportedFormat, ext, filename)
	}
}

func parseJSON(data []byte, filename string) (*File, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return &f, nil
}

func parseYAML(data []byte, filename string) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filename, err)
	}
	return &f, nil
}

// hclFile is the HCL shape of a schema; modules and environments are labeled blocks.
type hclFile struct {
	Package string       `hcl:"package,optional"`
	Modules []*hclModule `hcl:"module,block"`
}

type hclModule struct {
	Name         string            `hcl:"name,label"`
	Alias        string            `hcl:"alias,optional"`
	Environments []*hclEnvironment `hcl:"environment,block"`
}

type hclEnvironment struct {
	Name    string `hcl:"name,label"`
	Value   string `hcl:"value"`
	Alias   string `hcl:"alias,optional"`
	Release bool   `hcl:"release,optional"`
}

func parseHCL(data []byte, filename string, vars map[string]string) (*File, error) {
	parser := hclparse.NewParser()
	parsed, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %w", filename, diags)
	}

	var raw hclFile
	if diags := gohcl.DecodeBody(parsed.Body, evalContext(vars), &raw); diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %w", filename, diags)
	}

	f := &File{Package: raw.Package, Modules: make([]ModuleDecl, 0, len(raw.Modules))}
	for _, m := range raw.Modules {
		decl := ModuleDecl{Name: m.Name, Alias: m.Alias, Environments: make([]EnvironmentDecl, 0, len(m.Environments))}
		for _, e := range m.Environments {
			decl.Environments = append(decl.Environments, EnvironmentDecl{
				Name:    e.Name,
				Value:   e.Value,
				Alias:   e.Alias,
				Release: e.Release,
			})
		}
		f.Modules = append(f.Modules, decl)
	}
	return f, nil
}

func evalContext(vars map[string]string) *hcl.EvalContext {
	values := make(map[string]cty.Value, len(vars))
	for k, v := range vars {
		values[k] = cty.StringVal(v)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(values)},
	}
}
