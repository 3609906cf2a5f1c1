package synth

import "text/template"

// -------------------------
// Templates
// -------------------------

var registryTpl = template.Must(
	template.New("registry").
		Funcs(template.FuncMap{
			"oneLine": oneLine,
		}).
		Parse(`// Code generated by {{.Generator}}; DO NOT EDIT.
{{- if .Source }}
// Schema: {{ oneLine .Source }}
{{- end }}
{{- if .Digest }}
// Schema-BLAKE3: {{.Digest}}
{{- end }}

package {{.Package}}

import (
	envreg "{{.RuntimeImport}}"
)

// Frozen reports whether this registry was generated as a release build.
// A frozen registry always resolves to release environments and never
// persists overrides.
const Frozen = {{.Frozen}}

{{- range .Modules }}
{{- $m := . }}

// {{.Ident}} declares module {{.Name}}{{ if .Alias }} ({{ oneLine .Alias }}){{ end }}.
var {{.Ident}} = envreg.MustModule({{ printf "%q" .Name }}, {{ printf "%q" .Alias }},
{{- range .Envs }}
	{{- if .Release }}
	envreg.Release({{ printf "%q" .Name }}, {{ printf "%q" .Value }}, {{ printf "%q" .Alias }}),
	{{- else }}
	envreg.Env({{ printf "%q" .Name }}, {{ printf "%q" .Value }}, {{ printf "%q" .Alias }}),
	{{- end }}
{{- end }}
)

// Environments of {{.Ident}}, release first.
var (
{{- range $i, $e := .Envs }}
	{{ $e.Ident }} = {{ $m.Ident }}.Environments()[{{ $i }}]
{{- end }}
)
{{- end }}

// Modules returns every declared module in declaration order.
func Modules() []*envreg.Module {
	return []*envreg.Module{
{{- range .Modules }}
		{{.Ident}},
{{- end }}
	}
}

// Registry gives typed access to the selection of every declared module.
type Registry struct {
	*envreg.Registry
{{ range .Modules }}
	{{.Ident}} *envreg.Selection
{{- end }}
}

// NewRegistry builds a Registry over store. WithFrozen(Frozen) is applied
// after opts, so IsRelease always reports the generated variant.
func NewRegistry(store envreg.Store, opts ...envreg.Option) *Registry {
	base := envreg.NewRegistry(store, Modules(), append(opts[:len(opts):len(opts)], envreg.WithFrozen(Frozen))...)
	return &Registry{
		Registry: base,
{{- range .Modules }}
		{{.Ident}}: base.Selection({{.Ident}}),
{{- end }}
	}
}
`),
)
