// Package envreg generates typed registries of per-module environment
// selections.
//
// A client application often talks to several backends (modules), each with a
// fixed set of deployments (environments) such as production, staging or a
// local debug server. Exactly one environment per module is the release
// environment. A developer may switch a module to another environment at
// runtime and the choice survives restarts.
//
// The repository is split into:
//   - envreg: runtime descriptors, persistence, change notification and the
//     Registry that resolves the active environment of every module
//   - schema: loads HCL, JSON or YAML schema files and validates them into a
//     descriptor graph
//   - synth: renders a validated graph as Go source
//   - cmd/envgen: go:generate friendly command wrapping schema and synth
//   - examples/endpoints: a generated registry and a small demo command
//
// Schema errors are reported at generation time. At runtime nothing returns
// errors across the registry boundary: persistence faults are logged and
// resolution falls back to the release environment.
package envreg
