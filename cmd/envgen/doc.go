// Command envgen generates a typed environment registry from a module schema.
//
// A schema declares Modules, each with a fixed set of named Environments
// (a value plus a human readable alias) and exactly one release Environment.
// envgen validates the schema and writes a Go file declaring one variable per
// Module and Environment together with a typed Registry wrapper, so call sites
// read the current selection without string lookups:
//
//	reg := endpoints.NewRegistry(envreg.NewFileStore(root))
//	url := reg.Api.Value()
//
// Typical use is through go:generate:
//
//	//go:generate go run github.com/sghaida/envreg/cmd/envgen generate --schema endpoints.hcl --out endpoints.gen.go
//
// Commands
//
//	envgen generate --schema <path> --out <file.go> [--package name] [--frozen]
//	                [--runtime-import path] [--var name=value]...
//	envgen check    --schema <path> [--var name=value]...
//	envgen version
//
// Schemas may be HCL, JSON (comments and trailing commas allowed) or YAML,
// chosen by extension. HCL schemas can reference var.<name>, supplied with
// --var.
//
// --frozen produces the release variant: the generated registry resolves every
// Module to its release Environment and ignores persisted overrides.
//
// Generation is deterministic and the output file is only rewritten when its
// content changes. Any schema violation is reported with its Module and
// Environment and makes envgen exit with status 1 without touching the output.
//
// Logging goes to stderr through hclog. The level comes from --log-level, then
// ENVGEN_LOG_LEVEL, then "warn"; ENVGEN_JSON_LOG=1 or a "json:<level>" level
// switches to JSON lines.
package main
