// Package schema collects Module and Environment declarations and validates
// them into an immutable descriptor graph for the registry generator.
//
// Three source formats are accepted, chosen by file extension:
//
//   - .json / .jsonc: JSON, with // and /* */ comments and trailing commas
//   - .yaml / .yml:   YAML
//   - .hcl:           HCL, with var.<name> references resolved from WithVariables
//
// HCL example:
//
//	package = "endpoints"
//
//	module "Api" {
//	  alias = "API backend"
//
//	  environment "Release" {
//	    value   = "https://api.prod"
//	    alias   = "Production"
//	    release = true
//	  }
//
//	  environment "Debug" {
//	    value = "https://${var.dev_host}"
//	    alias = "Development"
//	  }
//	}
//
// Validation errors are fatal at generation time. Every Module must declare
// exactly one release Environment, Environment names must be unique within a
// Module and Module names must be unique within the schema.
package schema
