// Package envreg is the runtime side of the environment registry.
//
// A Module is a named configuration domain (for example a backend API) and an
// Environment is one concrete value for it (a base URL for dev, staging, prod).
// Every Module carries exactly one release Environment, which is the compiled-in
// default.
//
// Registries are usually produced by cmd/envgen from a schema file, but they can
// also be built by hand from explicit values:
//
//	api := envreg.MustModule("Api", "API backend",
//		envreg.Release("Release", "https://api.prod", "Production"),
//		envreg.Env("Debug", "https://api.dev", "Development"),
//	)
//	reg := envreg.NewRegistry(envreg.NewFileStore(root), []*envreg.Module{api})
//
//	url := reg.Selection(api).Value()
//
// Resolution order for a Module is: cached selection, then the persisted override
// in the Store, then the release Environment. Resolution never fails; storage and
// listener faults are logged and absorbed.
//
// Import
//
//	"github.com/sghaida/envreg/envreg"
package envreg
