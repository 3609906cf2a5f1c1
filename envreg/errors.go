package envreg

import (
	"errors"
	"strconv"
)

var (
	// ErrMissingReleaseEnvironment is returned when a Module declares no release Environment.
	ErrMissingReleaseEnvironment = errors.New("envreg: missing release environment")

	// ErrMultipleReleaseEnvironments is returned when a Module declares more than one release Environment.
	ErrMultipleReleaseEnvironments = errors.New("envreg: multiple release environments")

	// ErrDuplicateEnvironmentName is returned when two Environments of a Module share a name.
	ErrDuplicateEnvironmentName = errors.New("envreg: duplicate environment name")

	// ErrDuplicateModuleName is returned when two Modules of a registry share a name.
	ErrDuplicateModuleName = errors.New("envreg: duplicate module name")

	// ErrInvalidName is returned for empty names or names that cannot be used as
	// identifiers and file names.
	ErrInvalidName = errors.New("envreg: invalid name")

	// ErrEmptyModule is returned when a Module declares no Environments at all.
	ErrEmptyModule = errors.New("envreg: module has no environments")

	// ErrNilModule is returned when a registry is built with a nil Module.
	ErrNilModule = errors.New("envreg: nil module")

	// ErrNoRecord is returned by a Store when no override is persisted for a Module.
	ErrNoRecord = errors.New("envreg: no persisted record")
)

// SchemaError ties a schema violation to the Module (and Environment, when known)
// it was found in. The underlying sentinel is available through errors.Is.
type SchemaError struct {
	Module      string
	Environment string
	Err         error
}

// Error implements the error interface.
func (e *SchemaError) Error() string {
	// Example: envreg: duplicate environment name (module "Api", environment "Debug")
	msg := e.Err.Error() + " (module " + strconv.Quote(e.Module)
	if e.Environment != "" {
		msg += ", environment " + strconv.Quote(e.Environment)
	}
	return msg + ")"
}

// Unwrap returns the sentinel error.
func (e *SchemaError) Unwrap() error { return e.Err }

func schemaErr(module, env string, err error) error {
	return &SchemaError{Module: module, Environment: env, Err: err}
}
