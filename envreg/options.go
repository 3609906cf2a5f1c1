package envreg

import "github.com/hashicorp/go-hclog"

// Option configures a Registry.
type Option func(*options)

type options struct {
	logger         hclog.Logger
	frozen         bool
	dropUndeclared bool
}

func defaultOptions() options {
	return options{logger: hclog.NewNullLogger()}
}

// WithLogger routes storage and listener faults to logger.
func WithLogger(logger hclog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithFrozen marks the registry as a release build: persisted overrides are
// neither read nor written and every Module resolves to its release Environment.
func WithFrozen(frozen bool) Option {
	return func(o *options) { o.frozen = frozen }
}

// WithDropUndeclared discards a persisted override that no longer matches any
// declared Environment of its Module. The stale record is deleted and the
// release Environment is used instead.
func WithDropUndeclared() Option {
	return func(o *options) { o.dropUndeclared = true }
}
