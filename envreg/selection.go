package envreg

import (
	"errors"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Selection is the per-Module view of a Registry: it resolves, overrides and
// resets the active Environment of one Module.
//
// The active Environment is resolved lazily: cached value, then the persisted
// override, then the release Environment. Once resolved it is cached until Set
// or Reset.
type Selection struct {
	reg    *Registry
	module *Module
	logger hclog.Logger

	mu      sync.Mutex
	current *Environment

	// pending holds changes in cache-update order; one goroutine at a time
	// drains it while dispatching is set.
	pending     []Change
	dispatching bool
}

// Module returns the Module this selection belongs to.
func (s *Selection) Module() *Module { return s.module }

// Release returns the compiled-in default Environment.
func (s *Selection) Release() *Environment { return s.module.Release() }

// Environment returns the active Environment. It never returns nil.
func (s *Selection) Environment() *Environment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resolveLocked()
}

// Value is shorthand for Environment().Value().
func (s *Selection) Value() string { return s.Environment().Value() }

// Set makes env the active Environment, persists it and notifies listeners.
//
// It returns false without side effects when env is nil, belongs to another
// Module, equals the active Environment, or the registry is frozen. It also
// returns false when the override cannot be persisted.
//
// Changes of one Module reach listeners in the order they were applied. When
// another goroutine is already delivering changes for the Module, or Set is
// called from a listener, the change is queued and delivered by that
// dispatcher after the current one, so Set may return before it is delivered.
func (s *Selection) Set(env *Environment) bool {
	if env == nil {
		return false
	}
	if env.Module() != s.module {
		s.logger.Warn("environment belongs to another module, ignoring", "environment", env.String())
		return false
	}
	if s.reg.opts.frozen {
		s.logger.Debug("registry is frozen, override ignored", "environment", env.Name())
		return false
	}

	s.mu.Lock()
	old := s.resolveLocked()
	if old.Equal(env) {
		s.mu.Unlock()
		return false
	}
	if err := s.reg.store.Write(env); err != nil {
		s.mu.Unlock()
		s.logger.Warn("persisting override failed", "environment", env.Name(), "error", err)
		return false
	}
	if d := s.module.declared(env); d != nil {
		env = d
	}
	s.current = env
	s.pending = append(s.pending, Change{Module: s.module, Old: old, New: env})
	if s.dispatching {
		s.mu.Unlock()
		return true
	}
	s.dispatching = true
	s.mu.Unlock()

	s.dispatch()
	return true
}

// dispatch delivers queued changes outside the lock so listeners can use the
// registry, until the queue is empty.
func (s *Selection) dispatch() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.dispatching = false
			s.mu.Unlock()
			return
		}
		c := s.pending[0]
		s.pending = s.pending[1:]
		s.mu.Unlock()

		s.reg.bus.Notify(c)
	}
}

// Reset deletes the persisted override and clears the cached selection.
// Deleting a record that does not exist succeeds.
func (s *Selection) Reset() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	if err := s.reg.store.Delete(s.module); err != nil {
		s.logger.Warn("deleting override failed", "error", err)
		return false
	}
	return true
}

// IsDeclared reports whether the active Environment is value-equal to one of
// the Module's declared Environments. It is false for a persisted override that
// refers to an Environment a later schema removed.
func (s *Selection) IsDeclared() bool {
	return s.module.Declares(s.Environment())
}

func (s *Selection) resolveLocked() *Environment {
	if s.current == nil {
		s.current = s.load()
	}
	return s.current
}

func (s *Selection) load() *Environment {
	release := s.module.Release()
	if s.reg.opts.frozen {
		return release
	}

	env, err := s.reg.store.Read(s.module)
	switch {
	case errors.Is(err, ErrNoRecord):
		return release
	case err != nil:
		s.logger.Warn("reading override failed, using release", "error", err)
		return release
	}

	if d := s.module.declared(env); d != nil {
		return d
	}
	if s.reg.opts.dropUndeclared {
		s.logger.Info("dropping undeclared override", "environment", env.Name(), "value", env.Value())
		if err := s.reg.store.Delete(s.module); err != nil {
			s.logger.Warn("deleting stale override failed", "error", err)
		}
		return release
	}
	return env
}
