package envreg

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// Registry owns the runtime selection state of a fixed set of Modules.
// Construct one per process and share it; all methods are safe for concurrent use.
type Registry struct {
	store      Store
	modules    []*Module
	selections []*Selection
	byName     map[string]*Selection
	bus        *Bus
	logger     hclog.Logger
	opts       options
}

// New builds a Registry over modules, in the given order.
// A nil store is replaced by an empty MemoryStore.
func New(store Store, modules []*Module, opts ...Option) (*Registry, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if store == nil {
		store = NewMemoryStore()
	}

	logger := o.logger.Named("envreg")
	r := &Registry{
		store:      store,
		modules:    make([]*Module, 0, len(modules)),
		selections: make([]*Selection, 0, len(modules)),
		byName:     make(map[string]*Selection, len(modules)),
		bus:        NewBus(logger),
		logger:     logger,
		opts:       o,
	}

	var errs []error
	for i, m := range modules {
		if m == nil {
			errs = append(errs, fmt.Errorf("%w at index %d", ErrNilModule, i))
			continue
		}
		if _, dup := r.byName[m.Name()]; dup {
			errs = append(errs, schemaErr(m.Name(), "", ErrDuplicateModuleName))
			continue
		}
		sel := &Selection{
			reg:    r,
			module: m,
			logger: logger.With("module", m.Name()),
		}
		r.modules = append(r.modules, m)
		r.selections = append(r.selections, sel)
		r.byName[m.Name()] = sel
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return r, nil
}

// NewRegistry is New that panics on invalid modules.
func NewRegistry(store Store, modules []*Module, opts ...Option) *Registry {
	r, err := New(store, modules, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// Modules returns the registered Modules in declaration order.
func (r *Registry) Modules() []*Module {
	out := make([]*Module, len(r.modules))
	copy(out, r.modules)
	return out
}

// Selection returns the selection handle for m, or nil if m is not registered.
func (r *Registry) Selection(m *Module) *Selection {
	if m == nil {
		return nil
	}
	sel, ok := r.byName[m.Name()]
	if !ok || sel.module != m {
		return nil
	}
	return sel
}

// Lookup returns the selection handle of the Module named name.
func (r *Registry) Lookup(name string) (*Selection, bool) {
	sel, ok := r.byName[name]
	return sel, ok
}

// IsRelease reports whether the registry was built as a frozen release variant.
func (r *Registry) IsRelease() bool { return r.opts.frozen }

// Store returns the backing Store.
func (r *Registry) Store() Store { return r.store }

// Reset wipes every persisted override and clears all cached selections.
// It reports false if the store could not be cleared; caches are cleared either way.
func (r *Registry) Reset() bool {
	for _, sel := range r.selections {
		sel.mu.Lock()
	}
	defer func() {
		for i := len(r.selections) - 1; i >= 0; i-- {
			r.selections[i].mu.Unlock()
		}
	}()

	for _, sel := range r.selections {
		sel.current = nil
	}
	if err := r.store.Clear(); err != nil {
		r.logger.Warn("clearing persisted overrides failed", "error", err)
		return false
	}
	return true
}

// AddListener registers l. It returns false if l is already registered.
func (r *Registry) AddListener(l Listener) bool { return r.bus.Add(l) }

// RemoveListener unregisters l and reports whether it was registered.
func (r *Registry) RemoveListener(l Listener) bool { return r.bus.Remove(l) }

// ClearListeners unregisters every listener.
func (r *Registry) ClearListeners() { r.bus.Clear() }
