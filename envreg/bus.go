package envreg

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/hashicorp/go-hclog"
)

// Change describes a Module switching from Old to New.
type Change struct {
	Module *Module
	Old    *Environment
	New    *Environment
}

// Listener receives Environment changes. Implementations are compared by
// identity, so they must be comparable (pointers are the usual choice).
type Listener interface {
	EnvironmentChanged(Change)
}

type funcListener struct{ fn func(Change) }

func (l *funcListener) EnvironmentChanged(c Change) { l.fn(c) }

// OnChange adapts fn to a Listener. Each call returns a distinct Listener; keep
// the result to remove it later.
func OnChange(fn func(Change)) Listener { return &funcListener{fn: fn} }

// Bus is an ordered, duplicate-free set of Listeners with panic-isolated fan-out.
type Bus struct {
	mu        sync.RWMutex
	listeners []Listener
	logger    hclog.Logger
}

func NewBus(logger hclog.Logger) *Bus {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Bus{logger: logger}
}

// Add registers l. It returns false if l is nil, not comparable, or already registered.
func (b *Bus) Add(l Listener) bool {
	if l == nil {
		return false
	}
	if !isComparable(l) {
		b.logger.Warn("listener is not comparable, ignoring", "type", fmt.Sprintf("%T", l))
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.indexOf(l) >= 0 {
		return false
	}
	b.listeners = append(b.listeners, l)
	return true
}

// Remove unregisters l and reports whether it was registered.
func (b *Bus) Remove(l Listener) bool {
	if l == nil || !isComparable(l) {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	i := b.indexOf(l)
	if i < 0 {
		return false
	}
	b.listeners = append(b.listeners[:i:i], b.listeners[i+1:]...)
	return true
}

// Clear unregisters every listener.
func (b *Bus) Clear() {
	b.mu.Lock()
	b.listeners = nil
	b.mu.Unlock()
}

// Len returns the number of registered listeners.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// Notify delivers c to a snapshot of the listeners, in registration order.
// Listeners may add or remove listeners while being notified; a panicking
// listener is logged and skipped.
func (b *Bus) Notify(c Change) {
	b.mu.RLock()
	snapshot := make([]Listener, len(b.listeners))
	copy(snapshot, b.listeners)
	b.mu.RUnlock()

	for _, l := range snapshot {
		b.deliver(l, c)
	}
}

func (b *Bus) deliver(l Listener, c Change) {
	defer func() {
		if rec := recover(); rec != nil {
			b.logger.Error("listener panicked",
				"listener", fmt.Sprintf("%T", l),
				"module", c.Module.Name(),
				"panic", rec,
			)
		}
	}()
	l.EnvironmentChanged(c)
}

func (b *Bus) indexOf(l Listener) int {
	for i, existing := range b.listeners {
		if existing == l {
			return i
		}
	}
	return -1
}

// isComparable reports whether l can be compared with ==. A comparable struct
// type may still hold an uncomparable value in an interface field, so the
// value itself is checked.
func isComparable(l Listener) bool {
	return reflect.ValueOf(l).Comparable()
}
