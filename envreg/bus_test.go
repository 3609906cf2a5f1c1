package envreg

import (
	"bytes"
	"sync"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder is a comparable Listener that keeps every Change it receives.
type recorder struct {
	mu      sync.Mutex
	changes []Change
}

func (r *recorder) EnvironmentChanged(c Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, c)
}

func (r *recorder) received() []Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Change, len(r.changes))
	copy(out, r.changes)
	return out
}

// sliceListener is not comparable because of its slice field.
type sliceListener struct{ tags []string }

func (sliceListener) EnvironmentChanged(Change) {}

// taggedListener has a comparable type whose value may not be.
type taggedListener struct{ tag any }

func (taggedListener) EnvironmentChanged(Change) {}

func TestBus_AddIsDuplicateFree(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	rec := &recorder{}

	assert.True(t, bus.Add(rec))
	assert.False(t, bus.Add(rec))
	assert.False(t, bus.Add(nil))
	assert.Equal(t, 1, bus.Len())

	assert.True(t, bus.Remove(rec))
	assert.False(t, bus.Remove(rec))
	assert.Equal(t, 0, bus.Len())
}

func TestBus_RejectsNonComparableListeners(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	bus := NewBus(hclog.New(&hclog.LoggerOptions{Output: &logs, Level: hclog.Warn}))

	assert.False(t, bus.Add(sliceListener{}))
	assert.False(t, bus.Remove(sliceListener{}))
	assert.Contains(t, logs.String(), "not comparable")
}

func TestBus_RejectsUncomparableValuesOfComparableTypes(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)

	assert.True(t, bus.Add(taggedListener{tag: "a"}))
	assert.False(t, bus.Add(taggedListener{tag: "a"}))

	assert.NotPanics(t, func() {
		assert.False(t, bus.Add(taggedListener{tag: []int{1}}))
		assert.False(t, bus.Add(taggedListener{tag: []int{2}}))
		assert.False(t, bus.Remove(taggedListener{tag: []int{1}}))
	})
	assert.Equal(t, 1, bus.Len())
	assert.True(t, bus.Remove(taggedListener{tag: "a"}))
}

func TestBus_OnChangeReturnsDistinctListeners(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	fn := func(Change) {}

	a, b := OnChange(fn), OnChange(fn)
	assert.True(t, bus.Add(a))
	assert.True(t, bus.Add(b))
	assert.Equal(t, 2, bus.Len())
}

func TestBus_NotifyPreservesOrder(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	var order []int
	for i := 0; i < 3; i++ {
		i := i
		bus.Add(OnChange(func(Change) { order = append(order, i) }))
	}

	m := apiModule(t)
	bus.Notify(Change{Module: m, Old: m.Release(), New: m.Release()})
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestBus_PanickingListenerDoesNotStopDelivery(t *testing.T) {
	t.Parallel()

	var logs bytes.Buffer
	bus := NewBus(hclog.New(&hclog.LoggerOptions{Output: &logs, Level: hclog.Error}))

	first := &recorder{}
	last := &recorder{}
	bus.Add(first)
	bus.Add(OnChange(func(Change) { panic("listener exploded") }))
	bus.Add(last)

	m := apiModule(t)
	require.NotPanics(t, func() { bus.Notify(Change{Module: m}) })

	assert.Len(t, first.received(), 1)
	assert.Len(t, last.received(), 1)
	assert.Contains(t, logs.String(), "listener panicked")
	assert.Contains(t, logs.String(), "listener exploded")
}

func TestBus_ListenersMayMutateDuringNotify(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	late := &recorder{}

	var self Listener
	self = OnChange(func(Change) {
		bus.Remove(self)
		bus.Add(late)
	})
	bus.Add(self)

	m := apiModule(t)
	bus.Notify(Change{Module: m})
	assert.Empty(t, late.received(), "listeners added during dispatch wait for the next change")
	assert.Equal(t, 1, bus.Len())

	bus.Notify(Change{Module: m})
	assert.Len(t, late.received(), 1)
}

func TestBus_Clear(t *testing.T) {
	t.Parallel()

	bus := NewBus(nil)
	bus.Add(&recorder{})
	bus.Add(&recorder{})
	bus.Clear()
	assert.Equal(t, 0, bus.Len())
}
