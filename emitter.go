package libemit

import (
	"reflect"
	"sync"
)

type callback[T any] func(T)

// listenerEntry is one registered listener. origin records the identity of the
// function the caller handed to On or Once, so that Off can locate the entry
// again, including one-shot entries that have not fired yet.
type listenerEntry[V any] struct {
	fn     callback[V]
	origin uintptr
	once   bool
}

// Emitter is a synchronous publish/subscribe registry. It maps events (of type K)
// to ordered lists of listeners, which are plain functions (of type func(V)).
// Listeners are invoked in registration order, in-line on the emitting goroutine.
// All methods are safe for concurrent use.
type Emitter[K comparable, V any] struct {
	listeners map[K][]listenerEntry[V]
	lock      sync.Mutex
}

// NewEmitter creates a new Emitter and returns a pointer to it.
func NewEmitter[K comparable, V any]() *Emitter[K, V] {
	return &Emitter[K, V]{
		listeners: make(map[K][]listenerEntry[V]),
	}
}

// funcID returns the identity of a listener function. Note that Go closures
// sharing the same body share the same identity; callers that need to remove a
// listener later should keep and reuse the registered function value.
func funcID[V any](fn callback[V]) uintptr {
	return reflect.ValueOf(fn).Pointer()
}

// On registers a new listener for the given event. Registering the same
// function twice creates two independent entries, both invoked per emission.
func (e *Emitter[K, V]) On(event K, listener callback[V]) *Emitter[K, V] {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.listeners[event] = append(e.listeners[event], listenerEntry[V]{
		fn:     listener,
		origin: funcID(listener),
	})
	return e
}

// Once registers a listener that is invoked at most once. The entry is removed
// from the registry before its invocation, so a listener that re-emits its own
// event cannot trigger itself again. Until it fires, the entry can be removed
// with Off using the same function value that was passed here.
func (e *Emitter[K, V]) Once(event K, listener callback[V]) *Emitter[K, V] {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.listeners[event] = append(e.listeners[event], listenerEntry[V]{
		fn:     listener,
		origin: funcID(listener),
		once:   true,
	})
	return e
}

// Off removes the first listener registered for the given event whose identity
// matches the given function. Removing a listener that was never registered, or
// from an event without listeners, is a no-op. When the last listener for an
// event is removed, the event key itself is dropped.
func (e *Emitter[K, V]) Off(event K, listener callback[V]) *Emitter[K, V] {
	e.lock.Lock()
	defer e.lock.Unlock()

	entries, found := e.listeners[event]
	if !found {
		return e
	}

	id := funcID(listener)
	for i, entry := range entries {
		if entry.origin == id {
			e.setEntries(event, append(entries[:i:i], entries[i+1:]...))
			break
		}
	}
	return e
}

// Emit triggers all listeners registered for the given event synchronously, in
// registration order, passing them the event's data. It reports whether the
// event had any listeners. The listener list is snapshotted before any listener
// runs: listeners added or removed during dispatch only affect future
// emissions, never the one in progress.
//
// A panic in a listener is not recovered; it propagates to the caller and the
// remaining listeners of that emission are not invoked. The registry stays
// consistent either way, since one-shot entries are already removed when the
// snapshot is taken.
func (e *Emitter[K, V]) Emit(event K, data V) bool {
	e.lock.Lock()

	entries, found := e.listeners[event]
	if !found {
		e.lock.Unlock()
		return false
	}

	snapshot := make([]listenerEntry[V], len(entries))
	copy(snapshot, entries)

	// One-shot entries leave the registry before they run, so a re-entrant
	// Emit of the same event works off a list that no longer contains them.
	remaining := entries[:0:0]
	for _, entry := range entries {
		if !entry.once {
			remaining = append(remaining, entry)
		}
	}
	if len(remaining) != len(entries) {
		e.setEntries(event, remaining)
	}

	e.lock.Unlock()

	for _, entry := range snapshot {
		entry.fn(data)
	}
	return true
}

// ListenerCount returns the number of listeners currently registered for the
// given event.
func (e *Emitter[K, V]) ListenerCount(event K) int {
	e.lock.Lock()
	defer e.lock.Unlock()

	return len(e.listeners[event])
}

// RemoveAllListeners removes all listeners for all events.
func (e *Emitter[K, V]) RemoveAllListeners() {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.listeners = make(map[K][]listenerEntry[V])
}

// Close removes all listeners to prevent memory leaks.
func (e *Emitter[K, V]) Close() {
	e.RemoveAllListeners()
}

// setEntries stores the entry list for an event, dropping the key when the
// list is empty so that Emit's existence check stays cheap.
func (e *Emitter[K, V]) setEntries(event K, entries []listenerEntry[V]) {
	if len(entries) == 0 {
		delete(e.listeners, event)
		return
	}
	e.listeners[event] = entries
}
