package libemit

type emitter[K comparable, V any] interface {
	// On registers a new listener for the given event.
	On(event K, listener callback[V]) *Emitter[K, V]

	// Once registers a listener invoked at most once for the given event.
	Once(event K, listener callback[V]) *Emitter[K, V]

	// Off removes the specified listener from the given event.
	Off(event K, listener callback[V]) *Emitter[K, V]

	// Emit triggers all listeners registered for the given event synchronously,
	// reporting whether any listener was registered.
	Emit(event K, data V) bool

	// RemoveAllListeners removes all listeners for all events.
	RemoveAllListeners()

	// Close removes all listeners to prevent memory leaks.
	Close()
}

// publisher is the reduced surface sources need: they only ever publish.
type publisher[K comparable, V any] interface {
	Emit(K, V) bool
}

// NoopEmitter drops every event. Useful as a default when callers do not care
// about a source's lifecycle notifications.
type NoopEmitter[K comparable, V any] struct{}

func (NoopEmitter[K, V]) Emit(K, V) bool { return false }
