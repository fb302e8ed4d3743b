package libemit

import (
	"context"
)

type (
	// Source is the interface that defines the behavior of an event source: a
	// producer that, once opened, publishes Events on an emitter until closed.
	Source interface {
		// Open starts producing events. It returns once the source is running.
		Open(ctx context.Context) error
		// Close stops the source and releases its resources.
		Close()
		// CloseChan returns a channel that signals when the source has stopped.
		CloseChan() CloseChan
		// CloseErr returns the error that stopped the source, nil on a clean stop.
		CloseErr() error
	}

	CloseChan chan struct{}

	// SourceFactory builds a fresh source publishing on the given emitter.
	SourceFactory func(sink publisher[EventType, Event]) Source
)
