package libemit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func noBackoff(int) time.Duration { return 0 }

func TestBackoffSourceRetriesOpen(t *testing.T) {
	attempts := 0

	factory := func(sink publisher[EventType, Event]) Source {
		attempts++
		failing := attempts < 3
		return &fakeSource{
			sink: sink,
			OpenFunc: func(context.Context) error {
				if failing {
					return errors.New("transient dial failure")
				}
				return nil
			},
			CloseChanFunc: func() CloseChan { return make(CloseChan) },
		}
	}

	source := newBackoffSource(noopLogger{}, NoopEmitter[EventType, Event]{}, factory, noBackoff, time.Minute)
	defer source.Close()

	require.NoError(t, source.Open(context.Background()))
	require.Equal(t, 3, attempts)
}

func TestBackoffSourceReopensOnClose(t *testing.T) {
	reopened := make(chan struct{})
	var reopenedOnce sync.Once
	attempts := 0

	firstClose := make(CloseChan)
	secondClose := make(CloseChan)

	factory := func(sink publisher[EventType, Event]) Source {
		attempts++
		if attempts == 1 {
			return &fakeSource{
				sink:          sink,
				CloseChanFunc: func() CloseChan { return firstClose },
				CloseErrFunc:  func() error { return errors.Wrap(ErrSourceClosed, "peer went away") },
			}
		}
		return &fakeSource{
			sink: sink,
			// CloseChan is requested right after the swap, which makes it a
			// safe signal that the replacement source is in place.
			CloseChanFunc: func() CloseChan {
				reopenedOnce.Do(func() { close(reopened) })
				return secondClose
			},
		}
	}

	source := newBackoffSource(noopLogger{}, NoopEmitter[EventType, Event]{}, factory, noBackoff, time.Minute)
	defer source.Close()

	require.NoError(t, source.Open(context.Background()))

	// Simulate the inner source dying.
	close(firstClose)

	select {
	case <-reopened:
	case <-time.After(time.Second):
		t.Fatal("expected the source to be reopened after the inner one closed")
	}
}

func TestExponentialBackoffSeconds(t *testing.T) {
	require.Equal(t, time.Duration(0), ExponentialBackoffSeconds(0))
	require.Equal(t, 3*time.Second, ExponentialBackoffSeconds(3))
	require.Equal(t, 15*time.Second, ExponentialBackoffSeconds(5))
}
