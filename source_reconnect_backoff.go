package libemit

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type backoffCalculator func(attempts int) (time time.Duration)

// backoffSource is a Source decorator that reopens the inner source whenever
// it stops with an error, waiting an increasing amount of time between
// attempts. Stretches where the connection stayed healthy for longer than
// sourceDurationThreshold reset the attempt counter.
type backoffSource struct {
	sink                    publisher[EventType, Event]
	logger                  logger
	inner                   Source
	sourceFactory           SourceFactory
	calculator              backoffCalculator
	closeC                  CloseChan
	closeOnce               sync.Once
	closeReason             error
	sourceDurationThreshold time.Duration
}

func (b *backoffSource) newSource(ctx context.Context) Source {
	var (
		attempts = 0
		s        Source
	)

	for {
		attempts++

		s = b.sourceFactory(b.sink)

		if err := s.Open(ctx); err != nil {
			if errors.Is(err, ErrCannotConnect) {
				b.logger.Infof("cannot connect, reconnecting asap due to: %s", err)
				// Try to establish the connection asap
				time.Sleep(time.Second)
				continue
			}

			ttw := b.calculator(attempts)
			b.logger.Infof("cannot connect after %s, waiting %s", err, ttw)
			time.Sleep(ttw)
			continue
		}

		return s
	}
}

func (b *backoffSource) run(ctx context.Context) {
	var (
		innerCloseChan = b.inner.CloseChan()
		attempts       = 0
		then           = time.Now().UTC()
	)

	defer b.inner.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.closeC:
			return
		case <-innerCloseChan:
			// Ensure resource clean-up
			b.inner.Close()
			b.closeReason = b.inner.CloseErr()

			if b.closeReason != nil {
				if errors.Is(b.closeReason, ErrSourceClosed) ||
					errors.Is(b.closeReason, ErrTerminated) {
					// If this source terminated because the connection died naturally, or we
					// have terminated it, reset counter to 0.
					delta := time.Since(then)
					if delta > b.sourceDurationThreshold {
						// We assume that the source was healthy for `sourceDurationThreshold` and that it
						// was terminated due to natural reasons, so we should try to reconnect asap
						attempts = 0
					} else {
						attempts++
					}
				}
			}

			ttw := b.calculator(attempts)
			b.logger.Infof("retrying to connect after %s due to %s", ttw, b.closeReason)
			time.Sleep(ttw)

			// Reopen the source
			b.inner = b.newSource(ctx)
			innerCloseChan = b.inner.CloseChan()
			then = time.Now().UTC()
		}
	}
}

func (b *backoffSource) Open(ctx context.Context) error {
	// open the first source synchronously.
	b.inner = b.newSource(ctx)

	// once the first source has been opened, spawn goro and return.
	go b.run(ctx)

	return nil
}

func (b *backoffSource) Close() {
	b.closeOnce.Do(func() {
		close(b.closeC)

		b.inner.Close()
	})
}

func (b *backoffSource) CloseChan() CloseChan {
	return b.closeC
}

func (b *backoffSource) CloseErr() error {
	return b.closeReason
}

func newBackoffSource(
	logger logger,
	sink publisher[EventType, Event],
	sourceFactory SourceFactory,
	calculator backoffCalculator,
	sourceDurationThreshold time.Duration,
) Source {
	return &backoffSource{
		logger: logger.WithField(
			"type", "source_reconnect_exp_backoff",
		),
		sink:                    sink,
		sourceFactory:           sourceFactory,
		calculator:              calculator,
		sourceDurationThreshold: sourceDurationThreshold,
		closeC:                  make(CloseChan),
	}
}

func NewBackoffSourceFactory(
	logger logger,
	sourceFactory SourceFactory,
	calculator backoffCalculator,
	sourceDurationThreshold time.Duration,
) SourceFactory {
	return func(sink publisher[EventType, Event]) Source {
		return newBackoffSource(
			logger,
			sink,
			sourceFactory,
			calculator,
			sourceDurationThreshold,
		)
	}
}

func ExponentialBackoff(attempts int) float64 {
	return (math.Pow(2.0, float64(attempts)) - 1) / 2
}

func ExponentialBackoffSeconds(attempts int) time.Duration {
	return time.Duration(ExponentialBackoff(attempts)) * time.Second
}
