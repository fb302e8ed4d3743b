package libemit

import (
	"context"
)

type (
	// TopicFunc maps an incoming data event to the topic it is published
	// under. The shape of the payload is a contract between the feed's
	// consumers and whatever sits on the other end of the source.
	TopicFunc func(Event) string

	// LifecycleHandler is notified of open, close and error events of the
	// feed's underlying source.
	LifecycleHandler func(*Feed, Event)
)

// DefaultTopic is where data events land when no TopicFunc is configured.
const DefaultTopic = "message"

// Feed binds one event source to one subscription registry. Consumers
// subscribe to topics with On/Once/Off; every data event read by the source is
// routed through the TopicFunc and dispatched to that topic's listeners, in
// subscription order, on the source's reading goroutine.
type Feed struct {
	// sourceFactory is a factory for creating new sources
	sourceFactory SourceFactory
	// source is the active source
	source Source
	// topicFn routes data events to topics
	topicFn TopicFunc
	// lifecycleHandler observes source lifecycle events
	lifecycleHandler LifecycleHandler

	// events is the sink the source publishes on
	events *Emitter[EventType, Event]
	// topics is the registry consumers subscribe to
	topics *Emitter[string, Event]

	logger logger
}

func NewFeed(
	logger logger,
	sourceFactory SourceFactory,
	topicFn TopicFunc,
	lifecycleHandler LifecycleHandler,
) *Feed {
	if logger == nil {
		logger = noopLogger{}
	}
	if topicFn == nil {
		topicFn = func(Event) string { return DefaultTopic }
	}
	return &Feed{
		sourceFactory:    sourceFactory,
		topicFn:          topicFn,
		lifecycleHandler: lifecycleHandler,
		events:           NewEmitter[EventType, Event](),
		topics:           NewEmitter[string, Event](),
		logger:           logger.WithField("type", "feed"),
	}
}

// Open creates the source and starts routing its events. Listeners may be
// subscribed before or after Open; only emissions that happen after a
// subscription reach it.
func (f *Feed) Open(ctx context.Context) error {
	f.events.On(EventData, func(ev Event) {
		topic := f.topicFn(ev)
		if !f.topics.Emit(topic, ev) {
			f.logger.Debugf("no listeners for topic %q", topic)
		}
	})

	f.events.On(EventOpen, f.notifyLifecycle)
	f.events.On(EventClose, f.notifyLifecycle)
	f.events.On(EventError, f.notifyLifecycle)

	f.source = f.sourceFactory(f.events)

	return f.source.Open(ctx)
}

func (f *Feed) notifyLifecycle(ev Event) {
	if f.lifecycleHandler != nil {
		f.lifecycleHandler(f, ev)
	}
}

// On subscribes a listener to a topic.
func (f *Feed) On(topic string, listener func(Event)) *Feed {
	f.topics.On(topic, listener)
	return f
}

// Once subscribes a listener to a topic for a single delivery.
func (f *Feed) Once(topic string, listener func(Event)) *Feed {
	f.topics.Once(topic, listener)
	return f
}

// Off unsubscribes a listener from a topic.
func (f *Feed) Off(topic string, listener func(Event)) *Feed {
	f.topics.Off(topic, listener)
	return f
}

func (f *Feed) Close() {
	if f.events != nil {
		f.events.Close()
	}
	if f.topics != nil {
		f.topics.Close()
	}
	if f.source != nil {
		f.source.Close()
	}
}

func (f *Feed) CloseChan() CloseChan {
	return f.source.CloseChan()
}
