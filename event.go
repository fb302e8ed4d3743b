package libemit

import "fmt"

// EventType classifies what a source observed on the wire.
type EventType byte

const (
	EventOpen  EventType = 1
	EventData  EventType = 2
	EventPing  EventType = 9
	EventPong  EventType = 10
	EventClose EventType = 8
	EventError EventType = 11
)

func (t EventType) Is(other EventType) bool {
	return t == other
}

func (t EventType) IsData() bool {
	return t.Is(EventData)
}

func (t EventType) IsClose() bool {
	return t.Is(EventClose)
}

func (t EventType) IsError() bool {
	return t.Is(EventError)
}

// Event is the envelope sources publish on an emitter: what happened, the raw
// payload if any, and the error that caused it for EventError/EventClose.
type Event struct {
	EventType EventType
	Payload   []byte
	Err       error
}

func (e Event) Type() EventType {
	return e.EventType
}

func (e Event) Data() []byte {
	return e.Payload
}

func (e Event) String() string {
	if e.Err != nil {
		return fmt.Sprintf("Event{type=%d,err=%s}", e.EventType, e.Err)
	}
	return fmt.Sprintf("Event{type=%d,data=%s}", e.EventType, e.Payload)
}

func NewOpenEvent() Event {
	return Event{EventType: EventOpen}
}

func NewDataEvent(data []byte) Event {
	return Event{EventType: EventData, Payload: data}
}

func NewPingEvent(data []byte) Event {
	return Event{EventType: EventPing, Payload: data}
}

func NewPongEvent(data []byte) Event {
	return Event{EventType: EventPong, Payload: data}
}

func NewCloseEvent(err error) Event {
	return Event{EventType: EventClose, Err: err}
}

func NewErrorEvent(err error) Event {
	return Event{EventType: EventError, Err: err}
}
