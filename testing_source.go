package libemit

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockSource struct {
	mock.Mock

	tapOpen func()
}

func (m *mockSource) Open(ctx context.Context) error {
	if m.tapOpen != nil {
		m.tapOpen()
	}
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockSource) Close() {
	m.Called()
}

func (m *mockSource) CloseChan() CloseChan {
	args := m.Called()
	return args.Get(0).(CloseChan)
}

func (m *mockSource) CloseErr() error {
	args := m.Called()
	return args.Error(0)
}

// fakeSource is a hand-rolled Source whose behavior is supplied per test via
// function fields. It keeps a reference to the sink it was built with so tests
// can publish events as if they came off the wire.
type fakeSource struct {
	sink publisher[EventType, Event]

	OpenFunc      func(ctx context.Context) error
	CloseFunc     func()
	CloseChanFunc func() CloseChan
	CloseErrFunc  func() error
}

func (f *fakeSource) Open(ctx context.Context) error {
	if f.OpenFunc != nil {
		return f.OpenFunc(ctx)
	}
	return nil
}

func (f *fakeSource) Close() {
	if f.CloseFunc != nil {
		f.CloseFunc()
	}
}

func (f *fakeSource) CloseChan() CloseChan {
	if f.CloseChanFunc != nil {
		return f.CloseChanFunc()
	}
	return nil
}

func (f *fakeSource) CloseErr() error {
	if f.CloseErrFunc != nil {
		return f.CloseErrFunc()
	}
	return nil
}

func (f *fakeSource) publish(ev Event) {
	f.sink.Emit(ev.Type(), ev)
}
