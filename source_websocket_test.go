package libemit

import (
	"io"
	"net/http"
	"os"
	"strings"
	"testing"

	"github.com/fasthttp/websocket"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func newTestWsSource() *WsSource {
	repo := NewStaticDialParamsRepo(noopLogger{}, NoopDialParams)
	return NewWebsocketSource(
		websocket.DefaultDialer,
		repo,
		NewWriterLogger(io.Discard),
		nil, // falls back to the noop emitter
		ErrorAdapters{},
		0,
	)
}

func TestHandleDialErrorRateLimit(t *testing.T) {
	w := newTestWsSource()

	resp := &http.Response{
		StatusCode: http.StatusTooManyRequests,
		Body:       io.NopCloser(strings.NewReader("slow down")),
	}

	err := w.handleDialError(nil, resp, errors.New("bad handshake"))
	require.ErrorIs(t, err, ErrRateLimit)
	require.Contains(t, err.Error(), "slow down")
}

func TestHandleDialErrorNetwork(t *testing.T) {
	w := newTestWsSource()

	err := w.handleDialError(nil, nil, errors.New("connection refused"))
	require.ErrorIs(t, err, ErrCannotConnect)
}

func TestHandleDialErrorNone(t *testing.T) {
	w := newTestWsSource()

	require.NoError(t, w.handleDialError(nil, nil, nil))
}

func TestHandleDialErrorAdapter(t *testing.T) {
	adapted := errors.New("adapted")

	repo := NewStaticDialParamsRepo(noopLogger{}, NoopDialParams)
	w := NewWebsocketSource(
		websocket.DefaultDialer,
		repo,
		NewWriterLogger(os.Stderr),
		NoopEmitter[EventType, Event]{},
		ErrorAdapters{
			OnDial: func(*websocket.Conn, *http.Response, error) error {
				return adapted
			},
		},
		0,
	)

	err := w.handleDialError(nil, nil, errors.New("ignored"))
	require.Same(t, adapted, err)
}

func TestWrapErrorUnrecoverableDial(t *testing.T) {
	require.Nil(t, WrapErrorUnrecoverableDial(nil, NoopDialParams.URL))

	cause := errors.New("boom")
	wrapped := WrapErrorUnrecoverableDial(cause, NoopDialParams.URL)
	require.ErrorIs(t, wrapped, cause)
	require.Contains(t, wrapped.Error(), "boom")
}