package libemit

import (
	"sync"
	"time"

	"context"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/fasthttp/websocket"
)

type (
	dialParamsRepo interface {
		Get(ctx context.Context) (DialParams, error)
	}

	DialParams struct {
		URL    url.URL
		Header http.Header
	}

	ErrAdapter func(*websocket.Conn, *http.Response, error) error

	ErrorAdapters struct {
		OnDial ErrAdapter
	}

	// WsSource reads a websocket connection and publishes everything it
	// observes as Events on its sink emitter: one EventOpen after dialing,
	// EventData per data frame, EventPing/EventPong per control frame, and a
	// final EventClose carrying the close reason.
	// It implements the Source interface.
	WsSource struct {
		errAdapters     ErrorAdapters
		dialParamsRepo  dialParamsRepo
		logger          logger
		dialer          *websocket.Dialer
		conn            *websocket.Conn
		sink            publisher[EventType, Event]
		pingInterval    time.Duration // zero disables active keep-alive
		closeChan       CloseChan
		closeOnce       sync.Once
		closeReason     error
		closeReasonOnce sync.Once
		send            chan Event // control replies and keep-alive pings to be sent over the wire
	}
)

var (
	NoopDialParams = DialParams{}
)

func NewWebsocketSource(
	dialer *websocket.Dialer,
	dialParamsRepo DialParamsRepo,
	logger logger,
	sink publisher[EventType, Event],
	errorHandlers ErrorAdapters,
	pingInterval time.Duration,
) *WsSource {
	if sink == nil {
		sink = NoopEmitter[EventType, Event]{}
	}
	return &WsSource{
		errAdapters:    errorHandlers,
		dialer:         dialer,
		dialParamsRepo: dialParamsRepo,
		sink:           sink,
		pingInterval:   pingInterval,
		send:           make(chan Event),
		closeChan:      make(CloseChan),
		logger:         logger.WithField("source", "ws"),
	}
}

func NewWebsocketSourceFactory(
	logger logger,
	dialer *websocket.Dialer,
	dialParamsRepo DialParamsRepo,
	errorHandlers ErrorAdapters,
	pingInterval time.Duration,
) SourceFactory {
	return func(sink publisher[EventType, Event]) Source {
		return NewWebsocketSource(
			dialer,
			dialParamsRepo,
			logger,
			sink,
			errorHandlers,
			pingInterval,
		)
	}
}

// Close terminates the websocket connection.
// It ensures that all resources related to the source are cleaned up.
func (w *WsSource) Close() {
	w.safeClose()
}

// Open dials the websocket and starts the read and write routines. It returns
// when the connection is established or the dial fails.
func (w *WsSource) Open(ctx context.Context) error {
	return w.start(ctx)
}

// CloseChan returns a channel that will be closed when the source stops.
// This can be used to monitor the source's closing event.
func (w *WsSource) CloseChan() CloseChan {
	return w.closeChan
}

// CloseErr returns an error that explains why the source stopped.
// If it stopped normally, CloseErr returns nil.
func (w *WsSource) CloseErr() error {
	return w.closeReason
}

func (w *WsSource) start(ctx context.Context) error {
	p, err := w.dialParamsRepo.Get(ctx)

	if err != nil {
		w.logger.Errorf("cannot get dial params due to %s: ", err)
		w.sink.Emit(EventError, NewErrorEvent(err))
		return err
	}

	conn, resp, err := w.dialer.Dial(p.URL.String(), p.Header)

	if err = w.handleDialError(conn, resp, err); err != nil {
		w.logger.Errorf("dial err to %s: %s, %+v", p.URL.String(), err, resp)
		w.sink.Emit(EventError, NewErrorEvent(err))
		return err
	}

	w.logger.Debugf("success opening connection to %s", p.URL.String())

	w.conn = conn

	// Override control message handlers to gain full control over 'control'
	// frames, as some servers rate-limit their reception as well. Pings are
	// answered with pongs from the write routine.
	conn.SetPingHandler(func(appData string) error {
		w.logger.Debugln("<= [PING]")
		w.sink.Emit(EventPing, NewPingEvent([]byte(appData)))
		select {
		case w.send <- NewPongEvent([]byte(appData)):
		case <-w.closeChan:
		}
		return nil
	})

	conn.SetPongHandler(func(appData string) error {
		w.logger.Debugln("<= [PONG]")
		w.sink.Emit(EventPong, NewPongEvent([]byte(appData)))
		return nil
	})

	conn.SetCloseHandler(func(code int, text string) error {
		w.logger.Debugln("<= [CLOSE]")
		w.sink.Emit(EventClose, NewCloseEvent(errors.Wrap(ErrSourceClosed, text)))
		return nil
	})

	w.sink.Emit(EventOpen, NewOpenEvent())

	go w.read(ctx)
	go w.write(ctx)

	return nil
}

func (w *WsSource) read(ctx context.Context) {
	defer w.safeClose()

	for {
		select {
		case <-w.closeChan:
			w.setCloseReason(ErrTerminated)
			return
		case <-ctx.Done():
			w.setCloseReason(ErrTerminated)
			return
		default:
			messageType, bts, err := w.conn.ReadMessage()
			if err != nil {
				w.logger.Errorf("error occurred on websocket read: %s", err)

				reason := errors.Wrap(
					ErrSourceClosed,
					"error occurred on websocket read: "+err.Error(),
				)
				w.setCloseReason(reason)
				w.sink.Emit(EventClose, NewCloseEvent(reason))
				return
			}
			// message types from ReadMessage are either binary or text
			switch messageType {
			case websocket.BinaryMessage:
				w.logger.Debugln("<= [BIN]")
				w.sink.Emit(EventData, NewDataEvent(bts))
			case websocket.CloseMessage:
				w.logger.Debugln("<= [CLOSE]")
				w.sink.Emit(EventClose, NewCloseEvent(ErrSourceClosed))
			default:
				w.logger.Debugf("<= [DATA] %s", string(bts))
				w.sink.Emit(EventData, NewDataEvent(bts))
			}
		}
	}
}

// write owns the outbound side of the connection: pong replies queued by the
// ping handler and, when pingInterval is set, periodic keep-alive pings.
func (w *WsSource) write(ctx context.Context) {
	defer w.safeClose()

	var keepAlive <-chan time.Time
	if w.pingInterval > 0 {
		ticker := time.NewTicker(w.pingInterval)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case <-w.closeChan:
			w.setCloseReason(ErrTerminated)
			return
		case <-ctx.Done():
			w.setCloseReason(ErrTerminated)
			return
		case <-keepAlive:
			w.logger.Debugln("=> [PING]")
			if err := w.writeControl(websocket.PingMessage, nil); err != nil {
				return
			}
		case ev := <-w.send:
			switch ev.Type() {
			case EventPing:
				w.logger.Debugln("=> [PING]")
				if err := w.writeControl(websocket.PingMessage, ev.Data()); err != nil {
					return
				}
			case EventPong:
				w.logger.Debugln("=> [PONG]")
				if err := w.writeControl(websocket.PongMessage, ev.Data()); err != nil {
					return
				}
			}
		}
	}
}

func (w *WsSource) writeControl(messageType int, data []byte) error {
	deadline := time.Now().Add(time.Second)

	err := w.conn.WriteControl(messageType, data, deadline)
	if e, ok := err.(net.Error); ok && e.Temporary() {
		err = nil
	}

	if err != nil {
		if websocket.IsCloseError(err,
			websocket.CloseGoingAway,
			websocket.CloseAbnormalClosure,
		) {
			w.setCloseReason(ErrSourceClosed)
		} else {
			w.setCloseReason(errors.Wrap(ErrSourceClosed, err.Error()))
		}
	}
	return err
}

func (w *WsSource) safeClose() {
	w.closeOnce.Do(w.close)
}

func (w *WsSource) close() {
	if w.conn != nil {
		_ = w.conn.Close()
	}
	close(w.closeChan)
}

func (w *WsSource) setCloseReason(err error) {
	w.closeReasonOnce.Do(func() {
		w.closeReason = err
	})
}

func (w *WsSource) handleDialError(conn *websocket.Conn, resp *http.Response, err error) error {
	if w.errAdapters.OnDial != nil {
		return w.errAdapters.OnDial(conn, resp, err)
	}

	// 1. Check HTTP errors first
	var msg string

	if resp != nil {
		if resp.Body != nil {
			bts, err := io.ReadAll(resp.Body)
			if err == nil {
				msg = string(bts)
			}
		}
		if resp.StatusCode == http.StatusTooManyRequests {
			return errors.Wrap(ErrRateLimit, msg)
		}
	}

	// 2. Network errors
	if err != nil {
		return errors.Wrap(ErrCannotConnect, err.Error())
	}

	return nil
}
