package websocket

import (
	"errors"
	"sync"

	"github.com/gorilla/websocket"
)

// ErrWriterClosed is returned by Send once the writer has stopped, either
// via Close or because a write failed.
var ErrWriterClosed = errors.New("websocket writer closed")

// Writer owns all outbound frames for one connection. gorilla/websocket
// permits at most one concurrent writer per connection, so every goroutine
// that needs to send queues through Send and a single pump goroutine
// performs the actual writes.
type Writer struct {
	conn   *websocket.Conn
	frames chan interface{}
	done   chan struct{}
	failed chan struct{}
	once   sync.Once
}

// NewWriter starts the write pump for conn.
func NewWriter(conn *websocket.Conn) *Writer {
	w := &Writer{
		conn:   conn,
		frames: make(chan interface{}, 16),
		done:   make(chan struct{}),
		failed: make(chan struct{}),
	}
	go w.pump()
	return w
}

// Send queues one frame for writing. It blocks while the buffer is full and
// returns ErrWriterClosed once the writer has stopped.
func (w *Writer) Send(v interface{}) error {
	select {
	case w.frames <- v:
		return nil
	case <-w.done:
		return ErrWriterClosed
	case <-w.failed:
		return ErrWriterClosed
	}
}

// SendError queues a typed ErrorResponse.
func (w *Writer) SendError(errMsg string) error {
	return w.Send(ErrorResponse{
		Event: EventError,
		Error: errMsg,
	})
}

// Close stops the pump. It does not close the underlying connection.
// Frames still buffered when Close is called are dropped.
func (w *Writer) Close() {
	w.once.Do(func() { close(w.done) })
}

func (w *Writer) pump() {
	for {
		select {
		case <-w.done:
			return
		case v := <-w.frames:
			if err := WriteTyped(w.conn, v); err != nil {
				close(w.failed)
				return
			}
		}
	}
}
