package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// dialTestConn spins up an upgrading test server, hands the server side of
// the connection to fn, and returns the client side.
func dialTestConn(t *testing.T, fn func(*websocket.Conn)) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serverConn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Error(err)
			return
		}
		fn(serverConn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWriterSerializesConcurrentSenders(t *testing.T) {
	// A relay goroutine and a ping-reply loop both send on the same
	// connection; every frame must make it through the single pump intact.
	const senders = 8
	const perSender = 25

	received := make(chan MonitorEvent, senders*perSender)
	conn := dialTestConn(t, func(serverConn *websocket.Conn) {
		defer serverConn.Close()
		for {
			var ev MonitorEvent
			if err := serverConn.ReadJSON(&ev); err != nil {
				return
			}
			received <- ev
		}
	})

	w := NewWriter(conn)
	defer w.Close()

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				assert.NoError(t, w.Send(MonitorEvent{
					Event:          EventAnswerScored,
					QuestionsAsked: j,
				}))
			}
		}()
	}
	wg.Wait()

	for i := 0; i < senders*perSender; i++ {
		select {
		case <-received:
		case <-time.After(5 * time.Second):
			t.Fatalf("received %d of %d frames", i, senders*perSender)
		}
	}
}

func TestWriterSendAfterClose(t *testing.T) {
	conn := dialTestConn(t, func(serverConn *websocket.Conn) {
		defer serverConn.Close()
		for {
			if _, _, err := serverConn.ReadMessage(); err != nil {
				return
			}
		}
	})

	w := NewWriter(conn)
	w.Close()

	assert.ErrorIs(t, w.Send(PongResponse{Event: EventPong}), ErrWriterClosed)
}

func TestWriterStopsAfterWriteFailure(t *testing.T) {
	conn := dialTestConn(t, func(serverConn *websocket.Conn) {
		serverConn.Close()
	})

	w := NewWriter(conn)
	defer w.Close()

	// Kill the underlying connection; the pump's next write fails and Send
	// must start reporting the writer as closed.
	conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if err := w.Send(PongResponse{Event: EventPong}); err != nil {
			assert.ErrorIs(t, err, ErrWriterClosed)
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("writer kept accepting frames after the connection died")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
