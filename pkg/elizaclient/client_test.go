package elizaclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// scriptedServer greets with lines and echoes every text frame afterwards.
func scriptedServer(t *testing.T, lines ...string) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for _, line := range lines {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
				return
			}
		}
		for {
			msgType, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if err := conn.WriteMessage(msgType, append([]byte("echo: "), data...)); err != nil {
				return
			}
		}
	}))
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestWaitFramesCollectsGreeting(t *testing.T) {
	url := scriptedServer(t, "one", "two", "three")
	ctx := testContext(t)

	c, err := Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	frames, err := c.WaitFrames(ctx, 3)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(frames), 3)
	assert.Equal(t, []string{"one", "two", "three"}, frames[:3])
}

func TestHandlerRepliesAfterCount(t *testing.T) {
	url := scriptedServer(t, "one", "two", "three")
	ctx := testContext(t)

	c, err := Dial(ctx, url, nil, func(c *Client, index int, _ string) {
		if index == 2 {
			_ = c.Send("ping")
		}
	})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	frames, err := c.WaitFrames(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "echo: ping", frames[3])
}

func TestWaitFramesTimeout(t *testing.T) {
	url := scriptedServer(t, "only")
	c, err := Dial(testContext(t), url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	frames, err := c.WaitFrames(ctx, 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTimeout))
	assert.Len(t, frames, 1)
}

func TestWaitFramesAfterServerClose(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte("bye"))
		conn.Close()
	}))
	t.Cleanup(ts.Close)

	ctx := testContext(t)
	c, err := Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)

	frames, err := c.WaitFrames(ctx, 3)
	require.ErrorIs(t, err, ErrClosed)
	assert.Equal(t, []string{"bye"}, frames)
	assert.ErrorIs(t, c.Send("late"), ErrClosed)
}

func TestDialRetriesThenFails(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := "ws" + strings.TrimPrefix(ts.URL, "http")
	ts.Close()

	opts := DefaultOptions()
	opts.MaxRetries = 2
	opts.HandshakeTimeout = time.Second

	start := time.Now()
	_, err := Dial(testContext(t), url, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}
