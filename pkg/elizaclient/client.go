// Package elizaclient is a small WebSocket client for the ELIZA endpoint.
// It collects every text frame it receives so callers can wait for a minimum
// number of frames and then inspect them, tolerating extra frames that arrive
// later.
package elizaclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	ErrTimeout = errors.New("elizaclient: timed out waiting for frames")
	ErrClosed  = errors.New("elizaclient: connection closed")
)

// Handler is called from the read goroutine for every text frame. index is
// zero based, so index == 2 is the third frame.
type Handler func(c *Client, index int, text string)

// Options 客户端连接选项
type Options struct {
	MaxRetries       int
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
	Header           http.Header
}

// DefaultOptions 默认客户端选项
func DefaultOptions() *Options {
	return &Options{
		MaxRetries:       3,
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

// Client wraps one connection.
type Client struct {
	conn *websocket.Conn
	opts *Options

	writeMu sync.Mutex

	mu       sync.Mutex
	handlers []Handler
	frames   []string
	err      error

	notify chan struct{}
	done   chan struct{}
}

// Dial connects to url, retrying with linear backoff. handlers are registered
// before the first frame is read, so none of the greeting is missed.
func Dial(ctx context.Context, url string, opts *Options, handlers ...Handler) (*Client, error) {
	if opts == nil {
		opts = DefaultOptions()
	}
	retries := opts.MaxRetries
	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for i := 0; i < retries; i++ {
		conn, err := dial(ctx, url, opts)
		if err == nil {
			return start(conn, opts, handlers), nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if i == retries-1 {
			break
		}

		retryDelay := time.Duration(i+1) * 200 * time.Millisecond
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}

	return nil, fmt.Errorf("failed to connect after %d attempts, last error: %w", retries, lastErr)
}

func dial(ctx context.Context, url string, opts *Options) (*websocket.Conn, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: opts.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, url, opts.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func start(conn *websocket.Conn, opts *Options, handlers []Handler) *Client {
	c := &Client{
		conn:     conn,
		opts:     opts,
		handlers: append([]Handler(nil), handlers...),
		notify:   make(chan struct{}, 1),
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// OnMessage registers another handler. It only sees frames read after registration.
func (c *Client) OnMessage(h Handler) {
	c.mu.Lock()
	c.handlers = append(c.handlers, h)
	c.mu.Unlock()
}

// Send writes one text frame.
func (c *Client) Send(text string) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		return fmt.Errorf("send text: %w", err)
	}
	return nil
}

// Frames returns a snapshot of every text frame received so far.
func (c *Client) Frames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.frames...)
}

// WaitFrames blocks until at least n frames arrived, the context ends or the
// connection closes. The returned snapshot may hold more than n frames.
func (c *Client) WaitFrames(ctx context.Context, n int) ([]string, error) {
	for {
		frames := c.Frames()
		if len(frames) >= n {
			return frames, nil
		}

		select {
		case <-c.notify:
		case <-c.done:
			frames = c.Frames()
			if len(frames) >= n {
				return frames, nil
			}
			return frames, fmt.Errorf("%w after %d of %d frames: %v", ErrClosed, len(frames), n, c.readErr())
		case <-ctx.Done():
			frames = c.Frames()
			return frames, fmt.Errorf("%w: got %d of %d frames: %w", ErrTimeout, len(frames), n, ctx.Err())
		}
	}
}

// Done is closed once the read loop stops.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close performs a normal closing handshake and waits for the read loop.
func (c *Client) Close() error {
	c.writeMu.Lock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.opts.WriteTimeout))
	c.writeMu.Unlock()

	select {
	case <-c.done:
	case <-time.After(c.opts.WriteTimeout):
	}
	c.conn.Close()

	if err != nil && !errors.Is(err, websocket.ErrCloseSent) {
		return err
	}
	return nil
}

func (c *Client) readLoop() {
	defer close(c.done)

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			c.mu.Lock()
			c.err = err
			c.mu.Unlock()
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		text := string(data)
		c.mu.Lock()
		index := len(c.frames)
		c.frames = append(c.frames, text)
		handlers := append([]Handler(nil), c.handlers...)
		c.mu.Unlock()

		for _, h := range handlers {
			h(c, index, text)
		}

		select {
		case c.notify <- struct{}{}:
		default:
		}
	}
}

func (c *Client) readErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
