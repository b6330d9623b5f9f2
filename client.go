// Package wlsimple is a minimal Wayland client: it binds the compositor,
// shm and shell globals, shares one ARGB8888 buffer with the compositor
// through an anonymous sealed memory file and presents a single frame.
package wlsimple

import (
	"context"
	"errors"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/AchrafSoltani/wlsimple/internal/shm"
	"github.com/AchrafSoltani/wlsimple/internal/wayland"
)

// Options configures a Client
type Options struct {
	Socket string // compositor socket; empty follows WAYLAND_DISPLAY

	Width  int
	Height int
	Title  string
	Class  string
	Color  shm.Color

	Logger zerolog.Logger
	Out    io.Writer // receives the list of advertised globals
	OS     shm.OS    // system calls for the backing store
}

// DefaultOptions returns the stock 600x500 opaque black window
func DefaultOptions() Options {
	return Options{
		Width:  600,
		Height: 500,
		Title:  "simple-client",
		Color:  shm.Black,
		Logger: zerolog.Nop(),
		Out:    os.Stdout,
	}
}

// Client owns the compositor connection and every object created on it
type Client struct {
	conn     *wayland.Connection
	opts     Options
	log      zerolog.Logger
	registry wayland.ObjectID
	caps     *Capabilities

	store        *shm.BackingStore
	buffer       *Buffer
	surface      *Surface
	shellSurface *ShellSurface

	closed bool
}

// Dial connects to the compositor. It does not talk to it yet.
func Dial(opts Options) (*Client, error) {
	conn, err := wayland.Connect(opts.Socket)
	if err != nil {
		return nil, err
	}
	c := NewClient(conn, opts)
	c.log.Debug().Str("endpoint", conn.Endpoint).Msg("connected")
	return c, nil
}

// NewClient wraps an established connection
func NewClient(conn *wayland.Connection, opts Options) *Client {
	if opts.Out == nil {
		opts.Out = io.Discard
	}
	if opts.OS == nil {
		opts.OS = shm.System{}
	}
	return &Client{
		conn: conn,
		opts: opts,
		log:  opts.Logger,
		caps: NewCapabilities(),
	}
}

// Start runs the whole handshake: resolve globals, allocate the buffer,
// present the frame.
func (c *Client) Start() error {
	if err := c.Resolve(); err != nil {
		return err
	}
	if err := c.Allocate(); err != nil {
		return err
	}
	return c.Present()
}

// Capabilities returns the globals bound so far
func (c *Client) Capabilities() *Capabilities { return c.caps }

// Buffer returns the shared pixel buffer, nil before Allocate
func (c *Client) Buffer() *Buffer { return c.buffer }

// Surface returns the presented surface, nil before Present
func (c *Client) Surface() *Surface { return c.surface }

// ShellSurface returns the window-management handle. It is nil when the
// compositor has no wl_shell.
func (c *Client) ShellSurface() *ShellSurface { return c.shellSurface }

// HandleEvent routes one event to the component that listens for it.
// Events nobody listens for are dropped.
func (c *Client) HandleEvent(ev wayland.Event) error {
	switch e := ev.(type) {
	case wayland.GlobalEvent:
		return c.handleGlobal(e)
	case wayland.GlobalRemoveEvent:
		c.handleGlobalRemove(e)
	case wayland.ShmFormatEvent:
		c.handleShmFormat(e)
	case wayland.PingEvent:
		return c.handlePing(e)
	case wayland.ConfigureEvent:
		// The window is never resized after creation
		c.log.Debug().Int32("width", e.Width).Int32("height", e.Height).Msg("ignoring configure")
	case wayland.BufferReleaseEvent:
		c.log.Trace().Uint32("buffer", uint32(e.Buffer)).Msg("buffer released")
	case wayland.UnknownEvent:
		c.log.Trace().Str("interface", e.Interface).Uint16("opcode", e.Opcode).Msg("unhandled event")
	}
	return nil
}

// Dispatch blocks until one event has been processed
func (c *Client) Dispatch() error {
	return c.conn.Dispatch(c)
}

// Roundtrip blocks until the compositor has processed all requests sent
// so far, handling events that arrive in between.
func (c *Client) Roundtrip() error {
	return c.conn.Roundtrip(c)
}

// Run dispatches events until the connection fails or ctx is done.
// Cancellation is not an error.
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		// Wakes the blocked read; the loop sees ctx.Err and returns.
		c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		if err := c.Dispatch(); err != nil {
			return runError(ctx, err)
		}
	}
}

// runError drops the error caused by the cancellation deadline and keeps
// every other one, even when ctx is done by the time it is seen.
func runError(ctx context.Context, err error) error {
	if ctx.Err() != nil && errors.Is(err, os.ErrDeadlineExceeded) {
		return nil
	}
	return err
}

// Close destroys the surface and buffer, releases the shared memory and
// closes the connection. Images obtained from Buffer are emptied so they
// no longer reference the released memory.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	// Teardown requests are best effort; the peer may already be gone.
	if c.surface != nil {
		c.conn.DestroySurface(c.surface.id)
	}
	if c.buffer != nil {
		c.conn.DestroyBuffer(c.buffer.id)
		*c.buffer.image = shm.Image{}
	}
	if c.store != nil {
		errs = append(errs, c.store.Close())
	}
	c.surface, c.shellSurface, c.buffer, c.store = nil, nil, nil, nil
	errs = append(errs, c.conn.Close())
	return errors.Join(errs...)
}
