// Package wayland is a small client-side Wayland transport: it connects to
// the compositor, tracks client object ids, encodes the requests this
// client issues and decodes the events it listens for.
package wayland

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/AchrafSoltani/wlsimple/internal/wire"
)

// ObjectID identifies a protocol object on one connection.
type ObjectID uint32

// Connection represents a connection to the compositor
type Connection struct {
	wire *wire.Conn

	// Endpoint the connection was opened on, for diagnostics
	Endpoint string

	// Object table: id -> interface name
	objects map[ObjectID]string
	free    []ObjectID
	nextID  ObjectID
}

// Connect opens a connection to the compositor.
//
// An explicit socket wins. Otherwise WAYLAND_SOCKET (an inherited,
// already connected descriptor) is used, then WAYLAND_DISPLAY, which is
// either an absolute path or a name under XDG_RUNTIME_DIR. The default
// display name is "wayland-0".
func Connect(socket string) (*Connection, error) {
	if socket == "" {
		if fdStr := os.Getenv("WAYLAND_SOCKET"); fdStr != "" {
			return connectFD(fdStr)
		}
	}

	path, err := socketPath(socket)
	if err != nil {
		return nil, &ConnectError{Err: err}
	}

	conn, err := net.DialUnix("unix", nil, &net.UnixAddr{Name: path, Net: "unix"})
	if err != nil {
		return nil, &ConnectError{Endpoint: path, Err: err}
	}

	c := NewConnection(conn)
	c.Endpoint = path
	return c, nil
}

func connectFD(fdStr string) (*Connection, error) {
	// The descriptor is ours now; later children must not inherit the name.
	os.Unsetenv("WAYLAND_SOCKET")

	fd, err := strconv.Atoi(fdStr)
	if err != nil {
		return nil, &ConnectError{Endpoint: "WAYLAND_SOCKET=" + fdStr, Err: err}
	}
	f := os.NewFile(uintptr(fd), "wayland-socket")
	defer f.Close()

	fc, err := net.FileConn(f)
	if err != nil {
		return nil, &ConnectError{Endpoint: "WAYLAND_SOCKET=" + fdStr, Err: err}
	}
	conn, ok := fc.(*net.UnixConn)
	if !ok {
		fc.Close()
		return nil, &ConnectError{Endpoint: "WAYLAND_SOCKET=" + fdStr, Err: errors.New("not a unix socket")}
	}

	c := NewConnection(conn)
	c.Endpoint = "WAYLAND_SOCKET=" + fdStr
	return c, nil
}

func socketPath(socket string) (string, error) {
	name := socket
	if name == "" {
		name = os.Getenv("WAYLAND_DISPLAY")
	}
	if name == "" {
		name = "wayland-0"
	}
	if filepath.IsAbs(name) {
		return name, nil
	}

	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, name), nil
}

// NewConnection wraps an already connected socket.
func NewConnection(conn *net.UnixConn) *Connection {
	return &Connection{
		wire:    wire.NewConn(conn),
		objects: map[ObjectID]string{DisplayID: InterfaceDisplay},
		nextID:  DisplayID + 1,
	}
}

// Close closes the connection
func (c *Connection) Close() error {
	return c.wire.Close()
}

// SetReadDeadline bounds the blocking read in NextEvent. A deadline in the
// past interrupts a Dispatch in progress.
func (c *Connection) SetReadDeadline(t time.Time) error {
	return c.wire.SetReadDeadline(t)
}

// Interface returns the interface of a live object.
func (c *Connection) Interface(id ObjectID) (string, bool) {
	iface, ok := c.objects[id]
	return iface, ok
}

// newObject allocates the lowest free client id for a new object.
func (c *Connection) newObject(iface string) (ObjectID, error) {
	var id ObjectID
	if len(c.free) > 0 {
		id = c.free[0]
		c.free = c.free[1:]
	} else {
		if c.nextID > maxClientID {
			return 0, errors.New("wayland: client object ids exhausted")
		}
		id = c.nextID
		c.nextID++
	}
	c.objects[id] = iface
	return id, nil
}

// release returns an id to the free list once the compositor confirmed
// the deletion.
func (c *Connection) release(id ObjectID) {
	if id == DisplayID {
		return
	}
	if _, ok := c.objects[id]; !ok {
		return
	}
	delete(c.objects, id)
	i := sort.Search(len(c.free), func(i int) bool { return c.free[i] >= id })
	c.free = append(c.free, 0)
	copy(c.free[i+1:], c.free[i:])
	c.free[i] = id
}

func (c *Connection) send(b *wire.Builder) error {
	return c.wire.WriteMessage(b.Message())
}

// create allocates an id for a new object and sends the request built by
// fn. The id is released again if the request could not be sent.
func (c *Connection) create(iface string, fn func(id ObjectID) *wire.Builder) (ObjectID, error) {
	id, err := c.newObject(iface)
	if err != nil {
		return 0, err
	}
	if err := c.send(fn(id)); err != nil {
		c.release(id)
		return 0, fmt.Errorf("create %s: %w", iface, err)
	}
	return id, nil
}

// Handler receives decoded events from Dispatch.
type Handler interface {
	HandleEvent(Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(Event) error

func (f HandlerFunc) HandleEvent(ev Event) error { return f(ev) }

// Dispatch blocks until one event has been read, applies the transport's
// own bookkeeping and delivers it to h. A nil h drops the event.
func (c *Connection) Dispatch(h Handler) error {
	ev, err := c.NextEvent()
	if err != nil {
		return err
	}

	switch e := ev.(type) {
	case DisplayErrorEvent:
		iface, _ := c.Interface(e.Object)
		return &ProtocolError{Object: e.Object, Interface: iface, Code: e.Code, Message: e.Message}
	case DeleteIDEvent:
		c.release(e.ID)
	}

	if h == nil {
		return nil
	}
	return h.HandleEvent(ev)
}

// Roundtrip blocks until the compositor has processed every request sent
// so far. Events that arrive in the meantime are delivered to h.
func (c *Connection) Roundtrip(h Handler) error {
	cb, err := c.Sync()
	if err != nil {
		return err
	}

	done := false
	wrapped := HandlerFunc(func(ev Event) error {
		if e, ok := ev.(CallbackDoneEvent); ok && e.Callback == cb {
			done = true
			return nil
		}
		if h == nil {
			return nil
		}
		return h.HandleEvent(ev)
	})

	for !done {
		if err := c.Dispatch(wrapped); err != nil {
			return err
		}
	}
	return nil
}
